// Package logging builds the process-wide zap logger and the helpers used
// to record authentication events in a uniform shape.
package logging

import (
    "strings"

    "go.uber.org/zap"
    "go.uber.org/zap/zapcore"
)

// New returns a JSON production logger, or a colored console logger when
// env is "dev"/"development".
func New(env string) (*zap.Logger, error) {
    switch strings.ToLower(env) {
    case "dev", "development", "local":
        cfg := zap.NewDevelopmentConfig()
        cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
        return cfg.Build()
    }
    cfg := zap.NewProductionConfig()
    cfg.EncoderConfig.TimeKey = "ts"
    cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
    return cfg.Build()
}

// AuthEvent logs one authentication event.  Failures go out at warn level.
func AuthEvent(log *zap.Logger, event, username string, success bool, details string) {
    fields := []zap.Field{
        zap.String("event", event),
        zap.String("username", username),
        zap.Bool("success", success),
    }
    if details != "" {
        fields = append(fields, zap.String("details", details))
    }
    if success {
        log.Info("auth event", fields...)
        return
    }
    log.Warn("auth event", fields...)
}
