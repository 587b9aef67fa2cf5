package middleware

import (
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"
    "go.uber.org/zap"
)

// RequestID reuses the client's X-Request-ID or assigns a new one and echoes
// it on the response.
func RequestID() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            rid := c.Request().Header.Get(echo.HeaderXRequestID)
            if rid == "" {
                rid = uuid.NewString()
            }
            c.Response().Header().Set(echo.HeaderXRequestID, rid)
            return next(c)
        }
    }
}

// RequestLogger logs one line per request.  5xx responses log at error,
// 4xx at warn.
func RequestLogger(log *zap.Logger) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            err := next(c)
            if err != nil {
                // let echo's error handler write the response so status is final
                c.Error(err)
            }

            req := c.Request()
            res := c.Response()
            fields := []zap.Field{
                zap.String("request_id", res.Header().Get(echo.HeaderXRequestID)),
                zap.Int("status", res.Status),
                zap.String("method", req.Method),
                zap.String("path", req.URL.Path),
                zap.String("ip", c.RealIP()),
                zap.String("user_agent", req.UserAgent()),
                zap.Duration("latency", time.Since(start)),
                zap.String("principal", principalKey(c)),
            }
            if err != nil {
                fields = append(fields, zap.Error(err))
            }

            switch status := res.Status; {
            case status >= 500:
                log.Error("request failed", fields...)
            case status >= 400:
                log.Warn("request rejected", fields...)
            default:
                log.Info("request completed", fields...)
            }
            return nil
        }
    }
}
