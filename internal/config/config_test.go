package config

import (
    "os"
    "path/filepath"
    "testing"
    "time"

    "github.com/alicebob/miniredis/v2"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestLoadReadsRequiredAndOptionalValues(t *testing.T) {
    t.Setenv("APP_ENV", "test")
    t.Setenv("APP_PORT", "8080")
    t.Setenv("DB_USER", "academy")
    t.Setenv("DB_HOST", "127.0.0.1")
    t.Setenv("DB_PORT", "3306")
    t.Setenv("DB_NAME", "academy")
    t.Setenv("JWT_SECRET", "s3cret")
    t.Setenv("JWT_ALGORITHM", "hs512")
    t.Setenv("ACCESS_TOKEN_TTL_MIN", "30")
    t.Setenv("REFRESH_TOKEN_TTL_DAYS", "7")
    t.Setenv("BCRYPT_COST", "4")
    t.Setenv("INITIAL_ADMIN_USERNAME", "root")
    t.Setenv("INITIAL_ADMIN_PASSWORD", "changeme")
    t.Setenv("RABBITMQ_URL", "amqp://u:p@mq:5672/")

    cfg := Load()
    assert.Equal(t, "test", cfg.Env)
    assert.Equal(t, "HS512", cfg.JWTAlgorithm)
    assert.Equal(t, 30, cfg.AccessTTLMin)
    assert.Equal(t, 7, cfg.RefreshTTLDays)
    assert.Equal(t, "Administrator", cfg.InitialAdmin.Name)
    assert.Equal(t, "root", cfg.InitialAdmin.Username)
    assert.Equal(t, "amqp://u:p@mq:5672/", cfg.RabbitURL)
    assert.False(t, cfg.AuditConsumer)
}

func TestLoadDotEnvDoesNotOverride(t *testing.T) {
    dir := t.TempDir()
    f := filepath.Join(dir, ".env")
    require.NoError(t, os.WriteFile(f, []byte("ACADEMY_TEST_A=from_file\nACADEMY_TEST_B=from_file\n"), 0o600))
    t.Setenv("ACADEMY_TEST_A", "from_env")
    t.Setenv("ACADEMY_TEST_B", "")
    require.NoError(t, os.Unsetenv("ACADEMY_TEST_B"))

    LoadDotEnv(f, filepath.Join(dir, "missing.env"))
    assert.Equal(t, "from_env", os.Getenv("ACADEMY_TEST_A"))
    assert.Equal(t, "from_file", os.Getenv("ACADEMY_TEST_B"))
}

func TestRateLimitDefaultsAndNormalize(t *testing.T) {
    cfg := LoadRateLimitConfig()
    assert.True(t, cfg.Enabled)
    assert.Equal(t, 10, cfg.Capacity)
    assert.Equal(t, "rl:auth", cfg.Prefix)

    n := RateLimitConfig{Capacity: 0, RefillTokens: 0, RefillInterval: 0, TTL: 0}.normalize()
    assert.Equal(t, 1, n.Capacity)
    assert.Equal(t, 1, n.RefillTokens)
    assert.Equal(t, time.Second, n.RefillInterval)
    assert.Equal(t, 5*time.Second, n.TTL)
}

func TestLoadCacheConfigMethods(t *testing.T) {
    t.Setenv("CACHE_METHODS", "get, head ,")
    cfg := LoadCacheConfig()
    assert.Equal(t, map[string]bool{"GET": true, "HEAD": true}, cfg.Methods)
    assert.Equal(t, 30*time.Second, cfg.TTL)
}

func TestNewRedisClient(t *testing.T) {
    mr := miniredis.RunT(t)
    t.Setenv("REDIS_ADDR", mr.Addr())

    client, err := NewRedisClient(t.Context(), LoadRedisConfig())
    require.NoError(t, err)
    defer client.Close()

    addr := mr.Addr()
    mr.Close()
    _, err = NewRedisClient(t.Context(), RedisConfig{Addr: addr})
    assert.Error(t, err)
}
