package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/centerhub/billing/pkg/config"
)

type nested struct {
	Interval time.Duration `env:"CFG_TEST_INTERVAL" envDefault:"1m"`
}

type testConfig struct {
	Name    string   `env:"CFG_TEST_NAME" envDefault:"billing"`
	Port    int      `env:"CFG_TEST_PORT" envDefault:"8080"`
	Origins []string `env:"CFG_TEST_ORIGINS" envSeparator:","`
	Nested  nested
}

type requiredConfig struct {
	URL string `env:"CFG_TEST_REQUIRED_URL,required"`
}

type validatedConfig struct {
	Workers int `env:"CFG_TEST_WORKERS" envDefault:"4"`
}

func (c validatedConfig) Validate() error {
	if c.Workers <= 0 {
		return errors.New("workers must be positive")
	}
	return nil
}

func TestLoad_Defaults(t *testing.T) {
	var cfg testConfig
	require.NoError(t, config.Load(&cfg))

	assert.Equal(t, "billing", cfg.Name)
	assert.Equal(t, 8080, cfg.Port)
	assert.Empty(t, cfg.Origins)
	assert.Equal(t, time.Minute, cfg.Nested.Interval)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("CFG_TEST_NAME", "billingd")
	t.Setenv("CFG_TEST_PORT", "9090")
	t.Setenv("CFG_TEST_ORIGINS", "a.example,b.example")
	t.Setenv("CFG_TEST_INTERVAL", "30s")

	var cfg testConfig
	require.NoError(t, config.Load(&cfg))

	assert.Equal(t, "billingd", cfg.Name)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, []string{"a.example", "b.example"}, cfg.Origins)
	assert.Equal(t, 30*time.Second, cfg.Nested.Interval)
}

func TestLoad_MissingRequired(t *testing.T) {
	var cfg requiredConfig
	err := config.Load(&cfg)
	assert.ErrorIs(t, err, config.ErrParsingConfig)
}

func TestLoad_Validator(t *testing.T) {
	t.Setenv("CFG_TEST_WORKERS", "0")

	var cfg validatedConfig
	err := config.Load(&cfg)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestLoad_NilPointer(t *testing.T) {
	var cfg *testConfig
	assert.ErrorIs(t, config.Load(cfg), config.ErrNilPointer)
	assert.Panics(t, func() { config.MustLoad[requiredConfig](&requiredConfig{}) })
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env.test")
	require.NoError(t, os.WriteFile(path, []byte("CFG_TEST_FROM_FILE=from_file\nCFG_TEST_PRESET=file\n"), 0o600))

	t.Setenv("CFG_TEST_PRESET", "process")
	t.Cleanup(func() { _ = os.Unsetenv("CFG_TEST_FROM_FILE") })

	require.NoError(t, config.LoadEnv(path))
	assert.Equal(t, "from_file", os.Getenv("CFG_TEST_FROM_FILE"))
	assert.Equal(t, "process", os.Getenv("CFG_TEST_PRESET"))

	assert.ErrorIs(t, config.LoadEnv(filepath.Join(dir, "missing.env")), config.ErrLoadingEnvFiles)
}
