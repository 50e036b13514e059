package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/flagkit/pkg/config"
)

type defaultsConfig struct {
	Store string        `env:"CONFIG_TEST_STORE" envDefault:"memory"`
	TTL   time.Duration `env:"CONFIG_TEST_TTL" envDefault:"1h"`
	Size  int           `env:"CONFIG_TEST_SIZE" envDefault:"1024"`
}

type overrideConfig struct {
	Store   string            `env:"CONFIG_TEST_OVERRIDE_STORE" envDefault:"memory"`
	Exclude []string          `env:"CONFIG_TEST_OVERRIDE_EXCLUDE" envSeparator:","`
	Headers map[string]string `env:"CONFIG_TEST_OVERRIDE_HEADERS"`
}

type cachedConfig struct {
	Value string `env:"CONFIG_TEST_CACHED"`
}

type requiredConfig struct {
	URL string `env:"CONFIG_TEST_REQUIRED_URL,required"`
}

type fileConfig struct {
	String string   `env:"CONFIG_TEST_FILE_STRING"`
	List   []string `env:"CONFIG_TEST_FILE_LIST"`
	Quoted string   `env:"CONFIG_TEST_FILE_QUOTED"`
}

func TestLoad_Defaults(t *testing.T) {
	var cfg defaultsConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "memory", cfg.Store)
	assert.Equal(t, time.Hour, cfg.TTL)
	assert.Equal(t, 1024, cfg.Size)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("CONFIG_TEST_OVERRIDE_STORE", "postgres")
	t.Setenv("CONFIG_TEST_OVERRIDE_EXCLUDE", "updated,deleted")
	t.Setenv("CONFIG_TEST_OVERRIDE_HEADERS", "Authorization:Bearer x,X-Env:test")

	var cfg overrideConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "postgres", cfg.Store)
	assert.Equal(t, []string{"updated", "deleted"}, cfg.Exclude)
	assert.Equal(t, map[string]string{"Authorization": "Bearer x", "X-Env": "test"}, cfg.Headers)
}

func TestLoad_CachedPerType(t *testing.T) {
	t.Setenv("CONFIG_TEST_CACHED", "first")
	var first cachedConfig
	require.NoError(t, config.Load(&first))

	t.Setenv("CONFIG_TEST_CACHED", "second")
	var second cachedConfig
	require.NoError(t, config.Load(&second))
	assert.Equal(t, "first", second.Value)

	config.ResetCache()
	var third cachedConfig
	require.NoError(t, config.Load(&third))
	assert.Equal(t, "second", third.Value)
}

func TestLoad_MissingRequired(t *testing.T) {
	var cfg requiredConfig
	err := config.Load(&cfg)
	require.ErrorIs(t, err, config.ErrParsingConfig)
}

func TestLoad_NilPointer(t *testing.T) {
	var cfg *defaultsConfig
	require.ErrorIs(t, config.Load(cfg), config.ErrNilPointer)
}

func TestLoadEnv(t *testing.T) {
	require.NoError(t, config.LoadEnv("testdata/.env.test"))
	t.Cleanup(func() {
		for _, k := range []string{"CONFIG_TEST_FILE_STRING", "CONFIG_TEST_FILE_LIST", "CONFIG_TEST_FILE_QUOTED"} {
			_ = os.Unsetenv(k)
		}
	})

	var cfg fileConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "from_file", cfg.String)
	assert.Equal(t, []string{"a", "b", "c"}, cfg.List)
	assert.Equal(t, "quoted value", cfg.Quoted)

	require.ErrorIs(t, config.LoadEnv("testdata/missing.env"), config.ErrLoadingEnvFile)
}
