package env_test

import (
	"errors"
	"testing"
	"time"

	"github.com/adamluzsi/persistroute/pkg/env"
	"go.llib.dev/testcase/assert"
)

func ExampleLookup() {
	val, ok, err := env.Lookup[string]("FOO", env.DefaultValue("foo"))
	_, _, _ = val, ok, err
}

func TestLookup(t *testing.T) {
	t.Run("present value is parsed", func(t *testing.T) {
		t.Setenv("PERSISTROUTE_TEST_INT", "42")
		v, ok, err := env.Lookup[int]("PERSISTROUTE_TEST_INT")
		assert.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 42, v)
	})
	t.Run("absent value falls back to the default", func(t *testing.T) {
		v, ok, err := env.Lookup[time.Duration]("PERSISTROUTE_TEST_ABSENT", env.DefaultValue("1m"))
		assert.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, time.Minute, v)
	})
	t.Run("absent required value is an error", func(t *testing.T) {
		_, ok, err := env.Lookup[string]("PERSISTROUTE_TEST_ABSENT", env.Required())
		assert.False(t, ok)
		assert.True(t, errors.Is(err, env.ErrMissingEnvironmentVariable))
	})
	t.Run("malformed value is an error", func(t *testing.T) {
		t.Setenv("PERSISTROUTE_TEST_BOOL", "nope")
		_, _, err := env.Lookup[bool]("PERSISTROUTE_TEST_BOOL")
		assert.True(t, errors.Is(err, env.ErrLoadInvalidData))
	})
}

func TestLoad(t *testing.T) {
	type AppConfig struct {
		Addr    string        `env:"PERSISTROUTE_TEST_ADDR" default:":8080"`
		Timeout time.Duration `env:"PERSISTROUTE_TEST_TIMEOUT" default:"5s"`
		Debug   bool          `env:"PERSISTROUTE_TEST_DEBUG"`
		Path    string        `env:"PERSISTROUTE_TEST_PATH" required:"true"`
	}

	t.Setenv("PERSISTROUTE_TEST_DEBUG", "true")
	t.Setenv("PERSISTROUTE_TEST_PATH", "/tmp/routes.yml")

	var c AppConfig
	assert.NoError(t, env.Load(&c))
	assert.Equal(t, ":8080", c.Addr)
	assert.Equal(t, 5*time.Second, c.Timeout)
	assert.True(t, c.Debug)
	assert.Equal(t, "/tmp/routes.yml", c.Path)
}
