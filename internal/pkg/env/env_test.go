package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetEnv_Precedence(t *testing.T) {
	old := Env
	t.Cleanup(func() { Env = old })

	t.Setenv("STOREFRONT_TEST_KEY", "from-os")
	Env = map[string]string{}
	assert.Equal(t, "from-os", GetEnv("STOREFRONT_TEST_KEY", "def"))

	Env = map[string]string{"STOREFRONT_TEST_KEY": "from-file"}
	assert.Equal(t, "from-file", GetEnv("STOREFRONT_TEST_KEY", "def"))

	assert.Equal(t, "def", GetEnv("STOREFRONT_TEST_MISSING", "def"))
}

func TestIsDev(t *testing.T) {
	old := Env
	t.Cleanup(func() { Env = old })

	Env = map[string]string{"APP_ENV": "dev"}
	assert.True(t, IsDev())
	Env = map[string]string{"APP_ENV": "prod"}
	assert.False(t, IsDev())
}
