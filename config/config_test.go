package config

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	t.Setenv("RSCLI_DRIVER", "")
	Reset()
	t.Cleanup(Reset)

	assert.Equal(t, "realsense", GetDriver())
	assert.Empty(t, GetSerial())
	assert.Equal(t, DefaultWaitTimeout, GetWaitTimeout())
	assert.NotEmpty(t, GetHome())
}

func TestEnvironment(t *testing.T) {
	t.Setenv("RSCLI_DRIVER", "mock")
	t.Setenv("RSCLI_SERIAL", "1234567890")
	t.Setenv("RSCLI_WAIT_TIMEOUT", "250ms")
	t.Setenv("RSCLI_HOME", "/tmp/rscli")
	Reset()
	t.Cleanup(Reset)

	assert.Equal(t, "mock", GetDriver())
	assert.Equal(t, "1234567890", GetSerial())
	assert.Equal(t, 250*time.Millisecond, GetWaitTimeout())
	assert.Equal(t, "/tmp/rscli", GetHome())
}

func TestFlagOverridesEnvironment(t *testing.T) {
	t.Setenv("RSCLI_SERIAL", "111")
	Reset()
	t.Cleanup(Reset)

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("serial", "", "")
	BindFlag(KeySerial, flags.Lookup("serial"))

	assert.Equal(t, "111", GetSerial(), "unset flag keeps the environment value")
	require.NoError(t, flags.Parse([]string{"--serial", "222"}))
	assert.Equal(t, "222", GetSerial())
}

func TestBindUndefinedFlagPanics(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	assert.PanicsWithValue(t, `config: BindFlag serial: flag for "serial" is nil`, func() {
		BindFlag(KeySerial, flags.Lookup("serial"))
	})
}

func TestInvalidWaitTimeoutFallsBack(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	Set(KeyWaitTimeout, "-1s")
	assert.Equal(t, DefaultWaitTimeout, GetWaitTimeout())
}
