package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var v *viper.Viper

// Keys of the settings shared by commands.
const (
	KeyDriver      = "driver"
	KeyFixtures    = "fixtures"
	KeySerial      = "serial"
	KeyWaitTimeout = "stream.wait_timeout"
	KeyHome        = "rscli.home"
)

// DefaultWaitTimeout bounds a single wait for frames.
const DefaultWaitTimeout = time.Second

func init() {
	Reset()
	load()
}

// Reset restores defaults and environment bindings, dropping flag bindings and any
// loaded config file.
func Reset() {
	v = viper.New()

	v.SetDefault(KeyDriver, "realsense")
	v.SetDefault(KeyFixtures, "")
	v.SetDefault(KeySerial, "")
	v.SetDefault(KeyWaitTimeout, DefaultWaitTimeout)
	v.SetDefault(KeyHome, filepath.Join(xdg.ConfigHome, "rscli"))

	v.AutomaticEnv()
	v.BindEnv(KeyDriver, "RSCLI_DRIVER")
	v.BindEnv(KeyFixtures, "RSCLI_FIXTURES")
	v.BindEnv(KeySerial, "RSCLI_SERIAL")
	v.BindEnv(KeyWaitTimeout, "RSCLI_WAIT_TIMEOUT")
	v.BindEnv(KeyHome, "RSCLI_HOME")
}

func load() {
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	configPaths := []string{
		".",
		GetHome(),
		"/etc/rscli",
	}
	for _, path := range configPaths {
		v.AddConfigPath(os.ExpandEnv(path))
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error was produced
			panic(fmt.Sprintf("Fatal error reading config file: %s", err))
		}
	}
}

// BindFlag lets a command line flag override a setting when it is set.
// Binding a flag that was never defined is a programming error and panics.
func BindFlag(key string, flag *pflag.Flag) {
	if err := v.BindPFlag(key, flag); err != nil {
		panic("config: BindFlag " + key + ": " + err.Error())
	}
}

// Set overrides a setting for the rest of the process.
func Set(key string, value interface{}) {
	v.Set(key, value)
}

// GetDriver returns the camera backend driver name.
func GetDriver() string {
	return v.GetString(KeyDriver)
}

// GetFixturesPath returns the fixture file used by the mock driver.
func GetFixturesPath() string {
	return v.GetString(KeyFixtures)
}

// GetSerial returns the serial number of the device to use. Empty selects the
// first device.
func GetSerial() string {
	return v.GetString(KeySerial)
}

// GetWaitTimeout returns how long one frame wait may take.
func GetWaitTimeout() time.Duration {
	d := v.GetDuration(KeyWaitTimeout)
	if d <= 0 {
		return DefaultWaitTimeout
	}
	return d
}

// GetHome returns the rscli configuration directory
func GetHome() string {
	return v.GetString(KeyHome)
}
