package config

import (
	"errors"
	"io/fs"
	"os"
	"slices"

	"github.com/spf13/viper"
)

// Load loads the settings from the file path, falling back to env vars if
// the file does not exist. If the file exists, any env vars that are set
// will override the values loaded from the file.
func Load(filePath string) (*Settings, error) {
	v := viper.New()
	v.SetConfigFile(filePath)

	// Bind environment variables
	if err := bindEnvs(v); err != nil {
		return nil, err
	}

	// If the settings file exists, we continue to read it, otherwise we
	// fallback to using environment variables
	if _, err := os.Stat(filePath); !errors.Is(err, fs.ErrNotExist) {
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	settings := &Settings{}
	err := v.Unmarshal(settings)

	return settings, err
}

// LoadEnv loads the settings from the environment variables.
func LoadEnv() (*Settings, error) {
	v := viper.New()

	// Bind environment variables
	if err := bindEnvs(v); err != nil {
		return nil, err
	}

	settings := &Settings{}
	err := v.Unmarshal(settings)

	return settings, err
}

// LoadFile loads the settings from a file.
func LoadFile(filePath string) (*Settings, error) {
	v := viper.New()
	v.SetConfigFile(filePath)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	settings := &Settings{}
	err := v.Unmarshal(settings)

	return settings, err
}

var (
	// envBindings defines how environment variables map to settings keys used
	// by Viper. Each entry maps a settings key (as used in the struct, e.g.
	// "percent_enabled") to a list of environment variable names that can
	// provide its value.
	//
	// When loading, Viper will check each listed environment variable in
	// order and use the first one that is set.
	envBindings = map[string][]string{
		"enabled":         {"SCIENTIST_ENABLED"},
		"percent_enabled": {"SCIENTIST_PERCENT_ENABLED"},
	}
)

// bindEnvs binds the environment variables to the viper instance.
func bindEnvs(v *viper.Viper) error {
	// Bind environment variables mappings to the viper instance
	for key, envs := range envBindings {
		// Prepend the env key to the start of the arguments
		inputs := slices.Insert(envs, 0, key)

		if err := v.BindEnv(inputs...); err != nil {
			return err
		}
	}

	return nil
}
