// Package config loads a settings struct from its defaults, an optional file and the environment.
package config

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type Option func(v *viper.Viper)

// WithEnvPrefix only reads environment variables starting with prefix and an underscore.
func WithEnvPrefix(prefix string) Option {
	return func(v *viper.Viper) {
		v.SetEnvPrefix(prefix)
	}
}

// Load fills config, which must be a pointer to a struct. Values already in config are the
// defaults, a file overrides them, and the environment overrides both. Environment keys are the
// field path with "." replaced by "_", so HTTP.Port is HTTP_PORT. An empty file name skips the
// file. Fields implementing encoding.TextUnmarshaler, such as slog.Level, accept their text form.
func Load(file string, config any, opts ...Option) error {
	v := viper.New()
	for _, opt := range opts {
		opt(v)
	}

	defaults := make(map[string]any)
	if err := mapstructure.Decode(config, &defaults); err != nil {
		return fmt.Errorf("config: read defaults: %w", err)
	}
	if err := v.MergeConfigMap(defaults); err != nil {
		return fmt.Errorf("config: merge defaults: %w", err)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("config: read %s: %w", file, err)
		}
	}

	hook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
	if err := v.Unmarshal(config, viper.DecodeHook(hook)); err != nil {
		return fmt.Errorf("config: decode: %w", err)
	}

	return nil
}
