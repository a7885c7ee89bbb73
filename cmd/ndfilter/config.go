// Configuration loading for the ndfilter CLI.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/gogpu/ndfilter/reference"
)

const (
	envPrefix = "NDFILTER"

	// Global config keys.
	cfgKeyBackend  = "backend"
	cfgKeyLogLevel = "log_level"
	cfgKeyCompare  = "compare"
	cfgKeySpacing  = "spacing"

	defaultLogLevel = "warn"
)

// optionKind is the flag type of a filter option.
type optionKind int

const (
	kindString optionKind = iota // numbers and per-axis vectors, e.g. "1,2"
	kindBool
)

// optionKey describes one filter option: its key in reference.Options (and
// in the config file) and its flag.
type optionKey struct {
	key   string
	kind  optionKind
	usage string
}

// flagName returns the kebab-case flag name of the option.
func (o optionKey) flagName() string {
	return strings.ReplaceAll(o.key, "_", "-")
}

func (o optionKey) register(fs *pflag.FlagSet) {
	switch o.kind {
	case kindBool:
		fs.Bool(o.flagName(), false, o.usage)
	default:
		fs.String(o.flagName(), "", o.usage)
	}
}

// loadConfig builds the viper instance of one invocation: flags of cmd
// override NDFILTER_* variables, which override the config file.
// A config file is only read when path is non-empty.
func loadConfig(cmd *cobra.Command, path string, keys []optionKey) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(cfgKeyLogLevel, defaultLogLevel)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) {
				return nil, fmt.Errorf("config file %s not found", path)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	bind := func(key, flag string) error {
		f := cmd.Flags().Lookup(flag)
		if f == nil {
			return nil
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", flag, err)
		}
		return nil
	}
	for _, key := range []string{cfgKeyBackend, cfgKeyLogLevel, cfgKeyCompare, cfgKeySpacing} {
		if err := bind(key, strings.ReplaceAll(key, "_", "-")); err != nil {
			return nil, err
		}
	}
	for _, k := range keys {
		if err := bind(k.key, k.flagName()); err != nil {
			return nil, err
		}
		// AutomaticEnv only serves keys viper already knows.
		if err := v.BindEnv(k.key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", k.key, err)
		}
	}
	return v, nil
}

// filterOptions collects the options that were set by a flag, the
// environment or the config file. Unset options keep the filter defaults.
func filterOptions(v *viper.Viper, keys []optionKey) reference.Options {
	opts := reference.Options{}
	for _, k := range keys {
		if v.IsSet(k.key) {
			opts[k.key] = v.Get(k.key)
		}
	}
	return opts
}

// parseLevel maps a level name to a slog level.
func parseLevel(name string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(name)); err != nil {
		return 0, fmt.Errorf("invalid log level %q", name)
	}
	return l, nil
}
