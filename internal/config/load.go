// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Library Management Contributors

package config

import (
	"os"
	"sort"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
	yamlv3 "gopkg.in/yaml.v3"
)

// Environment variables that override file values.
const (
	EnvDatabaseURL = "DATABASE_URL"
	EnvJWTSecret   = "LIBRARYMS_JWT_SECRET"
)

var envKeys = map[string]string{
	EnvDatabaseURL: "database.url",
	EnvJWTSecret:   "auth.jwt_secret",
}

// Loader assembles a Config and remembers the merged values for display.
type Loader struct {
	k        *koanf.Koanf
	environ  func() []string
	readFile func(string) ([]byte, error)
}

// NewLoader returns a Loader that reads the process environment.
func NewLoader() *Loader {
	return &Loader{
		k:        koanf.New("."),
		environ:  os.Environ,
		readFile: os.ReadFile,
	}
}

// Load merges defaults, the YAML file at path (skipped when empty), environment
// overrides, and flags. flagKeys maps flag names to config keys; only flags the
// user set are applied.
func (l *Loader) Load(path string, flags *pflag.FlagSet, flagKeys map[string]string) (*Config, error) {
	if err := l.k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("source", "defaults").Wrap(err)
	}

	if path != "" {
		data, err := l.readFile(path)
		if err != nil {
			return nil, oops.Code("CONFIG_INVALID").With("path", path).Wrapf(err, "read config file")
		}
		if err := ValidateYAML(data); err != nil {
			return nil, oops.Code("CONFIG_INVALID").With("path", path).Wrap(err)
		}
		if err := l.k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_INVALID").With("path", path).Wrapf(err, "parse config file")
		}
	}

	if err := l.k.Load(l.envProvider(), nil); err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("source", "environment").Wrap(err)
	}

	if flags != nil && len(flagKeys) > 0 {
		provider := posflag.ProviderWithFlag(flags, ".", l.k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		})
		if err := l.k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_INVALID").With("source", "flags").Wrap(err)
		}
	}

	var cfg Config
	if err := l.k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_INVALID").Wrapf(err, "decode config")
	}
	return &cfg, nil
}

// envProvider maps the variables in envKeys onto config keys. Unset and empty
// variables are skipped.
func (l *Loader) envProvider() *env.Env {
	return env.Provider(".", env.Opt{
		EnvironFunc: l.environ,
		TransformFunc: func(name, value string) (string, any) {
			key, ok := envKeys[name]
			if !ok || value == "" {
				return "", nil
			}
			return key, value
		},
	})
}

// YAML renders the merged configuration with secrets redacted.
func (l *Loader) YAML() ([]byte, error) {
	display := l.k.Copy()
	if display.String("auth.jwt_secret") != "" {
		if err := display.Set("auth.jwt_secret", Redacted); err != nil {
			return nil, oops.Code("CONFIG_RENDER_FAILED").Wrap(err)
		}
	}
	if u := display.String("database.url"); u != "" {
		if err := display.Set("database.url", redactURL(u)); err != nil {
			return nil, oops.Code("CONFIG_RENDER_FAILED").Wrap(err)
		}
	}

	out, err := yamlv3.Marshal(displayable(display.Raw()))
	if err != nil {
		return nil, oops.Code("CONFIG_RENDER_FAILED").Wrap(err)
	}
	return out, nil
}

// Keys lists every loaded key in sorted order.
func (l *Loader) Keys() []string {
	keys := l.k.Keys()
	sort.Strings(keys)
	return keys
}

// displayable renders durations in their string form.
func displayable(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = displayable(item)
		}
		return out
	case time.Duration:
		return val.String()
	default:
		return val
	}
}
