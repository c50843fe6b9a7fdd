package config

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	env "github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "PROBE_"

// Load reads configuration (highest precedence last):
//
//  1. Built-in defaults
//  2. YAML file at path, skipped when path is empty
//  3. Environment variables (PROBE_ prefix)
//
// Env names are matched against known keys so underscores inside a key
// survive: PROBE_HTTP_READ_TIMEOUT -> http.read_timeout,
// PROBE_TARGETS_ROUTE53_ENABLED -> targets.route53.enabled.
// List values are comma separated. The result is not validated; callers run
// Validate so they can report each problem on its own.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config %s: %w", path, err)
		}
	}

	envLookup := buildEnvLookup(k.Keys())
	lists := listKeys(k)
	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
			if koanfKey, ok := envLookup[key]; ok {
				if lists[koanfKey] {
					return koanfKey, splitList(value)
				}
				return koanfKey, value
			}
			return strings.ReplaceAll(key, "_", "."), value
		},
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	return &cfg, nil
}

// buildEnvLookup maps "http_read_timeout" style names back to dotted keys.
func buildEnvLookup(keys []string) map[string]string {
	lookup := make(map[string]string, len(keys))
	for _, key := range keys {
		lookup[strings.ReplaceAll(key, ".", "_")] = key
	}
	return lookup
}

// listKeys reports which loaded keys hold slices, so their env overrides can
// be split on commas.
func listKeys(k *koanf.Koanf) map[string]bool {
	out := make(map[string]bool)
	for key, v := range k.All() {
		if v != nil && reflect.TypeOf(v).Kind() == reflect.Slice {
			out[key] = true
		}
	}
	return out
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
