package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix is the prefix of environment variables read as configuration,
// e.g. SWAGGER2CLIENT_INCLUDE_TAGS.
const EnvPrefix = "SWAGGER2CLIENT_"

// configKeys maps normalized keys (lowercase, no dashes or underscores) to
// their canonical spelling.
var configKeys = map[string]string{
	"input":         "input",
	"out":           "out",
	"packagename":   "packageName",
	"modulename":    "moduleName",
	"modelspackage": "modelsPackage",
	"includetags":   "includeTags",
	"excludetags":   "excludeTags",
	"methods":       "methods",
	"dryrun":        "dryRun",
	"force":         "force",
	"verbose":       "verbose",
}

var sliceKeys = map[string]bool{"includeTags": true, "excludeTags": true, "methods": true}

func normalizeKey(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	lowered = strings.ReplaceAll(lowered, "-", "")
	lowered = strings.ReplaceAll(lowered, "_", "")
	return lowered
}

func canonicalKey(raw string) (string, bool) {
	key, ok := configKeys[normalizeKey(raw)]
	return key, ok
}

// loadLayers merges, lowest precedence first: the config file, SWAGGER2CLIENT_*
// environment variables, and the flags set on the command line.
func loadLayers(flags *pflag.FlagSet, configPath string) (*koanf.Koanf, error) {
	k := koanf.New(".")

	if configPath != "" {
		if err := loadConfigFile(k, configPath); err != nil {
			return nil, err
		}
	}

	envProvider := env.ProviderWithValue(EnvPrefix, ".", func(name, value string) (string, interface{}) {
		key, ok := canonicalKey(strings.TrimPrefix(name, EnvPrefix))
		if !ok {
			return "", nil
		}
		if sliceKeys[key] {
			return key, splitAndTrim(value)
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	flagProvider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
		key, ok := canonicalKey(f.Name)
		if !ok {
			return "", nil
		}
		return key, posflag.FlagVal(flags, f)
	})
	if err := k.Load(flagProvider, nil); err != nil {
		return nil, fmt.Errorf("load flags: %w", err)
	}
	return k, nil
}

// loadConfigFile parses a YAML or JSON file into a scratch instance and
// copies its values under canonical keys, rejecting unknown fields.
func loadConfigFile(k *koanf.Koanf, path string) error {
	var parser koanf.Parser = yaml.Parser()
	if strings.EqualFold(filepath.Ext(path), ".json") {
		parser = json.Parser()
	}
	raw := koanf.New(".")
	if err := raw.Load(file.Provider(path), parser); err != nil {
		return newUsageError(fmt.Sprintf("read config file %q: %v", path, err))
	}
	for name, value := range raw.Raw() {
		key, ok := canonicalKey(name)
		if !ok {
			return newUsageError(fmt.Sprintf("config file %q: unknown field %q", path, name))
		}
		if err := k.Set(key, value); err != nil {
			return newUsageError(fmt.Sprintf("config field %q: %v", name, err))
		}
	}
	return nil
}

func layerString(k *koanf.Koanf, key string) (string, error) {
	v, err := valueAsString(k.Get(key))
	if err != nil {
		return "", newUsageError(fmt.Sprintf("config field %q: %v", key, err))
	}
	return v, nil
}

func layerStrings(k *koanf.Koanf, key string) ([]string, error) {
	v, err := valueAsStringSlice(k.Get(key))
	if err != nil {
		return nil, newUsageError(fmt.Sprintf("config field %q: %v", key, err))
	}
	return v, nil
}

func layerBool(k *koanf.Koanf, key string) (bool, error) {
	v, err := valueAsBool(k.Get(key))
	if err != nil {
		return false, newUsageError(fmt.Sprintf("config field %q: %v", key, err))
	}
	return v, nil
}

func valueAsString(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("expected string, got %T", v)
	}
}

func valueAsStringSlice(v any) ([]string, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		if strings.TrimSpace(val) == "" {
			return nil, nil
		}
		return splitAndTrim(val), nil
	case []string:
		return splitAndTrim(strings.Join(val, ",")), nil
	case []any:
		items := make([]string, 0, len(val))
		for idx, elem := range val {
			str, err := valueAsString(elem)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", idx, err)
			}
			if str != "" {
				items = append(items, str)
			}
		}
		return items, nil
	default:
		return nil, fmt.Errorf("expected string or list, got %T", v)
	}
}

func valueAsBool(v any) (bool, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		trimmed := strings.ToLower(strings.TrimSpace(val))
		switch trimmed {
		case "true", "t", "1", "yes", "y":
			return true, nil
		case "false", "f", "0", "no", "n":
			return false, nil
		case "":
			return false, nil
		default:
			return false, fmt.Errorf("invalid boolean value %q", val)
		}
	case nil:
		return false, nil
	default:
		return false, fmt.Errorf("expected boolean, got %T", v)
	}
}

func splitAndTrim(csv string) []string {
	parts := strings.Split(csv, ",")
	cleaned := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return cleaned
}
