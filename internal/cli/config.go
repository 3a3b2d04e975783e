package cli

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

func applyGenerateConfigFromFile(cfg *GenerateConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return newUsageError(fmt.Sprintf("read config file %q: %v", path, err))
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return newUsageError(fmt.Sprintf("parse config file %q: %v", path, err))
	}

	// Sorted so the first reported error does not depend on map order.
	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if _, ok := knownConfigKeys[normalizeKey(key)]; !ok {
			return newUsageError(fmt.Sprintf("config file %q: unknown field %q", path, key))
		}
		if err := applyConfigField(cfg, key, raw[key]); err != nil {
			return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
		}
	}
	return nil
}

var knownConfigKeys = map[string]struct{}{
	"input": {}, "out": {}, "targets": {}, "handler": {}, "routeparams": {},
	"naming": {}, "nullable": {}, "strictparams": {}, "validate": {}, "clean": {},
	"sink": {}, "tokens": {}, "includetags": {}, "excludetags": {}, "methods": {},
	"paths": {}, "parallelism": {}, "dryrun": {}, "force": {}, "verbose": {},
}

func applyConfigField(cfg *GenerateConfig, key string, value any) error {
	var err error
	switch normalizeKey(key) {
	case "input":
		cfg.Input, err = valueAsString(value)
	case "out":
		cfg.Out, err = valueAsString(value)
	case "targets":
		cfg.Targets, err = valueAsStringSlice(value)
	case "handler":
		cfg.Handler, err = valueAsString(value)
	case "routeparams":
		cfg.RouteParams, err = valueAsString(value)
	case "naming":
		cfg.Naming, err = valueAsString(value)
	case "nullable":
		cfg.Nullable, err = valueAsBool(value)
	case "strictparams":
		cfg.StrictParams, err = valueAsBool(value)
	case "validate":
		cfg.Validate, err = valueAsBool(value)
	case "clean":
		cfg.Clean, err = valueAsBool(value)
	case "sink":
		cfg.Sink, err = valueAsString(value)
	case "tokens":
		cfg.Tokens, err = valueAsTokens(value)
	case "includetags":
		var list []string
		list, err = valueAsStringSlice(value)
		cfg.IncludeTags = sanitizeTags(list)
	case "excludetags":
		var list []string
		list, err = valueAsStringSlice(value)
		cfg.ExcludeTags = sanitizeTags(list)
	case "methods":
		cfg.Methods, err = valueAsStringSlice(value)
	case "paths":
		cfg.Paths, err = valueAsStringSlice(value)
	case "parallelism":
		cfg.Parallelism, err = valueAsInt(value)
	case "dryrun":
		cfg.DryRun, err = valueAsBool(value)
	case "force":
		cfg.Force, err = valueAsBool(value)
	case "verbose":
		cfg.Verbose, err = valueAsBool(value)
	}
	return err
}

func normalizeKey(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	lowered = strings.ReplaceAll(lowered, "-", "")
	lowered = strings.ReplaceAll(lowered, "_", "")
	return lowered
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

func valueAsInt(v any) (int, error) {
	switch val := v.(type) {
	case int:
		return val, nil
	case string:
		if strings.TrimSpace(val) == "" {
			return 0, nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return 0, fmt.Errorf("invalid integer value %q", val)
		}
		return n, nil
	case nil:
		return 0, nil
	default:
		return 0, fmt.Errorf("expected integer, got %T", v)
	}
}

// valueAsTokens reads `{target: {token: value}}`.
func valueAsTokens(v any) (map[string]map[string]string, error) {
	if v == nil {
		return nil, nil
	}
	targets, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected mapping of targets, got %T", v)
	}
	out := make(map[string]map[string]string, len(targets))
	for target, rawTokens := range targets {
		tokens, ok := rawTokens.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s: expected mapping of tokens, got %T", target, rawTokens)
		}
		values := make(map[string]string, len(tokens))
		for name, rawValue := range tokens {
			str, err := valueAsString(rawValue)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", target, name, err)
			}
			values[name] = str
		}
		out[strings.TrimSpace(target)] = values
	}
	return out, nil
}

// parseTokenFlags turns `target.token=value` pairs into the tokens layout.
func parseTokenFlags(pairs map[string]string) (map[string]map[string]string, error) {
	out := make(map[string]map[string]string)
	for key, value := range pairs {
		target, name, ok := strings.Cut(key, ".")
		if !ok || strings.TrimSpace(target) == "" || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("token %q must look like <target>.<token>=<value>", key)
		}
		target = strings.TrimSpace(target)
		if out[target] == nil {
			out[target] = make(map[string]string)
		}
		out[target][strings.TrimSpace(name)] = strings.TrimSpace(value)
	}
	return out, nil
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

func sanitizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	result := make([]string, 0, len(tags))
	for _, tag := range tags {
		trimmed := strings.TrimSpace(tag)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

func intersect(a, b []string) []string {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(a))
	for _, item := range a {
		set[item] = struct{}{}
	}
	var result []string
	for _, item := range b {
		if _, ok := set[item]; ok {
			result = append(result, item)
		}
	}
	return result
}
