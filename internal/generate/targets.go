package generate

import (
	"fmt"
	"strings"

	"github.com/mark3labs/draco/internal/emitter"
	"github.com/mark3labs/draco/internal/emitter/scalaemitter"
	"github.com/mark3labs/draco/internal/emitter/tsemitter"
)

// KnownTargets lists the accepted target names.
var KnownTargets = []string{"scala", "typescript"}

// CanonicalTarget maps a configured target name to its canonical spelling.
func CanonicalTarget(name string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "scala":
		return "scala", true
	case "typescript", "ts":
		return "typescript", true
	default:
		return "", false
	}
}

// Targets builds policies for names, applying per-target token overrides
// keyed by canonical target name.
func Targets(names []string, overrides map[string]map[string]string) ([]emitter.Policy, error) {
	if len(names) == 0 {
		names = KnownTargets
	}
	for key := range overrides {
		if _, ok := CanonicalTarget(key); !ok {
			return nil, fmt.Errorf("tokens: unknown target %q", key)
		}
	}

	seen := make(map[string]struct{}, len(names))
	policies := make([]emitter.Policy, 0, len(names))
	for _, name := range names {
		canonical, ok := CanonicalTarget(name)
		if !ok {
			return nil, fmt.Errorf("unsupported target %q (allowed: %s)", name, strings.Join(KnownTargets, ", "))
		}
		if _, dup := seen[canonical]; dup {
			continue
		}
		seen[canonical] = struct{}{}

		values := tokenOverrides(overrides, canonical)
		switch canonical {
		case "scala":
			tokens, err := scalaemitter.DefaultTokens.Override(values)
			if err != nil {
				return nil, fmt.Errorf("tokens.%s: %w", canonical, err)
			}
			policies = append(policies, scalaemitter.WithTokens(tokens))
		case "typescript":
			tokens, err := tsemitter.DefaultTokens.Override(values)
			if err != nil {
				return nil, fmt.Errorf("tokens.%s: %w", canonical, err)
			}
			policies = append(policies, tsemitter.WithTokens(tokens))
		}
	}
	return policies, nil
}

// tokenOverrides merges overrides given under any spelling of target.
func tokenOverrides(overrides map[string]map[string]string, target string) map[string]string {
	out := map[string]string{}
	for key, values := range overrides {
		if canonical, _ := CanonicalTarget(key); canonical != target {
			continue
		}
		for k, v := range values {
			out[k] = v
		}
	}
	return out
}
