// Package tsemitter renders declarations as TypeScript type aliases.
package tsemitter

import (
	"strings"

	"github.com/mark3labs/draco/internal/emitter"
)

// DefaultTokens are the TypeScript scalar tokens. Both roles use Date.
var DefaultTokens = emitter.Tokens{
	String:        "string",
	Integer:       "number",
	Number:        "number",
	Boolean:       "boolean",
	CommandDate:   "Date",
	ViewModelDate: "Date",
	ParamString:   "string",
	ParamInteger:  "number",
}

type Policy struct {
	emitter.Tokens
}

var _ emitter.Policy = Policy{}

func New() Policy { return Policy{Tokens: DefaultTokens} }

// WithTokens returns a policy using tokens instead of the defaults.
func WithTokens(tokens emitter.Tokens) Policy { return Policy{Tokens: tokens} }

func (Policy) Target() string    { return "typescript" }
func (Policy) Extension() string { return "ts" }

func (Policy) Array(elem string) string   { return elem + "[]" }
func (Policy) Nullable(typ string) string { return typ + " | null" }

func (Policy) Declaration(name string, fields []emitter.Field) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f.Name + ": " + f.Type
	}
	return "type " + name + "={" + strings.Join(parts, ",\n") + "}"
}

func (Policy) Alias(name, typ string) string { return "type " + name + "=" + typ }
