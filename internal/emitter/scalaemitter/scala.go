// Package scalaemitter renders declarations as Scala case classes.
package scalaemitter

import (
	"strings"

	"github.com/mark3labs/draco/internal/emitter"
)

// DefaultTokens are the Scala scalar tokens. Dates are zoned on input and
// instants on output.
var DefaultTokens = emitter.Tokens{
	String:        "String",
	Integer:       "Int or Long",
	Number:        "Float",
	Boolean:       "Boolean",
	CommandDate:   "ZonedDateTime",
	ViewModelDate: "Instant",
	ParamString:   "String",
	ParamInteger:  "Long",
}

type Policy struct {
	emitter.Tokens
}

var _ emitter.Policy = Policy{}

func New() Policy { return Policy{Tokens: DefaultTokens} }

// WithTokens returns a policy using tokens instead of the defaults.
func WithTokens(tokens emitter.Tokens) Policy { return Policy{Tokens: tokens} }

func (Policy) Target() string    { return "scala" }
func (Policy) Extension() string { return "scala" }

func (Policy) Array(elem string) string   { return "Seq[" + elem + "]" }
func (Policy) Nullable(typ string) string { return "Option[" + typ + "]" }

func (Policy) Declaration(name string, fields []emitter.Field) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f.Name + ": " + f.Type
	}
	return "case class " + name + "(" + strings.Join(parts, ",\n") + ")"
}

func (Policy) Alias(name, typ string) string { return "type " + name + " = " + typ }
