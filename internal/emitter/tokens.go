package emitter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/draco/internal/spec"
)

// Tokens is the scalar vocabulary of a target.
type Tokens struct {
	String        string
	Integer       string
	Number        string
	Boolean       string
	CommandDate   string
	ViewModelDate string
	ParamString   string
	ParamInteger  string
}

// Scalar returns the token for a scalar kind. Dates depend on the role.
func (t Tokens) Scalar(kind spec.Kind, role Role) string {
	switch kind {
	case spec.KindString:
		return t.String
	case spec.KindInteger:
		return t.Integer
	case spec.KindNumber:
		return t.Number
	case spec.KindBoolean:
		return t.Boolean
	case spec.KindDate:
		if role == Command {
			return t.CommandDate
		}
		return t.ViewModelDate
	default:
		panic(fmt.Sprintf("emitter: %s is not a scalar kind", kind))
	}
}

// Param returns the token used for a path parameter.
func (t Tokens) Param(p spec.ParamType) string {
	switch p {
	case spec.ParamInteger:
		return t.ParamInteger
	case spec.ParamString:
		return t.ParamString
	default:
		panic(fmt.Sprintf("emitter: unknown parameter type %d", p))
	}
}

// Override returns a copy of t with the named tokens replaced. Keys are
// matched case-insensitively; "date" sets both role-specific date tokens.
func (t Tokens) Override(values map[string]string) (Tokens, error) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	// "date" goes first so role-specific keys can refine it.
	sort.Slice(keys, func(i, j int) bool {
		di, dj := strings.EqualFold(keys[i], "date"), strings.EqualFold(keys[j], "date")
		if di != dj {
			return di
		}
		return keys[i] < keys[j]
	})
	for _, k := range keys {
		v := values[k]
		switch strings.ToLower(strings.NewReplacer("_", "", "-", "").Replace(k)) {
		case "string":
			t.String = v
		case "integer":
			t.Integer = v
		case "number":
			t.Number = v
		case "boolean":
			t.Boolean = v
		case "date":
			t.CommandDate = v
			t.ViewModelDate = v
		case "commanddate":
			t.CommandDate = v
		case "viewmodeldate":
			t.ViewModelDate = v
		case "paramstring":
			t.ParamString = v
		case "paraminteger":
			t.ParamInteger = v
		default:
			return t, fmt.Errorf("unknown token %q", k)
		}
	}
	return t, nil
}
