package emitter

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/iancoleman/strcase"
	"github.com/mark3labs/draco/internal/spec"
)

// Role selects which side of an operation a declaration describes. Some
// targets render dates differently for inbound and outbound data.
type Role int

const (
	Command Role = iota
	ViewModel
)

func (r Role) String() string {
	switch r {
	case Command:
		return "Command"
	case ViewModel:
		return "ViewModel"
	default:
		return "unknown"
	}
}

// Dir is the output directory segment used for the role.
func (r Role) Dir() string { return strings.ToLower(r.String()) }

// Field is one rendered `name: type` entry of an object declaration.
type Field struct {
	Name string
	Type string
}

// Policy renders IR into one target type system.
type Policy interface {
	// Target is the short name used in configuration ("scala", "typescript").
	Target() string
	// Extension is the file extension without the dot.
	Extension() string
	Scalar(kind spec.Kind, role Role) string
	Param(t spec.ParamType) string
	Array(elem string) string
	Nullable(typ string) string
	Declaration(name string, fields []Field) string
	Alias(name, typ string) string
}

// Naming derives a declaration name from a property key.
type Naming func(key string) string

// Capitalize upper-cases the first rune and keeps the rest unchanged.
func Capitalize(key string) string {
	r, size := utf8.DecodeRuneInString(key)
	if r == utf8.RuneError {
		return key
	}
	return string(unicode.ToUpper(r)) + key[size:]
}

// CamelNaming converts keys such as `family_command` to `FamilyCommand`.
func CamelNaming(key string) string {
	if name := strcase.ToCamel(key); name != "" {
		return name
	}
	return Capitalize(key)
}

// NamingByName resolves the configuration spelling of a naming scheme.
func NamingByName(name string) (Naming, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "capitalize":
		return Capitalize, nil
	case "camel":
		return CamelNaming, nil
	default:
		return nil, fmt.Errorf("unknown naming %q (want capitalize or camel)", name)
	}
}

type options struct {
	naming   Naming
	nullable bool
}

// Option configures Plan and Emit.
type Option func(*options)

// WithNaming replaces the default Capitalize naming of floated declarations.
func WithNaming(n Naming) Option {
	return func(o *options) {
		if n != nil {
			o.naming = n
		}
	}
}

// WithNullable wraps `[T, "null"]` properties with the policy's nullable
// form. Off by default, in which case nullability is not rendered.
func WithNullable(on bool) Option { return func(o *options) { o.nullable = on } }

func newOptions(opts []Option) options {
	o := options{naming: Capitalize}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Declaration is one top-level named type. Refs maps the key of every
// object-valued property (directly or through arrays) to the name of the
// declaration floated for it. A root array uses the empty key.
type Declaration struct {
	Name    string
	Content spec.Content
	Refs    map[string]string
}

// Plan lists the declarations needed to render content under root: root
// first, then one per nested object in depth-first pre-order. Names that
// would repeat get a numeric suffix.
func Plan(root string, content spec.Content, opts ...Option) []Declaration {
	if content == nil {
		return nil
	}
	o := newOptions(opts)
	p := &planner{naming: o.naming, used: map[string]int{root: 1}}
	p.add(root, content)
	return p.decls
}

type planner struct {
	naming Naming
	used   map[string]int
	decls  []Declaration
}

func (p *planner) unique(base string) string {
	name := base
	if count := p.used[base]; count > 0 {
		name = fmt.Sprintf("%s%d", base, count)
	}
	p.used[base]++
	return name
}

func (p *planner) add(name string, content spec.Content) {
	idx := len(p.decls)
	p.decls = append(p.decls, Declaration{Name: name, Content: content, Refs: map[string]string{}})

	switch c := content.(type) {
	case spec.Object:
		type pending struct {
			name string
			obj  spec.Object
		}
		var nested []pending
		for _, prop := range c.Properties {
			obj, ok := elementObject(prop.Value)
			if !ok {
				continue
			}
			child := p.unique(p.naming(prop.Key))
			p.decls[idx].Refs[prop.Key] = child
			nested = append(nested, pending{child, obj})
		}
		for _, n := range nested {
			p.add(n.name, n.obj)
		}
	case spec.Array:
		if obj, ok := elementObject(c); ok {
			child := p.unique(name + "Item")
			p.decls[idx].Refs[""] = child
			p.add(child, obj)
		}
	}
}

// elementObject unwraps arrays down to an object element, if any.
func elementObject(c spec.Content) (spec.Object, bool) {
	for {
		switch v := c.(type) {
		case spec.Object:
			return v, true
		case spec.Array:
			c = v.Elem
		default:
			return spec.Object{}, false
		}
	}
}

// Emit renders content as the declaration root plus its floated
// declarations. Every declaration ends with a newline. A nil content yields
// the empty string.
func Emit(root string, content spec.Content, role Role, policy Policy, opts ...Option) string {
	o := newOptions(opts)
	var b strings.Builder
	for _, d := range Plan(root, content, opts...) {
		b.WriteString(render(d, role, policy, o))
		b.WriteString("\n")
	}
	return b.String()
}

func render(d Declaration, role Role, policy Policy, o options) string {
	obj, ok := d.Content.(spec.Object)
	if !ok {
		return policy.Alias(d.Name, typeOf(d.Content, d.Refs[""], role, policy))
	}
	fields := make([]Field, 0, len(obj.Properties))
	for _, prop := range obj.Properties {
		typ := typeOf(prop.Value, d.Refs[prop.Key], role, policy)
		if o.nullable && prop.OrNull {
			typ = policy.Nullable(typ)
		}
		fields = append(fields, Field{Name: prop.Key, Type: typ})
	}
	return policy.Declaration(d.Name, fields)
}

// typeOf renders an inline type reference. ref names the object at the
// bottom of c, if any.
func typeOf(c spec.Content, ref string, role Role, policy Policy) string {
	switch v := c.(type) {
	case spec.Object:
		return ref
	case spec.Array:
		return policy.Array(typeOf(v.Elem, ref, role, policy))
	case spec.Scalar:
		return policy.Scalar(v.Kind(), role)
	default:
		panic(fmt.Sprintf("emitter: unexpected content %T", c))
	}
}
