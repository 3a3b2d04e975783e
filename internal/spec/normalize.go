package spec

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// BuildOption configures how Apis are built from a document.
type BuildOption func(*buildConfig)

type buildConfig struct {
	includeTags  map[string]struct{}
	excludeTags  map[string]struct{}
	methods      map[HttpMethod]struct{}
	pathRes      []*regexp.Regexp
	strictParams bool
}

// WithIncludeTags keeps only operations that have at least one of the given tags.
func WithIncludeTags(tags []string) BuildOption {
	return func(c *buildConfig) {
		for _, t := range tags {
			t = strings.TrimSpace(t)
			if t == "" {
				continue
			}
			if c.includeTags == nil {
				c.includeTags = make(map[string]struct{}, len(tags))
			}
			c.includeTags[t] = struct{}{}
		}
	}
}

// WithExcludeTags removes operations that have any of the given tags.
func WithExcludeTags(tags []string) BuildOption {
	return func(c *buildConfig) {
		for _, t := range tags {
			t = strings.TrimSpace(t)
			if t == "" {
				continue
			}
			if c.excludeTags == nil {
				c.excludeTags = make(map[string]struct{}, len(tags))
			}
			c.excludeTags[t] = struct{}{}
		}
	}
}

// WithMethods keeps only operations whose method token is one of methods.
func WithMethods(methods []HttpMethod) BuildOption {
	return func(c *buildConfig) {
		if len(methods) == 0 {
			return
		}
		if c.methods == nil {
			c.methods = make(map[HttpMethod]struct{}, len(methods))
		}
		for _, m := range methods {
			c.methods[m] = struct{}{}
		}
	}
}

// WithPathPatterns keeps only paths matching at least one of the regular
// expressions. An invalid pattern never matches.
func WithPathPatterns(patterns []string) BuildOption {
	return func(c *buildConfig) {
		for _, p := range patterns {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			re, err := regexp.Compile(p)
			if err != nil {
				re = regexp.MustCompile("a^$")
			}
			c.pathRes = append(c.pathRes, re)
		}
	}
}

// WithStrictParams rejects a path that declares the same parameter name
// twice. By default the last declaration wins.
func WithStrictParams(strict bool) BuildOption {
	return func(c *buildConfig) { c.strictParams = strict }
}

func (c *buildConfig) allowPath(path string) bool {
	if len(c.pathRes) == 0 {
		return true
	}
	for _, re := range c.pathRes {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

func (c *buildConfig) allowMethod(token string) bool {
	if len(c.methods) == 0 {
		return true
	}
	_, ok := c.methods[HttpMethod(token)]
	return ok
}

func (c *buildConfig) allowTags(tags []string) bool {
	if len(c.includeTags) > 0 {
		ok := false
		for _, t := range tags {
			if _, yes := c.includeTags[t]; yes {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	for _, t := range tags {
		if _, blocked := c.excludeTags[t]; blocked {
			return false
		}
	}
	return true
}

// Parse converts a document into one Api per entry of its `paths` mapping,
// in document order. Any schema shape outside the supported subset aborts
// the whole parse with a *SpecError of code SchemaError.
func Parse(doc *Document, opts ...BuildOption) ([]Api, error) {
	if doc == nil || doc.Root == nil {
		return nil, &SpecError{Code: InputError, Message: "spec: nil document"}
	}
	cfg := &buildConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	p := &parser{cfg: cfg, version: doc.Version, location: doc.Location}

	paths := resolve(mapValue(doc.Root, "paths"))
	if paths == nil || paths.Kind != yaml.MappingNode {
		return nil, p.errorf("#/paths", "spec: can not parse paths: expected a mapping")
	}

	var apis []Api
	for _, entry := range pairs(paths) {
		if entry.key.Kind != yaml.ScalarNode {
			return nil, p.errorf("#/paths", "spec: can not get path at line %d", entry.key.Line)
		}
		path := entry.key.Value
		if !cfg.allowPath(path) {
			continue
		}
		api, err := p.api(path, entry.value)
		if err != nil {
			return nil, err
		}
		apis = append(apis, api)
	}
	return apis, nil
}

type parser struct {
	cfg      *buildConfig
	version  int
	location string
}

func (p *parser) errorf(pointer, format string, args ...any) error {
	return &SpecError{
		Code:        SchemaError,
		Message:     fmt.Sprintf(format, args...),
		Location:    p.location,
		JSONPointer: pointer,
	}
}

func (p *parser) api(path string, item *yaml.Node) (Api, error) {
	api := Api{Path: path}
	ptr := "#/paths/" + escapePointer(path)
	if item == nil || item.Kind != yaml.MappingNode {
		return api, nil
	}
	seen := make(map[string]struct{})
	for _, entry := range pairs(item) {
		token := entry.key.Value
		if token == "parameters" {
			params, err := p.params(entry.value, ptr+"/parameters")
			if err != nil {
				return Api{}, err
			}
			api.Params = params
			continue
		}
		if _, dup := seen[token]; dup {
			return Api{}, p.errorf(ptr+"/"+escapePointer(token), "spec: duplicate method %q under %s", token, path)
		}
		seen[token] = struct{}{}
		if !p.cfg.allowMethod(token) {
			continue
		}
		m, err := p.method(token, entry.value, ptr+"/"+escapePointer(token))
		if err != nil {
			return Api{}, err
		}
		if !p.cfg.allowTags(m.Tags) {
			continue
		}
		api.Methods = append(api.Methods, m)
	}
	return api, nil
}

func (p *parser) params(node *yaml.Node, ptr string) ([]Param, error) {
	if node == nil || node.Kind != yaml.SequenceNode {
		return nil, nil
	}
	var out []Param
	index := make(map[string]int)
	for i, raw := range node.Content {
		entry := resolve(raw)
		at := ptr + "/" + strconv.Itoa(i)
		if p.version == 2 && isV2BodyParam(entry) {
			continue
		}
		name := scalarValue(mapValue(entry, "name"))
		if strings.TrimSpace(name) == "" {
			return nil, p.errorf(at, "spec: parameter %d has no name", i)
		}
		typeNode := p.paramTypeNode(entry)
		var typ ParamType
		switch scalarValue(typeNode) {
		case "integer":
			typ = ParamInteger
		case "string":
			typ = ParamString
		default:
			return nil, p.errorf(at, "spec: unexpected schema type for parameter %q: %s", name, describe(typeNode))
		}
		if j, dup := index[name]; dup {
			if p.cfg.strictParams {
				return nil, p.errorf(at, "spec: duplicate parameter %q", name)
			}
			out[j].Type = typ
			continue
		}
		index[name] = len(out)
		out = append(out, Param{Name: name, Type: typ})
	}
	return out, nil
}

func (p *parser) paramTypeNode(entry *yaml.Node) *yaml.Node {
	if p.version == 2 {
		return resolve(mapValue(entry, "type"))
	}
	return resolve(mapValue(resolve(mapValue(entry, "schema")), "type"))
}

func (p *parser) method(token string, node *yaml.Node, ptr string) (Method, error) {
	m := Method{Token: token}

	opID := resolve(mapValue(node, "operationId"))
	if opID == nil || opID.Kind != yaml.ScalarNode || strings.TrimSpace(opID.Value) == "" {
		return Method{}, p.errorf(ptr+"/operationId", "spec: %s operation has no operationId", token)
	}
	m.OperationID = opID.Value

	summary := resolve(mapValue(node, "summary"))
	if summary == nil || summary.Kind != yaml.ScalarNode || strings.TrimSpace(summary.Value) == "" {
		return Method{}, p.errorf(ptr+"/summary", "spec: summary is empty for operation %q", m.OperationID)
	}
	m.Summary = summary.Value
	m.Description = strings.TrimSpace(scalarValue(mapValue(node, "description")))

	if tags := resolve(mapValue(node, "tags")); tags != nil && tags.Kind == yaml.SequenceNode {
		for _, t := range tags.Content {
			if v := strings.TrimSpace(scalarValue(t)); v != "" {
				m.Tags = append(m.Tags, v)
			}
		}
	}

	reqNode, reqPtr := p.requestSchema(node, ptr)
	req, err := p.schema(reqNode, reqPtr)
	if err != nil {
		return Method{}, err
	}
	m.RequestBody = req

	respNode, respPtr := p.responseSchema(node, ptr)
	resp, err := p.schema(respNode, respPtr)
	if err != nil {
		return Method{}, err
	}
	m.Response = resp
	return m, nil
}

func (p *parser) requestSchema(op *yaml.Node, ptr string) (*yaml.Node, string) {
	if p.version == 2 {
		return v2BodySchema(op, ptr)
	}
	return lookup(op, ptr, "requestBody", "content", "application/json", "schema")
}

func (p *parser) responseSchema(op *yaml.Node, ptr string) (*yaml.Node, string) {
	if p.version == 2 {
		return lookup(op, ptr, "responses", "200", "schema")
	}
	return lookup(op, ptr, "responses", "200", "content", "application/json", "schema")
}

// schema translates a request or response schema. Schemas whose type is not
// object or array yield nil without error, and so does an array whose items
// yield nil.
func (p *parser) schema(node *yaml.Node, ptr string) (Content, error) {
	node = resolve(node)
	if node == nil || node.Kind != yaml.MappingNode {
		return nil, nil
	}
	switch scalarValue(mapValue(node, "type")) {
	case "object":
		return p.object(node, ptr)
	case "array":
		elem, err := p.schema(mapValue(node, "items"), ptr+"/items")
		if err != nil || elem == nil {
			return nil, err
		}
		return Array{Elem: elem}, nil
	default:
		return nil, nil
	}
}

func (p *parser) object(node *yaml.Node, ptr string) (Content, error) {
	props := resolve(mapValue(node, "properties"))
	if props == nil || props.Kind != yaml.MappingNode {
		return nil, p.errorf(ptr+"/properties", "spec: can not get object properties")
	}
	obj := Object{Properties: make([]Property, 0, len(props.Content)/2)}
	seen := make(map[string]struct{}, len(props.Content)/2)
	for _, entry := range pairs(props) {
		key := entry.key.Value
		at := ptr + "/properties/" + escapePointer(key)
		if key == "" {
			return nil, p.errorf(at, "spec: empty property name")
		}
		if _, dup := seen[key]; dup {
			return nil, p.errorf(at, "spec: duplicate property %q", key)
		}
		seen[key] = struct{}{}
		value, orNull, err := p.value(entry.value, at)
		if err != nil {
			return nil, err
		}
		obj.Properties = append(obj.Properties, Property{Key: key, Value: value, OrNull: orNull})
	}
	return obj, nil
}

// value resolves a property or array item schema. A `type` list must hold
// exactly one scalar type and "null"; orNull reports that shape.
func (p *parser) value(node *yaml.Node, ptr string) (Content, bool, error) {
	node = resolve(node)
	typeNode := resolve(mapValue(node, "type"))
	if typeNode == nil {
		return nil, false, p.errorf(ptr, "spec: unsupported property type: none")
	}
	switch typeNode.Kind {
	case yaml.ScalarNode:
		c, err := p.typed(typeNode.Value, node, ptr)
		return c, false, err
	case yaml.SequenceNode:
		var concrete []string
		nulls := 0
		for _, t := range typeNode.Content {
			if v := scalarValue(t); v == "null" {
				nulls++
			} else {
				concrete = append(concrete, v)
			}
		}
		if len(typeNode.Content) != 2 || nulls != 1 || len(concrete) != 1 {
			return nil, false, p.errorf(ptr+"/type", "spec: property type must be one type and null, got %s", describe(typeNode))
		}
		switch concrete[0] {
		case "string", "integer", "number", "boolean":
		default:
			return nil, false, p.errorf(ptr+"/type", "spec: only scalar types can be combined with null, got %s", describe(typeNode))
		}
		c, err := p.typed(concrete[0], node, ptr)
		return c, true, err
	default:
		return nil, false, p.errorf(ptr+"/type", "spec: unsupported property type: %s", describe(typeNode))
	}
}

func (p *parser) typed(typ string, node *yaml.Node, ptr string) (Content, error) {
	switch typ {
	case "string":
		switch format := scalarValue(mapValue(node, "format")); format {
		case "":
			return String, nil
		case "date":
			return Date, nil
		default:
			return nil, p.errorf(ptr+"/format", "spec: unsupported format type: %s", format)
		}
	case "integer":
		return Integer, nil
	case "number":
		return Number, nil
	case "boolean":
		return Boolean, nil
	case "object":
		return p.object(node, ptr)
	case "array":
		items := resolve(mapValue(node, "items"))
		if items == nil {
			return nil, p.errorf(ptr+"/items", "spec: fail to create nested array: no items")
		}
		elem, _, err := p.value(items, ptr+"/items")
		if err != nil {
			return nil, err
		}
		return Array{Elem: elem}, nil
	default:
		return nil, p.errorf(ptr+"/type", "spec: unsupported property type: %q", typ)
	}
}

type keyValue struct {
	key   *yaml.Node
	value *yaml.Node
}

// pairs lists the entries of a mapping node in document order.
func pairs(node *yaml.Node) []keyValue {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	out := make([]keyValue, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		out = append(out, keyValue{key: resolve(node.Content[i]), value: resolve(node.Content[i+1])})
	}
	return out
}

func resolve(node *yaml.Node) *yaml.Node {
	for node != nil {
		switch node.Kind {
		case yaml.DocumentNode:
			if len(node.Content) == 0 {
				return nil
			}
			node = node.Content[0]
		case yaml.AliasNode:
			node = node.Alias
		default:
			return node
		}
	}
	return nil
}

func mapValue(node *yaml.Node, key string) *yaml.Node {
	node = resolve(node)
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if k := resolve(node.Content[i]); k != nil && k.Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}

func lookup(node *yaml.Node, ptr string, keys ...string) (*yaml.Node, string) {
	for _, k := range keys {
		node = mapValue(node, k)
		ptr += "/" + escapePointer(k)
		if node == nil {
			return nil, ptr
		}
	}
	return resolve(node), ptr
}

func scalarValue(node *yaml.Node) string {
	node = resolve(node)
	if node == nil || node.Kind != yaml.ScalarNode {
		return ""
	}
	return node.Value
}

func describe(node *yaml.Node) string {
	node = resolve(node)
	if node == nil {
		return "None"
	}
	switch node.Kind {
	case yaml.ScalarNode:
		return node.Value
	case yaml.SequenceNode:
		vals := make([]string, 0, len(node.Content))
		for _, c := range node.Content {
			vals = append(vals, strconv.Quote(scalarValue(c)))
		}
		return "[" + strings.Join(vals, ", ") + "]"
	default:
		return "mapping"
	}
}

var pointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

func escapePointer(s string) string { return pointerEscaper.Replace(s) }
