package spec

// Internal model (IR) produced by Parse and consumed by the route builder and
// the type emitters.

// HttpMethod is a lower-case operation key under a path item.
type HttpMethod string

const (
	GET    HttpMethod = "get"
	POST   HttpMethod = "post"
	PUT    HttpMethod = "put"
	DELETE HttpMethod = "delete"
)

// Kind tags the cases of the Content variant.
type Kind int

const (
	KindString Kind = iota
	KindInteger
	KindNumber
	KindBoolean
	KindDate
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindNumber:
		return "number"
	case KindBoolean:
		return "boolean"
	case KindDate:
		return "date"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Content is a normalized schema value. The set of implementations is closed:
// Scalar, Array and Object.
type Content interface {
	Kind() Kind
	isContent()
}

// Scalar is a leaf Content. Only the scalar kinds are valid values.
type Scalar Kind

func (s Scalar) Kind() Kind { return Kind(s) }
func (Scalar) isContent()   {}

var (
	String  Content = Scalar(KindString)
	Integer Content = Scalar(KindInteger)
	Number  Content = Scalar(KindNumber)
	Boolean Content = Scalar(KindBoolean)
	Date    Content = Scalar(KindDate)
)

// Array is a homogeneous collection of Elem.
type Array struct {
	Elem Content
}

func (Array) Kind() Kind { return KindArray }
func (Array) isContent() {}

// Object owns its properties in document order.
type Object struct {
	Properties []Property
}

func (Object) Kind() Kind { return KindObject }
func (Object) isContent() {}

// Property is a named field of an Object. OrNull records a `[T, "null"]`
// type union in the source document.
type Property struct {
	Key    string
	Value  Content
	OrNull bool
}

// ParamType is the schema type of a path parameter.
type ParamType int

const (
	ParamInteger ParamType = iota
	ParamString
)

func (p ParamType) String() string {
	if p == ParamInteger {
		return "integer"
	}
	return "string"
}

// Param is a path-level parameter declaration.
type Param struct {
	Name string
	Type ParamType
}

// Api is one path of the document with its parameters and operations.
type Api struct {
	Path    string
	Params  []Param
	Methods []Method
}

// ParamMap returns the parameters keyed by name.
func (a Api) ParamMap() map[string]ParamType {
	out := make(map[string]ParamType, len(a.Params))
	for _, p := range a.Params {
		out[p.Name] = p.Type
	}
	return out
}

// MethodMap returns the operations keyed by method token.
func (a Api) MethodMap() map[string]Method {
	out := make(map[string]Method, len(a.Methods))
	for _, m := range a.Methods {
		out[m.Token] = m
	}
	return out
}

// Method is one operation under a path. Token is the raw key from the
// document; it is only checked against the supported verbs when routes are
// rendered. Response and RequestBody are nil when the document has no
// representable JSON schema for them.
type Method struct {
	Token       string
	OperationID string
	Summary     string
	Description string
	Tags        []string
	Response    Content
	RequestBody Content
}
