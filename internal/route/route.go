// Package route turns Apis into route-list lines such as
// `GET /users/:userId Handler(userId: String)`.
package route

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mark3labs/draco/internal/emitter/scalaemitter"
	"github.com/mark3labs/draco/internal/spec"
)

var (
	placeholderRe = regexp.MustCompile(`^\{.*\}$`)
	braceStripper = strings.NewReplacer("{", "", "}", "")
)

// Normalize rewrites `{name}` path segments to `:name`, dropping every brace
// in the segment. Other segments, including partially braced ones, are left
// untouched.
func Normalize(path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		if placeholderRe.MatchString(seg) {
			segments[i] = ":" + braceStripper.Replace(seg)
		}
	}
	return strings.Join(segments, "/")
}

// RouteError reports a method token that has no route verb.
type RouteError struct {
	Method string
	Path   string
}

func (e *RouteError) Error() string {
	return fmt.Sprintf("route: unsupported method %q under %s", e.Method, e.Path)
}

// ParamRenderer maps path parameter types to target tokens.
type ParamRenderer interface {
	Param(t spec.ParamType) string
}

type config struct {
	handler string
	params  ParamRenderer
}

type Option func(*config)

// WithHandler sets the handler placeholder. Blank names are ignored.
func WithHandler(name string) Option {
	return func(c *config) {
		if strings.TrimSpace(name) != "" {
			c.handler = name
		}
	}
}

// WithParamRenderer sets the parameter token vocabulary. Defaults to Scala.
func WithParamRenderer(r ParamRenderer) Option {
	return func(c *config) {
		if r != nil {
			c.params = r
		}
	}
}

// Verb maps a method token to its route verb.
func Verb(token string) (string, bool) {
	switch spec.HttpMethod(token) {
	case spec.GET:
		return "GET", true
	case spec.POST:
		return "POST", true
	case spec.PUT:
		return "PUT", true
	case spec.DELETE:
		return "DELETE", true
	default:
		return "", false
	}
}

// Build renders one line per method of api, in method order. Parameters are
// listed in declaration order.
func Build(api spec.Api, opts ...Option) ([]string, error) {
	cfg := config{handler: "Handler", params: scalaemitter.DefaultTokens}
	for _, opt := range opts {
		opt(&cfg)
	}

	params := make([]string, len(api.Params))
	for i, p := range api.Params {
		params[i] = p.Name + ": " + cfg.params.Param(p.Type)
	}
	args := strings.Join(params, ", ")
	path := Normalize(api.Path)

	lines := make([]string, 0, len(api.Methods))
	for _, m := range api.Methods {
		verb, ok := Verb(m.Token)
		if !ok {
			return nil, &RouteError{Method: m.Token, Path: api.Path}
		}
		lines = append(lines, fmt.Sprintf("%s %s %s(%s)", verb, path, cfg.handler, args))
	}
	return lines, nil
}
