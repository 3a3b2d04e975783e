package route

import (
	"errors"
	"testing"

	"github.com/mark3labs/draco/internal/emitter/tsemitter"
	"github.com/mark3labs/draco/internal/spec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"/users/{userId}":              "/users/:userId",
		"/users":                       "/users",
		"":                             "",
		"/":                            "/",
		"/a/{b}/c/{d}":                 "/a/:b/c/:d",
		"/files/{name}.json":           "/files/{name}.json",
		"/partial/{open":               "/partial/{open",
		"/{}":                          "/:",
		"/nested/{{x}}":                "/nested/:x",
		"/{a}b}":                       "/:ab",
		"/{a{b}}/c":                    "/:ab/c",
		"users/{id}/":                  "users/:id/",
		"/orgs/{org}/repos/{repo-id}/": "/orgs/:org/repos/:repo-id/",
	}
	for in, want := range cases {
		assert.Equal(t, want, Normalize(in), in)
	}
}

func TestNormalize_LeavesPlainSegments(t *testing.T) {
	for _, s := range []string{"a", "users", "x{y}", "{y}x", "a.b", "ä"} {
		assert.Equal(t, "/a/"+s, Normalize("/a/"+s), s)
	}
}

func TestBuild_UsersScenario(t *testing.T) {
	api := spec.Api{
		Path:   "/users/{userId}",
		Params: []spec.Param{{Name: "userId", Type: spec.ParamString}},
		Methods: []spec.Method{
			{Token: "put", OperationID: "put-users-userId"},
			{Token: "get", OperationID: "get-users-userId"},
		},
	}
	lines, err := Build(api)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"PUT /users/:userId Handler(userId: String)",
		"GET /users/:userId Handler(userId: String)",
	}, lines)
}

func TestBuild_ParamsInOrder(t *testing.T) {
	api := spec.Api{
		Path: "/orgs/{org}/items/{id}",
		Params: []spec.Param{
			{Name: "org", Type: spec.ParamString},
			{Name: "id", Type: spec.ParamInteger},
		},
		Methods: []spec.Method{{Token: "delete"}, {Token: "post"}},
	}
	lines, err := Build(api, WithHandler("controllers.Items.handle"))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"DELETE /orgs/:org/items/:id controllers.Items.handle(org: String, id: Long)",
		"POST /orgs/:org/items/:id controllers.Items.handle(org: String, id: Long)",
	}, lines)

	lines, err = Build(api, WithParamRenderer(tsemitter.DefaultTokens), WithHandler("  "))
	require.NoError(t, err)
	assert.Equal(t, "DELETE /orgs/:org/items/:id Handler(org: string, id: number)", lines[0])
}

func TestBuild_NoParamsNoMethods(t *testing.T) {
	lines, err := Build(spec.Api{Path: "/health", Methods: []spec.Method{{Token: "get"}}})
	require.NoError(t, err)
	assert.Equal(t, []string{"GET /health Handler()"}, lines)

	lines, err = Build(spec.Api{Path: "/empty"})
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestBuild_UnsupportedMethod(t *testing.T) {
	for _, token := range []string{"patch", "GET", "options", "x-internal"} {
		_, err := Build(spec.Api{Path: "/x", Methods: []spec.Method{{Token: "get"}, {Token: token}}})
		require.Error(t, err, token)

		var re *RouteError
		require.True(t, errors.As(err, &re), token)
		assert.Equal(t, token, re.Method)
		assert.Equal(t, "/x", re.Path)
		assert.Contains(t, err.Error(), token)
	}
}

func TestVerb(t *testing.T) {
	for token, want := range map[string]string{"get": "GET", "post": "POST", "put": "PUT", "delete": "DELETE"} {
		got, ok := Verb(token)
		assert.True(t, ok)
		assert.Equal(t, want, got)
	}
	_, ok := Verb("head")
	assert.False(t, ok)
}
