package generate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"testing"

	"github.com/mark3labs/draco/internal/artifact"
	"github.com/mark3labs/draco/internal/emitter"
	"github.com/mark3labs/draco/internal/emitter/scalaemitter"
	"github.com/mark3labs/draco/internal/emitter/tsemitter"
	"github.com/mark3labs/draco/internal/route"
	"github.com/mark3labs/draco/internal/spec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const usersDoc = `openapi: 3.0.0
info:
  title: users
  version: 1.0.0
paths:
  /users/{userId}:
    parameters:
    - schema:
        type: string
      name: userId
      in: path
      required: true
    get:
      summary: Get user
      operationId: get-users-userId
      responses:
        '200':
          description: OK
          content:
            application/json:
              schema:
                type: object
                properties:
                  hogeId:
                    type: boolean
                  foo:
                    type: [integer, 'null']
                  bar_at:
                    type: string
                    format: date
    put:
      summary: Update user
      operationId: put-users-userId
      requestBody:
        content:
          application/json:
            schema:
              type: object
              properties:
                hasDateAndPlace:
                  type: string
                location:
                  type: string
      responses:
        '200':
          description: OK
`

func parseDoc(t *testing.T, src string) []spec.Api {
	t.Helper()
	doc, err := spec.LoadBytes([]byte(src), "users.yaml")
	require.NoError(t, err)
	apis, err := spec.Parse(doc)
	require.NoError(t, err)
	return apis
}

func filesByPath(files []File) map[string]string {
	out := make(map[string]string, len(files))
	for _, f := range files {
		out[f.Path] = string(f.Content)
	}
	return out
}

func TestBuild_UsersScenario(t *testing.T) {
	apis := parseDoc(t, usersDoc)
	files, err := Build(context.Background(), apis, Options{
		Targets: []emitter.Policy{scalaemitter.New(), tsemitter.New()},
	})
	require.NoError(t, err)

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	assert.Equal(t, []string{
		"routes",
		"get-users-userId/viewmodel/get-users-userId.scala",
		"get-users-userId/viewmodel/get-users-userId.ts",
		"put-users-userId/command/put-users-userId.scala",
		"put-users-userId/command/put-users-userId.ts",
	}, paths)

	got := filesByPath(files)
	assert.Equal(t, "GET /users/:userId Handler(userId: String)\nPUT /users/:userId Handler(userId: String)\n", got["routes"])
	assert.Equal(t, "case class ViewModel(hogeId: Boolean,\nfoo: Int or Long,\nbar_at: Instant)\n",
		got["get-users-userId/viewmodel/get-users-userId.scala"])
	assert.Equal(t, "type ViewModel={hogeId: boolean,\nfoo: number,\nbar_at: Date}\n",
		got["get-users-userId/viewmodel/get-users-userId.ts"])
	assert.Equal(t, "case class Command(hasDateAndPlace: String,\nlocation: String)\n",
		got["put-users-userId/command/put-users-userId.scala"])
	assert.Equal(t, "type Command={hasDateAndPlace: string,\nlocation: string}\n",
		got["put-users-userId/command/put-users-userId.ts"])
}

func TestBuild_DeterministicUnderParallelism(t *testing.T) {
	var apis []spec.Api
	for i := 0; i < 40; i++ {
		apis = append(apis, spec.Api{
			Path:   fmt.Sprintf("/items%d/{id}", i),
			Params: []spec.Param{{Name: "id", Type: spec.ParamInteger}},
			Methods: []spec.Method{
				{Token: "post", OperationID: fmt.Sprintf("post-%d", i), RequestBody: spec.Object{Properties: []spec.Property{{Key: "n", Value: spec.Number}}}},
				{Token: "get", OperationID: fmt.Sprintf("get-%d", i), Response: spec.Array{Elem: spec.String}},
			},
		})
	}
	opts := Options{Targets: []emitter.Policy{scalaemitter.New()}, Parallelism: 8}

	first, err := Build(context.Background(), apis, opts)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Build(context.Background(), apis, opts)
		require.NoError(t, err)
		require.Equal(t, first, again)
	}

	routes := string(first[0].Content)
	assert.Contains(t, routes, "GET /items0/:id Handler(id: Long)\nPOST /items0/:id Handler(id: Long)\nGET /items1/:id")
	assert.Equal(t, "post-0/command/post-0.scala", first[1].Path)
}

func TestBuild_RouteErrorAborts(t *testing.T) {
	apis := []spec.Api{{Path: "/x", Methods: []spec.Method{{Token: "patch", OperationID: "patch-x"}}}}
	_, err := Build(context.Background(), apis, Options{Targets: []emitter.Policy{tsemitter.New()}})
	var re *route.RouteError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "patch", re.Method)
}

func TestBuild_OperationIDChecks(t *testing.T) {
	dup := []spec.Api{
		{Path: "/a", Methods: []spec.Method{{Token: "get", OperationID: "same"}}},
		{Path: "/b", Methods: []spec.Method{{Token: "get", OperationID: "same"}}},
	}
	_, err := Build(context.Background(), dup, Options{Targets: []emitter.Policy{tsemitter.New()}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate operationId")

	for _, id := range []string{"a/b", "..", `a\b`} {
		bad := []spec.Api{{Path: "/a", Methods: []spec.Method{{Token: "get", OperationID: id}}}}
		_, err := Build(context.Background(), bad, Options{Targets: []emitter.Policy{tsemitter.New()}})
		assert.Error(t, err, id)
	}
}

func TestBuild_Options(t *testing.T) {
	apis := []spec.Api{{
		Path:   "/p/{id}",
		Params: []spec.Param{{Name: "id", Type: spec.ParamInteger}},
		Methods: []spec.Method{{
			Token: "get", OperationID: "get-p",
			Response: spec.Object{Properties: []spec.Property{{Key: "n", Value: spec.Integer, OrNull: true}}},
		}},
	}}

	var logs bytes.Buffer
	files, err := Build(context.Background(), apis, Options{
		Targets:     []emitter.Policy{tsemitter.New()},
		Handler:     "Ctrl.get",
		RouteParams: tsemitter.DefaultTokens,
		Emit:        []emitter.Option{emitter.WithNullable(true)},
		Logger:      log.New(&logs, "", 0),
	})
	require.NoError(t, err)
	got := filesByPath(files)
	assert.Equal(t, "GET /p/:id Ctrl.get(id: number)\n", got["routes"])
	assert.Equal(t, "type ViewModel={n: number | null}\n", got["get-p/viewmodel/get-p.ts"])
	assert.Contains(t, logs.String(), "rendered /p/{id}")
}

func TestBuild_NoTargets(t *testing.T) {
	_, err := Build(context.Background(), nil, Options{})
	assert.Error(t, err)
}

func TestBuild_EmptyInput(t *testing.T) {
	files, err := Build(context.Background(), nil, Options{Targets: []emitter.Policy{scalaemitter.New()}})
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, RoutesFile, files[0].Path)
	assert.Empty(t, files[0].Content)
}

func TestBuild_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	apis := []spec.Api{{Path: "/a", Methods: []spec.Method{{Token: "get", OperationID: "a"}}}}
	_, err := Build(ctx, apis, Options{Targets: []emitter.Policy{scalaemitter.New()}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRoutes_SortedPerApi(t *testing.T) {
	apis := []spec.Api{
		{Path: "/z", Methods: []spec.Method{{Token: "put"}, {Token: "delete"}}},
		{Path: "/a", Methods: []spec.Method{{Token: "post"}, {Token: "get"}}},
	}
	lines, err := Routes(apis)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"DELETE /z Handler()",
		"PUT /z Handler()",
		"GET /a Handler()",
		"POST /a Handler()",
	}, lines)
}

func TestPlanAndWrite(t *testing.T) {
	files := []File{
		{Path: "routes", Content: []byte("GET / Handler()\n")},
		{Path: "b/command/b.ts", Content: []byte("type Command={}\n")},
		{Path: "a/viewmodel/a.scala", Content: []byte("x")},
	}

	store := artifact.NewMemoryStore()
	var logs bytes.Buffer
	require.NoError(t, Write(context.Background(), store, files, log.New(&logs, "", 0)))
	assert.Contains(t, logs.String(), "wrote routes")

	planned, err := Plan(context.Background(), store)
	require.NoError(t, err)
	assert.Equal(t, []PlannedFile{
		{RelPath: "a/viewmodel/a.scala", Size: 1},
		{RelPath: "b/command/b.ts", Size: 16},
		{RelPath: "routes", Size: 16},
	}, planned)

	err = Write(context.Background(), store, []File{{Path: "../bad"}}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write ../bad")
}

func TestPlan_EmptyStore(t *testing.T) {
	planned, err := Plan(context.Background(), artifact.NewMemoryStore())
	require.NoError(t, err)
	assert.Empty(t, planned)
}
