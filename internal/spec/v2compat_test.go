package spec

import (
	"reflect"
	"testing"
)

func TestParse_V2BodyAndResponse(t *testing.T) {
	t.Parallel()
	src := `swagger: "2.0"
info: { title: t, version: "1.0.0" }
paths:
  /pets/{petId}:
    parameters:
    - in: path
      name: petId
      type: integer
    put:
      operationId: put-pet
      summary: Update pet
      parameters:
      - in: query
        name: dryRun
        type: boolean
      - in: body
        name: body
        schema:
          type: object
          properties:
            name: { type: string }
            born: { type: string, format: date }
      responses:
        '200':
          description: ok
          schema:
            type: object
            properties:
              id: { type: integer }
`
	apis := mustParse(t, src)
	if len(apis) != 1 {
		t.Fatalf("expected one api, got %d", len(apis))
	}
	if want := []Param{{Name: "petId", Type: ParamInteger}}; !reflect.DeepEqual(apis[0].Params, want) {
		t.Fatalf("params: got %+v", apis[0].Params)
	}
	m := apis[0].Methods[0]
	wantReq := Object{Properties: []Property{{Key: "name", Value: String}, {Key: "born", Value: Date}}}
	if !reflect.DeepEqual(m.RequestBody, Content(wantReq)) {
		t.Fatalf("request body: got %#v", m.RequestBody)
	}
	wantResp := Object{Properties: []Property{{Key: "id", Value: Integer}}}
	if !reflect.DeepEqual(m.Response, Content(wantResp)) {
		t.Fatalf("response: got %#v", m.Response)
	}
}

func TestParse_V2PathLevelBodyParamSkipped(t *testing.T) {
	t.Parallel()
	src := `swagger: "2.0"
paths:
  /x:
    parameters:
    - in: body
      name: payload
      schema: { type: object, properties: {} }
`
	apis := mustParse(t, src)
	if len(apis[0].Params) != 0 {
		t.Fatalf("body parameter should not become a path param: %+v", apis[0].Params)
	}
}
