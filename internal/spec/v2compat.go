package spec

import (
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Swagger v2 keeps the request body in a parameter with `in: body` instead of
// a requestBody object, and parameters carry `type` directly rather than
// under `schema`. These helpers let Parse read both shapes.

func isV2BodyParam(param *yaml.Node) bool {
	return strings.EqualFold(scalarValue(mapValue(param, "in")), "body")
}

// v2BodySchema returns the schema of the first body parameter of op.
func v2BodySchema(op *yaml.Node, ptr string) (*yaml.Node, string) {
	params := resolve(mapValue(op, "parameters"))
	if params == nil || params.Kind != yaml.SequenceNode {
		return nil, ptr + "/parameters"
	}
	for i, raw := range params.Content {
		param := resolve(raw)
		if !isV2BodyParam(param) {
			continue
		}
		return resolve(mapValue(param, "schema")), ptr + "/parameters/" + strconv.Itoa(i) + "/schema"
	}
	return nil, ptr + "/parameters"
}
