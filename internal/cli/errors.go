package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/draco/internal/route"
	"github.com/mark3labs/draco/internal/spec"
)

var ErrUsage = errors.New("cli usage error")

type usageError struct {
	msg string
}

func newUsageError(msg string) error {
	return usageError{msg: msg}
}

func (e usageError) Error() string {
	return e.msg
}

func (e usageError) Is(target error) bool {
	return target == ErrUsage
}

// friendlyError maps document and route errors into usage errors that point
// at the offending location. Other errors pass through unchanged.
func friendlyError(err error) error {
	var se *spec.SpecError
	if errors.As(err, &se) {
		msg := "spec: " + strings.TrimPrefix(se.Message, "spec: ")
		if se.Location != "" {
			msg = fmt.Sprintf("%s\nLocation: %s", msg, se.Location)
		}
		if se.JSONPointer != "" {
			msg = fmt.Sprintf("%s\nPointer: %s", msg, se.JSONPointer)
		}
		return newUsageError(msg)
	}
	var re *route.RouteError
	if errors.As(err, &re) {
		return newUsageError(fmt.Sprintf("%v\nHint: supported methods are get, post, put and delete.", re))
	}
	return err
}
