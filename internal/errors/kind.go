package errors

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// GenericKind is the kind reported for errors that carry no named type,
// such as values created with errors.New or fmt.Errorf.
const GenericKind = "Error"

// ArgumentErrorKind is the kind reported for ArgumentError.
const ArgumentErrorKind = "IllegalArgumentError"

// Kinded is implemented by errors that name their own category.
type Kinded interface {
	Kind() string
}

// ArgumentError reports a missing or malformed start parameter.
// It is raised before any work starts.
type ArgumentError struct {
	Param  string
	Reason string
}

// NewMissingParameter returns an ArgumentError for an absent required parameter.
func NewMissingParameter(param string) *ArgumentError {
	return &ArgumentError{Param: param, Reason: "is required"}
}

// Error implements the error interface.
func (e *ArgumentError) Error() string {
	return fmt.Sprintf("parameter %s %s", e.Param, e.Reason)
}

// Kind names the category reported to the launching caller.
func (e *ArgumentError) Kind() string {
	return ArgumentErrorKind
}

// Unwrap lets errors.Is match ErrMissingParameter.
func (e *ArgumentError) Unwrap() error {
	return ErrMissingParameter
}

// PanicError carries a value recovered from a panic.
type PanicError struct {
	Value any
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	if err, ok := e.Value.(error); ok {
		return err.Error()
	}
	return fmt.Sprint(e.Value)
}

// Kind derives the category name of err.
//
// The chain is walked outermost first. The first error implementing Kinded
// wins; otherwise the first error whose dynamic type is a named type outside
// the wrapping machinery of the standard library is used, reduced to its
// unqualified name ("*zip.FormatError" becomes "FormatError"). Errors with
// no named type report GenericKind.
func Kind(err error) string {
	if err == nil {
		return ""
	}

	var k Kinded
	if errors.As(err, &k) {
		return k.Kind()
	}

	for e := err; e != nil; e = errors.Unwrap(e) {
		if name := typeName(e); name != "" {
			return name
		}
	}
	return GenericKind
}

// Describe formats err as "<Kind>: <message>".
func Describe(err error) string {
	if err == nil {
		return ""
	}
	return Kind(err) + ": " + err.Error()
}

// genericTypes are stdlib error carriers whose names say nothing about the failure.
var genericTypes = map[string]bool{ //nolint:gochecknoglobals // Lookup table
	"errorString": true,
	"wrapError":   true,
	"wrapErrors":  true,
	"joinError":   true,
}

func typeName(err error) string {
	t := reflect.TypeOf(err)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	name := t.Name()
	if name == "" || genericTypes[name] {
		return ""
	}
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return name
}
