package models

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors. None of them are transient: they describe invalid input or gaps in
// the schema knowledge, so callers should not retry.
var (
	// ErrMalformedXML indicates the input is not well-formed XML.
	ErrMalformedXML = errors.New("malformed xml")

	// ErrUnrecognizedSchema indicates well-formed XML that matches no known message
	// family, or matches more than one.
	ErrUnrecognizedSchema = errors.New("unrecognized schema")

	// ErrMissingRequiredField indicates a field mandated for the message type is absent.
	ErrMissingRequiredField = errors.New("missing required field")

	// ErrUnknownMessageType indicates a lookup for a type with no knowledge entry.
	ErrUnknownMessageType = errors.New("unknown message type")

	// ErrAllStrategiesFailed indicates every generation call failed.
	ErrAllStrategiesFailed = errors.New("all strategies failed")
)

type MalformedXMLError struct {
	Err error
}

func (e *MalformedXMLError) Error() string {
	return fmt.Sprintf("malformed xml: %v", e.Err)
}

func (e *MalformedXMLError) Unwrap() []error {
	return []error{ErrMalformedXML, e.Err}
}

type UnrecognizedSchemaError struct {
	Root       string
	Candidates []MessageType
}

func (e *UnrecognizedSchemaError) Error() string {
	if len(e.Candidates) > 1 {
		names := make([]string, len(e.Candidates))
		for i, c := range e.Candidates {
			names[i] = c.String()
		}
		return fmt.Sprintf("unrecognized schema: root %q matches several message types (%s)",
			e.Root, strings.Join(names, ", "))
	}
	return fmt.Sprintf("unrecognized schema: root %q matches no known message type", e.Root)
}

func (e *UnrecognizedSchemaError) Is(target error) bool {
	return target == ErrUnrecognizedSchema
}

// MissingRequiredFieldError names the absent field. Entry is the 1-based index of the
// statement entry the field belongs to, or 0 for message-level fields.
type MissingRequiredFieldError struct {
	Type  MessageType
	Field string
	Entry int
}

func (e *MissingRequiredFieldError) Error() string {
	if e.Entry > 0 {
		return fmt.Sprintf("%s: missing required field %q in entry %d", e.Type, e.Field, e.Entry)
	}
	return fmt.Sprintf("%s: missing required field %q", e.Type, e.Field)
}

func (e *MissingRequiredFieldError) Is(target error) bool {
	return target == ErrMissingRequiredField
}

type UnknownMessageTypeError struct {
	Type string
}

func (e *UnknownMessageTypeError) Error() string {
	return fmt.Sprintf("unknown message type: %s", e.Type)
}

func (e *UnknownMessageTypeError) Is(target error) bool {
	return target == ErrUnknownMessageType
}
