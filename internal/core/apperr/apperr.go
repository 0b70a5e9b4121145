// Package apperr classifies errors that cross the HTTP boundary.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindUnknown Kind = iota
	InvalidArgument
	InvalidCoordinate
	InvalidBoundingBox
	UnsupportedCrs
	MissingParameter
	InvalidParameterValue
	UpstreamGeocodingFailure
	FilterParseFailure
)

func (k Kind) String() string {
	switch k {
	case InvalidArgument:
		return "InvalidArgument"
	case InvalidCoordinate:
		return "InvalidCoordinate"
	case InvalidBoundingBox:
		return "InvalidBoundingBox"
	case UnsupportedCrs:
		return "UnsupportedCrs"
	case MissingParameter:
		return "MissingParameter"
	case InvalidParameterValue:
		return "InvalidParameterValue"
	case UpstreamGeocodingFailure:
		return "UpstreamGeocodingFailure"
	case FilterParseFailure:
		return "FilterParseFailure"
	default:
		return "Unknown"
	}
}

// ClientFacing reports whether errors of this kind are the caller's fault
// and may be shown verbatim.
func (k Kind) ClientFacing() bool {
	switch k {
	case InvalidArgument, InvalidCoordinate, InvalidBoundingBox,
		UnsupportedCrs, MissingParameter, InvalidParameterValue:
		return true
	}
	return false
}

type Error struct {
	Kind Kind
	Msg  string
	// StatusCode is the upstream HTTP status for UpstreamGeocodingFailure, 0 if none.
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, apperr.E(k, "")) works.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

func E(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, err error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

func Upstream(status int, err error, msg string) *Error {
	return &Error{Kind: UpstreamGeocodingFailure, Msg: msg, StatusCode: status, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
