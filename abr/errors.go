package abr

import (
	"errors"
	"fmt"
)

// Kind classifies why a search or extraction produced no rows.
type Kind int

const (
	// TransportFailure covers network errors, timeouts and non-2xx responses.
	TransportFailure Kind = iota + 1
	// EmptyResponse means the registry answered 2xx with a blank body.
	EmptyResponse
	// XMLParseFailure means the payload could not be parsed as XML.
	XMLParseFailure
)

func (k Kind) String() string {
	switch k {
	case TransportFailure:
		return "transport failure"
	case EmptyResponse:
		return "empty response"
	case XMLParseFailure:
		return "xml parse failure"
	default:
		return "unknown failure"
	}
}

// Failure is the typed error returned by Client.Search and Extract.
// StatusCode is set only for transport failures caused by an HTTP status.
type Failure struct {
	Kind       Kind
	StatusCode int
	Err        error
}

func (f *Failure) Error() string {
	msg := "abr: " + f.Kind.String()
	if f.StatusCode != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", f.StatusCode)
	}
	if f.Err != nil {
		msg += ": " + f.Err.Error()
	}
	return msg
}

func (f *Failure) Unwrap() error { return f.Err }

// KindOf returns the failure kind carried by err, or 0 when err is not a Failure.
func KindOf(err error) Kind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return 0
}
