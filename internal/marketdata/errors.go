package marketdata

import (
	"errors"
	"fmt"
)

// ErrorKind classifies upstream failures so callers can react
// without parsing error strings
type ErrorKind int

const (
	// KindRateLimited - upstream responded with a rate-limit signal (HTTP 429)
	KindRateLimited ErrorKind = iota + 1

	// KindUpstreamTimeout - the batch request did not complete in time
	KindUpstreamTimeout

	// KindUpstreamProtocol - non-success status or unparseable payload
	KindUpstreamProtocol

	// KindSymbolNotFound - requested symbol absent from a successful batch response
	KindSymbolNotFound
)

func (k ErrorKind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindUpstreamTimeout:
		return "upstream_timeout"
	case KindUpstreamProtocol:
		return "upstream_protocol_error"
	case KindSymbolNotFound:
		return "symbol_not_found"
	default:
		return "unknown"
	}
}

// Error is a classified upstream error
type Error struct {
	Kind ErrorKind
	Op   string // operation that failed, e.g. "eod batch"
	Err  error  // underlying cause, may be nil
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf extracts the ErrorKind from err, or 0 if err is not a classified error
func KindOf(err error) ErrorKind {
	var me *Error
	if errors.As(err, &me) {
		return me.Kind
	}
	return 0
}
