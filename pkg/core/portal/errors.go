package portal

import (
	"errors"
	"fmt"
)

// Reason classifies a failed artifact fetch. FieldMissing means the section does not exist
// for that document; HTTPError and Timeout are transport problems worth a manual retry.
type Reason string

const (
	ReasonHTTPError    Reason = "http_error"
	ReasonFieldMissing Reason = "field_missing"
	ReasonDecodeError  Reason = "decode_error"
	ReasonTimeout      Reason = "timeout"
)

var (
	// ErrFetchFailure matches every *FetchError.
	ErrFetchFailure = errors.New("artifact fetch failed")

	ErrHTTP         = errors.New("portal http error")
	ErrFieldMissing = errors.New("document field missing")
	ErrDecode       = errors.New("document payload not decodable")
	ErrTimeout      = errors.New("portal request timed out")

	// ErrUnknownItem is returned by the builder for items outside the section table.
	ErrUnknownItem = errors.New("unknown report item")
)

// FetchError is the typed failure of Fetcher.Fetch.
type FetchError struct {
	Reason     Reason
	URL        string
	StatusCode int // set for ReasonHTTPError when the server answered
	Err        error
}

func (e *FetchError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("fetch %s: %s (HTTP %d)", e.URL, e.Reason, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Reason, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Reason)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Is lets errors.Is match ErrFetchFailure and the sentinel of the reason.
func (e *FetchError) Is(target error) bool {
	if target == ErrFetchFailure {
		return true
	}
	return target == reasonSentinel(e.Reason)
}

func reasonSentinel(r Reason) error {
	switch r {
	case ReasonHTTPError:
		return ErrHTTP
	case ReasonFieldMissing:
		return ErrFieldMissing
	case ReasonDecodeError:
		return ErrDecode
	case ReasonTimeout:
		return ErrTimeout
	}
	return nil
}

// ReasonOf extracts the fetch reason from err, if any.
func ReasonOf(err error) (Reason, bool) {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Reason, true
	}
	return "", false
}
