package gateway

import "fmt"

// NetworkError means a remote call could not be completed: connectivity
// failure or a non-2xx status, including an invalid credential rejected by
// the API. The URL identifies which stage of the run failed.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("could not reach %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ParseError means a response body could not be decoded into the expected
// shape. Raised for pull request listings only; a malformed repository list
// reads as empty instead.
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("could not parse response from %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
