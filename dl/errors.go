package dl

import "fmt"

// HTTPError is returned when the manifest endpoint answers with a non-2xx
// status.
type HTTPError struct {
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http error: status %d", e.StatusCode)
}

// DecodeError is returned when the manifest body is not valid JSON or does not
// have the shape the variant expects.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode manifest: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// NetworkError is returned when the request itself could not be completed.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("failed to fetch %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
