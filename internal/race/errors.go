package race

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNoResults is the failure of a mirror that answered but listed nothing.
var ErrNoResults = errors.New("no results")

// HTTPStatusError is the failure of a mirror that answered with a non-2xx status.
type HTTPStatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("unexpected status %s from %s", e.Status, e.URL)
}

// Failure is a mirror that did not contribute to an outcome and why.
type Failure struct {
	Mirror string
	Error  error
}

// MarshalJSON encodes the failure as its mirror name and error message.
func (f Failure) MarshalJSON() ([]byte, error) {
	message := ""
	if f.Error != nil {
		message = f.Error.Error()
	}
	return json.Marshal(struct {
		Mirror string `json:"mirror"`
		Error  string `json:"error"`
	}{Mirror: f.Mirror, Error: message})
}

func (f Failure) String() string {
	return fmt.Sprintf("%s: %v", f.Mirror, f.Error)
}
