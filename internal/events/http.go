package events

import (
	"net/http"
	"time"
)

// HTTPStart is emitted when an HTTP request is received. The handler context
// carries the request id.
type HTTPStart struct {
	Request *http.Request
}

// HTTPFinish is emitted after the handler completes. Err is set when the
// response body could not be written.
type HTTPFinish struct {
	Request  *http.Request
	Status   int
	Err      error
	Duration time.Duration
}
