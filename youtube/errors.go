package youtube

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrTranscriptsDisabled = errors.New("transcripts are disabled for this video")
	ErrNoTranscriptFound   = errors.New("no transcript found for the requested languages")
	ErrIPBlocked           = errors.New("YouTube is blocking requests from this IP")
	ErrVideoUnavailable    = errors.New("video is unavailable")
)

// RequestError is a transport failure or unexpected HTTP status while talking to YouTube.
type RequestError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("request to %s failed: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("request to %s failed: status %d", e.URL, e.StatusCode)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// CouldNotRetrieve reports failures caused by reaching YouTube rather than by
// the video's caption settings. These are the ones worth retrying through
// another proxy.
func CouldNotRetrieve(err error) bool {
	if err == nil {
		return false
	}
	var reqErr *RequestError
	return errors.As(err, &reqErr) ||
		errors.Is(err, ErrIPBlocked) ||
		errors.Is(err, ErrVideoUnavailable)
}
