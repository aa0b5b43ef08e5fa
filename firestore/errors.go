package firestore

import (
	"errors"
	"fmt"
)

// ErrRemoteUnavailable covers network failures, auth failures and 5xx
// responses from the remote store. Callers may retry.
var ErrRemoteUnavailable = errors.New("firestore indisponible")

// DecodeError marks a payload the remote store returned that does not match
// the expected wire shape. Not retryable.
type DecodeError struct {
	Collection string
	Detail     string
}

func (e *DecodeError) Error() string {
	if e.Collection != "" {
		return fmt.Sprintf("firestore decode error (%s): %s", e.Collection, e.Detail)
	}
	return "firestore decode error: " + e.Detail
}

func IsRemoteUnavailable(err error) bool {
	return errors.Is(err, ErrRemoteUnavailable)
}

func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}
