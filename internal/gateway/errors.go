package gateway

import (
	"errors"
	"fmt"

	"github.com/aws/smithy-go"
)

// RemoteError is the single failure taxonomy the gateway reports. Callers
// must not assume partial success when one is returned.
type RemoteError struct {
	Op      string // fetch, insert, update, delete
	Table   string
	Message string
	Err     error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Op, e.Table, e.Message)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// remoteErr builds a RemoteError for a local precondition failure (no
// network call was made).
func remoteErr(op, table, message string) *RemoteError {
	return &RemoteError{Op: op, Table: table, Message: message}
}

// wrapRemote converts a backend error into a RemoteError, preferring the
// service's own message when one is present.
func wrapRemote(op, table string, err error) *RemoteError {
	msg := err.Error()
	var ae smithy.APIError
	if errors.As(err, &ae) {
		msg = fmt.Sprintf("%s: %s", ae.ErrorCode(), ae.ErrorMessage())
	}
	return &RemoteError{Op: op, Table: table, Message: msg, Err: err}
}
