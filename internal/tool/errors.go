package tool

import (
	"errors"
	"fmt"
)

// ErrorKind classifies provisioning failures.
type ErrorKind string

const (
	// KindNoBinary means the network is unreachable and no usable local
	// binary exists. Fatal; blocks all operations.
	KindNoBinary ErrorKind = "no_network_and_no_local_binary"
	// KindUpdateCheck means the remote version query failed while a local
	// binary exists. Non-fatal; the caller proceeds with the local binary.
	KindUpdateCheck ErrorKind = "update_check_failed"
	// KindCorrupt means the downloaded artifact failed verification twice.
	KindCorrupt ErrorKind = "download_corrupt"
)

// Error is a provisioning failure with its classification.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is a provisioning Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Kind == kind
}
