// Package errors defines the MTA error taxonomy from §7 as distinct
// sentinel values that a caller can wrap with %w and test with
// errors.Is, the way the teacher's auth package distinguishes
// ErrInvalidCredentials from ErrTokenExpired instead of returning bare
// strings. No other package in this module returns or wraps these
// values; their errors are plain fmt.Errorf values.
package errors

import "errors"

var (
	// ErrWireFormat marks a malformed control frame or JSON payload.
	// Recovered in place: the frame is dropped, the session continues.
	ErrWireFormat = errors.New("mta: malformed wire frame")

	// ErrProtocolViolation marks a required payload missing or an
	// unexpected state transition. Surfaced to the driver, which
	// decides whether to continue or abort.
	ErrProtocolViolation = errors.New("mta: protocol violation")

	// ErrTransport marks a BLE, Wi-Fi, TCP, or TLS failure.
	ErrTransport = errors.New("mta: transport failure")

	// ErrCrypto marks a credential decryption failure.
	ErrCrypto = errors.New("mta: crypto failure")

	// ErrUserRefuse is the first-class terminal outcome of a user
	// declining a transfer. Not treated as failure by callers that
	// distinguish it from ErrTransport.
	ErrUserRefuse = errors.New("mta: user refused transfer")

	// ErrTimeout marks an expired per-stage deadline.
	ErrTimeout = errors.New("mta: stage timeout")
)

// Is reports whether err wraps target anywhere in its chain. Exported
// here purely so callers can write errors.Is(err, mtaerrors.ErrTimeout)
// without also importing the standard errors package under a second name.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
