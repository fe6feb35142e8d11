package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, device.ErrCapacityExceeded) {
//	    // registry is full
//	}
var (
	// ErrCapacityExceeded is returned by Add when the registry already holds
	// its configured maximum number of devices.
	ErrCapacityExceeded = errors.New("device: capacity exceeded")

	// ErrSettingNotSupported is returned by ApplySetting for kinds without a
	// setting. It is a signal, not a failure: callers log it and carry on.
	ErrSettingNotSupported = errors.New("device: setting not supported")

	// ErrInvalidKind is returned when a kind value is not recognised.
	ErrInvalidKind = errors.New("device: invalid kind")

	// ErrInvalidName is returned when a device name is empty or too long.
	ErrInvalidName = errors.New("device: invalid name")
)
