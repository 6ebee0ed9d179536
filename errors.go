package serial

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Predefined error types for robust error handling
var (
	ErrDeviceNotFound   = errors.New("serial device not found")
	ErrPermissionDenied = errors.New("permission denied accessing serial device")
	ErrDeviceInUse      = errors.New("serial device already in use")
	ErrInvalidBaudRate  = errors.New("invalid baud rate")
	ErrInvalidConfig    = errors.New("invalid serial configuration")
	ErrPortClosed       = errors.New("serial port is closed")
	ErrNotSerial        = errors.New("device is not a serial port")
)

// openError maps errno values from open(2) onto the sentinel errors while
// keeping the device path in the message.
func openError(device string, err error) error {
	switch {
	case errors.Is(err, unix.ENOENT), errors.Is(err, unix.ENODEV), errors.Is(err, unix.ENXIO):
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, device)
	case errors.Is(err, unix.EACCES), errors.Is(err, unix.EPERM):
		return fmt.Errorf("%w: %s", ErrPermissionDenied, device)
	case errors.Is(err, unix.EBUSY):
		return fmt.Errorf("%w: %s", ErrDeviceInUse, device)
	}
	return &os.PathError{Op: "open", Path: device, Err: err}
}
