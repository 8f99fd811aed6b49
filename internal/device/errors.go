package device

import (
	"fmt"

	"github.com/babelcloud/rscli/internal/stream"
	"github.com/pkg/errors"
)

var (
	// ErrNoDevice is returned when no camera is connected.
	ErrNoDevice = errors.New("no device connected")
	// ErrDriverUnavailable is returned for a known driver that is not compiled in.
	ErrDriverUnavailable = errors.New("driver not available in this build")
	// ErrSafetyUnsupported is returned when the active device has no safety camera.
	ErrSafetyUnsupported = errors.New("active device does not support safety configuration")
)

// DeviceNotFoundError reports a serial number no connected device has.
type DeviceNotFoundError struct {
	Serial string
}

func (e *DeviceNotFoundError) Error() string {
	return fmt.Sprintf("device with serial %q not found", e.Serial)
}

// UnsupportedSensorError reports a sensor the active device lacks or that advertises no
// profiles.
type UnsupportedSensorError struct {
	Sensor Sensor
	Serial string
	Reason string
}

func (e *UnsupportedSensorError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = "not present"
	}
	return fmt.Sprintf("sensor %q unsupported on device %s: %s", e.Sensor.Name(), e.Serial, reason)
}

// UnsupportedStreamError reports a stream no sensor of the active device produces.
type UnsupportedStreamError struct {
	Stream stream.Stream
	Serial string
}

func (e *UnsupportedStreamError) Error() string {
	return fmt.Sprintf("stream %q is not produced by any sensor of device %s", e.Stream.Name(), e.Serial)
}

// UnsupportedControlError reports a control the sensor does not expose.
type UnsupportedControlError struct {
	Control string
	Sensor  Sensor
}

func (e *UnsupportedControlError) Error() string {
	return fmt.Sprintf("control '%s' is not supported for sensor '%s'", e.Control, e.Sensor.Name())
}

// ControlRangeError reports a value outside a control's range.
type ControlRangeError struct {
	Control string
	Value   float64
	Option  Option
}

func (e *ControlRangeError) Error() string {
	return fmt.Sprintf("value %v for control '%s' outside range [%v, %v]", e.Value, e.Control, e.Option.Min, e.Option.Max)
}
