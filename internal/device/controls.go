package device

import (
	"github.com/pkg/errors"
)

// ControlValue is a control name with its current or requested value.
type ControlValue struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// ListControls returns the writable controls of a sensor on the active device.
func (r *Registry) ListControls(kind Sensor) ([]Option, error) {
	h, err := r.GetSensor(kind)
	if err != nil {
		return nil, err
	}
	opts, err := h.Options()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list controls of %s", kind.SDKName())
	}
	writable := make([]Option, 0, len(opts))
	for _, o := range opts {
		if !o.ReadOnly {
			writable = append(writable, o)
		}
	}
	return writable, nil
}

// GetControlValues reads the named controls in order. An empty list reads every
// writable control.
func (r *Registry) GetControlValues(kind Sensor, names []string) ([]ControlValue, error) {
	h, err := r.GetSensor(kind)
	if err != nil {
		return nil, err
	}
	opts, err := r.controlIndex(kind, h)
	if err != nil {
		return nil, err
	}

	if len(names) == 0 {
		writable, err := r.ListControls(kind)
		if err != nil {
			return nil, err
		}
		for _, o := range writable {
			names = append(names, o.Name)
		}
	}

	values := make([]ControlValue, 0, len(names))
	for _, name := range names {
		if _, ok := opts[name]; !ok {
			return nil, &UnsupportedControlError{Control: name, Sensor: kind}
		}
		v, err := h.GetOption(name)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read control %s", name)
		}
		values = append(values, ControlValue{Name: name, Value: v})
	}
	return values, nil
}

// SetControlValues writes controls to a sensor. Every name and value is checked
// before the first write so an invalid request leaves the sensor untouched.
func (r *Registry) SetControlValues(kind Sensor, values []ControlValue) error {
	h, err := r.GetSensor(kind)
	if err != nil {
		return err
	}
	opts, err := r.controlIndex(kind, h)
	if err != nil {
		return err
	}

	for _, cv := range values {
		o, ok := opts[cv.Name]
		if !ok || o.ReadOnly {
			return &UnsupportedControlError{Control: cv.Name, Sensor: kind}
		}
		if cv.Value < o.Min || cv.Value > o.Max {
			return &ControlRangeError{Control: cv.Name, Value: cv.Value, Option: o}
		}
	}

	for _, cv := range values {
		if err := h.SetOption(cv.Name, cv.Value); err != nil {
			return errors.Wrapf(err, "failed to set control %s", cv.Name)
		}
	}
	return nil
}

func (r *Registry) controlIndex(kind Sensor, h SensorHandle) (map[string]Option, error) {
	opts, err := h.Options()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list controls of %s", kind.SDKName())
	}
	index := make(map[string]Option, len(opts))
	for _, o := range opts {
		index[o.Name] = o
	}
	return index, nil
}

// Safety returns the safety interface of the active device.
func (r *Registry) Safety() (SafetyDevice, error) {
	d, err := r.Active()
	if err != nil {
		return nil, err
	}
	if _, ok := d.handles[SafetyCamera]; !ok {
		return nil, ErrSafetyUnsupported
	}
	sd, ok := d.handle.(SafetyDevice)
	if !ok {
		return nil, ErrSafetyUnsupported
	}
	return sd, nil
}
