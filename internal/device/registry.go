package device

import (
	"sort"

	"github.com/babelcloud/rscli/internal/stream"
	"github.com/babelcloud/rscli/internal/util"
	"github.com/pkg/errors"
)

// NotAvailable replaces device attributes the SDK cannot report.
const NotAvailable = "N/A"

// Device is a connected camera as indexed by the Registry.
type Device struct {
	handle  DeviceHandle
	info    DeviceInfo
	sensors []Sensor
	handles map[Sensor]SensorHandle

	catalogs map[Sensor][]stream.Profile
	origins  map[stream.Stream]Sensor
}

// Serial returns the device serial number.
func (d *Device) Serial() string {
	return d.info.Serial
}

// Info returns the device snapshot.
func (d *Device) Info() DeviceInfo {
	return d.info
}

// Handle returns the backend handle.
func (d *Device) Handle() DeviceHandle {
	return d.handle
}

// Sensors returns the device's sensors in enumeration order.
func (d *Device) Sensors() []Sensor {
	return append([]Sensor(nil), d.sensors...)
}

// Registry indexes the devices and sensors found in a single enumeration pass.
// It never mutates the hardware handles; lookups are derived once and read-only
// afterwards, except for the active-device selection and lazily filled catalogs.
type Registry struct {
	backend Backend
	devices []*Device
	active  *Device
}

// NewRegistry enumerates the backend's devices. The device with the lowest serial
// number becomes active so repeated runs select the same camera.
func NewRegistry(backend Backend) (*Registry, error) {
	handles, err := backend.Devices()
	if err != nil {
		return nil, errors.Wrap(err, "failed to query devices")
	}

	r := &Registry{backend: backend}
	for _, h := range handles {
		r.devices = append(r.devices, indexDevice(h))
	}
	sort.SliceStable(r.devices, func(i, j int) bool {
		return r.devices[i].info.Serial < r.devices[j].info.Serial
	})
	if len(r.devices) > 0 {
		r.active = r.devices[0]
	}

	util.GetLogger().Debug("Device registry initialized", "devices", len(r.devices))
	return r, nil
}

func indexDevice(h DeviceHandle) *Device {
	d := &Device{
		handle:   h,
		handles:  make(map[Sensor]SensorHandle),
		catalogs: make(map[Sensor][]stream.Profile),
		info: DeviceInfo{
			Name:       infoOrNA(h, InfoName),
			Serial:     infoOrNA(h, InfoSerial),
			Firmware:   infoOrNA(h, InfoFirmware),
			Connection: infoOrNA(h, InfoConnection),
		},
	}

	for _, sh := range h.Sensors() {
		name := sh.Name()
		d.info.Sensors = append(d.info.Sensors, name)

		kind, ok := SensorFromSDKName(name)
		if !ok {
			util.GetLogger().Debug("Skipping unmapped sensor", "serial", d.info.Serial, "sensor", name)
			continue
		}
		if _, dup := d.handles[kind]; dup {
			util.GetLogger().Debug("Skipping duplicate sensor", "serial", d.info.Serial, "sensor", name)
			continue
		}
		d.handles[kind] = sh
		d.sensors = append(d.sensors, kind)
	}
	return d
}

func infoOrNA(h DeviceHandle, field InfoField) string {
	v, err := h.Info(field)
	if err != nil || v == "" {
		if err != nil {
			util.GetLogger().Debug("Device attribute unavailable", "field", field.String(), "error", err)
		}
		return NotAvailable
	}
	return v
}

// QueryDevices returns a snapshot of every connected device.
func (r *Registry) QueryDevices() []DeviceInfo {
	infos := make([]DeviceInfo, 0, len(r.devices))
	for _, d := range r.devices {
		info := d.info
		info.Sensors = append([]string(nil), d.info.Sensors...)
		infos = append(infos, info)
	}
	return infos
}

// SetActiveDevice selects the device used by subsequent operations. A blank serial
// keeps the current selection.
func (r *Registry) SetActiveDevice(serial string) error {
	if serial == "" {
		return nil
	}
	for _, d := range r.devices {
		if d.info.Serial == serial {
			r.active = d
			return nil
		}
	}
	return &DeviceNotFoundError{Serial: serial}
}

// Active returns the active device.
func (r *Registry) Active() (*Device, error) {
	if r.active == nil {
		return nil, ErrNoDevice
	}
	return r.active, nil
}

// Sensors returns the active device's sensors in enumeration order.
func (r *Registry) Sensors() ([]Sensor, error) {
	d, err := r.Active()
	if err != nil {
		return nil, err
	}
	return d.Sensors(), nil
}

// GetSensor returns the active device's handle for a sensor kind.
func (r *Registry) GetSensor(kind Sensor) (SensorHandle, error) {
	d, err := r.Active()
	if err != nil {
		return nil, err
	}
	h, ok := d.handles[kind]
	if !ok {
		return nil, &UnsupportedSensorError{Sensor: kind, Serial: d.info.Serial}
	}
	return h, nil
}

// ListProfiles returns the profiles a sensor of the active device advertises, in SDK
// enumeration order. Non-video profiles report a 0x0 resolution. The catalog is cached
// since capabilities do not change while the device is connected.
func (r *Registry) ListProfiles(kind Sensor) ([]stream.Profile, error) {
	d, err := r.Active()
	if err != nil {
		return nil, err
	}
	if catalog, ok := d.catalogs[kind]; ok {
		return catalog, nil
	}

	h, err := r.GetSensor(kind)
	if err != nil {
		return nil, err
	}
	raw, err := h.Profiles()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list profiles of %s", kind.SDKName())
	}
	if len(raw) == 0 {
		return nil, &UnsupportedSensorError{Sensor: kind, Serial: d.info.Serial, Reason: "no advertised profiles"}
	}

	catalog := make([]stream.Profile, 0, len(raw))
	for _, p := range raw {
		res := p.Resolution
		if !p.Stream.IsVideo() {
			res = stream.AnyResolution
		}
		catalog = append(catalog, stream.NewProfile(p.Stream, res, p.FPS, p.Format, p.Index))
	}
	d.catalogs[kind] = catalog
	return catalog, nil
}

// Close releases the backend.
func (r *Registry) Close() error {
	return r.backend.Close()
}
