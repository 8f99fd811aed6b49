package device

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/babelcloud/rscli/internal/safety"
	"github.com/babelcloud/rscli/internal/stream"
	"github.com/pkg/errors"
)

// Backend is the camera SDK boundary. Handles returned by a backend are owned by it;
// callers only keep references for the lifetime of the backend.
type Backend interface {
	// Devices enumerates the connected devices.
	Devices() ([]DeviceHandle, error)
	// Close releases the SDK context.
	Close() error
}

// DeviceHandle is a connected camera.
type DeviceHandle interface {
	Info(field InfoField) (string, error)
	Sensors() []SensorHandle
	// StartPipeline enables all profiles at once through the SDK's multiplexed pipeline.
	StartPipeline(profiles []stream.Profile, sink FrameSink) error
	StopPipeline() error
}

// SensorHandle is one sensor of a device.
type SensorHandle interface {
	// Name is the sensor name as reported by the SDK.
	Name() string
	Profiles() ([]stream.Profile, error)
	Options() ([]Option, error)
	GetOption(name string) (float64, error)
	SetOption(name string, value float64) error
	// Start opens the sensor with the given profiles and starts delivering frames.
	Start(profiles []stream.Profile, sink FrameSink) error
	Stop() error
}

// SafetyDevice is implemented by device handles carrying a safety camera.
type SafetyDevice interface {
	SafetyPreset(index int) (*safety.Preset, error)
	SetSafetyPreset(index int, preset *safety.Preset) error
	SafetyInterface() (*safety.InterfaceConfig, error)
	SetSafetyInterface(cfg *safety.InterfaceConfig) error
	EnterServiceMode() error
	ExitServiceMode() error
}

// FrameSink receives frames from the SDK. It may be called from SDK-owned goroutines
// and must not block.
type FrameSink func(stream.FrameSet)

// InfoField selects a device attribute.
type InfoField int

const (
	InfoName InfoField = iota
	InfoSerial
	InfoFirmware
	InfoConnection
)

func (f InfoField) String() string {
	switch f {
	case InfoName:
		return "name"
	case InfoSerial:
		return "serial"
	case InfoFirmware:
		return "firmware"
	case InfoConnection:
		return "connection"
	}
	return "unknown"
}

// Option is a sensor control.
type Option struct {
	Name        string  `json:"name" yaml:"name" toml:"name"`
	Description string  `json:"description" yaml:"description" toml:"description"`
	Min         float64 `json:"min" yaml:"min" toml:"min"`
	Max         float64 `json:"max" yaml:"max" toml:"max"`
	Step        float64 `json:"step" yaml:"step" toml:"step"`
	Default     float64 `json:"default" yaml:"default" toml:"default"`
	ReadOnly    bool    `json:"read_only,omitempty" yaml:"read_only" toml:"read_only"`
}

// DeviceInfo is a read-only snapshot of a connected device.
type DeviceInfo struct {
	Name       string   `json:"name"`
	Serial     string   `json:"serial"`
	Firmware   string   `json:"firmware"`
	Connection string   `json:"connection"`
	Sensors    []string `json:"sensors"`
}

// BackendConfig carries driver settings from the configuration layer.
type BackendConfig struct {
	// FixturesPath points the mock driver at a fixture file. Empty uses the built-in
	// default device.
	FixturesPath string
	// FrameTimeout bounds SDK-side frame polling.
	FrameTimeout time.Duration
}

// DriverFactory creates a backend.
type DriverFactory func(cfg BackendConfig) (Backend, error)

var (
	driversMu sync.RWMutex
	drivers   = map[string]DriverFactory{}
)

// RegisterDriver makes a backend available under name. Drivers register themselves
// from init.
func RegisterDriver(name string, factory DriverFactory) {
	driversMu.Lock()
	defer driversMu.Unlock()
	if factory == nil {
		panic("device: RegisterDriver factory is nil")
	}
	if _, dup := drivers[name]; dup {
		panic("device: RegisterDriver called twice for driver " + name)
	}
	drivers[name] = factory
}

// Drivers lists the registered driver names.
func Drivers() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()
	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewBackend creates a backend for the named driver ("mock", "realsense").
func NewBackend(driver string, cfg BackendConfig) (Backend, error) {
	driversMu.RLock()
	factory, ok := drivers[strings.ToLower(driver)]
	driversMu.RUnlock()
	if !ok {
		if strings.EqualFold(driver, "realsense") {
			return nil, errors.Wrap(ErrDriverUnavailable, "rebuild with -tags realsense to use the camera SDK")
		}
		return nil, errors.Errorf("unknown driver %q (available: %s)", driver, strings.Join(Drivers(), ", "))
	}
	backend, err := factory(cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to initialize %s driver", driver)
	}
	return backend, nil
}
