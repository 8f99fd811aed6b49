// Package mock implements a simulated camera backend driven by fixture files.
package mock

import (
	"fmt"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/babelcloud/rscli/internal/device"
	"github.com/babelcloud/rscli/internal/safety"
	"github.com/babelcloud/rscli/internal/stream"
	"github.com/babelcloud/rscli/internal/util"
	"github.com/pkg/errors"
	"k8s.io/utils/keymutex"
)

// DriverName is the name the backend registers under.
const DriverName = "mock"

func init() {
	device.RegisterDriver(DriverName, func(cfg device.BackendConfig) (device.Backend, error) {
		if cfg.FixturesPath == "" {
			return New(DefaultFixture()), nil
		}
		f, err := LoadFixture(cfg.FixturesPath)
		if err != nil {
			return nil, err
		}
		return New(f), nil
	})
}

// Backend is a simulated SDK context.
type Backend struct {
	devices []*Device
	locks   keymutex.KeyMutex

	starts         atomic.Int64
	stops          atomic.Int64
	pipelineStarts atomic.Int64
	pipelineStops  atomic.Int64
}

// New builds a backend exposing the fixture's devices.
func New(f *Fixture) *Backend {
	b := &Backend{locks: keymutex.NewHashed(0)}
	for _, df := range f.Devices {
		b.devices = append(b.devices, newDevice(b, df))
	}
	return b
}

func (b *Backend) Devices() ([]device.DeviceHandle, error) {
	handles := make([]device.DeviceHandle, 0, len(b.devices))
	for _, d := range b.devices {
		handles = append(handles, d)
	}
	return handles, nil
}

// Close stops every frame generator still running.
func (b *Backend) Close() error {
	for _, d := range b.devices {
		d.mu.Lock()
		if d.pipeline != nil {
			d.pipeline.stop()
			d.pipeline = nil
		}
		d.mu.Unlock()
		for _, s := range d.sensors {
			b.locks.LockKey(s.key())
			if s.gen != nil {
				s.gen.stop()
				s.gen = nil
			}
			_ = b.locks.UnlockKey(s.key())
		}
	}
	return nil
}

// Starts counts sensor start calls, successful or not.
func (b *Backend) Starts() int { return int(b.starts.Load()) }

// Stops counts sensor stop calls.
func (b *Backend) Stops() int { return int(b.stops.Load()) }

// PipelineStarts counts pipeline start calls, successful or not.
func (b *Backend) PipelineStarts() int { return int(b.pipelineStarts.Load()) }

// PipelineStops counts pipeline stop calls.
func (b *Backend) PipelineStops() int { return int(b.pipelineStops.Load()) }

// Device is a simulated camera.
type Device struct {
	backend *Backend
	fx      DeviceFixture
	sensors []*Sensor

	mu          sync.Mutex
	pipeline    *generator
	serviceMode bool
	presets     map[int]*safety.Preset
	iface       *safety.InterfaceConfig
}

func newDevice(b *Backend, fx DeviceFixture) *Device {
	d := &Device{backend: b, fx: fx, presets: map[int]*safety.Preset{}}
	for _, sf := range fx.Sensors {
		s := &Sensor{dev: d, fx: sf, values: map[string]float64{}}
		for _, of := range sf.Options {
			s.options = append(s.options, of.option())
			s.values[of.Name] = of.Default
		}
		for _, pf := range sf.Profiles {
			// validated when the fixture was parsed
			p, _ := pf.profile()
			s.profiles = append(s.profiles, p)
		}
		d.sensors = append(d.sensors, s)
		if sf.Name == device.SafetyCamera.SDKName() {
			d.presets[0] = defaultPreset()
			d.iface = &safety.InterfaceConfig{GPIOStabilizationMs: 150, ZoneSelectionOverlapMs: 20}
		}
	}
	return d
}

func (d *Device) Info(field device.InfoField) (string, error) {
	if slices.Contains(d.fx.MissingInfo, field.String()) {
		return "", errors.Errorf("device %s does not report %s", d.fx.Serial, field)
	}
	switch field {
	case device.InfoName:
		return d.fx.Name, nil
	case device.InfoSerial:
		return d.fx.Serial, nil
	case device.InfoFirmware:
		return d.fx.Firmware, nil
	case device.InfoConnection:
		return d.fx.Connection, nil
	}
	return "", errors.Errorf("unknown info field %d", field)
}

func (d *Device) Sensors() []device.SensorHandle {
	handles := make([]device.SensorHandle, 0, len(d.sensors))
	for _, s := range d.sensors {
		handles = append(handles, s)
	}
	return handles
}

// StartPipeline starts one generator per profile. Every profile must be advertised
// by one of the device's sensors.
func (d *Device) StartPipeline(profiles []stream.Profile, sink device.FrameSink) error {
	d.backend.pipelineStarts.Add(1)
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pipeline != nil {
		return errors.New("pipeline already started")
	}
	for _, p := range profiles {
		owner := d.owner(p)
		if owner == nil {
			return errors.Errorf("no sensor supports profile %s", p)
		}
		if owner.fx.FailStart {
			return errors.Errorf("failed to start %s: device busy", owner.fx.Name)
		}
	}
	d.pipeline = startGenerator(profiles, sink)
	util.GetLogger().Debug("Mock pipeline started", "serial", d.fx.Serial, "profiles", len(profiles))
	return nil
}

func (d *Device) StopPipeline() error {
	d.backend.pipelineStops.Add(1)
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pipeline == nil {
		return errors.New("pipeline not started")
	}
	d.pipeline.stop()
	d.pipeline = nil
	return nil
}

func (d *Device) owner(p stream.Profile) *Sensor {
	for _, s := range d.sensors {
		if slices.Contains(s.profiles, p) {
			return s
		}
	}
	return nil
}

func (d *Device) hasSafety() bool {
	return d.iface != nil
}

func (d *Device) SafetyPreset(index int) (*safety.Preset, error) {
	if err := safety.ValidatePresetIndex(index); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.hasSafety() {
		return nil, device.ErrSafetyUnsupported
	}
	p, ok := d.presets[index]
	if !ok {
		return nil, errors.Errorf("safety preset %d is empty", index)
	}
	cp := *p
	cp.Zones = slices.Clone(p.Zones)
	return &cp, nil
}

func (d *Device) SetSafetyPreset(index int, preset *safety.Preset) error {
	if err := safety.ValidatePresetIndex(index); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkServiceMode(); err != nil {
		return err
	}
	cp := *preset
	cp.Zones = slices.Clone(preset.Zones)
	d.presets[index] = &cp
	return nil
}

func (d *Device) SafetyInterface() (*safety.InterfaceConfig, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.hasSafety() {
		return nil, device.ErrSafetyUnsupported
	}
	cp := *d.iface
	cp.Pins = slices.Clone(d.iface.Pins)
	return &cp, nil
}

func (d *Device) SetSafetyInterface(cfg *safety.InterfaceConfig) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkServiceMode(); err != nil {
		return err
	}
	cp := *cfg
	cp.Pins = slices.Clone(cfg.Pins)
	d.iface = &cp
	return nil
}

func (d *Device) EnterServiceMode() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.hasSafety() {
		return device.ErrSafetyUnsupported
	}
	d.serviceMode = true
	return nil
}

func (d *Device) ExitServiceMode() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.hasSafety() {
		return device.ErrSafetyUnsupported
	}
	d.serviceMode = false
	return nil
}

// InServiceMode reports whether the safety camera is in service mode.
func (d *Device) InServiceMode() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.serviceMode
}

func (d *Device) checkServiceMode() error {
	if !d.hasSafety() {
		return device.ErrSafetyUnsupported
	}
	if !d.serviceMode {
		return errors.New("safety camera must be in service mode to write configuration")
	}
	return nil
}

func defaultPreset() *safety.Preset {
	return &safety.Preset{
		Platform: safety.Platform{
			RobotHeight: 1.0,
			Rotation:    [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
			Translation: [3]float64{0, 0, 0.5},
		},
		Zones: []safety.Zone{
			{Type: safety.ZoneDanger, Points: [4]safety.Point{{X: 0.3, Y: -0.4}, {X: 1.0, Y: -0.4}, {X: 1.0, Y: 0.4}, {X: 0.3, Y: 0.4}}},
			{Type: safety.ZoneWarning, Points: [4]safety.Point{{X: 0.3, Y: -0.8}, {X: 2.0, Y: -0.8}, {X: 2.0, Y: 0.8}, {X: 0.3, Y: 0.8}}},
		},
		Environment: safety.Environment{SafetyTriggerDuration: 1, MinFloorClearance: 0.05},
	}
}

// Sensor is a simulated sensor.
type Sensor struct {
	dev      *Device
	fx       SensorFixture
	profiles []stream.Profile
	options  []device.Option
	values   map[string]float64
	gen      *generator
}

func (s *Sensor) key() string {
	return s.dev.fx.Serial + "/" + s.fx.Name
}

func (s *Sensor) Name() string {
	return s.fx.Name
}

func (s *Sensor) Profiles() ([]stream.Profile, error) {
	return slices.Clone(s.profiles), nil
}

func (s *Sensor) Options() ([]device.Option, error) {
	return slices.Clone(s.options), nil
}

func (s *Sensor) GetOption(name string) (float64, error) {
	s.dev.backend.locks.LockKey(s.key())
	defer func() { _ = s.dev.backend.locks.UnlockKey(s.key()) }()

	v, ok := s.values[name]
	if !ok {
		return 0, errors.Errorf("option %s not supported by %s", name, s.fx.Name)
	}
	return v, nil
}

func (s *Sensor) SetOption(name string, value float64) error {
	s.dev.backend.locks.LockKey(s.key())
	defer func() { _ = s.dev.backend.locks.UnlockKey(s.key()) }()

	if _, ok := s.values[name]; !ok {
		return errors.Errorf("option %s not supported by %s", name, s.fx.Name)
	}
	s.values[name] = value
	return nil
}

func (s *Sensor) Start(profiles []stream.Profile, sink device.FrameSink) error {
	s.dev.backend.starts.Add(1)
	s.dev.backend.locks.LockKey(s.key())
	defer func() { _ = s.dev.backend.locks.UnlockKey(s.key()) }()

	if s.fx.FailStart {
		return errors.Errorf("failed to start %s: device busy", s.fx.Name)
	}
	if s.gen != nil {
		return errors.Errorf("sensor %s already streaming", s.fx.Name)
	}
	for _, p := range profiles {
		if !slices.Contains(s.profiles, p) {
			return errors.Errorf("profile %s not supported by %s", p, s.fx.Name)
		}
	}
	s.gen = startGenerator(profiles, sink)
	return nil
}

func (s *Sensor) Stop() error {
	s.dev.backend.stops.Add(1)
	s.dev.backend.locks.LockKey(s.key())
	defer func() { _ = s.dev.backend.locks.UnlockKey(s.key()) }()

	if s.gen == nil {
		return errors.Errorf("sensor %s not streaming", s.fx.Name)
	}
	s.gen.stop()
	s.gen = nil
	return nil
}

// generator emits frames for each profile at its frame rate until stopped.
type generator struct {
	done chan struct{}
	wg   sync.WaitGroup
}

// defaultRate applies to profiles that leave the frame rate open.
const defaultRate = 30

func startGenerator(profiles []stream.Profile, sink device.FrameSink) *generator {
	g := &generator{done: make(chan struct{})}
	for _, p := range profiles {
		g.wg.Add(1)
		go g.run(p, sink)
	}
	return g
}

func (g *generator) run(p stream.Profile, sink device.FrameSink) {
	defer g.wg.Done()

	fps := p.FPS
	if fps <= 0 {
		fps = defaultRate
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	var index uint64
	for {
		select {
		case <-g.done:
			return
		case <-ticker.C:
			index++
			sink(stream.FrameSet{p.Stream: {
				Profile:   p,
				Index:     index,
				Timestamp: float64(index) * 1000 / float64(fps),
				Metadata: map[string]string{
					"frame_counter": strconv.FormatUint(index, 10),
					"source":        fmt.Sprintf("%s-%s", DriverName, p.Stream.Name()),
				},
			}})
		}
	}
}

func (g *generator) stop() {
	close(g.done)
	g.wg.Wait()
}
