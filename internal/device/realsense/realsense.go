//go:build realsense

// Package realsense drives cameras through librealsense2. Import it for its side
// effect of registering the "realsense" driver.
package realsense

/*
#cgo linux darwin LDFLAGS: -L/usr/local/lib/ -lrealsense2
#cgo CPPFLAGS: -I/usr/local/include
#include <stdlib.h>
#include <librealsense2/rs.h>
#include <librealsense2/h/rs_pipeline.h>
#include <librealsense2/h/rs_option.h>
#include <librealsense2/h/rs_frame.h>
*/
import "C"

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
	"unsafe"

	"github.com/babelcloud/rscli/internal/device"
	"github.com/babelcloud/rscli/internal/stream"
	"github.com/babelcloud/rscli/internal/util"
	"github.com/pkg/errors"
)

// DriverName is the name the backend registers under.
const DriverName = "realsense"

const (
	defaultTimeout = time.Second
	queueCapacity  = 1
)

func init() {
	device.RegisterDriver(DriverName, func(cfg device.BackendConfig) (device.Backend, error) {
		return New(cfg.FrameTimeout)
	})
}

func errorFrom(err *C.rs2_error) error {
	if err == nil {
		return nil
	}
	defer C.rs2_free_error(err)
	return errors.Errorf("%s(%s): %s",
		C.GoString(C.rs2_get_failed_function(err)),
		C.GoString(C.rs2_get_failed_args(err)),
		C.GoString(C.rs2_get_error_message(err)))
}

// Backend owns the SDK context and every device handle created from it.
type Backend struct {
	ctx     *C.rs2_context
	list    *C.rs2_device_list
	timeout time.Duration
	devices []*Device
}

// New creates an SDK context. A zero timeout polls frames once per second.
func New(timeout time.Duration) (*Backend, error) {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	var e *C.rs2_error
	ctx := C.rs2_create_context(C.RS2_API_VERSION, &e)
	if e != nil {
		return nil, errorFrom(e)
	}
	return &Backend{ctx: ctx, timeout: timeout}, nil
}

// Devices enumerates connected cameras once. Later calls return the same handles.
func (b *Backend) Devices() ([]device.DeviceHandle, error) {
	if b.list == nil {
		var e *C.rs2_error
		list := C.rs2_query_devices(b.ctx, &e)
		if e != nil {
			return nil, errorFrom(e)
		}
		b.list = list

		count := C.rs2_get_device_count(list, &e)
		if e != nil {
			return nil, errorFrom(e)
		}
		for i := 0; i < int(count); i++ {
			dev := C.rs2_create_device(list, C.int(i), &e)
			if e != nil {
				util.GetLogger().Warn("Failed to open device", "index", i, "error", errorFrom(e))
				e = nil
				continue
			}
			b.devices = append(b.devices, newDevice(b, dev))
		}
	}

	handles := make([]device.DeviceHandle, 0, len(b.devices))
	for _, d := range b.devices {
		handles = append(handles, d)
	}
	return handles, nil
}

func (b *Backend) Close() error {
	for _, d := range b.devices {
		d.release()
	}
	b.devices = nil
	if b.list != nil {
		C.rs2_delete_device_list(b.list)
		b.list = nil
	}
	if b.ctx != nil {
		C.rs2_delete_context(b.ctx)
		b.ctx = nil
	}
	return nil
}

// Device wraps an rs2_device and its sensors.
type Device struct {
	backend *Backend
	dev     *C.rs2_device
	sensors []*Sensor

	mu       sync.Mutex
	pipeline *C.rs2_pipeline
	config   *C.rs2_config
	profile  *C.rs2_pipeline_profile
	poller   *poller
}

func newDevice(b *Backend, dev *C.rs2_device) *Device {
	d := &Device{backend: b, dev: dev}

	var e *C.rs2_error
	list := C.rs2_query_sensors(dev, &e)
	if e != nil {
		util.GetLogger().Warn("Failed to query sensors", "error", errorFrom(e))
		return d
	}
	defer C.rs2_delete_sensor_list(list)

	count := C.rs2_get_sensors_count(list, &e)
	if e != nil {
		util.GetLogger().Warn("Failed to count sensors", "error", errorFrom(e))
		return d
	}
	for i := 0; i < int(count); i++ {
		s := C.rs2_create_sensor(list, C.int(i), &e)
		if e != nil {
			util.GetLogger().Warn("Failed to open sensor", "index", i, "error", errorFrom(e))
			e = nil
			continue
		}
		d.sensors = append(d.sensors, &Sensor{device: d, sensor: s})
	}
	return d
}

var infoFields = map[device.InfoField]C.rs2_camera_info{
	device.InfoName:       C.RS2_CAMERA_INFO_NAME,
	device.InfoSerial:     C.RS2_CAMERA_INFO_SERIAL_NUMBER,
	device.InfoFirmware:   C.RS2_CAMERA_INFO_FIRMWARE_VERSION,
	device.InfoConnection: C.RS2_CAMERA_INFO_USB_TYPE_DESCRIPTOR,
}

func (d *Device) Info(field device.InfoField) (string, error) {
	info, ok := infoFields[field]
	if !ok {
		return "", errors.Errorf("unknown info field %s", field)
	}
	var e *C.rs2_error
	supported := C.rs2_supports_device_info(d.dev, info, &e)
	if e != nil {
		return "", errorFrom(e)
	}
	if supported == 0 {
		return "", errors.Errorf("device does not report %s", field)
	}
	value := C.rs2_get_device_info(d.dev, info, &e)
	if e != nil {
		return "", errorFrom(e)
	}
	return C.GoString(value), nil
}

func (d *Device) Sensors() []device.SensorHandle {
	handles := make([]device.SensorHandle, 0, len(d.sensors))
	for _, s := range d.sensors {
		handles = append(handles, s)
	}
	return handles
}

// StartPipeline enables the profiles on this device only and polls composite frames.
func (d *Device) StartPipeline(profiles []stream.Profile, sink device.FrameSink) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pipeline != nil {
		return errors.New("pipeline already started")
	}

	serial, err := d.Info(device.InfoSerial)
	if err != nil {
		return err
	}

	var e *C.rs2_error
	config := C.rs2_create_config(&e)
	if e != nil {
		return errorFrom(e)
	}
	cserial := C.CString(serial)
	defer C.free(unsafe.Pointer(cserial))
	C.rs2_config_enable_device(config, cserial, &e)
	if e != nil {
		C.rs2_delete_config(config)
		return errorFrom(e)
	}
	for _, p := range profiles {
		s, format, err := d.lookup(p)
		if err != nil {
			C.rs2_delete_config(config)
			return err
		}
		index := p.Index
		if index < 0 {
			index = -1
		}
		C.rs2_config_enable_stream(config, s, C.int(index), C.int(p.Resolution.Width), C.int(p.Resolution.Height), format, C.int(p.FPS), &e)
		if e != nil {
			C.rs2_delete_config(config)
			return errorFrom(e)
		}
	}

	pipeline := C.rs2_create_pipeline(d.backend.ctx, &e)
	if e != nil {
		C.rs2_delete_config(config)
		return errorFrom(e)
	}
	profile := C.rs2_pipeline_start_with_config(pipeline, config, &e)
	if e != nil {
		C.rs2_delete_pipeline(pipeline)
		C.rs2_delete_config(config)
		return errorFrom(e)
	}

	d.pipeline, d.config, d.profile = pipeline, config, profile
	timeout := C.uint(d.backend.timeout.Milliseconds())
	d.poller = startPoller(sink, func() (*C.rs2_frame, error) {
		var e *C.rs2_error
		var frame *C.rs2_frame
		if C.rs2_pipeline_try_wait_for_frames(pipeline, &frame, timeout, &e) == 0 {
			return nil, errorFrom(e)
		}
		return frame, nil
	})
	return nil
}

func (d *Device) StopPipeline() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pipeline == nil {
		return errors.New("pipeline not started")
	}
	d.poller.stop()

	var e *C.rs2_error
	C.rs2_pipeline_stop(d.pipeline, &e)
	err := errorFrom(e)
	C.rs2_delete_pipeline_profile(d.profile)
	C.rs2_delete_config(d.config)
	C.rs2_delete_pipeline(d.pipeline)
	d.pipeline, d.config, d.profile, d.poller = nil, nil, nil, nil
	return err
}

// lookup finds the SDK stream and format of a resolved profile.
func (d *Device) lookup(p stream.Profile) (C.rs2_stream, C.rs2_format, error) {
	for _, s := range d.sensors {
		if entry, ok := s.catalog()[p]; ok {
			return entry.stream, entry.format, nil
		}
	}
	return 0, 0, errors.Errorf("profile %s is not supported by the device", p)
}

func (d *Device) release() {
	if d.pipeline != nil {
		if err := d.StopPipeline(); err != nil {
			util.GetLogger().Warn("Failed to stop pipeline", "error", err)
		}
	}
	for _, s := range d.sensors {
		s.release()
	}
	C.rs2_delete_device(d.dev)
}

type catalogEntry struct {
	profile *C.rs2_stream_profile
	stream  C.rs2_stream
	format  C.rs2_format
}

// Sensor wraps an rs2_sensor. Its profile list stays alive until the backend closes.
type Sensor struct {
	device *Device
	sensor *C.rs2_sensor

	once     sync.Once
	list     *C.rs2_stream_profile_list
	entries  map[stream.Profile]catalogEntry
	order    []stream.Profile
	loadErr  error
	mu       sync.Mutex
	queue    *C.rs2_frame_queue
	poller   *poller
	streamOn bool
}

func (s *Sensor) options() *C.rs2_options {
	return (*C.rs2_options)(unsafe.Pointer(s.sensor))
}

func (s *Sensor) Name() string {
	var e *C.rs2_error
	name := C.rs2_get_sensor_info(s.sensor, C.RS2_CAMERA_INFO_NAME, &e)
	if e != nil {
		util.GetLogger().Debug("Failed to read sensor name", "error", errorFrom(e))
		return ""
	}
	return C.GoString(name)
}

func (s *Sensor) load() {
	s.entries = map[stream.Profile]catalogEntry{}

	var e *C.rs2_error
	list := C.rs2_get_stream_profiles(s.sensor, &e)
	if e != nil {
		s.loadErr = errorFrom(e)
		return
	}
	s.list = list
	count := C.rs2_get_stream_profiles_count(list, &e)
	if e != nil {
		s.loadErr = errorFrom(e)
		return
	}
	for i := 0; i < int(count); i++ {
		raw := C.rs2_get_stream_profile(list, C.int(i), &e)
		if e != nil {
			util.GetLogger().Debug("Skipping stream profile", "index", i, "error", errorFrom(e))
			e = nil
			continue
		}
		p, entry, err := convertProfile(raw)
		if err != nil {
			util.GetLogger().Debug("Skipping stream profile", "index", i, "error", err)
			continue
		}
		if _, dup := s.entries[p]; dup {
			continue
		}
		s.entries[p] = entry
		s.order = append(s.order, p)
	}
}

func (s *Sensor) catalog() map[stream.Profile]catalogEntry {
	s.once.Do(s.load)
	return s.entries
}

func (s *Sensor) Profiles() ([]stream.Profile, error) {
	s.once.Do(s.load)
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return append([]stream.Profile(nil), s.order...), nil
}

// convertProfile maps an SDK stream profile to a Profile.
func convertProfile(raw *C.rs2_stream_profile) (stream.Profile, catalogEntry, error) {
	var e *C.rs2_error
	var (
		st              C.rs2_stream
		format          C.rs2_format
		index, uid, fps C.int
	)
	C.rs2_get_stream_profile_data(raw, &st, &format, &index, &uid, &fps, &e)
	if e != nil {
		return stream.Profile{}, catalogEntry{}, errorFrom(e)
	}

	kind, err := stream.FromSDKName(sdkStreamName(st, int(index)))
	if err != nil {
		return stream.Profile{}, catalogEntry{}, err
	}

	res := stream.AnyResolution
	if C.rs2_stream_profile_is(raw, C.RS2_EXTENSION_VIDEO_PROFILE, &e) != 0 {
		var w, h C.int
		C.rs2_get_video_stream_resolution(raw, &w, &h, &e)
		if e != nil {
			return stream.Profile{}, catalogEntry{}, errorFrom(e)
		}
		res = stream.Resolution{Width: int(w), Height: int(h)}
	} else if e != nil {
		return stream.Profile{}, catalogEntry{}, errorFrom(e)
	}

	p := stream.NewProfile(kind, res, int(fps), C.GoString(C.rs2_format_to_string(format)), int(index))
	return p, catalogEntry{profile: raw, stream: st, format: format}, nil
}

// sdkStreamName numbers infrared streams the way the SDK prints them.
func sdkStreamName(st C.rs2_stream, index int) string {
	name := C.GoString(C.rs2_stream_to_string(st))
	if st == C.RS2_STREAM_INFRARED && index > 0 {
		return name + " " + strconv.Itoa(index)
	}
	return name
}

func (s *Sensor) Options() ([]device.Option, error) {
	var e *C.rs2_error
	list := C.rs2_get_options_list(s.options(), &e)
	if e != nil {
		return nil, errorFrom(e)
	}
	defer C.rs2_delete_options_list(list)

	size := C.rs2_get_options_list_size(list, &e)
	if e != nil {
		return nil, errorFrom(e)
	}
	opts := make([]device.Option, 0, int(size))
	for i := 0; i < int(size); i++ {
		id := C.rs2_get_option_from_list(list, C.int(i), &e)
		if e != nil {
			return nil, errorFrom(e)
		}
		var min, max, step, def C.float
		C.rs2_get_option_range(s.options(), id, &min, &max, &step, &def, &e)
		if e != nil {
			util.GetLogger().Debug("Skipping option without range", "option", optionName(id), "error", errorFrom(e))
			e = nil
			continue
		}
		readOnly := C.rs2_is_option_read_only(s.options(), id, &e) != 0
		if e != nil {
			return nil, errorFrom(e)
		}
		var description string
		if d := C.rs2_get_option_description(s.options(), id, &e); e == nil {
			description = C.GoString(d)
		} else {
			errorFrom(e)
			e = nil
		}
		opts = append(opts, device.Option{
			Name:        optionName(id),
			Description: description,
			Min:         float64(min),
			Max:         float64(max),
			Step:        float64(step),
			Default:     float64(def),
			ReadOnly:    readOnly,
		})
	}
	return opts, nil
}

// optionName renders an SDK option id in snake case, e.g. "Enable Auto Exposure"
// becomes enable_auto_exposure.
func optionName(id C.rs2_option) string {
	name := strings.ToLower(C.GoString(C.rs2_option_to_string(id)))
	return strings.ReplaceAll(name, " ", "_")
}

func (s *Sensor) optionID(name string) (C.rs2_option, error) {
	for id := C.rs2_option(0); id < C.RS2_OPTION_COUNT; id++ {
		if optionName(id) != name {
			continue
		}
		var e *C.rs2_error
		supported := C.rs2_supports_option(s.options(), id, &e)
		if e != nil {
			return 0, errorFrom(e)
		}
		if supported != 0 {
			return id, nil
		}
	}
	return 0, errors.Errorf("option %s is not supported by %s", name, s.Name())
}

func (s *Sensor) GetOption(name string) (float64, error) {
	id, err := s.optionID(name)
	if err != nil {
		return 0, err
	}
	var e *C.rs2_error
	value := C.rs2_get_option(s.options(), id, &e)
	if e != nil {
		return 0, errorFrom(e)
	}
	return float64(value), nil
}

func (s *Sensor) SetOption(name string, value float64) error {
	id, err := s.optionID(name)
	if err != nil {
		return err
	}
	var e *C.rs2_error
	C.rs2_set_option(s.options(), id, C.float(value), &e)
	return errorFrom(e)
}

// Start opens the sensor with all profiles at once and polls its frame queue.
func (s *Sensor) Start(profiles []stream.Profile, sink device.FrameSink) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.streamOn {
		return errors.Errorf("%s is already streaming", s.Name())
	}

	catalog := s.catalog()
	raw := C.malloc(C.size_t(len(profiles)) * C.size_t(unsafe.Sizeof(uintptr(0))))
	defer C.free(raw)
	selected := unsafe.Slice((**C.rs2_stream_profile)(raw), len(profiles))
	for i, p := range profiles {
		entry, ok := catalog[p]
		if !ok {
			return errors.Errorf("profile %s is not supported by %s", p, s.Name())
		}
		selected[i] = entry.profile
	}

	var e *C.rs2_error
	C.rs2_open_multiple(s.sensor, (**C.rs2_stream_profile)(raw), C.int(len(profiles)), &e)
	if e != nil {
		return errorFrom(e)
	}
	queue := C.rs2_create_frame_queue(queueCapacity, &e)
	if e != nil {
		s.close()
		return errorFrom(e)
	}
	C.rs2_start_queue(s.sensor, queue, &e)
	if e != nil {
		C.rs2_delete_frame_queue(queue)
		s.close()
		return errorFrom(e)
	}

	s.queue, s.streamOn = queue, true
	timeout := C.uint(s.device.backend.timeout.Milliseconds())
	s.poller = startPoller(sink, func() (*C.rs2_frame, error) {
		var e *C.rs2_error
		var frame *C.rs2_frame
		if C.rs2_try_wait_for_frame(queue, timeout, &frame, &e) == 0 {
			return nil, errorFrom(e)
		}
		return frame, nil
	})
	return nil
}

func (s *Sensor) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.streamOn {
		return errors.Errorf("%s is not streaming", s.Name())
	}

	var e *C.rs2_error
	C.rs2_stop(s.sensor, &e)
	err := errorFrom(e)
	s.poller.stop()
	if closeErr := s.close(); err == nil {
		err = closeErr
	}
	C.rs2_delete_frame_queue(s.queue)
	s.queue, s.poller, s.streamOn = nil, nil, false
	return err
}

func (s *Sensor) close() error {
	var e *C.rs2_error
	C.rs2_close(s.sensor, &e)
	return errorFrom(e)
}

func (s *Sensor) release() {
	if s.streamOn {
		if err := s.Stop(); err != nil {
			util.GetLogger().Warn("Failed to stop sensor", "sensor", s.Name(), "error", err)
		}
	}
	if s.list != nil {
		C.rs2_delete_stream_profiles_list(s.list)
	}
	C.rs2_delete_sensor(s.sensor)
}

// poller moves frames from an SDK wait call to a sink on its own goroutine.
type poller struct {
	done chan struct{}
	wg   sync.WaitGroup
}

func startPoller(sink device.FrameSink, wait func() (*C.rs2_frame, error)) *poller {
	p := &poller{done: make(chan struct{})}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		for {
			select {
			case <-p.done:
				return
			default:
			}
			frame, err := wait()
			if err != nil {
				util.GetLogger().Debug("Frame wait failed", "error", err)
				continue
			}
			if frame == nil {
				continue
			}
			if fs := convertFrames(frame); len(fs) > 0 {
				sink(fs)
			}
			C.rs2_release_frame(frame)
		}
	}()
	return p
}

func (p *poller) stop() {
	close(p.done)
	p.wg.Wait()
}

// convertFrames flattens a single or composite frame into a frame set.
func convertFrames(frame *C.rs2_frame) stream.FrameSet {
	fs := stream.FrameSet{}
	var e *C.rs2_error
	if C.rs2_is_frame_extendable_to(frame, C.RS2_EXTENSION_COMPOSITE_FRAME, &e) == 0 {
		if f, err := convertFrame(frame); err == nil {
			fs[f.Profile.Stream] = f
		}
		return fs
	}

	count := C.rs2_embedded_frames_count(frame, &e)
	if e != nil {
		util.GetLogger().Debug("Failed to count frames", "error", errorFrom(e))
		return fs
	}
	for i := 0; i < int(count); i++ {
		inner := C.rs2_extract_frame(frame, C.int(i), &e)
		if e != nil {
			util.GetLogger().Debug("Failed to extract frame", "index", i, "error", errorFrom(e))
			e = nil
			continue
		}
		if f, err := convertFrame(inner); err == nil {
			fs[f.Profile.Stream] = f
		}
		C.rs2_release_frame(inner)
	}
	return fs
}

func convertFrame(frame *C.rs2_frame) (stream.Frame, error) {
	var e *C.rs2_error
	raw := C.rs2_get_frame_stream_profile(frame, &e)
	if e != nil {
		return stream.Frame{}, errorFrom(e)
	}
	p, _, err := convertProfile(raw)
	if err != nil {
		return stream.Frame{}, err
	}
	number := C.rs2_get_frame_number(frame, &e)
	if e != nil {
		return stream.Frame{}, errorFrom(e)
	}
	ts := C.rs2_get_frame_timestamp(frame, &e)
	if e != nil {
		return stream.Frame{}, errorFrom(e)
	}

	metadata := map[string]string{}
	domain := C.rs2_get_frame_timestamp_domain(frame, &e)
	if e == nil {
		metadata["timestamp_domain"] = C.GoString(C.rs2_timestamp_domain_to_string(domain))
	} else {
		errorFrom(e)
		e = nil
	}
	if C.rs2_supports_frame_metadata(frame, C.RS2_FRAME_METADATA_FRAME_COUNTER, &e) != 0 {
		counter := C.rs2_get_frame_metadata(frame, C.RS2_FRAME_METADATA_FRAME_COUNTER, &e)
		if e == nil {
			metadata["frame_counter"] = fmt.Sprint(int64(counter))
		}
	}
	if e != nil {
		errorFrom(e)
	}

	return stream.Frame{
		Profile:   p,
		Timestamp: float64(ts),
		Index:     uint64(number),
		Metadata:  metadata,
	}, nil
}
