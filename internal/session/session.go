// Package session drives streaming on the active device. A session moves from
// Idle to Configured once every request resolved, to Streaming once the hardware
// started, and back to Idle on Stop.
package session

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/babelcloud/rscli/internal/device"
	"github.com/babelcloud/rscli/internal/stream"
	"github.com/babelcloud/rscli/internal/util"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ErrInvalidState is returned for an operation the current state does not allow.
var ErrInvalidState = errors.New("invalid session state")

type State int

const (
	Idle State = iota
	Configured
	Streaming
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Configured:
		return "configured"
	case Streaming:
		return "streaming"
	}
	return "unknown"
}

// Strategy selects how streams are started.
type Strategy int

const (
	// Pipeline starts every stream through the device's multiplexed pipeline.
	Pipeline Strategy = iota
	// Sensor opens each origin sensor directly.
	Sensor
)

func (s Strategy) String() string {
	if s == Sensor {
		return "sensor"
	}
	return "pipeline"
}

type Option func(*Session)

// WithLogger overrides the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

// Session is one play/stop cycle at a time on the registry's active device.
type Session struct {
	registry *device.Registry
	logger   *slog.Logger
	id       string

	mu       sync.Mutex
	state    State
	strategy Strategy
	resolved []stream.Profile
	handle   device.DeviceHandle
	started  []device.SensorHandle
	box      *mailbox
}

func New(registry *device.Registry, opts ...Option) *Session {
	s := &Session{
		registry: registry,
		id:       uuid.NewString(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = util.GetLogger()
	}
	s.logger = s.logger.With("session", s.id)
	return s
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Resolved returns the concrete profiles of the current play, in request order.
func (s *Session) Resolved() []stream.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]stream.Profile(nil), s.resolved...)
}

// Drops counts frames overwritten before the reader took them.
func (s *Session) Drops() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.box == nil {
		return 0
	}
	return s.box.Drops()
}

// Play resolves every request against its origin sensor's catalog and starts
// streaming. Nothing is started unless every request resolves. An empty request
// list asks for every stream the device produces.
func (s *Session) Play(ctx context.Context, requests []stream.Profile, strategy Strategy) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Idle {
		return errors.Wrapf(ErrInvalidState, "cannot play while %s", s.state)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := stream.CheckDuplicates(requests); err != nil {
		return err
	}

	active, err := s.registry.Active()
	if err != nil {
		return err
	}
	origins, err := s.registry.OriginMap()
	if err != nil {
		return err
	}
	if len(requests) == 0 {
		requests = WildcardRequests(origins)
	}

	resolved := make([]stream.Profile, 0, len(requests))
	bySensor := make(map[device.Sensor][]stream.Profile)
	for _, req := range requests {
		sensor, ok := origins[req.Stream]
		if !ok {
			return &stream.NoMatchingProfileError{
				Requested: req,
				Err:       &device.UnsupportedStreamError{Stream: req.Stream, Serial: active.Serial()},
			}
		}
		catalog, err := s.registry.ListProfiles(sensor)
		if err != nil {
			return err
		}
		p, err := stream.Resolve(req, catalog, sensor.SDKName())
		if err != nil {
			return err
		}
		resolved = append(resolved, p)
		bySensor[sensor] = append(bySensor[sensor], p)
	}

	s.state = Configured
	s.strategy = strategy
	s.resolved = resolved
	s.handle = active.Handle()
	s.box = newMailbox()
	s.logger.Debug("Session configured", "strategy", strategy.String(), "profiles", len(resolved))

	switch strategy {
	case Pipeline:
		if err := s.handle.StartPipeline(resolved, s.box.Publish); err != nil {
			s.reset()
			return errors.Wrap(err, "failed to start pipeline")
		}
	case Sensor:
		if err := s.startSensors(active.Sensors(), bySensor); err != nil {
			s.reset()
			return err
		}
	default:
		s.reset()
		return errors.Errorf("unknown strategy %d", strategy)
	}

	s.state = Streaming
	s.logger.Info("Streaming started", "serial", active.Serial(), "strategy", strategy.String())
	return nil
}

// startSensors starts sensors in enumeration order and stops those already
// started when one fails.
func (s *Session) startSensors(order []device.Sensor, bySensor map[device.Sensor][]stream.Profile) error {
	for _, kind := range order {
		profiles, ok := bySensor[kind]
		if !ok {
			continue
		}
		h, err := s.registry.GetSensor(kind)
		if err == nil {
			err = h.Start(profiles, s.box.Publish)
		}
		if err != nil {
			for i := len(s.started) - 1; i >= 0; i-- {
				if stopErr := s.started[i].Stop(); stopErr != nil {
					s.logger.Warn("Failed to stop sensor during rollback", "sensor", s.started[i].Name(), "error", stopErr)
				}
			}
			return errors.Wrapf(err, "failed to start %s", kind.SDKName())
		}
		s.started = append(s.started, h)
	}
	return nil
}

// WildcardRequests returns one unconstrained request per stream of the origin map,
// in priority order.
func WildcardRequests(origins map[stream.Stream]device.Sensor) []stream.Profile {
	streams := make([]stream.Stream, 0, len(origins))
	for st := range origins {
		streams = append(streams, st)
	}
	sort.Slice(streams, func(i, j int) bool {
		return streams[i].Priority() < streams[j].Priority()
	})
	requests := make([]stream.Profile, 0, len(streams))
	for _, st := range streams {
		requests = append(requests, stream.Any(st))
	}
	return requests
}

// WaitForFrameSet blocks until frames arrive, the timeout elapses or ctx is done.
// A timeout is not an error: it returns false with a nil error.
func (s *Session) WaitForFrameSet(ctx context.Context, timeout time.Duration) (stream.FrameSet, bool, error) {
	s.mu.Lock()
	state, box := s.state, s.box
	s.mu.Unlock()

	if state != Streaming {
		return nil, false, errors.Wrapf(ErrInvalidState, "cannot wait for frames while %s", state)
	}
	fs, ok, err := box.Take(ctx, timeout)
	if err == nil && !ok {
		s.logger.Debug("No frames within timeout", "timeout", timeout)
	}
	return fs, ok, err
}

// Stop stops whatever Play started. It is safe to call in any state and more
// than once; the session always ends Idle.
func (s *Session) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Idle {
		return nil
	}

	var err error
	if s.state == Streaming {
		switch s.strategy {
		case Pipeline:
			if stopErr := s.handle.StopPipeline(); stopErr != nil {
				err = errors.Wrap(stopErr, "failed to stop pipeline")
			}
		case Sensor:
			for i := len(s.started) - 1; i >= 0; i-- {
				if stopErr := s.started[i].Stop(); stopErr != nil {
					err = errors.Wrapf(stopErr, "failed to stop %s", s.started[i].Name())
				}
			}
		}
	}

	drops := s.box.Drops()
	s.reset()
	s.logger.Info("Streaming stopped", "dropped_frames", drops)
	return err
}

func (s *Session) reset() {
	if s.box != nil {
		s.box.Close()
	}
	s.state = Idle
	s.resolved = nil
	s.handle = nil
	s.started = nil
}
