package session

import (
	"context"
	"testing"
	"time"

	"github.com/babelcloud/rscli/internal/device"
	"github.com/babelcloud/rscli/internal/device/mock"
	"github.com/babelcloud/rscli/internal/stream"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(t *testing.T, f *mock.Fixture) (*Session, *mock.Backend) {
	t.Helper()
	backend := mock.New(f)
	registry, err := device.NewRegistry(backend)
	require.NoError(t, err)
	t.Cleanup(func() { _ = registry.Close() })
	return New(registry), backend
}

func parse(t *testing.T, literals ...string) []stream.Profile {
	t.Helper()
	profiles, err := stream.ParseProfiles(literals)
	require.NoError(t, err)
	return profiles
}

func TestPlayPipeline(t *testing.T) {
	s, backend := newSession(t, mock.DefaultFixture())
	ctx := context.Background()

	require.NoError(t, s.Play(ctx, parse(t, "depth", "color-0x0-15"), Pipeline))
	assert.Equal(t, Streaming, s.State())
	assert.Equal(t, 1, backend.PipelineStarts())
	assert.Equal(t, 0, backend.Starts())

	want := []string{"depth-640x480-6-z16", "color-640x480-15-rgb8"}
	var got []string
	for _, p := range s.Resolved() {
		got = append(got, p.String())
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("resolved profiles mismatch (-want +got):\n%s", diff)
	}

	fs, ok, err := s.WaitForFrameSet(ctx, 2*time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEmpty(t, fs.Streams())

	require.NoError(t, s.Stop())
	assert.Equal(t, Idle, s.State())
	assert.Equal(t, 1, backend.PipelineStops())
}

func TestPlaySensorStrategy(t *testing.T) {
	s, backend := newSession(t, mock.DefaultFixture())

	require.NoError(t, s.Play(context.Background(), parse(t, "color-640x480-30", "depth-640x480-30", "infrared1-640x480-30"), Sensor))
	// one start per origin sensor
	assert.Equal(t, 2, backend.Starts())
	assert.Equal(t, 0, backend.PipelineStarts())

	require.NoError(t, s.Stop())
	assert.Equal(t, 2, backend.Stops())
}

func TestPlayRejectsDuplicatesBeforeHardware(t *testing.T) {
	s, backend := newSession(t, mock.DefaultFixture())

	err := s.Play(context.Background(), parse(t, "depth", "color", "depth-640x480-30"), Sensor)
	var dup *stream.DuplicateStreamError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, []stream.Stream{stream.Depth}, dup.Streams)
	assert.Equal(t, Idle, s.State())
	assert.Equal(t, 0, backend.Starts())
	assert.Equal(t, 0, backend.PipelineStarts())
}

func TestPlayIsAllOrNothing(t *testing.T) {
	for _, strategy := range []Strategy{Pipeline, Sensor} {
		t.Run(strategy.String(), func(t *testing.T) {
			s, backend := newSession(t, mock.DefaultFixture())

			err := s.Play(context.Background(), parse(t, "depth", "color-1920x1080"), strategy)
			var noMatch *stream.NoMatchingProfileError
			require.ErrorAs(t, err, &noMatch)
			assert.Equal(t, "color-1920x1080-0-any", noMatch.Requested.String())
			assert.Equal(t, "RGB Camera", noMatch.Sensor)

			assert.Equal(t, Idle, s.State())
			assert.Empty(t, s.Resolved())
			assert.Equal(t, 0, backend.Starts())
			assert.Equal(t, 0, backend.PipelineStarts())
		})
	}
}

func TestPlayUnsupportedStream(t *testing.T) {
	for _, strategy := range []Strategy{Pipeline, Sensor} {
		t.Run(strategy.String(), func(t *testing.T) {
			s, backend := newSession(t, mock.DefaultFixture())

			err := s.Play(context.Background(), parse(t, "depth", "gyro"), strategy)
			var noMatch *stream.NoMatchingProfileError
			require.ErrorAs(t, err, &noMatch)
			assert.Equal(t, "gyro-0x0-0-any", noMatch.Requested.String())
			assert.Empty(t, noMatch.Sensor)

			var unsupported *device.UnsupportedStreamError
			assert.ErrorAs(t, err, &unsupported)

			assert.Equal(t, Idle, s.State())
			assert.Equal(t, 0, backend.Starts())
			assert.Equal(t, 0, backend.PipelineStarts())
		})
	}
}

func TestPlayEmptyRequestStartsEveryStream(t *testing.T) {
	s, _ := newSession(t, mock.DefaultFixture())

	require.NoError(t, s.Play(context.Background(), nil, Pipeline))
	defer s.Stop()

	var streams []stream.Stream
	for _, p := range s.Resolved() {
		streams = append(streams, p.Stream)
	}
	assert.Equal(t, []stream.Stream{stream.Depth, stream.Infrared1, stream.Infrared2, stream.Color}, streams)
}

func TestPlayWhileStreaming(t *testing.T) {
	s, _ := newSession(t, mock.DefaultFixture())
	ctx := context.Background()

	require.NoError(t, s.Play(ctx, parse(t, "depth"), Pipeline))
	defer s.Stop()
	assert.ErrorIs(t, s.Play(ctx, parse(t, "color"), Pipeline), ErrInvalidState)
}

func TestSensorStartFailureRollsBack(t *testing.T) {
	f := mock.DefaultFixture()
	f.Devices[0].Sensors[1].FailStart = true
	s, backend := newSession(t, f)

	err := s.Play(context.Background(), parse(t, "depth", "color"), Sensor)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to start RGB Camera")
	assert.Equal(t, Idle, s.State())

	// the stereo module was started and then stopped again
	assert.Equal(t, 2, backend.Starts())
	assert.Equal(t, 1, backend.Stops())

	require.NoError(t, s.Stop())
	assert.Equal(t, 1, backend.Stops())
}

func TestStopIsIdempotent(t *testing.T) {
	s, backend := newSession(t, mock.DefaultFixture())

	require.NoError(t, s.Stop())
	require.NoError(t, s.Play(context.Background(), parse(t, "depth", "color"), Sensor))
	require.NoError(t, s.Stop())
	require.NoError(t, s.Stop())

	assert.Equal(t, 2, backend.Stops())
	assert.Equal(t, Idle, s.State())
}

func TestWaitForFrameSet(t *testing.T) {
	s, _ := newSession(t, mock.DefaultFixture())

	_, _, err := s.WaitForFrameSet(context.Background(), time.Millisecond)
	assert.ErrorIs(t, err, ErrInvalidState)

	require.NoError(t, s.Play(context.Background(), parse(t, "depth-640x480-6"), Sensor))
	defer s.Stop()

	// a 6 fps stream delivers nothing within a few milliseconds of starting
	fs, ok, err := s.WaitForFrameSet(context.Background(), 5*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, fs)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, ok, err = s.WaitForFrameSet(ctx, time.Second)
	assert.False(t, ok)
	if err != nil {
		assert.ErrorIs(t, err, context.Canceled)
	}
}

func TestMailboxMergesAndCountsDrops(t *testing.T) {
	m := newMailbox()
	depth := stream.Frame{Profile: stream.Any(stream.Depth), Index: 1}
	color := stream.Frame{Profile: stream.Any(stream.Color), Index: 1}

	m.Publish(stream.FrameSet{stream.Depth: depth})
	m.Publish(stream.FrameSet{stream.Color: color})
	depth.Index = 2
	m.Publish(stream.FrameSet{stream.Depth: depth})

	fs, ok, err := m.Take(context.Background(), time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []stream.Stream{stream.Depth, stream.Color}, fs.Streams())
	assert.Equal(t, uint64(2), fs[stream.Depth].Index)
	assert.Equal(t, uint64(1), m.Drops())

	m.Close()
	m.Publish(stream.FrameSet{stream.Depth: depth})
	_, ok, err = m.Take(context.Background(), time.Second)
	require.NoError(t, err)
	assert.False(t, ok)
}
