package mock

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/babelcloud/rscli/internal/device"
	"github.com/babelcloud/rscli/internal/stream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultFixture(t *testing.T) {
	f := DefaultFixture()
	require.Len(t, f.Devices, 1)

	d := f.Devices[0]
	assert.Equal(t, "1234567890", d.Serial)
	assert.Equal(t, "5.13.0.0", d.Firmware)
	require.Len(t, d.Sensors, 2)
	assert.Equal(t, "Stereo Module", d.Sensors[0].Name)
	assert.Len(t, d.Sensors[0].Profiles, 6)
	assert.Equal(t, "RGB Camera", d.Sensors[1].Name)
}

func TestLoadFixtureFormats(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"cam.toml": `
[[devices]]
name = "Intel RealSense L515"
serial = "f0000001"

[[devices.sensors]]
name = "Stereo Module"

[[devices.sensors.profiles]]
stream = "depth"
width = 1024
height = 768
fps = 30
format = "z16"
`,
		"cam.json": `{"devices":[{"name":"Intel RealSense L515","serial":"f0000001",
"sensors":[{"name":"Stereo Module","profiles":[{"stream":"depth","width":1024,"height":768,"fps":30,"format":"z16"}]}]}]}`,
		"cam.yml": `
devices:
  - name: Intel RealSense L515
    serial: f0000001
    sensors:
      - name: Stereo Module
        profiles:
          - {stream: depth, width: 1024, height: 768, fps: 30, format: z16}
`,
	}

	for name, content := range files {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

			f, err := LoadFixture(path)
			require.NoError(t, err)
			require.Len(t, f.Devices, 1)
			p, err := f.Devices[0].Sensors[0].Profiles[0].profile()
			require.NoError(t, err)
			assert.Equal(t, "depth-1024x768-30-z16", p.String())
		})
	}
}

func TestFixtureValidation(t *testing.T) {
	_, err := ParseFixture([]byte(`{"devices":[{"serial":"1"},{"serial":"1"}]}`), ".json")
	assert.ErrorContains(t, err, "duplicate serial")

	_, err = ParseFixture([]byte(`devices: [{serial: "1", sensors: [{name: x, profiles: [{stream: thermal}]}]}]`), ".yaml")
	assert.ErrorContains(t, err, "unknown stream")

	_, err = ParseFixture(nil, ".ini")
	assert.ErrorContains(t, err, "unsupported fixture format")
}

type collector struct {
	mu     sync.Mutex
	frames []stream.Frame
}

func (c *collector) sink(fs stream.FrameSet) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, f := range fs {
		c.frames = append(c.frames, f)
	}
}

func (c *collector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

func TestSensorStreaming(t *testing.T) {
	b := New(DefaultFixture())
	handles, err := b.Devices()
	require.NoError(t, err)
	stereo := handles[0].Sensors()[0]

	profiles, err := stereo.Profiles()
	require.NoError(t, err)
	depth30 := profiles[2]
	require.Equal(t, "depth-640x480-30-z16", depth30.String())

	var c collector
	require.NoError(t, stereo.Start([]stream.Profile{depth30}, c.sink))
	assert.Error(t, stereo.Start([]stream.Profile{depth30}, c.sink), "second start while streaming")

	assert.Eventually(t, func() bool { return c.count() >= 3 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, stereo.Stop())
	assert.Error(t, stereo.Stop())

	c.mu.Lock()
	first, second := c.frames[0], c.frames[1]
	c.mu.Unlock()
	assert.Equal(t, uint64(1), first.Index)
	assert.Equal(t, uint64(2), second.Index)
	assert.InDelta(t, 1000.0/30, second.Timestamp-first.Timestamp, 1e-9)

	assert.Equal(t, 2, b.Starts())
	assert.Equal(t, 2, b.Stops())
}

func TestStartRejectsForeignProfile(t *testing.T) {
	b := New(DefaultFixture())
	handles, _ := b.Devices()
	rgb := handles[0].Sensors()[1]

	depth := stream.NewProfile(stream.Depth, stream.Resolution{Width: 640, Height: 480}, 30, "z16", stream.AnyIndex)
	err := rgb.Start([]stream.Profile{depth}, func(stream.FrameSet) {})
	assert.ErrorContains(t, err, "not supported by RGB Camera")
}

func TestPipeline(t *testing.T) {
	b := New(DefaultFixture())
	handles, _ := b.Devices()
	dev := handles[0]

	depth := stream.NewProfile(stream.Depth, stream.Resolution{Width: 640, Height: 480}, 30, "z16", stream.AnyIndex)
	color := stream.NewProfile(stream.Color, stream.Resolution{Width: 640, Height: 480}, 30, "rgb8", stream.AnyIndex)

	var c collector
	require.NoError(t, dev.StartPipeline([]stream.Profile{depth, color}, c.sink))
	assert.Eventually(t, func() bool { return c.count() >= 4 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, dev.StopPipeline())
	assert.Error(t, dev.StopPipeline())
	assert.Equal(t, 1, b.PipelineStarts())
	assert.Equal(t, 2, b.PipelineStops())

	require.NoError(t, b.Close())
}

func TestFailStart(t *testing.T) {
	f := DefaultFixture()
	f.Devices[0].Sensors[1].FailStart = true
	b := New(f)
	handles, _ := b.Devices()

	color := stream.NewProfile(stream.Color, stream.Resolution{Width: 640, Height: 480}, 30, "rgb8", stream.AnyIndex)
	assert.ErrorContains(t, handles[0].Sensors()[1].Start([]stream.Profile{color}, func(stream.FrameSet) {}), "device busy")
	assert.ErrorContains(t, handles[0].StartPipeline([]stream.Profile{color}, func(stream.FrameSet) {}), "device busy")
}

func TestMissingInfo(t *testing.T) {
	f := DefaultFixture()
	f.Devices[0].MissingInfo = []string{"firmware"}
	handles, _ := New(f).Devices()

	_, err := handles[0].Info(device.InfoFirmware)
	assert.Error(t, err)
	name, err := handles[0].Info(device.InfoName)
	require.NoError(t, err)
	assert.Equal(t, "Intel RealSense D435", name)
}
