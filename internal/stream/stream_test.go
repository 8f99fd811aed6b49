package stream

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEveryStreamIsMapped(t *testing.T) {
	for _, s := range All {
		name, ok := cliNames.Get(s)
		require.True(t, ok, "stream %d has no CLI name", int(s))
		sdk, ok := sdkNames.Get(s)
		require.True(t, ok, "stream %d has no SDK name", int(s))

		parsed, err := ParseStream(name)
		require.NoError(t, err)
		assert.Equal(t, s, parsed)

		fromSDK, err := FromSDKName(sdk)
		require.NoError(t, err)
		assert.Equal(t, s, fromSDK)
	}
}

func TestParseStreamAliases(t *testing.T) {
	tests := []struct {
		input    string
		expected Stream
	}{
		{"infrared", Infrared1},
		{"IR1", Infrared1},
		{"ir2", Infrared2},
		{"Depth", Depth},
		{" color ", Color},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			s, err := ParseStream(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, s)
		})
	}

	_, err := ParseStream("thermal")
	var unknown *UnknownStreamError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "thermal", unknown.Name)
}

func TestNewProfileDefaultsIndex(t *testing.T) {
	assert.Equal(t, 1, Any(Infrared1).Index)
	assert.Equal(t, 2, Any(Infrared2).Index)
	assert.Equal(t, AnyIndex, Any(Depth).Index)
	assert.Equal(t, 0, NewProfile(Depth, AnyResolution, 0, "z16", 0).Index)
}

func TestNewProfileNormalizesFormat(t *testing.T) {
	assert.Equal(t, "Z16", NewProfile(Depth, AnyResolution, 0, "z16", AnyIndex).Format)
	assert.Equal(t, AnyFormat, NewProfile(Depth, AnyResolution, 0, "ANY", AnyIndex).Format)
	assert.Equal(t, AnyFormat, NewProfile(Depth, AnyResolution, 0, "", AnyIndex).Format)
}

func TestProfileStringRoundTrip(t *testing.T) {
	p := NewProfile(Color, Resolution{640, 480}, 30, "RGB8", AnyIndex)
	assert.Equal(t, "color-640x480-30-rgb8", p.String())

	parsed, err := ParseProfile(p.String())
	require.NoError(t, err)
	assert.Equal(t, p, parsed)
}

func TestWithDefaults(t *testing.T) {
	p := Any(Depth).WithDefaults(Resolution{848, 480}, 15)
	assert.Equal(t, Resolution{848, 480}, p.Resolution)
	assert.Equal(t, 15, p.FPS)

	fixed := NewProfile(Depth, Resolution{640, 480}, 30, AnyFormat, AnyIndex)
	assert.Equal(t, fixed, fixed.WithDefaults(Resolution{848, 480}, 15))
}

func TestFrameSetStreamsInPriorityOrder(t *testing.T) {
	fs := FrameSet{
		Color:     {Profile: Any(Color)},
		Gyro:      {Profile: Any(Gyro)},
		Depth:     {Profile: Any(Depth)},
		Infrared2: {Profile: Any(Infrared2)},
	}
	if diff := cmp.Diff([]Stream{Depth, Infrared2, Color, Gyro}, fs.Streams()); diff != "" {
		t.Errorf("Streams() mismatch (-want +got):\n%s", diff)
	}
}

func TestResolution(t *testing.T) {
	r, err := ParseResolution("1280x720")
	require.NoError(t, err)
	assert.Equal(t, Resolution{1280, 720}, r)
	assert.Equal(t, "1280x720", r.String())
	assert.Equal(t, 1280*720, r.Area())
	assert.True(t, AnyResolution.IsAny())

	for _, bad := range []string{"1280", "x720", "1280x", "-1x2", "axb", "1280x720x3"} {
		_, err := ParseResolution(bad)
		assert.Error(t, err, bad)
	}

	wildcard, err := ParseResolution("0x0")
	require.NoError(t, err)
	assert.True(t, wildcard.IsAny())

	for _, half := range []string{"0x480", "640x0"} {
		_, err := ParseResolution(half)
		assert.ErrorContains(t, err, "both be zero or both positive", half)
	}
}
