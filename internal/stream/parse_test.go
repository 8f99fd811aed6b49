package stream

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProfile(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Profile
	}{
		{
			name:     "stream only",
			input:    "depth",
			expected: Profile{Stream: Depth, Resolution: AnyResolution, FPS: 0, Format: AnyFormat, Index: AnyIndex},
		},
		{
			name:     "fully concrete",
			input:    "depth-640x480-30-z16",
			expected: Profile{Stream: Depth, Resolution: Resolution{640, 480}, FPS: 30, Format: "Z16", Index: AnyIndex},
		},
		{
			name:     "any resolution with fps",
			input:    "depth-0x0-30",
			expected: Profile{Stream: Depth, Resolution: AnyResolution, FPS: 30, Format: AnyFormat, Index: AnyIndex},
		},
		{
			name:     "any fps with format",
			input:    "color-640x480-0-rgb8",
			expected: Profile{Stream: Color, Resolution: Resolution{640, 480}, FPS: 0, Format: "RGB8", Index: AnyIndex},
		},
		{
			name:     "infrared index derived",
			input:    "infrared2-1280x720",
			expected: Profile{Stream: Infrared2, Resolution: Resolution{1280, 720}, FPS: 0, Format: AnyFormat, Index: 2},
		},
		{
			name:     "explicit any format",
			input:    "gyro-0x0-200-any",
			expected: Profile{Stream: Gyro, Resolution: AnyResolution, FPS: 200, Format: AnyFormat, Index: AnyIndex},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParseProfile(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, p)
		})
	}
}

func TestParseProfileErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"fps without resolution", "depth-30"},
		{"unknown stream", "thermal-640x480"},
		{"non integer fps", "depth-640x480-fast"},
		{"negative fps", "depth-640x480--30"},
		{"malformed resolution", "depth-640by480"},
		{"half wildcard resolution", "depth-0x480-30"},
		{"too many segments", "depth-640x480-30-z16-extra"},
		{"trailing dash", "depth-"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseProfile(tt.input)
			require.Error(t, err)

			var parseErr *ProfileParseError
			require.True(t, errors.As(err, &parseErr), "expected ProfileParseError, got %T", err)
			assert.Equal(t, tt.input, parseErr.Input)
			assert.Contains(t, err.Error(), tt.input)
		})
	}
}

func TestParseProfileUnknownStreamUnwraps(t *testing.T) {
	_, err := ParseProfile("thermal")
	var unknown *UnknownStreamError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "thermal", unknown.Name)
}

func TestParseProfiles(t *testing.T) {
	profiles, err := ParseProfiles([]string{"depth", "color-640x480"})
	require.NoError(t, err)
	assert.Len(t, profiles, 2)

	_, err = ParseProfiles([]string{"depth", "depth-30", "color"})
	var parseErr *ProfileParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, "depth-30", parseErr.Input)
}
