package stream

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stereoCatalog() []Profile {
	return []Profile{
		NewProfile(Depth, Resolution{640, 480}, 6, "z16", 0),
		NewProfile(Depth, Resolution{640, 480}, 15, "z16", 0),
		NewProfile(Depth, Resolution{640, 480}, 30, "z16", 0),
		NewProfile(Depth, Resolution{1280, 720}, 30, "z16", 0),
		NewProfile(Infrared1, Resolution{640, 480}, 15, "y8", 1),
		NewProfile(Infrared1, Resolution{640, 480}, 30, "y8", 1),
		NewProfile(Infrared2, Resolution{640, 480}, 30, "y8", 2),
		NewProfile(Infrared1, Resolution{640, 480}, 30, "y16", 1),
	}
}

func TestMatchFirstCandidateWins(t *testing.T) {
	catalog := stereoCatalog()
	tests := []struct {
		name     string
		request  Profile
		expected Profile
	}{
		{"all wildcards", Any(Depth), catalog[0]},
		{"fps only", NewProfile(Depth, AnyResolution, 30, AnyFormat, AnyIndex), catalog[2]},
		{"resolution only", NewProfile(Depth, Resolution{1280, 720}, 0, AnyFormat, AnyIndex), catalog[3]},
		{"format lower case", NewProfile(Infrared1, AnyResolution, 0, "y16", AnyIndex), catalog[7]},
		{"infrared2 by index", Any(Infrared2), catalog[6]},
		{"fully concrete", NewProfile(Infrared1, Resolution{640, 480}, 30, "Y8", 1), catalog[5]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Match(tt.request, catalog)
			require.True(t, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestMatchHonoursEveryConstrainedField(t *testing.T) {
	catalog := stereoCatalog()
	requests := []Profile{
		Any(Depth),
		NewProfile(Depth, AnyResolution, 15, AnyFormat, AnyIndex),
		NewProfile(Infrared1, Resolution{640, 480}, 0, "Y16", AnyIndex),
		NewProfile(Infrared2, AnyResolution, 30, AnyFormat, 2),
		NewProfile(Color, AnyResolution, 0, AnyFormat, AnyIndex),
		NewProfile(Depth, Resolution{1920, 1080}, 0, AnyFormat, AnyIndex),
	}

	for _, req := range requests {
		got, ok := Match(req, catalog)
		if !ok {
			for _, candidate := range catalog {
				assert.False(t, req.Matches(candidate), "%s matches %s but Match reported none", req, candidate)
			}
			continue
		}
		assert.Equal(t, req.Stream, got.Stream)
		if !req.Resolution.IsAny() {
			assert.Equal(t, req.Resolution, got.Resolution)
		}
		if req.FPS != AnyFPS {
			assert.Equal(t, req.FPS, got.FPS)
		}
		if req.Format != AnyFormat {
			assert.Equal(t, req.Format, got.Format)
		}
		if req.Index >= 0 {
			assert.Equal(t, req.Index, got.Index)
		}
	}
}

func TestMatchIsDeterministic(t *testing.T) {
	catalog := stereoCatalog()
	req := NewProfile(Infrared1, AnyResolution, 30, AnyFormat, AnyIndex)
	first, ok := Match(req, catalog)
	require.True(t, ok)
	for i := 0; i < 10; i++ {
		again, _ := Match(req, catalog)
		assert.Equal(t, first, again)
	}
}

func TestResolveReportsRequestAndSensor(t *testing.T) {
	catalog := stereoCatalog()

	tests := []struct {
		name    string
		request Profile
	}{
		{"stream absent from catalog", Any(Color)},
		{"unsupported fps", NewProfile(Depth, AnyResolution, 90, AnyFormat, AnyIndex)},
		{"unsupported format", NewProfile(Depth, AnyResolution, 0, "rgb8", AnyIndex)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(tt.request, catalog, "Stereo Module")
			var noMatch *NoMatchingProfileError
			require.True(t, errors.As(err, &noMatch))
			assert.Equal(t, tt.request, noMatch.Requested)
			assert.Equal(t, "Stereo Module", noMatch.Sensor)
		})
	}
}

func TestCheckDuplicates(t *testing.T) {
	assert.NoError(t, CheckDuplicates([]Profile{Any(Depth), Any(Infrared1), Any(Infrared2)}))

	err := CheckDuplicates([]Profile{
		Any(Depth),
		NewProfile(Depth, Resolution{640, 480}, 30, AnyFormat, AnyIndex),
		Any(Color),
		Any(Color),
		Any(Depth),
	})
	var dup *DuplicateStreamError
	require.True(t, errors.As(err, &dup))
	if diff := cmp.Diff([]Stream{Depth, Color}, dup.Streams); diff != "" {
		t.Errorf("duplicate streams mismatch (-want +got):\n%s", diff)
	}
}
