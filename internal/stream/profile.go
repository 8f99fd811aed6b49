package stream

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const (
	// AnyFPS leaves the frame rate unconstrained.
	AnyFPS = 0
	// AnyFormat leaves the pixel format unconstrained.
	AnyFormat = "any"
	// AnyIndex leaves the sub-stream index unconstrained.
	AnyIndex = -1
)

// AnyResolution leaves width and height unconstrained.
var AnyResolution = Resolution{}

// Resolution is a frame size in pixels.
type Resolution struct {
	Width  int `json:"width" yaml:"width" toml:"width"`
	Height int `json:"height" yaml:"height" toml:"height"`
}

// ParseResolution parses the WIDTHxHEIGHT form. 0x0 is the wildcard; a zero in
// only one dimension is rejected.
func ParseResolution(s string) (Resolution, error) {
	w, h, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return Resolution{}, fmt.Errorf("resolution %q is not WIDTHxHEIGHT", s)
	}
	width, err := parseNonNegative(w)
	if err != nil {
		return Resolution{}, fmt.Errorf("resolution %q: width: %v", s, err)
	}
	height, err := parseNonNegative(h)
	if err != nil {
		return Resolution{}, fmt.Errorf("resolution %q: height: %v", s, err)
	}
	if (width == 0) != (height == 0) {
		return Resolution{}, fmt.Errorf("resolution %q: width and height must both be zero or both positive", s)
	}
	return Resolution{Width: width, Height: height}, nil
}

func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// IsAny reports whether r is the 0x0 wildcard.
func (r Resolution) IsAny() bool {
	return r == AnyResolution
}

func (r Resolution) Area() int {
	return r.Width * r.Height
}

// Profile is a concrete or partially specified stream configuration.
// Zero FPS, the "any" format, a 0x0 resolution and a negative index are wildcards.
type Profile struct {
	Stream     Stream
	Resolution Resolution
	FPS        int
	Format     string
	Index      int
}

// NewProfile builds a normalized profile: the format is upper-cased unless it is the
// wildcard, and an unset index takes the stream's default.
func NewProfile(s Stream, res Resolution, fps int, format string, index int) Profile {
	if index < 0 {
		index = s.DefaultIndex()
	}
	return Profile{
		Stream:     s,
		Resolution: res,
		FPS:        fps,
		Format:     normalizeFormat(format),
		Index:      index,
	}
}

// Any returns a profile requesting the stream with every other field unconstrained.
func Any(s Stream) Profile {
	return NewProfile(s, AnyResolution, AnyFPS, AnyFormat, AnyIndex)
}

func normalizeFormat(format string) string {
	format = strings.TrimSpace(format)
	if format == "" || strings.EqualFold(format, AnyFormat) {
		return AnyFormat
	}
	return strings.ToUpper(format)
}

// Family returns the profile with its frame rate cleared. Profiles differing only by
// frame rate share a family.
func (p Profile) Family() Profile {
	p.FPS = AnyFPS
	return p
}

// WithDefaults fills a wildcard resolution or frame rate.
func (p Profile) WithDefaults(res Resolution, fps int) Profile {
	if p.Resolution.IsAny() {
		p.Resolution = res
	}
	if p.FPS == AnyFPS {
		p.FPS = fps
	}
	return p
}

// String renders the profile in the STREAM-RESOLUTION-FPS-FORMAT syntax accepted by
// ParseProfile.
func (p Profile) String() string {
	return fmt.Sprintf("%s-%s-%d-%s", p.Stream.Name(), p.Resolution, p.FPS, strings.ToLower(p.Format))
}

// Frame is one delivered frame tagged with the profile it was produced under.
type Frame struct {
	Profile   Profile
	Timestamp float64 // device clock, milliseconds
	Index     uint64
	Metadata  map[string]string
}

// FrameSet is one synchronized delivery tick. Streams may be missing.
type FrameSet map[Stream]Frame

// Streams returns the streams present in priority order.
func (fs FrameSet) Streams() []Stream {
	streams := make([]Stream, 0, len(fs))
	for s := range fs {
		streams = append(streams, s)
	}
	sort.Slice(streams, func(i, j int) bool {
		return streams[i].Priority() < streams[j].Priority()
	})
	return streams
}

func parseNonNegative(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%q is not an integer", s)
	}
	if n < 0 {
		return 0, fmt.Errorf("%q is negative", s)
	}
	return n, nil
}
