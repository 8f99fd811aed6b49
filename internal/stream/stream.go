package stream

import (
	"fmt"
	"strings"

	"github.com/vishalkuo/bimap"
)

// Stream is a logical stream kind produced by a camera sensor.
// Declaration order doubles as the presentation priority.
type Stream int

const (
	Unknown Stream = iota
	Depth
	Infrared1
	Infrared2
	Color
	Gyro
	Accel
	Safety
	LabeledPointCloud
	Occupancy
)

// All lists every known stream in priority order.
var All = []Stream{
	Depth,
	Infrared1,
	Infrared2,
	Color,
	Gyro,
	Accel,
	Safety,
	LabeledPointCloud,
	Occupancy,
}

var (
	cliNames = bimap.NewBiMap[Stream, string]()
	sdkNames = bimap.NewBiMap[Stream, string]()

	// input-only spellings, never printed
	cliAliases = map[string]Stream{
		"infrared": Infrared1,
		"ir1":      Infrared1,
		"ir2":      Infrared2,
	}
)

func init() {
	for s, names := range map[Stream][2]string{
		Depth:             {"depth", "Depth"},
		Infrared1:         {"infrared1", "Infrared 1"},
		Infrared2:         {"infrared2", "Infrared 2"},
		Color:             {"color", "Color"},
		Gyro:              {"gyro", "Gyro"},
		Accel:             {"accel", "Accel"},
		Safety:            {"safety", "Safety"},
		LabeledPointCloud: {"lpcl", "Labeled Point Cloud"},
		Occupancy:         {"occupancy", "Occupancy"},
	} {
		cliNames.Insert(s, names[0])
		sdkNames.Insert(s, names[1])
	}
}

// ParseStream maps a CLI short name (case-insensitive) to a Stream.
func ParseStream(name string) (Stream, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if s, ok := cliNames.GetInverse(key); ok {
		return s, nil
	}
	if s, ok := cliAliases[key]; ok {
		return s, nil
	}
	return Unknown, &UnknownStreamError{Name: name}
}

// FromSDKName maps the name reported by the camera SDK to a Stream.
func FromSDKName(name string) (Stream, error) {
	if s, ok := sdkNames.GetInverse(name); ok {
		return s, nil
	}
	return Unknown, &UnknownStreamError{Name: name}
}

// Names returns the CLI short names of all streams in priority order.
func Names() []string {
	names := make([]string, 0, len(All))
	for _, s := range All {
		names = append(names, s.Name())
	}
	return names
}

// Name returns the CLI short name.
func (s Stream) Name() string {
	if name, ok := cliNames.Get(s); ok {
		return name
	}
	return fmt.Sprintf("stream(%d)", int(s))
}

// SDKName returns the name the camera SDK uses for the stream.
func (s Stream) SDKName() string {
	if name, ok := sdkNames.Get(s); ok {
		return name
	}
	return fmt.Sprintf("Stream(%d)", int(s))
}

func (s Stream) String() string {
	return s.SDKName()
}

// Priority orders streams for presentation, lower first.
func (s Stream) Priority() int {
	return int(s)
}

// IsVideo reports whether profiles of the stream carry a resolution.
func (s Stream) IsVideo() bool {
	switch s {
	case Depth, Infrared1, Infrared2, Color:
		return true
	}
	return false
}

// DefaultIndex is the sub-stream index a profile takes when none is requested.
func (s Stream) DefaultIndex() int {
	switch s {
	case Infrared1:
		return 1
	case Infrared2:
		return 2
	}
	return AnyIndex
}
