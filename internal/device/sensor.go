package device

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vishalkuo/bimap"
)

// Sensor is a logical sensor kind of a camera.
type Sensor int

const (
	UnknownSensor Sensor = iota
	StereoModule
	RGBCamera
	MotionModule
	SafetyCamera
	DepthMapping
)

// AllSensors lists every known sensor kind.
var AllSensors = []Sensor{StereoModule, RGBCamera, MotionModule, SafetyCamera, DepthMapping}

var (
	sensorCLINames = bimap.NewBiMap[Sensor, string]()
	sensorSDKNames = bimap.NewBiMap[Sensor, string]()

	sensorCLIAliases = map[string]Sensor{
		"stereo": StereoModule,
		"rgb":    RGBCamera,
	}
	// older firmware reports the colour sensor under a different name
	sensorSDKAliases = map[string]Sensor{
		"RGB Sensor": RGBCamera,
	}
)

func init() {
	for s, names := range map[Sensor][2]string{
		StereoModule: {"depth", "Stereo Module"},
		RGBCamera:    {"color", "RGB Camera"},
		MotionModule: {"motion", "Motion Module"},
		SafetyCamera: {"safety", "Safety Camera"},
		DepthMapping: {"mapping", "Depth Mapping Camera"},
	} {
		sensorCLINames.Insert(s, names[0])
		sensorSDKNames.Insert(s, names[1])
	}
}

// ParseSensor maps a CLI sensor name to a Sensor.
func ParseSensor(name string) (Sensor, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if s, ok := sensorCLINames.GetInverse(key); ok {
		return s, nil
	}
	if s, ok := sensorCLIAliases[key]; ok {
		return s, nil
	}
	return UnknownSensor, fmt.Errorf("unknown sensor %q (valid sensors: %s)", name, strings.Join(SensorNames(), ", "))
}

// SensorFromSDKName maps the name reported by the SDK to a Sensor.
func SensorFromSDKName(name string) (Sensor, bool) {
	if s, ok := sensorSDKNames.GetInverse(name); ok {
		return s, true
	}
	s, ok := sensorSDKAliases[name]
	return s, ok
}

// SensorNames returns the CLI names of all sensor kinds.
func SensorNames() []string {
	names := make([]string, 0, len(AllSensors))
	for _, s := range AllSensors {
		names = append(names, s.Name())
	}
	sort.Strings(names)
	return names
}

// Name returns the CLI name.
func (s Sensor) Name() string {
	if name, ok := sensorCLINames.Get(s); ok {
		return name
	}
	return fmt.Sprintf("sensor(%d)", int(s))
}

// SDKName returns the name the SDK reports for the sensor.
func (s Sensor) SDKName() string {
	if name, ok := sensorSDKNames.Get(s); ok {
		return name
	}
	return fmt.Sprintf("Sensor(%d)", int(s))
}

func (s Sensor) String() string {
	return s.SDKName()
}
