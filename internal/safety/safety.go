// Package safety holds the safety-camera configuration: presets describing the
// protected zones and the interface config mapping safety signals to I/O pins.
package safety

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

// MaxPresets is the number of preset slots a safety camera stores.
const MaxPresets = 64

type ZoneType string

const (
	ZoneDanger  ZoneType = "danger"
	ZoneWarning ZoneType = "warning"
)

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Zone is a protected area on the floor plane, given as a quadrilateral in robot
// coordinates (meters).
type Zone struct {
	Type   ZoneType `json:"type"`
	Points [4]Point `json:"points"`
}

// Platform describes how the camera is mounted on the robot.
type Platform struct {
	RobotHeight float64       `json:"robot_height"`
	Rotation    [3][3]float64 `json:"rotation"`
	Translation [3]float64    `json:"translation"`
}

type Environment struct {
	SafetyTriggerDuration float64 `json:"safety_trigger_duration"`
	MinFloorClearance     float64 `json:"min_floor_clearance"`
	SurfaceHeight         float64 `json:"surface_height"`
	SurfaceInclination    float64 `json:"surface_inclination"`
}

// Preset is one stored safety configuration.
type Preset struct {
	Platform    Platform    `json:"platform"`
	Zones       []Zone      `json:"zones"`
	Environment Environment `json:"environment"`
}

type PinDirection string

const (
	PinInput  PinDirection = "input"
	PinOutput PinDirection = "output"
)

type PinMapping struct {
	Pin       int          `json:"pin"`
	Direction PinDirection `json:"direction"`
	Function  string       `json:"function"`
}

// InterfaceConfig maps safety signals to the camera's I/O connector.
type InterfaceConfig struct {
	Pins                   []PinMapping `json:"pins"`
	GPIOStabilizationMs    int          `json:"gpio_stabilization_ms"`
	ZoneSelectionOverlapMs int          `json:"zone_selection_overlap_ms"`
}

// ValidatePresetIndex checks a preset slot number.
func ValidatePresetIndex(index int) error {
	if index < 0 || index >= MaxPresets {
		return errors.Errorf("preset index %d out of range [0, %d)", index, MaxPresets)
	}
	return nil
}

// Validate checks the preset before it is written to a device.
func (p *Preset) Validate() error {
	if p.Platform.RobotHeight <= 0 {
		return errors.Errorf("robot height must be positive, got %v", p.Platform.RobotHeight)
	}
	seen := map[ZoneType]bool{}
	for i, z := range p.Zones {
		if z.Type != ZoneDanger && z.Type != ZoneWarning {
			return errors.Errorf("zone %d: unknown type %q", i, z.Type)
		}
		if seen[z.Type] {
			return errors.Errorf("zone %d: more than one %s zone", i, z.Type)
		}
		seen[z.Type] = true
		if distinctPoints(z.Points) < 3 {
			return errors.Errorf("zone %d: polygon needs at least three distinct points", i)
		}
	}
	if p.Environment.SafetyTriggerDuration < 0 {
		return errors.New("safety trigger duration must not be negative")
	}
	return nil
}

func distinctPoints(points [4]Point) int {
	seen := map[Point]struct{}{}
	for _, pt := range points {
		seen[pt] = struct{}{}
	}
	return len(seen)
}

// Validate checks the interface config before it is written to a device.
func (c *InterfaceConfig) Validate() error {
	pins := map[int]bool{}
	for _, m := range c.Pins {
		if pins[m.Pin] {
			return errors.Errorf("pin %d mapped more than once", m.Pin)
		}
		pins[m.Pin] = true
		if m.Direction != PinInput && m.Direction != PinOutput {
			return errors.Errorf("pin %d: direction must be %q or %q, got %q", m.Pin, PinInput, PinOutput, m.Direction)
		}
		if strings.TrimSpace(m.Function) == "" {
			return errors.Errorf("pin %d: missing function", m.Pin)
		}
	}
	if c.GPIOStabilizationMs < 0 || c.ZoneSelectionOverlapMs < 0 {
		return errors.New("timings must not be negative")
	}
	return nil
}

// ToJSON renders the preset as indented JSON.
func (p *Preset) ToJSON() ([]byte, error) {
	return marshal(p)
}

// ToJSON renders the interface config as indented JSON.
func (c *InterfaceConfig) ToJSON() ([]byte, error) {
	return marshal(c)
}

// PresetFromJSON decodes and validates a preset.
func PresetFromJSON(data []byte) (*Preset, error) {
	var p Preset
	if err := unmarshal(data, &p); err != nil {
		return nil, errors.Wrap(err, "failed to decode safety preset")
	}
	if err := p.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid safety preset")
	}
	return &p, nil
}

// InterfaceFromJSON decodes and validates an interface config.
func InterfaceFromJSON(data []byte) (*InterfaceConfig, error) {
	var c InterfaceConfig
	if err := unmarshal(data, &c); err != nil {
		return nil, errors.Wrap(err, "failed to decode safety interface config")
	}
	if err := c.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid safety interface config")
	}
	return &c, nil
}

func marshal(v interface{}) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func unmarshal(data []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
