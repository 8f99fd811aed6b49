package mock

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/babelcloud/rscli/internal/device"
	"github.com/babelcloud/rscli/internal/stream"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultFixture []byte

// Fixture describes the simulated hardware.
type Fixture struct {
	Devices []DeviceFixture `json:"devices" yaml:"devices" toml:"devices"`
}

type DeviceFixture struct {
	Name       string `json:"name" yaml:"name" toml:"name"`
	Serial     string `json:"serial" yaml:"serial" toml:"serial"`
	Firmware   string `json:"firmware" yaml:"firmware" toml:"firmware"`
	Connection string `json:"connection" yaml:"connection" toml:"connection"`
	// MissingInfo lists attributes ("name", "firmware", "connection") the device
	// fails to report.
	MissingInfo []string        `json:"missing_info" yaml:"missing_info" toml:"missing_info"`
	Sensors     []SensorFixture `json:"sensors" yaml:"sensors" toml:"sensors"`
}

type SensorFixture struct {
	Name string `json:"name" yaml:"name" toml:"name"`
	// FailStart makes every start involving this sensor fail.
	FailStart bool             `json:"fail_start" yaml:"fail_start" toml:"fail_start"`
	Options   []OptionFixture  `json:"options" yaml:"options" toml:"options"`
	Profiles  []ProfileFixture `json:"profiles" yaml:"profiles" toml:"profiles"`
}

type OptionFixture struct {
	Name        string  `json:"name" yaml:"name" toml:"name"`
	Description string  `json:"description" yaml:"description" toml:"description"`
	Min         float64 `json:"min" yaml:"min" toml:"min"`
	Max         float64 `json:"max" yaml:"max" toml:"max"`
	Step        float64 `json:"step" yaml:"step" toml:"step"`
	Default     float64 `json:"default" yaml:"default" toml:"default"`
	ReadOnly    bool    `json:"read_only" yaml:"read_only" toml:"read_only"`
}

type ProfileFixture struct {
	Stream string `json:"stream" yaml:"stream" toml:"stream"`
	Width  int    `json:"width" yaml:"width" toml:"width"`
	Height int    `json:"height" yaml:"height" toml:"height"`
	FPS    int    `json:"fps" yaml:"fps" toml:"fps"`
	Format string `json:"format" yaml:"format" toml:"format"`
	Index  *int   `json:"index" yaml:"index" toml:"index"`
}

func (o OptionFixture) option() device.Option {
	return device.Option{
		Name:        o.Name,
		Description: o.Description,
		Min:         o.Min,
		Max:         o.Max,
		Step:        o.Step,
		Default:     o.Default,
		ReadOnly:    o.ReadOnly,
	}
}

func (p ProfileFixture) profile() (stream.Profile, error) {
	s, err := stream.ParseStream(p.Stream)
	if err != nil {
		return stream.Profile{}, err
	}
	index := stream.AnyIndex
	if p.Index != nil {
		index = *p.Index
	}
	return stream.NewProfile(s, stream.Resolution{Width: p.Width, Height: p.Height}, p.FPS, p.Format, index), nil
}

// DefaultFixture returns the built-in D435 fixture.
func DefaultFixture() *Fixture {
	f, err := ParseFixture(defaultFixture, ".yaml")
	if err != nil {
		panic(err)
	}
	return f
}

// LoadFixture reads a fixture file. The format follows the file extension.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read fixture %s", path)
	}
	f, err := ParseFixture(data, filepath.Ext(path))
	if err != nil {
		return nil, errors.Wrapf(err, "invalid fixture %s", path)
	}
	return f, nil
}

// ParseFixture decodes a fixture in the format named by ext (".yaml", ".yml",
// ".toml" or ".json").
func ParseFixture(data []byte, ext string) (*Fixture, error) {
	var f Fixture
	var err error
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &f)
	case ".toml":
		err = toml.Unmarshal(data, &f)
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&f)
	default:
		return nil, errors.Errorf("unsupported fixture format %q", ext)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode fixture")
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks serials are unique and every profile names a known stream.
func (f *Fixture) Validate() error {
	serials := map[string]bool{}
	for i, d := range f.Devices {
		if d.Serial == "" {
			return errors.Errorf("device %d: missing serial", i)
		}
		if serials[d.Serial] {
			return errors.Errorf("device %d: duplicate serial %s", i, d.Serial)
		}
		serials[d.Serial] = true
		for _, s := range d.Sensors {
			if s.Name == "" {
				return errors.Errorf("device %s: sensor without name", d.Serial)
			}
			for _, p := range s.Profiles {
				if _, err := p.profile(); err != nil {
					return errors.Wrapf(err, "device %s sensor %s", d.Serial, s.Name)
				}
			}
		}
	}
	return nil
}
