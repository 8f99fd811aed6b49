package device_test

import (
	"testing"

	"github.com/babelcloud/rscli/internal/device"
	"github.com/babelcloud/rscli/internal/device/mock"
	"github.com/babelcloud/rscli/internal/safety"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockDefault mirrors the built-in fixture's layout with a safety camera added.
const mockDefault = `
devices:
  - name: Intel RealSense D435
    serial: "1234567890"
    firmware: 5.13.0.0
    connection: "3.2"
    sensors:
      - name: Stereo Module
        options:
          - {name: exposure, min: 1, max: 200000, step: 1, default: 8500}
          - {name: enable_auto_exposure, min: 0, max: 1, step: 1, default: 1}
          - {name: asic_temperature, min: -40, max: 125, read_only: true}
        profiles:
          - {stream: depth, width: 640, height: 480, fps: 30, format: z16}
          - {stream: infrared1, width: 640, height: 480, fps: 30, format: y8}
          - {stream: infrared2, width: 640, height: 480, fps: 30, format: y8}
      - name: RGB Camera
        options:
          - {name: brightness, min: -64, max: 64, step: 1, default: 0}
        profiles:
          - {stream: color, width: 640, height: 480, fps: 30, format: rgb8}
`

func TestListControlsFiltersReadOnly(t *testing.T) {
	r, _ := newRegistry(t, mockDefault)

	opts, err := r.ListControls(device.StereoModule)
	require.NoError(t, err)
	var names []string
	for _, o := range opts {
		names = append(names, o.Name)
	}
	assert.Equal(t, []string{"exposure", "enable_auto_exposure"}, names)
}

func TestGetControlValues(t *testing.T) {
	r, _ := newRegistry(t, mockDefault)

	values, err := r.GetControlValues(device.StereoModule, []string{"enable_auto_exposure", "exposure"})
	require.NoError(t, err)
	assert.Equal(t, []device.ControlValue{
		{Name: "enable_auto_exposure", Value: 1},
		{Name: "exposure", Value: 8500},
	}, values)

	all, err := r.GetControlValues(device.StereoModule, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = r.GetControlValues(device.StereoModule, []string{"laser_power"})
	var unsupported *device.UnsupportedControlError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "control 'laser_power' is not supported for sensor 'depth'", err.Error())
}

func TestSetControlValuesValidatesBeforeWriting(t *testing.T) {
	r, _ := newRegistry(t, mockDefault)

	err := r.SetControlValues(device.StereoModule, []device.ControlValue{
		{Name: "exposure", Value: 100},
		{Name: "laser_power", Value: 1},
	})
	var unsupported *device.UnsupportedControlError
	require.ErrorAs(t, err, &unsupported)

	err = r.SetControlValues(device.StereoModule, []device.ControlValue{
		{Name: "exposure", Value: 100},
		{Name: "enable_auto_exposure", Value: 2},
	})
	var outOfRange *device.ControlRangeError
	require.ErrorAs(t, err, &outOfRange)
	assert.Equal(t, "enable_auto_exposure", outOfRange.Control)

	err = r.SetControlValues(device.StereoModule, []device.ControlValue{{Name: "asic_temperature", Value: 10}})
	require.ErrorAs(t, err, &unsupported)

	values, err := r.GetControlValues(device.StereoModule, []string{"exposure"})
	require.NoError(t, err)
	assert.Equal(t, float64(8500), values[0].Value, "rejected request must not write")

	require.NoError(t, r.SetControlValues(device.StereoModule, []device.ControlValue{
		{Name: "exposure", Value: 100},
		{Name: "enable_auto_exposure", Value: 0},
	}))
	values, err = r.GetControlValues(device.StereoModule, nil)
	require.NoError(t, err)
	assert.Equal(t, []device.ControlValue{
		{Name: "exposure", Value: 100},
		{Name: "enable_auto_exposure", Value: 0},
	}, values)
}

const safetyDevice = `
devices:
  - name: Intel RealSense D585S
    serial: "585"
    firmware: 7.0.0.0
    connection: "3.2"
    sensors:
      - name: Stereo Module
        profiles:
          - {stream: depth, width: 1280, height: 720, fps: 30, format: z16}
      - name: Safety Camera
        profiles:
          - {stream: safety, fps: 30, format: raw8}
`

func TestSafety(t *testing.T) {
	r, _ := newRegistry(t, mockDefault)
	_, err := r.Safety()
	assert.ErrorIs(t, err, device.ErrSafetyUnsupported)

	r, _ = newRegistry(t, safetyDevice)
	sd, err := r.Safety()
	require.NoError(t, err)

	preset, err := sd.SafetyPreset(0)
	require.NoError(t, err)
	require.NoError(t, preset.Validate())

	_, err = sd.SafetyPreset(3)
	assert.ErrorContains(t, err, "empty")

	preset.Platform.RobotHeight = 2
	assert.ErrorContains(t, sd.SetSafetyPreset(3, preset), "service mode")

	require.NoError(t, sd.EnterServiceMode())
	require.NoError(t, sd.SetSafetyPreset(3, preset))
	require.NoError(t, sd.ExitServiceMode())
	assert.False(t, sd.(*mock.Device).InServiceMode())

	stored, err := sd.SafetyPreset(3)
	require.NoError(t, err)
	assert.Equal(t, 2.0, stored.Platform.RobotHeight)

	iface, err := sd.SafetyInterface()
	require.NoError(t, err)
	iface.Pins = []safety.PinMapping{{Pin: 1, Direction: safety.PinOutput, Function: "ossd1_a"}}
	require.NoError(t, sd.EnterServiceMode())
	require.NoError(t, sd.SetSafetyInterface(iface))
	got, err := sd.SafetyInterface()
	require.NoError(t, err)
	assert.Equal(t, iface, got)
}
