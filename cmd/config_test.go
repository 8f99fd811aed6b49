package cmd

import (
	"encoding/json"
	"testing"

	"github.com/babelcloud/rscli/internal/device"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigList(t *testing.T) {
	out, _, err := runCommand(t, "config", "list", "depth")
	require.NoError(t, err)
	assert.Contains(t, out, "Stereo Module controls")
	assert.Contains(t, out, "exposure")
	assert.NotContains(t, out, "asic_temperature")
}

func TestConfigGet(t *testing.T) {
	out, _, err := runCommand(t, "config", "get", "depth", "exposure", "-o", "json")
	require.NoError(t, err)
	var values []device.ControlValue
	require.NoError(t, json.Unmarshal([]byte(out), &values))
	require.Len(t, values, 1)
	assert.Equal(t, "exposure", values[0].Name)

	out, _, err = runCommand(t, "config", "get", "depth", "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "enable_auto_exposure")
	assert.Contains(t, out, "depth_units")

	_, _, err = runCommand(t, "config", "get", "color", "exposure")
	var unsupported *device.UnsupportedControlError
	assert.ErrorAs(t, err, &unsupported)
}

func TestConfigSet(t *testing.T) {
	out, _, err := runCommand(t, "config", "set", "depth", "exposure=5000", "enable_auto_exposure=0")
	require.NoError(t, err)
	assert.Contains(t, out, "5000")

	_, _, err = runCommand(t, "config", "set", "depth", "asic_temperature=1")
	assert.Error(t, err)

	_, _, err = runCommand(t, "config", "set", "depth", "exposure")
	assert.EqualError(t, err, "failed to parse control value pair: exposure")
}

func TestParseControlValues(t *testing.T) {
	values, err := parseControlValues([]string{"exposure=5000", " gain = 16 "})
	require.NoError(t, err)
	want := []device.ControlValue{{Name: "exposure", Value: 5000}, {Name: "gain", Value: 16}}
	if diff := cmp.Diff(want, values); diff != "" {
		t.Errorf("parsed values mismatch (-want +got):\n%s", diff)
	}

	_, err = parseControlValues([]string{"=1"})
	assert.Error(t, err)
	_, err = parseControlValues([]string{"exposure=high"})
	assert.Error(t, err)
	_, err = parseControlValues([]string{"gain=1", "gain=2"})
	assert.ErrorContains(t, err, "more than once")
}
