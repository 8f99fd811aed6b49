package cmd

import (
	"github.com/babelcloud/rscli/config"
	"github.com/babelcloud/rscli/internal/device"
	"github.com/babelcloud/rscli/internal/util"

	// camera drivers register themselves
	_ "github.com/babelcloud/rscli/internal/device/mock"
)

// openRegistry connects to the configured driver and selects the device named by
// --serial. Callers close the registry.
func openRegistry() (*device.Registry, error) {
	driver := config.GetDriver()
	backend, err := device.NewBackend(driver, device.BackendConfig{
		FixturesPath: config.GetFixturesPath(),
		FrameTimeout: config.GetWaitTimeout(),
	})
	if err != nil {
		return nil, err
	}

	registry, err := device.NewRegistry(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	if err := registry.SetActiveDevice(config.GetSerial()); err != nil {
		registry.Close()
		return nil, err
	}
	util.GetLogger().Debug("Device registry opened", "driver", driver, "devices", len(registry.QueryDevices()))
	return registry, nil
}

// withRegistry runs fn against an open registry.
func withRegistry(fn func(r *device.Registry) error) error {
	registry, err := openRegistry()
	if err != nil {
		return err
	}
	defer registry.Close()
	return fn(registry)
}

// parseSensors maps CLI sensor names, defaulting to every sensor of the active
// device.
func parseSensors(r *device.Registry, names []string) ([]device.Sensor, error) {
	if len(names) == 0 {
		return r.Sensors()
	}
	sensors := make([]device.Sensor, 0, len(names))
	for _, name := range names {
		s, err := device.ParseSensor(name)
		if err != nil {
			return nil, err
		}
		sensors = append(sensors, s)
	}
	return sensors, nil
}
