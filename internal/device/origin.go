package device

import (
	"github.com/babelcloud/rscli/internal/stream"
)

// FindOriginSensor maps each stream to the sensor that produces it. Sensors are
// visited in order and the first sensor advertising a stream wins, so a stream
// offered by several sensors is always attributed to the same one.
func FindOriginSensor(order []Sensor, catalogs map[Sensor][]stream.Profile) map[stream.Stream]Sensor {
	origins := make(map[stream.Stream]Sensor)
	for _, s := range order {
		for _, p := range catalogs[s] {
			if _, taken := origins[p.Stream]; !taken {
				origins[p.Stream] = s
			}
		}
	}
	return origins
}

// OriginMap returns the stream-to-sensor map of the active device. Sensors whose
// catalog cannot be read are left out.
func (r *Registry) OriginMap() (map[stream.Stream]Sensor, error) {
	d, err := r.Active()
	if err != nil {
		return nil, err
	}
	if d.origins != nil {
		return d.origins, nil
	}

	catalogs := make(map[Sensor][]stream.Profile, len(d.sensors))
	for _, s := range d.sensors {
		catalog, err := r.ListProfiles(s)
		if err != nil {
			continue
		}
		catalogs[s] = catalog
	}
	d.origins = FindOriginSensor(d.sensors, catalogs)
	return d.origins, nil
}

// OriginOf returns the sensor producing a stream on the active device.
func (r *Registry) OriginOf(s stream.Stream) (Sensor, error) {
	origins, err := r.OriginMap()
	if err != nil {
		return UnknownSensor, err
	}
	sensor, ok := origins[s]
	if !ok {
		d, _ := r.Active()
		return UnknownSensor, &UnsupportedStreamError{Stream: s, Serial: d.Serial()}
	}
	return sensor, nil
}
