package stream

// Matches reports whether candidate satisfies every constrained field of requested.
// The stream is never a wildcard.
func (requested Profile) Matches(candidate Profile) bool {
	if candidate.Stream != requested.Stream {
		return false
	}
	if !requested.Resolution.IsAny() && candidate.Resolution != requested.Resolution {
		return false
	}
	if requested.FPS != AnyFPS && candidate.FPS != requested.FPS {
		return false
	}
	if requested.Format != AnyFormat && normalizeFormat(candidate.Format) != normalizeFormat(requested.Format) {
		return false
	}
	if requested.Index >= 0 && candidate.Index != requested.Index {
		return false
	}
	return true
}

// Match returns the first profile of catalog, in enumeration order, that satisfies
// requested. It is first-match rather than best-match, so the result only depends on the
// catalog order.
func Match(requested Profile, catalog []Profile) (Profile, bool) {
	for _, candidate := range catalog {
		if requested.Matches(candidate) {
			return candidate, true
		}
	}
	return Profile{}, false
}

// Resolve is Match returning a NoMatchingProfileError naming the sensor on failure.
func Resolve(requested Profile, catalog []Profile, sensor string) (Profile, error) {
	if p, ok := Match(requested, catalog); ok {
		return p, nil
	}
	return Profile{}, &NoMatchingProfileError{Requested: requested, Sensor: sensor}
}

// CheckDuplicates rejects a request list naming the same stream twice.
func CheckDuplicates(requests []Profile) error {
	seen := make(map[Stream]int, len(requests))
	var dups []Stream
	for _, p := range requests {
		seen[p.Stream]++
		if seen[p.Stream] == 2 {
			dups = append(dups, p.Stream)
		}
	}
	if len(dups) > 0 {
		return &DuplicateStreamError{Streams: dups}
	}
	return nil
}
