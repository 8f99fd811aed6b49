package stream

import "sort"

// Family is a set of profiles identical except for the frame rate.
type Family struct {
	Profile Profile // FPS is always AnyFPS
	FPS     []int
}

// SortProfiles orders profiles by stream priority, resolution area, format and frame
// rate. The sort is stable so equal keys keep their enumeration order.
func SortProfiles(profiles []Profile) []Profile {
	sorted := make([]Profile, len(profiles))
	copy(sorted, profiles)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Stream.Priority() != b.Stream.Priority() {
			return a.Stream.Priority() < b.Stream.Priority()
		}
		if a.Resolution.Area() != b.Resolution.Area() {
			return a.Resolution.Area() < b.Resolution.Area()
		}
		if a.Format != b.Format {
			return a.Format < b.Format
		}
		return a.FPS < b.FPS
	})
	return sorted
}

// GroupByFamily buckets profiles that differ only by frame rate, for display.
// Families come out in SortProfiles order with ascending frame rates.
func GroupByFamily(profiles []Profile) []Family {
	var families []Family
	index := make(map[Profile]int)
	for _, p := range SortProfiles(profiles) {
		key := p.Family()
		i, ok := index[key]
		if !ok {
			i = len(families)
			index[key] = i
			families = append(families, Family{Profile: key})
		}
		families[i].FPS = append(families[i].FPS, p.FPS)
	}
	return families
}
