package stream

import (
	"fmt"
	"strings"
)

const maxProfileSegments = 4

// ParseProfile parses STREAM[-RESOLUTION[-FPS[-FORMAT]]].
//
// Segments are positional: "depth-30" is rejected because the second segment must be a
// resolution. Omitted trailing segments become wildcards.
func ParseProfile(s string) (Profile, error) {
	fail := func(reason string, err error) (Profile, error) {
		return Profile{}, &ProfileParseError{Input: s, Reason: reason, Err: err}
	}

	if strings.TrimSpace(s) == "" {
		return fail("empty profile", nil)
	}

	parts := strings.Split(s, "-")
	if len(parts) > maxProfileSegments {
		return fail("too many segments, expected STREAM[-RESOLUTION[-FPS[-FORMAT]]]", nil)
	}
	for _, part := range parts {
		if part == "" {
			return fail("empty segment", nil)
		}
	}

	st, err := ParseStream(parts[0])
	if err != nil {
		return fail(fmt.Sprintf("unknown stream %q", parts[0]), err)
	}

	res := AnyResolution
	fps := AnyFPS
	format := AnyFormat

	if len(parts) > 1 {
		if res, err = ParseResolution(parts[1]); err != nil {
			return fail(err.Error(), err)
		}
	}
	if len(parts) > 2 {
		if fps, err = parseNonNegative(parts[2]); err != nil {
			return fail("fps "+err.Error(), err)
		}
	}
	if len(parts) > 3 {
		format = parts[3]
	}

	return NewProfile(st, res, fps, format, AnyIndex), nil
}

// ParseProfiles parses every literal, stopping at the first failure.
func ParseProfiles(literals []string) ([]Profile, error) {
	profiles := make([]Profile, 0, len(literals))
	for _, literal := range literals {
		p, err := ParseProfile(literal)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}
