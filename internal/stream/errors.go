package stream

import (
	"fmt"
	"strings"
)

// UnknownStreamError reports a stream name with no mapping.
type UnknownStreamError struct {
	Name string
}

func (e *UnknownStreamError) Error() string {
	return fmt.Sprintf("unknown stream %q (valid streams: %s)", e.Name, strings.Join(Names(), ", "))
}

// ProfileParseError reports a malformed profile literal.
type ProfileParseError struct {
	Input  string
	Reason string
	Err    error
}

func (e *ProfileParseError) Error() string {
	return fmt.Sprintf("invalid profile %q: %s", e.Input, e.Reason)
}

func (e *ProfileParseError) Unwrap() error {
	return e.Err
}

// NoMatchingProfileError reports that no advertised profile satisfies a request.
// Sensor is empty when no sensor of the device produces the stream; Err then
// carries the cause.
type NoMatchingProfileError struct {
	Requested Profile
	Sensor    string
	Err       error
}

func (e *NoMatchingProfileError) Error() string {
	switch {
	case e.Sensor != "":
		return fmt.Sprintf("no matching profile for %s on sensor %q", e.Requested, e.Sensor)
	case e.Err != nil:
		return fmt.Sprintf("no matching profile for %s: %v", e.Requested, e.Err)
	}
	return fmt.Sprintf("no matching profile for %s", e.Requested)
}

func (e *NoMatchingProfileError) Unwrap() error {
	return e.Err
}

// DuplicateStreamError reports streams requested more than once.
type DuplicateStreamError struct {
	Streams []Stream
}

func (e *DuplicateStreamError) Error() string {
	names := make([]string, 0, len(e.Streams))
	for _, s := range e.Streams {
		names = append(names, s.Name())
	}
	return fmt.Sprintf("duplicate streams requested: %s", strings.Join(names, ", "))
}
