package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pkg/errors"
)

// validateOutputFormat checks the value of an --output flag.
func validateOutputFormat(format string) error {
	switch format {
	case "text", "json":
		return nil
	}
	return errors.Errorf("invalid output format %q (valid formats: text, json)", format)
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal output")
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
