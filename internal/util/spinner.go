package util

import (
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"
)

// UISpinner shows progress on a terminal. In plain mode it prints the messages as
// lines instead, which keeps logs and piped output readable.
type UISpinner struct {
	sp    *spinner.Spinner
	out   io.Writer
	plain bool
}

// NewUISpinner starts a spinner with the given message.
func NewUISpinner(out io.Writer, plain bool, message string) *UISpinner {
	s := &UISpinner{out: out, plain: plain}

	if plain {
		fmt.Fprintln(out, message)
		return s
	}
	// dots style
	s.sp = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(out))
	s.sp.Prefix = "  "
	s.sp.Suffix = " " + message
	s.sp.Start()
	return s
}

// Success stops the spinner and prints a success message
func (s *UISpinner) Success(message string) {
	s.finish("✓", message)
}

// Fail stops the spinner and prints an error message
func (s *UISpinner) Fail(message string) {
	s.finish("✗", message)
}

// Stop stops the spinner without printing anything
func (s *UISpinner) Stop() {
	if s.sp != nil {
		s.sp.Stop()
		fmt.Fprint(s.out, "\r\033[K")
		s.sp = nil
	}
}

func (s *UISpinner) finish(mark, message string) {
	if s.plain {
		fmt.Fprintf(s.out, "%s %s\n", mark, message)
		return
	}
	if s.sp != nil {
		s.Stop()
		fmt.Fprintf(s.out, "  %s %s\n", mark, message)
	}
}
