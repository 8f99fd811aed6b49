// Package view renders the live per-stream panels shown while streaming.
package view

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/babelcloud/rscli/internal/stream"
	"github.com/fatih/color"
	"golang.org/x/term"
)

const panelWidth = 45

type panel struct {
	title string
	// first is the reference frame for the rate estimate
	first    *stream.Frame
	index    uint64
	fps      float64
	received bool
}

// StreamView keeps one panel per requested stream. Frames of other streams are
// ignored.
type StreamView struct {
	streams []stream.Stream
	panels  map[stream.Stream]*panel

	// Interactive redraws in place instead of appending.
	Interactive bool
	drawn       int
}

func New(streams []stream.Stream) *StreamView {
	v := &StreamView{panels: make(map[stream.Stream]*panel, len(streams))}
	for _, s := range streams {
		if _, dup := v.panels[s]; dup {
			continue
		}
		v.streams = append(v.streams, s)
		v.panels[s] = &panel{title: s.SDKName()}
	}
	return v
}

// Update records a frame set. The panel title is fixed by the first frame of
// each stream.
func (v *StreamView) Update(fs stream.FrameSet) {
	for s, f := range fs {
		p, ok := v.panels[s]
		if !ok {
			continue
		}
		if !p.received {
			p.title = Title(f.Profile)
			p.received = true
		}
		p.index = f.Index
		p.fps = p.estimate(f)
	}
}

// estimate averages the rate since the first frame of the stream.
func (p *panel) estimate(f stream.Frame) float64 {
	if p.first == nil {
		first := f
		p.first = &first
		return 0
	}
	delta := f.Timestamp - p.first.Timestamp
	if delta == 0 || f.Index < p.first.Index {
		return 0
	}
	return 1000 * float64(f.Index-p.first.Index) / delta
}

// Title renders "{Stream} ({index}) {W}x{H} {fps}fps {FORMAT}".
func Title(p stream.Profile) string {
	index := p.Index
	if index < 0 {
		index = 0
	}
	return fmt.Sprintf("%s (%d) %s %dfps %s", p.Stream.SDKName(), index, p.Resolution, p.FPS, p.Format)
}

// PanelTitle returns the current title of a stream's panel.
func (v *StreamView) PanelTitle(s stream.Stream) string {
	if p, ok := v.panels[s]; ok {
		return p.title
	}
	return ""
}

// FPS returns the current rate estimate of a stream.
func (v *StreamView) FPS(s stream.Stream) float64 {
	if p, ok := v.panels[s]; ok {
		return p.fps
	}
	return 0
}

// Render draws every panel in request order.
func (v *StreamView) Render(w io.Writer) {
	var b strings.Builder
	if v.Interactive && v.drawn > 0 {
		fmt.Fprintf(&b, "\033[%dA\033[J", v.drawn)
	}

	titleColor := color.New(color.FgCyan, color.Bold)
	lines := 0
	for _, s := range v.streams {
		p := v.panels[s]
		body := "..."
		if p.received {
			body = fmt.Sprintf("Frame #%-8d FPS: %-4.2f", p.index, p.fps)
		}

		title := truncate(p.title, panelWidth-6)
		fill := panelWidth - 5 - utf8.RuneCountInString(title)
		fmt.Fprintf(&b, "╭─ %s %s╮\n", titleColor.Sprint(title), strings.Repeat("─", fill))
		fmt.Fprintf(&b, "│ %s│\n", pad(body, panelWidth-3))
		fmt.Fprintf(&b, "╰%s╯\n", strings.Repeat("─", panelWidth-2))
		lines += 3
	}
	v.drawn = lines
	fmt.Fprint(w, b.String())
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "…"
}

func pad(s string, n int) string {
	if l := utf8.RuneCountInString(s); l < n {
		return s + strings.Repeat(" ", n-l)
	}
	return s
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
