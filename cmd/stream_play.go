package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/babelcloud/rscli/config"
	"github.com/babelcloud/rscli/internal/device"
	"github.com/babelcloud/rscli/internal/session"
	"github.com/babelcloud/rscli/internal/stream"
	"github.com/babelcloud/rscli/internal/util"
	"github.com/babelcloud/rscli/internal/view"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type StreamPlayOptions struct {
	FPS        int
	Resolution string
	Sensor     bool
	Pipe       bool
	Timeout    time.Duration
	Frames     int
}

// refresh intervals of the live view
const (
	interactiveRefresh = time.Second / 30
	appendRefresh      = time.Second
)

func NewStreamPlayCommand() *cobra.Command {
	opts := &StreamPlayOptions{}

	cmd := &cobra.Command{
		Use:   "play [PROFILES...]",
		Short: "Play streams",
		Long: fmt.Sprintf(`Stream camera and show a live view of basic frame data.
If no profiles are provided all streams start at default settings.

Profiles use the syntax STREAM-RESOLUTION-FPS-FORMAT. STREAM is mandatory,
trailing parts can be omitted and 0, 0x0 or "any" leave a part open:
  depth                 depth at any resolution and frame rate
  depth-0x0-30          depth at any resolution, 30 fps
  color-640x480-0-rgb8  color at 640x480, any frame rate, RGB8 format

Streams: %s`, strings.Join(stream.Names(), ", ")),
		Example: `  rscli stream play
  rscli stream play depth color-640x480-30
  rscli stream play depth infrared1 --fps 15 --sensor --frames 100`,
		ValidArgsFunction: completeStreams,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStreamPlay(cmd, opts, args)
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&opts.FPS, "fps", 0, "Frame rate for profiles that leave it open")
	flags.StringVar(&opts.Resolution, "res", "", "Resolution (WIDTHxHEIGHT) for profiles that leave it open")
	flags.BoolVar(&opts.Pipe, "pipe", false, "Start streams through the pipeline API (default)")
	flags.BoolVar(&opts.Sensor, "sensor", false, "Start streams by opening each sensor directly")
	flags.DurationVar(&opts.Timeout, "timeout", config.DefaultWaitTimeout, "How long to wait for each frame set")
	flags.IntVar(&opts.Frames, "frames", 0, "Stop after this many frame sets (0 streams until interrupted)")
	cmd.MarkFlagsMutuallyExclusive("pipe", "sensor")
	config.BindFlag(config.KeyWaitTimeout, flags.Lookup("timeout"))

	return cmd
}

// buildRequests parses the profile literals and fills open resolutions and frame
// rates from --res and --fps. With no literals but a default given, every stream
// of the device is requested.
func buildRequests(r *device.Registry, opts *StreamPlayOptions, literals []string) ([]stream.Profile, error) {
	if opts.FPS < 0 {
		return nil, errors.Errorf("--fps must not be negative, got %d", opts.FPS)
	}
	res := stream.AnyResolution
	if opts.Resolution != "" {
		var err error
		if res, err = stream.ParseResolution(opts.Resolution); err != nil {
			return nil, errors.Wrap(err, "invalid --res")
		}
	}

	requests, err := stream.ParseProfiles(literals)
	if err != nil {
		return nil, err
	}
	if len(requests) == 0 && (opts.FPS != stream.AnyFPS || !res.IsAny()) {
		origins, err := r.OriginMap()
		if err != nil {
			return nil, err
		}
		requests = session.WildcardRequests(origins)
	}
	for i := range requests {
		requests[i] = requests[i].WithDefaults(res, opts.FPS)
	}
	return requests, nil
}

func runStreamPlay(cmd *cobra.Command, opts *StreamPlayOptions, literals []string) error {
	if opts.Frames < 0 {
		return errors.Errorf("--frames must not be negative, got %d", opts.Frames)
	}
	strategy := session.Pipeline
	if opts.Sensor {
		strategy = session.Sensor
	}
	timeout := config.GetWaitTimeout()

	registry, err := openRegistry()
	if err != nil {
		return err
	}
	defer registry.Close()

	requests, err := buildRequests(registry, opts, literals)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	sess := session.New(registry)
	if err := sess.Play(ctx, requests, strategy); err != nil {
		var noMatch *stream.NoMatchingProfileError
		if errors.As(err, &noMatch) {
			fmt.Fprintln(errOut, "Requested profiles:")
			for _, p := range requests {
				fmt.Fprintf(errOut, "\t%s\n", p)
			}
		}
		return err
	}
	defer func() {
		fmt.Fprintln(errOut, "Stopping all streams")
		if err := sess.Stop(); err != nil {
			util.GetLogger().Warn("Failed to stop streams", "error", err)
		}
	}()

	var streams []stream.Stream
	for _, p := range sess.Resolved() {
		streams = append(streams, p.Stream)
	}
	live := view.New(streams)
	live.Interactive = view.IsTerminal(out)

	return streamLoop(ctx, sess, live, opts.Frames, timeout, out, errOut)
}

// streamLoop feeds frame sets into the view until ctx is done or the frame limit is
// reached. The view is rendered one last time on exit.
func streamLoop(ctx context.Context, sess *session.Session, live *view.StreamView, limit int, timeout time.Duration, out, errOut io.Writer) error {
	refresh := appendRefresh
	if live.Interactive {
		refresh = interactiveRefresh
	}

	sp := util.NewUISpinner(errOut, !live.Interactive, "Waiting for frames...")
	waiting := true
	defer func() {
		if waiting {
			sp.Stop()
		}
	}()

	var received int
	var lastRender time.Time
	for limit == 0 || received < limit {
		fs, ok, err := sess.WaitForFrameSet(ctx, timeout)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			return err
		}
		if !ok {
			continue
		}
		if waiting {
			sp.Success("Streaming")
			waiting = false
		}
		received++
		live.Update(fs)
		if time.Since(lastRender) >= refresh {
			live.Render(out)
			lastRender = time.Now()
		}
	}

	if !waiting {
		live.Render(out)
	}
	util.GetLogger().Debug("Stream loop finished", "framesets", received, "dropped_frames", sess.Drops())
	return nil
}
