// Package bag reads the index of ROS1 bag recordings (format 2.0) as written by
// the camera SDK recorder. Message payloads are never decoded.
package bag

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/babelcloud/rscli/internal/util"
	"github.com/foxglove/go-rosbag"
	"github.com/pkg/errors"
)

// FormatError reports a malformed or unsupported bag file.
type FormatError struct {
	Path   string
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s: invalid bag: %s", e.Path, e.Reason)
}

func (e *FormatError) Unwrap() error { return e.Err }

// TopicInfo summarizes the messages recorded on one topic.
type TopicInfo struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Messages uint64 `json:"messages"`
}

// Bag is the parsed index of a recording.
type Bag struct {
	Path   string
	Chunks int

	start, end time.Time
	topics     []TopicInfo
}

// Duration is the recorded time span in seconds.
func (b *Bag) Duration() float64 {
	if b.end.Before(b.start) {
		return 0
	}
	return b.end.Sub(b.start).Seconds()
}

func (b *Bag) Start() time.Time { return b.start }

func (b *Bag) End() time.Time { return b.end }

// Topics returns the topics ordered by message count, then name.
func (b *Bag) Topics() []TopicInfo {
	return append([]TopicInfo(nil), b.topics...)
}

// Open reads the index of the bag at path.
func Open(path string) (*Bag, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open bag")
	}
	defer f.Close()
	return Read(f, path)
}

// Read parses the index from r. name is only used in errors.
func Read(r io.ReadSeeker, name string) (*Bag, error) {
	log := util.GetCompatLogger().With("bag", name)

	reader, err := rosbag.NewReader(r)
	if err != nil {
		return nil, &FormatError{Path: name, Reason: "not a ROS bag v2.0 file", Err: err}
	}
	info, err := reader.Info()
	switch {
	case errors.Is(err, rosbag.ErrUnindexedBag):
		return nil, &FormatError{Path: name, Reason: "bag is not indexed", Err: err}
	case err != nil:
		return nil, &FormatError{Path: name, Reason: err.Error(), Err: err}
	case info.Connections == nil:
		// the reader hits EOF right after the magic
		return nil, &FormatError{Path: name, Reason: "missing bag header", Err: io.ErrUnexpectedEOF}
	}
	log.Debugf("index: %d connections, %d chunks, %d messages",
		len(info.Connections), len(info.ChunkInfos), info.MessageCount)

	b := &Bag{Path: name, Chunks: len(info.ChunkInfos)}
	// chunks flushed before their first message carry no usable times
	var spanned bool
	var start, end uint64
	for _, c := range info.ChunkInfos {
		if len(c.Data) == 0 {
			continue
		}
		if !spanned || c.StartTime < start {
			start = c.StartTime
		}
		if !spanned || c.EndTime > end {
			end = c.EndTime
		}
		spanned = true
	}
	if spanned {
		b.start = time.Unix(0, int64(start)).UTC()
		b.end = time.Unix(0, int64(end)).UTC()
	}

	counts := info.ConnectionMessageCounts()
	byTopic := map[string]*TopicInfo{}
	for id, conn := range info.Connections {
		typ := strings.TrimSpace(conn.Data.Type)
		t, ok := byTopic[conn.Topic]
		if !ok {
			t = &TopicInfo{Name: conn.Topic, Type: typ}
			byTopic[conn.Topic] = t
		}
		if t.Type != typ {
			log.Warnf("topic %s recorded with types %s and %s", conn.Topic, t.Type, typ)
		}
		t.Messages += uint64(counts[id])
	}
	for id := range counts {
		if _, ok := info.Connections[id]; !ok {
			return nil, &FormatError{Path: name, Reason: fmt.Sprintf("chunk info references unknown connection %d", id)}
		}
	}

	for _, t := range byTopic {
		b.topics = append(b.topics, *t)
	}
	sort.Slice(b.topics, func(i, j int) bool {
		if b.topics[i].Messages != b.topics[j].Messages {
			return b.topics[i].Messages < b.topics[j].Messages
		}
		return b.topics[i].Name < b.topics[j].Name
	})
	return b, nil
}
