package crilog

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// Stream names written by the runtime
const (
	Stdout = "stdout"
	Stderr = "stderr"
)

const (
	tagPartial = 'P'
	tagFull    = 'F'

	chunkSize = 64 << 10
	// maxTailBytes bounds how much of a log file a single tail reads
	maxTailBytes = 8 << 20
	// partialSlack is extra raw lines read so that entries split into
	// partial lines can still be reassembled at the start of the window
	partialSlack = 256
)

// Line is one log entry
type Line struct {
	Time    time.Time
	Stream  string
	Partial bool
	Message string
}

// ParseLine parses one line of the CRI log format:
//
//	2016-10-06T00:17:09.669794202Z stdout F log content
func ParseLine(raw []byte) (Line, error) {
	raw = bytes.TrimRight(raw, "\n")

	ts, rest, ok := bytes.Cut(raw, []byte{' '})
	if !ok {
		return Line{}, fmt.Errorf("malformed log line: missing timestamp")
	}
	t, err := time.Parse(time.RFC3339Nano, string(ts))
	if err != nil {
		return Line{}, fmt.Errorf("malformed log line timestamp %q: %w", ts, err)
	}

	stream, rest, ok := bytes.Cut(rest, []byte{' '})
	if !ok {
		return Line{}, fmt.Errorf("malformed log line: missing stream")
	}
	if s := string(stream); s != Stdout && s != Stderr {
		return Line{}, fmt.Errorf("malformed log line: unknown stream %q", s)
	}

	tags, msg, ok := bytes.Cut(rest, []byte{' '})
	if !ok {
		// "<ts> stdout F" with an empty message
		tags = rest
	}
	if len(tags) == 0 {
		return Line{}, fmt.Errorf("malformed log line: missing tag")
	}

	var partial bool
	// Tags are colon separated; the first one is P or F.
	switch tags[0] {
	case tagPartial:
		partial = true
	case tagFull:
	default:
		return Line{}, fmt.Errorf("malformed log line: unknown tag %q", tags)
	}

	return Line{
		Time:    t,
		Stream:  string(stream),
		Partial: partial,
		Message: string(msg),
	}, nil
}

// Tail returns the last n complete entries of a CRI log file. Partial lines
// are joined with their continuation. stream filters to stdout or stderr;
// empty keeps both. Lines that do not parse are skipped.
func Tail(path string, n int, stream string) ([]Line, error) {
	if n <= 0 {
		return []Line{}, nil
	}

	raw, err := TailRaw(path, n+partialSlack)
	if err != nil {
		return nil, err
	}

	var entries []Line
	pending := map[string]*Line{}
	for _, r := range raw {
		line, err := ParseLine([]byte(r))
		if err != nil {
			continue
		}
		if stream != "" && line.Stream != stream {
			continue
		}

		if p, ok := pending[line.Stream]; ok {
			p.Message += line.Message
			p.Time = line.Time
			if line.Partial {
				continue
			}
			delete(pending, line.Stream)
			entries = append(entries, Line{Time: p.Time, Stream: p.Stream, Message: p.Message})
			continue
		}
		if line.Partial {
			l := line
			pending[line.Stream] = &l
			continue
		}
		entries = append(entries, line)
	}

	if len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	if entries == nil {
		entries = []Line{}
	}
	return entries, nil
}

// TailRaw returns the last n lines of a file without parsing them, reading
// backwards in chunks so large files are not loaded whole.
func TailRaw(path string, n int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	size := info.Size()
	var (
		buf    []byte
		offset = size
		read   int64
	)
	for offset > 0 && read < maxTailBytes && bytes.Count(buf, []byte{'\n'}) <= n {
		step := int64(chunkSize)
		if step > offset {
			step = offset
		}
		offset -= step

		chunk := make([]byte, step)
		if _, err := f.ReadAt(chunk, offset); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		buf = append(chunk, buf...)
		read += step
	}

	lines := bytes.Split(bytes.TrimRight(buf, "\n"), []byte{'\n'})
	// The first line may be cut mid-way when the read stopped before the start of the file.
	if offset > 0 && len(lines) > 0 {
		lines = lines[1:]
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}

	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if len(l) == 0 && len(lines) == 1 {
			continue
		}
		out = append(out, string(l))
	}
	return out, nil
}
