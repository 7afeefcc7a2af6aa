package deployer

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"sync"

	"github.com/fatih/color"
)

// ProgressPrefix marks the progress lines of the pm2 deploy script.
const ProgressPrefix = "○"

// relabel is one recognized progress message and how it is printed.
type relabel struct {
	pattern *regexp.Regexp
	format  func(match []string) string
}

var (
	stepColor = color.New(color.FgCyan)
	doneColor = color.New(color.FgGreen, color.Bold)

	relabels = []relabel{
		{
			pattern: regexp.MustCompile(`^\s*` + ProgressPrefix + `\s+executing\s+(.+?)\s*$`),
			format: func(m []string) string {
				return fmt.Sprintf("  %s %s", stepColor.Sprint("→"), m[1])
			},
		},
		{
			pattern: regexp.MustCompile(`^\s*` + ProgressPrefix + `\s+successfully deployed\s+(.+?)\s*$`),
			format: func(m []string) string {
				return fmt.Sprintf("  %s %s", doneColor.Sprint("✔ deployed"), m[1])
			},
		},
	}
)

// Relabel returns the formatted form of a recognized progress line and false
// for anything else.
func Relabel(line string) (string, bool) {
	for _, r := range relabels {
		if m := r.pattern.FindStringSubmatch(line); m != nil {
			return r.format(m), true
		}
	}
	return "", false
}

// ProgressFilter is a line-oriented writer that forwards only recognized
// progress lines, relabeled, to the underlying writer.
type ProgressFilter struct {
	mu      sync.Mutex
	out     io.Writer
	pending bytes.Buffer
	closed  bool
}

func NewProgressFilter(out io.Writer) *ProgressFilter {
	return &ProgressFilter{out: out}
}

func (f *ProgressFilter) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return 0, io.ErrClosedPipe
	}

	f.pending.Write(p)
	for {
		i := bytes.IndexByte(f.pending.Bytes(), '\n')
		if i < 0 {
			break
		}
		line := string(bytes.TrimRight(f.pending.Next(i+1), "\r\n"))
		if err := f.emit(line); err != nil {
			return len(p), err
		}
	}
	return len(p), nil
}

// Close flushes a trailing line without newline. Writes after Close fail.
func (f *ProgressFilter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	if f.pending.Len() == 0 {
		return nil
	}
	line := f.pending.String()
	f.pending.Reset()
	return f.emit(line)
}

func (f *ProgressFilter) emit(line string) error {
	formatted, ok := Relabel(line)
	if !ok {
		return nil
	}
	_, err := fmt.Fprintln(f.out, formatted)
	return err
}

// Scoped runs fn with a ProgressFilter over out installed for the duration of
// the call. The filter is flushed and detached when fn returns or panics.
func Scoped(out io.Writer, fn func(progress io.Writer) error) (err error) {
	filter := NewProgressFilter(out)
	defer func() {
		if cerr := filter.Close(); err == nil {
			err = cerr
		}
	}()
	return fn(filter)
}
