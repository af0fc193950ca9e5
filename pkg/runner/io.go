package runner

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"
)

type inputResult struct {
	text string
	err  error
}

// lineReader reads lines on a background goroutine so reads can be cancelled by ctx.
type lineReader struct {
	src   *bufio.Reader
	lines chan inputResult
	once  sync.Once
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{
		src:   bufio.NewReader(r),
		lines: make(chan inputResult, DefaultInputBufferSize),
	}
}

func (l *lineReader) start() {
	go func() {
		defer close(l.lines)
		for {
			text, err := l.src.ReadString('\n')
			if text != "" {
				l.lines <- inputResult{text: strings.TrimRight(text, "\r\n")}
			}
			if err != nil {
				l.lines <- inputResult{err: err}
				return
			}
		}
	}()
}

// ReadLine returns the next line without its terminator.
// It returns io.EOF once the input is exhausted.
func (l *lineReader) ReadLine(ctx context.Context) (string, error) {
	l.once.Do(l.start)
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res, ok := <-l.lines:
		if !ok {
			return "", io.EOF
		}
		return res.text, res.err
	}
}
