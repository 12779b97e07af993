// Package stream relays line-oriented output from a reader to an event sink.
package stream

import (
	"bufio"
	"errors"
	"io"
	"strings"

	"github.com/tessro/mindshell/internal/event"
)

// Result describes how a Forward call ended.
type Result struct {
	// Lines is the number of lines emitted.
	Lines int
	// Err is the read error that ended the stream, or nil at end of input.
	Err error
}

// Forward reads newline-delimited lines from r and emits each one on topic,
// in the order they were read, until r reports end of input or an error.
// Line terminators ("\n" or "\r\n") are stripped. A final line without a
// terminator is still emitted. Nothing is emitted after Forward returns.
//
// Lines have no length limit. Invalid UTF-8 is replaced with U+FFFD.
func Forward(r io.Reader, topic string, sink event.Sink) Result {
	br := bufio.NewReader(r)
	var res Result

	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			sink.Emit(topic, normalize(line))
			res.Lines++
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				res.Err = err
			}
			return res
		}
	}
}

func normalize(line string) string {
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return strings.ToValidUTF8(line, "�")
}
