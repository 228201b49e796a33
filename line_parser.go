package fastimport

import (
	"bufio"
	"bytes"
	"io"
)

// LineBasedParser wraps a byte stream with a one-line pushback buffer, the
// primitive every higher-level parse routine is built on: peek a line,
// decide what kind of line it is, then either consume it or push it back
// for the next routine to look at.
type LineBasedParser struct {
	r       *bufio.Reader
	pushed  []byte
	hasPush bool
	lineno  uint32
	eof     bool
}

// NewLineBasedParser wraps r for line-oriented reading.
func NewLineBasedParser(r io.Reader) *LineBasedParser {
	return &LineBasedParser{r: bufio.NewReaderSize(r, 64*1024)}
}

// Lineno returns the 1-based number of the most recently returned line.
func (p *LineBasedParser) Lineno() uint32 { return p.lineno }

// NextLine returns the next line with its trailing LF stripped, or
// (nil, io.EOF) at end of stream. A pushed-back line is returned first and
// does not advance the underlying reader.
func (p *LineBasedParser) NextLine() ([]byte, error) {
	if p.hasPush {
		p.hasPush = false
		line := p.pushed
		p.pushed = nil
		p.lineno++
		return line, nil
	}
	if p.eof {
		return nil, io.EOF
	}
	line, err := p.r.ReadBytes('\n')
	if err != nil {
		if err == io.EOF {
			p.eof = true
			if len(line) == 0 {
				return nil, io.EOF
			}
			// Final line with no trailing LF: still usable.
			p.lineno++
			return line, nil
		}
		return nil, err
	}
	p.lineno++
	return line[:len(line)-1], nil
}

// PushLine makes line the next value NextLine returns. Only one line of
// pushback is supported; pushing twice without an intervening NextLine is a
// programming error in the caller.
func (p *LineBasedParser) PushLine(line []byte) {
	p.pushed = line
	p.hasPush = true
	p.lineno--
}

// PeekLine returns the next line without consuming it.
func (p *LineBasedParser) PeekLine() ([]byte, error) {
	line, err := p.NextLine()
	if err != nil {
		return nil, err
	}
	p.PushLine(line)
	return line, nil
}

// ReadBytes reads exactly n bytes directly from the source, bypassing the
// line buffer. It never returns a short read without error.
func (p *LineBasedParser) ReadBytes(n int) ([]byte, error) {
	if p.hasPush {
		// Pending pushback and a raw byte read can't coexist sanely; any
		// caller that reaches here after a pushback has a parser bug.
		p.hasPush = false
		p.pushed = nil
	}
	buf := make([]byte, n)
	got, err := io.ReadFull(p.r, buf)
	if err != nil {
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			return nil, &MissingBytesError{Lineno: int(p.lineno), Expected: n, Found: got}
		}
		return nil, err
	}
	p.lineno += uint32(bytes.Count(buf, []byte("\n")))
	return buf, nil
}

// ReadDataPayload reads exactly n bytes of a length-prefixed data section,
// then consumes the line that follows if (and only if) it is a bare LF:
// anything else found there is pushed back whole (with its own trailing
// LF stripped) for the next NextLine call, since many producers omit the
// optional separator and emit the next command's line immediately.
func (p *LineBasedParser) ReadDataPayload(n int) ([]byte, error) {
	payload, err := p.ReadBytes(n)
	if err != nil {
		return nil, err
	}
	next, err := p.r.ReadBytes('\n')
	if err == io.EOF {
		if len(next) > 0 {
			p.PushLine(next)
		}
		return payload, nil
	}
	if err != nil {
		return nil, err
	}
	p.lineno++
	if len(next) != 1 {
		p.PushLine(next[:len(next)-1])
	}
	return payload, nil
}

// ReadUntil reads lines up to (and discarding) a line exactly equal to
// terminator, returning the concatenation of the preceding lines each with
// its own trailing LF. Used for "data <<EOF ... EOF" sections.
func (p *LineBasedParser) ReadUntil(terminator []byte) ([]byte, error) {
	var buf bytes.Buffer
	for {
		line, err := p.NextLine()
		if err != nil {
			if err == io.EOF {
				return nil, &MissingTerminatorError{Terminator: string(terminator), Lineno: int(p.lineno)}
			}
			return nil, err
		}
		if bytes.Equal(line, terminator) {
			return buf.Bytes(), nil
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
}

// AtEOF reports whether the stream is exhausted (no pushback, underlying
// reader drained). Used by the stream parser to distinguish a clean end of
// input from a premature one.
func (p *LineBasedParser) AtEOF() bool {
	if p.hasPush {
		return false
	}
	if p.eof {
		return true
	}
	_, err := p.r.Peek(1)
	return err != nil
}
