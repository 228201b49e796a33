package fastimport

import (
	"bytes"
	"io"
	"strconv"
)

// ImportParser turns a byte stream into a lazy sequence of Command values.
// Call Next repeatedly until it returns (nil, io.EOF); a non-EOF error ends
// the stream for good (the parser does not attempt to resynchronize).
type ImportParser struct {
	lp           *LineBasedParser
	features     map[string]bool
	dateFormat   DateFormat
	dateDetected bool
	sawDone      bool
	stopped      bool
}

// NewImportParser wraps r. The date format auto-detects off the first
// authorship line seen; callers that already know the producer's format
// can set it up front via SetDateFormat.
func NewImportParser(r io.Reader) *ImportParser {
	return &ImportParser{
		lp:       NewLineBasedParser(r),
		features: make(map[string]bool),
	}
}

// SetDateFormat pins the date format instead of relying on auto-detection.
func (p *ImportParser) SetDateFormat(f DateFormat) {
	p.dateFormat = f
	p.dateDetected = true
}

// Features returns the set of feature names declared so far.
func (p *ImportParser) Features() map[string]bool { return p.features }

// Next returns the next top-level command, or (nil, io.EOF) at a clean end
// of stream (either true EOF with no pending 'done' feature, or a 'done'
// command).
func (p *ImportParser) Next() (Command, error) {
	if p.stopped {
		return nil, io.EOF
	}
	for {
		line, err := p.lp.NextLine()
		if err != nil {
			if err == io.EOF {
				p.stopped = true
				if p.sawDone {
					return nil, &PrematureEndOfStreamError{Lineno: int(p.lp.Lineno())}
				}
				return nil, io.EOF
			}
			return nil, err
		}
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		switch {
		case bytes.Equal(line, []byte("done")):
			p.stopped = true
			return nil, io.EOF
		case bytes.HasPrefix(line, []byte("commit ")):
			return p.parseCommit(line)
		case bytes.Equal(line, []byte("blob")):
			return p.parseBlob()
		case bytes.HasPrefix(line, []byte("progress")):
			return p.parseProgress(line)
		case bytes.HasPrefix(line, []byte("reset ")):
			return p.parseReset(line)
		case bytes.HasPrefix(line, []byte("tag ")):
			return p.parseTag(line)
		case bytes.Equal(line, []byte("checkpoint")):
			return &Checkpoint{}, nil
		case bytes.HasPrefix(line, []byte("feature")):
			return p.parseFeature(line)
		default:
			return nil, &InvalidCommandError{Lineno: int(p.lp.Lineno()), Cmd: string(line)}
		}
	}
}

func (p *ImportParser) parseProgress(line []byte) (Command, error) {
	msg := bytes.TrimPrefix(line, []byte("progress"))
	msg = bytes.TrimPrefix(msg, []byte(" "))
	return &Progress{Message: msg}, nil
}

func (p *ImportParser) parseFeature(line []byte) (Command, error) {
	rest := bytes.TrimPrefix(line, []byte("feature"))
	rest = bytes.TrimPrefix(rest, []byte(" "))
	var name, value []byte
	if i := bytes.IndexByte(rest, '='); i >= 0 {
		name = rest[:i]
		value = rest[i+1:]
	} else {
		name = rest
	}
	p.features[string(name)] = true
	if string(name) == "done" {
		p.sawDone = true
	}
	return &Feature{Name: name, Value: value, Lineno: p.lp.Lineno()}, nil
}

func (p *ImportParser) parseBlob() (Command, error) {
	b := &Blob{Lineno: p.lp.Lineno()}
	for {
		line, err := p.lp.NextLine()
		if err != nil {
			return nil, err
		}
		switch {
		case bytes.HasPrefix(line, []byte("mark :")):
			b.Mark = Mark(bytes.TrimPrefix(line, []byte("mark :")))
		case bytes.HasPrefix(line, []byte("original-oid ")):
			b.OriginalOID = bytes.TrimPrefix(line, []byte("original-oid "))
		case bytes.HasPrefix(line, []byte("data")):
			data, err := p.parseDataSection(line, "blob")
			if err != nil {
				return nil, err
			}
			b.Data = data
			return b, nil
		default:
			return nil, &MissingSectionError{Lineno: int(p.lp.Lineno()), Cmd: "blob", Section: "data"}
		}
	}
}

func (p *ImportParser) parseReset(line []byte) (Command, error) {
	ref := bytes.TrimPrefix(line, []byte("reset "))
	r := &Reset{Ref: ref}
	next, err := p.lp.NextLine()
	if err != nil {
		if err == io.EOF {
			return r, nil
		}
		return nil, err
	}
	if bytes.HasPrefix(next, []byte("from ")) {
		r.From = bytes.TrimPrefix(next, []byte("from "))
		return r, nil
	}
	p.lp.PushLine(next)
	return r, nil
}

func (p *ImportParser) parseTag(line []byte) (Command, error) {
	name := bytes.TrimPrefix(line, []byte("tag "))
	t := &Tag{Name: name}
	for {
		next, err := p.lp.NextLine()
		if err != nil {
			if err == io.EOF {
				return t, nil
			}
			return nil, err
		}
		switch {
		case bytes.HasPrefix(next, []byte("from ")):
			t.From = bytes.TrimPrefix(next, []byte("from "))
		case bytes.HasPrefix(next, []byte("original-oid ")):
			t.OriginalOID = bytes.TrimPrefix(next, []byte("original-oid "))
		case bytes.HasPrefix(next, []byte("tagger ")):
			a, err := p.parseAuthorship(bytes.TrimPrefix(next, []byte("tagger ")), "tag")
			if err != nil {
				return nil, err
			}
			t.Tagger = a
		case bytes.HasPrefix(next, []byte("data")):
			msg, err := p.parseDataSection(next, "tag")
			if err != nil {
				return nil, err
			}
			t.Message = msg
			return t, nil
		default:
			p.lp.PushLine(next)
			return t, nil
		}
	}
}

func (p *ImportParser) parseCommit(line []byte) (Command, error) {
	ref := bytes.TrimPrefix(line, []byte("commit "))
	c := &Commit{Ref: ref, Lineno: p.lp.Lineno(), Properties: map[string]*[]byte{}}

	next, err := p.lp.NextLine()
	if err != nil {
		return nil, err
	}
	if bytes.HasPrefix(next, []byte("mark :")) {
		c.Mark = Mark(bytes.TrimPrefix(next, []byte("mark :")))
		next, err = p.lp.NextLine()
		if err != nil {
			return nil, err
		}
	}
	if bytes.HasPrefix(next, []byte("original-oid ")) {
		c.OriginalOID = bytes.TrimPrefix(next, []byte("original-oid "))
		next, err = p.lp.NextLine()
		if err != nil {
			return nil, err
		}
	}
	for bytes.HasPrefix(next, []byte("author ")) {
		a, err := p.parseAuthorship(bytes.TrimPrefix(next, []byte("author ")), "commit")
		if err != nil {
			return nil, err
		}
		if c.Author == nil {
			c.Author = a
		} else {
			c.MoreAuthors = append(c.MoreAuthors, *a)
		}
		next, err = p.lp.NextLine()
		if err != nil {
			return nil, err
		}
	}
	if !bytes.HasPrefix(next, []byte("committer ")) {
		return nil, &MissingSectionError{Lineno: int(p.lp.Lineno()), Cmd: "commit", Section: "committer"}
	}
	committer, err := p.parseAuthorship(bytes.TrimPrefix(next, []byte("committer ")), "commit")
	if err != nil {
		return nil, err
	}
	c.Committer = *committer

	next, err = p.lp.NextLine()
	if err != nil {
		return nil, err
	}
	if !bytes.HasPrefix(next, []byte("data")) {
		return nil, &MissingSectionError{Lineno: int(p.lp.Lineno()), Cmd: "commit", Section: "data"}
	}
	msg, err := p.parseDataSection(next, "commit")
	if err != nil {
		return nil, err
	}
	c.Message = msg

	next, err = p.lp.NextLine()
	if err == io.EOF {
		c.FileOps = NewFileOps(nil)
		return c, nil
	}
	if err != nil {
		return nil, err
	}
	if bytes.HasPrefix(next, []byte("from ")) {
		c.From = bytes.TrimPrefix(next, []byte("from "))
		next, err = p.lp.NextLine()
		if err == io.EOF {
			c.FileOps = NewFileOps(nil)
			return c, nil
		}
		if err != nil {
			return nil, err
		}
	}
	for bytes.HasPrefix(next, []byte("merge ")) {
		for _, tok := range bytes.Fields(bytes.TrimPrefix(next, []byte("merge "))) {
			c.Merges = append(c.Merges, tok)
		}
		next, err = p.lp.NextLine()
		if err == io.EOF {
			c.FileOps = NewFileOps(nil)
			return c, nil
		}
		if err != nil {
			return nil, err
		}
	}
	for bytes.HasPrefix(next, []byte("property ")) {
		name, value, err := p.parsePropertyValue(bytes.TrimPrefix(next, []byte("property ")))
		if err != nil {
			return nil, err
		}
		c.Properties[name] = value
		next, err = p.lp.NextLine()
		if err == io.EOF {
			c.FileOps = NewFileOps(nil)
			return c, nil
		}
		if err != nil {
			return nil, err
		}
	}
	p.lp.PushLine(next)
	c.FileOps = newLazyFileOps(p.makeFileOpThunk())
	return c, nil
}

// makeFileOpThunk returns a pull function that reads successive file-op
// lines off p's cursor. It returns (nil, nil) once a non-file-op line is
// seen, having pushed that line back so the driver loop can read it next.
func (p *ImportParser) makeFileOpThunk() func() (FileOp, error) {
	return func() (FileOp, error) {
		line, err := p.lp.NextLine()
		if err == io.EOF {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		switch {
		case bytes.HasPrefix(line, []byte("M ")):
			return p.parseModify(line)
		case bytes.HasPrefix(line, []byte("D ")):
			path, err := p.parsePathToken(bytes.TrimPrefix(line, []byte("D ")))
			if err != nil {
				return nil, err
			}
			return &Delete{Path: path}, nil
		case bytes.HasPrefix(line, []byte("R ")):
			a, b, err := p.parsePathPair(bytes.TrimPrefix(line, []byte("R ")))
			if err != nil {
				return nil, err
			}
			return &Rename{OldPath: a, NewPath: b}, nil
		case bytes.HasPrefix(line, []byte("C ")):
			a, b, err := p.parsePathPair(bytes.TrimPrefix(line, []byte("C ")))
			if err != nil {
				return nil, err
			}
			return &Copy{SrcPath: a, DestPath: b}, nil
		case bytes.Equal(line, []byte("deleteall")):
			return &DeleteAll{}, nil
		case bytes.HasPrefix(line, []byte("N ")):
			return p.parseNoteModify(line)
		default:
			p.lp.PushLine(line)
			return nil, nil
		}
	}
}

func (p *ImportParser) parseModify(line []byte) (FileOp, error) {
	rest := bytes.TrimPrefix(line, []byte("M "))
	fields := bytes.SplitN(rest, []byte(" "), 3)
	if len(fields) != 3 {
		return nil, &BadFormatError{Lineno: int(p.lp.Lineno()), Cmd: "filemodify", Section: "line", Text: string(line)}
	}
	mode, err := ParseMode(string(fields[0]))
	if err != nil {
		return nil, err
	}
	dataref := fields[1]
	pathTok := fields[2]
	path, err := p.parsePathToken(pathTok)
	if err != nil {
		return nil, err
	}
	m := &Modify{Path: path, Mode: mode}
	switch {
	case string(dataref) == "-":
		// Directory placeholder; no data section follows.
	case string(dataref) == "inline":
		next, err := p.lp.NextLine()
		if err != nil {
			return nil, err
		}
		if !bytes.HasPrefix(next, []byte("data")) {
			return nil, &MissingSectionError{Lineno: int(p.lp.Lineno()), Cmd: "filemodify", Section: "data"}
		}
		data, err := p.parseDataSection(next, "filemodify")
		if err != nil {
			return nil, err
		}
		m.Data = data
	default:
		m.DataRef = dataref
	}
	return m, nil
}

func (p *ImportParser) parseNoteModify(line []byte) (FileOp, error) {
	rest := bytes.TrimPrefix(line, []byte("N "))
	fields := bytes.SplitN(rest, []byte(" "), 2)
	if len(fields) != 2 || !bytes.HasPrefix(fields[0], []byte("inline")) {
		return nil, &BadFormatError{Lineno: int(p.lp.Lineno()), Cmd: "notemodify", Section: "line", Text: string(line)}
	}
	from := bytes.TrimPrefix(fields[1], []byte(":"))
	next, err := p.lp.NextLine()
	if err != nil {
		return nil, err
	}
	if !bytes.HasPrefix(next, []byte("data")) {
		return nil, &MissingSectionError{Lineno: int(p.lp.Lineno()), Cmd: "notemodify", Section: "data"}
	}
	data, err := p.parseDataSection(next, "notemodify")
	if err != nil {
		return nil, err
	}
	return &NoteModify{From: from, Data: data}, nil
}

// parsePathToken unquotes a single path token (quoted or bare).
func (p *ImportParser) parsePathToken(tok []byte) ([]byte, error) {
	if len(tok) > 0 && tok[0] == '"' {
		if len(tok) < 2 || tok[len(tok)-1] != '"' {
			return nil, &BadFormatError{Lineno: int(p.lp.Lineno()), Cmd: "path", Section: "quote", Text: string(tok)}
		}
		return UnquoteCString(tok[1 : len(tok)-1]), nil
	}
	return tok, nil
}

// parsePathPair splits an "OLD NEW" token into its two paths, handling a
// quoted first path (which may itself contain spaces).
func (p *ImportParser) parsePathPair(rest []byte) ([]byte, []byte, error) {
	if len(rest) > 0 && rest[0] == '"' {
		i := bytes.Index(rest[1:], []byte(`" `))
		if i < 0 {
			return nil, nil, &BadFormatError{Lineno: int(p.lp.Lineno()), Cmd: "path-pair", Section: "quote", Text: string(rest)}
		}
		first := rest[1 : 1+i]
		second := rest[1+i+2:]
		a := UnquoteCString(first)
		b, err := p.parsePathToken(second)
		if err != nil {
			return nil, nil, err
		}
		return a, b, nil
	}
	i := bytes.IndexByte(rest, ' ')
	if i < 0 {
		return nil, nil, &BadFormatError{Lineno: int(p.lp.Lineno()), Cmd: "path-pair", Section: "split", Text: string(rest)}
	}
	a, err := p.parsePathToken(rest[:i])
	if err != nil {
		return nil, nil, err
	}
	b, err := p.parsePathToken(rest[i+1:])
	if err != nil {
		return nil, nil, err
	}
	return a, b, nil
}

// parseDataSection parses the remainder of a "data ..." line already read
// into headerLine, consuming a heredoc or length-prefixed body as needed.
func (p *ImportParser) parseDataSection(headerLine []byte, cmd string) ([]byte, error) {
	rest := bytes.TrimPrefix(headerLine, []byte("data"))
	rest = bytes.TrimPrefix(rest, []byte(" "))
	if bytes.HasPrefix(rest, []byte("<<")) {
		delim := rest[2:]
		return p.lp.ReadUntil(delim)
	}
	n, err := strconv.Atoi(string(bytes.TrimSpace(rest)))
	if err != nil {
		return nil, &BadFormatError{Lineno: int(p.lp.Lineno()), Cmd: cmd, Section: "data", Text: string(rest)}
	}
	return p.lp.ReadDataPayload(n)
}

// parsePropertyValue parses "NAME" or "NAME LEN VALUE", where VALUE may be
// shorter than LEN on this line and continue via a raw byte read.
func (p *ImportParser) parsePropertyValue(rest []byte) (string, *[]byte, error) {
	parts := bytes.SplitN(rest, []byte(" "), 2)
	name := string(parts[0])
	if len(parts) == 1 {
		return name, nil, nil
	}
	lenAndValue := bytes.SplitN(parts[1], []byte(" "), 2)
	n, err := strconv.Atoi(string(lenAndValue[0]))
	if err != nil {
		return "", nil, &BadFormatError{Lineno: int(p.lp.Lineno()), Cmd: "property", Section: "len", Text: string(lenAndValue[0])}
	}
	var value []byte
	if len(lenAndValue) == 2 {
		value = lenAndValue[1]
	}
	stillToRead := n - len(value)
	if stillToRead > 0 {
		more, err := p.lp.ReadBytes(stillToRead)
		if err != nil {
			return "", nil, err
		}
		// The line read to fill out the remainder carries its own
		// terminating LF as its last byte; drop it, it isn't part of
		// the property's value.
		buf := make([]byte, 0, n)
		buf = append(buf, value...)
		buf = append(buf, '\n')
		buf = append(buf, more[:len(more)-1]...)
		value = buf
	}
	v := value
	return name, &v, nil
}

// parseAuthorship parses a "NAME? <EMAIL> DATESTR" line, auto-detecting the
// date format from the first authorship line seen unless SetDateFormat was
// called up front.
func (p *ImportParser) parseAuthorship(line []byte, cmd string) (*Authorship, error) {
	m := whoAndWhenRE.FindSubmatch(line)
	if m == nil {
		mw := whoRE.FindSubmatch(line)
		if mw == nil {
			return nil, &BadFormatError{Lineno: int(p.lp.Lineno()), Cmd: cmd, Section: "who_when", Text: string(line)}
		}
		name := bytes.TrimSuffix(mw[1], []byte(" "))
		return &Authorship{Name: name, Email: mw[2], Timestamp: float64(nowFunc().Unix()), Timezone: 0}, nil
	}
	name := bytes.TrimSuffix(m[1], []byte(" "))
	email := m[2]
	dateStr := string(m[3])

	format := p.dateFormat
	if !p.dateDetected {
		format = detectDateFormat(dateStr)
		p.dateFormat = format
		p.dateDetected = true
	}
	ts, tz, err := ParseDate(format, dateStr, int(p.lp.Lineno()))
	if err != nil {
		return nil, err
	}
	return &Authorship{Name: name, Email: email, Timestamp: ts, Timezone: tz}, nil
}

// detectDateFormat classifies a DATESTR per the auto-detection rule: two
// space-separated tokens is "raw"; the literal "now" is "now"; anything
// else is assumed "rfc2822" (which then fails loudly when actually used,
// since this implementation doesn't parse that format).
func detectDateFormat(s string) DateFormat {
	if s == "now" {
		return DateFormatNow
	}
	fields := bytes.Fields([]byte(s))
	if len(fields) == 2 {
		return DateFormatRaw
	}
	return DateFormatRFC2822
}
