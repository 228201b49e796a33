package fastimport

import (
	"bytes"
	"regexp"
	"strconv"
)

// QuirksExtraSpaceAfterQuote reproduces an ancient git-fast-import bug
// workaround: some very old consumers (git <= 1.5.4.3) need one extra
// space after a closing path quote. Off by default; flip it on only if
// you know you're feeding such a consumer.
var QuirksExtraSpaceAfterQuote = false

// CheckPath validates a path per the wire format's invariants: non-empty,
// does not start with "/". Paths are opaque bytes end to end.
func CheckPath(p []byte) error {
	if len(p) == 0 || p[0] == '/' {
		return &IllegalPathError{Path: string(p)}
	}
	return nil
}

// FormatPath quotes p for emission if it contains an LF, starts with a
// double quote, or (when quoteSpaces is true, for the first path of an
// R/C pair) contains a space.
func FormatPath(p []byte, quoteSpaces bool) []byte {
	quote := false
	if bytes.IndexByte(p, '\n') >= 0 {
		p = bytes.ReplaceAll(p, []byte("\n"), []byte(`\n`))
		quote = true
	} else if len(p) > 0 && p[0] == '"' {
		quote = true
	} else if quoteSpaces && bytes.IndexByte(p, ' ') >= 0 {
		quote = true
	}
	if !quote {
		return p
	}
	var buf bytes.Buffer
	buf.WriteByte('"')
	buf.Write(p)
	buf.WriteByte('"')
	if QuirksExtraSpaceAfterQuote {
		buf.WriteByte(' ')
	}
	return buf.Bytes()
}

// escapeSequenceRE mirrors fastimport.parser's ESCAPE_SEQUENCE_BYTES_RE:
// \U........, \u...., \x.., octal \[0-7]{1,3}, named \N{...}, and the
// single-character escapes.
var escapeSequenceRE = regexp.MustCompile(
	`\\U[0-9A-Fa-f]{8}` +
		`|\\u[0-9A-Fa-f]{4}` +
		`|\\x[0-9A-Fa-f]{2}` +
		`|\\[0-7]{1,3}` +
		`|\\N\{[^}]+\}` +
		`|\\[\\'"abfnrtv]`,
)

var namedEscapeRE = regexp.MustCompile(`^\\N\{([^}]+)\}$`)

// UnquoteCString decodes C-style escape sequences produced by
// git-fast-export: \U........, \u...., \x.., octal \NNN, and the
// single-char escapes \\ \' \" \a \b \f \n \r \t \v. A named \N{NAME}
// sequence is matched but not decoded: it is left in the output as
// written. Bytes that don't match
// any escape pass through verbatim, so this is safe to run over paths that
// happen to contain literal backslashes outside of an intended escape.
func UnquoteCString(s []byte) []byte {
	return escapeSequenceRE.ReplaceAllFunc(s, decodeEscape)
}

func decodeEscape(m []byte) []byte {
	switch {
	case m[1] == 'U' && len(m) == 10:
		return decodeHexRune(m[2:])
	case m[1] == 'u' && len(m) == 6:
		return decodeHexRune(m[2:])
	case m[1] == 'x' && len(m) == 4:
		n, err := strconv.ParseUint(string(m[2:]), 16, 8)
		if err != nil {
			return m
		}
		return []byte{byte(n)}
	case m[1] == 'N':
		// \N{NAME} - unicode name escapes have no practical occurrence in
		// git paths/messages; pass through unchanged since we have no
		// unicode name database to resolve against.
		return m
	case m[1] >= '0' && m[1] <= '7':
		n, err := strconv.ParseUint(string(m[1:]), 8, 8)
		if err != nil {
			return m
		}
		return []byte{byte(n)}
	default:
		switch m[1] {
		case '\\':
			return []byte{'\\'}
		case '\'':
			return []byte{'\''}
		case '"':
			return []byte{'"'}
		case 'a':
			return []byte{'\a'}
		case 'b':
			return []byte{'\b'}
		case 'f':
			return []byte{'\f'}
		case 'n':
			return []byte{'\n'}
		case 'r':
			return []byte{'\r'}
		case 't':
			return []byte{'\t'}
		case 'v':
			return []byte{'\v'}
		}
	}
	return m
}

func decodeHexRune(hexDigits []byte) []byte {
	n, err := strconv.ParseUint(string(hexDigits), 16, 32)
	if err != nil {
		return append([]byte{'\\'}, hexDigits...)
	}
	return []byte(string(rune(n)))
}

// IsInside reports whether fname is inside directory. The empty directory
// name matches everything (top-of-tree).
func IsInside(directory, fname []byte) bool {
	if bytes.Equal(directory, fname) {
		return true
	}
	if len(directory) == 0 {
		return true
	}
	d := directory
	if d[len(d)-1] != '/' {
		d = append(append([]byte{}, d...), '/')
	}
	return bytes.HasPrefix(fname, d)
}

// IsInsideAny reports whether fname is inside any of dirs.
func IsInsideAny(dirs [][]byte, fname []byte) bool {
	for _, d := range dirs {
		if IsInside(d, fname) {
			return true
		}
	}
	return false
}

// CommonDirectory finds the deepest common directory of a list of paths.
// Returns nil if paths is empty; an empty-but-non-nil slice if there's no
// common directory; otherwise the common directory with a trailing slash.
func CommonDirectory(paths [][]byte) []byte {
	if len(paths) == 0 {
		return nil
	}
	if len(paths) == 1 {
		return dirWithSlash(paths[0])
	}
	common := commonPath(paths[0], paths[1])
	for _, p := range paths[2:] {
		common = commonPath(common, p)
	}
	return dirWithSlash(common)
}

func commonPath(a, b []byte) []byte {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return a[:n]
}

func dirWithSlash(p []byte) []byte {
	if len(p) == 0 || p[len(p)-1] == '/' {
		return p
	}
	i := bytes.LastIndexByte(p, '/')
	if i < 0 {
		return []byte{}
	}
	return p[:i+1]
}
