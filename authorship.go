package fastimport

import (
	"bytes"
	"regexp"
	"strconv"
)

// Authorship is the (name, email, timestamp, timezone) quadruple that
// appears in author/committer/tagger lines. Instances are immutable after
// construction.
type Authorship struct {
	Name      []byte
	Email     []byte
	Timestamp float64
	Timezone  int32 // seconds offset from UTC
}

// whoAndWhenRE matches "NAME <EMAIL> WHEN"; the name part ([^<]*) may be
// empty because git-fast-export doesn't always emit one.
var whoAndWhenRE = regexp.MustCompile(`^([^<]*)<([^>]*)> (.+)$`)
var whoRE = regexp.MustCompile(`^([^<]*)<([^>]*)>\s*$`)

// FormatWhoWhen renders an Authorship as it appears on the wire:
// "name <email> ts tz", omitting the space before "<" when name is empty.
func FormatWhoWhen(a Authorship) []byte {
	var buf bytes.Buffer
	if len(a.Name) > 0 {
		buf.Write(a.Name)
		buf.WriteByte(' ')
	}
	buf.WriteByte('<')
	buf.Write(a.Email)
	buf.WriteString("> ")
	buf.WriteString(formatTimestamp(a.Timestamp))
	buf.WriteByte(' ')
	buf.WriteString(FormatTimezone(a.Timezone))
	return buf.Bytes()
}

func formatTimestamp(ts float64) string {
	i := int64(ts)
	if float64(i) == ts {
		return strconv.FormatInt(i, 10)
	}
	// Fractional seconds are accepted on parse but git-fast-import always
	// emits whole seconds; keep the integer rendering for round-trips of
	// producer-emitted streams and fall back to the shortest decimal form
	// otherwise.
	return strconv.FormatFloat(ts, 'f', -1, 64)
}
