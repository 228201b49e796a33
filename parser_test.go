package fastimport

import (
	"bytes"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func parseAll(t *testing.T, src string) []Command {
	t.Helper()
	p := NewImportParser(bytes.NewBufferString(src))
	var cmds []Command
	for {
		c, err := p.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if cm, ok := c.(*Commit); ok {
			if _, err := cm.Files(); err != nil {
				t.Fatalf("Files: %v", err)
			}
		}
		cmds = append(cmds, c)
	}
	return cmds
}

func serializeAll(t *testing.T, cmds []Command) string {
	t.Helper()
	var buf bytes.Buffer
	for i, c := range cmds {
		if i > 0 {
			buf.WriteByte('\n')
		}
		b, err := c.Serialize()
		if err != nil {
			t.Fatalf("Serialize: %v", err)
		}
		buf.Write(b)
	}
	return buf.String()
}

// S1: round-trip blob.
func TestParseBlobRoundTrip(t *testing.T) {
	input := "blob\nmark :1\ndata 11\nhello world"
	cmds := parseAll(t, input)
	if len(cmds) != 1 {
		t.Fatalf("got %d commands, want 1", len(cmds))
	}
	b, ok := cmds[0].(*Blob)
	if !ok {
		t.Fatalf("got %T, want *Blob", cmds[0])
	}
	if string(b.Mark) != "1" || string(b.Data) != "hello world" {
		t.Fatalf("got mark=%q data=%q", b.Mark, b.Data)
	}
	out := serializeAll(t, cmds)
	if out != input {
		t.Fatalf("serialize mismatch:\ngot:  %q\nwant: %q", out, input)
	}
}

// S2: commit with author, merges; round-trips byte for byte.
func TestParseCommitWithMerges(t *testing.T) {
	input := "commit refs/heads/master\n" +
		"mark :ddd\n" +
		"committer Joe Wong <joe@example.com> 1234567890 -0600\n" +
		"data 12\n" +
		"release v1.0\n" +
		"from :aaa\n" +
		"merge :bbb\n" +
		"merge :ccc"
	cmds := parseAll(t, input)
	if len(cmds) != 1 {
		t.Fatalf("got %d commands, want 1", len(cmds))
	}
	c, ok := cmds[0].(*Commit)
	if !ok {
		t.Fatalf("got %T, want *Commit", cmds[0])
	}
	want := &Commit{
		Ref:       []byte("refs/heads/master"),
		Mark:      Mark("ddd"),
		Committer: Authorship{Name: []byte("Joe Wong"), Email: []byte("joe@example.com"), Timestamp: 1234567890, Timezone: -21600},
		Message:   []byte("release v1.0"),
		From:      []byte(":aaa"),
		Merges:    [][]byte{[]byte(":bbb"), []byte(":ccc")},
		Lineno:    1,
	}
	ops, _ := c.Files()
	if len(ops) != 0 {
		t.Fatalf("got %d file-ops, want 0", len(ops))
	}
	opts := []cmp.Option{
		cmpopts.IgnoreFields(Commit{}, "FileOps", "Properties"),
	}
	if diff := cmp.Diff(want, c, opts...); diff != "" {
		t.Fatalf("commit mismatch (-want +got):\n%s", diff)
	}

	out := serializeAll(t, cmds)
	if out != input {
		t.Fatalf("serialize mismatch:\ngot:  %q\nwant: %q", out, input)
	}
}

// S3: delimited data section.
func TestParseDelimitedData(t *testing.T) {
	input := "commit refs/heads/master\n" +
		"committer Joe Wong <joe@example.com> 1234567890 -0600\n" +
		"data <<EOF\n" +
		"Line one\n" +
		"Line two\n" +
		"EOF\n"
	cmds := parseAll(t, input)
	c, ok := cmds[0].(*Commit)
	if !ok {
		t.Fatalf("got %T, want *Commit", cmds[0])
	}
	want := "Line one\nLine two\n"
	if string(c.Message) != want {
		t.Fatalf("got message %q, want %q", c.Message, want)
	}
}

func TestParseFileOps(t *testing.T) {
	input := "commit refs/heads/master\n" +
		"committer Joe Wong <joe@example.com> 1234567890 -0600\n" +
		"data 0\n" +
		"\n" +
		"M 100644 :1 doc/README.txt\n" +
		"D doc/index.txt\n" +
		"deleteall\n"
	cmds := parseAll(t, input)
	c := cmds[0].(*Commit)
	ops, err := c.Files()
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(ops) != 3 {
		t.Fatalf("got %d ops, want 3", len(ops))
	}
	m, ok := ops[0].(*Modify)
	if !ok || string(m.Path) != "doc/README.txt" || string(m.DataRef) != ":1" || m.Mode != ModeFile {
		t.Fatalf("unexpected modify op: %+v", ops[0])
	}
	d, ok := ops[1].(*Delete)
	if !ok || string(d.Path) != "doc/index.txt" {
		t.Fatalf("unexpected delete op: %+v", ops[1])
	}
	if _, ok := ops[2].(*DeleteAll); !ok {
		t.Fatalf("unexpected op: %+v", ops[2])
	}
}

func TestParseQuotedPath(t *testing.T) {
	input := "commit refs/heads/master\n" +
		"committer Joe Wong <joe@example.com> 1234567890 -0600\n" +
		"data 0\n" +
		"\n" +
		`M 100644 :1 "quoted path.txt"` + "\n"
	cmds := parseAll(t, input)
	c := cmds[0].(*Commit)
	ops, _ := c.Files()
	m := ops[0].(*Modify)
	if string(m.Path) != "quoted path.txt" {
		t.Fatalf("got path %q", m.Path)
	}
}

func TestInvalidCommandFails(t *testing.T) {
	p := NewImportParser(bytes.NewBufferString("bogus line\n"))
	_, err := p.Next()
	if err == nil {
		t.Fatal("expected error")
	}
	if _, ok := err.(*InvalidCommandError); !ok {
		t.Fatalf("got %T, want *InvalidCommandError", err)
	}
}

func TestPrematureEndOfStreamAfterDoneFeature(t *testing.T) {
	p := NewImportParser(bytes.NewBufferString("feature done\nprogress hi\n"))
	if _, err := p.Next(); err != nil {
		t.Fatalf("Next (feature): %v", err)
	}
	if _, err := p.Next(); err != nil {
		t.Fatalf("Next (progress): %v", err)
	}
	_, err := p.Next()
	if _, ok := err.(*PrematureEndOfStreamError); !ok {
		t.Fatalf("got %v (%T), want *PrematureEndOfStreamError", err, err)
	}
}

func TestPropertyValueContinuation(t *testing.T) {
	input := "commit refs/heads/master\n" +
		"committer Joe Wong <joe@example.com> 1234567890 -0600\n" +
		"data 0\n" +
		"\n" +
		"property my-prop 11 hello\n" +
		"world\n"
	cmds := parseAll(t, input)
	c := cmds[0].(*Commit)
	v := c.Properties["my-prop"]
	if v == nil {
		t.Fatalf("missing property")
	}
	if string(*v) != "hello\nworld" {
		t.Fatalf("got %q, want %q", *v, "hello\nworld")
	}
}
