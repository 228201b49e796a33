package fastimport

import (
	"testing"
)

func TestFormatWhoWhenEmptyName(t *testing.T) {
	a := Authorship{Email: []byte("joe@example.com"), Timestamp: 1234567890, Timezone: -21600}
	got := string(FormatWhoWhen(a))
	want := "<joe@example.com> 1234567890 -0600"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestFormatTimezone(t *testing.T) {
	cases := []struct {
		off  int32
		want string
	}{
		{0, "+0000"},
		{-21600, "-0600"},
		{19800, "+0530"},
	}
	for _, c := range cases {
		if got := FormatTimezone(c.off); got != c.want {
			t.Fatalf("FormatTimezone(%d) = %q, want %q", c.off, got, c.want)
		}
	}
}

func TestParseTimezoneRoundTrip(t *testing.T) {
	for _, s := range []string{"+0000", "-0600", "+0530"} {
		off, err := ParseTimezone(s)
		if err != nil {
			t.Fatalf("ParseTimezone(%q): %v", s, err)
		}
		if got := FormatTimezone(off); got != s {
			t.Fatalf("round trip %q -> %d -> %q", s, off, got)
		}
	}
}

func TestModeCodec(t *testing.T) {
	cases := []struct {
		in   string
		want uint32
	}{
		{"644", ModeFile},
		{"100644", ModeFile},
		{"0100644", ModeFile},
		{"755", ModeExecutable},
		{"040000", ModeDirectory},
		{"120000", ModeSymlink},
		{"160000", ModeSubmodule},
	}
	for _, c := range cases {
		got, err := ParseMode(c.in)
		if err != nil {
			t.Fatalf("ParseMode(%q): %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("ParseMode(%q) = %o, want %o", c.in, got, c.want)
		}
	}
	for mode, want := range map[uint32]string{
		ModeFile:       "644",
		ModeExecutable: "755",
		ModeDirectory:  "040000",
		ModeSymlink:    "120000",
		ModeSubmodule:  "160000",
	} {
		got, err := FormatMode(mode)
		if err != nil {
			t.Fatalf("FormatMode(%o): %v", mode, err)
		}
		if got != want {
			t.Fatalf("FormatMode(%o) = %q, want %q", mode, got, want)
		}
	}
}

func TestCheckPath(t *testing.T) {
	if err := CheckPath([]byte("a/b")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := CheckPath(nil); err == nil {
		t.Fatal("expected error for empty path")
	}
	if err := CheckPath([]byte("/abs")); err == nil {
		t.Fatal("expected error for absolute path")
	}
}

func TestFormatPathQuotesQuoteByte(t *testing.T) {
	got := string(FormatPath([]byte(`"weird`), false))
	want := `""weird"`
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestFormatPathQuotesEmbeddedLF(t *testing.T) {
	got := string(FormatPath([]byte("a\nb"), false))
	want := `"a\nb"`
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestUnquoteCString(t *testing.T) {
	cases := []struct{ in, want string }{
		{`a\tb`, "a\tb"},
		{`a\x41b`, "aAb"},
		{`a\101b`, "aAb"},
		{`no\zescape here`, "no\\zescape here"},
	}
	for _, c := range cases {
		got := string(UnquoteCString([]byte(c.in)))
		if got != c.want {
			t.Fatalf("UnquoteCString(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestCommonDirectory(t *testing.T) {
	got := CommonDirectory([][]byte{[]byte("doc/README.txt")})
	if string(got) != "doc/" {
		t.Fatalf("got %q, want %q", got, "doc/")
	}
	got = CommonDirectory([][]byte{[]byte("doc/a.txt"), []byte("doc/b.txt")})
	if string(got) != "doc/" {
		t.Fatalf("got %q, want %q", got, "doc/")
	}
	if got := CommonDirectory(nil); got != nil {
		t.Fatalf("expected nil for empty input, got %q", got)
	}
}

func TestResetSerializationMandatoryTrailingLF(t *testing.T) {
	r := &Reset{Ref: []byte("refs/heads/master"), From: []byte(":1")}
	b, err := r.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	want := "reset refs/heads/master\nfrom :1\n"
	if string(b) != want {
		t.Fatalf("got %q, want %q", b, want)
	}
}

func TestBlobSerializeNoMark(t *testing.T) {
	b := &Blob{Data: []byte("hi")}
	out, err := b.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	want := "blob\ndata 2\nhi"
	if string(out) != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}

func TestModifyDirectoryAlwaysDashDataref(t *testing.T) {
	m := &Modify{Path: []byte("sub"), Mode: ModeDirectory, DataRef: []byte(":99")}
	out, err := m.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	want := "M 040000 - sub"
	if string(out) != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}
