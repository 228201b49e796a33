package filter

import (
	"bytes"
	"strings"
	"testing"

	fastimport "github.com/obinnaokechukwu/fastimport"
)

func runFilter(t *testing.T, opts Options, stream string) string {
	t.Helper()
	f := New(opts)
	p := fastimport.NewImportParser(strings.NewReader(stream))
	var out bytes.Buffer
	if err := f.Run(p, &out); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return out.String()
}

// S4: include a single file re-roots paths and drops everything else.
func TestFilterIncludeSingleFile(t *testing.T) {
	stream := `blob
mark :1
data 4
doc1
commit refs/heads/master
mark :100
committer J <j@example.com> 1234567890 +0000
data 9
add files
M 100644 :1 doc/README.txt
M 100644 :1 doc/index.txt
M 100644 :1 NEWS
blob
mark :2
data 4
doc2
commit refs/heads/master
mark :101
committer J <j@example.com> 1234567891 +0000
data 13
update readme
from :100
M 100644 :2 doc/README.txt
`
	out := runFilter(t, Options{IncludePaths: [][]byte{[]byte("doc/README.txt")}}, stream)

	if !strings.Contains(out, "M 100644 :1 README.txt") {
		t.Errorf("expected rewritten path README.txt, got:\n%s", out)
	}
	if strings.Contains(out, "doc/index.txt") || strings.Contains(out, "NEWS") {
		t.Errorf("expected excluded paths to be dropped, got:\n%s", out)
	}
	if !strings.Contains(out, "from :100") {
		t.Errorf("expected second commit to still parent on :100, got:\n%s", out)
	}
}

// S5: a rename crossing the include boundary becomes a Delete.
func TestFilterRenameAcrossBoundaryBecomesDelete(t *testing.T) {
	stream := `blob
mark :1
data 4
text
commit refs/heads/master
mark :100
committer J <j@example.com> 1234567890 +0000
data 4
init
M 100644 :1 doc/README.txt
commit refs/heads/master
mark :101
committer J <j@example.com> 1234567891 +0000
data 6
rename
from :100
R doc/README.txt README
`
	out := runFilter(t, Options{IncludePaths: [][]byte{[]byte("doc/")}}, stream)
	if !strings.Contains(out, "D README.txt") {
		t.Errorf("expected rename to become a delete of the root-adjusted old path, got:\n%s", out)
	}
	if strings.Contains(out, "R ") {
		t.Errorf("rename should not survive a drop-keep boundary crossing, got:\n%s", out)
	}
}

// S6: an empty commit is squashed and a later branch's from is rewritten
// past it to the nearest non-squashed ancestor.
func TestFilterSquashesEmptyCommits(t *testing.T) {
	stream := `blob
mark :1
data 5
hello
commit refs/heads/master
mark :100
committer J <j@example.com> 1234567890 +0000
data 4
init
M 100644 :1 file.txt
commit refs/heads/master
mark :101
committer J <j@example.com> 1234567891 +0000
data 5
empty
from :100
commit refs/heads/topic
mark :102
committer J <j@example.com> 1234567892 +0000
data 6
branch
from :101
M 100644 :1 other.txt
`
	out := runFilter(t, Options{}, stream)
	if strings.Contains(out, "commit :101") || strings.Contains(out, "mark :101") {
		t.Errorf("empty commit :101 should have been squashed, got:\n%s", out)
	}
	if !strings.Contains(out, "from :100") {
		t.Errorf("branch commit should have its from rewritten past the squashed commit to :100, got:\n%s", out)
	}
}

func TestFilterKeepsEmptyCommitsWhenDisabled(t *testing.T) {
	stream := `commit refs/heads/master
mark :100
committer J <j@example.com> 1234567890 +0000
data 4
init
`
	out := runFilter(t, Options{KeepEmptyCommits: true}, stream)
	if !strings.Contains(out, "mark :100") {
		t.Errorf("expected the empty commit to survive with KeepEmptyCommits, got:\n%s", out)
	}
}

func TestIsInsideEmptyDirMatchesEverything(t *testing.T) {
	if !fastimport.IsInside(nil, []byte("any/path.txt")) {
		t.Fatal("empty directory should match every path")
	}
}
