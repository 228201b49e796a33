// Package info accumulates statistics about a fast-import stream without
// importing anything: command and file-op tallies, parent-count
// histograms, blob usage classification, and head tracking. It is a
// read-only pass, useful both as a sanity check before a real import and
// as a throughput benchmark for the parser itself.
package info

import (
	"fmt"
	"io"
	"sort"
	"strings"

	fastimport "github.com/obinnaokechukwu/fastimport"
	"github.com/obinnaokechukwu/fastimport/reftracker"
)

var commandNames = []string{"blob", "commit", "reset", "tag", "feature", "progress", "checkpoint"}
var fileCommandNames = []string{"filemodify", "filedelete", "filerename", "filecopy", "filedeleteall", "filenote"}

// Stats accumulates the statistics gathered from one pass over a stream.
type Stats struct {
	CmdCounts     map[string]int
	FileCmdCounts map[string]int
	ParentCounts  map[int]int
	MaxParentCnt  int

	SeparateAuthorsFound bool
	SymlinksFound        bool
	ExecutablesFound     bool
	ShaBlobReferences    bool
	LightweightTags      int

	// Blob usage, keyed by mark without the leading ':'. A marked blob
	// starts in BlobNew; its first reference moves it to BlobUsed, its
	// second moves it from BlobUsed into BlobRefCnt with a count of 2, and
	// each later reference bumps that count. A reference to a mark never
	// defined lands in BlobUnknown. Unmarked blobs are recorded in
	// BlobUnmark under their synthetic id. Re-marking (reusing a mark)
	// puts it back in BlobNew and drops it from BlobUsed, but leaves any
	// BlobRefCnt or BlobUnknown entry in place.
	BlobNew     map[string]bool
	BlobUsed    map[string]bool
	BlobUnknown map[string]bool
	BlobUnmark  map[string]bool
	BlobRefCnt  map[string]int

	Merges          map[string]int
	RenameOldPaths  map[string]map[string]bool
	CopySourcePaths map[string]map[string]bool

	Tracker *reftracker.Tracker
}

// New returns a Stats ready to accumulate from the start of a stream.
func New() *Stats {
	s := &Stats{
		CmdCounts:       make(map[string]int),
		FileCmdCounts:   make(map[string]int),
		ParentCounts:    make(map[int]int),
		BlobNew:         make(map[string]bool),
		BlobUsed:        make(map[string]bool),
		BlobUnknown:     make(map[string]bool),
		BlobUnmark:      make(map[string]bool),
		BlobRefCnt:      make(map[string]int),
		Merges:          make(map[string]int),
		RenameOldPaths:  make(map[string]map[string]bool),
		CopySourcePaths: make(map[string]map[string]bool),
		Tracker:         reftracker.New(),
	}
	for _, c := range commandNames {
		s.CmdCounts[c] = 0
	}
	for _, c := range fileCommandNames {
		s.FileCmdCounts[c] = 0
	}
	return s
}

// Collect runs p to completion, folding every command into s.
func Collect(p *fastimport.ImportParser, s *Stats) error {
	for {
		cmd, err := p.Next()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if err := s.observe(cmd); err != nil {
			return err
		}
	}
}

// Observe folds a single already-parsed command into s. Collect is the
// usual entry point; Observe is exposed for callers that need to
// interleave something else (e.g. dumping the command) with each step of
// the loop.
func (s *Stats) Observe(cmd fastimport.Command) error {
	return s.observe(cmd)
}

func (s *Stats) observe(cmd fastimport.Command) error {
	switch c := cmd.(type) {
	case *fastimport.Blob:
		s.CmdCounts["blob"]++
		if c.Mark == nil {
			s.BlobUnmark[string(c.ID())] = true
		} else {
			mark := string(c.Mark)
			s.BlobNew[mark] = true
			delete(s.BlobUsed, mark)
		}
	case *fastimport.Progress:
		s.CmdCounts["progress"]++
	case *fastimport.Checkpoint:
		s.CmdCounts["checkpoint"]++
	case *fastimport.Feature:
		s.CmdCounts["feature"]++
		if !fastimport.IsKnownFeature(c.Name) {
			fmt.Fprintf(diagSink, "feature %s is not supported - parsing may fail\n", c.Name)
		}
	case *fastimport.Reset:
		s.CmdCounts["reset"]++
		if strings.HasPrefix(string(c.Ref), "refs/tags/") {
			s.LightweightTags++
		} else if len(c.From) > 0 {
			s.Tracker.TrackHeadsForRef(c.Ref, c.From, nil)
		}
	case *fastimport.Tag:
		s.CmdCounts["tag"]++
	case *fastimport.Commit:
		return s.observeCommit(c)
	}
	return nil
}

func (s *Stats) observeCommit(c *fastimport.Commit) error {
	s.CmdCounts["commit"]++
	if c.Author != nil {
		s.SeparateAuthorsFound = true
	}
	ops, err := c.Files()
	if err != nil {
		return err
	}
	id := string(c.ID())
	for _, op := range ops {
		switch fc := op.(type) {
		case *fastimport.Modify:
			s.FileCmdCounts["filemodify"]++
			if fc.Mode&0o111 != 0 {
				s.ExecutablesFound = true
			}
			if fc.Mode == fastimport.ModeSymlink {
				s.SymlinksFound = true
			}
			if len(fc.DataRef) > 0 {
				if fc.DataRef[0] == ':' {
					s.trackBlob(string(fc.DataRef[1:]))
				} else {
					s.ShaBlobReferences = true
				}
			}
		case *fastimport.Delete:
			s.FileCmdCounts["filedelete"]++
		case *fastimport.Rename:
			s.FileCmdCounts["filerename"]++
			if s.RenameOldPaths[id] == nil {
				s.RenameOldPaths[id] = make(map[string]bool)
			}
			s.RenameOldPaths[id][string(fc.OldPath)] = true
		case *fastimport.Copy:
			s.FileCmdCounts["filecopy"]++
			if s.CopySourcePaths[id] == nil {
				s.CopySourcePaths[id] = make(map[string]bool)
			}
			s.CopySourcePaths[id][string(fc.SrcPath)] = true
		case *fastimport.DeleteAll:
			s.FileCmdCounts["filedeleteall"]++
		case *fastimport.NoteModify:
			s.FileCmdCounts["filenote"]++
		}
	}

	parents := s.Tracker.TrackHeads(c)
	s.ParentCounts[len(parents)]++
	if len(parents) > s.MaxParentCnt {
		s.MaxParentCnt = len(parents)
	}
	for _, m := range c.Merges {
		s.Merges[string(m)]++
	}
	return nil
}

func (s *Stats) trackBlob(mark string) {
	if _, ok := s.BlobRefCnt[mark]; ok {
		s.BlobRefCnt[mark]++
		return
	}
	if s.BlobUsed[mark] {
		s.BlobRefCnt[mark] = 2
		delete(s.BlobUsed, mark)
		return
	}
	if s.BlobNew[mark] {
		s.BlobUsed[mark] = true
		delete(s.BlobNew, mark)
		return
	}
	s.BlobUnknown[mark] = true
}

// diagSink is where non-fatal parse diagnostics go; Collect's caller can
// point a CLI's stderr at it via SetDiagnosticSink.
var diagSink io.Writer = discard{}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

// SetDiagnosticSink redirects the warnings Collect emits for unsupported
// features. Pass nil to silence them again.
func SetDiagnosticSink(w io.Writer) {
	if w == nil {
		diagSink = discard{}
		return
	}
	diagSink = w
}

// Write renders the accumulated statistics to w. In verbose mode the
// output is an ini-style config block per section (so another tool can
// load it back); in normal mode it's a human-readable tab-indented
// listing, matching the two historical output modes of this analyzer.
func (s *Stats) Write(w io.Writer, verbose int) {
	dumpGroup(w, verbose, "Command counts", pairsFromMap(s.CmdCounts, commandNames))
	dumpGroup(w, verbose, "File command counts", pairsFromMap(s.FileCmdCounts, fileCommandNames))

	if s.CmdCounts["commit"] > 0 {
		var pItems []kv
		for i := 0; i <= s.MaxParentCnt; i++ {
			if n, ok := s.ParentCounts[i]; ok {
				pItems = append(pItems, kv{fmt.Sprintf("parents-%d", i), n})
			}
		}
		pItems = append(pItems, kv{"total revisions merged", len(s.Merges)})
		dumpGroup(w, verbose, "Parent counts", pItems)

		flags := []kvBool{
			{"blobs referenced by SHA", s.ShaBlobReferences},
			{"executables", s.ExecutablesFound},
			{"separate authors found", s.SeparateAuthorsFound},
			{"symlinks", s.SymlinksFound},
		}
		sort.Slice(flags, func(i, j int) bool { return flags[i].name < flags[j].name })
		dumpGroupFound(w, verbose, "Commit analysis", flags)

		heads := invertHeads(s.Tracker)
		var headItems []kvStr
		for id, refs := range heads {
			sort.Strings(refs)
			headItems = append(headItems, kvStr{id, strings.Join(refs, ", ")})
		}
		sort.Slice(headItems, func(i, j int) bool { return headItems[i].name < headItems[j].name })
		dumpGroupStr(w, verbose, "Head analysis", headItems)

		var mergeItems []kv
		for id, n := range s.Merges {
			mergeItems = append(mergeItems, kv{id, n})
		}
		sort.Slice(mergeItems, func(i, j int) bool { return mergeItems[i].name < mergeItems[j].name })
		dumpGroup(w, verbose, "Merges", mergeItems)

		if verbose >= 2 {
			dumpGroupSets(w, verbose, "Rename old paths", s.RenameOldPaths)
			dumpGroupSets(w, verbose, "Copy source paths", s.CopySourcePaths)
		}
	}

	if s.CmdCounts["blob"] > 0 {
		items := []kv{{"new", len(s.BlobNew)}}
		if verbose == 0 {
			items = append(items, kv{"used", len(s.BlobUsed)})
		}
		items = append(items,
			kv{"unknown", len(s.BlobUnknown)},
			kv{"unmarked", len(s.BlobUnmark)},
		)
		dumpGroup(w, verbose, "Blob usage tracking", items)
	}
	if len(s.BlobRefCnt) > 0 {
		byCount := make(map[int][]string)
		for mark, n := range s.BlobRefCnt {
			byCount[n] = append(byCount[n], mark)
		}
		var items []kvInt
		for n, marks := range byCount {
			items = append(items, kvInt{n, marks})
		}
		sort.Slice(items, func(i, j int) bool { return items[i].n < items[j].n })
		var out []kv
		for _, it := range items {
			out = append(out, kv{fmt.Sprintf("%d", it.n), len(it.marks)})
		}
		dumpGroup(w, verbose, "Blob reference counts", out)
	}

	if s.CmdCounts["reset"] > 0 {
		dumpGroup(w, verbose, "Reset analysis", []kv{{"lightweight tags", s.LightweightTags}})
	}
}

type kv struct {
	name string
	n    int
}
type kvStr struct{ name, value string }
type kvBool struct {
	name string
	val  bool
}
type kvInt struct {
	n     int
	marks []string
}

func pairsFromMap(m map[string]int, order []string) []kv {
	out := make([]kv, 0, len(order))
	for _, k := range order {
		out = append(out, kv{k, m[k]})
	}
	return out
}

func dumpGroup(w io.Writer, verbose int, title string, items []kv) {
	if verbose != 0 {
		fmt.Fprintf(w, "[%s]\n", title)
		for _, it := range items {
			fmt.Fprintf(w, "%s = %d\n", strings.ReplaceAll(it.name, " ", "-"), it.n)
		}
		fmt.Fprintln(w)
		return
	}
	fmt.Fprintf(w, "%s:\n", title)
	for _, it := range items {
		fmt.Fprintf(w, "\t%d\t%s\n", it.n, it.name)
	}
}

func dumpGroupFound(w io.Writer, verbose int, title string, items []kvBool) {
	if verbose != 0 {
		fmt.Fprintf(w, "[%s]\n", title)
		for _, it := range items {
			fmt.Fprintf(w, "%s = %s\n", strings.ReplaceAll(it.name, " ", "-"), foundStr(it.val))
		}
		fmt.Fprintln(w)
		return
	}
	fmt.Fprintf(w, "%s:\n", title)
	for _, it := range items {
		fmt.Fprintf(w, "\t%s\t%s\n", foundStr(it.val), it.name)
	}
}

func dumpGroupStr(w io.Writer, verbose int, title string, items []kvStr) {
	if verbose != 0 {
		fmt.Fprintf(w, "[%s]\n", title)
		for _, it := range items {
			fmt.Fprintf(w, "%s = %s\n", strings.ReplaceAll(it.name, " ", "-"), it.value)
		}
		fmt.Fprintln(w)
		return
	}
	fmt.Fprintf(w, "%s:\n", title)
	for _, it := range items {
		fmt.Fprintf(w, "\t%s\t%s\n", it.value, it.name)
	}
}

func dumpGroupSets(w io.Writer, verbose int, title string, m map[string]map[string]bool) {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	if verbose != 0 {
		fmt.Fprintf(w, "[%s]\n", title)
		for _, id := range ids {
			fmt.Fprintf(w, "%s = %s\n", id, asConfigList(m[id]))
		}
		fmt.Fprintln(w)
		return
	}
	fmt.Fprintf(w, "%s:\n", title)
	for _, id := range ids {
		fmt.Fprintf(w, "\t%d\t%s\n", len(m[id]), id)
	}
}

func asConfigList(s map[string]bool) string {
	items := make([]string, 0, len(s))
	for v := range s {
		items = append(items, v)
	}
	sort.Strings(items)
	if len(items) == 1 {
		return items[0] + ","
	}
	return strings.Join(items, ", ")
}

func foundStr(b bool) string {
	if b {
		return "found"
	}
	return "no"
}

func invertHeads(t *reftracker.Tracker) map[string][]string {
	return t.AllHeads()
}
