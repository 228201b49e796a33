// Package filter rewrites a fast-import command stream to include or
// exclude paths, squashing commits left with no file-ops and re-rooting
// survivors under the deepest common directory of the paths kept.
package filter

import (
	"bytes"
	"io"
	"log"

	fastimport "github.com/obinnaokechukwu/fastimport"
)

// Options configures a Filter run.
type Options struct {
	IncludePaths [][]byte
	ExcludePaths [][]byte
	// KeepEmptyCommits disables the default behavior of dropping commits
	// left with no file-ops after filtering (and rewriting descendants'
	// parent links around them). Zero value keeps the spec's default of
	// squashing empty commits.
	KeepEmptyCommits bool
	// Warnings receives one line per non-fatal diagnostic (unknown
	// feature names, dropped drop-keep renames). Defaults to the
	// standard logger when nil.
	Warnings *log.Logger
}

// Filter holds the running state of one filtering pass: buffered blobs
// awaiting their first referencing commit, which commit ids were squashed,
// and the parent graph needed to re-root squashed chains.
type Filter struct {
	opts Options

	blobs    map[string]*fastimport.Blob
	squashed map[string]bool
	parents  map[string][]byte // id -> first parent, or absent for none
	newRoot  []byte
}

// New builds a Filter from opts.
func New(opts Options) *Filter {
	f := &Filter{
		opts:     opts,
		blobs:    make(map[string]*fastimport.Blob),
		squashed: make(map[string]bool),
		parents:  make(map[string][]byte),
	}
	if opts.Warnings == nil {
		f.opts.Warnings = log.Default()
	}
	if len(opts.IncludePaths) > 0 {
		f.newRoot = fastimport.CommonDirectory(opts.IncludePaths)
	}
	return f
}

// Run drains p, writing each surviving command's serialized bytes to w in
// stream order, with a trailing LF after each so callers may concatenate
// multiple Run outputs safely.
func (f *Filter) Run(p *fastimport.ImportParser, w io.Writer) error {
	for {
		cmd, err := p.Next()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		out, err := f.Process(cmd)
		if err != nil {
			return err
		}
		for _, c := range out {
			b, err := c.Serialize()
			if err != nil {
				return err
			}
			if _, err := w.Write(b); err != nil {
				return err
			}
			if _, err := w.Write([]byte("\n")); err != nil {
				return err
			}
		}
	}
}

// Process applies the filtering policy to a single command, returning the
// zero or more commands it should be replaced with, in emission order
// (used to let a kept Modify's buffered blob precede the commit that first
// references it).
func (f *Filter) Process(cmd fastimport.Command) ([]fastimport.Command, error) {
	switch c := cmd.(type) {
	case *fastimport.Progress, *fastimport.Checkpoint:
		return []fastimport.Command{c}, nil
	case *fastimport.Feature:
		if !fastimport.IsKnownFeature(c.Name) {
			f.opts.Warnings.Printf("unknown feature %q", c.Name)
		}
		return []fastimport.Command{c}, nil
	case *fastimport.Blob:
		if c.Mark != nil {
			f.blobs[string(c.Mark)] = c
		}
		return nil, nil
	case *fastimport.Reset:
		return f.processReset(c)
	case *fastimport.Tag:
		return f.processTag(c)
	case *fastimport.Commit:
		return f.processCommit(c)
	default:
		return []fastimport.Command{c}, nil
	}
}

func (f *Filter) processReset(r *fastimport.Reset) ([]fastimport.Command, error) {
	if len(r.From) == 0 {
		return []fastimport.Command{r}, nil
	}
	newFrom := f.findInterestingParent(r.From)
	if newFrom == nil {
		return nil, nil
	}
	return []fastimport.Command{&fastimport.Reset{Ref: r.Ref, From: newFrom}}, nil
}

func (f *Filter) processTag(t *fastimport.Tag) ([]fastimport.Command, error) {
	if len(t.From) == 0 {
		return []fastimport.Command{t}, nil
	}
	newFrom := f.findInterestingParent(t.From)
	if newFrom == nil {
		return nil, nil
	}
	nt := *t
	nt.From = newFrom
	return []fastimport.Command{&nt}, nil
}

func (f *Filter) processCommit(c *fastimport.Commit) ([]fastimport.Command, error) {
	ops, err := c.Files()
	if err != nil {
		return nil, err
	}

	var kept []fastimport.FileOp
	var blobsToEmit []fastimport.Command
	for _, op := range ops {
		newOp, blob, err := f.filterOp(op)
		if err != nil {
			return nil, err
		}
		if newOp != nil {
			kept = append(kept, newOp)
			if blob != nil {
				blobsToEmit = append(blobsToEmit, blob)
			}
		}
	}
	if len(kept) == 1 {
		if _, ok := kept[0].(*fastimport.DeleteAll); ok {
			kept = nil
		}
	}

	id := c.ID()
	if len(kept) == 0 && !f.opts.KeepEmptyCommits {
		f.squashed[string(id)] = true
		if len(c.From) > 0 {
			f.parents[string(id)] = c.From
		}
		return nil, nil
	}

	nc := *c
	nc.FileOps = fastimport.NewFileOps(kept)
	if len(c.From) > 0 {
		nc.From = f.findInterestingParent(c.From)
	}
	newMerges := make([][]byte, 0, len(c.Merges))
	for _, m := range c.Merges {
		if nm := f.findInterestingParent(m); nm != nil {
			newMerges = append(newMerges, nm)
		}
	}
	nc.Merges = newMerges
	if len(nc.From) > 0 {
		f.parents[string(id)] = nc.From
	}

	return append(blobsToEmit, &nc), nil
}

// filterOp applies the per-op keep/drop/rewrite policy. When the op
// references a buffered blob by mark for the first time, that Blob is
// returned as well so the caller can emit it immediately before the
// commit.
func (f *Filter) filterOp(op fastimport.FileOp) (fastimport.FileOp, fastimport.Command, error) {
	switch o := op.(type) {
	case *fastimport.Modify:
		if !f.keep(o.Path) {
			return nil, nil, nil
		}
		no := *o
		no.Path = f.reroot(o.Path)
		var blob fastimport.Command
		if len(o.DataRef) > 0 && o.DataRef[0] == ':' && !fastimport.IsDirectory(o.Mode) {
			if b, ok := f.blobs[string(o.DataRef[1:])]; ok {
				blob = b
				delete(f.blobs, string(o.DataRef[1:]))
			}
		}
		return &no, blob, nil
	case *fastimport.Delete:
		if !f.keep(o.Path) {
			return nil, nil, nil
		}
		return &fastimport.Delete{Path: f.reroot(o.Path)}, nil, nil
	case *fastimport.DeleteAll:
		return o, nil, nil
	case *fastimport.Rename:
		keepOld, keepNew := f.keep(o.OldPath), f.keep(o.NewPath)
		switch {
		case keepOld && keepNew:
			return &fastimport.Rename{OldPath: f.reroot(o.OldPath), NewPath: f.reroot(o.NewPath)}, nil, nil
		case keepOld && !keepNew:
			return &fastimport.Delete{Path: f.reroot(o.OldPath)}, nil, nil
		case !keepOld && keepNew:
			f.opts.Warnings.Printf("rename of excluded path %q to included path %q dropped (file promotion not implemented)", o.OldPath, o.NewPath)
			return nil, nil, nil
		default:
			return nil, nil, nil
		}
	case *fastimport.Copy:
		keepSrc, keepDest := f.keep(o.SrcPath), f.keep(o.DestPath)
		switch {
		case keepSrc && keepDest:
			return &fastimport.Copy{SrcPath: f.reroot(o.SrcPath), DestPath: f.reroot(o.DestPath)}, nil, nil
		case !keepSrc && keepDest:
			f.opts.Warnings.Printf("copy from excluded path %q to included path %q dropped (file promotion not implemented)", o.SrcPath, o.DestPath)
			return nil, nil, nil
		default:
			return nil, nil, nil
		}
	case *fastimport.NoteModify:
		return o, nil, nil
	default:
		return op, nil, nil
	}
}

// keep implements _path_to_be_kept: excludes win over includes, and an
// empty includes list means "everything not excluded".
func (f *Filter) keep(p []byte) bool {
	if len(f.opts.ExcludePaths) > 0 && isInSet(f.opts.ExcludePaths, p) {
		return false
	}
	if len(f.opts.IncludePaths) > 0 && !isInSet(f.opts.IncludePaths, p) {
		return false
	}
	return true
}

func isInSet(set [][]byte, p []byte) bool {
	for _, s := range set {
		if bytes.Equal(s, p) {
			return true
		}
	}
	return fastimport.IsInsideAny(set, p)
}

func (f *Filter) reroot(p []byte) []byte {
	if len(f.newRoot) == 0 {
		return p
	}
	if bytes.HasPrefix(p, f.newRoot) {
		return p[len(f.newRoot):]
	}
	return p
}

// findInterestingParent walks parents[id] while id names a squashed
// commit, stopping at the first non-squashed ancestor or at the root of
// the chain (returning nil).
func (f *Filter) findInterestingParent(id []byte) []byte {
	cur := id
	for len(cur) > 0 && f.squashed[string(cur)] {
		next, ok := f.parents[string(cur)]
		if !ok {
			return nil
		}
		cur = next
	}
	if len(cur) == 0 {
		return nil
	}
	return cur
}
