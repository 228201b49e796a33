// Package reftracker maintains the per-ref head state a stream rewriter
// needs to compute parent links without holding the whole commit graph in
// memory: the last commit id touched on each ref, and the set of refs
// currently pointing at each known head.
package reftracker

import fastimport "github.com/obinnaokechukwu/fastimport"

// Tracker mirrors what git-fast-import itself keeps in memory while
// replaying a stream: one cursor per ref, updated strictly in stream
// order.
type Tracker struct {
	lastIDs map[string][]byte
	heads   map[string]map[string]bool
	lastRef string
}

// New returns an empty Tracker.
func New() *Tracker {
	return &Tracker{
		lastIDs: make(map[string][]byte),
		heads:   make(map[string]map[string]bool),
	}
}

// LastID returns the most recent commit id recorded for ref, or nil if ref
// has never been touched.
func (t *Tracker) LastID(ref []byte) []byte {
	return t.lastIDs[string(ref)]
}

// LastRef returns the most recently touched ref name, or nil before the
// first call to TrackHeads/TrackHeadsForRef.
func (t *Tracker) LastRef() []byte {
	if t.lastRef == "" {
		return nil
	}
	return []byte(t.lastRef)
}

// AllHeads returns every known head id mapped to the ref names currently
// pointing at it. Used by analysis passes that need to dump the whole
// table rather than look up one id at a time.
func (t *Tracker) AllHeads() map[string][]string {
	out := make(map[string][]string, len(t.heads))
	for id, set := range t.heads {
		refs := make([]string, 0, len(set))
		for r := range set {
			refs = append(refs, r)
		}
		out[id] = refs
	}
	return out
}

// Heads returns the set of ref names currently pointing at id.
func (t *Tracker) Heads(id []byte) []string {
	set := t.heads[string(id)]
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for r := range set {
		out = append(out, r)
	}
	return out
}

// TrackHeads computes commit's parents from the tracker's current state,
// then advances the tracker to reflect commit as the new head of its ref.
// Parent order is [from] (or the ref's previous head, if from is unset)
// followed by commit's own merges.
func (t *Tracker) TrackHeads(commit *fastimport.Commit) [][]byte {
	var parents [][]byte
	if len(commit.From) > 0 {
		parents = append(parents, commit.From)
	} else if prev := t.lastIDs[string(commit.Ref)]; prev != nil {
		parents = append(parents, prev)
	}
	parents = append(parents, commit.Merges...)
	t.TrackHeadsForRef(commit.Ref, commit.ID(), parents)
	return parents
}

// TrackHeadsForRef is the primitive TrackHeads delegates to, usable
// directly when no Commit value is in hand (a reset, or an analysis pass
// that only needs ref bookkeeping).
func (t *Tracker) TrackHeadsForRef(ref, id []byte, parents [][]byte) {
	for _, p := range parents {
		delete(t.heads, string(p))
	}
	idStr := string(id)
	if t.heads[idStr] == nil {
		t.heads[idStr] = make(map[string]bool)
	}
	t.heads[idStr][string(ref)] = true
	t.lastIDs[string(ref)] = id
	t.lastRef = string(ref)
}
