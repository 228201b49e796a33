package reftracker

import (
	"testing"

	fastimport "github.com/obinnaokechukwu/fastimport"
)

func commitOnRef(ref, mark string) *fastimport.Commit {
	return &fastimport.Commit{Ref: []byte(ref), Mark: fastimport.Mark(mark)}
}

func TestTrackHeadsChainsOnSameRef(t *testing.T) {
	tr := New()

	c1 := commitOnRef("refs/heads/master", "1")
	parents := tr.TrackHeads(c1)
	if len(parents) != 0 {
		t.Fatalf("first commit on a ref should have no parents, got %v", parents)
	}
	if got := tr.LastID([]byte("refs/heads/master")); string(got) != ":1" {
		t.Fatalf("LastID = %q, want :1", got)
	}
	if heads := tr.Heads([]byte(":1")); len(heads) != 1 || heads[0] != "refs/heads/master" {
		t.Fatalf("Heads(:1) = %v", heads)
	}

	c2 := commitOnRef("refs/heads/master", "2")
	parents = tr.TrackHeads(c2)
	if len(parents) != 1 || string(parents[0]) != ":1" {
		t.Fatalf("second commit should parent on :1, got %v", parents)
	}
	// :1 is no longer a head once :2 supersedes it.
	if heads := tr.Heads([]byte(":1")); len(heads) != 0 {
		t.Fatalf("Heads(:1) should be empty after a child commit, got %v", heads)
	}
	if heads := tr.Heads([]byte(":2")); len(heads) != 1 || heads[0] != "refs/heads/master" {
		t.Fatalf("Heads(:2) = %v", heads)
	}
}

func TestTrackHeadsUsesExplicitFrom(t *testing.T) {
	tr := New()
	tr.TrackHeads(commitOnRef("refs/heads/master", "1"))

	c := commitOnRef("refs/heads/topic", "2")
	c.From = []byte(":1")
	parents := tr.TrackHeads(c)
	if len(parents) != 1 || string(parents[0]) != ":1" {
		t.Fatalf("explicit from should be the sole parent, got %v", parents)
	}
	// :1 is still a head of nothing now - topic branched off it.
	if heads := tr.Heads([]byte(":1")); len(heads) != 0 {
		t.Fatalf("Heads(:1) should be cleared once a child references it, got %v", heads)
	}
}

func TestTrackHeadsAppendsMerges(t *testing.T) {
	tr := New()
	tr.TrackHeads(commitOnRef("refs/heads/master", "1"))
	tr.TrackHeads(commitOnRef("refs/heads/topic", "2"))

	c := commitOnRef("refs/heads/master", "3")
	c.Merges = [][]byte{[]byte(":2")}
	parents := tr.TrackHeads(c)
	if len(parents) != 2 || string(parents[0]) != ":1" || string(parents[1]) != ":2" {
		t.Fatalf("parents = %v, want [:1 :2]", parents)
	}
}
