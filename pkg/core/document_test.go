package core

import (
	"testing"
)

func TestTrackTypeCardinality(t *testing.T) {
	for _, tt := range SingletonTypes {
		if !tt.IsSingleton() {
			t.Errorf("%s should be a singleton type", tt)
		}
	}
	for _, tt := range MultiTypes {
		if tt.IsSingleton() {
			t.Errorf("%s should be a multi-instance type", tt)
		}
	}
	if len(AllTrackTypes) != len(SingletonTypes)+len(MultiTypes) {
		t.Error("AllTrackTypes does not cover every type exactly once")
	}
	if TrackType("hologram").Valid() {
		t.Error("unknown type reported valid")
	}
}

func TestEnsureMultiIsLazyAndShared(t *testing.T) {
	doc := NewDocument("slash", 50)

	if doc.Tracks.Multi(TrackAudio) != nil {
		t.Fatal("audio sub-document should not exist before first use")
	}

	first := doc.Tracks.EnsureMulti(TrackAudio)
	second := doc.Tracks.EnsureMulti(TrackAudio)
	if first == nil || first != second {
		t.Error("EnsureMulti should create once and return the shared sub-document")
	}

	if doc.Tracks.EnsureMulti(TrackAnimation) != nil {
		t.Error("EnsureMulti on a singleton type should return nil")
	}
	if doc.Tracks.EnsureSingleton(TrackAudio) != nil {
		t.Error("EnsureSingleton on a multi-instance type should return nil")
	}
}

func TestLaneOrdering(t *testing.T) {
	mt := &MultiTrack{}
	mt.AddLane(2)
	mt.AddLane(0)
	mt.AddLane(1)

	for i, l := range mt.Lanes {
		if l.TrackIndex != i {
			t.Errorf("lane %d has track index %d, want %d", i, l.TrackIndex, i)
		}
	}

	if mt.Lane(1) == nil {
		t.Error("Lane(1) not found")
	}
	if mt.Lane(7) != nil {
		t.Error("Lane(7) should be nil")
	}
	if !mt.RemoveLane(1) {
		t.Error("RemoveLane(1) should report removal")
	}
	if mt.RemoveLane(1) {
		t.Error("second RemoveLane(1) should report nothing removed")
	}
}

func TestMultiTrackEmpty(t *testing.T) {
	mt := &MultiTrack{}
	lane := mt.AddLane(0)
	if !mt.Empty() {
		t.Error("sub-document with an empty lane should be Empty")
	}
	lane.Clips = append(lane.Clips, NewClip(TrackAudio, "Hit", 5, 10))
	if mt.Empty() {
		t.Error("sub-document with a clip should not be Empty")
	}
}

func TestRemoveClip(t *testing.T) {
	a := NewClip(TrackAudio, "a", 0, 5)
	b := NewClip(TrackAudio, "b", 5, 5)
	clips := []*Clip{a, b}

	if !RemoveClip(&clips, a.ID) {
		t.Fatal("RemoveClip should report removal")
	}
	if len(clips) != 1 || clips[0] != b {
		t.Errorf("remaining clips wrong: %v", clips)
	}
	if RemoveClip(&clips, a.ID) {
		t.Error("removing an absent clip should report false")
	}
}

func TestEachClipVisitsEveryTrack(t *testing.T) {
	doc := NewDocument("slash", 50)
	doc.Tracks.EnsureSingleton(TrackAnimation).Clips = []*Clip{
		NewClip(TrackAnimation, "swing", 0, 20),
	}
	lane := doc.Tracks.EnsureMulti(TrackEffect).AddLane(0)
	lane.Clips = append(lane.Clips, NewClip(TrackEffect, "sparks", 10, 5))
	lane2 := doc.Tracks.Multi(TrackEffect).AddLane(1)
	lane2.Clips = append(lane2.Clips, NewClip(TrackEffect, "dust", 12, 3))

	seen := map[string]int{}
	doc.EachClip(func(tt TrackType, trackIndex int, c *Clip) {
		seen[c.Name] = trackIndex
	})

	if len(seen) != 3 {
		t.Fatalf("expected 3 clips visited, got %d", len(seen))
	}
	if seen["dust"] != 1 {
		t.Errorf("dust should be on track index 1, got %d", seen["dust"])
	}
}

func TestValidateFindsOverlapAndRangeIssues(t *testing.T) {
	doc := NewDocument("slash", 50)
	anim := doc.Tracks.EnsureSingleton(TrackAnimation)

	a := NewClip(TrackAnimation, "windup", 0, 20)
	b := NewClip(TrackAnimation, "swing", 15, 10)
	b.Payload = &AnimationPayload{PlaySpeed: 1, CutoffFrame: 99}
	c := NewClip(TrackAnimation, "late", 60, 5)
	anim.Clips = []*Clip{a, b, c}

	issues := doc.Validate()
	if len(issues) != 3 {
		t.Fatalf("expected 3 issues, got %d: %v", len(issues), issues)
	}

	var overlap, cutoff, rangeIssue bool
	for _, is := range issues {
		switch {
		case is.ClipName == "swing" && is.Message[:8] == "overlaps":
			overlap = true
		case is.ClipName == "swing":
			cutoff = true
		case is.ClipName == "late":
			rangeIssue = true
		}
	}
	if !overlap || !cutoff || !rangeIssue {
		t.Errorf("missing issue kinds: overlap=%v cutoff=%v range=%v", overlap, cutoff, rangeIssue)
	}
}
