package action

import "math/bits"

// TrackLockTable maps each track to the tag of the runner currently holding
// it. Locking is all-or-nothing: a runner either gets every track it asked
// for or none of them.
//
// Not safe for concurrent use; it is owned by a single List.
type TrackLockTable struct {
	holders [8]Tag
}

// NewTrackLockTable returns an empty table.
func NewTrackLockTable() *TrackLockTable {
	return &TrackLockTable{}
}

func trackIndex(t Track) int {
	return bits.TrailingZeros8(uint8(t))
}

// TryLock acquires every track in mask for tag. Tracks tag already holds
// count as available. Returns false without changing anything if any track
// is held by another tag.
func (t *TrackLockTable) TryLock(tag Tag, mask TrackMask) bool {
	if tag == InvalidTag {
		return false
	}
	for _, tr := range mask.List() {
		h := t.holders[trackIndex(tr)]
		if h != InvalidTag && h != tag {
			return false
		}
	}
	for _, tr := range mask.List() {
		t.holders[trackIndex(tr)] = tag
	}
	return true
}

// Release frees every track held by tag and returns what was freed.
func (t *TrackLockTable) Release(tag Tag) TrackMask {
	if tag == InvalidTag {
		return TracksNone
	}
	var freed TrackMask
	for i, h := range t.holders {
		if h == tag {
			t.holders[i] = InvalidTag
			freed |= TrackMask(1 << i)
		}
	}
	return freed
}

// Holder returns the tag holding track, if any.
func (t *TrackLockTable) Holder(track Track) (Tag, bool) {
	if track == 0 || bits.OnesCount8(uint8(track)) != 1 {
		return InvalidTag, false
	}
	h := t.holders[trackIndex(track)]
	return h, h != InvalidTag
}

// HeldBy returns the tracks currently held by tag.
func (t *TrackLockTable) HeldBy(tag Tag) TrackMask {
	var m TrackMask
	if tag == InvalidTag {
		return m
	}
	for i, h := range t.holders {
		if h == tag {
			m |= TrackMask(1 << i)
		}
	}
	return m
}

// Locked returns every track that has a holder.
func (t *TrackLockTable) Locked() TrackMask {
	var m TrackMask
	for i, h := range t.holders {
		if h != InvalidTag {
			m |= TrackMask(1 << i)
		}
	}
	return m
}

// AreAllLocked reports whether every track in mask is held.
func (t *TrackLockTable) AreAllLocked(mask TrackMask) bool {
	return t.Locked()&mask == mask
}

// AreAnyLocked reports whether any track in mask is held.
func (t *TrackLockTable) AreAnyLocked(mask TrackMask) bool {
	return t.Locked()&mask != 0
}
