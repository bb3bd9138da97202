package action

import "math"

// TagAllocator issues auto-generated tags and tracks which tags are live.
//
// Auto-generated tags increase monotonically from 1 and skip any tag that is
// already live, including caller-supplied ones. When the counter reaches the
// top of the range it wraps to 1 and keeps skipping live tags.
type TagAllocator struct {
	last Tag
	live map[Tag]struct{}
}

// NewTagAllocator returns an allocator with no live tags.
func NewTagAllocator() *TagAllocator {
	return &TagAllocator{live: make(map[Tag]struct{})}
}

// Next reserves and returns a fresh tag.
func (a *TagAllocator) Next() (Tag, error) {
	if uint64(len(a.live)) >= math.MaxUint32-1 {
		return InvalidTag, ErrTagExhausted
	}
	for {
		a.last++
		if a.last == InvalidTag {
			a.last = 1
		}
		if _, taken := a.live[a.last]; !taken {
			a.live[a.last] = struct{}{}
			return a.last, nil
		}
	}
}

// Reserve marks a caller-supplied tag as live. It fails with ErrDuplicateTag
// if the tag is already live.
func (a *TagAllocator) Reserve(tag Tag) error {
	if tag == InvalidTag {
		return ErrDuplicateTag
	}
	if _, taken := a.live[tag]; taken {
		return ErrDuplicateTag
	}
	a.live[tag] = struct{}{}
	return nil
}

// Release returns tag to the pool. Releasing an unknown tag is a no-op.
func (a *TagAllocator) Release(tag Tag) {
	delete(a.live, tag)
}

// IsLive reports whether tag is currently reserved.
func (a *TagAllocator) IsLive(tag Tag) bool {
	_, ok := a.live[tag]
	return ok
}

// Live returns the number of reserved tags.
func (a *TagAllocator) Live() int {
	return len(a.live)
}
