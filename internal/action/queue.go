package action

import "fmt"

// Queue places r in the list at pos and returns its tag.
//
// A runner whose caller-supplied tag (or any descendant's) is already live
// is rejected with ErrDuplicateTag before anything runs, and no completion
// record is ever delivered for it.
func (l *List) Queue(pos Position, r Runner) (Tag, error) {
	return l.QueueWithCallback(pos, r, nil)
}

// QueueWithCallback is Queue with a single-shot completion callback invoked
// before the watchers. It runs after any callback set with OnComplete.
func (l *List) QueueWithCallback(pos Position, r Runner, fn CompletionFunc) (Tag, error) {
	if r == nil {
		return InvalidTag, ErrNilRunner
	}
	if pos < PositionNow || pos > PositionInParallel {
		return InvalidTag, fmt.Errorf("%w: %d", ErrInvalidPosition, int(pos))
	}
	slotID := 0
	if pos == PositionInParallel {
		slotID = l.freeSlot()
		if slotID == 0 {
			return InvalidTag, ErrNoFreeSlot
		}
	}
	if err := l.adopt(r, InvalidTag); err != nil {
		l.logger.Warn("action rejected", "name", r.Name(), "type", r.Type(), "tag", r.Tag(), "error", err)
		return InvalidTag, err
	}
	n := r.base()
	if fn != nil {
		prev := n.onComplete
		n.onComplete = func(rec CompletionRecord) {
			if prev != nil {
				prev(rec)
			}
			fn(rec)
		}
	}
	tag := n.tag

	l.logger.Debug("action queued", "tag", tag, "name", n.name, "type", n.typ, "position", pos.String())

	switch pos {
	case PositionNow:
		l.queueNow(tag, false)
	case PositionNowAndResume:
		l.queueNow(tag, true)
	case PositionNowAndClearRemaining:
		old := append([]Tag(nil), l.queue0...)
		l.queue0 = append([]Tag{tag}, l.queue0...)
		for _, t := range old {
			l.Cancel(t)
		}
	case PositionNext:
		l.insertQueue0(min(1, len(l.queue0)), tag)
	case PositionAtEnd:
		l.queue0 = append(l.queue0, tag)
	case PositionInParallel:
		l.slots = append(l.slots, parallelSlot{id: slotID, tag: tag})
	}
	return tag, nil
}

// queueNow puts tag at the front of queue 0. A current runner that has
// started is cancelled, or suspended when resume is set; a non-interruptible
// one keeps running and tag goes right behind it.
func (l *List) queueNow(tag Tag, resume bool) {
	if len(l.queue0) == 0 {
		l.queue0 = append(l.queue0, tag)
		return
	}
	front, ok := l.arena[l.queue0[0]]
	if !ok || front.base().started.IsZero() {
		l.insertQueue0(0, tag)
		return
	}
	if !front.Interruptible() {
		l.logger.Debug("current action is not interruptible, queuing next",
			"tag", tag, "current_tag", front.Tag(), "current_name", front.Name())
		l.insertQueue0(1, tag)
		return
	}
	l.insertQueue0(0, tag)
	if resume {
		l.suspend(front)
		l.logger.Info("action suspended", "tag", front.Tag(), "name", front.Name(), "by", tag)
		return
	}
	l.Cancel(front.Tag())
}

func (l *List) insertQueue0(i int, tag Tag) {
	l.queue0 = append(l.queue0, InvalidTag)
	copy(l.queue0[i+1:], l.queue0[i:])
	l.queue0[i] = tag
}

// freeSlot returns the lowest unused parallel slot id, or 0 if the cap is
// reached.
func (l *List) freeSlot() int {
	if l.cfg.MaxParallelSlots > 0 && len(l.slots) >= l.cfg.MaxParallelSlots {
		return 0
	}
	used := make(map[int]bool, len(l.slots))
	for _, s := range l.slots {
		used[s.id] = true
	}
	for id := 1; ; id++ {
		if !used[id] {
			return id
		}
	}
}

// adopt assigns tags to r and its staged descendants and moves them into the
// arena. Nothing is adopted unless the whole tree is acceptable.
func (l *List) adopt(r Runner, parent Tag) error {
	if err := l.checkTree(r, make(map[Tag]bool), make(map[Runner]bool)); err != nil {
		return err
	}
	return l.adoptTree(r, parent)
}

func (l *List) checkTree(r Runner, seen map[Tag]bool, visited map[Runner]bool) error {
	n := r.base()
	if n.list != nil || visited[r] {
		return ErrAlreadyQueued
	}
	visited[r] = true
	if n.tag != InvalidTag {
		if seen[n.tag] || l.tags.IsLive(n.tag) {
			return fmt.Errorf("%w: %d", ErrDuplicateTag, n.tag)
		}
		seen[n.tag] = true
	}
	if c, ok := r.(*Composite); ok {
		for _, s := range c.staged {
			if err := l.checkTree(s.runner, seen, visited); err != nil {
				return err
			}
		}
	}
	return nil
}

// adoptTree reserves caller tags before allocating any auto tags so that the
// allocator skips them.
func (l *List) adoptTree(r Runner, parent Tag) error {
	var reserved []Tag
	var walk func(r Runner) error
	walk = func(r Runner) error {
		n := r.base()
		if n.tag != InvalidTag {
			if err := l.tags.Reserve(n.tag); err != nil {
				return err
			}
			reserved = append(reserved, n.tag)
		}
		if c, ok := r.(*Composite); ok {
			for _, s := range c.staged {
				if err := walk(s.runner); err != nil {
					return err
				}
			}
		}
		return nil
	}
	if err := walk(r); err != nil {
		for _, t := range reserved {
			l.tags.Release(t)
		}
		return err
	}
	return l.place(r, parent)
}

func (l *List) place(r Runner, parent Tag) error {
	n := r.base()
	if n.tag == InvalidTag {
		tag, err := l.tags.Next()
		if err != nil {
			return err
		}
		n.tag = tag
	}
	n.list = l
	n.parent = parent
	n.state = StateNotStarted
	l.arena[n.tag] = r

	switch v := r.(type) {
	case *Leaf:
		if v.timeout == 0 {
			v.timeout = l.cfg.DefaultTimeout
		}
		if !v.retrySet {
			v.retries = l.cfg.DefaultRetries
		}
	case *Composite:
		staged := v.staged
		v.staged = nil
		for _, s := range staged {
			if err := l.place(s.runner, n.tag); err != nil {
				return err
			}
			v.children = append(v.children, childSlot{tag: s.runner.Tag(), ignore: s.ignore})
		}
	}
	return nil
}
