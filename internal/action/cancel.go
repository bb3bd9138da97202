package action

// Cancel stops the runner with tag, wherever it is, along with all of its
// descendants. It returns false if no live runner has that tag, which
// includes a runner that is already being torn down.
func (l *List) Cancel(tag Tag) bool {
	r, ok := l.arena[tag]
	if !ok || r.base().finished {
		return false
	}
	l.finish(r, StateCancelled, FailureNone)
	return true
}

// CancelType cancels every live runner of typ in every queue and returns how
// many were cancelled. A matching composite is cancelled whole; otherwise
// its children are searched.
func (l *List) CancelType(typ Type) int {
	count := 0
	for _, tag := range l.topLevel() {
		if r, ok := l.arena[tag]; ok {
			count += l.cancelTypeIn(r, typ)
		}
	}
	if count > 0 {
		l.logger.Info("actions cancelled by type", "type", typ, "count", count)
	}
	return count
}

func (l *List) cancelTypeIn(r Runner, typ Type) int {
	n := r.base()
	if n.finished {
		return 0
	}
	if n.typ == typ {
		l.finish(r, StateCancelled, FailureNone)
		return 1
	}
	c, ok := r.(*Composite)
	if !ok {
		return 0
	}
	count := 0
	for _, tag := range c.liveChildTags() {
		if child, ok := l.arena[tag]; ok {
			count += l.cancelTypeIn(child, typ)
		}
	}
	return count
}

// Clear cancels everything in every queue, queue 0 front to back first. It
// keeps going until the queues are empty, so runners queued by teardown
// callbacks are cancelled too.
func (l *List) Clear() {
	for !l.IsEmpty() {
		var tag Tag
		if len(l.queue0) > 0 {
			tag = l.queue0[0]
		} else {
			tag = l.slots[0].tag
		}
		if !l.Cancel(tag) {
			l.detach(tag)
		}
	}
}

func (l *List) topLevel() []Tag {
	out := make([]Tag, 0, len(l.queue0)+len(l.slots))
	out = append(out, l.queue0...)
	for _, s := range l.slots {
		out = append(out, s.tag)
	}
	return out
}

// suspend releases the tracks held under r without ending it. The runner
// keeps its state, is flagged suspended and resumes without re-initializing
// once it reacquires its tracks.
func (l *List) suspend(r Runner) {
	n := r.base()
	if n.finished || n.started.IsZero() {
		return
	}
	now := l.cfg.Clock()
	switch v := r.(type) {
	case *Leaf:
		if !v.holding {
			return
		}
		l.tracks.Release(v.tag)
		v.holding = false
	case *Composite:
		for _, tag := range v.liveChildTags() {
			if child, ok := l.arena[tag]; ok {
				l.suspend(child)
			}
		}
	}
	n.suspend(now)
}

// finish moves r to a terminal state and tears it down: descendants first,
// then tracks, queue position and tag, then Cleanup, the runner's own
// callback and finally the watchers. It is a no-op for a runner already
// being torn down.
func (l *List) finish(r Runner, state State, kind FailureKind) {
	n := r.base()
	if n.finished {
		return
	}
	n.finished = true

	if c, ok := r.(*Composite); ok {
		for _, tag := range c.liveChildTags() {
			if child, ok := l.arena[tag]; ok {
				l.finish(child, StateCancelled, FailureNone)
			}
		}
	}

	n.state = state
	n.failure = kind
	now := l.cfg.Clock()

	lf, isLeaf := r.(*Leaf)
	if isLeaf && lf.holding {
		l.tracks.Release(lf.tag)
		lf.holding = false
	}

	if n.parent == InvalidTag {
		l.detach(n.tag)
	} else if p, ok := l.arena[n.parent].(*Composite); ok {
		p.childFinished(n.tag, state, kind)
	}
	delete(l.arena, n.tag)
	l.tags.Release(n.tag)

	rec := CompletionRecord{
		Tag:     n.tag,
		Parent:  n.parent,
		Name:    n.name,
		Type:    n.typ,
		State:   state,
		Failure: kind,
	}
	if !n.started.IsZero() {
		rec.Duration = now.Sub(n.started)
	}
	l.logCompletion(rec)

	if isLeaf {
		if cl, ok := lf.action.(Cleaner); ok {
			cl.Cleanup(l.context(n, lf.attempts))
		}
	}
	if cb := n.onComplete; cb != nil {
		n.onComplete = nil
		cb(rec)
	}
	l.watcher.notify(rec)
}

// detach removes a top-level tag from queue 0 or frees its parallel slot.
func (l *List) detach(tag Tag) {
	for i, t := range l.queue0 {
		if t == tag {
			l.queue0 = append(l.queue0[:i], l.queue0[i+1:]...)
			return
		}
	}
	for i, s := range l.slots {
		if s.tag == tag {
			l.slots = append(l.slots[:i], l.slots[i+1:]...)
			return
		}
	}
}

func (l *List) logCompletion(rec CompletionRecord) {
	args := []any{
		"tag", rec.Tag,
		"name", rec.Name,
		"type", rec.Type,
		"state", rec.State.String(),
		"duration", rec.Duration,
	}
	if rec.Parent != InvalidTag {
		args = append(args, "parent", rec.Parent)
	}
	switch rec.State {
	case StateFailure:
		l.logger.Warn("action failed", append(args, "failure", rec.Failure.String())...)
	case StateAborted:
		l.logger.Warn("action aborted", args...)
	default:
		l.logger.Info("action completed", args...)
	}
}
