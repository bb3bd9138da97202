package action

// Update advances the scheduler by one tick: the front of queue 0 is stepped
// first, then each parallel slot in creation order. A runner promoted by a
// completion during this tick is first stepped on the next one.
func (l *List) Update() {
	l.tick++
	l.now = l.cfg.Clock()
	l.updating = true
	defer func() { l.updating = false }()

	if len(l.queue0) > 0 {
		if r, ok := l.arena[l.queue0[0]]; ok {
			l.step(r)
		}
	}

	slots := append([]parallelSlot(nil), l.slots...)
	for _, s := range slots {
		if !l.slotLive(s) {
			continue
		}
		l.step(l.arena[s.tag])
	}
}

func (l *List) slotLive(s parallelSlot) bool {
	for _, cur := range l.slots {
		if cur == s {
			_, ok := l.arena[s.tag]
			return ok
		}
	}
	return false
}

func (l *List) step(r Runner) {
	switch v := r.(type) {
	case *Leaf:
		l.stepLeaf(v)
	case *Composite:
		l.stepComposite(v)
	}
}

// stepLeaf acquires tracks, runs Init when due and then polls, all within
// one tick. A leaf that cannot get its tracks stays where it is, but its
// deadline still applies once it has started.
func (l *List) stepLeaf(lf *Leaf) {
	if lf.finished {
		return
	}
	if !lf.holding {
		if lf.expired(l.now) {
			l.finish(lf, StateFailure, FailureTimeout)
			return
		}
		if !l.tracks.TryLock(lf.tag, lf.tracks) {
			return
		}
		lf.holding = true
		lf.start(l.now, lf.timeout)
		lf.resume(l.now)
	}

	if lf.needInit {
		lf.needInit = false
		lf.state = StateInitializing
		if err := lf.action.Init(l.context(&lf.node, lf.attempts)); err != nil {
			if lf.finished {
				return
			}
			l.logger.Warn("action init failed", "tag", lf.tag, "name", lf.name, "error", err)
			l.finish(lf, StateFailure, FailureInitFailed)
			return
		}
		if lf.finished {
			return
		}
	}

	lf.state = StateRunning
	if lf.expired(l.now) {
		l.finish(lf, StateFailure, FailureTimeout)
		return
	}

	res := lf.action.Poll(l.context(&lf.node, lf.attempts))
	if lf.finished {
		return
	}
	switch res {
	case ResultRunning:
	case ResultSuccess:
		l.finish(lf, StateSuccess, FailureNone)
	case ResultFailure:
		l.finish(lf, StateFailure, FailureRunFailed)
	case ResultAbort:
		l.finish(lf, StateAborted, FailureNone)
	case ResultRetry:
		if lf.attempts >= lf.retries {
			l.logger.Warn("action retry budget exhausted", "tag", lf.tag, "name", lf.name, "retries", lf.retries)
			l.finish(lf, StateFailure, FailureRunFailed)
			return
		}
		lf.attempts++
		lf.state = StateInitializing
		lf.needInit = true
		lf.holding = false
		l.tracks.Release(lf.tag)
		l.logger.Debug("action retrying", "tag", lf.tag, "name", lf.name, "attempt", lf.attempts)
	default:
		l.logger.Error("action returned unknown result", "tag", lf.tag, "name", lf.name, "result", int(res))
		l.finish(lf, StateFailure, FailureRunFailed)
	}
}

func (l *List) stepComposite(c *Composite) {
	if c.finished {
		return
	}
	if c.started.IsZero() {
		c.start(l.now, c.timeout)
		c.state = StateRunning
	}
	c.resume(l.now)
	if c.expired(l.now) {
		l.finish(c, StateFailure, FailureTimeout)
		return
	}
	if c.kind == kindParallel {
		l.stepParallel(c)
		return
	}
	l.stepSequential(c)
}

// stepSequential steps the current child and moves on to the next one in
// the same tick when it finishes.
func (l *List) stepSequential(c *Composite) {
	for !c.finished {
		if c.current >= len(c.children) {
			l.finish(c, StateSuccess, FailureNone)
			return
		}
		if !c.children[c.current].done {
			if child, ok := l.arena[c.children[c.current].tag]; ok {
				l.step(child)
			}
			if c.finished || !c.children[c.current].done {
				return
			}
		}
		s := c.children[c.current]
		if !s.ignore && s.state != StateSuccess {
			l.finish(c, s.state, s.failure)
			return
		}
		c.current++
	}
}

// stepParallel steps every unfinished child and completes once the required
// ones are terminal. Ignored children still running are then cancelled.
func (l *List) stepParallel(c *Composite) {
	for i := 0; i < len(c.children) && !c.finished; i++ {
		if c.children[i].done {
			continue
		}
		if child, ok := l.arena[c.children[i].tag]; ok {
			l.step(child)
		}
	}
	if c.finished || !c.parallelDone() {
		return
	}
	state, kind := c.parallelOutcome()
	l.finish(c, state, kind)
}
