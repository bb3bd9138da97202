package action

// CallbackID identifies a watcher registration.
type CallbackID uint64

// CompletionFunc receives a completion record.
type CompletionFunc func(CompletionRecord)

type watch struct {
	id  CallbackID
	tag Tag // InvalidTag watches every runner
	fn  CompletionFunc
}

// Watcher is a registry of completion callbacks owned by one List.
//
// Every terminal runner, at any nesting depth, is reported once to every
// callback registered at the moment the record is delivered. Callbacks run
// in registration order on the scheduler goroutine and may register or
// unregister callbacks, queue runners, or cancel tags.
type Watcher struct {
	nextID  CallbackID
	watches []watch
}

func newWatcher() *Watcher {
	return &Watcher{}
}

// Register adds fn for every completion and returns its id.
func (w *Watcher) Register(fn CompletionFunc) CallbackID {
	return w.add(InvalidTag, fn)
}

// RegisterForTag adds fn for the completion of a single tag. The
// registration is dropped after it fires.
func (w *Watcher) RegisterForTag(tag Tag, fn CompletionFunc) CallbackID {
	return w.add(tag, fn)
}

func (w *Watcher) add(tag Tag, fn CompletionFunc) CallbackID {
	if fn == nil {
		return 0
	}
	w.nextID++
	w.watches = append(w.watches, watch{id: w.nextID, tag: tag, fn: fn})
	return w.nextID
}

// Unregister removes a callback. Returns false if id was not registered.
func (w *Watcher) Unregister(id CallbackID) bool {
	for i, wt := range w.watches {
		if wt.id == id {
			w.watches = append(w.watches[:i:i], w.watches[i+1:]...)
			return true
		}
	}
	return false
}

// Len returns the number of registered callbacks.
func (w *Watcher) Len() int {
	return len(w.watches)
}

// notify delivers rec to the callbacks registered when it starts. A callback
// removed by an earlier callback in the same pass is skipped.
func (w *Watcher) notify(rec CompletionRecord) {
	pending := make([]watch, 0, len(w.watches))
	for _, wt := range w.watches {
		if wt.tag == InvalidTag || wt.tag == rec.Tag {
			pending = append(pending, wt)
		}
	}
	for _, wt := range pending {
		if !w.registered(wt.id) {
			continue
		}
		if wt.tag != InvalidTag {
			w.Unregister(wt.id)
		}
		wt.fn(rec)
	}
}

func (w *Watcher) registered(id CallbackID) bool {
	for _, wt := range w.watches {
		if wt.id == id {
			return true
		}
	}
	return false
}
