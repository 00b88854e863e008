package scope

type State int

const (
	// StateClean means the local list matches the last server snapshot.
	StateClean State = iota
	// StateDirty means there are local edits not yet submitted.
	StateDirty
	// StateSaving means a patch is in flight.
	StateSaving
)

func (s State) String() string {
	switch s {
	case StateDirty:
		return "dirty"
	case StateSaving:
		return "saving"
	default:
		return "clean"
	}
}

// Draft is the local working copy of a scope list.
//
//	Clean  --edit-->           Dirty
//	Dirty  --BeginSave-->      Saving, or Clean when there is nothing to send
//	Saving --edit-->           Saving (edit kept for the next save)
//	Saving --CompleteSave-->   Clean, or Dirty when edits arrived meanwhile
//	Saving --FailSave-->       Dirty
//
// Draft is not safe for concurrent use.
type Draft struct {
	state    State
	items    []Item
	base     []Item
	baseHash string
	// items as they were when the in-flight save was computed
	submitted []Item
}

func NewDraft(server []Item) *Draft {
	d := &Draft{}
	d.reset(server)
	return d
}

func (d *Draft) State() State {
	return d.state
}

func (d *Draft) Items() []Item {
	return clone(d.items)
}

// Baseline is the last server snapshot the draft was reconciled with.
func (d *Draft) Baseline() []Item {
	return clone(d.base)
}

func (d *Draft) Has(key string) bool {
	return indexOf(d.items, key) >= 0
}

// Add appends item. It returns false when the key is already present.
func (d *Draft) Add(item Item) bool {
	if d.Has(item.Key) {
		return false
	}
	d.items = append(d.items, item)
	d.touch()
	return true
}

// Remove drops the item with key. It returns false when there is none.
func (d *Draft) Remove(key string) bool {
	i := indexOf(d.items, key)
	if i < 0 {
		return false
	}
	d.items = append(d.items[:i:i], d.items[i+1:]...)
	d.touch()
	return true
}

// Update replaces the item carrying the same key.
func (d *Draft) Update(item Item) bool {
	i := indexOf(d.items, item.Key)
	if i < 0 {
		return false
	}
	if d.items[i].Equal(item) {
		return true
	}
	items := clone(d.items)
	items[i] = item
	d.items = items
	d.touch()
	return true
}

// BeginSave computes the patch to submit. The boolean is false when no
// call is needed: either a save is already in flight or there is nothing
// to send, in which case the draft becomes clean.
func (d *Draft) BeginSave() (Patch, bool) {
	if d.state == StateSaving {
		return Patch{}, false
	}
	p := Diff(d.base, d.items)
	if p.IsEmpty() {
		d.state = StateClean
		return Patch{}, false
	}
	d.submitted = clone(d.items)
	d.state = StateSaving
	return p, true
}

// CompleteSave adopts the server's authoritative list. Edits made since
// BeginSave are replayed on top of it.
func (d *Draft) CompleteSave(authoritative []Item) {
	if d.state != StateSaving {
		return
	}
	pending := Diff(d.submitted, d.items)
	d.submitted = nil
	d.rebase(authoritative, pending)
}

// FailSave leaves the local items untouched so nothing is lost.
func (d *Draft) FailSave() {
	if d.state != StateSaving {
		return
	}
	d.submitted = nil
	d.state = StateDirty
}

// Observe takes a newer server snapshot. Local edits are replayed on top
// of it. Snapshots arriving while a save is in flight are ignored since
// the save returns a fresher list. It reports whether the draft changed.
func (d *Draft) Observe(remote []Item) bool {
	if d.state == StateSaving {
		return false
	}
	if Fingerprint(remote) == d.baseHash {
		return false
	}
	if d.state == StateClean {
		d.reset(remote)
		return true
	}
	pending := Diff(d.base, d.items)
	d.rebase(remote, pending)
	return true
}

func (d *Draft) rebase(server []Item, pending Patch) {
	d.base = clone(server)
	d.baseHash = Fingerprint(d.base)
	d.items = Apply(d.base, pending)
	if Diff(d.base, d.items).IsEmpty() {
		d.state = StateClean
		return
	}
	d.state = StateDirty
}

func (d *Draft) reset(server []Item) {
	d.base = clone(server)
	d.baseHash = Fingerprint(d.base)
	d.items = clone(server)
	d.state = StateClean
}

func (d *Draft) touch() {
	if d.state == StateClean {
		d.state = StateDirty
	}
}
