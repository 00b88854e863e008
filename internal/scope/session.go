package scope

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fieldservice/jobvisit/pkg/clock"
)

var (
	ErrDuplicateKey = errors.New("scope item key already present")
	ErrItemNotFound = errors.New("scope item not found")
	ErrInvalidItem  = errors.New("invalid scope item")
)

// Session is the editing surface of one open visit view. Every edit is
// visible in Items immediately and saved by the pump once edits stop.
type Session struct {
	ref   Ref
	pump  *Pump
	clock clock.Clock
}

func NewSession(ref Ref, server []Item, patcher Patcher, opts ...PumpOption) *Session {
	pump := NewPump(ref, NewDraft(server), patcher, opts...)
	return &Session{
		ref:   ref,
		pump:  pump,
		clock: pump.clock,
	}
}

func (s *Session) Ref() Ref {
	return s.ref
}

func (s *Session) Add(item Item) error {
	if item.Key == "" || !item.Type.IsValid() {
		return fmt.Errorf("%w: key %q type %q", ErrInvalidItem, item.Key, item.Type)
	}
	return s.pump.Edit(func(d *Draft) error {
		if !d.Add(item) {
			return fmt.Errorf("%w: %s", ErrDuplicateKey, item.Key)
		}
		return nil
	})
}

// AddAdHoc adds a job-sourced item keyed by the current time. A key that
// is already taken is bumped by a millisecond until it is free.
func (s *Session) AddAdHoc(t ItemType, label string) (Item, error) {
	if !t.IsValid() {
		return Item{}, fmt.Errorf("%w: type %q", ErrInvalidItem, t)
	}
	var added Item
	err := s.pump.Edit(func(d *Draft) error {
		at := s.clock.Now()
		key := AdHocKey(t, at)
		for d.Has(key) {
			at = at.Add(time.Millisecond)
			key = AdHocKey(t, at)
		}
		added = Item{
			Key:    key,
			Label:  label,
			Type:   t,
			Source: SourceJob,
		}
		d.Add(added)
		return nil
	})
	return added, err
}

func (s *Session) Remove(key string) error {
	return s.pump.Edit(func(d *Draft) error {
		if !d.Remove(key) {
			return fmt.Errorf("%w: %s", ErrItemNotFound, key)
		}
		return nil
	})
}

// Update edits the item with key in place. The key cannot change.
func (s *Session) Update(key string, fn func(it *Item)) error {
	return s.pump.Edit(func(d *Draft) error {
		i := indexOf(d.items, key)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrItemNotFound, key)
		}
		it := copyItem(d.items[i])
		fn(&it)
		it.Key = key
		d.Update(it)
		return nil
	})
}

func (s *Session) Items() []Item {
	var items []Item
	s.pump.View(func(d *Draft) {
		items = d.Items()
	})
	return items
}

func (s *Session) State() State {
	var st State
	s.pump.View(func(d *Draft) {
		st = d.State()
	})
	return st
}

// Err is the error of the last failed save, cleared by the next success.
func (s *Session) Err() error {
	return s.pump.Err()
}

// Flush saves immediately. Use it to retry after a failed save.
func (s *Session) Flush(ctx context.Context) error {
	return s.pump.Flush(ctx)
}

// Observe feeds a newer server snapshot into the draft.
func (s *Session) Observe(remote []Item) bool {
	return s.pump.Rebase(func(d *Draft) bool {
		return d.Observe(remote)
	})
}

func (s *Session) Close() {
	s.pump.Close()
}
