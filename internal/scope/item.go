package scope

import (
	"fmt"
	"time"
)

type ItemType string

const (
	ItemPart        ItemType = "part"
	ItemTrade       ItemType = "trade"
	ItemRequirement ItemType = "requirement"
)

func (t ItemType) IsValid() bool {
	switch t {
	case ItemPart, ItemTrade, ItemRequirement:
		return true
	default:
		return false
	}
}

type Source string

const (
	// SourceProject items are copied from a project template.
	SourceProject Source = "project"
	// SourceJob items were added ad hoc on the visit.
	SourceJob Source = "job"
)

// Item is one required part, trade or requirement of a visit. Key is the
// identity used for set difference; every other field is content.
type Item struct {
	Key     string   `json:"key"`
	Label   string   `json:"label"`
	Type    ItemType `json:"type"`
	Source  Source   `json:"source"`
	RefID   string   `json:"ref_id,omitempty"`
	Status  string   `json:"status,omitempty"`
	Qty     *float64 `json:"qty,omitempty"`
	Used    bool     `json:"used,omitempty"`
	UsedQty *float64 `json:"used_qty,omitempty"`
}

// Equal compares content, following the quantity pointers.
func (i Item) Equal(o Item) bool {
	return i.Key == o.Key &&
		i.Label == o.Label &&
		i.Type == o.Type &&
		i.Source == o.Source &&
		i.RefID == o.RefID &&
		i.Status == o.Status &&
		i.Used == o.Used &&
		equalQty(i.Qty, o.Qty) &&
		equalQty(i.UsedQty, o.UsedQty)
}

func equalQty(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// ProjectKey is the deterministic key of a project-sourced item.
func ProjectKey(t ItemType, refID string) string {
	return fmt.Sprintf("project:%s:%s", t, refID)
}

// AdHocKey is the time-based key of an item added on the visit.
func AdHocKey(t ItemType, at time.Time) string {
	return fmt.Sprintf("job:%s:%d", t, at.UnixMilli())
}

// FromTemplate builds the visit copy of a project template entry.
func FromTemplate(t ItemType, refID, label string, qty *float64) Item {
	return Item{
		Key:    ProjectKey(t, refID),
		Label:  label,
		Type:   t,
		Source: SourceProject,
		RefID:  refID,
		Qty:    qty,
	}
}

type RefKind string

const (
	RefVisit RefKind = "visit"
	RefJob   RefKind = "job"
)

// Ref names the owner of a scope list: a visit, or the job itself when
// no visit applies.
type Ref struct {
	Kind RefKind `json:"kind"`
	ID   string  `json:"id"`
}

func (r Ref) IsValid() bool {
	return (r.Kind == RefVisit || r.Kind == RefJob) && r.ID != ""
}

func (r Ref) String() string {
	return fmt.Sprintf("%s/%s", r.Kind, r.ID)
}

func clone(items []Item) []Item {
	if items == nil {
		return []Item{}
	}
	out := make([]Item, len(items))
	for i := range items {
		out[i] = copyItem(items[i])
	}
	return out
}

// copyItem detaches the quantity pointers from it.
func copyItem(it Item) Item {
	if it.Qty != nil {
		q := *it.Qty
		it.Qty = &q
	}
	if it.UsedQty != nil {
		q := *it.UsedQty
		it.UsedQty = &q
	}
	return it
}

func indexOf(items []Item, key string) int {
	for i := range items {
		if items[i].Key == key {
			return i
		}
	}
	return -1
}
