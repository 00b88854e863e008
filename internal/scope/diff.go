package scope

import (
	"encoding/hex"
	"encoding/json"

	"github.com/zeebo/blake3"
)

// Patch is the minimal change from a server list to a draft list.
type Patch struct {
	Add        []Item   `json:"add,omitempty"`
	RemoveKeys []string `json:"remove_keys,omitempty"`
	Update     []Item   `json:"update,omitempty"`
}

func (p Patch) IsEmpty() bool {
	return len(p.Add) == 0 && len(p.RemoveKeys) == 0 && len(p.Update) == 0
}

// Diff computes the patch turning server into draft. Removed keys keep the
// server order; added and updated items keep the draft order. Items present
// on both sides with unchanged content never appear.
func Diff(server, draft []Item) Patch {
	serverIdx := make(map[string]Item, len(server))
	for _, it := range server {
		serverIdx[it.Key] = it
	}
	draftKeys := make(map[string]struct{}, len(draft))
	for _, it := range draft {
		draftKeys[it.Key] = struct{}{}
	}

	var p Patch
	for _, it := range server {
		if _, ok := draftKeys[it.Key]; !ok {
			p.RemoveKeys = append(p.RemoveKeys, it.Key)
		}
	}
	for _, it := range draft {
		existing, ok := serverIdx[it.Key]
		switch {
		case !ok:
			p.Add = append(p.Add, it)
		case !existing.Equal(it):
			p.Update = append(p.Update, it)
		}
	}
	return p
}

// Apply applies p to items and returns a new list: removals first, then
// in-place updates of keys still present, then additions of keys not yet
// present. Applying the same patch twice gives the same list.
func Apply(items []Item, p Patch) []Item {
	removed := make(map[string]struct{}, len(p.RemoveKeys))
	for _, k := range p.RemoveKeys {
		removed[k] = struct{}{}
	}

	out := make([]Item, 0, len(items)+len(p.Add))
	for _, it := range items {
		if _, ok := removed[it.Key]; ok {
			continue
		}
		out = append(out, it)
	}

	for _, upd := range p.Update {
		if i := indexOf(out, upd.Key); i >= 0 {
			out[i] = upd
		}
	}

	for _, add := range p.Add {
		if indexOf(out, add.Key) >= 0 {
			continue
		}
		out = append(out, add)
	}
	return out
}

// Fingerprint identifies a list snapshot. Two lists with the same items in
// the same order have the same fingerprint.
func Fingerprint(items []Item) string {
	data, err := json.Marshal(clone(items))
	if err != nil {
		return ""
	}
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}
