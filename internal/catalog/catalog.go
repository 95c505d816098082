// Package catalog overlays faculty and admin edits on a static curriculum.
//
// The base catalog is loaded once; edits are stored as an ordered list of
// patches and applied by key, so the merged view is the same no matter how
// often or in what order it is rebuilt.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Material is a downloadable file attached to an entry.
type Material struct {
	Title string `json:"title"`
	Key   string `json:"key"` // blob store key
}

// Entry is a subject or course in the curriculum.
type Entry struct {
	Key       string     `json:"key"`
	Kind      string     `json:"type"` // subject|course
	Title     string     `json:"title"`
	Branch    string     `json:"branch,omitempty"`
	Semester  int        `json:"semester,omitempty"`
	Materials []Material `json:"materials,omitempty"`
}

type Op string

const (
	OpUpsert      Op = "upsert"
	OpDelete      Op = "delete"
	OpAddMaterial Op = "add_material"
)

// Patch is one authored change. Seq orders application.
type Patch struct {
	Seq       int64     `json:"seq"`
	Op        Op        `json:"op"`
	Key       string    `json:"key"`
	Entry     *Entry    `json:"entry,omitempty"`
	Material  *Material `json:"material,omitempty"`
	Author    string    `json:"author,omitempty"`
	CreatedAt int64     `json:"createdAt,omitempty"`
}

// Validate checks that the patch carries what its op needs.
func (p Patch) Validate() error {
	if strings.TrimSpace(p.Key) == "" {
		return errors.New("key required")
	}
	switch p.Op {
	case OpUpsert:
		if p.Entry == nil {
			return errors.New("entry required for upsert")
		}
	case OpDelete:
	case OpAddMaterial:
		if p.Material == nil || p.Material.Key == "" {
			return errors.New("material key required")
		}
	default:
		return fmt.Errorf("unknown op %q", p.Op)
	}
	return nil
}

// Apply returns base with patches applied in Seq order, sorted by key.
// Neither input is modified.
func Apply(base []Entry, patches []Patch) []Entry {
	byKey := make(map[string]Entry, len(base))
	for _, e := range base {
		byKey[e.Key] = cloneEntry(e)
	}

	ordered := append([]Patch(nil), patches...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Seq < ordered[j].Seq })

	for _, p := range ordered {
		switch p.Op {
		case OpUpsert:
			if p.Entry == nil {
				continue
			}
			e := cloneEntry(*p.Entry)
			e.Key = p.Key
			if len(e.Materials) == 0 {
				e.Materials = byKey[p.Key].Materials
			}
			byKey[p.Key] = e
		case OpDelete:
			delete(byKey, p.Key)
		case OpAddMaterial:
			e, ok := byKey[p.Key]
			if !ok || p.Material == nil {
				continue
			}
			e.Materials = upsertMaterial(e.Materials, *p.Material)
			byKey[p.Key] = e
		}
	}

	out := make([]Entry, 0, len(byKey))
	for _, e := range byKey {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func upsertMaterial(ms []Material, m Material) []Material {
	for i := range ms {
		if ms[i].Key == m.Key {
			ms[i] = m
			return ms
		}
	}
	return append(ms, m)
}

func cloneEntry(e Entry) Entry {
	e.Materials = append([]Material(nil), e.Materials...)
	return e
}

// LoadBase reads the base catalog from a JSON array file. An empty path yields
// an empty catalog.
func LoadBase(path string) ([]Entry, error) {
	if path == "" {
		return nil, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read base: %w", err)
	}
	var entries []Entry
	if err := json.Unmarshal(b, &entries); err != nil {
		return nil, fmt.Errorf("catalog: parse base: %w", err)
	}
	for i, e := range entries {
		if strings.TrimSpace(e.Key) == "" {
			return nil, fmt.Errorf("catalog: base entry %d has no key", i)
		}
	}
	return entries, nil
}
