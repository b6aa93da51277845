package species

import (
	"fmt"
	"hash/fnv"
	"sort"
)

// KnowledgeBase is the immutable in-memory view of the species store,
// loaded once at process start and passed explicitly into every scoring
// and calibration call.
type KnowledgeBase struct {
	byID     map[string]*Species
	ids      []string
	families map[string][]string
	checksum string
}

// NewKnowledgeBase builds a knowledge base from loaded records.
// Duplicate IDs are rejected: the upstream pipeline guarantees unique
// identifiers and a duplicate means a corrupt export.
func NewKnowledgeBase(records []Species) (*KnowledgeBase, error) {
	kb := &KnowledgeBase{
		byID:     make(map[string]*Species, len(records)),
		ids:      make([]string, 0, len(records)),
		families: make(map[string][]string),
	}

	for i := range records {
		sp := &records[i]
		if sp.ID == "" {
			return nil, fmt.Errorf("species record %d has empty id", i)
		}
		if _, dup := kb.byID[sp.ID]; dup {
			return nil, fmt.Errorf("duplicate species id %q", sp.ID)
		}
		kb.byID[sp.ID] = sp
		kb.ids = append(kb.ids, sp.ID)
		if sp.Family != "" {
			kb.families[sp.Family] = append(kb.families[sp.Family], sp.ID)
		}
	}

	sort.Strings(kb.ids)
	for _, members := range kb.families {
		sort.Strings(members)
	}

	h := fnv.New64a()
	for _, id := range kb.ids {
		h.Write([]byte(id))
		h.Write([]byte{0})
	}
	kb.checksum = fmt.Sprintf("%016x", h.Sum64())

	return kb, nil
}

// Get returns the species record for an id.
func (kb *KnowledgeBase) Get(id string) (*Species, bool) {
	sp, ok := kb.byID[id]
	return sp, ok
}

// IDs returns all species ids in sorted order. Callers must not mutate
// the returned slice.
func (kb *KnowledgeBase) IDs() []string {
	return kb.ids
}

// Len returns the number of species records.
func (kb *KnowledgeBase) Len() int {
	return len(kb.ids)
}

// Checksum identifies the loaded knowledge-base version. Calibration
// artifacts record it so stale tables are detectable after a reload.
func (kb *KnowledgeBase) Checksum() string {
	return kb.checksum
}

// FamilyMembers returns the sorted ids of species in a family.
func (kb *KnowledgeBase) FamilyMembers(family string) []string {
	return kb.families[family]
}

// Families returns the family names present in the base, sorted.
func (kb *KnowledgeBase) Families() []string {
	out := make([]string, 0, len(kb.families))
	for f := range kb.families {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// TierMembers returns the ids of species belonging to a tier, sorted.
func (kb *KnowledgeBase) TierMembers(t Tier) []string {
	var out []string
	for _, id := range kb.ids {
		if kb.byID[id].Tiers.Contains(t) {
			out = append(out, id)
		}
	}
	return out
}
