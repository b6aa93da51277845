package species

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewKnowledgeBase(t *testing.T) {
	records := []Species{
		{ID: "quercus_robur", Family: "Fagaceae", Tiers: TierSetOf(TierHumidTemperate)},
		{ID: "fagus_sylvatica", Family: "Fagaceae", Tiers: TierSetOf(TierHumidTemperate, TierContinental)},
		{ID: "lavandula_angustifolia", Family: "Lamiaceae", Tiers: TierSetOf(TierMediterranean)},
	}

	kb, err := NewKnowledgeBase(records)
	require.NoError(t, err)

	assert.Equal(t, 3, kb.Len())
	assert.Equal(t, []string{"fagus_sylvatica", "lavandula_angustifolia", "quercus_robur"}, kb.IDs())

	sp, ok := kb.Get("quercus_robur")
	require.True(t, ok)
	assert.Equal(t, "Fagaceae", sp.Family)

	_, ok = kb.Get("missing")
	assert.False(t, ok)

	assert.Equal(t, []string{"Fagaceae", "Lamiaceae"}, kb.Families())
	assert.Equal(t, []string{"fagus_sylvatica", "quercus_robur"}, kb.FamilyMembers("Fagaceae"))

	assert.Equal(t, []string{"fagus_sylvatica", "quercus_robur"}, kb.TierMembers(TierHumidTemperate))
	assert.Equal(t, []string{"fagus_sylvatica"}, kb.TierMembers(TierContinental))
	assert.Empty(t, kb.TierMembers(TierArid))
}

func TestNewKnowledgeBaseRejectsBadRecords(t *testing.T) {
	_, err := NewKnowledgeBase([]Species{{ID: "a"}, {ID: "a"}})
	assert.ErrorContains(t, err, "duplicate species id")

	_, err = NewKnowledgeBase([]Species{{ID: ""}})
	assert.ErrorContains(t, err, "empty id")
}

func TestKnowledgeBaseChecksum(t *testing.T) {
	a, err := NewKnowledgeBase([]Species{{ID: "x"}, {ID: "y"}})
	require.NoError(t, err)

	// Checksum depends on the id set, not insertion order.
	b, err := NewKnowledgeBase([]Species{{ID: "y"}, {ID: "x"}})
	require.NoError(t, err)
	assert.Equal(t, a.Checksum(), b.Checksum())

	c, err := NewKnowledgeBase([]Species{{ID: "x"}, {ID: "z"}})
	require.NoError(t, err)
	assert.NotEqual(t, a.Checksum(), c.Checksum())
}
