package fleet

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlacklistInsertAndOrder(t *testing.T) {
	bl := NewBlacklist()

	bl.Insert("p1", "2026-08-29")
	bl.Insert("p2", "2026-08-29")

	entries := bl.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "p1", entries[0].PartnerID)
	assert.Equal(t, "p2", entries[1].PartnerID)
}

func TestBlacklistAllowsDuplicates(t *testing.T) {
	bl := NewBlacklist()

	bl.Insert("p1", "2026-08-28")
	bl.Insert("p1", "2026-08-29")

	assert.Equal(t, 2, bl.Len())
}

func TestBlacklistEvictsStrictlyOldest(t *testing.T) {
	bl := NewBlacklist()

	for i := 1; i <= BlacklistCapacity+1; i++ {
		bl.Insert(fmt.Sprintf("p%d", i), "2026-08-29")
	}

	entries := bl.Entries()
	require.Len(t, entries, BlacklistCapacity)
	assert.Equal(t, "p2", entries[0].PartnerID, "first insert must be the one evicted")
	assert.Equal(t, fmt.Sprintf("p%d", BlacklistCapacity+1), entries[len(entries)-1].PartnerID)
}

func TestBlacklistListVisibleWindow(t *testing.T) {
	bl := NewBlacklist()

	bl.Insert("old", "2026-08-20")
	bl.Insert("yesterday", "2026-08-28")
	bl.Insert("today", "2026-08-29")

	window := map[string]bool{"2026-08-28": true, "2026-08-29": true}
	visible := bl.ListVisible(window)

	require.Len(t, visible, 2)
	assert.Equal(t, "yesterday", visible[0].PartnerID)
	assert.Equal(t, "today", visible[1].PartnerID)
}

func TestBlacklistLoadTruncatesToNewest(t *testing.T) {
	entries := make([]BlacklistEntry, BlacklistCapacity+10)
	for i := range entries {
		entries[i] = BlacklistEntry{PartnerID: fmt.Sprintf("p%d", i), Date: "2026-08-29"}
	}

	bl := NewBlacklist()
	bl.Load(entries)

	require.Equal(t, BlacklistCapacity, bl.Len())
	got := bl.Entries()
	assert.Equal(t, "p10", got[0].PartnerID, "oldest overflow must be dropped on load")
}
