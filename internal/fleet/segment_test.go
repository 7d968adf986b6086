package fleet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextSegmentWalksDefaultOrder(t *testing.T) {
	disabled := map[string]bool{}

	assert.Equal(t, SegmentInbox, NextSegment(SegmentPayers, DefaultSegmentOrder, disabled))
	assert.Equal(t, SegmentFavoritesMine, NextSegment(SegmentInbox, DefaultSegmentOrder, disabled))
	assert.Equal(t, SegmentFavorites, NextSegment(SegmentFavoritesMine, DefaultSegmentOrder, disabled))
	assert.Equal(t, SegmentOnline, NextSegment(SegmentFavorites, DefaultSegmentOrder, disabled))
}

func TestNextSegmentSkipsDisabled(t *testing.T) {
	disabled := map[string]bool{
		SegmentInbox:     true,
		SegmentFavorites: true,
	}

	// payers -> (inbox skipped) -> favorites-mine
	assert.Equal(t, SegmentFavoritesMine, NextSegment(SegmentPayers, DefaultSegmentOrder, disabled))
	// favorites-mine -> (favorites skipped) -> online
	assert.Equal(t, SegmentOnline, NextSegment(SegmentFavoritesMine, DefaultSegmentOrder, disabled))
}

func TestNextSegmentOnlineIsTerminal(t *testing.T) {
	assert.Equal(t, SegmentOnline, NextSegment(SegmentOnline, DefaultSegmentOrder, nil))
}

func TestNextSegmentOnlineCannotBeDisabled(t *testing.T) {
	disabled := map[string]bool{SegmentOnline: true}

	assert.Equal(t, SegmentOnline, NextSegment(SegmentFavorites, DefaultSegmentOrder, disabled))
	assert.Equal(t, SegmentOnline, NextSegment(SegmentOnline, DefaultSegmentOrder, disabled))
}

func TestNextSegmentEverythingDisabledFallsBackToOnline(t *testing.T) {
	disabled := map[string]bool{
		SegmentPayers:        true,
		SegmentInbox:         true,
		SegmentFavoritesMine: true,
		SegmentFavorites:     true,
	}

	assert.Equal(t, SegmentOnline, NextSegment(SegmentPayers, DefaultSegmentOrder, disabled))
}

func TestNextSegmentUnknownCurrentRestartsCycle(t *testing.T) {
	assert.Equal(t, SegmentPayers, NextSegment("bogus", DefaultSegmentOrder, map[string]bool{}))
	assert.Equal(t, SegmentPayers, NextSegment("", DefaultSegmentOrder, map[string]bool{}))
}

func TestNextSegmentCustomOrder(t *testing.T) {
	order := []string{SegmentFavorites, SegmentPayers, SegmentOnline}

	assert.Equal(t, SegmentPayers, NextSegment(SegmentFavorites, order, nil))
	assert.Equal(t, SegmentOnline, NextSegment(SegmentPayers, order, nil))
}
