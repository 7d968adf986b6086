package fleet

// Audience segments a session can target. The cycle order below is the order
// a session walks through during a working day; "online" is the terminal
// segment and doubles as the permanent fallback.
const (
	SegmentPayers        = "payers"
	SegmentInbox         = "inbox"
	SegmentFavoritesMine = "favorites-mine"
	SegmentFavorites     = "favorites"
	SegmentOnline        = "online"
)

// DefaultSegmentOrder is the production cycle order.
var DefaultSegmentOrder = []string{
	SegmentPayers,
	SegmentInbox,
	SegmentFavoritesMine,
	SegmentFavorites,
	SegmentOnline,
}

// NextSegment returns the segment a session should target after current.
// Unknown current segments restart the cycle from the top. Segments listed in
// disabled are skipped, except "online": it is the guaranteed fallback and
// cannot be suppressed, so a session parked on "online" stays there.
func NextSegment(current string, order []string, disabled map[string]bool) string {
	idx := -1
	for i, seg := range order {
		if seg == current {
			idx = i
			break
		}
	}

	for i := idx + 1; i < len(order); i++ {
		seg := order[i]
		if seg == SegmentOnline {
			return SegmentOnline
		}
		if !disabled[seg] {
			return seg
		}
	}

	return SegmentOnline
}
