package fleet

import (
	"sync"
	"time"
)

// BlacklistCapacity bounds the exclusion list. Insertion beyond it evicts
// the single oldest entry: a rolling window of recent exclusions, not a
// hot-set cache, so eviction is strictly by insertion age.
const BlacklistCapacity = 5000

// BlacklistDateLayout is the canonical date key for visibility windows.
const BlacklistDateLayout = "2006-01-02"

// BlacklistEntry is one excluded partner. Duplicate partner ids are allowed:
// each insert carries its own date, and repeats can be meaningful per date.
type BlacklistEntry struct {
	PartnerID string `json:"partner_id"`
	Date      string `json:"date"` // BlacklistDateLayout
}

// Blacklist is a bounded FIFO set of excluded partner identifiers.
type Blacklist struct {
	mu      sync.Mutex
	entries []BlacklistEntry
}

func NewBlacklist() *Blacklist {
	return &Blacklist{}
}

// Insert appends the entry and evicts the oldest one when over capacity.
// Eviction is atomic with insertion so the bound holds under concurrent
// inserts.
func (b *Blacklist) Insert(partnerID, date string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries = append(b.entries, BlacklistEntry{PartnerID: partnerID, Date: date})
	if len(b.entries) > BlacklistCapacity {
		b.entries = b.entries[1:]
	}
}

// InsertNow inserts with today's date.
func (b *Blacklist) InsertNow(partnerID string) {
	b.Insert(partnerID, time.Now().Format(BlacklistDateLayout))
}

// ListVisible returns entries whose date is in the caller-supplied window
// (typically today/yesterday), oldest first for display.
func (b *Blacklist) ListVisible(window map[string]bool) []BlacklistEntry {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []BlacklistEntry
	for _, e := range b.entries {
		if window[e.Date] {
			out = append(out, e)
		}
	}
	return out
}

// Entries returns a copy in insertion order (oldest first).
func (b *Blacklist) Entries() []BlacklistEntry {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]BlacklistEntry, len(b.entries))
	copy(out, b.entries)
	return out
}

// Load replaces the contents, oldest first, truncating to capacity. Used at
// startup to restore the persisted snapshot.
func (b *Blacklist) Load(entries []BlacklistEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(entries) > BlacklistCapacity {
		entries = entries[len(entries)-BlacklistCapacity:]
	}
	b.entries = make([]BlacklistEntry, len(entries))
	copy(b.entries, entries)
}

// Len reports the current size.
func (b *Blacklist) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}
