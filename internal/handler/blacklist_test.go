package handler

import (
	"bytes"
	"errors"
	"log"
	"os"
	"testing"

	"amorbot/internal/fleet"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersistBlacklistEntryLogsFailure(t *testing.T) {
	orig := saveBlacklistEntry
	saveBlacklistEntry = func(e fleet.BlacklistEntry) error {
		return errors.New("db down")
	}
	defer func() { saveBlacklistEntry = orig }()

	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	persistBlacklistEntry(fleet.BlacklistEntry{PartnerID: "p1", Date: "2026-08-29"})

	assert.Contains(t, buf.String(), "failed to persist blacklist entry p1")
	assert.Contains(t, buf.String(), "db down")
}

func TestPersistBlacklistEntrySuccessIsQuiet(t *testing.T) {
	var saved []fleet.BlacklistEntry
	orig := saveBlacklistEntry
	saveBlacklistEntry = func(e fleet.BlacklistEntry) error {
		saved = append(saved, e)
		return nil
	}
	defer func() { saveBlacklistEntry = orig }()

	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	persistBlacklistEntry(fleet.BlacklistEntry{PartnerID: "p2", Date: "2026-08-29"})

	require.Len(t, saved, 1)
	assert.Equal(t, "p2", saved[0].PartnerID)
	assert.Empty(t, buf.String())
}
