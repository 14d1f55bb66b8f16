package bootstrap

import (
	"context"
	"testing"

	"go-leave/internal/audit"
	"go-leave/internal/shared/testdb"

	"github.com/stretchr/testify/assert"
)

func TestStoreAuditLogger_PersistsEntries(t *testing.T) {
	store := audit.NewRepository(testdb.Open(t, &audit.Entry{}))
	logger := NewStoreAuditLogger(store)

	logger.Log(context.Background(), AuditLog{Action: "SERVER_STARTED", Message: "API ready", Meta: map[string]any{"port": "3000"}})
	logger.Log(context.Background(), AuditLog{Action: "SERVER_SHUTDOWN", Message: "Server is shutting down"})

	entries, err := store.ListBySubject(context.Background(), "system")
	assert.NoError(t, err)
	if assert.Len(t, entries, 2) {
		summaries := []string{entries[0].Summary, entries[1].Summary}
		assert.Contains(t, summaries, `API ready {"port":"3000"}`)
		assert.Contains(t, summaries, "Server is shutting down")
	}
}

func TestNewLogger(t *testing.T) {
	for _, production := range []bool{false, true} {
		logger, err := NewLogger(production)
		assert.NoError(t, err)
		assert.NotNil(t, logger)
	}
}
