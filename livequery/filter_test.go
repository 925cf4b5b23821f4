package livequery_test

import (
	"testing"
	"time"

	"github.com/blutspende/logboard/livequery"
	"github.com/blutspende/logboard/logs/model"
	"github.com/google/uuid"

	assert "github.com/go-playground/assert/v2"
)

func record(userID, application, logger string, level model.LogLevel) model.LogRecord {
	return model.LogRecord{
		ID:          uuid.New(),
		UserID:      userID,
		Application: application,
		Logger:      logger,
		Timestamp:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Level:       level,
		Message:     "message",
	}
}

func testRecords() []model.LogRecord {
	return []model.LogRecord{
		record("Alice", "app1", "db", model.Error),
		record("bob", "app1", "http", model.Info),
		record("alice2", "app2", "db", model.Error),
		record("carol", "app2", "http", model.Debug),
		record("ALICE", "app1", "db", model.Warning),
	}
}

func TestApplyAllPassesEverything(t *testing.T) {
	records := testRecords()

	assert.Equal(t, records, livequery.Apply(records, livequery.AllFilter()))
	assert.Equal(t, records, livequery.Apply(records, livequery.Filter{}))
	assert.Equal(t, livequery.AllFilter(), livequery.Filter{Level: " ALL "}.Normalized())
}

func TestApplyIsConjunctive(t *testing.T) {
	records := testRecords()

	filtered := livequery.Apply(records, livequery.Filter{Level: "error", Application: "app1"})
	assert.Equal(t, 1, len(filtered))
	assert.Equal(t, records[0].ID, filtered[0].ID)

	filtered = livequery.Apply(records, livequery.Filter{Level: "error", Logger: "db"})
	assert.Equal(t, 2, len(filtered))

	filtered = livequery.Apply(records, livequery.Filter{Level: "error", Application: "app1", Logger: "http"})
	assert.Equal(t, 0, len(filtered))
}

func TestApplyLevelFilterIgnoresCase(t *testing.T) {
	records := testRecords()

	filtered := livequery.Apply(records, livequery.Filter{Level: "ERROR"})
	assert.Equal(t, 2, len(filtered))
	assert.Equal(t, records[0].ID, filtered[0].ID)
	assert.Equal(t, records[2].ID, filtered[1].ID)

	assert.Equal(t, "warning", livequery.Filter{Level: "Warning"}.Normalized().Level)
}

func TestApplyUserIDIsCaseInsensitiveSubstring(t *testing.T) {
	records := testRecords()

	filtered := livequery.Apply(records, livequery.Filter{UserID: "alice"})
	assert.Equal(t, 3, len(filtered))
	assert.Equal(t, records[0].ID, filtered[0].ID)
	assert.Equal(t, records[2].ID, filtered[1].ID)
	assert.Equal(t, records[4].ID, filtered[2].ID)

	filtered = livequery.Apply(records, livequery.Filter{UserID: "  LIC  "})
	assert.Equal(t, 3, len(filtered))

	filtered = livequery.Apply(records, livequery.Filter{UserID: "   "})
	assert.Equal(t, len(records), len(filtered))
}

func TestApplyDoesNotModifyInput(t *testing.T) {
	records := testRecords()
	ids := make([]uuid.UUID, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID)
	}

	_ = livequery.Apply(records, livequery.Filter{Level: "debug"})

	for i := range records {
		assert.Equal(t, ids[i], records[i].ID)
	}
}

func TestApplyOnEmptyCollection(t *testing.T) {
	filtered := livequery.Apply(nil, livequery.Filter{Level: "info"})
	assert.Equal(t, 0, len(filtered))
}
