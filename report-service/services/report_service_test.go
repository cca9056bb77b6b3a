package services

import (
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"vinesight-backend/shared/database/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestBuildRecordsCSV(t *testing.T) {
	svc := &ReportService{}
	farmID := uuid.New()
	createdBy := uuid.New()
	recordDate := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)

	records := []models.FarmRecord{
		{
			ID:         uuid.New(),
			FarmID:     farmID,
			RecordType: models.RecordTypeHarvest,
			RecordDate: recordDate,
			Payload:    datatypes.JSON(`{"quantity_kg": 420.5, "block": "A"}`),
			Notes:      "first pick, \"good\" sugar levels",
			CreatedBy:  createdBy,
		},
		{
			ID:         uuid.New(),
			FarmID:     farmID,
			RecordType: models.RecordTypeExpense,
			RecordDate: recordDate.Add(24 * time.Hour),
			Payload:    datatypes.JSON(`{"amount": 120, "category": "fuel"}`),
			CreatedBy:  createdBy,
		},
	}

	out, err := svc.BuildRecordsCSV(records)
	require.NoError(t, err)

	parsed, err := csv.NewReader(strings.NewReader(string(out))).ReadAll()
	require.NoError(t, err)
	require.Len(t, parsed, 3)

	assert.Equal(t, []string{"id", "farm_id", "record_type", "record_date", "notes", "payload", "created_by", "created_at"}, parsed[0])
	assert.Equal(t, records[0].ID.String(), parsed[1][0])
	assert.Equal(t, models.RecordTypeHarvest, parsed[1][2])
	assert.Equal(t, "2026-03-14T08:00:00Z", parsed[1][3])
	assert.Equal(t, `first pick, "good" sugar levels`, parsed[1][4])
	assert.Equal(t, `{"quantity_kg": 420.5, "block": "A"}`, parsed[1][5])
	assert.Equal(t, models.RecordTypeExpense, parsed[2][2])
}

func TestBuildRecordsCSVEmpty(t *testing.T) {
	svc := &ReportService{}

	out, err := svc.BuildRecordsCSV(nil)
	require.NoError(t, err)

	parsed, err := csv.NewReader(strings.NewReader(string(out))).ReadAll()
	require.NoError(t, err)
	require.Len(t, parsed, 1, "header only")
}
