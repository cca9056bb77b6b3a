package services

import (
	"context"
	"testing"
	"time"

	"vinesight-backend/shared/database/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockRecommendationService(t *testing.T) (*RecommendationService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 db,
		PreferSimpleProtocol: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	return NewRecommendationService(gormDB), mock
}

func expectLastRecord(mock sqlmock.Sqlmock, farmID uuid.UUID, recordDate *time.Time) {
	query := mock.ExpectQuery(`SELECT \* FROM "farm_records"`)
	if recordDate == nil {
		query.WillReturnError(gorm.ErrRecordNotFound)
		return
	}
	query.WillReturnRows(sqlmock.NewRows([]string{"id", "farm_id", "record_type", "record_date"}).
		AddRow(uuid.New(), farmID, "irrigation", *recordDate))
}

func expectOpenTaskCount(mock sqlmock.Sqlmock, count int64) {
	mock.ExpectQuery(`SELECT count\(\*\) FROM "tasks"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(count))
}

func expectTaskInsert(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "tasks"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New()))
	mock.ExpectCommit()
}

func TestGenerateForFarmOpensTasksForStaleHistory(t *testing.T) {
	svc, mock := newMockRecommendationService(t)
	farm := &models.Farm{ID: uuid.New(), Name: "North Block"}
	requestedBy := uuid.New()

	// No history at all: every rule fires.
	for range advisorRules {
		expectLastRecord(mock, farm.ID, nil)
		expectOpenTaskCount(mock, 0)
		expectTaskInsert(mock)
	}

	created, err := svc.GenerateForFarm(context.Background(), farm, requestedBy)
	require.NoError(t, err)
	require.Len(t, created, len(advisorRules))

	assert.Equal(t, "Schedule irrigation", created[0].Title)
	assert.Equal(t, "high", created[0].Priority)
	assert.Equal(t, models.TaskSourceAdvisor, created[0].Source)
	assert.Equal(t, models.TaskStatusOpen, created[0].Status)
	assert.Equal(t, requestedBy, created[0].CreatedBy)

	assert.Equal(t, "Plan a spray pass", created[1].Title)
	assert.Equal(t, "Book a soil or petiole test", created[2].Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerateForFarmSkipsRecentHistory(t *testing.T) {
	svc, mock := newMockRecommendationService(t)
	farm := &models.Farm{ID: uuid.New()}
	recent := time.Now().Add(-24 * time.Hour)

	// Fresh records for every type: no rule fires, no task queries run.
	for range advisorRules {
		expectLastRecord(mock, farm.ID, &recent)
	}

	created, err := svc.GenerateForFarm(context.Background(), farm, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerateForFarmSkipsDuplicateOpenTasks(t *testing.T) {
	svc, mock := newMockRecommendationService(t)
	farm := &models.Farm{ID: uuid.New()}

	// History is stale everywhere but every advisor task is already open.
	for range advisorRules {
		expectLastRecord(mock, farm.ID, nil)
		expectOpenTaskCount(mock, 1)
	}

	created, err := svc.GenerateForFarm(context.Background(), farm, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerateForFarmDescribesLastRecordDate(t *testing.T) {
	svc, mock := newMockRecommendationService(t)
	farm := &models.Farm{ID: uuid.New()}
	stale := time.Now().Add(-40 * 24 * time.Hour)

	// Irrigation and spray are stale with known dates; tests never ran.
	expectLastRecord(mock, farm.ID, &stale)
	expectOpenTaskCount(mock, 0)
	expectTaskInsert(mock)

	expectLastRecord(mock, farm.ID, &stale)
	expectOpenTaskCount(mock, 0)
	expectTaskInsert(mock)

	expectLastRecord(mock, farm.ID, nil)
	expectOpenTaskCount(mock, 0)
	expectTaskInsert(mock)

	created, err := svc.GenerateForFarm(context.Background(), farm, uuid.New())
	require.NoError(t, err)
	require.Len(t, created, 3)

	assert.Contains(t, created[0].Description, stale.Format("2006-01-02"))
	assert.Contains(t, created[2].Description, "No soil or petiole test is on file")
	assert.NoError(t, mock.ExpectationsWereMet())
}
