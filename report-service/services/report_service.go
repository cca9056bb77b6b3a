package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"vinesight-backend/shared/database/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReportService aggregates record history into summaries and flat CSV
// exports.
type ReportService struct {
	db *gorm.DB
}

func NewReportService(db *gorm.DB) *ReportService {
	return &ReportService{db: db}
}

// FarmSummary is the per-farm aggregate view over a date range.
type FarmSummary struct {
	FarmID         uuid.UUID        `json:"farm_id"`
	From           *time.Time       `json:"from,omitempty"`
	To             *time.Time       `json:"to,omitempty"`
	RecordCounts   map[string]int64 `json:"record_counts"`
	TotalExpenses  float64          `json:"total_expenses"`
	TotalHarvestKg float64          `json:"total_harvest_kg"`
	OpenTasks      int64            `json:"open_tasks"`
}

// Summarize builds the aggregate view for one farm.
func (s *ReportService) Summarize(ctx context.Context, farmID uuid.UUID, from, to *time.Time) (*FarmSummary, error) {
	summary := &FarmSummary{
		FarmID:       farmID,
		From:         from,
		To:           to,
		RecordCounts: make(map[string]int64),
	}

	type typeCount struct {
		RecordType string
		Count      int64
	}
	var counts []typeCount
	query := s.db.WithContext(ctx).Model(&models.FarmRecord{}).
		Select("record_type, COUNT(*) as count").
		Where("farm_id = ?", farmID).
		Group("record_type")
	query = applyRange(query, from, to)
	if err := query.Scan(&counts).Error; err != nil {
		return nil, fmt.Errorf("report: count records: %w", err)
	}
	for _, c := range counts {
		summary.RecordCounts[c.RecordType] = c.Count
	}

	// Expense amounts and harvest weights live in the jsonb payload.
	expenseQuery := s.db.WithContext(ctx).Model(&models.FarmRecord{}).
		Select("COALESCE(SUM((payload->>'amount')::numeric), 0)").
		Where("farm_id = ? AND record_type = ?", farmID, models.RecordTypeExpense)
	expenseQuery = applyRange(expenseQuery, from, to)
	if err := expenseQuery.Scan(&summary.TotalExpenses).Error; err != nil {
		return nil, fmt.Errorf("report: sum expenses: %w", err)
	}

	harvestQuery := s.db.WithContext(ctx).Model(&models.FarmRecord{}).
		Select("COALESCE(SUM((payload->>'quantity_kg')::numeric), 0)").
		Where("farm_id = ? AND record_type = ?", farmID, models.RecordTypeHarvest)
	harvestQuery = applyRange(harvestQuery, from, to)
	if err := harvestQuery.Scan(&summary.TotalHarvestKg).Error; err != nil {
		return nil, fmt.Errorf("report: sum harvest: %w", err)
	}

	if err := s.db.WithContext(ctx).Model(&models.Task{}).
		Where("farm_id = ? AND status = ?", farmID, models.TaskStatusOpen).
		Count(&summary.OpenTasks).Error; err != nil {
		return nil, fmt.Errorf("report: count open tasks: %w", err)
	}

	return summary, nil
}

// FetchRecords loads the records that go into an export, oldest first.
func (s *ReportService) FetchRecords(ctx context.Context, farmID uuid.UUID, recordType string, from, to *time.Time) ([]models.FarmRecord, error) {
	query := s.db.WithContext(ctx).
		Where("farm_id = ?", farmID).
		Order("record_date ASC")
	if recordType != "" {
		query = query.Where("record_type = ?", recordType)
	}
	query = applyRange(query, from, to)

	var records []models.FarmRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("report: fetch records: %w", err)
	}
	return records, nil
}

// BuildRecordsCSV flattens records into CSV. The jsonb payload goes out
// verbatim in its own column; consumers that need typed columns can pivot
// on record_type downstream.
func (s *ReportService) BuildRecordsCSV(records []models.FarmRecord) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"id", "farm_id", "record_type", "record_date", "notes", "payload", "created_by", "created_at"}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("report: write csv header: %w", err)
	}

	for _, r := range records {
		row := []string{
			r.ID.String(),
			r.FarmID.String(),
			r.RecordType,
			r.RecordDate.Format(time.RFC3339),
			r.Notes,
			string(r.Payload),
			r.CreatedBy.String(),
			r.CreatedAt.Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("report: write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("report: flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

func applyRange(query *gorm.DB, from, to *time.Time) *gorm.DB {
	if from != nil {
		query = query.Where("record_date >= ?", *from)
	}
	if to != nil {
		query = query.Where("record_date <= ?", *to)
	}
	return query
}
