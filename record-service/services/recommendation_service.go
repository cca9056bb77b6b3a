package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vinesight-backend/shared/database/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RecommendationService turns recent record history into advisor tasks.
// The rules are deliberately simple threshold checks over the record
// timeline; the value is that they run against the same farm access rules
// as everything else, so a consultant cannot generate tasks for a farm
// they cannot see.
type RecommendationService struct {
	db *gorm.DB
}

func NewRecommendationService(db *gorm.DB) *RecommendationService {
	return &RecommendationService{db: db}
}

// advisorRule checks one condition on a farm's history and, when it
// fires, describes the task to open.
type advisorRule struct {
	recordType string
	maxAge     time.Duration
	title      string
	priority   string
	description func(last *time.Time) string
}

var advisorRules = []advisorRule{
	{
		recordType: models.RecordTypeIrrigation,
		maxAge:     10 * 24 * time.Hour,
		title:      "Schedule irrigation",
		priority:   "high",
		description: func(last *time.Time) string {
			if last == nil {
				return "No irrigation has been recorded for this farm yet."
			}
			return fmt.Sprintf("Last irrigation was recorded on %s.", last.Format("2006-01-02"))
		},
	},
	{
		recordType: models.RecordTypeSpray,
		maxAge:     21 * 24 * time.Hour,
		title:      "Plan a spray pass",
		priority:   "normal",
		description: func(last *time.Time) string {
			if last == nil {
				return "No spray application has been recorded for this farm yet."
			}
			return fmt.Sprintf("Last spray pass was recorded on %s.", last.Format("2006-01-02"))
		},
	},
	{
		recordType: models.RecordTypeTest,
		maxAge:     365 * 24 * time.Hour,
		title:      "Book a soil or petiole test",
		priority:   "low",
		description: func(last *time.Time) string {
			if last == nil {
				return "No soil or petiole test is on file for this farm."
			}
			return fmt.Sprintf("The most recent test result is from %s.", last.Format("2006-01-02"))
		},
	},
}

// GenerateForFarm evaluates every rule against the farm's record history
// and opens advisor tasks for the ones that fire. A rule whose task is
// already open is skipped, so repeated runs do not pile up duplicates.
// Returns only the newly created tasks.
func (s *RecommendationService) GenerateForFarm(ctx context.Context, farm *models.Farm, requestedBy uuid.UUID) ([]models.Task, error) {
	var created []models.Task

	for _, rule := range advisorRules {
		last, err := s.lastRecordDate(ctx, farm.ID, rule.recordType)
		if err != nil {
			return nil, fmt.Errorf("recommendation: read history: %w", err)
		}
		if last != nil && time.Since(*last) <= rule.maxAge {
			continue
		}

		open, err := s.hasOpenAdvisorTask(ctx, farm.ID, rule.title)
		if err != nil {
			return nil, fmt.Errorf("recommendation: check open tasks: %w", err)
		}
		if open {
			continue
		}

		task := models.Task{
			FarmID:      farm.ID,
			Title:       rule.title,
			Description: rule.description(last),
			Status:      models.TaskStatusOpen,
			Priority:    rule.priority,
			Source:      models.TaskSourceAdvisor,
			CreatedBy:   requestedBy,
			CreatedAt:   time.Now(),
			UpdatedAt:   time.Now(),
		}
		if err := s.db.WithContext(ctx).Create(&task).Error; err != nil {
			return nil, fmt.Errorf("recommendation: create task: %w", err)
		}
		created = append(created, task)
	}

	return created, nil
}

func (s *RecommendationService) lastRecordDate(ctx context.Context, farmID uuid.UUID, recordType string) (*time.Time, error) {
	var record models.FarmRecord
	err := s.db.WithContext(ctx).
		Where("farm_id = ? AND record_type = ?", farmID, recordType).
		Order("record_date DESC").
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record.RecordDate, nil
}

func (s *RecommendationService) hasOpenAdvisorTask(ctx context.Context, farmID uuid.UUID, title string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Task{}).
		Where("farm_id = ? AND title = ? AND source = ? AND status = ?",
			farmID, title, models.TaskSourceAdvisor, models.TaskStatusOpen).
		Count(&count).Error
	return count > 0, err
}
