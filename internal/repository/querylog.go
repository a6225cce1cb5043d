package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/yogveda/backend/internal/errs"
	"github.com/yogveda/backend/internal/models"
)

// QueryLogRepositoryImpl implements models.QueryLogRepository
type QueryLogRepositoryImpl struct {
	db *gorm.DB
}

func NewQueryLogRepository(db *gorm.DB) models.QueryLogRepository {
	return &QueryLogRepositoryImpl{db: db}
}

func (r *QueryLogRepositoryImpl) Create(log *models.QueryLog) error {
	if err := r.db.Create(log).Error; err != nil {
		return errs.Wrap(errs.KindPersistence, "failed to create query log", err)
	}
	return nil
}

func (r *QueryLogRepositoryImpl) GetByPublicID(publicID string) (*models.QueryLog, error) {
	var log models.QueryLog
	err := r.db.Where("public_id = ?", publicID).First(&log).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.New(errs.KindNotFound, "query not found")
		}
		return nil, errs.Wrap(errs.KindPersistence, "failed to load query log", err)
	}
	return &log, nil
}

// SetFeedback overwrites the feedback fields of the record. Last write wins.
func (r *QueryLogRepositoryImpl) SetFeedback(publicID string, helpful bool, at time.Time) (*models.QueryLog, error) {
	log, err := r.GetByPublicID(publicID)
	if err != nil {
		return nil, err
	}

	log.FeedbackHelpful = &helpful
	log.FeedbackAt = &at

	if err := r.db.Model(log).Updates(map[string]interface{}{
		"feedback_helpful": helpful,
		"feedback_at":      at,
	}).Error; err != nil {
		return nil, errs.Wrap(errs.KindPersistence, "failed to save feedback", err)
	}
	return log, nil
}

func (r *QueryLogRepositoryImpl) GetRecent(limit int) ([]models.QueryLog, error) {
	var logs []models.QueryLog
	err := r.db.Order("created_at DESC").Limit(limit).Find(&logs).Error
	if err != nil {
		return nil, errs.Wrap(errs.KindPersistence, "failed to load recent queries", err)
	}
	return logs, nil
}

func (r *QueryLogRepositoryImpl) Stats() (*models.QueryStats, error) {
	var stats models.QueryStats

	if err := r.db.Model(&models.QueryLog{}).Count(&stats.TotalQueries).Error; err != nil {
		return nil, errs.Wrap(errs.KindPersistence, "failed to count queries", err)
	}
	if err := r.db.Model(&models.QueryLog{}).Where("is_unsafe = ?", true).Count(&stats.UnsafeQueries).Error; err != nil {
		return nil, errs.Wrap(errs.KindPersistence, "failed to count unsafe queries", err)
	}
	stats.SafeQueries = stats.TotalQueries - stats.UnsafeQueries
	if stats.TotalQueries > 0 {
		stats.UnsafePercentage = float64(stats.UnsafeQueries) / float64(stats.TotalQueries) * 100
	}

	var avg *float64
	if err := r.db.Model(&models.QueryLog{}).Select("AVG(response_time_ms)").Scan(&avg).Error; err != nil {
		return nil, errs.Wrap(errs.KindPersistence, "failed to average response time", err)
	}
	if avg != nil {
		stats.AvgResponseTime = *avg
	}

	return &stats, nil
}

func (r *QueryLogRepositoryImpl) FeedbackStats() (*models.FeedbackStats, error) {
	var stats models.FeedbackStats

	if err := r.db.Model(&models.QueryLog{}).Where("feedback_helpful IS NOT NULL").Count(&stats.TotalWithFeedback).Error; err != nil {
		return nil, errs.Wrap(errs.KindPersistence, "failed to count feedback", err)
	}
	if err := r.db.Model(&models.QueryLog{}).Where("feedback_helpful = ?", true).Count(&stats.Helpful).Error; err != nil {
		return nil, errs.Wrap(errs.KindPersistence, "failed to count helpful feedback", err)
	}
	if err := r.db.Model(&models.QueryLog{}).Where("feedback_helpful = ?", false).Count(&stats.Unhelpful).Error; err != nil {
		return nil, errs.Wrap(errs.KindPersistence, "failed to count unhelpful feedback", err)
	}
	if stats.TotalWithFeedback > 0 {
		stats.HelpfulPercentage = float64(stats.Helpful) / float64(stats.TotalWithFeedback) * 100
	}

	return &stats, nil
}
