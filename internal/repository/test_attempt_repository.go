package repository

import (
	"errors"
	"sat_prep_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type TestAttemptRepository struct {
	DB *gorm.DB
}

func NewTestAttemptRepository(db *gorm.DB) *TestAttemptRepository {
	return &TestAttemptRepository{DB: db}
}

func (r *TestAttemptRepository) Create(attempt *model.TestAttempt) error {
	return r.DB.Create(attempt).Error
}

func (r *TestAttemptRepository) FindByID(id uint) (*model.TestAttempt, error) {
	var attempt model.TestAttempt
	if err := r.DB.First(&attempt, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &attempt, nil
}

// FindInProgress 查找用户在该测试下未完成的尝试，不存在时返回 nil
func (r *TestAttemptRepository) FindInProgress(userID, testID uint) (*model.TestAttempt, error) {
	var attempt model.TestAttempt
	err := r.DB.Where("user_id = ? AND test_id = ? AND status = ?",
		userID, testID, model.AttemptInProgress).First(&attempt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &attempt, nil
}

func (r *TestAttemptRepository) CountCompleted(userID, testID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.TestAttempt{}).
		Where("user_id = ? AND test_id = ? AND status = ?", userID, testID, model.AttemptCompleted).
		Count(&count).Error
	return count, err
}

func (r *TestAttemptRepository) CountIncomplete(userID, testID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.TestAttempt{}).
		Where("user_id = ? AND test_id = ? AND status = ?", userID, testID, model.AttemptInProgress).
		Count(&count).Error
	return count, err
}

// Finalize 将尝试从 in-progress 原子地推进到终态，并在同一事务内保存奖励后的用户。
// WHERE 条件带上原状态，防止并发重复交卷；条件不满足时返回 false。
func (r *TestAttemptRepository) Finalize(attempt *model.TestAttempt, user *model.User) (bool, error) {
	finalized := false
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.TestAttempt{}).
			Where("id = ? AND status = ?", attempt.ID, model.AttemptInProgress).
			Updates(map[string]interface{}{
				"status":                attempt.Status,
				"end_time":              attempt.EndTime,
				"duration_minutes":      attempt.DurationMinutes,
				"score":                 attempt.Score,
				"max_score":             attempt.MaxScore,
				"percentage":            attempt.Percentage,
				"question_outcomes":     attempt.QuestionOutcomes,
				"correct_count":         attempt.CorrectCount,
				"incorrect_count":       attempt.IncorrectCount,
				"skipped_count":         attempt.SkippedCount,
				"avg_time_per_question": attempt.AvgTimePerQuestion,
				"updated_at":            time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		finalized = true

		if user != nil {
			return tx.Save(user).Error
		}
		return nil
	})
	return finalized, err
}
