package repository

import (
	"errors"
	"sat_prep_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type TestRepository struct {
	DB *gorm.DB
}

func NewTestRepository(db *gorm.DB) *TestRepository {
	return &TestRepository{DB: db}
}

func (r *TestRepository) Create(test *model.Test) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		return tx.Create(test).Error
	})
}

// FindByID 未找到时返回 (nil, nil)，由调用方决定如何处理
func (r *TestRepository) FindByID(id uint) (*model.Test, error) {
	var test model.Test
	err := r.DB.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("question_order ASC")
	}).First(&test, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &test, nil
}

func (r *TestRepository) ListPublished(page, limit int) ([]model.Test, int64, error) {
	var tests []model.Test
	var total int64

	query := r.DB.Model(&model.Test{}).Where("is_published = ?", true)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := query.Offset(offset).Limit(limit).Order("published_at DESC").Find(&tests).Error
	return tests, total, err
}

func (r *TestRepository) SetPublished(id uint, publish bool) error {
	updates := map[string]interface{}{"is_published": publish}
	if publish {
		updates["published_at"] = time.Now()
	} else {
		updates["published_at"] = nil
	}
	return r.DB.Model(&model.Test{}).Where("id = ?", id).Updates(updates).Error
}
