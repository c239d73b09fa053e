package service

import (
	"encoding/json"
	"sat_prep_backend/internal/model"
	"sat_prep_backend/internal/util"
)

// TestCatalogStore 测试目录的持久化操作。FindByID 未找到时返回 (nil, nil)。
type TestCatalogStore interface {
	Create(test *model.Test) error
	FindByID(id uint) (*model.Test, error)
	ListPublished(page, limit int) ([]model.Test, int64, error)
	SetPublished(id uint, publish bool) error
}

type TestService struct {
	TestRepo TestCatalogStore
}

func NewTestService(testRepo TestCatalogStore) *TestService {
	return &TestService{TestRepo: testRepo}
}

type TestQuestionRequest struct {
	Section       string      `json:"section"`
	Prompt        string      `json:"prompt" binding:"required"`
	Options       interface{} `json:"options"`
	CorrectAnswer string      `json:"correctAnswer" binding:"required"`
	Explanation   string      `json:"explanation"`
}

type TestCreateRequest struct {
	Title           string                `json:"title" binding:"required"`
	Description     string                `json:"description"`
	MaxScore        int                   `json:"maxScore"`
	PassingScore    int                   `json:"passingScore"`
	DurationMinutes int                   `json:"durationMinutes"`
	Questions       []TestQuestionRequest `json:"questions"`
}

func (s *TestService) CreateTest(creatorID uint, req TestCreateRequest) (*model.Test, error) {
	maxScore := req.MaxScore
	if maxScore <= 0 {
		maxScore = model.DefaultMaxScore
	}

	test := &model.Test{
		Title:           req.Title,
		Description:     req.Description,
		MaxScore:        maxScore,
		PassingScore:    req.PassingScore,
		DurationMinutes: req.DurationMinutes,
		CreatorID:       creatorID,
	}
	for idx, q := range req.Questions {
		optionBytes, _ := json.Marshal(q.Options)
		test.Questions = append(test.Questions, model.TestQuestion{
			Order:         idx + 1,
			Section:       q.Section,
			Prompt:        q.Prompt,
			Options:       string(optionBytes),
			CorrectAnswer: q.CorrectAnswer,
			Explanation:   q.Explanation,
		})
	}

	if err := s.TestRepo.Create(test); err != nil {
		return nil, err
	}
	return test, nil
}

func (s *TestService) GetPublishedTest(id uint) (*model.Test, error) {
	test, err := s.TestRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if test == nil {
		return nil, util.ErrTestNotFound
	}
	if !test.IsPublished {
		return nil, util.ErrTestNotPublished
	}
	return test, nil
}

func (s *TestService) ListPublished(page, limit int) ([]model.Test, int64, error) {
	return s.TestRepo.ListPublished(page, limit)
}

func (s *TestService) PublishTest(id uint, publish bool) error {
	test, err := s.TestRepo.FindByID(id)
	if err != nil {
		return err
	}
	if test == nil {
		return util.ErrTestNotFound
	}
	return s.TestRepo.SetPublished(id, publish)
}
