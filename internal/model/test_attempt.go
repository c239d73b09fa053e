package model

import "time"

type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in-progress"
	AttemptCompleted  AttemptStatus = "completed"
	AttemptAbandoned  AttemptStatus = "abandoned"
	AttemptTimeout    AttemptStatus = "timeout"
)

// IsTerminal 终态的尝试不再允许任何修改
func (s AttemptStatus) IsTerminal() bool {
	return s == AttemptCompleted || s == AttemptAbandoned || s == AttemptTimeout
}

// QuestionOutcome 单题作答结果，序列化后整体存入尝试记录
type QuestionOutcome struct {
	QuestionID uint   `json:"questionId"`
	UserAnswer string `json:"userAnswer"`
	IsCorrect  bool   `json:"isCorrect"`
	TimeSpent  int    `json:"timeSpent"` // seconds
}

// swagger:model TestAttempt
type TestAttempt struct {
	BaseModel
	AttemptRef    string        `gorm:"type:varchar(36);uniqueIndex" json:"attemptRef"` // 对外暴露的稳定标识
	UserID        uint          `gorm:"index:idx_attempt_user_test;type:bigint unsigned;not null" json:"userId"`
	TestID        uint          `gorm:"index:idx_attempt_user_test;type:bigint unsigned;not null" json:"testId"`
	AttemptNumber int           `json:"attemptNumber"`
	Status        AttemptStatus `gorm:"type:enum('in-progress','completed','abandoned','timeout');default:'in-progress';index" json:"status"`

	StartTime       time.Time  `json:"startTime"`
	EndTime         *time.Time `json:"endTime,omitempty"`
	DurationMinutes int        `json:"durationMinutes"`

	Score      int `json:"score"`
	MaxScore   int `json:"maxScore"`
	Percentage int `json:"percentage"`

	QuestionOutcomes   string `gorm:"type:json" json:"questionOutcomes"`
	CorrectCount       int    `json:"correctCount"`
	IncorrectCount     int    `json:"incorrectCount"`
	SkippedCount       int    `json:"skippedCount"`
	AvgTimePerQuestion int    `json:"avgTimePerQuestion"`
}

func (TestAttempt) TableName() string {
	return "test_attempts"
}
