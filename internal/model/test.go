package model

import "time"

const DefaultMaxScore = 1600

// swagger:model Test
type Test struct {
	BaseModel
	Title           string     `gorm:"size:200;not null" json:"title"`
	Description     string     `gorm:"type:text" json:"description"`
	MaxScore        int        `gorm:"default:1600" json:"maxScore"`
	PassingScore    int        `json:"passingScore"`
	DurationMinutes int        `json:"durationMinutes"`
	IsPublished     bool       `gorm:"default:false;index" json:"isPublished"`
	PublishedAt     *time.Time `json:"publishedAt,omitempty"`
	CreatorID       uint       `gorm:"index;type:bigint unsigned" json:"creatorId"`

	Questions []TestQuestion `gorm:"foreignKey:TestID" json:"questions,omitempty"`
}

func (Test) TableName() string {
	return "tests"
}

// swagger:model TestQuestion
type TestQuestion struct {
	BaseModel
	TestID        uint   `gorm:"index;type:bigint unsigned" json:"testId"`
	Order         int    `gorm:"column:question_order" json:"order"`
	Section       string `gorm:"size:50" json:"section"` // math / reading / writing
	Prompt        string `gorm:"type:text" json:"prompt"`
	Options       string `gorm:"type:json" json:"options"`
	CorrectAnswer string `gorm:"size:255" json:"-"`
	Explanation   string `gorm:"type:text" json:"-"`
}

func (TestQuestion) TableName() string {
	return "test_questions"
}
