package model

import (
	"time"
)

type AccountType string

const (
	Free    AccountType = "free"
	Student AccountType = "student"
	Mentor  AccountType = "mentor"
	Admin   AccountType = "admin"
)

// swagger:model User
type User struct {
	BaseModel
	Name        string      `gorm:"size:100;not null" json:"name"`
	Email       string      `gorm:"size:100;unique;not null" json:"email"`
	Password    string      `gorm:"size:100;not null" json:"-"`
	AccountType AccountType `gorm:"type:enum('free','student','mentor','admin');default:'free'" json:"accountType"`

	// 奖励账户字段，仅由 RewardLedger 在交卷完成时写入
	Coins                  int        `gorm:"default:0" json:"coins"`
	TotalTestsTaken        int        `gorm:"default:0" json:"totalTestsTaken"`
	AverageAccuracy        float64    `gorm:"default:0" json:"averageAccuracy"`
	LoginStreak            int        `gorm:"default:0" json:"loginStreak"` // 连续完成测试天数
	LastTestCompletionDate *time.Time `json:"lastTestCompletionDate,omitempty"`
	LastCoinEarnedDate     *time.Time `json:"lastCoinEarnedDate,omitempty"`
	StreakBonusUsedToday   bool       `gorm:"default:false" json:"streakBonusUsedToday"`

	Disabled  bool      `gorm:"default:false" json:"disabled"`
	LastLogin time.Time `gorm:"default:CURRENT_TIMESTAMP(3)" json:"lastLogin"`
}

func (User) TableName() string {
	return "users"
}
