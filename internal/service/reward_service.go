package service

import (
	"fmt"
	"sat_prep_backend/internal/model"
	"sat_prep_backend/internal/util"
	"time"
)

// RewardResult 一次完成奖励的发放结果
// swagger:model RewardResult
type RewardResult struct {
	CoinsEarned int    `json:"coinsEarned"`
	StreakBonus int    `json:"streakBonus"`
	Message     string `json:"message,omitempty"`
}

// coinTiers 百分比到金币的阶梯，下界含
var coinTiers = []struct {
	minPercentage int
	coins         int
}{
	{90, 5},
	{80, 4},
	{70, 3},
	{60, 2},
	{50, 1},
}

// streakBonusTiers 连续天数到额外金币的阶梯
var streakBonusTiers = []struct {
	minStreak int
	bonus     int
}{
	{25, 6},
	{20, 5},
	{15, 4},
	{10, 3},
	{5, 2},
	{1, 1},
}

// CoinsForPercentage 按完成百分比返回基础金币
func CoinsForPercentage(percentage int) int {
	for _, tier := range coinTiers {
		if percentage >= tier.minPercentage {
			return tier.coins
		}
	}
	return 0
}

// StreakBonusFor 按连续完成天数返回当日一次性的额外金币
func StreakBonusFor(streak int) int {
	for _, tier := range streakBonusTiers {
		if streak >= tier.minStreak {
			return tier.bonus
		}
	}
	return 0
}

// RewardLedger 负责完成奖励的计算与用户账户字段的变更。
// 只在尝试以 completed 终态落地时调用，且每次尝试至多调用一次
//（由 AttemptService 的终态条件写入保证）。
type RewardLedger struct{}

func NewRewardLedger() *RewardLedger {
	return &RewardLedger{}
}

// Award 计算本次完成应得的金币和连续奖励，并把变更直接写到 user 字段上。
// 调用方负责持久化 user。
//
// 连续天数按"完成测试的自然日"计：当天首次完成时，若昨天也完成过则 +1，
// 否则重置为 1；同一天内的后续完成不再改变连续天数。
func (l *RewardLedger) Award(user *model.User, percentage int, today time.Time) RewardResult {
	result := RewardResult{CoinsEarned: CoinsForPercentage(percentage)}

	if user.LastTestCompletionDate == nil || !util.SameCalendarDay(*user.LastTestCompletionDate, today) {
		if user.LastTestCompletionDate != nil && util.IsNextCalendarDay(*user.LastTestCompletionDate, today) {
			user.LoginStreak++
		} else {
			user.LoginStreak = 1
		}
		completion := today
		user.LastTestCompletionDate = &completion
	}

	// streakBonusUsedToday 只在 lastCoinEarnedDate 是今天时才可信，
	// 跨天后的第一次发放在这里把它重置，不依赖后台任务
	newCoinDay := user.LastCoinEarnedDate == nil || !util.SameCalendarDay(*user.LastCoinEarnedDate, today)
	if newCoinDay {
		user.StreakBonusUsedToday = false
	}

	// 奖励条件：今天赚到了金币、今天还没有过金币入账、当日奖励未用过。
	// 0 金币的完成也会把 lastCoinEarnedDate 盖到今天，之后同一天即使再拿到
	// 金币也不再发连续奖励
	if result.CoinsEarned > 0 && newCoinDay && !user.StreakBonusUsedToday {
		result.StreakBonus = StreakBonusFor(user.LoginStreak)
		if result.StreakBonus > 0 {
			user.StreakBonusUsedToday = true
			result.Message = fmt.Sprintf("(+%d bonus from %d-day streak!)", result.StreakBonus, user.LoginStreak)
		}
	}

	user.TotalTestsTaken++
	user.Coins += result.CoinsEarned + result.StreakBonus
	earned := today
	user.LastCoinEarnedDate = &earned
	user.AverageAccuracy = (user.AverageAccuracy*float64(user.TotalTestsTaken-1) + float64(percentage)) / float64(user.TotalTestsTaken)

	return result
}
