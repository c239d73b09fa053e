package service

import (
	"fmt"
	"sat_prep_backend/internal/model"
)

// UnlimitedAttempts 配额表中"不限次数"的哨兵值
const UnlimitedAttempts = -1

// attemptQuotas 账户类型到可完成次数的映射表。未知账户类型按最严格的档位处理。
var attemptQuotas = map[model.AccountType]int{
	model.Admin:   UnlimitedAttempts,
	model.Mentor:  UnlimitedAttempts,
	model.Student: 3,
	model.Free:    1,
}

const defaultAttemptQuota = 1

// QuotaDecision 是否允许开启新尝试的判定结果
type QuotaDecision struct {
	Allowed         bool   `json:"allowed"`
	MaxAttempts     int    `json:"maxAttempts"`
	Reason          string `json:"reason,omitempty"`
	UpgradeEligible bool   `json:"upgradeEligible,omitempty"`
}

// QuotaExceededError 新尝试被配额拒绝。携带档位和次数信息供前端提示升级。
type QuotaExceededError struct {
	AccountType     model.AccountType `json:"accountType"`
	MaxAttempts     int               `json:"maxAttempts"`
	CurrentAttempts int               `json:"currentAttempts"`
	UpgradeEligible bool              `json:"upgradeEligible"`
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("attempt limit reached for %s account (%d/%d)",
		e.AccountType, e.CurrentAttempts, e.MaxAttempts)
}

// AttemptQuota 返回账户类型对应的配额，UnlimitedAttempts 表示不限
func AttemptQuota(accountType model.AccountType) int {
	if quota, ok := attemptQuotas[accountType]; ok {
		return quota
	}
	return defaultAttemptQuota
}

// CanStartAttempt 判断该账户在已完成 completedCount 次后能否再开新尝试。
// 配额只约束新尝试的创建，恢复已有的 in-progress 尝试不走这里。
func CanStartAttempt(accountType model.AccountType, completedCount int) QuotaDecision {
	quota := AttemptQuota(accountType)

	if quota == UnlimitedAttempts || completedCount < quota {
		return QuotaDecision{Allowed: true, MaxAttempts: quota}
	}

	decision := QuotaDecision{
		Allowed:     false,
		MaxAttempts: quota,
		Reason:      fmt.Sprintf("%s accounts are limited to %d completed attempts per test", accountType, quota),
	}
	if accountType == model.Free {
		decision.UpgradeEligible = true
	}
	return decision
}
