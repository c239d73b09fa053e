package service

import (
	"encoding/json"
	"sat_prep_backend/internal/model"
	"sat_prep_backend/internal/util"
	"sat_prep_backend/pkg/monitoring"
	"sync"
	"time"
)

// AttemptStore 尝试记录的持久化操作。Finalize 必须是条件写：
// 仅当记录仍处于 in-progress 时才落终态，并与用户变更同事务提交。
type AttemptStore interface {
	Create(attempt *model.TestAttempt) error
	FindByID(id uint) (*model.TestAttempt, error)
	FindInProgress(userID, testID uint) (*model.TestAttempt, error)
	CountCompleted(userID, testID uint) (int64, error)
	CountIncomplete(userID, testID uint) (int64, error)
	Finalize(attempt *model.TestAttempt, user *model.User) (bool, error)
}

type UserStore interface {
	FindByID(id uint) (*model.User, error)
}

type TestStore interface {
	FindByID(id uint) (*model.Test, error)
}

// SubmitResult 交卷响应：终态后的尝试加上本次发放的奖励
// swagger:model SubmitResult
type SubmitResult struct {
	Attempt            *model.TestAttempt `json:"attempt"`
	CoinsEarned        int                `json:"coinsEarned"`
	StreakBonus        int                `json:"streakBonus"`
	StreakBonusMessage string             `json:"streakBonusMessage,omitempty"`
}

// AttemptStatusReport 某用户在某测试上的尝试余量
// swagger:model AttemptStatusReport
type AttemptStatusReport struct {
	CompletedAttempts    int  `json:"completedAttempts"`
	IncompleteAttempts   int  `json:"incompleteAttempts"`
	MaxAttempts          int  `json:"maxAttempts"` // -1 表示不限
	AttemptsRemaining    int  `json:"attemptsRemaining"`
	CanAttempt           bool `json:"canAttempt"`
	HasIncompleteAttempt bool `json:"hasIncompleteAttempt"`
}

// AttemptService 管理尝试的状态机：开始/恢复、交卷评分、奖励发放。
// 同一用户的开卷和交卷在服务内串行化，防止并发请求绕过配额或重复拿当日奖励。
type AttemptService struct {
	Attempts AttemptStore
	Users    UserStore
	Tests    TestStore
	Rewards  *RewardLedger

	now       func() time.Time
	userLocks sync.Map // userID -> *sync.Mutex
}

func NewAttemptService(attempts AttemptStore, users UserStore, tests TestStore, rewards *RewardLedger) *AttemptService {
	return &AttemptService{
		Attempts: attempts,
		Users:    users,
		Tests:    tests,
		Rewards:  rewards,
		now:      time.Now,
	}
}

func (s *AttemptService) lockUser(userID uint) func() {
	v, _ := s.userLocks.LoadOrStore(userID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// StartAttempt 开始或恢复一次测试尝试。
// 已有 in-progress 尝试时原样返回（幂等恢复，不检查配额）；
// 否则按账户配额判定能否新开，attemptNumber = 已完成次数 + 1。
func (s *AttemptService) StartAttempt(userID, testID uint) (*model.TestAttempt, error) {
	unlock := s.lockUser(userID)
	defer unlock()

	test, err := s.Tests.FindByID(testID)
	if err != nil {
		return nil, err
	}
	if test == nil {
		return nil, util.ErrTestNotFound
	}

	existing, err := s.Attempts.FindInProgress(userID, testID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	user, err := s.Users.FindByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, util.ErrUserNotFound
	}

	completed, err := s.Attempts.CountCompleted(userID, testID)
	if err != nil {
		return nil, err
	}

	decision := CanStartAttempt(user.AccountType, int(completed))
	if !decision.Allowed {
		return nil, &QuotaExceededError{
			AccountType:     user.AccountType,
			MaxAttempts:     decision.MaxAttempts,
			CurrentAttempts: int(completed),
			UpgradeEligible: decision.UpgradeEligible,
		}
	}

	maxScore := test.MaxScore
	if maxScore <= 0 {
		maxScore = model.DefaultMaxScore
	}

	attempt := &model.TestAttempt{
		AttemptRef:    model.GenerateUUID(),
		UserID:        userID,
		TestID:        testID,
		AttemptNumber: int(completed) + 1,
		Status:        model.AttemptInProgress,
		StartTime:     s.now(),
		MaxScore:      maxScore,
	}
	if err := s.Attempts.Create(attempt); err != nil {
		return nil, err
	}
	return attempt, nil
}

// SubmitAttempt 交卷并推进到终态。评分对所有终态无条件进行（保留部分作答分析），
// 奖励只在 completed 时发放。终态落地依赖存储层的条件写，
// 并发重复交卷在那里被拒绝，奖励因此每次尝试至多发一次。
func (s *AttemptService) SubmitAttempt(attemptID, requesterID uint, outcomes []model.QuestionOutcome, endTime *time.Time, status model.AttemptStatus) (*SubmitResult, error) {
	if status == "" {
		status = model.AttemptCompleted
	}
	if !status.IsTerminal() {
		return nil, util.ErrInvalidAttemptStatus
	}

	attempt, err := s.Attempts.FindByID(attemptID)
	if err != nil {
		return nil, err
	}
	if attempt == nil {
		return nil, util.ErrAttemptNotFound
	}
	if attempt.UserID != requesterID {
		return nil, util.ErrPermissionDenied
	}
	if attempt.Status.IsTerminal() {
		return nil, util.ErrAttemptAlreadyFinished
	}

	unlock := s.lockUser(attempt.UserID)
	defer unlock()

	// 锁内重读：只有尝试的所有者能交卷，同一用户的交卷在锁内串行，
	// 重读后的状态检查可保证奖励不会为同一次尝试计算两遍
	attempt, err = s.Attempts.FindByID(attemptID)
	if err != nil {
		return nil, err
	}
	if attempt == nil {
		return nil, util.ErrAttemptNotFound
	}
	if attempt.Status.IsTerminal() {
		return nil, util.ErrAttemptAlreadyFinished
	}

	end := s.now()
	if endTime != nil {
		end = *endTime
	}

	summary := ComputeScore(outcomes, attempt.MaxScore, attempt.StartTime, &end)

	serialized, err := json.Marshal(outcomes)
	if err != nil {
		return nil, err
	}

	attempt.Status = status
	attempt.EndTime = &end
	attempt.DurationMinutes = summary.DurationMinutes
	attempt.Score = summary.Score
	attempt.Percentage = summary.Percentage
	attempt.QuestionOutcomes = string(serialized)
	attempt.CorrectCount = summary.Correct
	attempt.IncorrectCount = summary.Incorrect
	attempt.SkippedCount = summary.Skipped
	attempt.AvgTimePerQuestion = summary.AvgTimePerQuestion

	result := &SubmitResult{Attempt: attempt}

	var user *model.User
	var reward RewardResult
	if status == model.AttemptCompleted {
		user, err = s.Users.FindByID(attempt.UserID)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, util.ErrUserNotFound
		}
		reward = s.Rewards.Award(user, summary.Percentage, s.now())
	}

	finalized, err := s.Attempts.Finalize(attempt, user)
	if err != nil {
		return nil, err
	}
	if !finalized {
		// 条件写失败：另一条请求先把尝试推进到了终态
		return nil, util.ErrAttemptAlreadyFinished
	}

	if status == model.AttemptCompleted {
		result.CoinsEarned = reward.CoinsEarned
		result.StreakBonus = reward.StreakBonus
		result.StreakBonusMessage = reward.Message
		monitoring.CoinsAwarded.Add(float64(reward.CoinsEarned + reward.StreakBonus))
	}
	monitoring.AttemptsFinished.WithLabelValues(string(status)).Inc()

	return result, nil
}

// GetAttemptStatus 汇总某用户在某测试上的配额占用情况
func (s *AttemptService) GetAttemptStatus(userID, testID uint) (*AttemptStatusReport, error) {
	user, err := s.Users.FindByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, util.ErrUserNotFound
	}

	completed, err := s.Attempts.CountCompleted(userID, testID)
	if err != nil {
		return nil, err
	}
	incomplete, err := s.Attempts.CountIncomplete(userID, testID)
	if err != nil {
		return nil, err
	}

	quota := AttemptQuota(user.AccountType)
	report := &AttemptStatusReport{
		CompletedAttempts:    int(completed),
		IncompleteAttempts:   int(incomplete),
		MaxAttempts:          quota,
		HasIncompleteAttempt: incomplete > 0,
	}

	if quota == UnlimitedAttempts {
		report.AttemptsRemaining = UnlimitedAttempts
		report.CanAttempt = true
	} else {
		remaining := quota - int(completed)
		if remaining < 0 {
			remaining = 0
		}
		report.AttemptsRemaining = remaining
		report.CanAttempt = remaining > 0 || incomplete > 0
	}

	return report, nil
}
