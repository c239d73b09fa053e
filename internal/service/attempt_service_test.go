package service

import (
	"errors"
	"sat_prep_backend/internal/model"
	"sat_prep_backend/internal/util"
	"sync"
	"testing"
	"time"
)

// in-memory stores mirroring the repository contracts

type memAttemptStore struct {
	mu     sync.Mutex
	nextID uint
	items  map[uint]*model.TestAttempt
}

func newMemAttemptStore() *memAttemptStore {
	return &memAttemptStore{nextID: 1, items: make(map[uint]*model.TestAttempt)}
}

func (s *memAttemptStore) Create(attempt *model.TestAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	attempt.ID = s.nextID
	s.nextID++
	clone := *attempt
	s.items[attempt.ID] = &clone
	return nil
}

func (s *memAttemptStore) FindByID(id uint) (*model.TestAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.items[id]
	if !ok {
		return nil, nil
	}
	clone := *a
	return &clone, nil
}

func (s *memAttemptStore) FindInProgress(userID, testID uint) (*model.TestAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.items {
		if a.UserID == userID && a.TestID == testID && a.Status == model.AttemptInProgress {
			clone := *a
			return &clone, nil
		}
	}
	return nil, nil
}

func (s *memAttemptStore) CountCompleted(userID, testID uint) (int64, error) {
	return s.countByStatus(userID, testID, model.AttemptCompleted), nil
}

func (s *memAttemptStore) CountIncomplete(userID, testID uint) (int64, error) {
	return s.countByStatus(userID, testID, model.AttemptInProgress), nil
}

func (s *memAttemptStore) countByStatus(userID, testID uint, status model.AttemptStatus) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, a := range s.items {
		if a.UserID == userID && a.TestID == testID && a.Status == status {
			n++
		}
	}
	return n
}

func (s *memAttemptStore) Finalize(attempt *model.TestAttempt, user *model.User) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.items[attempt.ID]
	if !ok || stored.Status != model.AttemptInProgress {
		return false, nil
	}
	clone := *attempt
	s.items[attempt.ID] = &clone
	return true, nil
}

type memUserStore struct {
	mu    sync.Mutex
	users map[uint]*model.User
}

func newMemUserStore(users ...*model.User) *memUserStore {
	s := &memUserStore{users: make(map[uint]*model.User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *memUserStore) FindByID(id uint) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return u, nil
}

type memTestStore struct {
	tests map[uint]*model.Test
}

func newMemTestStore(tests ...*model.Test) *memTestStore {
	s := &memTestStore{tests: make(map[uint]*model.Test)}
	for _, t := range tests {
		s.tests[t.ID] = t
	}
	return s
}

func (s *memTestStore) FindByID(id uint) (*model.Test, error) {
	t, ok := s.tests[id]
	if !ok {
		return nil, nil
	}
	return t, nil
}

func newTestService(users ...*model.User) (*AttemptService, *memAttemptStore) {
	test := &model.Test{BaseModel: model.BaseModel{ID: 1}, Title: "SAT Practice Test 1", MaxScore: 1600, IsPublished: true}
	attempts := newMemAttemptStore()
	svc := NewAttemptService(attempts, newMemUserStore(users...), newMemTestStore(test), NewRewardLedger())
	return svc, attempts
}

func freeUser() *model.User {
	return &model.User{BaseModel: model.BaseModel{ID: 10}, AccountType: model.Free}
}

func studentUser() *model.User {
	return &model.User{BaseModel: model.BaseModel{ID: 11}, AccountType: model.Student}
}

func perfectRun(n int) []model.QuestionOutcome {
	out := make([]model.QuestionOutcome, n)
	for i := range out {
		out[i] = model.QuestionOutcome{QuestionID: uint(i + 1), UserAnswer: "A", IsCorrect: true, TimeSpent: 60}
	}
	return out
}

func TestStartAttemptCreatesFirstAttempt(t *testing.T) {
	svc, _ := newTestService(freeUser())

	attempt, err := svc.StartAttempt(10, 1)
	if err != nil {
		t.Fatalf("StartAttempt: %v", err)
	}
	if attempt.AttemptNumber != 1 {
		t.Errorf("AttemptNumber = %d, want 1", attempt.AttemptNumber)
	}
	if attempt.Status != model.AttemptInProgress {
		t.Errorf("Status = %s, want in-progress", attempt.Status)
	}
	if attempt.MaxScore != 1600 {
		t.Errorf("MaxScore = %d, want 1600", attempt.MaxScore)
	}
}

func TestStartAttemptIsIdempotentWhileInProgress(t *testing.T) {
	svc, _ := newTestService(freeUser())

	first, err := svc.StartAttempt(10, 1)
	if err != nil {
		t.Fatalf("first StartAttempt: %v", err)
	}
	second, err := svc.StartAttempt(10, 1)
	if err != nil {
		t.Fatalf("second StartAttempt: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("resume returned a different attempt: %d vs %d", first.ID, second.ID)
	}

	count, _ := svc.Attempts.CountIncomplete(10, 1)
	if count != 1 {
		t.Errorf("in-progress count = %d, want 1", count)
	}
}

func TestStartAttemptUnknownTest(t *testing.T) {
	svc, _ := newTestService(freeUser())

	if _, err := svc.StartAttempt(10, 99); !errors.Is(err, util.ErrTestNotFound) {
		t.Errorf("err = %v, want ErrTestNotFound", err)
	}
}

// Scenario: free tier completes its single attempt, a retry is rejected with quota details.
func TestFreeTierQuotaScenario(t *testing.T) {
	user := freeUser()
	svc, _ := newTestService(user)

	attempt, err := svc.StartAttempt(10, 1)
	if err != nil {
		t.Fatalf("StartAttempt: %v", err)
	}

	result, err := svc.SubmitAttempt(attempt.ID, 10, perfectRun(10), nil, model.AttemptCompleted)
	if err != nil {
		t.Fatalf("SubmitAttempt: %v", err)
	}
	if result.Attempt.Percentage != 100 {
		t.Errorf("Percentage = %d, want 100", result.Attempt.Percentage)
	}
	if result.CoinsEarned != 5 {
		t.Errorf("CoinsEarned = %d, want 5", result.CoinsEarned)
	}
	if user.TotalTestsTaken != 1 {
		t.Errorf("TotalTestsTaken = %d, want 1", user.TotalTestsTaken)
	}

	_, err = svc.StartAttempt(10, 1)
	var quotaErr *QuotaExceededError
	if !errors.As(err, &quotaErr) {
		t.Fatalf("err = %v, want QuotaExceededError", err)
	}
	if quotaErr.MaxAttempts != 1 || quotaErr.CurrentAttempts != 1 {
		t.Errorf("quota error = %+v, want max 1 current 1", quotaErr)
	}
	if !quotaErr.UpgradeEligible {
		t.Error("free tier quota error should be upgrade eligible")
	}
}

// Scenario: student tier gets exactly three completed attempts.
func TestStudentTierQuotaScenario(t *testing.T) {
	svc, _ := newTestService(studentUser())

	for i := 0; i < 3; i++ {
		attempt, err := svc.StartAttempt(11, 1)
		if err != nil {
			t.Fatalf("attempt %d start: %v", i+1, err)
		}
		if attempt.AttemptNumber != i+1 {
			t.Errorf("AttemptNumber = %d, want %d", attempt.AttemptNumber, i+1)
		}
		if _, err := svc.SubmitAttempt(attempt.ID, 11, perfectRun(5), nil, model.AttemptCompleted); err != nil {
			t.Fatalf("attempt %d submit: %v", i+1, err)
		}
	}

	_, err := svc.StartAttempt(11, 1)
	var quotaErr *QuotaExceededError
	if !errors.As(err, &quotaErr) {
		t.Fatalf("4th start: err = %v, want QuotaExceededError", err)
	}
	if quotaErr.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3", quotaErr.MaxAttempts)
	}

	completed, _ := svc.Attempts.CountCompleted(11, 1)
	if completed != 3 {
		t.Errorf("completed attempts = %d, quota of 3 was breached", completed)
	}
}

func TestAbandonedAttemptDoesNotConsumeQuotaOrReward(t *testing.T) {
	user := freeUser()
	svc, _ := newTestService(user)

	attempt, _ := svc.StartAttempt(10, 1)
	result, err := svc.SubmitAttempt(attempt.ID, 10, perfectRun(10), nil, model.AttemptAbandoned)
	if err != nil {
		t.Fatalf("SubmitAttempt: %v", err)
	}

	// scored for analytics, but nothing credited
	if result.Attempt.Percentage != 100 {
		t.Errorf("abandoned attempt should still be scored, got %d%%", result.Attempt.Percentage)
	}
	if result.CoinsEarned != 0 || result.StreakBonus != 0 {
		t.Error("abandoned attempt must not earn rewards")
	}
	if user.Coins != 0 || user.TotalTestsTaken != 0 {
		t.Errorf("user accounting mutated: coins=%d taken=%d", user.Coins, user.TotalTestsTaken)
	}

	// abandoned attempts do not count against the quota
	if _, err := svc.StartAttempt(10, 1); err != nil {
		t.Errorf("free user should get a fresh attempt after abandoning: %v", err)
	}
}

func TestSubmitAttemptOwnership(t *testing.T) {
	svc, _ := newTestService(freeUser(), studentUser())

	attempt, _ := svc.StartAttempt(10, 1)
	if _, err := svc.SubmitAttempt(attempt.ID, 11, perfectRun(3), nil, model.AttemptCompleted); !errors.Is(err, util.ErrPermissionDenied) {
		t.Errorf("err = %v, want ErrPermissionDenied", err)
	}
}

func TestSubmitAttemptNotFound(t *testing.T) {
	svc, _ := newTestService(freeUser())

	if _, err := svc.SubmitAttempt(42, 10, nil, nil, model.AttemptCompleted); !errors.Is(err, util.ErrAttemptNotFound) {
		t.Errorf("err = %v, want ErrAttemptNotFound", err)
	}
}

func TestSubmitAttemptInvalidStatus(t *testing.T) {
	svc, _ := newTestService(freeUser())

	attempt, _ := svc.StartAttempt(10, 1)
	if _, err := svc.SubmitAttempt(attempt.ID, 10, nil, nil, model.AttemptInProgress); !errors.Is(err, util.ErrInvalidAttemptStatus) {
		t.Errorf("err = %v, want ErrInvalidAttemptStatus", err)
	}
}

func TestResubmissionRejectedWithoutSideEffects(t *testing.T) {
	user := studentUser()
	svc, _ := newTestService(user)

	attempt, _ := svc.StartAttempt(11, 1)
	if _, err := svc.SubmitAttempt(attempt.ID, 11, perfectRun(10), nil, model.AttemptCompleted); err != nil {
		t.Fatalf("first submit: %v", err)
	}

	coins := user.Coins
	taken := user.TotalTestsTaken
	accuracy := user.AverageAccuracy
	streak := user.LoginStreak

	_, err := svc.SubmitAttempt(attempt.ID, 11, perfectRun(10), nil, model.AttemptCompleted)
	if !errors.Is(err, util.ErrAttemptAlreadyFinished) {
		t.Fatalf("resubmission: err = %v, want ErrAttemptAlreadyFinished", err)
	}

	if user.Coins != coins || user.TotalTestsTaken != taken || user.AverageAccuracy != accuracy || user.LoginStreak != streak {
		t.Error("resubmission mutated user accounting")
	}
}

func TestSubmitUsesProvidedEndTime(t *testing.T) {
	svc, _ := newTestService(freeUser())
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return start }

	attempt, _ := svc.StartAttempt(10, 1)

	end := start.Add(65 * time.Minute)
	result, err := svc.SubmitAttempt(attempt.ID, 10, perfectRun(4), &end, model.AttemptCompleted)
	if err != nil {
		t.Fatalf("SubmitAttempt: %v", err)
	}
	if result.Attempt.DurationMinutes != 65 {
		t.Errorf("DurationMinutes = %d, want 65", result.Attempt.DurationMinutes)
	}
	if result.Attempt.EndTime == nil || !result.Attempt.EndTime.Equal(end) {
		t.Error("EndTime should be the caller-provided timestamp")
	}
}

func TestStreakBonusOncePerDayAcrossAttempts(t *testing.T) {
	user := studentUser()
	yesterday := time.Date(2025, 3, 9, 12, 0, 0, 0, time.UTC)
	user.LoginStreak = 6
	user.LastTestCompletionDate = &yesterday

	svc, _ := newTestService(user)
	today := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return today }

	first, _ := svc.StartAttempt(11, 1)
	r1, err := svc.SubmitAttempt(first.ID, 11, perfectRun(10), nil, model.AttemptCompleted)
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if r1.StreakBonus != 2 {
		t.Errorf("first StreakBonus = %d, want 2 (streak 7)", r1.StreakBonus)
	}

	second, _ := svc.StartAttempt(11, 1)
	r2, err := svc.SubmitAttempt(second.ID, 11, perfectRun(10), nil, model.AttemptCompleted)
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if r2.CoinsEarned != 5 {
		t.Errorf("second CoinsEarned = %d, want 5", r2.CoinsEarned)
	}
	if r2.StreakBonus != 0 {
		t.Errorf("second StreakBonus = %d, want 0 on the same day", r2.StreakBonus)
	}
}

func TestConcurrentSubmitRewardsOnce(t *testing.T) {
	user := studentUser()
	svc, _ := newTestService(user)

	attempt, _ := svc.StartAttempt(11, 1)

	const goroutines = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.SubmitAttempt(attempt.ID, 11, perfectRun(10), nil, model.AttemptCompleted)
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if succeeded != 1 {
		t.Errorf("%d submissions succeeded, want exactly 1", succeeded)
	}
	if user.TotalTestsTaken != 1 {
		t.Errorf("TotalTestsTaken = %d, want 1", user.TotalTestsTaken)
	}
	if user.Coins != 6 { // 5 coins + 1 bonus for a 1-day streak
		t.Errorf("Coins = %d, want 6", user.Coins)
	}
}

func TestGetAttemptStatus(t *testing.T) {
	user := studentUser()
	svc, _ := newTestService(user)

	report, err := svc.GetAttemptStatus(11, 1)
	if err != nil {
		t.Fatalf("GetAttemptStatus: %v", err)
	}
	if report.MaxAttempts != 3 || report.AttemptsRemaining != 3 || !report.CanAttempt {
		t.Errorf("fresh report = %+v", report)
	}

	attempt, _ := svc.StartAttempt(11, 1)
	report, _ = svc.GetAttemptStatus(11, 1)
	if !report.HasIncompleteAttempt || report.IncompleteAttempts != 1 {
		t.Errorf("report after start = %+v", report)
	}

	svc.SubmitAttempt(attempt.ID, 11, perfectRun(5), nil, model.AttemptCompleted)
	report, _ = svc.GetAttemptStatus(11, 1)
	if report.CompletedAttempts != 1 || report.AttemptsRemaining != 2 || report.HasIncompleteAttempt {
		t.Errorf("report after submit = %+v", report)
	}
}

func TestGetAttemptStatusUnlimitedTier(t *testing.T) {
	mentor := &model.User{BaseModel: model.BaseModel{ID: 12}, AccountType: model.Mentor}
	svc, _ := newTestService(mentor)

	report, err := svc.GetAttemptStatus(12, 1)
	if err != nil {
		t.Fatalf("GetAttemptStatus: %v", err)
	}
	if report.MaxAttempts != UnlimitedAttempts || report.AttemptsRemaining != UnlimitedAttempts || !report.CanAttempt {
		t.Errorf("unlimited report = %+v", report)
	}
}
