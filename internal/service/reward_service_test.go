package service

import (
	"sat_prep_backend/internal/model"
	"sat_prep_backend/internal/util"
	"strings"
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 10, 30, 0, 0, time.UTC)
}

func TestCoinsForPercentage(t *testing.T) {
	cases := []struct {
		percentage int
		want       int
	}{
		{0, 0}, {45, 0}, {49, 0},
		{50, 1}, {55, 1}, {59, 1},
		{60, 2}, {65, 2},
		{70, 3}, {75, 3},
		{80, 4}, {85, 4},
		{90, 5}, {95, 5}, {100, 5},
	}
	for _, tc := range cases {
		if got := CoinsForPercentage(tc.percentage); got != tc.want {
			t.Errorf("CoinsForPercentage(%d) = %d, want %d", tc.percentage, got, tc.want)
		}
	}

	// the step function never decreases
	prev := 0
	for p := 0; p <= 100; p++ {
		c := CoinsForPercentage(p)
		if c < prev {
			t.Fatalf("coins decreased at %d%%: %d < %d", p, c, prev)
		}
		prev = c
	}
}

func TestStreakBonusFor(t *testing.T) {
	cases := []struct {
		streak int
		want   int
	}{
		{0, 0},
		{1, 1}, {4, 1},
		{5, 2}, {7, 2}, {9, 2},
		{10, 3}, {14, 3},
		{15, 4}, {19, 4},
		{20, 5}, {24, 5},
		{25, 6}, {100, 6},
	}
	for _, tc := range cases {
		if got := StreakBonusFor(tc.streak); got != tc.want {
			t.Errorf("StreakBonusFor(%d) = %d, want %d", tc.streak, got, tc.want)
		}
	}
}

func TestAwardFirstCompletion(t *testing.T) {
	ledger := NewRewardLedger()
	user := &model.User{AccountType: model.Free}
	today := day(2025, 3, 10)

	result := ledger.Award(user, 100, today)

	if result.CoinsEarned != 5 {
		t.Errorf("CoinsEarned = %d, want 5", result.CoinsEarned)
	}
	if result.StreakBonus != 1 {
		t.Errorf("StreakBonus = %d, want 1 for a fresh 1-day streak", result.StreakBonus)
	}
	if user.LoginStreak != 1 {
		t.Errorf("LoginStreak = %d, want 1", user.LoginStreak)
	}
	if user.Coins != 6 {
		t.Errorf("Coins = %d, want 6", user.Coins)
	}
	if user.TotalTestsTaken != 1 {
		t.Errorf("TotalTestsTaken = %d, want 1", user.TotalTestsTaken)
	}
	if user.AverageAccuracy != 100 {
		t.Errorf("AverageAccuracy = %v, want 100", user.AverageAccuracy)
	}
	if user.LastTestCompletionDate == nil || !user.LastTestCompletionDate.Equal(today) {
		t.Error("LastTestCompletionDate should be stamped with today")
	}
}

func TestAwardStreakContinuesOnConsecutiveDays(t *testing.T) {
	ledger := NewRewardLedger()
	user := &model.User{}

	ledger.Award(user, 90, day(2025, 3, 10))
	if user.LoginStreak != 1 {
		t.Fatalf("day 1: LoginStreak = %d, want 1", user.LoginStreak)
	}

	ledger.Award(user, 90, day(2025, 3, 11))
	if user.LoginStreak != 2 {
		t.Errorf("day 2: LoginStreak = %d, want 2", user.LoginStreak)
	}

	// a skipped day breaks the chain
	ledger.Award(user, 90, day(2025, 3, 13))
	if user.LoginStreak != 1 {
		t.Errorf("after gap: LoginStreak = %d, want 1", user.LoginStreak)
	}
}

func TestAwardSameDayLeavesStreakUnchanged(t *testing.T) {
	ledger := NewRewardLedger()
	user := &model.User{}
	today := day(2025, 3, 10)

	ledger.Award(user, 90, today)
	ledger.Award(user, 90, today.Add(4*time.Hour))

	if user.LoginStreak != 1 {
		t.Errorf("LoginStreak = %d, want 1 after two same-day completions", user.LoginStreak)
	}
	if user.TotalTestsTaken != 2 {
		t.Errorf("TotalTestsTaken = %d, want 2", user.TotalTestsTaken)
	}
}

func TestAwardStreakBonusOncePerDay(t *testing.T) {
	ledger := NewRewardLedger()
	streak7 := day(2025, 3, 9)
	user := &model.User{
		LoginStreak:            6,
		LastTestCompletionDate: &streak7,
	}
	today := day(2025, 3, 10)

	// first completion of the day: streak advances to 7, bonus from the [5,10) band
	first := ledger.Award(user, 95, today)
	if user.LoginStreak != 7 {
		t.Fatalf("LoginStreak = %d, want 7", user.LoginStreak)
	}
	if first.StreakBonus != 2 {
		t.Errorf("first StreakBonus = %d, want 2", first.StreakBonus)
	}
	if !strings.Contains(first.Message, "7-day") {
		t.Errorf("message should mention the streak length, got %q", first.Message)
	}

	// second completion the same day earns coins but no second bonus
	second := ledger.Award(user, 95, today.Add(2*time.Hour))
	if second.CoinsEarned != 5 {
		t.Errorf("second CoinsEarned = %d, want 5", second.CoinsEarned)
	}
	if second.StreakBonus != 0 {
		t.Errorf("second StreakBonus = %d, want 0", second.StreakBonus)
	}
}

func TestAwardNoBonusWithoutCoins(t *testing.T) {
	ledger := NewRewardLedger()
	user := &model.User{}

	result := ledger.Award(user, 40, day(2025, 3, 10))
	if result.CoinsEarned != 0 || result.StreakBonus != 0 {
		t.Errorf("40%% should earn nothing, got coins=%d bonus=%d", result.CoinsEarned, result.StreakBonus)
	}
	if user.TotalTestsTaken != 1 {
		t.Errorf("TotalTestsTaken = %d, want 1 even without coins", user.TotalTestsTaken)
	}
}

func TestAwardNoBonusAfterZeroCoinCompletionSameDay(t *testing.T) {
	ledger := NewRewardLedger()
	user := &model.User{}
	today := day(2025, 3, 10)

	// a failed morning attempt earns no coins yet still stamps lastCoinEarnedDate
	ledger.Award(user, 30, today)
	if user.LastCoinEarnedDate == nil || !util.SameCalendarDay(*user.LastCoinEarnedDate, today) {
		t.Fatal("zero-coin completion should stamp lastCoinEarnedDate")
	}

	// the stamp alone closes the bonus window for the rest of the day
	result := ledger.Award(user, 95, today.Add(3*time.Hour))
	if result.StreakBonus != 0 {
		t.Errorf("StreakBonus = %d, want 0 once lastCoinEarnedDate is today", result.StreakBonus)
	}
	if result.CoinsEarned != 5 {
		t.Errorf("CoinsEarned = %d, want 5", result.CoinsEarned)
	}

	// the next day the bonus is available again
	next := ledger.Award(user, 95, day(2025, 3, 11))
	if next.StreakBonus == 0 {
		t.Error("bonus should be granted again on a new day")
	}
}

func TestAwardBonusFlagResetsAcrossDays(t *testing.T) {
	ledger := NewRewardLedger()
	user := &model.User{}

	ledger.Award(user, 95, day(2025, 3, 10))
	if !user.StreakBonusUsedToday {
		t.Fatal("bonus flag should be set after first grant")
	}

	// next day: the stale flag must not block a new grant
	result := ledger.Award(user, 95, day(2025, 3, 11))
	if result.StreakBonus == 0 {
		t.Error("bonus should be granted again on a new day")
	}
}

func TestAwardAverageAccuracyRunningMean(t *testing.T) {
	ledger := NewRewardLedger()
	user := &model.User{}

	ledger.Award(user, 100, day(2025, 3, 10))
	ledger.Award(user, 50, day(2025, 3, 11))

	if user.AverageAccuracy != 75 {
		t.Errorf("AverageAccuracy = %v, want 75", user.AverageAccuracy)
	}

	ledger.Award(user, 90, day(2025, 3, 12))
	if user.AverageAccuracy != 80 {
		t.Errorf("AverageAccuracy = %v, want 80", user.AverageAccuracy)
	}
}

func TestAwardCoinsMonotonic(t *testing.T) {
	ledger := NewRewardLedger()
	user := &model.User{}

	prevCoins := 0
	prevTaken := 0
	for i := 0; i < 30; i++ {
		ledger.Award(user, (i*17)%101, day(2025, 3, 1+i%27))
		if user.Coins < prevCoins {
			t.Fatalf("coins decreased: %d -> %d", prevCoins, user.Coins)
		}
		if user.TotalTestsTaken <= prevTaken {
			t.Fatalf("totalTestsTaken did not increase")
		}
		prevCoins = user.Coins
		prevTaken = user.TotalTestsTaken
	}
}
