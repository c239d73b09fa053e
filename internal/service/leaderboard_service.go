package service

import (
	"context"
	"encoding/json"
	"sat_prep_backend/internal/repository"
	"sat_prep_backend/pkg/logger"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	leaderboardCacheKey = "leaderboard:coins"
	leaderboardCacheTTL = 5 * time.Minute
	leaderboardSize     = 20
)

type LeaderboardEntry struct {
	Name        string  `json:"name"`
	Coins       int     `json:"coins"`
	LoginStreak int     `json:"loginStreak"`
	Accuracy    float64 `json:"accuracy"`
}

type LeaderboardService struct {
	UserRepo *repository.UserRepository
	Redis    *redis.Client
}

func NewLeaderboardService(userRepo *repository.UserRepository, rdb *redis.Client) *LeaderboardService {
	return &LeaderboardService{UserRepo: userRepo, Redis: rdb}
}

// GetTopByCoins 金币排行榜，结果缓存在Redis中5分钟
func (s *LeaderboardService) GetTopByCoins(ctx context.Context) ([]LeaderboardEntry, error) {
	// 缓存故障不阻塞排行榜，直接回源数据库
	val, err := s.Redis.Get(ctx, leaderboardCacheKey).Result()
	if err == nil {
		var cached []LeaderboardEntry
		if json.Unmarshal([]byte(val), &cached) == nil {
			return cached, nil
		}
	} else if err != redis.Nil {
		logger.Log.Warn("leaderboard cache read failed", zap.Error(err))
	}

	users, err := s.UserRepo.FindTopByCoins(leaderboardSize)
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, len(users))
	for i, u := range users {
		entries[i] = LeaderboardEntry{
			Name:        u.Name,
			Coins:       u.Coins,
			LoginStreak: u.LoginStreak,
			Accuracy:    u.AverageAccuracy,
		}
	}

	cached, _ := json.Marshal(entries)
	s.Redis.Set(ctx, leaderboardCacheKey, cached, leaderboardCacheTTL)

	return entries, nil
}
