package service

import (
	"math"
	"sat_prep_backend/internal/model"
	"time"
)

// ScoreSummary 一次作答的评分与答题分析汇总
// swagger:model ScoreSummary
type ScoreSummary struct {
	Score              int `json:"score"`
	MaxScore           int `json:"maxScore"`
	Percentage         int `json:"percentage"`
	Correct            int `json:"correct"`
	Incorrect          int `json:"incorrect"`
	Skipped            int `json:"skipped"`
	AvgTimePerQuestion int `json:"avgTimePerQuestion"`
	DurationMinutes    int `json:"durationMinutes"`
}

// ComputeScore 根据逐题结果计算得分和答题分析。纯函数，没有副作用。
// 空答卷直接得 0 分，避免除零。
func ComputeScore(outcomes []model.QuestionOutcome, maxScore int, startTime time.Time, endTime *time.Time) ScoreSummary {
	summary := ScoreSummary{MaxScore: maxScore}

	total := len(outcomes)
	if total == 0 {
		return summary
	}

	totalTime := 0
	for _, o := range outcomes {
		// 空答案一律算跳过，即使上游把它标成了正确
		if o.UserAnswer == "" {
			summary.Skipped++
		} else if o.IsCorrect {
			summary.Correct++
		}
		totalTime += o.TimeSpent
	}
	summary.Incorrect = total - summary.Correct - summary.Skipped

	pointsPerQuestion := float64(maxScore) / float64(total)
	summary.Score = int(math.Round(float64(summary.Correct) * pointsPerQuestion))
	if maxScore > 0 {
		summary.Percentage = int(math.Round(float64(summary.Score) / float64(maxScore) * 100))
	}
	summary.AvgTimePerQuestion = int(math.Round(float64(totalTime) / float64(total)))

	if endTime != nil && !startTime.IsZero() {
		summary.DurationMinutes = int(math.Round(endTime.Sub(startTime).Minutes()))
	}

	return summary
}
