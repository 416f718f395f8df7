package services

import "github.com/memorylane/recall-service/internal/models"

// reviewSteps are the review delays in minutes, from 5 minutes up to a week.
var reviewSteps = []int{5, 30, 120, 1440, 2880, 5760, 10080}

// ReviewPassPercent is the score at which a quiz counts toward the streak.
const ReviewPassPercent = 80

// NextInterval returns the minutes until the next review. A miss resets to the first step.
func NextInterval(streak int, success bool) int {
	if !success || streak < 0 {
		return reviewSteps[0]
	}
	return reviewSteps[min(streak, len(reviewSteps)-1)]
}

// CorrectStreak counts consecutive passing results; results must be newest first.
func CorrectStreak(results []*models.QuizResult) int {
	streak := 0
	for _, r := range results {
		if r.ScorePercent < ReviewPassPercent {
			break
		}
		streak++
	}
	return streak
}
