// Package rating holds the aggregation math shared by the review handlers,
// the dish listing sort and the data-generation commands.
package rating

import (
	"math"

	"github.com/platedev/tastebite-api/internal/models"
)

// z-score for a 95% confidence interval
const wilsonZ = 1.96

// Positive is the rating threshold at which a review counts as a
// positive vote when ratings are collapsed to binary for ranking.
const Positive = 4

// Average returns the arithmetic mean of the review ratings rounded to
// two decimal places, or nil when there are no reviews. The nil sentinel
// is the single "no rating" representation used across the application.
func Average(reviews []models.Review) *float64 {
	if len(reviews) == 0 {
		return nil
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	avg := Round2(float64(sum) / float64(len(reviews)))
	return &avg
}

// WilsonScore computes the lower bound of the Wilson score interval over
// the review set, treating ratings >= 4 as positive votes. The result is
// in [0,1] and is used only for ranking: it penalizes small samples, so a
// dish with a handful of perfect ratings ranks below one with many nearly
// perfect ones. An unreviewed dish scores 0 and sorts last.
func WilsonScore(reviews []models.Review) float64 {
	n := float64(len(reviews))
	if n == 0 {
		return 0
	}

	positive := 0
	for _, r := range reviews {
		if r.Rating >= Positive {
			positive++
		}
	}
	phat := float64(positive) / n

	z := wilsonZ
	z2 := z * z
	return (phat + z2/(2*n) - z*math.Sqrt((phat*(1-phat)+z2/(4*n))/n)) / (1 + z2/n)
}

// Round2 rounds to two decimal places, half away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
