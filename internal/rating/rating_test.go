package rating

import (
	"testing"

	"github.com/platedev/tastebite-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reviewsWithRatings(ratings ...int) []models.Review {
	reviews := make([]models.Review, len(ratings))
	for i, r := range ratings {
		reviews[i].Rating = r
	}
	return reviews
}

func TestAverage(t *testing.T) {
	tests := []struct {
		name    string
		ratings []int
		want    float64
	}{
		{"single review", []int{4}, 4.0},
		{"rounds to two decimals", []int{5, 4, 4}, 4.33},
		{"rounds half up", []int{4, 5}, 4.5},
		{"all ones", []int{1, 1, 1}, 1.0},
		{"mixed", []int{1, 2, 3, 4, 5}, 3.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Average(reviewsWithRatings(tt.ratings...))
			require.NotNil(t, got)
			assert.InDelta(t, tt.want, *got, 1e-9)
		})
	}
}

func TestAverageEmpty(t *testing.T) {
	assert.Nil(t, Average(nil))
	assert.Nil(t, Average([]models.Review{}))
}

func TestWilsonScoreEmpty(t *testing.T) {
	assert.Zero(t, WilsonScore(nil))
}

func TestWilsonScoreSampleSizePenalty(t *testing.T) {
	// Five 5-star ratings lose to ten ratings averaging 4.1: every rating
	// in both sets is a positive vote, so the larger sample wins.
	d1 := reviewsWithRatings(5, 5, 5, 5, 5)
	d2 := reviewsWithRatings(5, 4, 4, 4, 4, 4, 4, 4, 4, 4)

	s1 := WilsonScore(d1)
	s2 := WilsonScore(d2)

	assert.InDelta(t, 0.5655, s1, 0.001)
	assert.InDelta(t, 0.7225, s2, 0.001)
	assert.Greater(t, s2, s1)
}

func TestWilsonScoreMonotonicInPositives(t *testing.T) {
	// For fixed n, score must not decrease as the positive count grows.
	const n = 20
	prev := -1.0
	for positives := 0; positives <= n; positives++ {
		ratings := make([]int, n)
		for i := range ratings {
			if i < positives {
				ratings[i] = 5
			} else {
				ratings[i] = 2
			}
		}
		score := WilsonScore(reviewsWithRatings(ratings...))
		assert.GreaterOrEqual(t, score, prev, "positives=%d", positives)
		prev = score
	}
}

func TestWilsonScoreShrinkingPenalty(t *testing.T) {
	// For a fixed positive proportion, more reviews move the score toward
	// the raw proportion.
	phat := 1.0
	for _, n := range []int{1, 5, 50, 500} {
		ratings := make([]int, n)
		for i := range ratings {
			ratings[i] = 5
		}
		score := WilsonScore(reviewsWithRatings(ratings...))
		assert.Less(t, score, phat)
		if n >= 500 {
			assert.Greater(t, score, 0.99)
		}
	}
}

func TestWilsonScoreBounds(t *testing.T) {
	for _, ratings := range [][]int{
		{1}, {5}, {3, 3, 3}, {1, 5, 1, 5}, {4, 4, 4, 4, 4, 4},
	} {
		score := WilsonScore(reviewsWithRatings(ratings...))
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 1.0)
	}
}
