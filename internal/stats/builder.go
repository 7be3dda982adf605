// Package stats computes the admin statistics report and its CSV export.
//
// The builder loads the full user/dish/review collections through GORM and
// performs the bucketing and ranking in Go, so it behaves identically on
// Postgres and on the sqlite driver used in tests. All day and month
// boundaries are evaluated in UTC.
package stats

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/platedev/tastebite-api/internal/models"
	"github.com/platedev/tastebite-api/internal/rating"
	"gorm.io/gorm"
)

type Builder struct {
	db    *gorm.DB
	cache Cache
}

func NewBuilder(db *gorm.DB, cache Cache) *Builder {
	return &Builder{db: db, cache: cache}
}

// Report returns the report for the given query, serving it from the cache
// when a fresh entry exists. start and end are calendar days; now is the
// evaluation instant and is injectable for tests.
func (b *Builder) Report(ctx context.Context, start, end time.Time, minReviews int, now time.Time) (*Report, error) {
	start, end = Day(start), Day(end)
	key := CacheKey(start, end, minReviews)

	if cached, ok := b.cache.Get(ctx, key); ok {
		return cached, nil
	}

	report, err := b.BuildReport(ctx, start, end, minReviews, now)
	if err != nil {
		return nil, err
	}
	b.cache.Set(ctx, key, report)
	return report, nil
}

// BuildReport computes the report from a fresh database snapshot,
// bypassing the cache.
func (b *Builder) BuildReport(ctx context.Context, start, end time.Time, minReviews int, now time.Time) (*Report, error) {
	start, end = Day(start), Day(end)
	if start.After(end) {
		start, end = end, start
	}
	if minReviews < 1 {
		minReviews = 1
	}

	var users []models.User
	if err := b.db.WithContext(ctx).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	var dishes []models.Dish
	if err := b.db.WithContext(ctx).Find(&dishes).Error; err != nil {
		return nil, fmt.Errorf("failed to load dishes: %w", err)
	}
	var reviews []models.Review
	if err := b.db.WithContext(ctx).Find(&reviews).Error; err != nil {
		return nil, fmt.Errorf("failed to load reviews: %w", err)
	}

	report := &Report{
		StartDate:   start.Format("2006-01-02"),
		EndDate:     end.Format("2006-01-02"),
		MinReviews:  minReviews,
		GeneratedAt: now,
	}

	report.Totals = totals(users, dishes, reviews)

	reviewCounts := make(map[string]int64)
	for _, r := range reviews {
		reviewCounts[r.DishID.String()]++
	}

	report.TopRated = rankDishes(dishes, reviewCounts, minReviews, true)
	report.BottomRated = rankDishes(dishes, reviewCounts, minReviews, false)
	report.MostReviewed = mostReviewed(dishes, reviewCounts)
	report.NewestDishes = newestDishes(dishes, 5)
	report.NewestUsers = newestUsers(users, 5)
	report.RatingDistribution = ratingDistribution(reviews)
	report.ReviewTrend = reviewTrend(reviews, start, end)
	report.TrendChangePct = trendChange(reviews, start, end)
	report.CommentLength = commentLengths(reviews)
	report.TopReviewers = topReviewers(users, reviews, 10)
	report.TagSummary = tagSummary(dishes, 20)
	report.Monthly = monthlySeries(users, dishes, now, 12)

	return report, nil
}

// Day truncates an instant to its UTC calendar day.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func totals(users []models.User, dishes []models.Dish, reviews []models.Review) Totals {
	t := Totals{
		Users:   int64(len(users)),
		Dishes:  int64(len(dishes)),
		Reviews: int64(len(reviews)),
	}
	if len(reviews) > 0 {
		sum := 0
		for _, r := range reviews {
			sum += r.Rating
		}
		mean := rating.Round2(float64(sum) / float64(len(reviews)))
		t.MeanRating = &mean
	}
	return t
}

// rankDishes filters out dishes below the review threshold entirely, then
// sorts by (avg desc, count desc, name asc) for the top list and
// (avg asc, count desc, name asc) for the bottom list, capped at 10.
func rankDishes(dishes []models.Dish, reviewCounts map[string]int64, minReviews int, top bool) []DishRank {
	ranked := make([]DishRank, 0)
	for _, d := range dishes {
		count := reviewCounts[d.ID.String()]
		if count < int64(minReviews) {
			continue
		}
		ranked = append(ranked, DishRank{
			DishID:      d.ID.String(),
			Name:        d.Name,
			AvgRating:   d.AvgRating,
			ReviewCount: count,
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		ai, aj := avgOrZero(ranked[i].AvgRating), avgOrZero(ranked[j].AvgRating)
		if ai != aj {
			if top {
				return ai > aj
			}
			return ai < aj
		}
		if ranked[i].ReviewCount != ranked[j].ReviewCount {
			return ranked[i].ReviewCount > ranked[j].ReviewCount
		}
		return ranked[i].Name < ranked[j].Name
	})

	if len(ranked) > 10 {
		ranked = ranked[:10]
	}
	return ranked
}

// mostReviewed picks the dish with the highest review count; ties go to
// the lowest dish id so the result is stable across runs.
func mostReviewed(dishes []models.Dish, reviewCounts map[string]int64) *DishRank {
	var best *DishRank
	sorted := make([]models.Dish, len(dishes))
	copy(sorted, dishes)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ID.String() < sorted[j].ID.String()
	})

	for i := range sorted {
		d := sorted[i]
		count := reviewCounts[d.ID.String()]
		if count == 0 {
			continue
		}
		if best == nil || count > best.ReviewCount {
			best = &DishRank{
				DishID:      d.ID.String(),
				Name:        d.Name,
				AvgRating:   d.AvgRating,
				ReviewCount: count,
			}
		}
	}
	return best
}

func newestDishes(dishes []models.Dish, limit int) []DishBrief {
	sorted := make([]models.Dish, len(dishes))
	copy(sorted, dishes)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}

	briefs := make([]DishBrief, len(sorted))
	for i, d := range sorted {
		briefs[i] = DishBrief{DishID: d.ID.String(), Name: d.Name, CreatedAt: d.CreatedAt}
	}
	return briefs
}

func newestUsers(users []models.User, limit int) []UserBrief {
	sorted := make([]models.User, len(users))
	copy(sorted, users)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}

	briefs := make([]UserBrief, len(sorted))
	for i, u := range sorted {
		briefs[i] = UserBrief{UserID: u.ID.String(), Username: u.Username, CreatedAt: u.CreatedAt}
	}
	return briefs
}

// ratingDistribution always contains all five star buckets, zero-filled.
func ratingDistribution(reviews []models.Review) map[string]int64 {
	dist := make(map[string]int64, 5)
	for star := 1; star <= 5; star++ {
		dist[fmt.Sprintf("%d", star)] = 0
	}
	for _, r := range reviews {
		if r.Rating >= 1 && r.Rating <= 5 {
			dist[fmt.Sprintf("%d", r.Rating)]++
		}
	}
	return dist
}

func reviewTrend(reviews []models.Review, start, end time.Time) []TrendPoint {
	byDay := make(map[string]int64)
	for _, r := range reviews {
		byDay[Day(r.CreatedAt).Format("2006-01-02")]++
	}

	var trend []TrendPoint
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		key := day.Format("2006-01-02")
		trend = append(trend, TrendPoint{Date: key, Count: byDay[key]})
	}
	return trend
}

// trendChange compares the requested window against the equal-length
// window immediately before it. An empty previous window yields null when
// the current window is also empty and +100% otherwise.
func trendChange(reviews []models.Review, start, end time.Time) *float64 {
	days := int(end.Sub(start).Hours()/24) + 1
	prevStart := start.AddDate(0, 0, -days)

	cur := countBetween(reviews, start, end.AddDate(0, 0, 1))
	prev := countBetween(reviews, prevStart, start)

	if prev == 0 {
		if cur == 0 {
			return nil
		}
		pct := 100.0
		return &pct
	}

	pct := rating.Round2(float64(cur-prev) * 100 / float64(prev))
	return &pct
}

// countBetween counts reviews with creation time in [from, to).
func countBetween(reviews []models.Review, from, to time.Time) int64 {
	var n int64
	for _, r := range reviews {
		created := r.CreatedAt.UTC()
		if !created.Before(from) && created.Before(to) {
			n++
		}
	}
	return n
}

// commentLengths covers all reviews, not only the date-filtered window.
func commentLengths(reviews []models.Review) CommentLengthStats {
	if len(reviews) == 0 {
		return CommentLengthStats{}
	}

	lengths := make([]int, len(reviews))
	sum := 0
	for i, r := range reviews {
		lengths[i] = len([]rune(r.Comment))
		sum += lengths[i]
	}
	sort.Ints(lengths)

	mean := rating.Round2(float64(sum) / float64(len(lengths)))

	var median float64
	mid := len(lengths) / 2
	if len(lengths)%2 == 1 {
		median = float64(lengths[mid])
	} else {
		median = float64(lengths[mid-1]+lengths[mid]) / 2
	}

	return CommentLengthStats{Mean: &mean, Median: &median}
}

func topReviewers(users []models.User, reviews []models.Review, limit int) []ReviewerRank {
	counts := make(map[string]int64)
	for _, r := range reviews {
		counts[r.UserID.String()]++
	}

	ranks := make([]ReviewerRank, 0)
	for _, u := range users {
		count := counts[u.ID.String()]
		if count == 0 {
			continue
		}
		ranks = append(ranks, ReviewerRank{
			UserID:      u.ID.String(),
			Username:    u.Username,
			ReviewCount: count,
		})
	}

	sort.Slice(ranks, func(i, j int) bool {
		if ranks[i].ReviewCount != ranks[j].ReviewCount {
			return ranks[i].ReviewCount > ranks[j].ReviewCount
		}
		return ranks[i].Username < ranks[j].Username
	})

	if len(ranks) > limit {
		ranks = ranks[:limit]
	}
	return ranks
}

// tagSummary groups tags case-insensitively, keeping the first-seen casing
// (scanning dishes in id order) for display. A dish without reviews
// contributes 0 to its tags' mean rating.
func tagSummary(dishes []models.Dish, limit int) []TagStat {
	sorted := make([]models.Dish, len(dishes))
	copy(sorted, dishes)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ID.String() < sorted[j].ID.String()
	})

	type tagAgg struct {
		display string
		count   int64
		sumAvg  float64
	}
	aggs := make(map[string]*tagAgg)

	for _, d := range sorted {
		for _, tag := range d.Tags {
			tag = strings.TrimSpace(tag)
			if tag == "" {
				continue
			}
			key := strings.ToLower(tag)
			agg, ok := aggs[key]
			if !ok {
				agg = &tagAgg{display: tag}
				aggs[key] = agg
			}
			agg.count++
			agg.sumAvg += avgOrZero(d.AvgRating)
		}
	}

	summary := make([]TagStat, 0, len(aggs))
	for _, agg := range aggs {
		summary = append(summary, TagStat{
			Tag:       agg.display,
			Count:     agg.count,
			AvgRating: rating.Round2(agg.sumAvg / float64(agg.count)),
		})
	}

	sort.Slice(summary, func(i, j int) bool {
		if summary[i].Count != summary[j].Count {
			return summary[i].Count > summary[j].Count
		}
		return strings.ToLower(summary[i].Tag) < strings.ToLower(summary[j].Tag)
	})

	if len(summary) > limit {
		summary = summary[:limit]
	}
	return summary
}

// monthlySeries covers the last `months` calendar months ending at the
// month containing now, zero-filled.
func monthlySeries(users []models.User, dishes []models.Dish, now time.Time, months int) []MonthlyPoint {
	userCounts := make(map[string]int64)
	for _, u := range users {
		userCounts[u.CreatedAt.UTC().Format("2006-01")]++
	}
	dishCounts := make(map[string]int64)
	for _, d := range dishes {
		dishCounts[d.CreatedAt.UTC().Format("2006-01")]++
	}

	now = now.UTC()
	series := make([]MonthlyPoint, 0, months)
	for i := months - 1; i >= 0; i-- {
		month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -i, 0)
		key := month.Format("2006-01")
		series = append(series, MonthlyPoint{
			Month:     key,
			NewUsers:  userCounts[key],
			NewDishes: dishCounts[key],
		})
	}
	return series
}

func avgOrZero(avg *float64) float64 {
	if avg == nil {
		return 0
	}
	return *avg
}
