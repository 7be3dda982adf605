package stats

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/platedev/tastebite-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A single connection keeps the in-memory database alive for the
	// whole test.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Dish{}, &models.Review{}))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username string, createdAt time.Time) models.User {
	t.Helper()
	u := models.User{
		Username:     username,
		PasswordHash: "x",
		Role:         models.RoleUser,
		CreatedAt:    createdAt,
	}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func seedDish(t *testing.T, db *gorm.DB, name string, avg *float64, tags []string, createdAt time.Time) models.Dish {
	t.Helper()
	d := models.Dish{
		Name:      name,
		Tags:      tags,
		AvgRating: avg,
		CreatedAt: createdAt,
	}
	require.NoError(t, db.Create(&d).Error)
	return d
}

func seedReview(t *testing.T, db *gorm.DB, dish models.Dish, user models.User, stars int, comment string, createdAt time.Time) models.Review {
	t.Helper()
	r := models.Review{
		DishID:    dish.ID,
		UserID:    user.ID,
		Rating:    stars,
		Comment:   comment,
		Date:      Day(createdAt),
		CreatedAt: createdAt,
	}
	require.NoError(t, db.Create(&r).Error)
	return r
}

func ptr(v float64) *float64 { return &v }

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestBuildReportTotalsAndDistribution(t *testing.T) {
	db := setupDB(t)
	builder := NewBuilder(db, NewMemoryCache(time.Minute))

	now := day("2024-06-15")
	alice := seedUser(t, db, "alice", now.AddDate(0, -1, 0))
	bob := seedUser(t, db, "bob", now.AddDate(0, -2, 0))
	carol := seedUser(t, db, "carol", now.AddDate(0, -3, 0))

	dish := seedDish(t, db, "Carbonara", ptr(4.33), []string{"Italian"}, now.AddDate(0, -1, 0))
	seedReview(t, db, dish, alice, 5, "great", now.AddDate(0, 0, -3))
	seedReview(t, db, dish, bob, 5, "superb", now.AddDate(0, 0, -2))
	seedReview(t, db, dish, carol, 3, "fine", now.AddDate(0, 0, -1))

	report, err := builder.BuildReport(context.Background(), now.AddDate(0, 0, -29), now, 3, now)
	require.NoError(t, err)

	assert.Equal(t, int64(3), report.Totals.Users)
	assert.Equal(t, int64(1), report.Totals.Dishes)
	assert.Equal(t, int64(3), report.Totals.Reviews)
	require.NotNil(t, report.Totals.MeanRating)
	assert.InDelta(t, 4.33, *report.Totals.MeanRating, 0.001)

	assert.Len(t, report.RatingDistribution, 5)
	assert.Equal(t, int64(0), report.RatingDistribution["1"])
	assert.Equal(t, int64(0), report.RatingDistribution["2"])
	assert.Equal(t, int64(1), report.RatingDistribution["3"])
	assert.Equal(t, int64(0), report.RatingDistribution["4"])
	assert.Equal(t, int64(2), report.RatingDistribution["5"])

	var total int64
	for _, n := range report.RatingDistribution {
		total += n
	}
	assert.Equal(t, report.Totals.Reviews, total)
}

func TestBuildReportEmptyDatabase(t *testing.T) {
	db := setupDB(t)
	builder := NewBuilder(db, NewMemoryCache(time.Minute))

	now := day("2024-06-15")
	report, err := builder.BuildReport(context.Background(), now.AddDate(0, 0, -6), now, 3, now)
	require.NoError(t, err)

	assert.Nil(t, report.Totals.MeanRating)
	assert.Empty(t, report.TopRated)
	assert.Nil(t, report.MostReviewed)
	assert.Nil(t, report.TrendChangePct)
	assert.Nil(t, report.CommentLength.Mean)
	assert.Len(t, report.ReviewTrend, 7)
	assert.Len(t, report.Monthly, 12)
}

func TestRankingMinReviewsThreshold(t *testing.T) {
	db := setupDB(t)
	builder := NewBuilder(db, NewMemoryCache(time.Minute))
	now := day("2024-06-15")

	var users []models.User
	for i := 0; i < 3; i++ {
		users = append(users, seedUser(t, db, fmt.Sprintf("user%d", i), now))
	}

	// Three reviews: qualifies at min_reviews=3.
	qualified := seedDish(t, db, "Lasagna", ptr(4.33), nil, now)
	for i, u := range users {
		seedReview(t, db, qualified, u, 4+i%2, "good", now.AddDate(0, 0, -1))
	}

	// Two perfect reviews: excluded entirely despite the higher average.
	sparse := seedDish(t, db, "Tiramisu", ptr(5.0), nil, now)
	seedReview(t, db, sparse, users[0], 5, "wow", now.AddDate(0, 0, -1))
	seedReview(t, db, sparse, users[1], 5, "wow", now.AddDate(0, 0, -1))

	// Zero reviews: appears in neither list.
	seedDish(t, db, "Focaccia", nil, nil, now)

	report, err := builder.BuildReport(context.Background(), now.AddDate(0, 0, -29), now, 3, now)
	require.NoError(t, err)

	require.Len(t, report.TopRated, 1)
	assert.Equal(t, "Lasagna", report.TopRated[0].Name)
	require.Len(t, report.BottomRated, 1)
	assert.Equal(t, "Lasagna", report.BottomRated[0].Name)
}

func TestRankingSortKeys(t *testing.T) {
	counts := map[string]int64{}
	mk := func(name string, avg float64, reviews int64) models.Dish {
		d := models.Dish{ID: uuid.New(), Name: name, AvgRating: ptr(avg)}
		counts[d.ID.String()] = reviews
		return d
	}

	dishes := []models.Dish{
		mk("Pad Thai", 4.5, 3),
		mk("Bibimbap", 4.5, 6), // same avg, more reviews: ranks higher
		mk("Arepas", 4.5, 3),   // same avg and count as Pad Thai: name breaks the tie
		mk("Goulash", 3.0, 10),
	}

	top := rankDishes(dishes, counts, 1, true)
	require.Len(t, top, 4)
	assert.Equal(t, "Bibimbap", top[0].Name)
	assert.Equal(t, "Arepas", top[1].Name)
	assert.Equal(t, "Pad Thai", top[2].Name)
	assert.Equal(t, "Goulash", top[3].Name)

	bottom := rankDishes(dishes, counts, 1, false)
	assert.Equal(t, "Goulash", bottom[0].Name)
	assert.Equal(t, "Bibimbap", bottom[1].Name)
}

func TestRankingCap(t *testing.T) {
	counts := map[string]int64{}
	var dishes []models.Dish
	for i := 0; i < 15; i++ {
		d := models.Dish{ID: uuid.New(), Name: fmt.Sprintf("Dish %02d", i), AvgRating: ptr(4)}
		counts[d.ID.String()] = 5
		dishes = append(dishes, d)
	}
	assert.Len(t, rankDishes(dishes, counts, 1, true), 10)
}

func TestMostReviewedTieGoesToLowestID(t *testing.T) {
	a := models.Dish{ID: uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000000"), Name: "Alpha"}
	b := models.Dish{ID: uuid.MustParse("bbbbbbbb-0000-0000-0000-000000000000"), Name: "Beta"}
	counts := map[string]int64{a.ID.String(): 4, b.ID.String(): 4}

	// Input order must not matter.
	best := mostReviewed([]models.Dish{b, a}, counts)
	require.NotNil(t, best)
	assert.Equal(t, "Alpha", best.Name)

	assert.Nil(t, mostReviewed([]models.Dish{a, b}, map[string]int64{}))
}

func TestReviewTrendSingleDay(t *testing.T) {
	db := setupDB(t)
	builder := NewBuilder(db, NewMemoryCache(time.Minute))
	now := day("2024-06-15")

	u := seedUser(t, db, "alice", now)
	d := seedDish(t, db, "Ramen", ptr(5), nil, now)
	seedReview(t, db, d, u, 5, "slurp", now.Add(13*time.Hour))

	report, err := builder.BuildReport(context.Background(), now, now, 1, now)
	require.NoError(t, err)

	require.Len(t, report.ReviewTrend, 1)
	assert.Equal(t, "2024-06-15", report.ReviewTrend[0].Date)
	assert.Equal(t, int64(1), report.ReviewTrend[0].Count)
}

func TestTrendChangePolicies(t *testing.T) {
	start, end := day("2024-06-08"), day("2024-06-14") // 7 days; previous window 2024-06-01..07

	mkReview := func(created time.Time) models.Review {
		return models.Review{ID: uuid.New(), CreatedAt: created}
	}

	t.Run("both windows empty", func(t *testing.T) {
		assert.Nil(t, trendChange(nil, start, end))
	})

	t.Run("previous empty current not", func(t *testing.T) {
		got := trendChange([]models.Review{mkReview(day("2024-06-10"))}, start, end)
		require.NotNil(t, got)
		assert.Equal(t, 100.0, *got)
	})

	t.Run("both populated", func(t *testing.T) {
		reviews := []models.Review{
			mkReview(day("2024-06-02")),
			mkReview(day("2024-06-03")),
			mkReview(day("2024-06-10")),
			mkReview(day("2024-06-11")),
			mkReview(day("2024-06-12")),
		}
		got := trendChange(reviews, start, end)
		require.NotNil(t, got)
		assert.InDelta(t, 50.0, *got, 0.001) // 2 -> 3
	})

	t.Run("window boundaries", func(t *testing.T) {
		// The day before the previous window and the day after the
		// current window both count for neither side.
		reviews := []models.Review{
			mkReview(day("2024-05-31")),
			mkReview(day("2024-06-15")),
		}
		assert.Nil(t, trendChange(reviews, start, end))
	})
}

func TestCommentLengths(t *testing.T) {
	mk := func(comments ...string) []models.Review {
		reviews := make([]models.Review, len(comments))
		for i, c := range comments {
			reviews[i] = models.Review{ID: uuid.New(), Comment: c}
		}
		return reviews
	}

	t.Run("odd count", func(t *testing.T) {
		got := commentLengths(mk("ab", "abcd", "abcdef")) // lengths 2, 4, 6
		require.NotNil(t, got.Mean)
		assert.Equal(t, 4.0, *got.Mean)
		assert.Equal(t, 4.0, *got.Median)
	})

	t.Run("even count", func(t *testing.T) {
		got := commentLengths(mk("a", "ab", "abcd", "abcdefg")) // lengths 1, 2, 4, 7
		assert.Equal(t, 3.5, *got.Mean)
		assert.Equal(t, 3.0, *got.Median)
	})

	t.Run("multibyte runes", func(t *testing.T) {
		got := commentLengths(mk("crème brûlée")) // 12 runes
		assert.Equal(t, 12.0, *got.Mean)
	})

	t.Run("empty", func(t *testing.T) {
		got := commentLengths(nil)
		assert.Nil(t, got.Mean)
		assert.Nil(t, got.Median)
	})
}

func TestTopReviewers(t *testing.T) {
	mkUser := func(name string) models.User {
		return models.User{ID: uuid.New(), Username: name}
	}
	alice, bob, carol, dave := mkUser("alice"), mkUser("bob"), mkUser("carol"), mkUser("dave")

	var reviews []models.Review
	addReviews := func(u models.User, n int) {
		for i := 0; i < n; i++ {
			reviews = append(reviews, models.Review{ID: uuid.New(), UserID: u.ID})
		}
	}
	addReviews(bob, 3)
	addReviews(carol, 3)
	addReviews(alice, 5)

	ranks := topReviewers([]models.User{alice, bob, carol, dave}, reviews, 10)
	require.Len(t, ranks, 3) // dave has no reviews
	assert.Equal(t, "alice", ranks[0].Username)
	assert.Equal(t, "bob", ranks[1].Username) // count tie with carol: username asc
	assert.Equal(t, "carol", ranks[2].Username)
}

func TestTagSummary(t *testing.T) {
	mkDish := func(id string, avg *float64, tags ...string) models.Dish {
		return models.Dish{ID: uuid.MustParse(id), AvgRating: avg, Tags: tags}
	}

	dishes := []models.Dish{
		mkDish("aaaaaaaa-0000-0000-0000-000000000000", ptr(4.0), "Italian", "Quick"),
		mkDish("bbbbbbbb-0000-0000-0000-000000000000", ptr(3.0), "ITALIAN"),
		mkDish("cccccccc-0000-0000-0000-000000000000", nil, "italian", "Vegan"),
	}

	summary := tagSummary(dishes, 20)
	require.Len(t, summary, 3)

	// "Italian" groups case-insensitively with first-seen display casing;
	// the reviewless dish counts as 0 toward the mean.
	assert.Equal(t, "Italian", summary[0].Tag)
	assert.Equal(t, int64(3), summary[0].Count)
	assert.InDelta(t, 2.33, summary[0].AvgRating, 0.001)

	// Count tie between Quick and Vegan resolves alphabetically.
	assert.Equal(t, "Quick", summary[1].Tag)
	assert.Equal(t, "Vegan", summary[2].Tag)
}

func TestTagSummaryCap(t *testing.T) {
	var dishes []models.Dish
	for i := 0; i < 25; i++ {
		dishes = append(dishes, models.Dish{
			ID:   uuid.New(),
			Tags: []string{fmt.Sprintf("tag%02d", i)},
		})
	}
	assert.Len(t, tagSummary(dishes, 20), 20)
}

func TestMonthlySeries(t *testing.T) {
	now := day("2024-06-15")
	users := []models.User{
		{ID: uuid.New(), CreatedAt: day("2024-06-01")},
		{ID: uuid.New(), CreatedAt: day("2024-06-20")},
		{ID: uuid.New(), CreatedAt: day("2023-06-30")}, // before the window
	}
	dishes := []models.Dish{
		{ID: uuid.New(), CreatedAt: day("2024-01-15")},
	}

	series := monthlySeries(users, dishes, now, 12)
	require.Len(t, series, 12)
	assert.Equal(t, "2023-07", series[0].Month)
	assert.Equal(t, "2024-06", series[11].Month)
	assert.Equal(t, int64(2), series[11].NewUsers)
	assert.Equal(t, int64(0), series[11].NewDishes)

	for _, p := range series {
		if p.Month == "2024-01" {
			assert.Equal(t, int64(1), p.NewDishes)
		}
	}

	// Months without activity are present with zero counts.
	assert.Equal(t, int64(0), series[0].NewUsers)
}

func TestNewestListsCappedAtFive(t *testing.T) {
	db := setupDB(t)
	builder := NewBuilder(db, NewMemoryCache(time.Minute))
	now := day("2024-06-15")

	for i := 0; i < 8; i++ {
		seedUser(t, db, fmt.Sprintf("user%d", i), now.AddDate(0, 0, -i))
		seedDish(t, db, fmt.Sprintf("Dish %d", i), nil, nil, now.AddDate(0, 0, -i))
	}

	report, err := builder.BuildReport(context.Background(), now.AddDate(0, 0, -29), now, 3, now)
	require.NoError(t, err)

	require.Len(t, report.NewestUsers, 5)
	require.Len(t, report.NewestDishes, 5)
	assert.Equal(t, "user0", report.NewestUsers[0].Username)
	assert.Equal(t, "Dish 0", report.NewestDishes[0].Name)
	assert.Equal(t, "user4", report.NewestUsers[4].Username)
}

func TestReportServedFromCache(t *testing.T) {
	db := setupDB(t)
	builder := NewBuilder(db, NewMemoryCache(time.Minute))
	now := day("2024-06-15")
	ctx := context.Background()

	seedUser(t, db, "alice", now)

	first, err := builder.Report(ctx, now.AddDate(0, 0, -6), now, 3, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.Totals.Users)

	// New data is invisible until the cache entry expires.
	seedUser(t, db, "bob", now)

	cached, err := builder.Report(ctx, now.AddDate(0, 0, -6), now, 3, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cached.Totals.Users)

	// A different parameter tuple is a different cache entry.
	other, err := builder.Report(ctx, now.AddDate(0, 0, -6), now, 5, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), other.Totals.Users)

	// BuildReport always bypasses the cache.
	fresh, err := builder.BuildReport(ctx, now.AddDate(0, 0, -6), now, 3, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), fresh.Totals.Users)
}

func TestMemoryCacheExpiry(t *testing.T) {
	cache := NewMemoryCache(10 * time.Millisecond)
	ctx := context.Background()

	cache.Set(ctx, "k", &Report{MinReviews: 3})
	got, ok := cache.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, 3, got.MinReviews)

	time.Sleep(20 * time.Millisecond)
	_, ok = cache.Get(ctx, "k")
	assert.False(t, ok)
}

func TestCacheKey(t *testing.T) {
	key := CacheKey(day("2024-06-01"), day("2024-06-15"), 3)
	assert.Equal(t, "stats:report:2024-06-01:2024-06-15:3", key)
}

func TestBuildReportSwapsReversedRange(t *testing.T) {
	db := setupDB(t)
	builder := NewBuilder(db, NewMemoryCache(time.Minute))
	now := day("2024-06-15")

	report, err := builder.BuildReport(context.Background(), now, now.AddDate(0, 0, -2), 3, now)
	require.NoError(t, err)

	assert.Equal(t, "2024-06-13", report.StartDate)
	assert.Equal(t, "2024-06-15", report.EndDate)
	assert.Len(t, report.ReviewTrend, 3)
}
