package stats

import "time"

// Report is the structured output of the admin statistics endpoint.
type Report struct {
	StartDate   string    `json:"start_date"`
	EndDate     string    `json:"end_date"`
	MinReviews  int       `json:"min_reviews"`
	GeneratedAt time.Time `json:"generated_at"`

	Totals             Totals             `json:"totals"`
	TopRated           []DishRank         `json:"top_rated"`
	BottomRated        []DishRank         `json:"bottom_rated"`
	MostReviewed       *DishRank          `json:"most_reviewed"`
	NewestDishes       []DishBrief        `json:"newest_dishes"`
	NewestUsers        []UserBrief        `json:"newest_users"`
	RatingDistribution map[string]int64   `json:"rating_distribution"`
	ReviewTrend        []TrendPoint       `json:"review_trend"`
	TrendChangePct     *float64           `json:"trend_change_pct"`
	CommentLength      CommentLengthStats `json:"comment_length"`
	TopReviewers       []ReviewerRank     `json:"top_reviewers"`
	TagSummary         []TagStat          `json:"tag_summary"`
	Monthly            []MonthlyPoint     `json:"monthly"`
}

type Totals struct {
	Users      int64    `json:"users"`
	Dishes     int64    `json:"dishes"`
	Reviews    int64    `json:"reviews"`
	MeanRating *float64 `json:"mean_rating"`
}

type DishRank struct {
	DishID      string   `json:"dish_id"`
	Name        string   `json:"name"`
	AvgRating   *float64 `json:"avg_rating"`
	ReviewCount int64    `json:"review_count"`
}

type DishBrief struct {
	DishID    string    `json:"dish_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type UserBrief struct {
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

type TrendPoint struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type CommentLengthStats struct {
	Mean   *float64 `json:"mean"`
	Median *float64 `json:"median"`
}

type ReviewerRank struct {
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	ReviewCount int64  `json:"review_count"`
}

type TagStat struct {
	Tag       string  `json:"tag"`
	Count     int64   `json:"count"`
	AvgRating float64 `json:"avg_rating"`
}

type MonthlyPoint struct {
	Month     string `json:"month"`
	NewUsers  int64  `json:"new_users"`
	NewDishes int64  `json:"new_dishes"`
}
