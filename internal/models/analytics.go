package models

// WeeklyStats summarizes the current week of practice and how it compares
// to the week before. Derived on demand, never persisted.
type WeeklyStats struct {
	SessionsCompleted    int            `json:"sessions_completed"`
	AverageRating        float64        `json:"average_rating"`
	CategoriesPracticed  []string       `json:"categories_practiced"`
	ComparisonToPrevWeek WeekComparison `json:"comparison_to_previous_week"`
}

type WeekComparison struct {
	SessionsDelta int     `json:"sessions_delta"`
	RatingDelta   float64 `json:"rating_delta"`
}

type CategoryPerformance struct {
	Category      string  `json:"category"`
	SessionsCount int     `json:"sessions_count"`
	AverageRating float64 `json:"average_rating"`
	IsWeakest     bool    `json:"is_weakest"`
}

// ReadinessScore is a composite 0-100 interview-readiness metric.
type ReadinessScore struct {
	Overall         int      `json:"overall"`
	RecentActivity  float64  `json:"recent_activity"`
	Performance     float64  `json:"performance"`
	Consistency     float64  `json:"consistency"`
	Recommendations []string `json:"recommendations"`
}
