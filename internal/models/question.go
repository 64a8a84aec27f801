package models

import "github.com/google/uuid"

// Subscription plans. Each plan sees its own question tier plus every
// tier below it.
const (
	PlanBasic   = "basic"
	PlanPremium = "premium"
	PlanPro     = "pro"
)

var planRank = map[string]int{
	PlanBasic:   0,
	PlanPremium: 1,
	PlanPro:     2,
}

// ValidPlan reports whether p is a known subscription plan.
func ValidPlan(p string) bool {
	_, ok := planRank[p]
	return ok
}

// PlanAllows reports whether a user on plan can see a question that
// requires planRequired.
func PlanAllows(plan, planRequired string) bool {
	return planRank[plan] >= planRank[planRequired]
}

type Question struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	Category     string    `json:"category"`
	Difficulty   string    `json:"difficulty"`
	PlanRequired string    `json:"plan_required"`
}
