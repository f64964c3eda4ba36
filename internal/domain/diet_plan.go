package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Shape constraints for diet plans.
const (
	DietPlanDays   = 7
	MinMealsPerDay = 1
	MaxMealsPerDay = 10
)

// Meal is a single scheduled meal inside a diet plan day.
// Meal IDs are minted when the plan is written so that meal logs
// can reference them directly.
type Meal struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Calories    int                `bson:"calories,omitempty" json:"calories,omitempty"`
	ImageURL    string             `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
}

// DietPlanDay holds the meals scheduled for one day of the week.
// DayOfWeek uses the Monday = 0 .. Sunday = 6 convention throughout.
type DietPlanDay struct {
	DayOfWeek int    `bson:"dayOfWeek" json:"dayOfWeek"`
	Meals     []Meal `bson:"meals" json:"meals"`
}

// DietPlan is a trainer-authored weekly meal schedule. It always contains
// exactly 7 days, each with 1 to 10 meals. Days and meals are embedded in
// the plan document; they have no life of their own.
type DietPlan struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TrainerID   primitive.ObjectID `bson:"trainerId" json:"trainerId"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Days        []DietPlanDay      `bson:"days" json:"days"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// MealsForDay returns the meals scheduled on the given plan day index
// (Monday = 0 .. Sunday = 6), or nil when the index is out of range.
func (p *DietPlan) MealsForDay(dayIndex int) []Meal {
	for _, day := range p.Days {
		if day.DayOfWeek == dayIndex {
			return day.Meals
		}
	}
	return nil
}

// FindMeal looks a meal up by ID across all days of the plan.
func (p *DietPlan) FindMeal(mealID primitive.ObjectID) *Meal {
	for di := range p.Days {
		for mi := range p.Days[di].Meals {
			if p.Days[di].Meals[mi].ID == mealID {
				return &p.Days[di].Meals[mi]
			}
		}
	}
	return nil
}

// PlanDayIndex maps a calendar weekday to the plan's day index.
// time.Weekday counts Sunday as 0; diet plans count Monday as 0,
// so calendar Sunday lands on plan index 6.
func PlanDayIndex(weekday time.Weekday) int {
	return (int(weekday) + 6) % 7
}
