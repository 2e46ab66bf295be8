package constants

// Category identifies one of the three fixed record buckets of a day.
type Category string

const (
	CategorySport     Category = "sport"
	CategorySocial    Category = "social"
	CategoryNutrition Category = "nutrition"
)

// Categories lists every bucket in canonical order.
var Categories = []Category{CategorySport, CategorySocial, CategoryNutrition}

// ScoreWeights is the fixed weight table used to classify a day's mood.
// A day's score is the weighted sum of per-category quantity totals.
var ScoreWeights = map[Category]int{
	CategorySport:     3,
	CategorySocial:    2,
	CategoryNutrition: 1,
}

// EntryTypes is the closed set of entry types per category. Repeated
// additions of the same (category, type) increment quantity rather than
// duplicating entries.
var EntryTypes = map[Category][]string{
	CategorySport:     {"running", "cycling", "swimming", "gym", "yoga", "hiking"},
	CategorySocial:    {"coffee", "dinner", "call", "party", "game_night"},
	CategoryNutrition: {"veggies", "fruit", "water", "home_cooked", "no_sugar"},
}
