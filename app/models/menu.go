package models

// Meal is a single option offered on a given day.
type Meal struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// DayMenu is the set of meals offered for one service date.
type DayMenu struct {
	Meals []Meal `json:"meals"`
}

// Menu is the full offering, keyed by ISO date ("2006-01-02").
// It mirrors the shape of data/lunch_options.json.
type Menu struct {
	DailyOptions map[string]DayMenu `json:"daily_options"`
}
