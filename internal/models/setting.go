package models

// Setting keys for admin-editable rates.
const (
	SettingMealRate      = "MealRate"
	SettingUtilityCharge = "UtilityCharge"
)

// Setting is a persisted key/value override.
type Setting struct {
	Key   string
	Value string
}
