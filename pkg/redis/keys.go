package redis

import "fmt"

// Key construction helpers for the meal-planning keyspace

// LocalUserID is the fixed user ID for anonymous, local-only profiles
const LocalUserID = "local"

// ProfileKey returns the key for a serialized preference profile (string)
// Pattern: mealplan:profile:{user}
func ProfileKey(userID string) string {
	return fmt.Sprintf("mealplan:profile:%s", userID)
}

// RatingsKey returns the key for the rating history (list, newest first)
// Pattern: mealplan:ratings:{user}
func RatingsKey(userID string) string {
	return fmt.Sprintf("mealplan:ratings:%s", userID)
}

// StatsKey returns the key for learning statistics (hash)
// Pattern: mealplan:stats:{user}
func StatsKey(userID string) string {
	return fmt.Sprintf("mealplan:stats:%s", userID)
}
