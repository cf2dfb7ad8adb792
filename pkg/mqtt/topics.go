package mqtt

import "fmt"

// Topic constants for the meal-planning message tree.
// User-scoped topics carry the user ID as the final segment; the
// reserved user ID "local" addresses the anonymous profile.
const (
	// Rating events (input to the preference agent)
	TopicRatings = "mealplan/rating/+"

	// Prediction request/response
	TopicPredictionRequests = "mealplan/prediction/request/+"

	// Plan generation request/response (planner agent)
	TopicPlanRequests = "mealplan/plan/request/+"

	// Similar-meal lookup request/response (planner agent)
	TopicSimilarRequests = "mealplan/similar/request/+"

	// Virtual-time configuration for test scenarios
	TopicTimeConfig = "mealplan/test/time_config"
)

// RatingTopic constructs the rating event topic for a user
// Pattern: mealplan/rating/{user}
func RatingTopic(userID string) string {
	return fmt.Sprintf("mealplan/rating/%s", userID)
}

// RatingResultTopic constructs the rating result topic for a user
// Pattern: mealplan/rating/result/{user}
func RatingResultTopic(userID string) string {
	return fmt.Sprintf("mealplan/rating/result/%s", userID)
}

// PredictionRequestTopic constructs the prediction request topic for a user
func PredictionRequestTopic(userID string) string {
	return fmt.Sprintf("mealplan/prediction/request/%s", userID)
}

// PredictionResponseTopic constructs the prediction response topic for a user
func PredictionResponseTopic(userID string) string {
	return fmt.Sprintf("mealplan/prediction/response/%s", userID)
}

// PlanRequestTopic constructs the plan request topic for a user
func PlanRequestTopic(userID string) string {
	return fmt.Sprintf("mealplan/plan/request/%s", userID)
}

// PlanResponseTopic constructs the plan response topic for a user
func PlanResponseTopic(userID string) string {
	return fmt.Sprintf("mealplan/plan/response/%s", userID)
}

// SimilarRequestTopic constructs the similar-meal request topic for a user
func SimilarRequestTopic(userID string) string {
	return fmt.Sprintf("mealplan/similar/request/%s", userID)
}

// SimilarResponseTopic constructs the similar-meal response topic for a user
func SimilarResponseTopic(userID string) string {
	return fmt.Sprintf("mealplan/similar/response/%s", userID)
}

// ProfileUpdatedTopic constructs the profile change notification topic
// Pattern: mealplan/profile/updated/{user}
func ProfileUpdatedTopic(userID string) string {
	return fmt.Sprintf("mealplan/profile/updated/%s", userID)
}
