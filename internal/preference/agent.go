package preference

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/palatehq/palate-platform/pkg/config"
	"github.com/palatehq/palate-platform/pkg/mqtt"
	"github.com/palatehq/palate-platform/pkg/redis"
)

// Agent wires the learning engine to the MQTT message tree. It keeps one
// engine per user, created lazily on the first message for that user.
type Agent struct {
	cfg        *config.Config
	mqttClient mqtt.Client
	store      ProfileStore
	clock      Clock
	tables     *Tables
	logger     *slog.Logger

	mu      sync.Mutex
	engines map[string]*Engine
}

// RatingMessage is the payload on mealplan/rating/{user}
type RatingMessage struct {
	MealName string        `json:"mealName"`
	Rating   int           `json:"rating"`
	Context  RatingContext `json:"context"`
}

// PredictionRequest is the payload on mealplan/prediction/request/{user}
type PredictionRequest struct {
	MealName string        `json:"mealName"`
	Context  RatingContext `json:"context"`
}

// NewAgent creates a preference agent
func NewAgent(cfg *config.Config, mqttClient mqtt.Client, store ProfileStore, clock Clock, tables *Tables, logger *slog.Logger) *Agent {
	return &Agent{
		cfg:        cfg,
		mqttClient: mqttClient,
		store:      store,
		clock:      clock,
		tables:     tables,
		logger:     logger,
		engines:    make(map[string]*Engine),
	}
}

// Start connects to the broker and subscribes to rating events and
// prediction requests
func (a *Agent) Start(ctx context.Context) error {
	a.logger.Info("Starting preference agent")

	if err := a.mqttClient.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to MQTT: %w", err)
	}

	// Virtual time support for test scenarios
	if tm, ok := a.clock.(*TimeManager); ok {
		if err := tm.ConfigureFromMQTT(a.mqttClient); err != nil {
			a.logger.Warn("Failed to subscribe to test mode config", "error", err)
		}
	}

	if err := a.mqttClient.Subscribe(mqtt.TopicRatings, 1, func(msg mqtt.Message) {
		a.handleRating(ctx, msg)
	}); err != nil {
		return fmt.Errorf("failed to subscribe to ratings: %w", err)
	}

	if err := a.mqttClient.Subscribe(mqtt.TopicPredictionRequests, 1, func(msg mqtt.Message) {
		a.handlePrediction(ctx, msg)
	}); err != nil {
		return fmt.Errorf("failed to subscribe to prediction requests: %w", err)
	}

	a.logger.Info("Preference agent started",
		"ratings", mqtt.TopicRatings,
		"predictions", mqtt.TopicPredictionRequests)
	return nil
}

// Stop disconnects from the broker
func (a *Agent) Stop() error {
	a.logger.Info("Stopping preference agent")
	a.mqttClient.Disconnect()
	return nil
}

func (a *Agent) handleRating(ctx context.Context, msg mqtt.Message) {
	userID := userFromTopic(msg.Topic())
	if userID == "" {
		a.logger.Warn("Rating message without user segment", "topic", msg.Topic())
		return
	}

	var rating RatingMessage
	if err := json.Unmarshal(msg.Payload(), &rating); err != nil {
		a.logger.Warn("Malformed rating payload", "topic", msg.Topic(), "error", err)
		return
	}

	engine, err := a.engineFor(ctx, userID)
	if err != nil {
		a.logger.Error("Failed to prepare engine", "user", userID, "error", err)
		return
	}

	result := engine.RateMeal(ctx, rating.MealName, rating.Rating, rating.Context)
	a.publishJSON(mqtt.RatingResultTopic(userID), result)

	if result.Success {
		a.publishJSON(mqtt.ProfileUpdatedTopic(userID), map[string]interface{}{
			"user":         userID,
			"totalRatings": result.TotalRatings,
			"accuracy":     result.SystemAccuracy,
		})
		a.logger.Info("Rating processed",
			"user", userID,
			"meal", rating.MealName,
			"rating", rating.Rating,
			"totalRatings", result.TotalRatings)
	} else {
		a.logger.Warn("Rating rejected", "user", userID, "error", result.Error)
	}
}

func (a *Agent) handlePrediction(ctx context.Context, msg mqtt.Message) {
	userID := userFromTopic(msg.Topic())
	if userID == "" {
		a.logger.Warn("Prediction request without user segment", "topic", msg.Topic())
		return
	}

	var req PredictionRequest
	if err := json.Unmarshal(msg.Payload(), &req); err != nil {
		a.logger.Warn("Malformed prediction request", "topic", msg.Topic(), "error", err)
		return
	}

	engine, err := a.engineFor(ctx, userID)
	if err != nil {
		a.logger.Error("Failed to prepare engine", "user", userID, "error", err)
		return
	}

	prediction := engine.PredictRating(req.MealName, req.Context)
	a.publishJSON(mqtt.PredictionResponseTopic(userID), map[string]interface{}{
		"mealName":   req.MealName,
		"prediction": prediction,
	})
}

// Engine returns the engine for a user, creating and loading it on first
// use. The empty user ID maps to the local anonymous profile.
func (a *Agent) Engine(ctx context.Context, userID string) (*Engine, error) {
	return a.engineFor(ctx, userID)
}

func (a *Agent) engineFor(ctx context.Context, userID string) (*Engine, error) {
	if userID == "" {
		userID = redis.LocalUserID
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if engine, ok := a.engines[userID]; ok {
		return engine, nil
	}

	engine := NewEngine(EngineOptions{
		UserID:    userID,
		Params:    ParamsFromConfig(a.cfg),
		Tables:    a.tables,
		Store:     a.store,
		Clock:     a.clock,
		Logger:    a.logger.With("user", userID),
		Latitude:  a.cfg.Latitude,
		Longitude: a.cfg.Longitude,
	})
	if err := engine.Load(ctx); err != nil {
		return nil, err
	}

	a.engines[userID] = engine
	return engine, nil
}

func (a *Agent) publishJSON(topic string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		a.logger.Error("Failed to serialize message", "topic", topic, "error", err)
		return
	}
	if err := a.mqttClient.Publish(topic, 1, false, data); err != nil {
		a.logger.Error("Failed to publish message", "topic", topic, "error", err)
	}
}

// userFromTopic extracts the trailing user segment from a topic
func userFromTopic(topic string) string {
	idx := strings.LastIndex(topic, "/")
	if idx < 0 || idx == len(topic)-1 {
		return ""
	}
	return topic[idx+1:]
}
