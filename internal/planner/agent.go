package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pgvector/pgvector-go"

	"github.com/palatehq/palate-platform/internal/preference"
	"github.com/palatehq/palate-platform/pkg/mqtt"
)

// EngineProvider hands out per-user preference engines. Satisfied by
// preference.Agent.
type EngineProvider interface {
	Engine(ctx context.Context, userID string) (*preference.Engine, error)
}

// SimilarityStore answers nearest-neighbour queries over rated meals.
// Satisfied by preference.PostgresStore; nil disables similar-meal
// lookups (Redis-only deployments).
type SimilarityStore interface {
	SimilarRatings(ctx context.Context, userID string, vec pgvector.Vector, limit int) ([]preference.RatingRecord, error)
}

// Agent serves plan generation and similar-meal requests over MQTT
type Agent struct {
	engines   EngineProvider
	generator *Generator
	similar   SimilarityStore
	extractor *preference.Extractor
	mqtt      mqtt.Client
	logger    *slog.Logger
	planDays  int
	noRepeat  int
}

// SimilarRequest is the payload on mealplan/similar/request/{user}
type SimilarRequest struct {
	MealName string `json:"mealName"`
	Limit    int    `json:"limit,omitempty"`
}

// NewAgent creates a planner agent
func NewAgent(engines EngineProvider, generator *Generator, similar SimilarityStore, extractor *preference.Extractor, mqttClient mqtt.Client, planDays, noRepeatWindow int, logger *slog.Logger) *Agent {
	return &Agent{
		engines:   engines,
		generator: generator,
		similar:   similar,
		extractor: extractor,
		mqtt:      mqttClient,
		logger:    logger,
		planDays:  planDays,
		noRepeat:  noRepeatWindow,
	}
}

// Start connects to the broker and subscribes to plan and similar-meal
// requests
func (a *Agent) Start(ctx context.Context) error {
	a.logger.Info("Starting planner agent")

	if err := a.mqtt.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to MQTT: %w", err)
	}

	if err := a.mqtt.Subscribe(mqtt.TopicPlanRequests, 1, func(msg mqtt.Message) {
		a.handlePlanRequest(ctx, msg)
	}); err != nil {
		return fmt.Errorf("failed to subscribe to plan requests: %w", err)
	}

	if err := a.mqtt.Subscribe(mqtt.TopicSimilarRequests, 1, func(msg mqtt.Message) {
		a.handleSimilarRequest(ctx, msg)
	}); err != nil {
		return fmt.Errorf("failed to subscribe to similar-meal requests: %w", err)
	}

	a.logger.Info("Planner agent started",
		"plans", mqtt.TopicPlanRequests,
		"similar", mqtt.TopicSimilarRequests)
	return nil
}

// Stop disconnects from the broker
func (a *Agent) Stop() error {
	a.logger.Info("Stopping planner agent")
	a.mqtt.Disconnect()
	return nil
}

func (a *Agent) handlePlanRequest(ctx context.Context, msg mqtt.Message) {
	userID := userFromTopic(msg.Topic())
	if userID == "" {
		a.logger.Warn("Plan request without user segment", "topic", msg.Topic())
		return
	}

	var req PlanRequest
	if err := json.Unmarshal(msg.Payload(), &req); err != nil {
		a.logger.Warn("Malformed plan request", "topic", msg.Topic(), "error", err)
		return
	}
	if req.Days <= 0 {
		req.Days = a.planDays
	}
	// Only the trailing window of recent meals counts against variety
	if a.noRepeat > 0 && len(req.RecentMeals) > a.noRepeat {
		req.RecentMeals = req.RecentMeals[len(req.RecentMeals)-a.noRepeat:]
	}

	engine, err := a.engines.Engine(ctx, userID)
	if err != nil {
		a.logger.Error("Failed to prepare engine", "user", userID, "error", err)
		return
	}

	plan := a.generator.Generate(engine, req)
	a.publishJSON(mqtt.PlanResponseTopic(userID), map[string]interface{}{
		"plan":     plan,
		"analysis": AnalyzeGaps(plan),
	})

	a.logger.Info("Plan generated",
		"user", userID,
		"days", len(plan),
		"catalog", len(req.Meals))
}

func (a *Agent) handleSimilarRequest(ctx context.Context, msg mqtt.Message) {
	userID := userFromTopic(msg.Topic())
	if userID == "" {
		a.logger.Warn("Similar-meal request without user segment", "topic", msg.Topic())
		return
	}

	var req SimilarRequest
	if err := json.Unmarshal(msg.Payload(), &req); err != nil {
		a.logger.Warn("Malformed similar-meal request", "topic", msg.Topic(), "error", err)
		return
	}
	if req.Limit <= 0 {
		req.Limit = 5
	}

	if a.similar == nil {
		a.publishJSON(mqtt.SimilarResponseTopic(userID), map[string]interface{}{
			"mealName": req.MealName,
			"similar":  []preference.RatingRecord{},
		})
		return
	}

	features := a.extractor.Extract(req.MealName)
	records, err := a.similar.SimilarRatings(ctx, userID, features.Vector(), req.Limit)
	if err != nil {
		a.logger.Error("Similarity lookup failed", "user", userID, "meal", req.MealName, "error", err)
		return
	}

	a.publishJSON(mqtt.SimilarResponseTopic(userID), map[string]interface{}{
		"mealName": req.MealName,
		"similar":  records,
	})
}

func (a *Agent) publishJSON(topic string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		a.logger.Error("Failed to serialize message", "topic", topic, "error", err)
		return
	}
	if err := a.mqtt.Publish(topic, 1, false, data); err != nil {
		a.logger.Error("Failed to publish message", "topic", topic, "error", err)
	}
}

func userFromTopic(topic string) string {
	idx := strings.LastIndex(topic, "/")
	if idx < 0 || idx == len(topic)-1 {
		return ""
	}
	return topic[idx+1:]
}
