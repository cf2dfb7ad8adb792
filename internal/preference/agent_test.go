package preference

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/palatehq/palate-platform/pkg/config"
	"github.com/palatehq/palate-platform/pkg/mqtt"
)

// fakeMQTT captures subscriptions and published messages in memory
type fakeMQTT struct {
	handlers  map[string]mqtt.MessageHandler
	published map[string][][]byte
	connected bool
}

func newFakeMQTT() *fakeMQTT {
	return &fakeMQTT{
		handlers:  make(map[string]mqtt.MessageHandler),
		published: make(map[string][][]byte),
	}
}

func (f *fakeMQTT) Connect(ctx context.Context) error {
	f.connected = true
	return nil
}

func (f *fakeMQTT) Disconnect() { f.connected = false }

func (f *fakeMQTT) Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error {
	f.handlers[topic] = handler
	return nil
}

func (f *fakeMQTT) Publish(topic string, qos byte, retained bool, payload []byte) error {
	f.published[topic] = append(f.published[topic], payload)
	return nil
}

func (f *fakeMQTT) IsConnected() bool { return f.connected }

// deliver routes a message to the handler registered for a wildcard filter
func (f *fakeMQTT) deliver(filter, topic string, payload []byte) {
	if handler, ok := f.handlers[filter]; ok {
		handler(fakeMessage{topic: topic, payload: payload})
	}
}

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Topic() string   { return m.topic }
func (m fakeMessage) Payload() []byte { return m.payload }
func (m fakeMessage) Ack()            {}

func startTestAgent(t *testing.T) (*Agent, *fakeMQTT, *fakeStore) {
	t.Helper()
	broker := newFakeMQTT()
	store := &fakeStore{}
	agent := NewAgent(config.NewConfig(), broker, store, &fakeClock{
		now: time.Date(2026, 5, 1, 18, 30, 0, 0, time.UTC),
	}, nil, slog.Default())
	if err := agent.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	return agent, broker, store
}

func TestAgent_HandlesRating(t *testing.T) {
	_, broker, _ := startTestAgent(t)

	payload, _ := json.Marshal(RatingMessage{
		MealName: "Grilled Chicken with Broccoli",
		Rating:   5,
	})
	broker.deliver(mqtt.TopicRatings, "mealplan/rating/alice", payload)

	results := broker.published[mqtt.RatingResultTopic("alice")]
	if len(results) != 1 {
		t.Fatalf("expected one result message, got %d", len(results))
	}

	var result RateResult
	if err := json.Unmarshal(results[0], &result); err != nil {
		t.Fatalf("malformed result payload: %v", err)
	}
	if !result.Success || result.TotalRatings != 1 {
		t.Errorf("unexpected result: %+v", result)
	}

	if len(broker.published[mqtt.ProfileUpdatedTopic("alice")]) != 1 {
		t.Error("expected a profile update notification")
	}
}

func TestAgent_RejectsInvalidRating(t *testing.T) {
	_, broker, _ := startTestAgent(t)

	payload, _ := json.Marshal(RatingMessage{MealName: "Grilled Chicken", Rating: 9})
	broker.deliver(mqtt.TopicRatings, "mealplan/rating/alice", payload)

	results := broker.published[mqtt.RatingResultTopic("alice")]
	if len(results) != 1 {
		t.Fatalf("expected a failure result, got %d messages", len(results))
	}
	var result RateResult
	if err := json.Unmarshal(results[0], &result); err != nil {
		t.Fatal(err)
	}
	if result.Success {
		t.Error("expected failure for out-of-range rating")
	}

	if len(broker.published[mqtt.ProfileUpdatedTopic("alice")]) != 0 {
		t.Error("failed ratings must not notify a profile update")
	}
}

func TestAgent_IgnoresMalformedPayload(t *testing.T) {
	_, broker, _ := startTestAgent(t)

	broker.deliver(mqtt.TopicRatings, "mealplan/rating/alice", []byte("{not json"))

	if len(broker.published) != 0 {
		t.Errorf("malformed payloads must be dropped, published: %v", broker.published)
	}
}

func TestAgent_HandlesPredictionRequest(t *testing.T) {
	_, broker, _ := startTestAgent(t)

	rating, _ := json.Marshal(RatingMessage{MealName: "Grilled Chicken", Rating: 5})
	broker.deliver(mqtt.TopicRatings, "mealplan/rating/alice", rating)

	request, _ := json.Marshal(PredictionRequest{MealName: "Grilled Chicken"})
	broker.deliver(mqtt.TopicPredictionRequests, "mealplan/prediction/request/alice", request)

	responses := broker.published[mqtt.PredictionResponseTopic("alice")]
	if len(responses) != 1 {
		t.Fatalf("expected one response, got %d", len(responses))
	}

	var response struct {
		MealName   string     `json:"mealName"`
		Prediction Prediction `json:"prediction"`
	}
	if err := json.Unmarshal(responses[0], &response); err != nil {
		t.Fatal(err)
	}
	if response.Prediction.Rating <= 3 {
		t.Errorf("expected a positive prediction after a 5-star rating, got %v", response.Prediction.Rating)
	}
}

func TestAgent_SeparateProfilesPerUser(t *testing.T) {
	_, broker, store := startTestAgent(t)

	rating, _ := json.Marshal(RatingMessage{MealName: "Grilled Chicken", Rating: 1})
	broker.deliver(mqtt.TopicRatings, "mealplan/rating/alice", rating)

	request, _ := json.Marshal(PredictionRequest{MealName: "Grilled Chicken"})
	broker.deliver(mqtt.TopicPredictionRequests, "mealplan/prediction/request/bob", request)

	responses := broker.published[mqtt.PredictionResponseTopic("bob")]
	if len(responses) != 1 {
		t.Fatalf("expected one response, got %d", len(responses))
	}
	var response struct {
		Prediction Prediction `json:"prediction"`
	}
	if err := json.Unmarshal(responses[0], &response); err != nil {
		t.Fatal(err)
	}
	if response.Prediction.Rating != 3 {
		t.Errorf("bob's fresh profile must predict neutral, got %v", response.Prediction.Rating)
	}

	// Only alice has a persisted profile, and it carries the dislike
	if store.profiles["alice"] == nil {
		t.Fatal("expected alice's profile to be persisted")
	}
	if store.profiles["alice"].IngredientScores["chicken"] >= 0 {
		t.Errorf("alice's chicken score must be negative, got %v",
			store.profiles["alice"].IngredientScores["chicken"])
	}
	if store.profiles["bob"] != nil {
		t.Errorf("bob never rated, but a profile was persisted: %+v", store.profiles["bob"])
	}
}
