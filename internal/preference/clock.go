package preference

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/sixdouglas/suncalc"

	"github.com/palatehq/palate-platform/pkg/mqtt"
)

// Clock supplies the current time to the engine. Every time-dependent rule
// (context defaults, decay, recency, consistency windows) reads through
// this interface so tests can pin "now".
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by the wall clock
func SystemClock() Clock { return systemClock{} }

// TimeOfDayFor maps an hour of day onto a meal slot
func TimeOfDayFor(t time.Time) string {
	switch hour := t.Hour(); {
	case hour < 10:
		return "breakfast"
	case hour < 15:
		return "lunch"
	case hour < 18:
		return "snack"
	default:
		return "dinner"
	}
}

// SeasonFor maps a month onto a season
func SeasonFor(t time.Time) string {
	switch month := t.Month(); {
	case month >= time.March && month <= time.May:
		return "spring"
	case month >= time.June && month <= time.August:
		return "summer"
	case month >= time.September && month <= time.November:
		return "fall"
	default:
		return "winter"
	}
}

// Daylight reports whether the sun is above the horizon at the given
// coordinates. Recorded as context metadata only; it never enters scoring.
func Daylight(t time.Time, lat, lon float64) bool {
	position := suncalc.GetPosition(t, lat, lon)
	return position.Altitude > 0
}

// TimeManager implements Clock with optional virtual time for test
// scenarios, configured over MQTT.
type TimeManager struct {
	mu           sync.RWMutex
	testMode     bool
	virtualStart time.Time
	realStart    time.Time
	timeScale    int
	logger       *slog.Logger
}

// NewTimeManager creates a new time manager
func NewTimeManager(logger *slog.Logger) *TimeManager {
	return &TimeManager{
		testMode:  false,
		realStart: time.Now(),
		timeScale: 1,
		logger:    logger,
	}
}

// ConfigureFromMQTT subscribes to virtual-time configuration
func (tm *TimeManager) ConfigureFromMQTT(mqttClient mqtt.Client) error {
	handler := func(msg mqtt.Message) {
		tm.handleTestModeConfig(msg.Payload())
	}

	return mqttClient.Subscribe(mqtt.TopicTimeConfig, 1, handler)
}

// handleTestModeConfig processes virtual-time configuration
func (tm *TimeManager) handleTestModeConfig(payload []byte) {
	var config struct {
		VirtualStart string `json:"virtual_start"`
		TimeScale    int    `json:"time_scale"`
		TestMode     bool   `json:"test_mode"`
	}

	if err := json.Unmarshal(payload, &config); err != nil {
		tm.logger.Error("Failed to parse test mode config", "error", err)
		return
	}

	if !config.TestMode {
		tm.logger.Info("Test mode disabled")
		tm.mu.Lock()
		tm.testMode = false
		tm.mu.Unlock()
		return
	}

	virtualStart, err := time.Parse(time.RFC3339, config.VirtualStart)
	if err != nil {
		tm.logger.Error("Invalid virtual_start time", "error", err)
		return
	}

	tm.mu.Lock()
	tm.testMode = true
	tm.virtualStart = virtualStart
	tm.realStart = time.Now()
	tm.timeScale = config.TimeScale
	tm.mu.Unlock()

	tm.logger.Info("Test mode configured",
		"virtual_start", config.VirtualStart,
		"time_scale", config.TimeScale)
}

// Now returns the current time (real or virtual)
func (tm *TimeManager) Now() time.Time {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	if !tm.testMode {
		return time.Now()
	}

	realElapsed := time.Since(tm.realStart)
	virtualElapsed := realElapsed * time.Duration(tm.timeScale)
	return tm.virtualStart.Add(virtualElapsed)
}

// IsTestMode returns whether virtual time is active
func (tm *TimeManager) IsTestMode() bool {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return tm.testMode
}
