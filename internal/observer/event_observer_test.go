package observer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	name   string
	mu     sync.Mutex
	events []AugmentationEvent
}

func (o *recordingObserver) OnEvent(ctx context.Context, event AugmentationEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, event)
}

func (o *recordingObserver) GetObserverName() string {
	return o.name
}

func (o *recordingObserver) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.events)
}

type panickingObserver struct{}

func (panickingObserver) OnEvent(ctx context.Context, event AugmentationEvent) {
	panic("boom")
}

func (panickingObserver) GetObserverName() string {
	return "panicking"
}

func TestEventPublisher_NotifyAndUnsubscribe(t *testing.T) {
	publisher := NewEventPublisher()
	first := &recordingObserver{name: "first"}
	second := &recordingObserver{name: "second"}
	publisher.Subscribe(first)
	publisher.Subscribe(second)
	publisher.Subscribe(panickingObserver{})

	publisher.NotifyObservers(context.Background(), AugmentationEvent{EventType: AugmentationStarted})
	publisher.Flush()
	assert.Equal(t, 1, first.count())
	assert.Equal(t, 1, second.count())

	publisher.Unsubscribe(first)
	publisher.NotifyObservers(context.Background(), AugmentationEvent{EventType: AugmentationCompleted})
	publisher.Flush()
	assert.Equal(t, 1, first.count())
	assert.Equal(t, 2, second.count())
}

func TestLoggingObserver_Levels(t *testing.T) {
	log, hook := logtest.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	obs := NewLoggingObserver(log)

	obs.OnEvent(context.Background(), AugmentationEvent{
		EventType:    AugmentationFailed,
		Source:       "cat.png",
		Technique:    "gaussian_blur",
		ErrorMessage: "bad kernel",
		Metadata:     map[string]interface{}{"kernel": 4},
	})

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, "bad kernel", entry.Data["error"])
	assert.Equal(t, 4, entry.Data["kernel"])
	assert.Equal(t, "gaussian_blur", entry.Data["technique"])

	obs.OnEvent(context.Background(), AugmentationEvent{EventType: AugmentationCompleted, Success: true})
	assert.Equal(t, logrus.InfoLevel, hook.LastEntry().Level)
	assert.Equal(t, "logging_observer", obs.GetObserverName())
}

func TestMetricsObserver_Counts(t *testing.T) {
	obs := NewMetricsObserver()
	ctx := context.Background()

	obs.OnEvent(ctx, AugmentationEvent{EventType: AugmentationStarted, Technique: "gaussian_blur"})
	obs.OnEvent(ctx, AugmentationEvent{EventType: AugmentationCompleted, Technique: "gaussian_blur", ProcessingTime: 20 * time.Millisecond})
	obs.OnEvent(ctx, AugmentationEvent{EventType: AugmentationCompleted, Technique: "gaussian_blur", ProcessingTime: 5 * time.Millisecond})
	obs.OnEvent(ctx, AugmentationEvent{EventType: AugmentationFailed, Technique: "gaussian_blur"})
	obs.OnEvent(ctx, AugmentationEvent{EventType: ImageFetchFailed})

	assert.Equal(t, 2.0, testutil.ToFloat64(obs.events.WithLabelValues("gaussian_blur", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(obs.events.WithLabelValues("gaussian_blur", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(obs.fetchFailed))
	assert.Equal(t, 1, testutil.CollectAndCount(obs.durations))

	series, err := testutil.GatherAndCount(obs.Registry(), "image_augmentor_augmentations_total")
	require.NoError(t, err)
	assert.Equal(t, 2, series)
}

func TestMetricsObserver_Handler(t *testing.T) {
	obs := NewMetricsObserver()
	obs.OnEvent(context.Background(), AugmentationEvent{EventType: AugmentationCompleted, Technique: "gaussian_blur"})

	rec := httptest.NewRecorder()
	obs.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `image_augmentor_augmentations_total{outcome="success",technique="gaussian_blur"} 1`)
}
