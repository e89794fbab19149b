package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessage_CarriesEnvelope(t *testing.T) {
	event := NewQuizEvent(EventQuizCompleted, QuizCompletedEvent{SessionID: "s1", QuizID: "7", Score: 3, Total: 4})

	msg, err := NewMessage(context.Background(), event)

	require.NoError(t, err)
	assert.Equal(t, event.ID, msg.UUID)
	assert.Equal(t, "quiz.completed", msg.Metadata.Get("event_type"))
	assert.Equal(t, "quiz-service", msg.Metadata.Get("source"))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(msg.Payload, &decoded))
	data := decoded["data"].(map[string]interface{})
	assert.Equal(t, float64(3), data["score"])
	assert.Equal(t, "7", data["quiz_id"])
}

func TestNewQuizEvent_UniqueIDs(t *testing.T) {
	a := NewQuizEvent(EventSessionStarted, nil)
	b := NewQuizEvent(EventSessionStarted, nil)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, "1.0", a.Version)
}

func TestMockEventPublisher_Concurrent(t *testing.T) {
	publisher := NewMockEventPublisher(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			eventType := EventQuestionGraded
			if i%2 == 0 {
				eventType = EventSessionStarted
			}
			_ = publisher.PublishQuizEvent(context.Background(), NewQuizEvent(eventType, nil))
		}(i)
	}
	wg.Wait()

	assert.Len(t, publisher.GetPublishedEvents(), 20)
	assert.Len(t, publisher.EventsOfType(EventSessionStarted), 10)

	publisher.ClearEvents()
	assert.Empty(t, publisher.GetPublishedEvents())
}
