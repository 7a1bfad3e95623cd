package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/a1gato/olimpiad/internal/events"
	"github.com/a1gato/olimpiad/internal/models"
	"github.com/a1gato/olimpiad/internal/service"
)

func TestEventsHandlerStreamsChanges(t *testing.T) {
	gin.SetMode(gin.TestMode)
	feed := events.NewFeed(nil, "events", zap.NewNop())
	handler := NewEventsHandler(feed, service.NewMetricsService())

	router := gin.New()
	router.GET("/events", handler.Stream)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	go func() {
		// Give the handler time to subscribe before publishing.
		time.Sleep(50 * time.Millisecond)
		feed.Publish(context.Background(), models.NewTableEvent(models.TableStudents, models.EventInsert, "st-1"))
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	router.ServeHTTP(rec, req)

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, "event:change")
	assert.Contains(t, body, "st-1")
	assert.Equal(t, 0, feed.SubscriberCount())
}
