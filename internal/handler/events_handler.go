package handler

import (
	"encoding/json"
	"io"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/a1gato/olimpiad/internal/events"
	"github.com/a1gato/olimpiad/internal/service"
)

// EventsHandler streams table-change notifications over SSE so consoles can
// refresh occupancy and scores without polling.
type EventsHandler struct {
	feed      *events.Feed
	metrics   *service.MetricsService
	heartbeat time.Duration
}

// NewEventsHandler creates a new handler.
func NewEventsHandler(feed *events.Feed, metrics *service.MetricsService) *EventsHandler {
	return &EventsHandler{feed: feed, metrics: metrics, heartbeat: 25 * time.Second}
}

// Stream subscribes the client to the change feed until it disconnects.
func (h *EventsHandler) Stream(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	ch, cancel := h.feed.Subscribe()
	defer func() {
		cancel()
		h.metrics.SetEventSubscribers(h.feed.SubscriberCount())
	}()
	h.metrics.SetEventSubscribers(h.feed.SubscriberCount())

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	clientGone := c.Request.Context().Done()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-clientGone:
			return false
		case event, ok := <-ch:
			if !ok {
				return false
			}
			payload, err := json.Marshal(event)
			if err != nil {
				return true
			}
			c.SSEvent("change", string(payload))
			return true
		case <-ticker.C:
			c.SSEvent("heartbeat", time.Now().UTC().Format(time.RFC3339))
			return true
		}
	})
}
