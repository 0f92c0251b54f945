package realtime

import (
	"context"
	"net/http"
	"strconv"
	"sync"

	"content-scheduler/domain/model"

	"github.com/gin-gonic/gin"
)

const publishEventName = "publish_status"

// Hub fans publish events out to the SSE streams of the owning user.
type Hub struct {
	mu    sync.RWMutex
	users map[string]map[chan model.PublishEvent]struct{}
}

func NewPublishHub() *Hub {
	return &Hub{users: make(map[string]map[chan model.PublishEvent]struct{})}
}

// Serve registers an SSE stream for the authenticated user (user_id set by middleware).
func (h *Hub) Serve(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // disable nginx buffering

	ch := make(chan model.PublishEvent, 8)
	h.addSubscriber(userID, ch)
	defer h.removeSubscriber(userID, ch)

	_, _ = c.Writer.Write([]byte(":ok\n\n"))
	c.Writer.Flush()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case evt := <-ch:
			c.SSEvent(publishEventName, evt)
			c.Writer.Flush()
		}
	}
}

// PublishEvent never blocks: slow subscribers drop events.
func (h *Hub) PublishEvent(_ context.Context, event model.PublishEvent) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.users[strconv.FormatInt(event.UserID, 10)] {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

func (h *Hub) subscribers(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID])
}

func (h *Hub) addSubscriber(userID string, ch chan model.PublishEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.users[userID] == nil {
		h.users[userID] = make(map[chan model.PublishEvent]struct{})
	}
	h.users[userID][ch] = struct{}{}
}

func (h *Hub) removeSubscriber(userID string, ch chan model.PublishEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs := h.users[userID]; subs != nil {
		delete(subs, ch)
		close(ch)
		if len(subs) == 0 {
			delete(h.users, userID)
		}
	}
}
