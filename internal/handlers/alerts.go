package handlers

import (
	"bufio"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dhruv200010/rentmanager/internal/alerts"
	"github.com/dhruv200010/rentmanager/internal/events"
)

// AlertsHandler serves the live alert stream and the scheduled-reminder list.
type AlertsHandler struct {
	service *alerts.Service
	hub     events.Subscriber
	logger  *slog.Logger
}

// NewAlertsHandler creates an alerts handler.
func NewAlertsHandler(log *slog.Logger, service *alerts.Service, hub events.Subscriber) *AlertsHandler {
	return &AlertsHandler{
		service: service,
		hub:     hub,
		logger:  log.With(slog.String("handler", "alerts")),
	}
}

// Register mounts the /alerts routes on the Echo instance.
func (h *AlertsHandler) Register(e *echo.Echo) {
	group := e.Group("/alerts")
	group.GET("/scheduled", h.ListScheduled)
	group.GET("/stream", h.Stream)
}

// ListScheduled returns the caller's armed reminders.
func (h *AlertsHandler) ListScheduled(c echo.Context) error {
	if _, err := requireUserID(c); err != nil {
		return err
	}
	items, err := h.service.ListScheduled()
	if err != nil {
		h.logger.Error("list scheduled reminders failed", slog.Any("error", err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list reminders")
	}
	return c.JSON(http.StatusOK, items)
}

// Stream pushes the caller's alert events over server-sent events until the
// client disconnects.
func (h *AlertsHandler) Stream(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	if h.hub == nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "event hub not configured")
	}

	c.Response().Header().Set(echo.HeaderContentType, "text/event-stream")
	c.Response().Header().Set(echo.HeaderCacheControl, "no-cache")
	c.Response().Header().Set(echo.HeaderConnection, "keep-alive")
	c.Response().WriteHeader(http.StatusOK)

	flusher, ok := c.Response().Writer.(http.Flusher)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "streaming not supported")
	}
	writer := bufio.NewWriter(c.Response().Writer)

	_, stream, cancel := h.hub.Subscribe(userID, 0)
	defer cancel()

	for {
		select {
		case <-c.Request().Context().Done():
			return nil
		case ev, ok := <-stream:
			if !ok {
				return nil
			}
			_, _ = writer.WriteString(fmt.Sprintf("event: %s\n", ev.Type))
			_, _ = writer.WriteString(fmt.Sprintf("data: %s\n\n", string(ev.Data)))
			writer.Flush()
			flusher.Flush()
		}
	}
}
