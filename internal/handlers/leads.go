package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dhruv200010/rentmanager/internal/leads"
)

// LeadsHandler serves the /leads API.
type LeadsHandler struct {
	service *leads.Service
	logger  *slog.Logger
}

// NewLeadsHandler creates a leads handler.
func NewLeadsHandler(log *slog.Logger, service *leads.Service) *LeadsHandler {
	return &LeadsHandler{
		service: service,
		logger:  log.With(slog.String("handler", "leads")),
	}
}

// Register mounts the /leads routes on the Echo instance.
func (h *LeadsHandler) Register(e *echo.Echo) {
	group := e.Group("/leads")
	group.POST("", h.Create)
	group.POST("/intake", h.Intake)
	group.GET("", h.List)
	group.GET("/archived", h.ListArchived)
	group.GET("/:id", h.Get)
	group.PUT("/:id", h.Update)
	group.DELETE("/:id", h.Delete)
	group.POST("/:id/reschedule", h.Reschedule)
	group.POST("/:id/archive", h.Archive)
	group.POST("/:id/restore", h.Restore)
	group.POST("/:id/responses", h.AddResponse)
	group.DELETE("/:id/responses/:index", h.DeleteResponse)
}

// IntakeRequest is the body for POST /leads/intake.
type IntakeRequest struct {
	Message string `json:"message"`
}

// Intake creates a lead from one free-text message.
func (h *LeadsHandler) Intake(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	var req IntakeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	lead, err := h.service.CreateFromMessage(c.Request().Context(), userID, req.Message)
	if err != nil {
		if errors.Is(err, leads.ErrEmptyMessage) {
			return echo.NewHTTPError(http.StatusBadRequest, "message is required")
		}
		h.logger.Error("intake failed", slog.Any("error", err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create lead")
	}
	return c.JSON(http.StatusCreated, lead)
}

// Create stores a lead from explicit fields.
func (h *LeadsHandler) Create(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	var params leads.CreateParams
	if err := c.Bind(&params); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	lead, err := h.service.Create(c.Request().Context(), userID, params)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, lead)
}

// List returns active leads, filtered by ?query= and ?filter=.
func (h *LeadsHandler) List(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	filter := leads.Filter(strings.ToLower(strings.TrimSpace(c.QueryParam("filter"))))
	switch filter {
	case "", leads.FilterAll:
		filter = leads.FilterAll
	case leads.FilterPending, leads.FilterTriggered:
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "filter must be all, pending, or triggered")
	}
	items, err := h.service.List(c.Request().Context(), userID, c.QueryParam("query"), filter)
	if err != nil {
		h.logger.Error("list leads failed", slog.Any("error", err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list leads")
	}
	return c.JSON(http.StatusOK, items)
}

// ListArchived returns archived leads, filtered by ?query=.
func (h *LeadsHandler) ListArchived(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	items, err := h.service.ListArchived(c.Request().Context(), userID, c.QueryParam("query"))
	if err != nil {
		h.logger.Error("list archived leads failed", slog.Any("error", err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list archived leads")
	}
	return c.JSON(http.StatusOK, items)
}

// Get returns one lead.
func (h *LeadsHandler) Get(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	lead, err := h.service.Get(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return leadError(err)
	}
	return c.JSON(http.StatusOK, lead)
}

// Update edits a lead's descriptive fields.
func (h *LeadsHandler) Update(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	var params leads.UpdateParams
	if err := c.Bind(&params); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	lead, err := h.service.Update(c.Request().Context(), userID, c.Param("id"), params)
	if err != nil {
		return leadError(err)
	}
	return c.JSON(http.StatusOK, lead)
}

// Delete removes a lead permanently.
func (h *LeadsHandler) Delete(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), userID, c.Param("id")); err != nil {
		return leadError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// RescheduleRequest is the body for POST /leads/:id/reschedule.
type RescheduleRequest struct {
	AlertTime time.Time `json:"alert_time"`
}

// Reschedule moves a lead's reminder.
func (h *LeadsHandler) Reschedule(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	var req RescheduleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.AlertTime.IsZero() {
		return echo.NewHTTPError(http.StatusBadRequest, "alert_time is required")
	}
	lead, err := h.service.Reschedule(c.Request().Context(), userID, c.Param("id"), req.AlertTime)
	if err != nil {
		if errors.Is(err, leads.ErrAlertNotFuture) {
			return echo.NewHTTPError(http.StatusBadRequest, "alert_time must be in the future")
		}
		return leadError(err)
	}
	return c.JSON(http.StatusOK, lead)
}

// Archive moves a lead out of the active list.
func (h *LeadsHandler) Archive(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	lead, err := h.service.Archive(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		if errors.Is(err, leads.ErrAlreadyArchived) {
			return echo.NewHTTPError(http.StatusConflict, "lead is already archived")
		}
		return leadError(err)
	}
	return c.JSON(http.StatusOK, lead)
}

// Restore moves an archived lead back to the active list.
func (h *LeadsHandler) Restore(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	lead, err := h.service.Restore(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		if errors.Is(err, leads.ErrNotArchived) {
			return echo.NewHTTPError(http.StatusConflict, "lead is not archived")
		}
		return leadError(err)
	}
	return c.JSON(http.StatusOK, lead)
}

// ResponseRequest is the body for POST /leads/:id/responses.
type ResponseRequest struct {
	Text string `json:"text"`
}

// AddResponse appends one interaction to the lead's response log.
func (h *LeadsHandler) AddResponse(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	var req ResponseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	lead, err := h.service.AddResponse(c.Request().Context(), userID, c.Param("id"), req.Text)
	if err != nil {
		if errors.Is(err, leads.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "lead not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, lead)
}

// DeleteResponse removes the response at :index.
func (h *LeadsHandler) DeleteResponse(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "index must be an integer")
	}
	lead, err := h.service.DeleteResponse(c.Request().Context(), userID, c.Param("id"), index)
	if err != nil {
		if errors.Is(err, leads.ErrResponseIndex) {
			return echo.NewHTTPError(http.StatusBadRequest, "response index out of range")
		}
		return leadError(err)
	}
	return c.JSON(http.StatusOK, lead)
}

// leadError maps service errors to HTTP errors.
func leadError(err error) error {
	if errors.Is(err, leads.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "lead not found")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
