package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dhruv200010/rentmanager/internal/properties"
)

// PropertiesHandler serves the /properties API, including nested rooms.
type PropertiesHandler struct {
	service *properties.Service
	logger  *slog.Logger
}

// NewPropertiesHandler creates a properties handler.
func NewPropertiesHandler(log *slog.Logger, service *properties.Service) *PropertiesHandler {
	return &PropertiesHandler{
		service: service,
		logger:  log.With(slog.String("handler", "properties")),
	}
}

// Register mounts the /properties routes on the Echo instance.
func (h *PropertiesHandler) Register(e *echo.Echo) {
	group := e.Group("/properties")
	group.POST("", h.Create)
	group.GET("", h.List)
	group.GET("/summary", h.Summary)
	group.GET("/:id", h.Get)
	group.PUT("/:id", h.Update)
	group.DELETE("/:id", h.Delete)

	rooms := group.Group("/:id/rooms")
	rooms.POST("", h.AddRoom)
	rooms.PUT("/:room_id", h.UpdateRoom)
	rooms.PUT("/:room_id/status", h.SetRoomStatus)
	rooms.DELETE("/:room_id", h.DeleteRoom)
}

// Create stores a new property.
func (h *PropertiesHandler) Create(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	var params properties.PropertyParams
	if err := c.Bind(&params); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	property, err := h.service.CreateProperty(c.Request().Context(), userID, params)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, property)
}

// List returns the user's properties with rooms.
func (h *PropertiesHandler) List(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	items, err := h.service.ListProperties(c.Request().Context(), userID)
	if err != nil {
		h.logger.Error("list properties failed", slog.Any("error", err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list properties")
	}
	return c.JSON(http.StatusOK, items)
}

// Summary returns per-property vacancy counts.
func (h *PropertiesHandler) Summary(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	summary, err := h.service.VacancySummary(c.Request().Context(), userID)
	if err != nil {
		h.logger.Error("vacancy summary failed", slog.Any("error", err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to build summary")
	}
	return c.JSON(http.StatusOK, summary)
}

// Get returns one property with its rooms.
func (h *PropertiesHandler) Get(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	property, err := h.service.GetProperty(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return propertyError(err)
	}
	return c.JSON(http.StatusOK, property)
}

// Update edits a property's descriptive fields.
func (h *PropertiesHandler) Update(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	var params properties.PropertyParams
	if err := c.Bind(&params); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	property, err := h.service.UpdateProperty(c.Request().Context(), userID, c.Param("id"), params)
	if err != nil {
		return propertyError(err)
	}
	return c.JSON(http.StatusOK, property)
}

// Delete removes a property and its rooms.
func (h *PropertiesHandler) Delete(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteProperty(c.Request().Context(), userID, c.Param("id")); err != nil {
		return propertyError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// AddRoom creates a room under a property.
func (h *PropertiesHandler) AddRoom(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	var params properties.RoomParams
	if err := c.Bind(&params); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	room, err := h.service.AddRoom(c.Request().Context(), userID, c.Param("id"), params)
	if err != nil {
		if errors.Is(err, properties.ErrPropertyNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "property not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, room)
}

// UpdateRoom edits a room's descriptive fields.
func (h *PropertiesHandler) UpdateRoom(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	var params properties.RoomParams
	if err := c.Bind(&params); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	room, err := h.service.UpdateRoom(c.Request().Context(), userID, c.Param("id"), c.Param("room_id"), params)
	if err != nil {
		return propertyError(err)
	}
	return c.JSON(http.StatusOK, room)
}

// SetRoomStatus flips a room between vacant and occupied.
func (h *PropertiesHandler) SetRoomStatus(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	var params properties.StatusParams
	if err := c.Bind(&params); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	room, err := h.service.SetRoomStatus(c.Request().Context(), userID, c.Param("id"), c.Param("room_id"), params)
	if err != nil {
		if errors.Is(err, properties.ErrInvalidStatus) {
			return echo.NewHTTPError(http.StatusBadRequest, "status must be vacant or occupied")
		}
		return propertyError(err)
	}
	return c.JSON(http.StatusOK, room)
}

// DeleteRoom removes one room.
func (h *PropertiesHandler) DeleteRoom(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteRoom(c.Request().Context(), userID, c.Param("id"), c.Param("room_id")); err != nil {
		return propertyError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// propertyError maps service errors to HTTP errors.
func propertyError(err error) error {
	switch {
	case errors.Is(err, properties.ErrPropertyNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "property not found")
	case errors.Is(err, properties.ErrRoomNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "room not found")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
