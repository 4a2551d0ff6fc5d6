package api

import (
	"net/http"
	"time"

	"github.com/Freeeeeet/slot_swap/internal/calendar"
	"github.com/Freeeeeet/slot_swap/internal/model"
	"github.com/Freeeeeet/slot_swap/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type EventHandler struct {
	events *service.EventService
	users  *service.UserService
	logger *zap.Logger
}

func NewEventHandler(events *service.EventService, users *service.UserService, logger *zap.Logger) *EventHandler {
	return &EventHandler{events: events, users: users, logger: logger}
}

type createEventRequest struct {
	Title     string           `json:"title" binding:"required"`
	StartTime time.Time        `json:"startTime"`
	EndTime   time.Time        `json:"endTime"`
	Status    model.SlotStatus `json:"status"`
}

type updateEventRequest struct {
	Title     *string           `json:"title"`
	StartTime *time.Time        `json:"startTime"`
	EndTime   *time.Time        `json:"endTime"`
	Status    *model.SlotStatus `json:"status"`
}

// POST /api/event/events
func (h *EventHandler) Create(c *gin.Context) {
	var in createEventRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "title, startTime and endTime are required")
		return
	}

	userID, _ := currentUser(c)
	slot, err := h.events.Create(c.Request.Context(), userID, service.EventInput{
		Title:     in.Title,
		StartTime: in.StartTime,
		EndTime:   in.EndTime,
		Status:    in.Status,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, toSlotView(slot))
}

// GET /api/event/events
func (h *EventHandler) List(c *gin.Context) {
	userID, _ := currentUser(c)

	slots, err := h.events.ListMine(c.Request.Context(), userID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, toSlotViews(slots))
}

// PUT /api/event/events/:id
func (h *EventHandler) Update(c *gin.Context) {
	slotID, ok := pathID(c)
	if !ok {
		return
	}

	var in updateEventRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid body")
		return
	}

	userID, _ := currentUser(c)
	slot, err := h.events.Update(c.Request.Context(), userID, slotID, service.EventPatch{
		Title:     in.Title,
		StartTime: in.StartTime,
		EndTime:   in.EndTime,
		Status:    in.Status,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, toSlotView(slot))
}

// DELETE /api/event/events/:id
func (h *EventHandler) Delete(c *gin.Context) {
	slotID, ok := pathID(c)
	if !ok {
		return
	}

	userID, _ := currentUser(c)
	if err := h.events.Delete(c.Request.Context(), userID, slotID); err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GET /api/event/events.ics
func (h *EventHandler) ExportICS(c *gin.Context) {
	userID, _ := currentUser(c)

	user, err := h.users.Me(c.Request.Context(), userID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	slots, err := h.events.ListMine(c.Request.Context(), userID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	body := calendar.Export(user.Name, slots, time.Now())
	c.Header("Content-Disposition", `attachment; filename="`+calendar.Filename(user.Name)+`"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(body))
}

// pathID разбирает :id; при ошибке уже ответил 400
func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}
