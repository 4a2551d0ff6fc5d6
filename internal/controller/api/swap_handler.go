package api

import (
	"net/http"

	"github.com/Freeeeeet/slot_swap/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type SwapHandler struct {
	swaps  *service.SwapService
	logger *zap.Logger
}

func NewSwapHandler(swaps *service.SwapService, logger *zap.Logger) *SwapHandler {
	return &SwapHandler{swaps: swaps, logger: logger}
}

type swapProposalRequest struct {
	MySlotID    string `json:"mySlotId"`
	TheirSlotID string `json:"theirSlotId"`
}

type swapResponseRequest struct {
	Accept *bool `json:"accept" binding:"required"`
}

type swapResolutionResponse struct {
	Msg     service.Outcome `json:"msg"`
	Request swapRequestView `json:"request"`
}

// GET /api/swap/swappable-slots
func (h *SwapHandler) Swappable(c *gin.Context) {
	userID, _ := currentUser(c)

	slots, err := h.swaps.ListSwappable(c.Request.Context(), userID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, toSlotViews(slots))
}

// POST /api/swap/swap-request
func (h *SwapHandler) Propose(c *gin.Context) {
	var in swapProposalRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid body")
		return
	}

	if in.MySlotID == "" || in.TheirSlotID == "" {
		badRequest(c, "Missing slot IDs")
		return
	}

	mySlotID, err1 := uuid.Parse(in.MySlotID)
	theirSlotID, err2 := uuid.Parse(in.TheirSlotID)
	if err1 != nil || err2 != nil {
		badRequest(c, "invalid slot ID")
		return
	}

	userID, _ := currentUser(c)
	req, err := h.swaps.ProposeSwap(c.Request.Context(), userID, mySlotID, theirSlotID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, toSwapView(req))
}

// POST /api/swap/swap-response/:id
func (h *SwapHandler) Respond(c *gin.Context) {
	requestID, ok := pathID(c)
	if !ok {
		return
	}

	var in swapResponseRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "accept is required")
		return
	}

	userID, _ := currentUser(c)
	res, err := h.swaps.ResolveSwap(c.Request.Context(), requestID, userID, *in.Accept)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, swapResolutionResponse{Msg: res.Outcome, Request: toSwapView(res.Request)})
}

// GET /api/swap/incoming
func (h *SwapHandler) Incoming(c *gin.Context) {
	userID, _ := currentUser(c)

	reqs, err := h.swaps.Incoming(c.Request.Context(), userID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, toSwapViews(reqs))
}

// GET /api/swap/outgoing
func (h *SwapHandler) Outgoing(c *gin.Context) {
	userID, _ := currentUser(c)

	reqs, err := h.swaps.Outgoing(c.Request.Context(), userID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, toSwapViews(reqs))
}
