package api

import (
	"net/http"

	"github.com/Freeeeeet/slot_swap/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// errorResponse тело ответа с ошибкой
type errorResponse struct {
	Error string       `json:"error"`
	Kind  service.Kind `json:"kind"`
}

func statusFor(kind service.Kind) int {
	switch kind {
	case service.KindInvalidArgument:
		return http.StatusBadRequest
	case service.KindUnauthenticated:
		return http.StatusUnauthorized
	case service.KindForbidden:
		return http.StatusForbidden
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError отвечает ошибкой; внутренние ошибки логируются с причиной
func writeError(c *gin.Context, logger *zap.Logger, err error) {
	kind := service.KindOf(err)
	if kind == service.KindInternal {
		logger.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	c.AbortWithStatusJSON(statusFor(kind), errorResponse{Error: service.MessageOf(err), Kind: kind})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: msg, Kind: service.KindInvalidArgument})
}
