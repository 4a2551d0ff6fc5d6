package api

import (
	"net/http"

	"github.com/Freeeeeet/slot_swap/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Deps зависимости HTTP слоя
type Deps struct {
	Users         *service.UserService
	Events        *service.EventService
	Swaps         *service.SwapService
	Tokens        TokenParser
	AllowedOrigin string
	Logger        *zap.Logger
}

// NewRouter собирает все маршруты сервиса
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(Recovery(d.Logger), RequestLogger(d.Logger), CORS(d.AllowedOrigin))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authMW := JWTAuth(d.Tokens)
	api := r.Group("/api")

	ah := NewAuthHandler(d.Users, d.Logger)
	{
		a := api.Group("/auth")
		a.POST("/signup", ah.Signup)
		a.POST("/login", ah.Login)
		a.GET("/me", authMW, ah.Me)
		a.PUT("/me/telegram", authMW, ah.LinkTelegram)
	}

	eh := NewEventHandler(d.Events, d.Users, d.Logger)
	{
		ev := api.Group("/event")
		ev.Use(authMW)
		ev.POST("/events", eh.Create)
		ev.GET("/events", eh.List)
		ev.GET("/events.ics", eh.ExportICS)
		ev.PUT("/events/:id", eh.Update)
		ev.DELETE("/events/:id", eh.Delete)
	}

	sh := NewSwapHandler(d.Swaps, d.Logger)
	{
		sw := api.Group("/swap")
		sw.Use(authMW)
		sw.GET("/swappable-slots", sh.Swappable)
		sw.POST("/swap-request", sh.Propose)
		sw.POST("/swap-response/:id", sh.Respond)
		sw.GET("/incoming", sh.Incoming)
		sw.GET("/outgoing", sh.Outgoing)
	}

	return r
}
