package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/mhmdnab/chat-app-backend/internal/config"
	"github.com/mhmdnab/chat-app-backend/internal/metrics"
	"github.com/mhmdnab/chat-app-backend/internal/mw"
	"github.com/mhmdnab/chat-app-backend/internal/presence"
	"github.com/mhmdnab/chat-app-backend/internal/service"
	"github.com/mhmdnab/chat-app-backend/internal/ws"
)

// SetupRouter 统一初始化 Gin 中间件、REST API 以及 WebSocket 端点。
func SetupRouter(cfg config.Config, db *gorm.DB, reg *presence.Registry, hub *ws.Hub) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(metrics.GinMiddleware())
	r.Use(mw.CORS(cfg.ClientOrigins, cfg.Env))
	r.Use(mw.RateLimit(rate.Every(time.Second/20), 40))

	userSvc := service.NewUserService(db)
	roomSvc := service.NewRoomService(db)
	msgSvc := service.NewMessageService(db)
	h := NewHandler(userSvc, roomSvc, msgSvc)

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/login", h.Login)
	r.GET("/rooms", h.ListRooms)
	r.POST("/rooms", h.CreateRoom)
	r.GET("/rooms/:id/messages", h.ListRoomMessages)
	r.GET("/private/:user1/:user2", h.ListPrivateMessages)

	r.GET("/ws", ws.Serve(hub, reg, roomSvc, msgSvc, cfg))

	return r
}
