package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mhmdnab/chat-app-backend/internal/service"
)

// Handler 聚合所有 HTTP handler，依赖注入 service 层。这些端点都是
// 纯透传 CRUD，没有协同逻辑；实时协同全部走 WebSocket。
type Handler struct {
	userSvc *service.UserService
	roomSvc *service.RoomService
	msgSvc  *service.MessageService
}

func NewHandler(userSvc *service.UserService, roomSvc *service.RoomService, msgSvc *service.MessageService) *Handler {
	return &Handler{userSvc: userSvc, roomSvc: roomSvc, msgSvc: msgSvc}
}

// Login 按用户名登录，用户不存在则创建。session_id 只是一次性的身份提示，
// 不落库也不会在后续请求里校验。
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username is required"})
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username is required"})
		return
	}
	user, err := h.userSvc.Login(req.Username)
	if err != nil {
		log.Error().Err(err).Str("username", req.Username).Msg("login")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "session_id": uuid.NewString()})
}

// ListRooms 返回全部房间，按创建时间升序。
func (h *Handler) ListRooms(c *gin.Context) {
	rooms, err := h.roomSvc.List()
	if err != nil {
		log.Error().Err(err).Msg("list rooms")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch rooms"})
		return
	}
	c.JSON(http.StatusOK, rooms)
}

// CreateRoom 创建房间，名字缺失或重复都返回 400。
func (h *Handler) CreateRoom(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	if len(req.Name) > 128 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room name"})
		return
	}
	room, err := h.roomSvc.Create(req.Name)
	if err != nil {
		if errors.Is(err, service.ErrRoomNameTaken) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "room already exists"})
			return
		}
		log.Error().Err(err).Str("name", req.Name).Msg("create room")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create room"})
		return
	}
	c.JSON(http.StatusCreated, room)
}

// ListRoomMessages 返回房间消息历史，按时间升序。
func (h *Handler) ListRoomMessages(c *gin.Context) {
	roomID, err := strconv.Atoi(c.Param("id"))
	if err != nil || roomID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	msgs, err := h.msgSvc.ListByRoom(uint(roomID), limit)
	if err != nil {
		log.Error().Err(err).Int("room_id", roomID).Msg("list room messages")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch messages"})
		return
	}
	c.JSON(http.StatusOK, msgs)
}

// ListPrivateMessages 返回两名用户之间的私聊历史，按时间升序。
func (h *Handler) ListPrivateMessages(c *gin.Context) {
	u1 := c.Param("user1")
	u2 := c.Param("user2")
	if u1 == "" || u2 == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "both usernames are required"})
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	msgs, err := h.msgSvc.ListBetween(u1, u2, limit)
	if err != nil {
		log.Error().Err(err).Str("user1", u1).Str("user2", u2).Msg("list private messages")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch direct messages"})
		return
	}
	c.JSON(http.StatusOK, msgs)
}
