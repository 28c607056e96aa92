package ws

import (
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/mhmdnab/chat-app-backend/internal/config"
	"github.com/mhmdnab/chat-app-backend/internal/metrics"
	"github.com/mhmdnab/chat-app-backend/internal/models"
	"github.com/mhmdnab/chat-app-backend/internal/mw"
	"github.com/mhmdnab/chat-app-backend/internal/presence"
)

const (
	readLimit  = 1 << 20 // 1MB
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	writeWait  = 10 * time.Second
)

// RoomStore 是会话处理所需的房间持久化操作。
type RoomStore interface {
	AddMember(roomID uint, username string) error
}

// MessageStore 是会话处理所需的消息持久化操作。
type MessageStore interface {
	CreateRoomMessage(roomID uint, sender, content string) (*models.Message, error)
	CreateDirectMessage(sender, to, content string) (*models.Message, error)
}

// Client 对应一条活跃的 WebSocket 连接。连接打开时携带的 username 声明
// 绑定后不再变化；未携带声明的连接保持匿名，仍可收发房间事件。
type Client struct {
	hub      *Hub
	reg      *presence.Registry
	rooms    RoomStore
	messages MessageStore
	conn     *websocket.Conn
	send     chan []byte
	id       string
	username string
}

// push 把一帧写进发送缓冲，缓冲满则丢帧（慢客户端不阻塞扇出）。
// 只能在持有 hub 锁的投递路径里调用，保证不会写已关闭的通道。
func (c *Client) push(b []byte) {
	select {
	case c.send <- b:
	default:
		log.Warn().Str("conn_id", c.id).Msg("send buffer full, frame dropped")
	}
}

// Serve 返回 WebSocket 升级端点。username 声明通过查询参数随握手带入。
func Serve(hub *Hub, reg *presence.Registry, rooms RoomStore, messages MessageStore, cfg config.Config) gin.HandlerFunc {
	upgrader := websocket.Upgrader{
		CheckOrigin: mw.OriginAllowed(cfg.ClientOrigins, cfg.Env),
	}
	return func(c *gin.Context) {
		username := c.Query("username")
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		client := &Client{
			hub:      hub,
			reg:      reg,
			rooms:    rooms,
			messages: messages,
			conn:     conn,
			send:     make(chan []byte, 256),
			id:       uuid.NewString(),
			username: username,
		}
		client.open()
		go client.writePump()
		client.readPump()
	}
}

// open 注册连接；携带 username 声明时绑定并广播在线列表。
func (c *Client) open() {
	c.hub.Register(c)
	metrics.WsConnections.Inc()
	if c.username != "" {
		c.reg.Bind(c.id, c.username)
		metrics.OnlineUsers.Set(float64(c.reg.OnlineCount()))
		c.hub.BroadcastOnlineUsers()
	}
}

// close 注销连接并解绑；最后一条连接断开的用户被视为离线，
// 需要广播在线列表并把它清出所有房间的在线集合。
func (c *Client) close() {
	c.hub.Unregister(c)
	metrics.WsConnections.Dec()
	username, offline := c.reg.Unbind(c.id)
	if username == "" || !offline {
		return
	}
	metrics.OnlineUsers.Set(float64(c.reg.OnlineCount()))
	c.hub.BroadcastOnlineUsers()
	for _, roomID := range c.reg.RemoveFromAllRooms(username) {
		c.hub.BroadcastRoomUsers(roomID)
	}
}

func (c *Client) readPump() {
	defer func() {
		c.close()
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(readLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		var ev inboundEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			continue
		}
		c.handleEvent(ev)
	}
}

// handleEvent 按事件类型分发。每个事件的错误就地吞掉，单个事件失败
// 不影响会话本身，也没有回传给发送方的错误通道。
func (c *Client) handleEvent(ev inboundEvent) {
	if c.username != "" && ev.Sender != "" && ev.Sender != c.username {
		// 连接声明与事件 sender 不一致时按事件值放行，但要留痕。
		log.Warn().Str("bound", c.username).Str("sender", ev.Sender).Str("type", ev.Type).Msg("sender differs from bound username")
	}
	switch ev.Type {
	case "join_room":
		c.joinRoom(ev)
	case "leave_room":
		c.leaveRoom(ev)
	case "message":
		c.roomMessage(ev)
	case "private_message":
		c.privateMessage(ev)
	case "typing", "stop_typing":
		c.typing(ev)
	}
}

func (c *Client) joinRoom(ev inboundEvent) {
	if ev.RoomID == 0 || ev.Username == "" {
		return
	}
	c.hub.Subscribe(c, ev.RoomID)
	c.reg.JoinRoom(ev.RoomID, ev.Username)
	// 持久成员同步只追加、尽力而为：失败不回滚内存状态也不阻止广播。
	if err := c.rooms.AddMember(ev.RoomID, ev.Username); err != nil {
		log.Warn().Err(err).Uint("room_id", ev.RoomID).Str("username", ev.Username).Msg("persist room member")
	}
	c.hub.BroadcastRoomUsers(ev.RoomID)
}

func (c *Client) leaveRoom(ev inboundEvent) {
	if ev.RoomID == 0 {
		return
	}
	c.hub.Unsubscribe(c, ev.RoomID)
	if c.reg.LeaveRoom(ev.RoomID, ev.Username) {
		c.hub.BroadcastRoomUsers(ev.RoomID)
	}
}

func (c *Client) roomMessage(ev inboundEvent) {
	if ev.RoomID == 0 || ev.Content == "" || ev.Sender == "" {
		return
	}
	msg, err := c.messages.CreateRoomMessage(ev.RoomID, ev.Sender, ev.Content)
	if err != nil {
		// 持久化失败对消息创建是致命的：不广播未落库的消息。
		log.Error().Err(err).Uint("room_id", ev.RoomID).Msg("persist room message")
		return
	}
	metrics.WsMessagesTotal.WithLabelValues("room").Inc()
	c.hub.DeliverToRoom(ev.RoomID, newMessageEvent(msg))
}

func (c *Client) privateMessage(ev inboundEvent) {
	if ev.To == "" || ev.Sender == "" || ev.Content == "" {
		return
	}
	msg, err := c.messages.CreateDirectMessage(ev.Sender, ev.To, ev.Content)
	if err != nil {
		log.Error().Err(err).Str("to", ev.To).Msg("persist private message")
		return
	}
	metrics.WsMessagesTotal.WithLabelValues("private").Inc()
	out := newPrivateMessageEvent(msg)
	c.hub.DeliverToUser(ev.To, out)
	c.hub.DeliverToConn(c.id, out)
}

func (c *Client) typing(ev inboundEvent) {
	if ev.Sender == "" {
		return
	}
	if ev.IsPrivate && ev.To != "" {
		c.hub.DeliverToUser(ev.To, typingEvent{Type: ev.Type, Sender: ev.Sender, To: ev.To, IsPrivate: true})
		return
	}
	if ev.RoomID != 0 {
		c.hub.DeliverToRoomExcept(ev.RoomID, c.id, typingEvent{Type: ev.Type, RoomID: ev.RoomID, Sender: ev.Sender})
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
