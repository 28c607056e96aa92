package ws

import (
	"encoding/json"
	"sync"

	"github.com/mhmdnab/chat-app-backend/internal/presence"
	"github.com/rs/zerolog/log"
)

// Hub 管理全部活跃连接与各房间的订阅通道，并负责把事件扇出到正确的
// 接收方。它不拥有成员状态，计算接收方时读取 presence.Registry。
// 投递是 at-most-once：发送缓冲已满的慢客户端会丢掉这一帧。
type Hub struct {
	mu    sync.RWMutex
	conns map[string]*Client
	rooms map[uint]map[string]*Client
	reg   *presence.Registry
}

func NewHub(reg *presence.Registry) *Hub {
	return &Hub{
		conns: make(map[string]*Client),
		rooms: make(map[uint]map[string]*Client),
		reg:   reg,
	}
}

// Register 登记一条新连接。
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c.id] = c
}

// Unregister 注销连接并把它从所有房间通道里移除。
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[c.id]; !ok {
		return
	}
	delete(h.conns, c.id)
	for roomID, subs := range h.rooms {
		delete(subs, c.id)
		if len(subs) == 0 {
			delete(h.rooms, roomID)
		}
	}
	close(c.send)
}

// Subscribe 把连接加入房间通道，此后该房间的广播都会投递给它。
func (h *Hub) Subscribe(c *Client, roomID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[c.id]; !ok {
		return
	}
	subs, ok := h.rooms[roomID]
	if !ok {
		subs = make(map[string]*Client)
		h.rooms[roomID] = subs
	}
	subs[c.id] = c
}

// Unsubscribe 把连接移出房间通道。
func (h *Hub) Unsubscribe(c *Client, roomID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.rooms[roomID]
	if !ok {
		return
	}
	delete(subs, c.id)
	if len(subs) == 0 {
		delete(h.rooms, roomID)
	}
}

// BroadcastOnlineUsers 向所有连接推送当前在线用户列表。
func (h *Hub) BroadcastOnlineUsers() {
	users := h.reg.OnlineUsernames()
	b, err := json.Marshal(onlineUsersEvent{Type: "online_users", Users: users})
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.conns {
		c.push(b)
	}
}

// BroadcastRoomUsers 向房间通道的订阅者推送该房间当前的在线成员快照。
func (h *Hub) BroadcastRoomUsers(roomID uint) {
	users := h.reg.RoomUsernames(roomID)
	b, err := json.Marshal(roomUsersEvent{Type: "room_users", RoomID: roomID, Users: users})
	if err != nil {
		return
	}
	h.deliverRoom(roomID, "", b)
}

// DeliverToRoom 把载荷投递给房间通道的全部订阅连接。
func (h *Hub) DeliverToRoom(roomID uint, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Uint("room_id", roomID).Msg("marshal room payload")
		return
	}
	h.deliverRoom(roomID, "", b)
}

// DeliverToRoomExcept 同 DeliverToRoom，但跳过指定连接（typing 不回显给发送方）。
func (h *Hub) DeliverToRoomExcept(roomID uint, exceptConnID string, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Uint("room_id", roomID).Msg("marshal room payload")
		return
	}
	h.deliverRoom(roomID, exceptConnID, b)
}

// DeliverToUser 把载荷投递给用户名当前绑定的每一条连接；用户离线时静默丢弃。
func (h *Hub) DeliverToUser(username string, v interface{}) {
	connIDs := h.reg.ConnectionsFor(username)
	if len(connIDs) == 0 {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("username", username).Msg("marshal user payload")
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, id := range connIDs {
		if c, ok := h.conns[id]; ok {
			c.push(b)
		}
	}
}

// DeliverToConn 把载荷投递给单条连接，用于私聊消息回显给发送方。
func (h *Hub) DeliverToConn(connID string, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if c, ok := h.conns[connID]; ok {
		c.push(b)
	}
}

func (h *Hub) deliverRoom(roomID uint, exceptConnID string, b []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, c := range h.rooms[roomID] {
		if id == exceptConnID {
			continue
		}
		c.push(b)
	}
}

// Online 返回房间通道当前的订阅连接数。
func (h *Hub) Online(roomID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}
