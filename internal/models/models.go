package models

import "time"

type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"uniqueIndex;size:64;not null" json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

type Room struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"uniqueIndex;size:128;not null" json:"name"`
	Members   []RoomMember `gorm:"foreignKey:RoomID" json:"-"`
	CreatedAt time.Time    `json:"created_at"`
}

// RoomMember 是房间的持久成员记录：只增不删，离开房间不会移除历史成员。
type RoomMember struct {
	ID       uint   `gorm:"primaryKey"`
	RoomID   uint   `gorm:"uniqueIndex:idx_room_member;not null"`
	Username string `gorm:"uniqueIndex:idx_room_member;size:64;not null"`
}

// Message 既承载房间消息（RoomID 非空）也承载私聊消息（PeerLo/PeerHi 非空）。
// 私聊参与者按字典序存为 (PeerLo, PeerHi)，使“恰好这两人”的历史查询是一次等值匹配。
type Message struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	RoomID    *uint     `gorm:"index:idx_msg_room" json:"room_id,omitempty"`
	Sender    string    `gorm:"size:64;not null" json:"sender"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	PeerLo    string    `gorm:"size:64;index:idx_msg_peers" json:"-"`
	PeerHi    string    `gorm:"size:64;index:idx_msg_peers" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// Participants 还原私聊消息的参与者集合；房间消息返回 nil。
func (m *Message) Participants() []string {
	if m.PeerLo == "" && m.PeerHi == "" {
		return nil
	}
	return []string{m.PeerLo, m.PeerHi}
}
