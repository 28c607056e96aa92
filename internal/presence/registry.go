package presence

import (
	"sort"
	"sync"
)

// Registry 维护三张进程内的在线状态表：用户名→连接集合、房间→用户名集合、
// 连接→用户名。三张表必须作为一个整体更新，因此共用同一把锁；所有快照
// 都在锁内构建，调用方拿到的永远是一致的成员视图。
type Registry struct {
	mu          sync.RWMutex
	connsByUser map[string]map[string]struct{}
	usersByRoom map[uint]map[string]struct{}
	userByConn  map[string]string
}

func NewRegistry() *Registry {
	return &Registry{
		connsByUser: make(map[string]map[string]struct{}),
		usersByRoom: make(map[uint]map[string]struct{}),
		userByConn:  make(map[string]string),
	}
}

// Bind 记录连接与用户名的绑定关系。同一用户名可以绑定多条连接（多端在线）。
func (r *Registry) Bind(connID, username string) {
	if connID == "" || username == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	conns, ok := r.connsByUser[username]
	if !ok {
		conns = make(map[string]struct{})
		r.connsByUser[username] = conns
	}
	conns[connID] = struct{}{}
	r.userByConn[connID] = username
}

// Unbind 解除连接绑定，返回受影响的用户名以及该用户是否因此完全离线。
// 连接从未绑定时返回 ("", false)。
func (r *Registry) Unbind(connID string) (username string, offline bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	username, ok := r.userByConn[connID]
	if !ok {
		return "", false
	}
	delete(r.userByConn, connID)
	conns := r.connsByUser[username]
	delete(conns, connID)
	if len(conns) == 0 {
		delete(r.connsByUser, username)
		return username, true
	}
	return username, false
}

// JoinRoom 把用户名加入房间的在线成员集合，重复加入是幂等的。
func (r *Registry) JoinRoom(roomID uint, username string) {
	if username == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	users, ok := r.usersByRoom[roomID]
	if !ok {
		users = make(map[string]struct{})
		r.usersByRoom[roomID] = users
	}
	users[username] = struct{}{}
}

// LeaveRoom 把用户名移出房间的在线成员集合，返回成员关系是否真的变化，
// 调用方据此决定是否需要广播。
func (r *Registry) LeaveRoom(roomID uint, username string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	users, ok := r.usersByRoom[roomID]
	if !ok {
		return false
	}
	if _, member := users[username]; !member {
		return false
	}
	delete(users, username)
	if len(users) == 0 {
		delete(r.usersByRoom, roomID)
	}
	return true
}

// RemoveFromAllRooms 在用户完全离线时把它从所有房间的在线集合里清除，
// 只返回成员关系真的变化了的房间。
func (r *Registry) RemoveFromAllRooms(username string) []uint {
	r.mu.Lock()
	defer r.mu.Unlock()
	var affected []uint
	for roomID, users := range r.usersByRoom {
		if _, member := users[username]; !member {
			continue
		}
		delete(users, username)
		if len(users) == 0 {
			delete(r.usersByRoom, roomID)
		}
		affected = append(affected, roomID)
	}
	return affected
}

// OnlineUsernames 返回当前至少有一条绑定连接的全部用户名，按字典序排序。
func (r *Registry) OnlineUsernames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.connsByUser))
	for u := range r.connsByUser {
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}

// RoomUsernames 返回房间当前在线成员的快照，按字典序排序。
func (r *Registry) RoomUsernames(roomID uint) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	users := r.usersByRoom[roomID]
	out := make([]string, 0, len(users))
	for u := range users {
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}

// ConnectionsFor 返回用户名当前绑定的全部连接 id，用于定向投递。
func (r *Registry) ConnectionsFor(username string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conns := r.connsByUser[username]
	out := make([]string, 0, len(conns))
	for id := range conns {
		out = append(out, id)
	}
	return out
}

// OnlineCount 返回在线用户数，供指标上报。
func (r *Registry) OnlineCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.connsByUser)
}
