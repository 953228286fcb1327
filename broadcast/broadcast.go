// broadcast/broadcast.go
package broadcast

import (
	"errors"

	"github.com/wfunc/wordchain/logger"
	"github.com/wfunc/wordchain/network"
	"github.com/wfunc/wordchain/room"
	"github.com/wfunc/wordchain/session"
)

var (
	ErrRoomNotFound = errors.New("room not found")
)

// 广播接口
type Broadcaster interface {
	BroadcastToRoom(roomID string, msgID uint16, data []byte) error
	BroadcastJSON(roomID string, msgID uint16, v any) error
	BroadcastToAll(msgID uint16, data []byte) error
	BroadcastToPlayers(playerIDs []string, msgID uint16, data []byte) error
}

var _ Broadcaster = (*RoomBroadcaster)(nil)

// 基于房间的广播器
type RoomBroadcaster struct {
	roomManager    *room.Manager
	sessionManager *session.Manager
}

func NewRoomBroadcaster(roomManager *room.Manager, sessionManager *session.Manager) *RoomBroadcaster {
	return &RoomBroadcaster{
		roomManager:    roomManager,
		sessionManager: sessionManager,
	}
}

func (b *RoomBroadcaster) BroadcastToRoom(roomID string, msgID uint16, data []byte) error {
	if _, exists := b.roomManager.GetRoom(roomID); !exists {
		return ErrRoomNotFound
	}
	b.send(b.sessionManager.ByRoom(roomID), msgID, data)
	return nil
}

// BroadcastJSON encodes v and sends it to every session in roomID.
func (b *RoomBroadcaster) BroadcastJSON(roomID string, msgID uint16, v any) error {
	data, err := network.Encode(v)
	if err != nil {
		return err
	}
	return b.BroadcastToRoom(roomID, msgID, data)
}

func (b *RoomBroadcaster) BroadcastToAll(msgID uint16, data []byte) error {
	for _, roomID := range b.roomManager.IDs() {
		b.send(b.sessionManager.ByRoom(roomID), msgID, data)
	}
	return nil
}

func (b *RoomBroadcaster) BroadcastToPlayers(playerIDs []string, msgID uint16, data []byte) error {
	for _, playerID := range playerIDs {
		b.send(b.sessionManager.GetByPlayerID(playerID), msgID, data)
	}
	return nil
}

func (b *RoomBroadcaster) send(sessions []*session.Session, msgID uint16, data []byte) {
	for _, s := range sessions {
		if err := s.Send(msgID, data); err != nil {
			// 发送失败由读循环负责清理连接
			logger.Log.Warnf("broadcast to session %s failed: %v", s.GetID(), err)
		}
	}
}
