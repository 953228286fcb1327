package broadcast

import (
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfunc/wordchain/network"
	"github.com/wfunc/wordchain/room"
	"github.com/wfunc/wordchain/session"
)

type recordingConn struct {
	mu   sync.Mutex
	msgs []uint16
	fail bool
}

func (c *recordingConn) Send(msgID uint16, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("closed")
	}
	c.msgs = append(c.msgs, msgID)
	return nil
}
func (c *recordingConn) Close() error                         { return nil }
func (c *recordingConn) RemoteAddr() net.Addr                 { return &net.TCPAddr{} }
func (c *recordingConn) SetHeartbeat(time.Duration)           {}
func (c *recordingConn) ReadPacket() (*network.Packet, error) { return nil, nil }

func (c *recordingConn) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.msgs)
}

func setup(t *testing.T) (*RoomBroadcaster, map[string]*recordingConn) {
	t.Helper()
	rooms := room.NewRoomManager(room.DefaultSettings)
	rooms.GetOrCreate("g1")
	rooms.GetOrCreate("g2")
	sessions := session.NewManager()

	conns := map[string]*recordingConn{}
	for id, roomID := range map[string]string{"s1": "g1", "s2": "g1", "s3": "g2", "s4": ""} {
		c := &recordingConn{}
		s := session.NewSession(id, c)
		s.SetRoom(roomID)
		sessions.Add(s)
		conns[id] = c
	}
	return NewRoomBroadcaster(rooms, sessions), conns
}

func TestBroadcastToRoom(t *testing.T) {
	b, conns := setup(t)

	require.NoError(t, b.BroadcastToRoom("g1", network.MsgTypeNotice, []byte(`{}`)))
	assert.Equal(t, 1, conns["s1"].count())
	assert.Equal(t, 1, conns["s2"].count())
	assert.Equal(t, 0, conns["s3"].count())
	assert.Equal(t, 0, conns["s4"].count())

	assert.ErrorIs(t, b.BroadcastToRoom("missing", network.MsgTypeNotice, nil), ErrRoomNotFound)
}

func TestBroadcastToRoom_SkipsFailedSession(t *testing.T) {
	b, conns := setup(t)
	conns["s1"].fail = true

	require.NoError(t, b.BroadcastJSON("g1", network.MsgTypeGameStart, network.GameStart{RoomID: "g1", Word: "lá cây"}))
	assert.Equal(t, 0, conns["s1"].count())
	assert.Equal(t, 1, conns["s2"].count())
}

func TestBroadcastToAll(t *testing.T) {
	b, conns := setup(t)

	require.NoError(t, b.BroadcastToAll(network.MsgTypeNotice, nil))
	assert.Equal(t, 1, conns["s1"].count())
	assert.Equal(t, 1, conns["s3"].count())
	assert.Equal(t, 0, conns["s4"].count(), "sessions outside rooms are skipped")
}

func TestBroadcastToPlayers(t *testing.T) {
	b, conns := setup(t)

	require.NoError(t, b.BroadcastToPlayers([]string{"ws:s2", "ws:s4"}, network.MsgTypeNotice, nil))
	assert.Equal(t, 0, conns["s1"].count())
	assert.Equal(t, 1, conns["s2"].count())
	assert.Equal(t, 1, conns["s4"].count())
}
