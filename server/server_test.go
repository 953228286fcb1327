package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfunc/wordchain/bot"
	"github.com/wfunc/wordchain/cooldown"
	"github.com/wfunc/wordchain/dictionary"
	"github.com/wfunc/wordchain/game"
	"github.com/wfunc/wordchain/monitor"
	"github.com/wfunc/wordchain/network"
	"github.com/wfunc/wordchain/persistence"
	"github.com/wfunc/wordchain/room"
	"github.com/wfunc/wordchain/services"
	"github.com/wfunc/wordchain/timer"
)

// ownerID is a Discord owner, gateway players must never act as it.
const ownerID = "owner-1"

func newTestServer(t *testing.T) (*GameServer, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	d := dictionary.New()
	require.NoError(t, d.Load(strings.NewReader("lá cây\ncây cao\ncao ráo")))
	d.SetPicker(func(int) int { return 0 })

	engine := game.NewEngine(d, room.NewRoomManager(room.DefaultSettings), cooldown.NewTracker())
	mon := monitor.NewMonitor("wordchain_test")
	engine.SetObserver(mon)

	db := persistence.NewMemory()
	dispatcher := bot.NewDispatcher(engine,
		services.NewHelpService(db, 5, time.UTC),
		services.NewStatsService(db, time.UTC),
		func(id string) bool { return id == ownerID })

	gs := NewGameServer(":0", dispatcher, mon)
	ts := httptest.NewServer(gs.Handler())
	t.Cleanup(ts.Close)
	return gs, ts
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msgID uint16, v any) {
	t.Helper()
	data, err := network.Encode(v)
	require.NoError(t, err)
	raw, err := network.EncodePacket(msgID, data)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, raw))
}

// expect reads packets until one with msgID arrives and decodes it into v.
func expect(t *testing.T, conn *websocket.Conn, msgID uint16, v any) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err)
		p, err := network.DecodePacket(raw)
		require.NoError(t, err)
		if p.MsgID == msgID {
			require.NoError(t, json.Unmarshal(p.Data, v))
			return
		}
	}
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRoomStats_NotFound(t *testing.T) {
	gs, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	gs.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/rooms/nope/stats", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWebSocket_JoinAndPlay(t *testing.T) {
	gs, ts := newTestServer(t)
	alice := dial(t, ts)

	send(t, alice, network.MsgTypeJoinRoom, network.JoinRoomRequest{RoomID: "g1", PlayerID: "alice"})

	var start network.GameStart
	expect(t, alice, network.MsgTypeGameStart, &start)
	assert.Equal(t, "lá cây", start.Word)

	var state network.RoomState
	expect(t, alice, network.MsgTypeRoomState, &state)
	assert.Equal(t, "g1", state.RoomID)
	assert.Equal(t, "cây", state.CurrentWord)
	assert.Equal(t, "in_progress", state.Phase)

	send(t, alice, network.MsgTypeSubmitPhrase, network.SubmitPhraseRequest{Phrase: "cây cao"})

	var result network.MoveResult
	expect(t, alice, network.MsgTypeMoveResult, &result)
	assert.True(t, result.Accepted)
	assert.Equal(t, "ws:alice", result.PlayerID)
	assert.Equal(t, bot.ReactAccepted, result.Reaction)

	expect(t, alice, network.MsgTypeRoomState, &state)
	assert.Equal(t, "cao", state.CurrentWord)
	assert.Equal(t, 2, state.UsedCount)

	// an immediate second move hits the cooldown and only the sender hears about it
	send(t, alice, network.MsgTypeSubmitPhrase, network.SubmitPhraseRequest{Phrase: "cao ráo"})
	expect(t, alice, network.MsgTypeMoveResult, &result)
	assert.False(t, result.Accepted)
	assert.Equal(t, bot.ReactCooldown, result.Reaction)

	rec := httptest.NewRecorder()
	gs.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/rooms/ws:g1/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var report bot.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "cao", report.Game.CurrentWord)
	assert.Equal(t, 1, report.Stats.Today.WordsToday)
}

func TestWebSocket_RequiresRoom(t *testing.T) {
	_, ts := newTestServer(t)
	conn := dial(t, ts)

	send(t, conn, network.MsgTypeSubmitPhrase, network.SubmitPhraseRequest{Phrase: "cây cao"})

	var msg network.ErrorMessage
	expect(t, conn, network.MsgTypeError, &msg)
	assert.Equal(t, "join a room first", msg.Message)
}

func TestWebSocket_Hint(t *testing.T) {
	_, ts := newTestServer(t)
	conn := dial(t, ts)

	send(t, conn, network.MsgTypeJoinRoom, network.JoinRoomRequest{RoomID: "g1", PlayerID: "bob"})
	var state network.RoomState
	expect(t, conn, network.MsgTypeRoomState, &state)

	send(t, conn, network.MsgTypeRequestHint, struct{}{})
	var notice network.Notice
	expect(t, conn, network.MsgTypeNotice, &notice)
	assert.Contains(t, notice.Text, "cây cao")
}

func TestWebSocket_OwnerIDIsNotTrusted(t *testing.T) {
	gs, ts := newTestServer(t)
	gs.dispatcher.Engine().Rooms().GetOrCreate("g1")
	conn := dial(t, ts)

	send(t, conn, network.MsgTypeJoinRoom, network.JoinRoomRequest{RoomID: "g1", PlayerID: ownerID})
	var state network.RoomState
	expect(t, conn, network.MsgTypeRoomState, &state)

	send(t, conn, network.MsgTypeSubmitPhrase, network.SubmitPhraseRequest{Phrase: "/forcenew"})
	var notice network.Notice
	expect(t, conn, network.MsgTypeNotice, &notice)
	assert.Equal(t, "❌ Chỉ owner bot mới có thể sử dụng lệnh này!", notice.Text)

	// gateway rooms never share state with a Discord guild of the same id
	assert.Empty(t, gs.dispatcher.Engine().Stats("g1").CurrentWord)
	assert.Equal(t, "cây", gs.dispatcher.Engine().Stats("ws:g1").CurrentWord)
}

func TestWebSocket_PlayerCannotChangeOnRejoin(t *testing.T) {
	_, ts := newTestServer(t)
	conn := dial(t, ts)

	send(t, conn, network.MsgTypeJoinRoom, network.JoinRoomRequest{RoomID: "g1", PlayerID: "alice"})
	var state network.RoomState
	expect(t, conn, network.MsgTypeRoomState, &state)

	send(t, conn, network.MsgTypeSubmitPhrase, network.SubmitPhraseRequest{Phrase: "cây cao"})
	var result network.MoveResult
	expect(t, conn, network.MsgTypeMoveResult, &result)
	require.True(t, result.Accepted)

	send(t, conn, network.MsgTypeJoinRoom, network.JoinRoomRequest{RoomID: "g1", PlayerID: "mallory"})
	var msg network.ErrorMessage
	expect(t, conn, network.MsgTypeError, &msg)
	assert.Equal(t, "player_id cannot change on this connection", msg.Message)

	// rejoining under the same name is still fine
	send(t, conn, network.MsgTypeJoinRoom, network.JoinRoomRequest{RoomID: "g1", PlayerID: "alice"})
	expect(t, conn, network.MsgTypeRoomState, &state)
	assert.Equal(t, "cao", state.CurrentWord)
}

func TestSweepIdleRooms(t *testing.T) {
	gs, ts := newTestServer(t)
	rooms := gs.dispatcher.Engine().Rooms()
	rooms.GetOrCreate("guild-1")
	conn := dial(t, ts)

	send(t, conn, network.MsgTypeJoinRoom, network.JoinRoomRequest{RoomID: "g1", PlayerID: "alice"})
	var state network.RoomState
	expect(t, conn, network.MsgTypeRoomState, &state)
	assert.Zero(t, gs.SweepIdleRooms())

	send(t, conn, network.MsgTypeLeaveRoom, struct{}{})
	require.Eventually(t, func() bool { return gs.SweepIdleRooms() == 1 }, 2*time.Second, 10*time.Millisecond)

	_, exists := rooms.GetRoom("ws:g1")
	assert.False(t, exists)
	_, exists = rooms.GetRoom("guild-1")
	assert.True(t, exists, "Discord rooms are kept")
}

func TestStartRoomSweeper(t *testing.T) {
	gs, _ := newTestServer(t)
	rooms := gs.dispatcher.Engine().Rooms()
	rooms.GetOrCreate("ws:stale")

	timers := timer.NewTimerManagerWithTick(5 * time.Millisecond)
	t.Cleanup(timers.Stop)
	gs.StartRoomSweeper(timers, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		_, exists := rooms.GetRoom("ws:stale")
		return !exists
	}, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, gs.Shutdown(context.Background()))
}

func TestShutdown_NotifiesPlayers(t *testing.T) {
	gs, ts := newTestServer(t)
	conn := dial(t, ts)

	send(t, conn, network.MsgTypeJoinRoom, network.JoinRoomRequest{RoomID: "g1", PlayerID: "alice"})
	var state network.RoomState
	expect(t, conn, network.MsgTypeRoomState, &state)

	require.NoError(t, gs.Shutdown(context.Background()))
	var notice network.Notice
	expect(t, conn, network.MsgTypeNotice, &notice)
	assert.Equal(t, msgShuttingDown, notice.Text)
}
