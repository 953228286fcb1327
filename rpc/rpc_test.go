package rpc

import (
	"net/rpc"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfunc/wordchain/cooldown"
	"github.com/wfunc/wordchain/dictionary"
	"github.com/wfunc/wordchain/game"
	"github.com/wfunc/wordchain/persistence"
	"github.com/wfunc/wordchain/room"
	"github.com/wfunc/wordchain/services"
)

func newClient(t *testing.T) (*rpc.Client, *game.Engine, *services.StatsService) {
	t.Helper()
	d := dictionary.New()
	require.NoError(t, d.Load(strings.NewReader("lá cây\ncây cao\ncao ráo")))
	d.SetPicker(func(int) int { return 0 })

	engine := game.NewEngine(d, room.NewRoomManager(room.DefaultSettings), cooldown.NewTracker())
	stats := services.NewStatsService(persistence.NewMemory(), time.UTC)

	srv, err := NewServer("127.0.0.1:0", NewGameService(engine, stats))
	require.NoError(t, err)
	go srv.Start()
	t.Cleanup(srv.Stop)

	client, err := rpc.Dial("tcp", srv.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client, engine, stats
}

func TestGameService_ForceNewAndStats(t *testing.T) {
	client, _, stats := newClient(t)

	var started ForceNewReply
	require.NoError(t, client.Call("GameService.ForceNew", &RoomArgs{RoomID: "g1"}, &started))
	assert.Equal(t, "lá cây", started.Phrase)

	var reply RoomStatsReply
	require.NoError(t, client.Call("GameService.RoomStats", &RoomArgs{RoomID: "g1"}, &reply))
	assert.Equal(t, "cây", reply.Stats.CurrentWord)
	assert.Equal(t, 1, reply.Stats.UsedCount)
	assert.Equal(t, 3, reply.Stats.DictionarySize)

	all, err := stats.All()
	require.NoError(t, err)
	assert.Equal(t, int64(1), all.GamesPlayed)
}

func TestGameService_ResetHistory(t *testing.T) {
	client, engine, _ := newClient(t)
	_, err := engine.StartNewGame("g1")
	require.NoError(t, err)

	var reply ResetHistoryReply
	require.NoError(t, client.Call("GameService.ResetHistory", &RoomArgs{RoomID: "g1"}, &reply))
	assert.Equal(t, "cây", reply.CurrentWord)
	assert.Equal(t, 0, engine.Stats("g1").UsedCount)
}

func TestGameService_MissingRoom(t *testing.T) {
	client, _, _ := newClient(t)

	var reply RoomStatsReply
	err := client.Call("GameService.RoomStats", &RoomArgs{}, &reply)
	require.Error(t, err)
	assert.Equal(t, ErrMissingRoom.Error(), err.Error())
}
