package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/wfunc/wordchain/bot"
	"github.com/wfunc/wordchain/broadcast"
	"github.com/wfunc/wordchain/logger"
	"github.com/wfunc/wordchain/monitor"
	"github.com/wfunc/wordchain/network"
	"github.com/wfunc/wordchain/session"
	"github.com/wfunc/wordchain/timer"
)

const DefaultHeartbeat = 30 * time.Second

// RoomPrefix 网关房间在引擎里的 key 前缀, 和 Discord guild id 分开
const RoomPrefix = "ws:"

const msgShuttingDown = "Server is shutting down."

func roomKey(roomID string) string { return RoomPrefix + roomID }

func publicRoomID(key string) string { return strings.TrimPrefix(key, RoomPrefix) }

type GameServer struct {
	addr           string
	router         *gin.Engine
	httpServer     *http.Server
	upgrader       websocket.Upgrader
	dispatcher     *bot.Dispatcher
	sessionManager *session.Manager
	broadcaster    broadcast.Broadcaster
	monitor        *monitor.Monitor
	heartbeat      time.Duration
	shutdownChan   chan struct{}

	// joinMutex 让加入房间和清理空房间互斥
	joinMutex  sync.Mutex
	timers     *timer.TimerManager
	sweepTimer int64
}

func NewGameServer(addr string, dispatcher *bot.Dispatcher, mon *monitor.Monitor) *GameServer {
	s := &GameServer{
		addr:           addr,
		dispatcher:     dispatcher,
		sessionManager: session.NewManager(),
		monitor:        mon,
		heartbeat:      DefaultHeartbeat,
		shutdownChan:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有跨域请求
			},
		},
	}

	// 初始化广播器
	s.broadcaster = broadcast.NewRoomBroadcaster(dispatcher.Engine().Rooms(), s.sessionManager)
	s.router = s.routes()
	return s
}

func (s *GameServer) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(ctx *gin.Context) { ctx.String(http.StatusOK, "healthy") })
	r.GET("/metrics", gin.WrapH(s.monitor.Handler()))
	r.GET("/ws", s.handleWebSocket)

	api := r.Group("/api")
	api.GET("/rooms", s.handleListRooms)
	api.GET("/rooms/:id/stats", s.handleRoomStats)
	return r
}

// Handler exposes the router, mainly for tests.
func (s *GameServer) Handler() http.Handler {
	return s.router
}

func (s *GameServer) Sessions() *session.Manager {
	return s.sessionManager
}

func (s *GameServer) Start() error {
	s.httpServer = &http.Server{Addr: s.addr, Handler: s.router}
	logger.Log.Infof("Game server listening on %s", s.addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// StartRoomSweeper removes idle gateway rooms every interval until Shutdown.
func (s *GameServer) StartRoomSweeper(timers *timer.TimerManager, interval time.Duration) {
	if interval <= 0 {
		return
	}
	s.timers = timers
	s.sweepTimer = timers.AddTimer(interval, interval, func() {
		if removed := s.SweepIdleRooms(); removed > 0 {
			logger.Log.Infof("Removed %d idle rooms", removed)
		}
	})
}

// SweepIdleRooms drops gateway rooms no session is joined to and returns how many went.
// Discord rooms are never touched.
func (s *GameServer) SweepIdleRooms() int {
	s.joinMutex.Lock()
	defer s.joinMutex.Unlock()

	rooms := s.dispatcher.Engine().Rooms()
	removed := 0
	for _, id := range rooms.IDs() {
		if !strings.HasPrefix(id, RoomPrefix) || len(s.sessionManager.ByRoom(id)) > 0 {
			continue
		}
		rooms.RemoveRoom(id)
		removed++
	}
	return removed
}

func (s *GameServer) Shutdown(ctx context.Context) error {
	if s.timers != nil {
		s.timers.RemoveTimer(s.sweepTimer)
	}
	if data, err := network.Encode(network.Notice{Text: msgShuttingDown}); err == nil {
		s.broadcaster.BroadcastToAll(network.MsgTypeNotice, data)
	}
	close(s.shutdownChan)
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *GameServer) handleListRooms(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"rooms": s.dispatcher.Engine().Rooms().IDs()})
}

func (s *GameServer) handleRoomStats(ctx *gin.Context) {
	roomID := ctx.Param("id")
	if _, exists := s.dispatcher.Engine().Rooms().GetRoom(roomID); !exists {
		ctx.JSON(http.StatusNotFound, gin.H{"error": broadcast.ErrRoomNotFound.Error()})
		return
	}
	report, err := s.dispatcher.Report(roomID)
	if err != nil {
		logger.Log.Errorf("Failed to build report for room %s: %v", roomID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "stats unavailable"})
		return
	}
	ctx.JSON(http.StatusOK, report)
}

func (s *GameServer) handleWebSocket(ctx *gin.Context) {
	conn, err := s.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(conn)
}

func (s *GameServer) handleConnection(conn *websocket.Conn) {
	wsConn := network.NewWSConnection(conn)
	wsConn.SetHeartbeat(s.heartbeat)
	sess := session.NewSession(uuid.New().String(), wsConn)
	s.sessionManager.Add(sess)
	s.monitor.IncOnlineSessions()

	logger.Log.Infof("New connection from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())

	defer func() {
		logger.Log.Infof("Connection closed from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())
		s.sessionManager.Remove(sess.GetID())
		s.monitor.DecOnlineSessions()
		wsConn.Close()
	}()

	for {
		select {
		case <-s.shutdownChan:
			return
		default:
			packet, err := wsConn.ReadPacket()
			if err != nil {
				return
			}
			if !sess.Allow() {
				s.sendError(sess, "rate limited")
				continue
			}
			s.handlePacket(sess, packet)
		}
	}
}
