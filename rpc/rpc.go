package rpc

import (
	"errors"
	"net"
	"net/rpc"

	"github.com/wfunc/wordchain/game"
	"github.com/wfunc/wordchain/logger"
	"github.com/wfunc/wordchain/services"
)

var ErrMissingRoom = errors.New("room id is required")

// Server manages the RPC listener.
type Server struct {
	listener net.Listener
	address  string
	server   *rpc.Server
}

// NewServer listens on addr and serves the registered receivers.
func NewServer(addr string, receivers ...any) (*Server, error) {
	server := rpc.NewServer()
	for _, rcvr := range receivers {
		if err := server.Register(rcvr); err != nil {
			return nil, err
		}
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  listener.Addr().String(),
		server:   server,
	}, nil
}

func (s *Server) Addr() string {
	return s.address
}

// Start begins listening for RPC requests.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go s.server.ServeConn(conn)
	}
}

// Stop closes the RPC listener.
func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// GameService exposes admin operations over net/rpc.
type GameService struct {
	engine *game.Engine
	stats  *services.StatsService
}

func NewGameService(engine *game.Engine, stats *services.StatsService) *GameService {
	return &GameService{engine: engine, stats: stats}
}

// RPC methods follow the net/rpc signature: exported args, pointer reply, error return.
type RoomArgs struct {
	RoomID string
}

type RoomStatsReply struct {
	Stats game.Stats
}

type ForceNewReply struct {
	Phrase string
}

type ResetHistoryReply struct {
	CurrentWord string
}

func (gs *GameService) RoomStats(args *RoomArgs, reply *RoomStatsReply) error {
	if args.RoomID == "" {
		return ErrMissingRoom
	}
	reply.Stats = gs.engine.Stats(args.RoomID)
	return nil
}

func (gs *GameService) ForceNew(args *RoomArgs, reply *ForceNewReply) error {
	if args.RoomID == "" {
		return ErrMissingRoom
	}
	phrase, err := gs.engine.StartNewGame(args.RoomID)
	if err != nil {
		return err
	}
	if err := gs.stats.IncrementGamesPlayed(); err != nil {
		logger.Log.Errorf("Failed to record games played: %v", err)
	}
	reply.Phrase = phrase
	return nil
}

func (gs *GameService) ResetHistory(args *RoomArgs, reply *ResetHistoryReply) error {
	if args.RoomID == "" {
		return ErrMissingRoom
	}
	gs.engine.ResetHistory(args.RoomID)
	if err := gs.stats.IncrementGameResets(); err != nil {
		logger.Log.Errorf("Failed to record game reset: %v", err)
	}
	reply.CurrentWord = gs.engine.Stats(args.RoomID).CurrentWord
	return nil
}
