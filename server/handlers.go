package server

import (
	"github.com/wfunc/wordchain/bot"
	"github.com/wfunc/wordchain/command"
	"github.com/wfunc/wordchain/logger"
	"github.com/wfunc/wordchain/network"
	"github.com/wfunc/wordchain/session"
)

func (s *GameServer) handlePacket(sess *session.Session, packet *network.Packet) {
	switch packet.MsgID {
	case network.MsgTypeHeartbeat:
		sess.Send(network.MsgTypeHeartbeat, nil)
	case network.MsgTypeJoinRoom:
		s.handleJoinRoom(sess, packet)
	case network.MsgTypeLeaveRoom:
		s.handleLeaveRoom(sess)
	case network.MsgTypeSubmitPhrase:
		s.handleSubmitPhrase(sess, packet)
	case network.MsgTypeRequestHint:
		s.handleRequestHint(sess)
	default:
		logger.Log.Infof("Unknown message type: %d", packet.MsgID)
		s.sendError(sess, "unknown message type")
	}
}

func (s *GameServer) handleJoinRoom(sess *session.Session, packet *network.Packet) {
	var req network.JoinRoomRequest
	if err := network.Decode(packet.Data, &req); err != nil || req.RoomID == "" {
		s.sendError(sess, "room_id is required")
		return
	}
	// 一个连接只能绑定一个玩家, 换名字不能绕过自接和冷却
	if err := sess.BindPlayer(req.PlayerID); err != nil {
		s.sendError(sess, "player_id cannot change on this connection")
		return
	}

	key := roomKey(req.RoomID)
	s.joinMutex.Lock()
	defer s.joinMutex.Unlock()

	sess.SetRoom(key)
	engine := s.dispatcher.Engine()
	engine.Rooms().GetOrCreate(key)
	logger.Log.Infof("Session %s joined room %s as %s", sess.GetID(), key, sess.Player())

	// 房间还没开局时自动开一局
	if engine.Stats(key).CurrentWord == "" {
		word, err := engine.StartNewGame(key)
		if err != nil {
			s.sendError(sess, "could not start a game")
			return
		}
		s.broadcaster.BroadcastJSON(key, network.MsgTypeGameStart, network.GameStart{RoomID: req.RoomID, Word: word})
	}
	s.sendRoomState(sess, key)
}

func (s *GameServer) handleLeaveRoom(sess *session.Session) {
	if roomID := sess.Room(); roomID != "" {
		logger.Log.Infof("Session %s left room %s", sess.GetID(), roomID)
		sess.SetRoom("")
	}
}

func (s *GameServer) handleSubmitPhrase(sess *session.Session, packet *network.Packet) {
	roomID := sess.Room()
	if roomID == "" {
		logger.Log.Warnf("Session %s sent a phrase but is not in a room", sess.GetID())
		s.sendError(sess, "join a room first")
		return
	}

	var req network.SubmitPhraseRequest
	if err := network.Decode(packet.Data, &req); err != nil {
		s.sendError(sess, "invalid payload")
		return
	}

	r := &replier{server: s, sess: sess, roomID: roomID, phrase: req.Phrase}
	out, err := s.dispatcher.HandlePlayerMessage(roomID, sess.Player(), req.Phrase, r)
	if err != nil {
		logger.Log.Errorf("Error handling phrase in room %s: %v", roomID, err)
		return
	}
	if out.Result.Accepted {
		s.broadcastRoomState(roomID)
	}
}

func (s *GameServer) handleRequestHint(sess *session.Session) {
	roomID := sess.Room()
	if roomID == "" {
		s.sendError(sess, "join a room first")
		return
	}
	r := &replier{server: s, sess: sess, roomID: roomID}
	if err := s.dispatcher.Execute(roomID, sess.Player(), command.Command{Kind: command.KindHelp}, r); err != nil {
		logger.Log.Errorf("Error serving hint in room %s: %v", roomID, err)
	}
}

func (s *GameServer) roomState(roomID string) network.RoomState {
	stats := s.dispatcher.Engine().Stats(roomID)
	return network.RoomState{
		RoomID:      publicRoomID(roomID),
		CurrentWord: stats.CurrentWord,
		UsedCount:   stats.UsedCount,
		Phase:       stats.Phase,
	}
}

func (s *GameServer) sendRoomState(sess *session.Session, roomID string) {
	s.sendJSON(sess, network.MsgTypeRoomState, s.roomState(roomID))
}

func (s *GameServer) broadcastRoomState(roomID string) {
	if err := s.broadcaster.BroadcastJSON(roomID, network.MsgTypeRoomState, s.roomState(roomID)); err != nil {
		logger.Log.Warnf("Failed to broadcast state of room %s: %v", roomID, err)
	}
}

func (s *GameServer) sendJSON(sess *session.Session, msgID uint16, v any) error {
	data, err := network.Encode(v)
	if err != nil {
		return err
	}
	return sess.Send(msgID, data)
}

func (s *GameServer) sendError(sess *session.Session, message string) {
	s.sendJSON(sess, network.MsgTypeError, network.ErrorMessage{Message: message})
}

// replier 把 Dispatcher 的回复写回 websocket, 接受的结果和公告广播给整个房间
type replier struct {
	server *GameServer
	sess   *session.Session
	roomID string
	phrase string
}

var _ bot.Replier = (*replier)(nil)

func (r *replier) React(emoji string) error {
	result := network.MoveResult{
		PlayerID: r.sess.Player(),
		Phrase:   r.phrase,
		Accepted: emoji == bot.ReactAccepted,
		Reaction: emoji,
	}
	if result.Accepted {
		return r.server.broadcaster.BroadcastJSON(r.roomID, network.MsgTypeMoveResult, result)
	}
	return r.server.sendJSON(r.sess, network.MsgTypeMoveResult, result)
}

// Reply reaches every connection of the sending player.
func (r *replier) Reply(text string) error {
	data, err := network.Encode(network.Notice{Text: text})
	if err != nil {
		return err
	}
	return r.server.broadcaster.BroadcastToPlayers([]string{r.sess.Player()}, network.MsgTypeNotice, data)
}

func (r *replier) Announce(a bot.Announcement) error {
	switch a.Kind {
	case bot.AnnounceGameStart:
		return r.server.broadcaster.BroadcastJSON(r.roomID, network.MsgTypeGameStart,
			network.GameStart{RoomID: publicRoomID(r.roomID), Word: a.Phrase, Text: a.Text})
	case bot.AnnounceGameEnd:
		return r.server.broadcaster.BroadcastJSON(r.roomID, network.MsgTypeGameEnd, network.Notice{Text: a.Text})
	default:
		return r.server.broadcaster.BroadcastJSON(r.roomID, network.MsgTypeNotice, network.Notice{Text: a.Text})
	}
}
