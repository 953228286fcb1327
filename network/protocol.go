package network

import "encoding/json"

const (
	MsgTypeHeartbeat    = 1
	MsgTypeJoinRoom     = 101
	MsgTypeLeaveRoom    = 102
	MsgTypeSubmitPhrase = 201
	MsgTypeRequestHint  = 202
	MsgTypeRoomState    = 301
	MsgTypeMoveResult   = 302
	MsgTypeGameStart    = 303
	MsgTypeNotice       = 304
	MsgTypeGameEnd      = 305
	MsgTypeError        = 399
)

// 客户端请求

type JoinRoomRequest struct {
	RoomID   string `json:"room_id"`
	PlayerID string `json:"player_id,omitempty"`
}

type SubmitPhraseRequest struct {
	Phrase string `json:"phrase"`
}

// 服务端推送

type RoomState struct {
	RoomID      string `json:"room_id"`
	CurrentWord string `json:"current_word"`
	UsedCount   int    `json:"used_count"`
	Phase       string `json:"phase"`
}

type MoveResult struct {
	PlayerID string `json:"player_id"`
	Phrase   string `json:"phrase"`
	Accepted bool   `json:"accepted"`
	Reaction string `json:"reaction"`
	Message  string `json:"message,omitempty"`
}

type GameStart struct {
	RoomID string `json:"room_id"`
	Word   string `json:"word"`
	Text   string `json:"text,omitempty"`
}

// Notice carries free-form text, for replies and room announcements.
type Notice struct {
	Text string `json:"text"`
}

type ErrorMessage struct {
	Message string `json:"message"`
}

// Encode marshals v as a JSON packet body.
func Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

func Decode(data []byte, v any) error {
	return json.Unmarshal(data, v)
}
