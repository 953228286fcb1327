package state

import (
	"github.com/wfunc/wordchain/logger"
)

// 游戏阶段
const (
	PhaseNotStarted = "not_started"
	PhaseInProgress = "in_progress"
	// PhaseExhausted is transient: the current word has no legal continuation
	// and the room waits for a new game.
	PhaseExhausted = "exhausted"
)

// PhaseState is one node of the word-chain phase machine.
type PhaseState struct {
	RoomStateBase
}

func newPhase(id string, room RoomContext) *PhaseState {
	return &PhaseState{RoomStateBase: RoomStateBase{ID: id, Room: room}}
}

// OnEnter 记录阶段切换
func (s *PhaseState) OnEnter() {
	logger.Log.Debugf("房间 %s 进入阶段 %s", s.Room.GetID(), s.ID)
}

// NewPhaseMachine builds not_started -> in_progress -> (in_progress | exhausted),
// exhausted -> in_progress.
func NewPhaseMachine(room RoomContext) *BaseStateMachine {
	notStarted := newPhase(PhaseNotStarted, room)
	inProgress := newPhase(PhaseInProgress, room)
	exhausted := newPhase(PhaseExhausted, room)

	sm := NewBaseStateMachine(notStarted)
	sm.AddTransition(notStarted, inProgress, nil)
	sm.AddTransition(inProgress, inProgress, nil)
	sm.AddTransition(inProgress, exhausted, nil)
	sm.AddTransition(exhausted, inProgress, nil)
	return sm
}
