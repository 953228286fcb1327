package state

import (
	"errors"
	"fmt"
	"sync"
)

// 状态机接口
type StateMachine interface {
	ChangeState(state State) error
	ChangeTo(id string) error
	GetCurrentState() State
	AddTransition(from State, to State, condition func() bool) error
}

// 状态接口
type State interface {
	OnEnter()
	OnExit()
	GetID() string
}

var (
	// ErrTransitionNotAllowed is returned when a state transition is not allowed.
	ErrTransitionNotAllowed = errors.New("state transition not allowed")
	ErrUnknownState         = errors.New("unknown state")
)

// 基础状态机实现
// 只允许通过 AddTransition 注册过的转换
type BaseStateMachine struct {
	currentState State
	states       map[string]State
	transitions  map[string]map[string]func() bool // fromState -> toState -> condition
	mutex        sync.RWMutex
}

func NewBaseStateMachine(initialState State) *BaseStateMachine {
	machine := &BaseStateMachine{
		currentState: initialState,
		states:       map[string]State{initialState.GetID(): initialState},
		transitions:  make(map[string]map[string]func() bool),
	}
	initialState.OnEnter()
	return machine
}

// Register makes states reachable through ChangeTo.
func (sm *BaseStateMachine) Register(states ...State) {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()
	for _, s := range states {
		sm.states[s.GetID()] = s
	}
}

func (sm *BaseStateMachine) ChangeState(newState State) error {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	currentID := sm.currentState.GetID()
	newID := newState.GetID()

	// 检查是否有转换条件
	conditions, exists := sm.transitions[currentID]
	condition, allowed := conditions[newID]
	if !exists || !allowed || (condition != nil && !condition()) {
		return fmt.Errorf("%w: %s -> %s", ErrTransitionNotAllowed, currentID, newID)
	}

	sm.currentState.OnExit()
	sm.currentState = newState
	sm.currentState.OnEnter()

	return nil
}

// ChangeTo switches to a registered state by id.
func (sm *BaseStateMachine) ChangeTo(id string) error {
	sm.mutex.RLock()
	next, ok := sm.states[id]
	sm.mutex.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownState, id)
	}
	return sm.ChangeState(next)
}

func (sm *BaseStateMachine) GetCurrentState() State {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()
	return sm.currentState
}

func (sm *BaseStateMachine) AddTransition(from State, to State, condition func() bool) error {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	fromID := from.GetID()
	toID := to.GetID()

	if _, exists := sm.transitions[fromID]; !exists {
		sm.transitions[fromID] = make(map[string]func() bool)
	}

	sm.transitions[fromID][toID] = condition
	sm.states[fromID] = from
	sm.states[toID] = to
	return nil
}

// 房间状态基础结构
type RoomStateBase struct {
	ID   string
	Room RoomContext
}

func (s *RoomStateBase) GetID() string {
	return s.ID
}

func (s *RoomStateBase) OnEnter() {
	// 默认实现
}

func (s *RoomStateBase) OnExit() {
	// 默认实现
}
