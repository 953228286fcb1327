// Package game implements the word-chain rules on top of the room registry.
package game

import (
	"math/rand"
	"time"

	"github.com/wfunc/wordchain/cooldown"
	"github.com/wfunc/wordchain/dictionary"
	"github.com/wfunc/wordchain/logger"
	"github.com/wfunc/wordchain/room"
	"github.com/wfunc/wordchain/state"
)

// Dictionary is the lookup contract the engine needs.
type Dictionary interface {
	IsValidPhrase(phrase string) (bool, error)
	PhrasesStartingWith(token string) []string
	RandomPhrase() (string, error)
	Size() int
}

// Observer receives engine events, used for metrics.
type Observer interface {
	GameStarted(roomID string)
	MoveAccepted(roomID string, shouldRestart bool, elapsed time.Duration)
	MoveRejected(roomID string, reason RejectReason)
	HintServed(roomID string, found bool)
}

type nopObserver struct{}

func (nopObserver) GameStarted(string)                       {}
func (nopObserver) MoveAccepted(string, bool, time.Duration) {}
func (nopObserver) MoveRejected(string, RejectReason)        {}
func (nopObserver) HintServed(string, bool)                  {}

type Engine struct {
	dict      Dictionary
	rooms     *room.Manager
	cooldowns *cooldown.Tracker
	observer  Observer
	pick      func(n int) int
}

func NewEngine(dict Dictionary, rooms *room.Manager, cooldowns *cooldown.Tracker) *Engine {
	return &Engine{
		dict:      dict,
		rooms:     rooms,
		cooldowns: cooldowns,
		observer:  nopObserver{},
		pick:      rand.Intn,
	}
}

func (e *Engine) SetObserver(o Observer) {
	if o == nil {
		o = nopObserver{}
	}
	e.observer = o
}

// SetPicker overrides the hint index source, pick(n) must return a value in [0, n).
func (e *Engine) SetPicker(pick func(n int) int) {
	e.pick = pick
}

func (e *Engine) Rooms() *room.Manager {
	return e.rooms
}

// StartNewGame draws a random phrase, its second word becomes the chain word.
func (e *Engine) StartNewGame(roomID string) (string, error) {
	var phrase string
	err := e.rooms.Do(roomID, func(r *room.Room) error {
		p, err := e.dict.RandomPhrase()
		if err != nil {
			return err
		}
		_, second, _ := dictionary.Split(p)
		if err := r.Begin(p, second); err != nil {
			logger.Log.Warnf("房间 %s 阶段切换失败: %v", roomID, err)
		}
		phrase = p
		return nil
	})
	if err != nil {
		logger.Log.Errorf("Error starting new game in room %s: %v", roomID, err)
		return "", err
	}

	logger.Log.Infof("房间 %s 新一局开始: %q", roomID, phrase)
	e.observer.GameStarted(roomID)
	return phrase, nil
}

// AttemptMove validates phrase for playerID and applies it when legal.
// Checks run in order: self-chain, dictionary, start word, duplicate; the first failure wins.
// The error is reserved for dictionary faults, rejections are reported in MoveResult.
func (e *Engine) AttemptMove(roomID, playerID, phrase string) (MoveResult, error) {
	start := time.Now()
	phrase = dictionary.Normalize(phrase)

	var result MoveResult
	err := e.rooms.Do(roomID, func(r *room.Room) error {
		if r.LastPlayer != "" && r.LastPlayer == playerID {
			result = rejected(phrase, ReasonSelfChain)
			return nil
		}

		valid, err := e.dict.IsValidPhrase(phrase)
		if err != nil {
			return err
		}
		first, second, ok := dictionary.Split(phrase)
		if !valid || !ok {
			result = rejected(phrase, ReasonNotInDictionary)
			return nil
		}

		if r.CurrentWord == "" || first != r.CurrentWord {
			result = rejected(phrase, ReasonWrongStartToken)
			result.Required = r.CurrentWord
			return nil
		}

		if r.CheckDuplicates && r.IsUsed(phrase) {
			result = rejected(phrase, ReasonAlreadyUsed)
			return nil
		}

		r.Advance(phrase, second, playerID)
		e.cooldowns.Refresh(playerID, r.CooldownSeconds)

		if r.Phase() != state.PhaseInProgress {
			e.changePhase(r, state.PhaseInProgress)
		}
		shouldRestart := len(r.Available(e.dict.PhrasesStartingWith(second))) == 0
		if shouldRestart {
			e.changePhase(r, state.PhaseExhausted)
		}
		result = accepted(phrase, shouldRestart)
		return nil
	})
	if err != nil {
		return MoveResult{}, err
	}

	if result.Accepted {
		e.observer.MoveAccepted(roomID, result.ShouldRestart, time.Since(start))
	} else {
		e.observer.MoveRejected(roomID, result.Reason)
	}
	return result, nil
}

func (e *Engine) changePhase(r *room.Room, phase string) {
	if err := r.StateMachine.ChangeTo(phase); err != nil {
		logger.Log.Warnf("房间 %s 阶段切换失败: %v", r.ID, err)
	}
}

// Hint returns a random legal continuation without touching the room.
func (e *Engine) Hint(roomID string) (string, bool) {
	var hint string
	e.rooms.Do(roomID, func(r *room.Room) error {
		if r.CurrentWord == "" {
			return nil
		}
		available := r.Available(e.dict.PhrasesStartingWith(r.CurrentWord))
		if len(available) > 0 {
			hint = available[e.pick(len(available))]
		}
		return nil
	})

	found := hint != ""
	e.observer.HintServed(roomID, found)
	return hint, found
}

// ResetHistory clears used phrases and the last player, the chain word stays.
func (e *Engine) ResetHistory(roomID string) {
	e.rooms.Do(roomID, func(r *room.Room) error {
		r.ResetHistory()
		return nil
	})
	logger.Log.Infof("房间 %s 历史已重置", roomID)
}

func (e *Engine) ToggleDuplicateCheck(roomID string, enabled bool) {
	e.rooms.Do(roomID, func(r *room.Room) error {
		r.CheckDuplicates = enabled
		return nil
	})
}

// SetCooldown stores seconds clamped to >= 0 and returns the stored value.
func (e *Engine) SetCooldown(roomID string, seconds int) int {
	seconds = max(0, seconds)
	e.rooms.Do(roomID, func(r *room.Room) error {
		r.CooldownSeconds = seconds
		return nil
	})
	return seconds
}

func (e *Engine) SetGameChannel(roomID, channelID string) {
	e.rooms.Do(roomID, func(r *room.Room) error {
		r.GameChannelID = channelID
		return nil
	})
}

func (e *Engine) GameChannel(roomID string) string {
	var channelID string
	e.rooms.Do(roomID, func(r *room.Room) error {
		channelID = r.GameChannelID
		return nil
	})
	return channelID
}

func (e *Engine) Stats(roomID string) Stats {
	stats := Stats{RoomID: roomID, DictionarySize: e.dict.Size()}
	e.rooms.Do(roomID, func(r *room.Room) error {
		stats.CurrentWord = r.CurrentWord
		stats.UsedCount = len(r.UsedPairs)
		stats.CheckDuplicates = r.CheckDuplicates
		stats.CooldownSeconds = r.CooldownSeconds
		stats.Phase = r.Phase()
		stats.GameChannelID = r.GameChannelID
		return nil
	})
	return stats
}

// OnCooldown reports whether playerID must wait before moving again.
func (e *Engine) OnCooldown(playerID string) bool {
	return e.cooldowns.IsBlocked(playerID)
}
