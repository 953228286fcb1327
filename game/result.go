package game

import "fmt"

// RejectReason says why a move was refused.
type RejectReason int

const (
	ReasonNone RejectReason = iota
	ReasonSelfChain
	ReasonNotInDictionary
	ReasonWrongStartToken
	ReasonAlreadyUsed
)

func (r RejectReason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonSelfChain:
		return "self_chain"
	case ReasonNotInDictionary:
		return "not_in_dictionary"
	case ReasonWrongStartToken:
		return "wrong_start_token"
	case ReasonAlreadyUsed:
		return "already_used"
	default:
		return fmt.Sprintf("reason(%d)", int(r))
	}
}

// MoveResult is either Accepted (with ShouldRestart) or Rejected with a Reason.
type MoveResult struct {
	Accepted      bool
	ShouldRestart bool
	Reason        RejectReason
	// Required is the word the phrase had to start with, set for ReasonWrongStartToken.
	Required string
	Phrase   string
}

func accepted(phrase string, shouldRestart bool) MoveResult {
	return MoveResult{Accepted: true, ShouldRestart: shouldRestart, Phrase: phrase}
}

func rejected(phrase string, reason RejectReason) MoveResult {
	return MoveResult{Reason: reason, Phrase: phrase}
}

func (r MoveResult) String() string {
	if r.Accepted {
		return fmt.Sprintf("accepted %q (restart=%t)", r.Phrase, r.ShouldRestart)
	}
	if r.Reason == ReasonWrongStartToken {
		return fmt.Sprintf("rejected %q: %s, must start with %q", r.Phrase, r.Reason, r.Required)
	}
	return fmt.Sprintf("rejected %q: %s", r.Phrase, r.Reason)
}

// Stats is a read-only snapshot of one room.
type Stats struct {
	RoomID          string `json:"room_id"`
	CurrentWord     string `json:"current_word"`
	UsedCount       int    `json:"used_count"`
	CheckDuplicates bool   `json:"check_duplicates"`
	CooldownSeconds int    `json:"cooldown_seconds"`
	DictionarySize  int    `json:"dictionary_size"`
	Phase           string `json:"phase"`
	GameChannelID   string `json:"game_channel_id,omitempty"`
}
