// Package command parses chat commands and game input.
package command

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/wfunc/wordchain/dictionary"
)

// Prefix 文本命令前缀
const Prefix = "/"

type Kind int

const (
	KindUnknown Kind = iota
	KindHelp
	KindCheckHelp
	KindSetChannel
	KindSetMaxHelp
	KindGiveHelp
	KindResetHistory
	KindForceNew
	KindToggleWords
	KindSetCooldown
	KindStats
)

var names = map[Kind]string{
	KindHelp:         "help",
	KindCheckHelp:    "checkhelp",
	KindSetChannel:   "setnoitu",
	KindSetMaxHelp:   "setmaxhelp",
	KindGiveHelp:     "givehelp",
	KindResetHistory: "resethistory",
	KindForceNew:     "forcenew",
	KindToggleWords:  "togglewords",
	KindSetCooldown:  "setcooldown",
	KindStats:        "stats",
}

var byName = func() map[string]Kind {
	m := make(map[string]Kind, len(names))
	for k, n := range names {
		m[n] = k
	}
	return m
}()

// Kinds lists every known command in declaration order.
func Kinds() []Kind {
	return []Kind{
		KindHelp, KindCheckHelp, KindSetChannel, KindSetMaxHelp, KindGiveHelp,
		KindResetHistory, KindForceNew, KindToggleWords, KindSetCooldown, KindStats,
	}
}

func (k Kind) String() string {
	if n, ok := names[k]; ok {
		return n
	}
	return "unknown"
}

// OwnerOnly reports whether the command requires a bot owner.
func (k Kind) OwnerOnly() bool {
	switch k {
	case KindHelp, KindCheckHelp, KindUnknown:
		return false
	default:
		return true
	}
}

// Lookup resolves a command name, case-insensitively.
func Lookup(name string) (Kind, bool) {
	k, ok := byName[strings.ToLower(name)]
	return k, ok
}

var (
	ErrNotCommand     = errors.New("not a command")
	ErrUnknownCommand = errors.New("unknown command")
	ErrMissingArgs    = errors.New("missing arguments")
	ErrInvalidChannel = errors.New("invalid channel mention")
	ErrInvalidUser    = errors.New("invalid user mention")
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrInvalidSetting = errors.New("setting must be on or off")
	ErrWordTooShort   = errors.New("each word needs at least 2 characters")
)

// Command is a parsed command with its validated arguments.
type Command struct {
	Kind      Kind
	ChannelID string
	UserID    string
	Amount    int
	Enabled   bool
}

var (
	userMention    = regexp.MustCompile(`^<@!?(\d+)>$`)
	channelMention = regexp.MustCompile(`^(?:channel:)?<#(\d+)>$`)
)

// IsCommand reports whether text should be routed to Parse.
func IsCommand(text string) bool {
	return strings.HasPrefix(text, Prefix)
}

// Parse parses a text command like "/givehelp <@123> 2".
// On argument errors the returned Command still carries the Kind so callers can print usage.
func Parse(text string) (Command, error) {
	if !IsCommand(text) {
		return Command{}, ErrNotCommand
	}
	args := strings.Fields(strings.TrimPrefix(text, Prefix))
	if len(args) == 0 {
		return Command{}, ErrUnknownCommand
	}
	kind, ok := Lookup(args[0])
	if !ok {
		return Command{}, ErrUnknownCommand
	}

	cmd := Command{Kind: kind}
	args = args[1:]
	switch kind {
	case KindSetChannel:
		if len(args) < 1 {
			return cmd, ErrMissingArgs
		}
		id, err := ParseChannel(args[0])
		if err != nil {
			return cmd, err
		}
		cmd.ChannelID = id
	case KindSetMaxHelp:
		if len(args) < 1 {
			return cmd, ErrMissingArgs
		}
		n, err := ParseAmount(args[0], 1)
		if err != nil {
			return cmd, err
		}
		cmd.Amount = n
	case KindGiveHelp:
		if len(args) < 2 {
			return cmd, ErrMissingArgs
		}
		id, err := ParseUser(args[0])
		if err != nil {
			return cmd, err
		}
		n, err := ParseAmount(args[1], 1)
		if err != nil {
			return cmd, err
		}
		cmd.UserID, cmd.Amount = id, n
	case KindToggleWords:
		if len(args) < 1 {
			return cmd, ErrMissingArgs
		}
		enabled, err := ParseSetting(args[0])
		if err != nil {
			return cmd, err
		}
		cmd.Enabled = enabled
	case KindSetCooldown:
		if len(args) < 1 {
			return cmd, ErrMissingArgs
		}
		n, err := ParseAmount(args[0], 0)
		if err != nil {
			return cmd, err
		}
		cmd.Amount = n
	}
	return cmd, nil
}

func ParseChannel(s string) (string, error) {
	m := channelMention.FindStringSubmatch(s)
	if m == nil {
		return "", ErrInvalidChannel
	}
	return m[1], nil
}

func ParseUser(s string) (string, error) {
	m := userMention.FindStringSubmatch(s)
	if m == nil {
		return "", ErrInvalidUser
	}
	return m[1], nil
}

// ParseAmount parses an integer that must be at least minimum.
func ParseAmount(s string, minimum int) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < minimum {
		return 0, ErrInvalidAmount
	}
	return n, nil
}

func ParseSetting(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on":
		return true, nil
	case "off":
		return false, nil
	}
	return false, ErrInvalidSetting
}

// ValidateGameInput checks a chat message as a move.
// ok is false with a nil error for messages that are not exactly two words,
// these are ordinary chat and must be ignored silently.
func ValidateGameInput(content string) (phrase string, ok bool, err error) {
	words := strings.Fields(content)
	if len(words) != 2 {
		return "", false, nil
	}
	for _, w := range words {
		if utf8.RuneCountInString(w) < 2 {
			return "", false, ErrWordTooShort
		}
	}
	return dictionary.Normalize(content), true, nil
}
