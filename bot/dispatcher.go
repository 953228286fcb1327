// Package bot drives the word-chain game from chat transports.
package bot

import (
	"errors"
	"fmt"

	"github.com/wfunc/wordchain/command"
	"github.com/wfunc/wordchain/game"
	"github.com/wfunc/wordchain/logger"
	"github.com/wfunc/wordchain/models"
	"github.com/wfunc/wordchain/services"
)

type AnnounceKind int

const (
	AnnounceNotice AnnounceKind = iota
	AnnounceGameStart
	AnnounceGameEnd
)

// Announcement is a message for everyone playing in a room.
type Announcement struct {
	Kind   AnnounceKind
	Text   string
	Phrase string // 新一局的开局词组, 仅 AnnounceGameStart
}

// Replier answers one inbound message on the transport it came from.
// Announce targets the room's game channel, transports without one drop it.
type Replier interface {
	React(emoji string) error
	Reply(text string) error
	Announce(a Announcement) error
}

// Outcome describes what a game message did.
type Outcome struct {
	Handled    bool
	OnCooldown bool
	Result     game.MoveResult
	// NewPhrase is set when the chain was exhausted and a new game began.
	NewPhrase string
}

// Report is the owner stats view.
type Report struct {
	Game        game.Stats       `json:"game"`
	Stats       models.AllStats  `json:"stats"`
	Help        models.HelpStats `json:"help"`
	ActiveRooms int              `json:"active_rooms"`
}

type Dispatcher struct {
	engine  *game.Engine
	help    *services.HelpService
	stats   *services.StatsService
	isOwner func(userID string) bool
}

func NewDispatcher(engine *game.Engine, help *services.HelpService, stats *services.StatsService, isOwner func(string) bool) *Dispatcher {
	if isOwner == nil {
		isOwner = func(string) bool { return false }
	}
	return &Dispatcher{
		engine:  engine,
		help:    help,
		stats:   stats,
		isOwner: isOwner,
	}
}

func (d *Dispatcher) Engine() *game.Engine {
	return d.engine
}

// HandlePlayerMessage routes text starting with the command prefix to commands, the rest to the game.
// The sender is never treated as an owner: transports without verified identities go through here.
func (d *Dispatcher) HandlePlayerMessage(roomID, playerID, content string, r Replier) (Outcome, error) {
	if command.IsCommand(content) {
		return Outcome{Handled: true}, d.handleCommandText(roomID, playerID, content, false, r)
	}
	return d.HandleGameMessage(roomID, playerID, content, r)
}

// HandleGameMessage validates content, applies it as a move and announces restarts.
func (d *Dispatcher) HandleGameMessage(roomID, playerID, content string, r Replier) (Outcome, error) {
	phrase, ok, err := command.ValidateGameInput(content)
	if err != nil {
		d.react(r, ReactRejected)
		d.reply(r, msgWordTooShort)
		return Outcome{Handled: true}, nil
	}
	if !ok {
		return Outcome{}, nil
	}

	if d.engine.OnCooldown(playerID) {
		d.react(r, ReactCooldown)
		return Outcome{Handled: true, OnCooldown: true}, nil
	}

	result, err := d.engine.AttemptMove(roomID, playerID, phrase)
	if err != nil {
		d.react(r, ReactRejected)
		return Outcome{Handled: true}, fmt.Errorf("attempt move in room %s: %w", roomID, err)
	}

	out := Outcome{Handled: true, Result: result}
	if !result.Accepted {
		d.react(r, ReactRejected)
		d.reply(r, RejectMessage(result))
		return out, nil
	}

	d.react(r, ReactAccepted)
	if err := d.stats.IncrementDailyWords(); err != nil {
		logger.Log.Errorf("Failed to record daily words: %v", err)
	}

	if result.ShouldRestart {
		d.announce(r, Announcement{Kind: AnnounceGameEnd, Text: msgGameOver})
		word, err := d.engine.StartNewGame(roomID)
		if err != nil {
			return out, fmt.Errorf("restart room %s: %w", roomID, err)
		}
		out.NewPhrase = word
		d.announce(r, Announcement{Kind: AnnounceGameStart, Text: fmt.Sprintf(msgNewGame, word), Phrase: word})
	}
	return out, nil
}

// HandleCommandText parses a text command, checks ownership and runs it.
func (d *Dispatcher) HandleCommandText(roomID, playerID, text string, r Replier) error {
	return d.handleCommandText(roomID, playerID, text, d.isOwner(playerID), r)
}

func (d *Dispatcher) handleCommandText(roomID, playerID, text string, owner bool, r Replier) error {
	cmd, err := command.Parse(text)
	if errors.Is(err, command.ErrUnknownCommand) {
		d.reply(r, msgUnknownCommand)
		return nil
	}
	if cmd.Kind.OwnerOnly() && !owner {
		d.reply(r, msgOwnerOnly)
		return nil
	}
	if err != nil {
		d.reply(r, ParseErrorMessage(cmd.Kind, err))
		return nil
	}
	return d.run(roomID, playerID, cmd, r)
}

// Execute runs an already parsed command, e.g. from a slash interaction.
func (d *Dispatcher) Execute(roomID, playerID string, cmd command.Command, r Replier) error {
	if cmd.Kind.OwnerOnly() && !d.isOwner(playerID) {
		d.reply(r, msgOwnerOnly)
		return nil
	}
	return d.run(roomID, playerID, cmd, r)
}

func (d *Dispatcher) run(roomID, playerID string, cmd command.Command, r Replier) error {
	switch cmd.Kind {
	case command.KindHelp:
		return d.hint(roomID, playerID, r)

	case command.KindCheckHelp:
		remaining, total, err := d.help.Remaining(playerID)
		if err != nil {
			d.reply(r, msgCheckHelpFailed)
			return err
		}
		d.reply(r, fmt.Sprintf(msgCheckHelp, remaining, total))

	case command.KindSetChannel:
		d.engine.SetGameChannel(roomID, cmd.ChannelID)
		d.reply(r, fmt.Sprintf(msgChannelSet, cmd.ChannelID))
		word, err := d.engine.StartNewGame(roomID)
		if err != nil {
			d.reply(r, msgStartFailed)
			return err
		}
		d.announce(r, Announcement{Kind: AnnounceGameStart, Text: fmt.Sprintf(msgChannelStart, word), Phrase: word})

	case command.KindSetMaxHelp:
		if err := d.help.SetMaxHelpPerDay(cmd.Amount); err != nil {
			d.reply(r, msgSettingFailed)
			return err
		}
		d.reply(r, fmt.Sprintf(msgMaxHelpSet, cmd.Amount))

	case command.KindGiveHelp:
		if err := d.help.GiveHelp(cmd.UserID, cmd.Amount); err != nil {
			d.reply(r, msgGiveHelpFailed)
			return err
		}
		d.reply(r, fmt.Sprintf(msgGiveHelpDone, cmd.Amount, cmd.UserID))

	case command.KindResetHistory:
		d.engine.ResetHistory(roomID)
		if err := d.stats.IncrementGameResets(); err != nil {
			logger.Log.Errorf("Failed to record game reset: %v", err)
		}
		d.reply(r, msgHistoryReset)

	case command.KindForceNew:
		word, err := d.engine.StartNewGame(roomID)
		if err != nil {
			d.reply(r, msgStartFailed)
			return err
		}
		if err := d.stats.IncrementGamesPlayed(); err != nil {
			logger.Log.Errorf("Failed to record games played: %v", err)
		}
		d.announce(r, Announcement{Kind: AnnounceGameStart, Text: fmt.Sprintf(msgOwnerNewGame, word), Phrase: word})
		d.reply(r, msgForceNewDone)

	case command.KindToggleWords:
		d.engine.ToggleDuplicateCheck(roomID, cmd.Enabled)
		status := "❌ TẮT"
		if cmd.Enabled {
			status = "✅ BẬT"
		}
		d.reply(r, fmt.Sprintf(msgToggleWords, status))

	case command.KindSetCooldown:
		seconds := d.engine.SetCooldown(roomID, cmd.Amount)
		d.reply(r, fmt.Sprintf(msgCooldownSet, seconds))

	case command.KindStats:
		report, err := d.Report(roomID)
		if err != nil {
			d.reply(r, msgStatsFailed)
			return err
		}
		d.reply(r, FormatReport(report))

	default:
		d.reply(r, msgUnknownCommand)
	}
	return nil
}

// hint serves a suggestion, or starts a new game without charging quota when none exists.
func (d *Dispatcher) hint(roomID, playerID string, r Replier) error {
	can, err := d.help.CanUseHelp(playerID)
	if err != nil {
		d.reply(r, msgHelpFailed)
		return err
	}
	if !can {
		d.reply(r, msgHelpExhausted)
		return nil
	}

	hint, found := d.engine.Hint(roomID)
	if !found {
		word, err := d.engine.StartNewGame(roomID)
		if err != nil {
			d.reply(r, msgHelpFailed)
			return err
		}
		if err := d.stats.IncrementGamesPlayed(); err != nil {
			logger.Log.Errorf("Failed to record games played: %v", err)
		}
		d.announce(r, Announcement{Kind: AnnounceGameStart, Text: fmt.Sprintf(msgAutoSkip, word), Phrase: word})
		d.reply(r, msgAutoSkipReply)
		return nil
	}

	used, err := d.help.UseHelp(playerID)
	if err != nil || !used {
		d.reply(r, msgHelpUnavailable)
		return err
	}
	remaining, total, err := d.help.Remaining(playerID)
	if err != nil {
		d.reply(r, msgHelpFailed)
		return err
	}
	d.reply(r, fmt.Sprintf(msgHint, hint, remaining, total))
	return nil
}

// Report gathers game, usage and help statistics for roomID.
func (d *Dispatcher) Report(roomID string) (Report, error) {
	report := Report{
		Game:        d.engine.Stats(roomID),
		ActiveRooms: d.engine.Rooms().Count(),
	}
	all, err := d.stats.All()
	if err != nil {
		return report, err
	}
	help, err := d.help.Stats()
	if err != nil {
		return report, err
	}
	report.Stats, report.Help = all, help
	return report, nil
}

func (d *Dispatcher) react(r Replier, emoji string) {
	if err := r.React(emoji); err != nil {
		logger.Log.Warnf("react %s failed: %v", emoji, err)
	}
}

func (d *Dispatcher) reply(r Replier, text string) {
	if err := r.Reply(text); err != nil {
		logger.Log.Warnf("reply failed: %v", err)
	}
}

func (d *Dispatcher) announce(r Replier, a Announcement) {
	if err := r.Announce(a); err != nil {
		logger.Log.Warnf("announce failed: %v", err)
	}
}
