package bot

import (
	"errors"
	"fmt"
	"strings"

	"github.com/wfunc/wordchain/command"
	"github.com/wfunc/wordchain/game"
)

// 反应表情
const (
	ReactAccepted = "✅"
	ReactRejected = "❌"
	ReactCooldown = "⏰"
)

const (
	msgOwnerOnly      = "❌ Chỉ owner bot mới có thể sử dụng lệnh này!"
	msgUnknownCommand = "❓ Lệnh không tồn tại. Gõ `/help` để xem hướng dẫn."
	msgCommandFailed  = "❌ Có lỗi xảy ra khi thực hiện lệnh!"
	msgWordTooShort   = "❌ Mỗi từ phải có ít nhất 2 ký tự!"

	msgSelfChain       = "❌ Bạn không thể nối chính mình, hãy để người khác nối tiếp!"
	msgNotInDictionary = "❌ Cụm từ không có trong từ điển!"
	msgWrongStart      = "❌ Từ đầu tiên phải là \"%s\"!"
	msgAlreadyUsed     = "❌ Cụm từ này đã được sử dụng trong ván này!"

	msgGameOver     = "🎮 Trò chơi kết thúc, không còn từ nào hợp lệ để nối tiếp!"
	msgNewGame      = "🎯 Ván mới bắt đầu với: **%s**"
	msgStartFailed  = "❌ Có lỗi xảy ra khi bắt đầu ván mới!"
	msgChannelSet   = "✅ Đã thiết lập kênh nối từ: <#%s>"
	msgChannelStart = "🎯 Trò chơi nối từ bắt đầu! Từ đầu tiên: **%s**"
	msgOwnerNewGame = "🎯 Ván mới được bắt đầu bởi Owner! Từ đầu tiên: **%s**"
	msgForceNewDone = "✅ Đã bắt đầu ván mới!"

	msgHelpExhausted   = "❌ Bạn đã dùng hết lượt trợ giúp hôm nay. Hãy quay lại sau 00:00 nhé!"
	msgHelpUnavailable = "❌ Không thể sử dụng trợ giúp lúc này!"
	msgHelpFailed      = "❌ Có lỗi xảy ra khi lấy gợi ý!"
	msgHint            = "💡 Gợi ý: **%s**\n📊 Còn lại: %d/%d lượt trợ giúp hôm nay."
	msgAutoSkip        = "🔄 Không còn từ nào hợp lệ để nối tiếp! Bot tự động bắt đầu ván mới.\n🎯 Từ mới: **%s**"
	msgAutoSkipReply   = "🔄 Không có gợi ý khả dụng, bot đã tự động bắt đầu ván mới! Hãy kiểm tra kênh chơi để xem từ mới."
	msgCheckHelp       = "📊 Bạn còn **%d/%d** lượt trợ giúp hôm nay.\n🌙 Lượt sẽ được làm mới vào 00:00 (giờ Việt Nam)."
	msgCheckHelpFailed = "❌ Có lỗi xảy ra khi kiểm tra trợ giúp!"

	msgMaxHelpSet     = "✅ Đã đặt số lượt trợ giúp tối đa/ngày: **%d**"
	msgGiveHelpDone   = "✅ Đã tặng **%d** lượt trợ giúp cho <@%s>!"
	msgGiveHelpFailed = "❌ Có lỗi xảy ra khi tặng trợ giúp!"
	msgSettingFailed  = "❌ Có lỗi xảy ra khi thiết lập!"
	msgHistoryReset   = "✅ Đã xóa lịch sử cụm từ trong ván hiện tại!"
	msgToggleWords    = "%s kiểm tra trùng lặp cụm từ!"
	msgCooldownSet    = "✅ Đã đặt thời gian chờ: **%d** giây"
	msgStatsFailed    = "❌ Có lỗi xảy ra khi lấy thống kê!"
)

// RejectMessage is the reply shown to a player whose move was refused.
func RejectMessage(r game.MoveResult) string {
	switch r.Reason {
	case game.ReasonSelfChain:
		return msgSelfChain
	case game.ReasonNotInDictionary:
		return msgNotInDictionary
	case game.ReasonWrongStartToken:
		return fmt.Sprintf(msgWrongStart, r.Required)
	case game.ReasonAlreadyUsed:
		return msgAlreadyUsed
	default:
		return ""
	}
}

var usages = map[command.Kind]string{
	command.KindSetChannel:  "❌ Sử dụng: `/setnoitu channel:#tên-kênh`",
	command.KindSetMaxHelp:  "❌ Sử dụng: `/setmaxhelp <số>`",
	command.KindGiveHelp:    "❌ Sử dụng: `/givehelp @user <số>`",
	command.KindToggleWords: "❌ Sử dụng: `/togglewords on/off`",
	command.KindSetCooldown: "❌ Sử dụng: `/setcooldown <giây>`",
}

// ParseErrorMessage maps a command.Parse failure to its chat reply.
func ParseErrorMessage(kind command.Kind, err error) string {
	switch {
	case errors.Is(err, command.ErrUnknownCommand):
		return msgUnknownCommand
	case errors.Is(err, command.ErrMissingArgs):
		if u, ok := usages[kind]; ok {
			return u
		}
	case errors.Is(err, command.ErrInvalidChannel):
		return "❌ Định dạng không đúng. Sử dụng: `/setnoitu channel:#tên-kênh`"
	case errors.Is(err, command.ErrInvalidUser):
		return "❌ Phải mention (@) một user!"
	case errors.Is(err, command.ErrInvalidSetting):
		return "❌ Chỉ chấp nhận `on` hoặc `off`!"
	case errors.Is(err, command.ErrInvalidAmount):
		switch kind {
		case command.KindSetCooldown:
			return "❌ Thời gian phải là số nguyên không âm!"
		case command.KindSetMaxHelp:
			return "❌ Số lượt trợ giúp phải là số nguyên dương!"
		default:
			return "❌ Số lượng phải là số nguyên dương!"
		}
	}
	return msgCommandFailed
}

// FormatReport renders the owner stats report as chat text.
func FormatReport(r Report) string {
	current := r.Game.CurrentWord
	if current == "" {
		current = "Chưa bắt đầu"
	}

	var b strings.Builder
	b.WriteString("📊 **Thống Kê Bot Nối Từ**\n\n")
	b.WriteString("🎮 **Trạng thái game**\n")
	fmt.Fprintf(&b, "Từ hiện tại: **%s**\n", current)
	fmt.Fprintf(&b, "Từ đã dùng: **%d**\n", r.Game.UsedCount)
	fmt.Fprintf(&b, "Từ điển: **%d** cụm từ\n", r.Game.DictionarySize)
	fmt.Fprintf(&b, "Kiểm tra trùng: **%s**\n", onOff(r.Game.CheckDuplicates))
	fmt.Fprintf(&b, "Cooldown: **%ds**\n\n", r.Game.CooldownSeconds)
	b.WriteString("📈 **Thống kê hôm nay**\n")
	fmt.Fprintf(&b, "Từ đã nối: **%d**\n", r.Stats.Today.WordsToday)
	fmt.Fprintf(&b, "Người dùng trợ giúp: **%d**\n", r.Help.TotalUsersToday)
	fmt.Fprintf(&b, "Trợ giúp đã dùng: **%d**\n\n", r.Help.TotalHelpUsedToday)
	b.WriteString("🏆 **Tổng quan**\n")
	fmt.Fprintf(&b, "Ván đã chơi: **%d**\n", r.Stats.GamesPlayed)
	fmt.Fprintf(&b, "Lần reset: **%d**\n", r.Stats.GameResets)
	fmt.Fprintf(&b, "Từ tuần này: **%d**\n", r.Stats.WeekWords)
	fmt.Fprintf(&b, "Server đang chơi: **%d**", r.ActiveRooms)
	return b.String()
}

func onOff(b bool) string {
	if b {
		return "Bật"
	}
	return "Tắt"
}
