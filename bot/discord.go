package bot

import (
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/wfunc/wordchain/command"
	"github.com/wfunc/wordchain/logger"
)

// Discord 把 discordgo 事件接到 Dispatcher, 每个 guild 对应一个房间
type Discord struct {
	session    *discordgo.Session
	dispatcher *Dispatcher
}

func NewDiscord(token string, dispatcher *Dispatcher) (*Discord, error) {
	if token == "" {
		return nil, errors.New("discord token is required")
	}
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent

	d := &Discord{session: s, dispatcher: dispatcher}
	s.AddHandler(d.onReady)
	s.AddHandler(d.onMessageCreate)
	s.AddHandler(d.onInteractionCreate)
	return d, nil
}

func (d *Discord) Open() error {
	return d.session.Open()
}

func (d *Discord) Close() error {
	return d.session.Close()
}

func (d *Discord) onReady(s *discordgo.Session, r *discordgo.Ready) {
	logger.Log.Infof("Bot %s#%s đã sẵn sàng!", r.User.Username, r.User.Discriminator)
	if _, err := s.ApplicationCommandBulkOverwrite(r.User.ID, "", SlashCommands()); err != nil {
		logger.Log.Errorf("Failed to register slash commands: %v", err)
		return
	}
	logger.Log.Infof("Registered %d slash commands", len(command.Kinds()))
}

func (d *Discord) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.GuildID == "" {
		return
	}
	r := &messageReplier{session: s, message: m.Message, channelOf: d.dispatcher.Engine().GameChannel}

	if command.IsCommand(m.Content) {
		if err := d.dispatcher.HandleCommandText(m.GuildID, m.Author.ID, m.Content, r); err != nil {
			logger.Log.Errorf("Command execution error in guild %s: %v", m.GuildID, err)
		}
		return
	}

	// 只在指定的游戏频道处理接龙
	channelID := d.dispatcher.Engine().GameChannel(m.GuildID)
	if channelID == "" || m.ChannelID != channelID {
		return
	}
	if _, err := d.dispatcher.HandleGameMessage(m.GuildID, m.Author.ID, m.Content, r); err != nil {
		logger.Log.Errorf("Game message handling error in guild %s: %v", m.GuildID, err)
	}
}

func (d *Discord) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	r := &interactionReplier{session: s, interaction: i.Interaction, channelOf: d.dispatcher.Engine().GameChannel}
	if i.GuildID == "" || i.Member == nil || i.Member.User == nil {
		r.Reply("❌ Bot chỉ hoạt động trong server, không hỗ trợ DM!")
		return
	}

	cmd, err := CommandFromInteraction(i.ApplicationCommandData())
	if err != nil {
		r.Reply(ParseErrorMessage(cmd.Kind, err))
		return
	}
	if err := d.dispatcher.Execute(i.GuildID, i.Member.User.ID, cmd, r); err != nil {
		logger.Log.Errorf("Slash command execution error in guild %s: %v", i.GuildID, err)
	}
}

// CommandFromInteraction converts slash command options to a command.Command.
func CommandFromInteraction(data discordgo.ApplicationCommandInteractionData) (command.Command, error) {
	kind, ok := command.Lookup(data.Name)
	if !ok {
		return command.Command{}, command.ErrUnknownCommand
	}
	cmd := command.Command{Kind: kind}
	for _, opt := range data.Options {
		switch opt.Name {
		case "channel":
			cmd.ChannelID = fmt.Sprint(opt.Value)
		case "user":
			cmd.UserID = fmt.Sprint(opt.Value)
		case "amount", "seconds":
			cmd.Amount = int(opt.IntValue())
		case "setting":
			enabled, err := command.ParseSetting(opt.StringValue())
			if err != nil {
				return cmd, err
			}
			cmd.Enabled = enabled
		}
	}

	minimum := 1
	switch kind {
	case command.KindSetCooldown:
		minimum = 0
		fallthrough
	case command.KindSetMaxHelp, command.KindGiveHelp:
		if cmd.Amount < minimum {
			return cmd, command.ErrInvalidAmount
		}
	}
	return cmd, nil
}

func ptr[T any](v T) *T { return &v }

// SlashCommands describes every command for ApplicationCommandBulkOverwrite.
func SlashCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{Name: "help", Description: "Nhận gợi ý từ hợp lệ để nối tiếp (5 lần/ngày)"},
		{Name: "checkhelp", Description: "Kiểm tra số lượt trợ giúp còn lại"},
		{
			Name:        "setnoitu",
			Description: "Thiết lập kênh chơi nối từ (chỉ owner)",
			Options: []*discordgo.ApplicationCommandOption{{
				Type: discordgo.ApplicationCommandOptionChannel, Name: "channel",
				Description: "Kênh để chơi nối từ", Required: true,
			}},
		},
		{
			Name:        "setmaxhelp",
			Description: "Đặt giới hạn trợ giúp/ngày (chỉ owner)",
			Options: []*discordgo.ApplicationCommandOption{{
				Type: discordgo.ApplicationCommandOptionInteger, Name: "amount",
				Description: "Số lượt trợ giúp tối đa/ngày", Required: true, MinValue: ptr(1.0),
			}},
		},
		{
			Name:        "givehelp",
			Description: "Tặng thêm lượt trợ giúp cho user (chỉ owner)",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type: discordgo.ApplicationCommandOptionUser, Name: "user",
					Description: "User được tặng trợ giúp", Required: true,
				},
				{
					Type: discordgo.ApplicationCommandOptionInteger, Name: "amount",
					Description: "Số lượt trợ giúp muốn tặng", Required: true, MinValue: ptr(1.0),
				},
			},
		},
		{Name: "resethistory", Description: "Xóa lịch sử từ đã dùng trong ván hiện tại (chỉ owner)"},
		{Name: "forcenew", Description: "Bắt đầu ván mới ngay lập tức (chỉ owner)"},
		{
			Name:        "togglewords",
			Description: "Bật/tắt kiểm tra trùng lặp từ (chỉ owner)",
			Options: []*discordgo.ApplicationCommandOption{{
				Type: discordgo.ApplicationCommandOptionString, Name: "setting",
				Description: "Bật hoặc tắt kiểm tra trùng lặp", Required: true,
				Choices: []*discordgo.ApplicationCommandOptionChoice{
					{Name: "Bật", Value: "on"},
					{Name: "Tắt", Value: "off"},
				},
			}},
		},
		{
			Name:        "setcooldown",
			Description: "Đặt thời gian chờ giữa các lượt (chỉ owner)",
			Options: []*discordgo.ApplicationCommandOption{{
				Type: discordgo.ApplicationCommandOptionInteger, Name: "seconds",
				Description: "Thời gian chờ tính bằng giây", Required: true, MinValue: ptr(0.0),
			}},
		},
		{Name: "stats", Description: "Xem thống kê chi tiết bot (chỉ owner)"},
	}
}

// messageReplier answers a plain guild message.
type messageReplier struct {
	session   *discordgo.Session
	message   *discordgo.Message
	channelOf func(roomID string) string
}

func (r *messageReplier) React(emoji string) error {
	return r.session.MessageReactionAdd(r.message.ChannelID, r.message.ID, emoji)
}

func (r *messageReplier) Reply(text string) error {
	_, err := r.session.ChannelMessageSendReply(r.message.ChannelID, text, r.message.Reference())
	return err
}

func (r *messageReplier) Announce(a Announcement) error {
	return announce(r.session, r.channelOf(r.message.GuildID), a)
}

// interactionReplier answers a slash command, the first reply responds and later ones follow up.
type interactionReplier struct {
	session     *discordgo.Session
	interaction *discordgo.Interaction
	channelOf   func(roomID string) string
	responded   bool
}

func (r *interactionReplier) React(string) error { return nil }

func (r *interactionReplier) Reply(text string) error {
	if r.responded {
		_, err := r.session.FollowupMessageCreate(r.interaction, true, &discordgo.WebhookParams{Content: text})
		return err
	}
	r.responded = true
	return r.session.InteractionRespond(r.interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: text},
	})
}

func (r *interactionReplier) Announce(a Announcement) error {
	return announce(r.session, r.channelOf(r.interaction.GuildID), a)
}

func announce(s *discordgo.Session, channelID string, a Announcement) error {
	if channelID == "" {
		return nil
	}
	_, err := s.ChannelMessageSend(channelID, a.Text)
	return err
}
