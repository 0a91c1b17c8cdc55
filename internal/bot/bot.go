// Package bot is the Discord command adapter. It parses chat commands, calls
// the economy engine, and formats replies; every invariant stays inside the
// engine. It also delivers the referral notices the engine returns, since the
// engine itself never talks to Discord.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"tycoon/internal/game"
)

type Bot struct {
	session       *discordgo.Session
	game          *game.Service
	log           *slog.Logger
	prefix        string
	inviteBaseURL string
}

func New(token string, gameSvc *game.Service, logger *slog.Logger, prefix, inviteBaseURL string) (*Bot, error) {
	if logger == nil {
		logger = slog.Default()
	}
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	b := &Bot{
		session:       session,
		game:          gameSvc,
		log:           logger,
		prefix:        prefix,
		inviteBaseURL: strings.TrimRight(inviteBaseURL, "/"),
	}
	session.AddHandler(b.onMessage)
	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent
	return b, nil
}

func (b *Bot) Open() error {
	return b.session.Open()
}

func (b *Bot) Close() error {
	return b.session.Close()
}

func (b *Bot) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	content := strings.TrimSpace(m.Content)
	if !strings.HasPrefix(content, b.prefix) {
		return
	}
	fields := strings.Fields(strings.TrimPrefix(content, b.prefix))
	if len(fields) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	playerID := m.Author.ID
	command := strings.ToLower(fields[0])
	args := fields[1:]

	var reply string
	switch command {
	case "start":
		reply = b.cmdStart(ctx, playerID, args)
	case "nextday":
		reply = b.cmdNextDay(ctx, playerID)
	case "info":
		reply = b.cmdInfo(ctx, playerID)
	case "buyrig":
		reply = b.cmdBuyRigs(ctx, playerID, args)
	case "buyshare":
		reply = b.cmdTradeShares(ctx, playerID, args, true)
	case "sellshare":
		reply = b.cmdTradeShares(ctx, playerID, args, false)
	case "quest":
		reply = b.cmdQuest(ctx, playerID)
	case "referral":
		reply = b.cmdReferral(ctx, playerID)
	case "graph":
		reply = b.cmdGraph(ctx, playerID, args)
	default:
		return
	}
	if reply == "" {
		return
	}
	if _, err := s.ChannelMessageSend(m.ChannelID, reply); err != nil {
		b.log.Error("reply send failed", "channel", m.ChannelID, "err", err)
	}
}

func (b *Bot) cmdStart(ctx context.Context, playerID string, args []string) string {
	code := ""
	if len(args) > 0 {
		code = strings.ToUpper(strings.TrimSpace(args[0]))
	}
	out, err := b.game.Onboard(ctx, playerID, code)
	if errors.Is(err, game.ErrAlreadyOnboarded) {
		return "You are already playing! Use " + b.prefix + "quest to see your current objective."
	}
	if err != nil {
		return userMessage(err)
	}
	if out.ReferralNotice != nil {
		b.notifyReferrer(out.ReferralNotice)
	}
	return fmt.Sprintf(
		"Welcome to Crypto Tycoon! You start with %d CC.\nComplete quests for bonuses. Use %squest to see your first objective.",
		out.Player.Balance, b.prefix,
	)
}

// notifyReferrer DMs the referrer about their bonus. Delivery is best-effort:
// the bonus was already credited by the engine.
func (b *Bot) notifyReferrer(notice *game.ReferralNotice) {
	channel, err := b.session.UserChannelCreate(notice.ReferrerID)
	if err != nil {
		b.log.Error("referrer dm channel failed", "referrer", notice.ReferrerID, "err", err)
		return
	}
	msg := fmt.Sprintf("A player joined with your referral code! You earned a +%d CC bonus.", notice.Bonus)
	if _, err := b.session.ChannelMessageSend(channel.ID, msg); err != nil {
		b.log.Error("referrer dm send failed", "referrer", notice.ReferrerID, "err", err)
	}
}

func (b *Bot) cmdNextDay(ctx context.Context, playerID string) string {
	out, err := b.game.AdvanceDay(ctx, playerID)
	if err != nil {
		return userMessage(err)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Day %d\n", out.Day)
	if out.QuestName != "" {
		fmt.Fprintf(&sb, "Quest complete: %s! Reward: %d CC\n", out.QuestName, out.QuestReward)
	}
	fmt.Fprintf(&sb, "Mining earned %d CC\n", out.MiningIncome)
	fmt.Fprintf(&sb, "Balance: %d CC", out.Balance)
	return sb.String()
}

func (b *Bot) cmdInfo(ctx context.Context, playerID string) string {
	out, err := b.game.StatusOf(ctx, playerID)
	if err != nil {
		return userMessage(err)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Your status:\nDay: %d\nBalance: %d CC\nMining rigs: %d\nDaily income: %d CC\n",
		out.Day, out.Balance, out.RigCount, out.DailyIncome)
	fmt.Fprintf(&sb, "Portfolio value: %d CC", out.PortfolioValue)
	for _, h := range out.Holdings {
		if h.Count > 0 {
			fmt.Fprintf(&sb, "\n%s: %d shares (%d CC each)", h.Company, h.Count, h.Price)
		}
	}
	return sb.String()
}

func (b *Bot) cmdBuyRigs(ctx context.Context, playerID string, args []string) string {
	if len(args) != 1 {
		return "Usage: " + b.prefix + "buyrig <count>"
	}
	count, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return "Usage: " + b.prefix + "buyrig <count>"
	}
	out, err := b.game.BuyRigs(ctx, playerID, count)
	if err != nil {
		return userMessage(err)
	}
	return fmt.Sprintf("Bought %d mining rig(s) for %d CC. You now own %d. Balance: %d CC",
		out.Count, out.Total, out.RigCount, out.Balance)
}

func (b *Bot) cmdTradeShares(ctx context.Context, playerID string, args []string, buy bool) string {
	usage := "sellshare"
	if buy {
		usage = "buyshare"
	}
	if len(args) < 2 {
		return "Usage: " + b.prefix + usage + " <company> <count>"
	}
	count, err := strconv.ParseInt(args[len(args)-1], 10, 64)
	if err != nil {
		return "Usage: " + b.prefix + usage + " <company> <count>"
	}
	company, err := game.ResolveCompany(strings.Join(args[:len(args)-1], " "))
	if err != nil {
		return userMessage(err)
	}

	var out game.TradeResult
	if buy {
		out, err = b.game.BuyShares(ctx, playerID, company, count)
	} else {
		out, err = b.game.SellShares(ctx, playerID, company, count)
	}
	if err != nil {
		return userMessage(err)
	}
	verb := "Sold"
	if buy {
		verb = "Bought"
	}
	return fmt.Sprintf("%s %d %s share(s) for %d CC. Balance: %d CC",
		verb, out.Count, out.Company, out.Total, out.Balance)
}

func (b *Bot) cmdQuest(ctx context.Context, playerID string) string {
	out, err := b.game.QuestStatusOf(ctx, playerID)
	if err != nil {
		return userMessage(err)
	}
	if out.AllComplete {
		return "All quests complete!"
	}
	status := "not done yet"
	if out.Satisfied {
		status = "complete, use " + b.prefix + "nextday to claim"
	}
	return fmt.Sprintf("Current quest (%d/%d):\n%s: %s\nStatus: %s\nReward: %d CC",
		out.Index+1, out.Total, out.Quest.Name, out.Quest.Description, status, out.Quest.Reward)
}

func (b *Bot) cmdReferral(ctx context.Context, playerID string) string {
	out, err := b.game.ReferralStatusOf(ctx, playerID)
	if err != nil {
		return userMessage(err)
	}
	return fmt.Sprintf(
		"Invite friends and earn %d CC for each!\nYour invite link: %s?ref=%s\nInvited: %d\nEarned so far: +%d CC",
		game.ReferralBonus, b.inviteBaseURL, out.ReferralCode, out.Count, out.BonusEarned,
	)
}

func (b *Bot) cmdGraph(ctx context.Context, playerID string, args []string) string {
	if len(args) == 0 {
		return "Usage: " + b.prefix + "graph <company>"
	}
	company, err := game.ResolveCompany(strings.Join(args, " "))
	if err != nil {
		return userMessage(err)
	}
	rows, err := b.game.PriceHistoryOf(ctx, company, 7)
	if err != nil {
		return userMessage(err)
	}
	if len(rows) == 0 {
		return fmt.Sprintf("No price history for %s yet.", company)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s price history:", company)
	for _, r := range rows {
		fmt.Fprintf(&sb, "\n%s  %d CC", r.DayLabel, r.Price)
	}
	return sb.String()
}

// userMessage maps engine errors onto the chat phrasing players see.
func userMessage(err error) string {
	switch {
	case errors.Is(err, game.ErrPlayerNotFound):
		return "You are not playing yet. Send the start command first."
	case errors.Is(err, game.ErrUnknownCompany):
		return "No company with that name."
	case errors.Is(err, game.ErrInvalidQuantity):
		return "The quantity must be a positive number."
	case errors.Is(err, game.ErrRigCapacityExceeded):
		return fmt.Sprintf("You can own at most %d mining rigs.", game.MaxRigs)
	case errors.Is(err, game.ErrInsufficientFunds):
		return "Not enough funds."
	case errors.Is(err, game.ErrInsufficientShares):
		return "Not enough shares."
	case errors.Is(err, game.ErrQuestIncomplete):
		return "Finish your current quest first!"
	case errors.Is(err, game.ErrInvalidReferral):
		return "You cannot use your own referral code."
	default:
		return "Something went wrong, try again later."
	}
}
