package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mdp/qrterminal/v3"

	"tycoon/internal/game"
)

var (
	accent  = color.New(color.FgCyan, color.Bold)
	success = color.New(color.FgGreen, color.Bold)
	warn    = color.New(color.FgYellow, color.Bold)
	danger  = color.New(color.FgRed, color.Bold)
	neutral = color.New(color.FgHiWhite)
)

func printSuccess(msg string) {
	success.Println(msg)
}

func printWarn(msg string) {
	warn.Println(msg)
}

func printInfo(msg string) {
	neutral.Println(msg)
}

func renderOnboard(out game.OnboardResult) {
	accent.Println("\n== WELCOME TO CRYPTO TYCOON ==")
	fmt.Printf("Starting balance: %s CC\n", comma(out.Player.Balance))
	fmt.Printf("Your invite code: %s\n", out.Player.ReferralCode)
	printInfo("Run `tycoon quest` to see your first objective.")
	fmt.Println()
}

func renderDayReport(out game.DayReport) {
	accent.Printf("\n== DAY %d ==\n", out.Day)
	if out.QuestName != "" {
		printSuccess(fmt.Sprintf("Quest complete: %s (+%s CC)", out.QuestName, comma(out.QuestReward)))
	}
	fmt.Printf("Mining income: %s CC\n", comma(out.MiningIncome))
	fmt.Printf("Balance:       %s CC\n", comma(out.Balance))
	if !out.MarketTicked {
		printInfo("Market prices already rolled today.")
	}
	fmt.Println()
}

func renderStatus(out game.Status) {
	accent.Printf("\n== STATUS (Day %d) ==\n", out.Day)
	fmt.Printf("Balance:         %s CC\n", comma(out.Balance))
	fmt.Printf("Mining rigs:     %d / %d\n", out.RigCount, game.MaxRigs)
	fmt.Printf("Daily income:    %s CC\n", comma(out.DailyIncome))
	fmt.Printf("Portfolio value: %s CC\n", comma(out.PortfolioValue))

	fmt.Println()
	accent.Println("Holdings")
	shown := false
	fmt.Printf("%-24s %10s %12s %14s\n", "COMPANY", "SHARES", "PRICE", "VALUE")
	for _, h := range out.Holdings {
		if h.Count == 0 {
			continue
		}
		shown = true
		fmt.Printf("%-24s %10d %12s %14s\n",
			truncate(string(h.Company), 24),
			h.Count,
			comma(h.Price),
			comma(h.Value),
		)
	}
	if !shown {
		printInfo("No shares held yet.")
	}
	fmt.Println()
}

func renderQuest(out game.QuestStatus) {
	if out.AllComplete {
		printSuccess("All quests complete!")
		return
	}
	accent.Printf("\n== QUEST %d/%d ==\n", out.Index+1, out.Total)
	fmt.Printf("%s\n%s\n", out.Quest.Name, out.Quest.Description)
	fmt.Printf("Reward: %s CC\n", comma(out.Quest.Reward))
	if out.Satisfied {
		printSuccess("Complete. Run `tycoon day` to claim the reward.")
	} else {
		printWarn("Not done yet.")
	}
	fmt.Println()
}

func renderReferral(inviteBaseURL string, out game.ReferralStatus, showQR bool) {
	accent.Println("\n== REFERRALS ==")
	link := fmt.Sprintf("%s?ref=%s", inviteBaseURL, out.ReferralCode)
	fmt.Printf("Invite code: %s\n", out.ReferralCode)
	fmt.Printf("Invite link: %s\n", link)
	fmt.Printf("Invited:     %d\n", out.Count)
	fmt.Printf("Earned:      +%s CC (%s CC per invite)\n", comma(out.BonusEarned), comma(game.ReferralBonus))
	if showQR {
		fmt.Println()
		qrterminal.GenerateWithConfig(link, qrterminal.Config{
			Level:      qrterminal.L,
			Writer:     os.Stdout,
			HalfBlocks: true,
			QuietZone:  1,
		})
	}
	fmt.Println()
}

func renderHistory(company string, rows []game.PriceSample) {
	accent.Printf("\n== %s PRICE HISTORY ==\n", strings.ToUpper(company))
	if len(rows) == 0 {
		printInfo("No price history yet. Advance a day to roll the market.")
		return
	}
	fmt.Printf("%-12s %12s %12s\n", "DAY", "PRICE", "DELTA")
	prev := int64(0)
	for i, r := range rows {
		delta := "-"
		if i > 0 {
			delta = colorizeDelta(r.Price - prev)
		}
		fmt.Printf("%-12s %12s %12s\n", r.DayLabel, comma(r.Price), delta)
		prev = r.Price
	}
	fmt.Println()
}

func colorizeDelta(v int64) string {
	switch {
	case v > 0:
		return success.Sprintf("+%s", comma(v))
	case v < 0:
		return danger.Sprintf("-%s", comma(-v))
	default:
		return neutral.Sprint("0")
	}
}

func comma(v int64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	s := strconv.FormatInt(v, 10)
	if len(s) <= 3 {
		return sign + s
	}
	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
		if len(s) > pre {
			b.WriteByte(',')
		}
	}
	for i := pre; i < len(s); i += 3 {
		b.WriteString(s[i : i+3])
		if i+3 < len(s) {
			b.WriteByte(',')
		}
	}
	return sign + b.String()
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
