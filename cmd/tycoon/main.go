package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	cl "tycoon/internal/cli"
	"tycoon/internal/config"
)

func main() {
	cfg := config.LoadCLIFromEnv()

	root := &cobra.Command{
		Use:          "tycoon",
		Short:        "Crypto Tycoon CLI game client",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&cfg.PlayerID, "player", cfg.PlayerID, "player identity (defaults to TYCOON_PLAYER_ID)")

	root.AddCommand(
		newStartCmd(&cfg),
		newDayCmd(&cfg),
		newStatusCmd(&cfg),
		newRigsCmd(&cfg),
		newSharesCmd(&cfg),
		newQuestCmd(&cfg),
		newReferralCmd(&cfg),
		newHistoryCmd(&cfg),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newClient(cfg *config.CLIConfig) (*cl.Client, error) {
	id := strings.TrimSpace(cfg.PlayerID)
	if id == "" {
		return nil, fmt.Errorf("player identity required: set TYCOON_PLAYER_ID or pass --player")
	}
	return cl.NewClient(cfg.APIBaseURL, id), nil
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), 30*time.Second)
}

func newStartCmd(cfg *config.CLIConfig) *cobra.Command {
	var referralCode string
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Join the game",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cfg)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			out, err := client.Onboard(ctx, strings.ToUpper(strings.TrimSpace(referralCode)))
			if err != nil {
				return err
			}
			renderOnboard(out)
			return nil
		},
	}
	cmd.Flags().StringVar(&referralCode, "ref", "", "referral code of the player who invited you")
	return cmd
}

func newDayCmd(cfg *config.CLIConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "day",
		Short: "Advance to the next day",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cfg)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			out, err := client.AdvanceDay(ctx)
			if err != nil {
				return err
			}
			renderDayReport(out)
			return nil
		},
	}
}

func newStatusCmd(cfg *config.CLIConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show balance, rigs and portfolio",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cfg)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			out, err := client.Status(ctx)
			if err != nil {
				return err
			}
			renderStatus(out)
			return nil
		},
	}
}

func newRigsCmd(cfg *config.CLIConfig) *cobra.Command {
	rigs := &cobra.Command{
		Use:   "rigs",
		Short: "Mining rig commands",
	}
	rigs.AddCommand(&cobra.Command{
		Use:   "buy <count>",
		Short: "Buy mining rigs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			count, err := parseCount(args[0])
			if err != nil {
				return err
			}
			client, err := newClient(cfg)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			out, err := client.BuyRigs(ctx, count)
			if err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Bought %d rig(s) for %d CC. Rigs: %d, balance: %d CC.",
				out.Count, out.Total, out.RigCount, out.Balance))
			return nil
		},
	})
	return rigs
}

func newSharesCmd(cfg *config.CLIConfig) *cobra.Command {
	shares := &cobra.Command{
		Use:   "shares",
		Short: "Share trading commands",
	}
	shares.AddCommand(newShareTradeCmd(cfg, "buy"))
	shares.AddCommand(newShareTradeCmd(cfg, "sell"))
	return shares
}

func newShareTradeCmd(cfg *config.CLIConfig, side string) *cobra.Command {
	return &cobra.Command{
		Use:   side + " <company> <count>",
		Short: side + " shares at the current market price",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			count, err := parseCount(args[len(args)-1])
			if err != nil {
				return err
			}
			company := strings.Join(args[:len(args)-1], " ")
			client, err := newClient(cfg)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()

			if side == "buy" {
				out, err := client.BuyShares(ctx, company, count)
				if err != nil {
					return err
				}
				printSuccess(fmt.Sprintf("Bought %d %s share(s) for %d CC. Balance: %d CC.",
					out.Count, out.Company, out.Total, out.Balance))
				return nil
			}
			out, err := client.SellShares(ctx, company, count)
			if err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Sold %d %s share(s) for %d CC. Balance: %d CC.",
				out.Count, out.Company, out.Total, out.Balance))
			return nil
		},
	}
}

func newQuestCmd(cfg *config.CLIConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "quest",
		Short: "Show your current quest",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cfg)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			out, err := client.Quest(ctx)
			if err != nil {
				return err
			}
			renderQuest(out)
			return nil
		},
	}
}

func newReferralCmd(cfg *config.CLIConfig) *cobra.Command {
	var noQR bool
	cmd := &cobra.Command{
		Use:   "referral",
		Short: "Show your invite code and referral earnings",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cfg)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			out, err := client.Referral(ctx)
			if err != nil {
				return err
			}
			renderReferral(cfg.InviteBaseURL, out, !noQR)
			return nil
		},
	}
	cmd.Flags().BoolVar(&noQR, "no-qr", false, "skip the invite QR code")
	return cmd
}

func newHistoryCmd(cfg *config.CLIConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "history <company>",
		Short: "Show a company's recent price history",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cfg)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			company := strings.Join(args, " ")
			out, err := client.History(ctx, company)
			if err != nil {
				return err
			}
			renderHistory(company, out)
			return nil
		},
	}
}

func parseCount(arg string) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("count must be a positive integer")
	}
	return v, nil
}
