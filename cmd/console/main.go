package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/zerocut/console-client/client"
	"github.com/zerocut/console-client/internal/config"
)

var (
	cfg        *config.Config
	apiURL     string
	billingURL string
	debug      bool
)

func main() {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

// NewRootCmd constructs the root CLI command; exposed for unit testing.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "console",
		Short: "Console CLI for workspace subscriptions and billing",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return err
			}
			config.InitLogger()
			if debug {
				config.SetLogLevel(zerolog.DebugLevel)
				os.Setenv("CONSOLE_DEBUG", "true")
				log.Debug().Msg("debug logging enabled")
			} else {
				config.SetLogLevel(zerolog.InfoLevel)
			}
			if apiURL != "" {
				cfg.APIBaseURL = apiURL
			}
			if billingURL != "" {
				cfg.BillingBaseURL = billingURL
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Base URL of the primary console API (overrides CONSOLE_API_BASE_URL)")
	rootCmd.PersistentFlags().StringVar(&billingURL, "billing-url", "", "Base URL of the billing API (overrides CONSOLE_BILLING_BASE_URL)")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable verbose debug output")

	rootCmd.AddCommand(newWhoamiCmd())
	rootCmd.AddCommand(newLogoutCmd())
	rootCmd.AddCommand(newPlansCmd())
	rootCmd.AddCommand(newSubscriptionCmd())
	rootCmd.AddCommand(newCancelCmd())
	rootCmd.AddCommand(newPurchaseCmd())
	rootCmd.AddCommand(newCloseOrderCmd())
	rootCmd.AddCommand(newSignCmd())
	rootCmd.AddCommand(newCloseSigningCmd())
	rootCmd.AddCommand(newWalletCmd())

	return rootCmd
}

// newRecovery wires the default session recovery chain: clear the persisted
// session, best-effort logout through a bare client (no recovery handler,
// so a 401 during teardown cannot recurse), and surface the login URL.
func newRecovery(store *client.SessionStore) *client.SessionRecovery {
	bare := client.New(cfg.APIBaseURL)
	teardown := func(ctx context.Context) error { return bare.Logout(ctx) }
	return client.NewSessionRecovery(store, cfg.LoginURL, teardown, nil)
}

func newAPIClient(store *client.SessionStore) *client.Client {
	return client.New(cfg.APIBaseURL,
		client.WithTimeout(cfg.RequestTimeout),
		client.WithRecoveryHandler(newRecovery(store)),
	)
}

func newBillingClient(store *client.SessionStore) *client.Client {
	return client.New(cfg.BillingBaseURL,
		client.WithTimeout(cfg.RequestTimeout),
		client.WithRecoveryHandler(newRecovery(store)),
	)
}

func sessionStore() *client.SessionStore {
	return client.NewSessionStore(cfg.SessionFile)
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the locally persisted session",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess := sessionStore().Snapshot()
			if !sess.LoggedIn || sess.User == nil {
				fmt.Println("Not logged in")
				return nil
			}
			fmt.Printf("Logged in as %s (%s)\n", sess.User.Name, sess.User.Email)
			return nil
		},
	}
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Tear down the server session and clear local state",
		RunE: func(cmd *cobra.Command, args []string) error {
			store := sessionStore()
			c := client.New(cfg.APIBaseURL, client.WithTimeout(cfg.RequestTimeout))
			ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			defer cancel()

			if err := c.Logout(ctx); err != nil {
				// Local state is cleared regardless; the server session will
				// expire on its own.
				log.Warn().Err(err).Msg("server-side logout failed")
			}
			store.Clear()
			fmt.Println("Logged out")
			return nil
		},
	}
}

func newPlansCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "plans",
		Short: "List membership plans",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newBillingClient(sessionStore())
			ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			defer cancel()

			plans, err := c.GetMembershipPlans(ctx, !all)
			if err != nil {
				logAPIError(err, "list plans")
				return err
			}
			for _, p := range plans {
				fmt.Printf("%-24s %-10s %-16s %8.2f %s/mo  %d credits\n",
					p.Code, p.Tier, p.PurchaseMode, float64(p.PriceCents)/100, p.Currency, p.MonthlyCredits)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Include inactive plans")
	return cmd
}

func newSubscriptionCmd() *cobra.Command {
	var workspaceID string

	cmd := &cobra.Command{
		Use:   "subscription",
		Short: "Show the workspace's current subscription",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newBillingClient(sessionStore())
			ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			defer cancel()

			sub, err := c.GetCurrentSubscription(ctx, workspaceID)
			if err != nil {
				logAPIError(err, "get subscription")
				return err
			}
			if sub == nil {
				fmt.Println("No subscription")
				return nil
			}
			fmt.Printf("Subscription %d: plan=%s tier=%s status=%s autoRenew=%v\n",
				sub.SubscriptionID, sub.PlanCode, sub.Tier, sub.Status, sub.AutoRenew)
			fmt.Printf("Quota %d/%d", sub.RemainingInCurrentPeriod, sub.MonthlyQuota)
			if sub.CurrentPeriodEndAt != nil {
				fmt.Printf(", period ends %s", *sub.CurrentPeriodEndAt)
			}
			if sub.NextBillingAt != nil {
				fmt.Printf(", next billing %s", *sub.NextBillingAt)
			}
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().StringVar(&workspaceID, "workspace-id", "", "Workspace ID (required)")
	_ = cmd.MarkFlagRequired("workspace-id")
	return cmd
}

func newCancelCmd() *cobra.Command {
	var workspaceID, reason string
	var subscriptionID int64

	cmd := &cobra.Command{
		Use:   "cancel",
		Short: "Request cancellation of a subscription",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newBillingClient(sessionStore())
			ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			defer cancel()

			sub, err := c.CancelSubscription(ctx, client.CancelSubscriptionRequest{
				WorkspaceID:    workspaceID,
				SubscriptionID: subscriptionID,
				Reason:         reason,
			})
			if err != nil {
				logAPIError(err, "cancel subscription")
				return err
			}
			fmt.Printf("Subscription %d is now %s", sub.SubscriptionID, sub.Status)
			if sub.CancelAt != nil {
				fmt.Printf(" (cancels at %s)", *sub.CancelAt)
			}
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().StringVar(&workspaceID, "workspace-id", "", "Workspace ID (required)")
	cmd.Flags().Int64Var(&subscriptionID, "subscription-id", 0, "Subscription ID (required)")
	cmd.Flags().StringVar(&reason, "reason", "", "Cancellation reason (optional)")
	_ = cmd.MarkFlagRequired("workspace-id")
	_ = cmd.MarkFlagRequired("subscription-id")
	return cmd
}

func newPurchaseCmd() *cobra.Command {
	var workspaceID, planCode string
	var amount int64

	cmd := &cobra.Command{
		Use:   "purchase",
		Short: "Start a one-time subscription purchase",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newBillingClient(sessionStore())
			ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			defer cancel()

			order, err := c.PurchaseOneTime(ctx, client.PurchaseRequest{
				PlanCode:    planCode,
				TotalAmount: amount,
				WorkspaceID: workspaceID,
			})
			if err != nil {
				logAPIError(err, "purchase")
				return err
			}
			fmt.Printf("Order %s created (subscription %d)\n", order.OutTradeNo, order.SubscriptionID)
			fmt.Printf("Pay via QR: %s (expires %s)\n", order.CodeURL, order.ExpiresAt)
			return nil
		},
	}

	cmd.Flags().StringVar(&workspaceID, "workspace-id", "", "Workspace ID (required)")
	cmd.Flags().StringVar(&planCode, "plan-code", "", "Plan code (required)")
	cmd.Flags().Int64Var(&amount, "amount", 0, "Total amount in cents (required)")
	_ = cmd.MarkFlagRequired("workspace-id")
	_ = cmd.MarkFlagRequired("plan-code")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func newCloseOrderCmd() *cobra.Command {
	var workspaceID, outTradeNo string

	cmd := &cobra.Command{
		Use:   "close-order",
		Short: "Close a pending one-time payment order",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newBillingClient(sessionStore())
			ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			defer cancel()

			if err := c.CloseOneTimeOrder(ctx, outTradeNo, workspaceID); err != nil {
				logAPIError(err, "close order")
				return err
			}
			fmt.Printf("Order %s closed\n", outTradeNo)
			return nil
		},
	}

	cmd.Flags().StringVar(&workspaceID, "workspace-id", "", "Workspace ID (required)")
	cmd.Flags().StringVar(&outTradeNo, "out-trade-no", "", "Order number (required)")
	_ = cmd.MarkFlagRequired("workspace-id")
	_ = cmd.MarkFlagRequired("out-trade-no")
	return cmd
}

func newSignCmd() *cobra.Command {
	var workspaceID, planCode, displayName string
	var interval, timeout time.Duration

	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Sign an auto-renew contract: create a signing session and poll it to completion",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newBillingClient(sessionStore())

			createCtx, cancelCreate := context.WithTimeout(cmd.Context(), 15*time.Second)
			defer cancelCreate()
			sess, err := c.CreateSigningSession(createCtx, client.CreateSigningSessionRequest{
				WorkspaceID:        workspaceID,
				PlanCode:           planCode,
				DisplayAccountName: displayName,
			})
			if err != nil {
				logAPIError(err, "create signing session")
				return err
			}
			fmt.Printf("Scan to sign: %s (expires %s)\n", sess.QRURL, sess.ExpiresAt)

			pollCtx, cancelPoll := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer cancelPoll()
			pollCtx, cancelTimeout := context.WithTimeout(pollCtx, timeout)
			defer cancelTimeout()

			status, err := c.PollSigningSession(pollCtx, sess.SigningSessionID, interval)
			if err != nil {
				// Abandoned or timed out: close the session so the contract
				// offer does not linger. Closing is idempotent.
				closeCtx, cancelClose := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancelClose()
				if closeErr := c.CloseSigningSession(closeCtx, sess.SigningSessionID, workspaceID); closeErr != nil {
					log.Warn().Err(closeErr).Str("signing_session_id", sess.SigningSessionID).Msg("failed to close abandoned signing session")
				}
				logAPIError(err, "poll signing session")
				return err
			}

			switch status.Status {
			case client.SigningSigned:
				fmt.Printf("Contract signed")
				if status.SubscriptionID != nil {
					fmt.Printf(", subscription %d active", *status.SubscriptionID)
				}
				fmt.Println()
			case client.SigningExpired:
				fmt.Println("Signing session expired before completion")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&workspaceID, "workspace-id", "", "Workspace ID (required)")
	cmd.Flags().StringVar(&planCode, "plan-code", "", "Plan code (required)")
	cmd.Flags().StringVar(&displayName, "display-name", "", "Account name shown on the contract (optional)")
	cmd.Flags().DurationVar(&interval, "interval", 2*time.Second, "Polling interval")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "Give up after this long")
	_ = cmd.MarkFlagRequired("workspace-id")
	_ = cmd.MarkFlagRequired("plan-code")
	return cmd
}

func newCloseSigningCmd() *cobra.Command {
	var workspaceID, sessionID string

	cmd := &cobra.Command{
		Use:   "close-signing",
		Short: "Close an abandoned signing session",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newBillingClient(sessionStore())
			ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			defer cancel()

			if err := c.CloseSigningSession(ctx, sessionID, workspaceID); err != nil {
				logAPIError(err, "close signing session")
				return err
			}
			fmt.Printf("Signing session %s closed\n", sessionID)
			return nil
		},
	}

	cmd.Flags().StringVar(&workspaceID, "workspace-id", "", "Workspace ID (required)")
	cmd.Flags().StringVar(&sessionID, "session-id", "", "Signing session ID (required)")
	_ = cmd.MarkFlagRequired("workspace-id")
	_ = cmd.MarkFlagRequired("session-id")
	return cmd
}

func newWalletCmd() *cobra.Command {
	var workspaceID string
	var limit int

	cmd := &cobra.Command{
		Use:   "wallet",
		Short: "Show wallet balance and recent transactions",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newAPIClient(sessionStore())
			ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			defer cancel()

			// Balance and ledger are fetched with a silent retry: both are
			// safe reads, so transient network/server failures may be
			// absorbed per the classification table.
			var balance *client.WalletBalance
			err := client.Retry(ctx, func(ctx context.Context) error {
				var err error
				balance, err = c.GetWalletBalance(ctx, workspaceID)
				return err
			}, client.WithMaxRetries(2))
			if err != nil {
				logAPIError(err, "wallet balance")
				return err
			}
			fmt.Printf("Balance: %s %s\n", balance.Balance, balance.Currency)

			txs, total, err := c.GetWalletTransactions(ctx, workspaceID, client.WalletTransactionQuery{Limit: limit})
			if err != nil {
				logAPIError(err, "wallet transactions")
				return err
			}
			for _, tx := range txs {
				fmt.Printf("%-20s %-12s %10s  %s\n", tx.CreatedAt, tx.Type, tx.Amount, tx.Description)
			}
			fmt.Printf("(%d of %d transactions)\n", len(txs), total)
			return nil
		},
	}

	cmd.Flags().StringVar(&workspaceID, "workspace-id", "", "Workspace ID (required)")
	cmd.Flags().IntVar(&limit, "limit", 20, "Max transactions to list")
	_ = cmd.MarkFlagRequired("workspace-id")
	return cmd
}

// logAPIError classifies err and logs it at a level matching its severity.
func logAPIError(err error, context string) {
	client.Process(err).Log(context)
}
