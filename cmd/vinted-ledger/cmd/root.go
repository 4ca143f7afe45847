package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"vinted-ledger/internal/config"
	"vinted-ledger/internal/gmail"
	"vinted-ledger/internal/pipeline"
	"vinted-ledger/internal/sheets"
)

const Version = "1.0.0"

var (
	configFile string
	dryRun     bool
)

var rootCmd = &cobra.Command{
	Use:   "vinted-ledger",
	Short: "Record Vinted transaction emails into Google Sheets",
	Long: `vinted-ledger runs one batch pass over a Gmail account: it finds
unprocessed Vinted notification emails (purchases, boosts, showcase
invoices, bank transfers, refunds, sales), extracts the transaction
fields from each HTML body, appends new rows to the per-month tabs of
the configured Google spreadsheets, and labels each processed message.

CONFIGURATION:
    Via environment variables (VINTED_ prefix) or a vinted-ledger.yaml
    file; see --config.

    VINTED_GMAIL_CLIENT_ID        - OAuth2 client ID
    VINTED_GMAIL_CLIENT_SECRET    - OAuth2 client secret
    VINTED_GMAIL_REFRESH_TOKEN    - OAuth2 refresh token
    VINTED_SHEETS_PURCHASES_ID    - purchases spreadsheet ID
    VINTED_SHEETS_PROMOTIONS_ID   - boost/showcase spreadsheet ID
    VINTED_SHEETS_TRANSFERS_ID    - bank transfers spreadsheet ID
    VINTED_SHEETS_REFUNDS_ID      - refunds spreadsheet ID
    VINTED_SHEETS_SALES_ID        - sales spreadsheet ID
    VINTED_PROCESSING_BATCH_SIZE  - messages per category per run (default 100)

    A category with no spreadsheet ID is skipped.

EXAMPLES:
    # One pass over every configured category
    vinted-ledger

    # Extract and report without labeling or writing
    vinted-ledger --dry-run

    # Explicit config file
    vinted-ledger --config=/etc/vinted-ledger.yaml`,
	Version: Version,
	RunE:    run,
}

// Execute runs the root command. Called by main.main().
func Execute() {
	fang.Execute(context.Background(), rootCmd)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default vinted-ledger.yaml in the working directory)")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "extract and report without labeling messages or writing rows")
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if dryRun {
		cfg.Processing.DryRun = true
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	logger.Info("starting run", "version", Version, "dry_run", cfg.Processing.DryRun,
		"batch_size", cfg.Processing.BatchSize)

	ctx := cmd.Context()
	orchestrator, mailbox, err := buildOrchestrator(ctx, cfg, logger)
	if err != nil {
		return err
	}

	if err := mailbox.HealthCheck(ctx); err != nil {
		return fmt.Errorf("gmail health check: %w", err)
	}

	report, err := orchestrator.Run(ctx)
	if report != nil {
		for _, c := range report.Categories {
			logger.Info("category result", "category", c.Category,
				"listed", c.Listed, "extracted", c.Extracted, "skipped", c.Skipped,
				"appended", c.Appended, "remaining", c.Remaining, "error", c.Err)
		}
	}
	return err
}

// buildOrchestrator wires the Gmail client, the sheets engine and the
// category table. Both APIs share one OAuth transport.
func buildOrchestrator(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pipeline.Orchestrator, *gmail.Client, error) {
	gmailConfig := &gmail.Config{
		ClientID:     cfg.Gmail.ClientID,
		ClientSecret: cfg.Gmail.ClientSecret,
		RefreshToken: cfg.Gmail.RefreshToken,
		AccessToken:  cfg.Gmail.AccessToken,
		MaxResults:   cfg.Gmail.MaxResults,
	}
	mailbox, err := gmail.NewClient(ctx, gmailConfig, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("create gmail client: %w", err)
	}

	sheetsClient, err := sheets.NewClient(ctx, gmail.OAuthHTTPClient(ctx, gmailConfig))
	if err != nil {
		return nil, nil, fmt.Errorf("create sheets client: %w", err)
	}
	engine := sheets.NewEngine(sheetsClient, logger)

	orchestrator := pipeline.New(mailbox, engine, pipeline.Categories(cfg), pipeline.Options{
		BatchSize:      cfg.Processing.BatchSize,
		RateLimitDelay: cfg.Processing.RateLimitDelay,
		DryRun:         cfg.Processing.DryRun,
	}, logger)
	return orchestrator, mailbox, nil
}
