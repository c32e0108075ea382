package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Ntqsdigital/renewal/internal/ledger"
	"github.com/Ntqsdigital/renewal/internal/model"
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect and maintain the sent-reminder ledger",
}

var ledgerListLimit int

var ledgerListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show recent sent-reminder records",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		led, err := ledger.Open(ctx, cfg.Ledger)
		if err != nil {
			return eris.Wrap(err, "open ledger")
		}
		defer led.Close() //nolint:errcheck

		records, err := led.List(ctx, ledgerListLimit)
		if err != nil {
			return eris.Wrap(err, "list ledger")
		}

		if len(records) == 0 {
			zap.L().Info("ledger is empty")
			return nil
		}

		formatLedger(os.Stdout, records)
		return nil
	},
}

var ledgerPruneBefore string

var ledgerPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete records for expiry dates in the past",
	Long:  "Removes ledger records whose expiry date is before the given day (default: today). Ledger records for past expiries can never suppress a future send, so pruning them is always safe.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		before := time.Now().UTC()
		if ledgerPruneBefore != "" {
			parsed, err := time.Parse("2006-01-02", ledgerPruneBefore)
			if err != nil {
				return eris.Wrapf(err, "invalid --before value %q", ledgerPruneBefore)
			}
			before = parsed
		}

		led, err := ledger.Open(ctx, cfg.Ledger)
		if err != nil {
			return eris.Wrap(err, "open ledger")
		}
		defer led.Close() //nolint:errcheck

		n, err := led.Prune(ctx, before)
		if err != nil {
			return eris.Wrap(err, "prune ledger")
		}

		zap.L().Info("ledger pruned",
			zap.Int("deleted", n),
			zap.String("before", before.Format("2006-01-02")),
		)
		return nil
	},
}

func init() {
	ledgerListCmd.Flags().IntVar(&ledgerListLimit, "limit", 50, "maximum records to show")
	ledgerPruneCmd.Flags().StringVar(&ledgerPruneBefore, "before", "", "delete records with expiry before this date (YYYY-MM-DD)")
	ledgerCmd.AddCommand(ledgerListCmd)
	ledgerCmd.AddCommand(ledgerPruneCmd)
	rootCmd.AddCommand(ledgerCmd)
}

func formatLedger(w io.Writer, records []model.SentRecord) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "EMAIL\tEXPIRY\tTAG\tSENT AT")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Email, r.Expiry, r.Tag, r.SentAt.Format(time.RFC3339))
	}
	tw.Flush()
}
