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

	"github.com/Ntqsdigital/renewal/internal/model"
	"github.com/Ntqsdigital/renewal/internal/pipeline"
)

var (
	previewKeywordsPath string
	previewToday        string
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Dry-run schema detection and bucket classification",
	Long:  "Fetches and extracts the workbook exactly like 'run' but sends nothing and touches no ledger; prints the detected header, column roles and per-bucket counts.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		opts, err := pipelineOptions(cfg, previewKeywordsPath)
		if err != nil {
			return err
		}

		today := pipeline.DateOnly(time.Now())
		if previewToday != "" {
			parsed, ok := pipeline.ParseDate(previewToday, opts.DayFirst)
			if !ok {
				return eris.Errorf("invalid --today value %q", previewToday)
			}
			today = parsed
		}

		rows, err := (&workbookRows{cfg: cfg.Source}).Rows(ctx)
		if err != nil {
			return eris.Wrap(err, "load workbook")
		}
		if len(rows) == 0 {
			return eris.New("workbook contains no rows")
		}

		headerIdx, confident := pipeline.LocateHeader(rows, opts.MaxHeaderScan)
		if !confident {
			zap.L().Warn("no header row detected, treating row 0 as header")
		}

		roles, err := pipeline.ClassifyColumns(rows[headerIdx], opts.ExtraKeywords)
		if err != nil {
			return err
		}

		defaultEmail := ""
		if len(opts.DefaultRecipients) > 0 {
			defaultEmail = opts.DefaultRecipients[0]
		}
		agreements, skipped := pipeline.Extract(rows, headerIdx, roles, pipeline.ExtractOptions{
			DefaultEmail: defaultEmail,
			DayFirst:     opts.DayFirst,
		})

		buckets := make(map[string]int)
		for _, a := range agreements {
			b := pipeline.ClassifyBucketPolicy(a.ExpiryDate, today, opts.NotifyExpired)
			if b.Notify() {
				buckets[b.Tag(model.WindowDue)]++
			}
		}

		formatPreview(os.Stdout, headerIdx, roles, len(agreements), skipped, today, buckets)
		return nil
	},
}

func init() {
	previewCmd.Flags().StringVar(&previewKeywordsPath, "keywords", "", "path to a role keywords YAML file")
	previewCmd.Flags().StringVar(&previewToday, "today", "", "classify against this date instead of today (YYYY-MM-DD)")
	rootCmd.AddCommand(previewCmd)
}

func formatPreview(w io.Writer, headerIdx int, roles pipeline.RoleMap, agreements, skipped int, today time.Time, buckets map[string]int) {
	fmt.Fprintf(w, "Header row: %d\n\n", headerIdx)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ROLE\tCOLUMN")
	for _, role := range []pipeline.Role{
		pipeline.RoleExpiry, pipeline.RoleEmail, pipeline.RoleName,
		pipeline.RoleFile, pipeline.RolePath, pipeline.RoleService, pipeline.RoleBusiness,
	} {
		if ref, ok := roles[role]; ok {
			fmt.Fprintf(tw, "%s\t%s\n", role, ref.Name)
		}
	}
	tw.Flush()

	fmt.Fprintf(w, "\nAgreements: %d (skipped rows: %d)\n", agreements, skipped)
	fmt.Fprintf(w, "As of %s:\n", today.Format("2006-01-02"))
	if len(buckets) == 0 {
		fmt.Fprintln(w, "  no agreements in any reminder bucket")
		return
	}
	for tag, n := range buckets {
		fmt.Fprintf(w, "  %s: %d\n", tag, n)
	}
}
