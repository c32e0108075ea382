package main

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Ntqsdigital/renewal/internal/config"
	"github.com/Ntqsdigital/renewal/internal/fetcher"
	"github.com/Ntqsdigital/renewal/internal/ledger"
	"github.com/Ntqsdigital/renewal/internal/mailer"
	"github.com/Ntqsdigital/renewal/internal/pipeline"
)

var runKeywordsPath string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the reminder pipeline once",
	Long:  "Fetches the agreements workbook, extracts agreements and sends every reminder the ledger has not recorded yet. Intended to be invoked by an external scheduler; concurrent invocations are not supported.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		opts, err := pipelineOptions(cfg, runKeywordsPath)
		if err != nil {
			return err
		}

		led, err := ledger.Open(ctx, cfg.Ledger)
		if err != nil {
			return eris.Wrap(err, "open ledger")
		}
		defer led.Close() //nolint:errcheck

		deps := pipeline.Deps{
			Rows:   &workbookRows{cfg: cfg.Source},
			Ledger: led,
			Mailer: mailer.NewSMTP(mailer.SMTPOptions{
				Host:     cfg.SMTP.Host,
				Port:     cfg.SMTP.Port,
				Username: cfg.SMTP.Sender,
				Password: cfg.SMTP.Password,
			}),
		}

		report, err := pipeline.Run(ctx, deps, opts)
		if err != nil {
			return eris.Wrap(err, "run pipeline")
		}

		zap.L().Info("pipeline finished",
			zap.String("run_id", report.RunID),
			zap.Int("sent", report.Sent),
			zap.Int("suppressed", report.Suppressed),
			zap.Int("failed", report.Failed),
		)
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runKeywordsPath, "keywords", "", "path to a role keywords YAML file")
	rootCmd.AddCommand(runCmd)
}

// workbookRows adapts the fetch+decode steps to the pipeline's RowSource.
type workbookRows struct {
	cfg config.SourceConfig
}

func (w *workbookRows) Rows(ctx context.Context) ([][]string, error) {
	path, err := fetcher.NewSource(w.cfg).Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return fetcher.ReadXLSX(path, fetcher.XLSXOptions{SheetName: w.cfg.Sheet})
}

// pipelineOptions resolves run policy from config plus an optional
// keywords file given on the command line.
func pipelineOptions(cfg *config.Config, keywordsPath string) (pipeline.Options, error) {
	extra := make(map[pipeline.Role][]string)
	for role, kws := range cfg.Columns.Keywords {
		extra[pipeline.Role(role)] = kws
	}

	for _, path := range []string{cfg.Columns.KeywordsFile, keywordsPath} {
		if path == "" {
			continue
		}
		loaded, err := pipeline.LoadKeywords(path)
		if err != nil {
			return pipeline.Options{}, err
		}
		for role, kws := range loaded {
			extra[role] = append(extra[role], kws...)
		}
	}

	return pipeline.Options{
		Sender:            cfg.SMTP.Sender,
		DefaultRecipients: cfg.Recipients(),
		ExtraKeywords:     extra,
		DayFirst:          cfg.Columns.DayFirst,
		MaxHeaderScan:     cfg.Columns.MaxHeaderScan,
		NotifyExpired:     cfg.Notify.NotifyExpired,
		DueWindows:        cfg.Notify.DueWindows,
		EveningHour:       cfg.Notify.EveningHour,
		Confirmation:      cfg.Notify.Confirmation,
	}, nil
}
