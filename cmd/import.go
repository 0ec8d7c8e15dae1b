package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/aries-import/internal/aries"
	"github.com/sells-group/aries-import/internal/loader"
	"github.com/sells-group/aries-import/internal/report"
	"github.com/sells-group/aries-import/internal/store"
)

var (
	importPath      string
	importProject   string
	importScenario  string
	importQualifier string
	importDryRun    bool
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import an AC_ECONOMIC XLSX export",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		scenario := importScenario
		if scenario == "" {
			scenario = cfg.Import.Scenario
		}
		qualifier := importQualifier
		if qualifier == "" {
			qualifier = cfg.Import.Qualifier
		}

		export, err := loader.LoadExport(importPath, loader.Options{Qualifier: qualifier})
		if err != nil {
			return eris.Wrap(err, "load export")
		}
		zap.L().Info("export loaded",
			zap.String("path", importPath),
			zap.Int("wells", len(export.Wells)),
			zap.Int("records", export.RecordCount()),
		)

		baseDate, err := cfg.Import.BaseDateTime()
		if err != nil {
			return eris.Wrap(err, "base date")
		}
		asOfDate, err := cfg.Import.AsOfDateTime()
		if err != nil {
			return eris.Wrap(err, "as-of date")
		}

		settings := aries.ProjectSettings{
			ScenarioID:        scenario,
			BaseDate:          baseDate,
			AsOfDate:          asOfDate,
			DefaultLeaseNRI:   cfg.Import.DefaultLeaseNRI,
			Lookups:           export.Lookups,
			CustomEscalations: export.CustomEscalations,
		}
		if importProject != "" {
			pf, err := loader.LoadProjectFile(importProject)
			if err != nil {
				return eris.Wrap(err, "load project file")
			}
			pf.Apply(&settings, export)
		}

		orch := aries.NewOrchestrator(settings)

		// Extraction shares the project-wide dedup lists, so wells go
		// through one at a time.
		for _, well := range export.Wells {
			orch.ProcessWell(aries.WellInput{
				PropNum:   well.PropNum,
				Qualifier: well.Qualifier,
				Records:   well.Records,
			})
		}

		batch, err := orch.Finalize()
		if err != nil {
			return eris.Wrap(err, "finalize batch")
		}

		docs, err := store.FlattenBatch(batch)
		if err != nil {
			return eris.Wrap(err, "flatten documents")
		}

		rep := report.Build(scenario, len(export.Wells), len(docs), batch.Errors)

		if importDryRun {
			rep.WriteText(os.Stdout)
			return nil
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return err
		}

		run, err := st.CreateRun(ctx, scenario)
		if err != nil {
			return err
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			n, err := st.UpsertDocuments(gctx, docs)
			if err != nil {
				return err
			}
			zap.L().Info("documents persisted", zap.Int64("count", n))
			return nil
		})
		g.Go(func() error {
			return st.SaveImportErrors(gctx, run.ID, batch.Errors)
		})
		if err := g.Wait(); err != nil {
			_ = st.CompleteRun(ctx, run.ID, store.RunStatusFailed, nil)
			return eris.Wrap(err, "persist batch")
		}

		summary := &store.RunSummary{
			Wells:     rep.Wells,
			Documents: rep.Documents,
			Errors:    rep.Errors,
			Warnings:  rep.Warnings,
		}
		if err := st.CompleteRun(ctx, run.ID, store.RunStatusComplete, summary); err != nil {
			return err
		}

		rep.WriteText(os.Stdout)
		zap.L().Info("import complete",
			zap.String("run", run.ID),
			zap.String("scenario", scenario),
			zap.Int("documents", rep.Documents),
			zap.Int("errors", rep.Errors),
			zap.Int("warnings", rep.Warnings),
		)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importPath, "file", "", "path to the XLSX export (required)")
	importCmd.Flags().StringVar(&importProject, "project", "", "optional YAML project file (backups, extra lookups)")
	importCmd.Flags().StringVar(&importScenario, "scenario", "", "scenario id (default from config)")
	importCmd.Flags().StringVar(&importQualifier, "qualifier", "", "keyword qualifier filter (default from config)")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "extract and report without persisting")
	_ = importCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd)
}
