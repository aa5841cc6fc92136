package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"cyberlaw-backend/app"
	"cyberlaw-backend/classifier"
	"cyberlaw-backend/config"
	"cyberlaw-backend/logging"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type cli struct {
	out    io.Writer
	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd(out io.Writer) *cobra.Command {
	c := &cli{out: out}

	root := &cobra.Command{
		Use:           "lawctl",
		Short:         "Classify cyber-law queries and manage the classifier",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			logger, err := logging.New(cfg.LogLevel, "console")
			if err != nil {
				return err
			}
			c.cfg = cfg
			c.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}
	root.SetOut(out)

	root.AddCommand(
		c.predictCmd(),
		c.trainCmd(),
		c.resetModelCmd(),
		c.sectionsCmd(),
	)
	return root
}

func (c *cli) predictCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "predict <query...>",
		Short: "Predict the law section for a query and write the report",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.Build(cmd.Context(), c.cfg, c.logger, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			outcome, err := a.Predictions.PredictAndRender(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}

			enc := json.NewEncoder(c.out)
			enc.SetIndent("", "  ")
			if err := enc.Encode(outcome.Result); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Report written to %s\n", outcome.ReportPath)
			return nil
		},
	}
}

func (c *cli) trainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "train",
		Short: "Retrain the classifier from the law table and overwrite the cached model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			laws, err := app.LoadLaws(cmd.Context(), c.cfg, c.logger)
			if err != nil {
				return err
			}
			store, err := app.OpenStore(c.cfg)
			if err != nil {
				return err
			}

			model, err := classifier.Train(laws.TrainingExamples(), classifier.Options{
				MaxIterations: c.cfg.ModelMaxIterations,
				Logger:        c.logger,
			})
			if err != nil {
				return err
			}
			location, err := classifier.Save(cmd.Context(), store, c.cfg.ModelKey, model)
			if err != nil {
				return err
			}

			fmt.Fprintf(c.out, "Trained %d classes on %d rows, saved to %s\n", len(model.Classes()), laws.Len(), location)
			return nil
		},
	}
}

func (c *cli) resetModelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset-model",
		Short: "Delete the cached classifier so the next start retrains",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.OpenStore(c.cfg)
			if err != nil {
				return err
			}
			if err := store.Delete(cmd.Context(), c.cfg.ModelKey); err != nil {
				return fmt.Errorf("failed to delete model: %w", err)
			}
			fmt.Fprintf(c.out, "Removed %s\n", c.cfg.ModelKey)
			return nil
		},
	}
}

func (c *cli) sectionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sections",
		Short: "List the law sections in the reference table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			laws, err := app.LoadLaws(cmd.Context(), c.cfg, c.logger)
			if err != nil {
				return err
			}

			table := tablewriter.NewWriter(c.out)
			table.Header([]string{"Section", "Case Type", "Offense"})
			for _, e := range laws.Entries() {
				if err := table.Append([]string{e.Section, e.CaseType, e.Offense}); err != nil {
					return err
				}
			}
			return table.Render()
		},
	}
}
