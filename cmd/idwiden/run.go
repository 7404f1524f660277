package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/koustreak/idwiden/internal/engine"
	"github.com/koustreak/idwiden/internal/report"
	"github.com/koustreak/idwiden/internal/walker"
)

func newRunCmd(a *app) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "run [roots...]",
		Short: "Rewrite matching declarations in place",
		Long: `Scan the roots (default: the configured model directories) and rewrite
every identifier declaration whose target type is long. Files that fail are
reported and left untouched; the exit status is 1 if any file failed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("dry-run") {
				a.cfg.DryRun = dryRun
			}
			sum, err := a.execute(cmd, args)
			if err != nil {
				return err
			}
			if !sum.OK() {
				return &exitError{code: exitFailed}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Report changes without writing any file")
	return cmd
}

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check [roots...]",
		Short: "Dry run; exit 2 when declarations still need widening",
		RunE: func(cmd *cobra.Command, args []string) error {
			a.cfg.DryRun = true
			sum, err := a.execute(cmd, args)
			if err != nil {
				return err
			}
			switch {
			case !sum.OK():
				return &exitError{code: exitFailed}
			case sum.TotalChanges > 0:
				return &exitError{code: exitPending}
			}
			return nil
		},
	}
}

// execute runs the whole pipeline: catalog, walk, engine, summary, sinks.
func (a *app) execute(cmd *cobra.Command, args []string) (*report.Summary, error) {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cat, err := a.loadCatalog(ctx)
	if err != nil {
		return nil, err
	}

	roots := a.cfg.Roots
	if len(args) > 0 {
		roots = args
	}
	files, err := walker.Walk(roots, walker.Options{Extensions: a.cfg.Extensions, Log: a.log})
	if err != nil {
		return nil, err
	}

	eng := engine.New(cat, &engine.Config{Workers: a.cfg.Workers, DryRun: a.cfg.DryRun}, a.log)
	sum, runErr := eng.Run(ctx, files)

	out := cmd.OutOrStdout()
	if err := sum.WriteText(out); err != nil {
		return nil, err
	}

	// Publish even a partial summary: it lists what was already written.
	if err := a.publish(context.WithoutCancel(ctx), sum); err != nil {
		a.log.WarnWith("publishing report failed", err, map[string]any{"run_id": sum.RunID})
		if runErr == nil {
			runErr = err
		}
	}
	if runErr != nil {
		return nil, runErr
	}

	if !sum.DryRun && sum.FilesModified > 0 && a.cfg.RebuildHint != "" {
		fmt.Fprintf(out, "\n⚠️  Please rebuild the project:\n   %s\n", a.cfg.RebuildHint)
	}
	return sum, nil
}
