package main

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"faktgen/internal/errors"
	"faktgen/internal/output"
	"faktgen/internal/pipeline"
)

func (a *app) newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check [inputs...]",
		Short: "Check that generated fakes are up to date",
		Long: `Regenerate in memory and compare checksums with the files on disk.

Nothing is written. The command fails when a generated file is stale or
missing, or when generation recorded errors.`,
		Args: cobra.ArbitraryArgs,
		RunE: a.runCheck,
	}
}

func (a *app) runCheck(cmd *cobra.Command, _ []string) error {
	pc := a.newContext()
	files, err := pipeline.Load(pc)
	if err != nil {
		return err
	}
	res, err := pipeline.Run(cmd.Context(), pc, files)
	if err != nil {
		return err
	}
	printDiagnostics(cmd.ErrOrStderr(), pc)

	results, err := output.Check(a.cfg.Output, res.Artifacts())
	if err != nil {
		return err
	}
	stale := output.OutOfDate(results)
	if len(stale) == 0 {
		pterm.Success.WithWriter(cmd.OutOrStdout()).Printfln("%d generated file(s) up to date", len(results))
		return summary(pc)
	}

	w := cmd.OutOrStdout()
	pterm.Error.WithWriter(w).Printfln("%d generated file(s) out of date", len(stale))
	for _, r := range stale {
		fmt.Fprintf(w, "  %s %s\n", pterm.Yellow(string(r.Status)), r.Path)
	}
	return errors.WithHint(errors.Newf("%d generated file(s) out of date", len(stale)),
		"run faktgen generate to update them")
}
