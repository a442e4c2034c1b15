package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"faktgen/internal/errors"
	"faktgen/internal/output"
	"faktgen/internal/pipeline"
)

func (a *app) newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate [inputs...]",
		Short: "Generate fakes (the default command)",
		Args:  cobra.ArbitraryArgs,
		RunE:  a.runGenerate,
	}
	cmd.Flags().String("report", "", "write a run report (.json or .yaml) to this path")
	return cmd
}

func (a *app) runGenerate(cmd *cobra.Command, _ []string) error {
	pc := a.newContext()
	res, err := a.generate(cmd, pc)
	if err != nil {
		return err
	}

	if path, _ := cmd.Flags().GetString("report"); path != "" {
		if err := writeReport(path, res.Report(pc)); err != nil {
			return err
		}
	}
	return summary(pc)
}

// generate runs the pipeline and writes its artifacts.
func (a *app) generate(cmd *cobra.Command, pc *pipeline.Context) (*pipeline.Result, error) {
	files, err := pipeline.Load(pc)
	if err != nil {
		return nil, err
	}
	res, err := pipeline.Run(cmd.Context(), pc, files)
	if err != nil {
		return nil, err
	}
	printDiagnostics(cmd.ErrOrStderr(), pc)

	written, err := output.Write(a.cfg.Output, res.Artifacts())
	if err != nil {
		return nil, err
	}
	for _, path := range written {
		a.log.Debug("wrote", zap.String("path", path))
	}

	pterm.Success.WithWriter(cmd.OutOrStdout()).Printfln("%d file(s) written, %d unchanged, in %s",
		len(written), len(res.Artifacts())-len(written), a.cfg.Output)
	return res, nil
}

func writeReport(path string, rep pipeline.Report) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = rep.YAML()
	case ".json":
		data, err = rep.JSON()
	default:
		return errors.WithHint(errors.Newf("unknown report format %q", filepath.Ext(path)),
			"use a .json, .yaml or .yml file name")
	}
	if err != nil {
		return errors.Wrap(err, "encoding report")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "writing report %s", path)
	}
	return nil
}
