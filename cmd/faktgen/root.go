package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"faktgen/internal/config"
	"faktgen/internal/diag"
	"faktgen/internal/errors"
	"faktgen/internal/logger"
	"faktgen/internal/pipeline"
)

// app holds the state shared by every command of one invocation.
type app struct {
	configFile string
	verbosity  int

	cfg *config.Config
	log *zap.Logger
}

// flagKeys binds persistent flags to configuration keys.
var flagKeys = map[string]string{
	"output":   "output",
	"workers":  "workers",
	"json-log": "log.json",
	"strict":   "options.strict",
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "faktgen [inputs...]",
		Short: "Generate Kotlin fakes from interface declarations",
		Long: `Generate configurable fakes for Kotlin interfaces.

faktgen reads declaration files (YAML, JSON or TOML) and writes three sources
per interface: the FakeXImpl class, the fakeX factory and the FakeXConfig DSL.
Generic interfaces keep their type parameters, bounds and variance.

Inputs are doublestar globs. Without arguments the inputs from the config
file are used.

Examples:
  faktgen                                  # generate using faktgen.yaml
  faktgen 'decls/**/*.yaml' -o build/fakes # explicit inputs and output
  faktgen check                            # fail when generated files are stale
  faktgen watch -v                         # regenerate on declaration changes`,
		Args:              cobra.ArbitraryArgs,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		RunE:              a.runGenerate,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configFile, "config", "c", "", "config file (default: ./faktgen.{yaml,json,toml})")
	flags.CountVarP(&a.verbosity, "verbose", "v", "increase log verbosity (-v, -vv)")
	flags.Bool("json-log", false, "log as JSON")
	flags.StringP("output", "o", config.DefaultOutput, "output directory")
	flags.IntP("workers", "w", 0, "parallel workers (default: number of CPUs)")
	flags.Bool("strict", false, "reject unknown fields in declaration files")

	root.Flags().String("report", "", "write a run report (.json or .yaml) to this path")

	root.AddCommand(a.newGenerateCmd(), a.newCheckCmd(), a.newWatchCmd())
	return root
}

// setup loads configuration and builds the logger before any command runs.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	v, err := config.NewViper(a.configFile)
	if err != nil {
		return err
	}
	if err := bindFlags(v, cmd); err != nil {
		return err
	}

	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	if len(args) > 0 {
		cfg.Inputs = args
	}

	level := logger.VerbosityToLevel(a.verbosity)
	if a.verbosity == logger.VerbosityUser && v.InConfig("log") {
		level = cfg.Log.Level
	}
	log, err := logger.New(logger.Options{Level: level, JSON: cfg.Log.JSON, Output: cmd.ErrOrStderr()})
	if err != nil {
		return errors.Wrap(err, "log.level")
	}

	a.cfg = cfg
	a.log = log
	return nil
}

func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	for name, key := range flagKeys {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return errors.Wrapf(err, "binding --%s", name)
		}
	}
	return nil
}

// newContext starts a run with a fresh id and diagnostics sink.
func (a *app) newContext() *pipeline.Context {
	return pipeline.NewContext(a.cfg, a.log)
}

// printDiagnostics renders every diagnostic of pc to w.
func printDiagnostics(w io.Writer, pc *pipeline.Context) {
	for _, d := range pc.Sink.All() {
		fmt.Fprintln(w, d.Render())
	}
}

// summary is the error returned when a run recorded errors.
func summary(pc *pipeline.Context) error {
	if n := pc.Sink.Count(diag.Error); n > 0 {
		return errors.WithHint(errors.Newf("generation finished with %d error(s)", n),
			"fix the declarations reported above, or exclude them with options.exclude_types")
	}
	return nil
}
