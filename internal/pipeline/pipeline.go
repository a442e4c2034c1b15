// Package pipeline runs every stage of fake generation over a set of
// declaration files.
//
// Each interface is processed by its own worker. Workers share nothing
// except the diagnostics sink, so a malformed or unsupported interface never
// affects its siblings. A fatal error cancels the whole run.
package pipeline

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"faktgen/internal/analyzer"
	"faktgen/internal/classifier"
	"faktgen/internal/config"
	"faktgen/internal/decl"
	"faktgen/internal/diag"
	"faktgen/internal/edgecase"
	"faktgen/internal/errors"
	"faktgen/internal/generator"
	"faktgen/internal/model"
	"faktgen/internal/parser"
	"faktgen/internal/substitution"
)

// Context carries what every stage needs for one run.
type Context struct {
	Config *config.Config
	Logger *zap.Logger
	Sink   *diag.Sink
	RunID  uuid.UUID
}

// NewContext creates a run context with a fresh run id. A nil logger
// disables logging.
func NewContext(cfg *config.Config, log *zap.Logger) *Context {
	if log == nil {
		log = zap.NewNop()
	}
	id := uuid.New()
	log = log.With(zap.String("run", id.String()))
	return &Context{
		Config: cfg,
		Logger: log,
		Sink:   diag.NewSink(log),
		RunID:  id,
	}
}

// Load parses the configured input files.
func Load(pc *Context) ([]*decl.File, error) {
	p := parser.New()
	p.Strict = pc.Config.Options.Strict
	files, err := p.ParseAll(pc.Config.Inputs)
	if err != nil {
		return nil, err
	}
	pc.Logger.Debug("loaded declaration files", zap.Int("files", len(files)))
	return files, nil
}

// Outcome is the result for one interface.
type Outcome struct {
	Interface string
	Package   string
	Pattern   classifier.Pattern

	// Artifacts is nil when the interface was skipped.
	Artifacts *generator.Artifacts
}

// Skipped reports whether no artifacts were produced.
func (o Outcome) Skipped() bool {
	return o.Artifacts == nil
}

// Result is the outcome of a run, in input order.
type Result struct {
	RunID    uuid.UUID
	Outcomes []Outcome
}

// Artifacts returns every generated artifact in input order.
func (r *Result) Artifacts() []generator.Artifact {
	var out []generator.Artifact
	for _, o := range r.Outcomes {
		if o.Artifacts != nil {
			out = append(out, o.Artifacts.All()...)
		}
	}
	return out
}

type job struct {
	index int
	pkg   string
	raw   decl.Interface
}

// Run generates fakes for every interface in files that passes the
// include and exclude filters. The returned error is non-nil only for
// fatal failures and cancellation; per-interface failures become
// diagnostics.
func Run(ctx context.Context, pc *Context, files []*decl.File) (*Result, error) {
	gen, err := generator.New(generator.Options{Header: pc.Config.Options.Header})
	if err != nil {
		return nil, err
	}

	var jobs []job
	for _, f := range files {
		for _, raw := range f.Interfaces {
			if !pc.Config.ShouldIncludeType(raw.Name) {
				pc.Logger.Debug("interface filtered out", zap.String("interface", raw.Name))
				continue
			}
			if raw.Location.File == "" {
				raw.Location.File = f.Path
			}
			jobs = append(jobs, job{index: len(jobs), pkg: f.Package, raw: raw})
		}
	}

	outcomes := make([]Outcome, len(jobs))
	an := analyzer.New(pc.Config)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers(pc.Config))

	for _, j := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out, err := process(pc, an, gen, j)
			if err != nil {
				return err
			}
			outcomes[j.index] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{RunID: pc.RunID, Outcomes: outcomes}
	pc.Logger.Info("run finished",
		zap.Int("interfaces", len(jobs)),
		zap.Int("artifacts", len(res.Artifacts())),
		zap.Int("errors", pc.Sink.Count(diag.Error)),
		zap.Int("warnings", pc.Sink.Count(diag.Warning)))
	return res, nil
}

func workers(cfg *config.Config) int {
	if cfg.Workers <= 0 {
		return 1
	}
	return cfg.Workers
}

// process runs one interface through every stage. Only fatal errors are
// returned.
func process(pc *Context, an *analyzer.Analyzer, gen *generator.Generator, j job) (Outcome, error) {
	log := pc.Logger.With(zap.String("interface", j.raw.Name))
	out := Outcome{Interface: j.raw.Name, Package: j.pkg}

	m, err := an.Analyze(j.raw, j.pkg)
	if err != nil {
		return out, skip(pc, j, err)
	}

	c := classifier.Classify(m)
	out.Pattern = c.Pattern
	log.Debug("classified", zap.Stringer("pattern", c.Pattern), zap.String("reason", c.Reason))

	notes, err := edgecase.Prepare(m, c, pc.Config.Options.RecursiveBounds)
	if err != nil {
		return out, skip(pc, j, err)
	}
	for _, d := range notes {
		pc.Sink.Append(d)
	}
	// Prepare rescued any unsupported shape it did not reject.
	out.Pattern = c.Base

	plan, err := substitution.NewPlan(m)
	if err != nil {
		return out, skip(pc, j, err)
	}
	log.Debug("planned", zap.Int("methods", len(plan.Methods)))

	arts, err := gen.Generate(generator.Input{Model: m, Classification: c, Plan: plan})
	if err != nil {
		return out, skip(pc, j, err)
	}
	for _, d := range arts.Notes {
		pc.Sink.Append(d)
	}

	log.Info("generated", zap.String("path", arts.Implementation.Path))
	out.Artifacts = arts
	return out, nil
}

// skip records err as a diagnostic for the interface of j. Fatal errors
// are returned so the run stops.
func skip(pc *Context, j job, err error) error {
	if errors.IsFatal(err) {
		return errors.Wrapf(err, "generating %s", j.raw.Name)
	}
	d := diag.Diagnostic{
		Severity:  diag.Error,
		Interface: j.raw.Name,
		Member:    errors.Member(err),
		Reason:    err.Error(),
		Location:  model.Location{File: j.raw.Location.File, Line: j.raw.Location.Line, Column: j.raw.Location.Column},
		Hints:     errors.GetAllHints(err),
	}
	if errors.Is(err, errors.ErrUnsupportedPattern) {
		d.Severity = diag.Warning
		d.Reason = "skipped: " + d.Reason
	}
	pc.Sink.Append(d)
	return nil
}

// Report is the machine-readable summary of a run.
type Report struct {
	RunID       string            `json:"runId" yaml:"runId"`
	Generated   []string          `json:"generated" yaml:"generated"`
	Skipped     []string          `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Files       []string          `json:"files" yaml:"files"`
	Diagnostics []diag.Diagnostic `json:"diagnostics" yaml:"diagnostics"`
}

// Report summarizes res with the diagnostics recorded in pc.
func (r *Result) Report(pc *Context) Report {
	rep := Report{
		RunID:       r.RunID.String(),
		Generated:   []string{},
		Files:       []string{},
		Diagnostics: pc.Sink.All(),
	}
	for _, o := range r.Outcomes {
		if o.Skipped() {
			rep.Skipped = append(rep.Skipped, o.Interface)
			continue
		}
		rep.Generated = append(rep.Generated, o.Interface)
		for _, a := range o.Artifacts.All() {
			rep.Files = append(rep.Files, a.Path)
		}
	}
	if rep.Diagnostics == nil {
		rep.Diagnostics = []diag.Diagnostic{}
	}
	return rep
}

// JSON encodes the report with indentation.
func (r Report) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// YAML encodes the report as YAML.
func (r Report) YAML() ([]byte, error) {
	return yaml.Marshal(r)
}
