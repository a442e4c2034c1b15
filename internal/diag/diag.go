// Package diag collects generation diagnostics.
package diag

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/pterm/pterm"
	"go.uber.org/zap"

	"faktgen/internal/model"
)

// Severity of a diagnostic.
type Severity int

const (
	Info Severity = iota
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Warning:
		return "warning"
	case Error:
		return "error"
	}
	return "info"
}

// MarshalText encodes the severity by name in JSON and YAML reports.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Diagnostic is one structured message about an interface.
type Diagnostic struct {
	Severity  Severity       `json:"severity" yaml:"severity"`
	Interface string         `json:"interface" yaml:"interface"`
	Member    string         `json:"member,omitempty" yaml:"member,omitempty"`
	Reason    string         `json:"reason" yaml:"reason"`
	Location  model.Location `json:"location" yaml:"location"`
	Hints     []string       `json:"hints,omitempty" yaml:"hints,omitempty"`
}

func (d Diagnostic) String() string {
	var sb strings.Builder
	if loc := d.Location.String(); loc != "" {
		sb.WriteString(loc)
		sb.WriteString(": ")
	}
	sb.WriteString(d.Severity.String())
	sb.WriteString(": ")
	sb.WriteString(d.Interface)
	if d.Member != "" {
		sb.WriteString(".")
		sb.WriteString(d.Member)
	}
	sb.WriteString(": ")
	sb.WriteString(d.Reason)
	return sb.String()
}

// Render formats d for a terminal, colouring by severity.
func (d Diagnostic) Render() string {
	var label string
	switch d.Severity {
	case Error:
		label = pterm.Red(d.Severity.String())
	case Warning:
		label = pterm.Yellow(d.Severity.String())
	default:
		label = pterm.Blue(d.Severity.String())
	}

	subject := d.Interface
	if d.Member != "" {
		subject += "." + d.Member
	}

	msg := fmt.Sprintf("%s %s: %s", label, pterm.Bold.Sprint(subject), d.Reason)
	if loc := d.Location.String(); loc != "" {
		msg = pterm.Gray(loc) + " " + msg
	}
	for _, h := range d.Hints {
		msg += fmt.Sprintf("\n  %s %s", pterm.Green("hint:"), h)
	}
	return msg
}

// Sink accumulates diagnostics from concurrent workers. Each Append stores
// and logs one complete message under the lock, so messages never
// interleave.
type Sink struct {
	mu    sync.Mutex
	log   *zap.Logger
	items []Diagnostic
}

// NewSink returns a sink that also logs every diagnostic to log. A nil
// logger disables logging.
func NewSink(log *zap.Logger) *Sink {
	if log == nil {
		log = zap.NewNop()
	}
	return &Sink{log: log}
}

// Append records d.
func (s *Sink) Append(d Diagnostic) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, d)

	fields := []zap.Field{
		zap.String("interface", d.Interface),
		zap.String("reason", d.Reason),
	}
	if d.Member != "" {
		fields = append(fields, zap.String("member", d.Member))
	}
	if loc := d.Location.String(); loc != "" {
		fields = append(fields, zap.String("location", loc))
	}
	switch d.Severity {
	case Error:
		s.log.Error("diagnostic", fields...)
	case Warning:
		s.log.Warn("diagnostic", fields...)
	default:
		s.log.Info("diagnostic", fields...)
	}
}

// All returns the recorded diagnostics sorted by interface, member,
// severity and reason, which makes reports independent of worker timing.
func (s *Sink) All() []Diagnostic {
	s.mu.Lock()
	out := append([]Diagnostic{}, s.items...)
	s.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Interface != b.Interface {
			return a.Interface < b.Interface
		}
		if a.Member != b.Member {
			return a.Member < b.Member
		}
		if a.Severity != b.Severity {
			return a.Severity > b.Severity
		}
		return a.Reason < b.Reason
	})
	return out
}

// Count returns the number of diagnostics at severity sev.
func (s *Sink) Count(sev Severity) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, d := range s.items {
		if d.Severity == sev {
			n++
		}
	}
	return n
}

// HasErrors reports whether any Error diagnostic was recorded.
func (s *Sink) HasErrors() bool {
	return s.Count(Error) > 0
}
