package migrate

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/log"
)

// Migration upgrades a document from version From to From+1.
type Migration struct {
	From  int
	Name  string
	Apply func(Document) Document
}

// Outcome describes what a Migrate call did.
type Outcome struct {
	From    int
	To      int
	Applied []string
	// Forward is set when the document came from a newer build and was left untouched.
	Forward bool
	// Forced is set when the version was unknown and only the marker was updated.
	Forced bool
}

// Changed reports whether the document differs from its input.
func (o Outcome) Changed() bool {
	return len(o.Applied) > 0 || o.Forced
}

// Pipeline applies registered migrations in ascending order.
type Pipeline struct {
	migrations []Migration
	latest     int
	logger     *log.Logger
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger used for migration progress and warnings.
func WithLogger(logger *log.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New builds a pipeline from migrations. Versions must be unique; the latest
// version is one past the highest registered From.
func New(migrations []Migration, opts ...Option) (*Pipeline, error) {
	sorted := make([]Migration, len(migrations))
	copy(sorted, migrations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].From < sorted[j].From })

	latest := 1
	for i, m := range sorted {
		if m.Apply == nil {
			return nil, fmt.Errorf("migrate: migration from v%d has no transform", m.From)
		}
		if m.From < 1 {
			return nil, fmt.Errorf("migrate: invalid source version %d", m.From)
		}
		if i > 0 && sorted[i-1].From == m.From {
			return nil, fmt.Errorf("migrate: duplicate migration from v%d", m.From)
		}
		latest = m.From + 1
	}

	p := &Pipeline{
		migrations: sorted,
		latest:     latest,
		logger:     log.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p, nil
}

// Default returns the pipeline for the current config schema.
func Default(opts ...Option) *Pipeline {
	p, err := New(Migrations(), opts...)
	if err != nil {
		panic(err)
	}
	return p
}

// Latest returns the version every migrated document ends at.
func (p *Pipeline) Latest() int {
	return p.latest
}

// Migrate returns an upgraded copy of doc. The input is never modified.
func (p *Pipeline) Migrate(doc Document) (Document, Outcome) {
	out := Clone(doc)
	if out == nil {
		out = Document{}
	}

	from, known := version(out)
	outcome := Outcome{From: from, To: from}

	switch {
	case !known:
		p.logger.Warn("config version is not a whole number, forcing latest",
			"value", out[VersionKey], "latest", p.latest)
		out[VersionKey] = float64(p.latest)
		outcome.To = p.latest
		outcome.Forced = true
		return out, outcome

	case from > p.latest:
		p.logger.Warn("config was written by a newer build, loading as-is",
			"version", from, "latest", p.latest)
		outcome.Forward = true
		return out, outcome

	case from == p.latest:
		return out, outcome
	}

	if !p.registered(from) {
		p.logger.Warn("no migration registered for config version, forcing latest",
			"version", from, "latest", p.latest)
		out[VersionKey] = float64(p.latest)
		outcome.To = p.latest
		outcome.Forced = true
		return out, outcome
	}

	for _, m := range p.migrations {
		if m.From < from {
			continue
		}
		out = m.Apply(out)
		if out == nil {
			out = Document{}
		}
		outcome.Applied = append(outcome.Applied, m.Name)
		p.logger.Info("migrated config", "from", m.From, "to", m.From+1, "step", m.Name)
	}

	out[VersionKey] = float64(p.latest)
	outcome.To = p.latest
	return out, outcome
}

func (p *Pipeline) registered(v int) bool {
	for _, m := range p.migrations {
		if m.From == v {
			return true
		}
	}
	return false
}
