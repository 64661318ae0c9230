package insights

import (
	"context"
	"log/slog"

	"govseal/pkg/domain"
)

// LogGenerator stands in for the external insight producer until its
// transport is wired; it records the trigger so operators can follow up.
type LogGenerator struct {
	log *slog.Logger
}

func NewLogGenerator(log *slog.Logger) *LogGenerator {
	if log == nil {
		log = slog.Default()
	}
	return &LogGenerator{log: log}
}

func (g *LogGenerator) Generate(ctx context.Context, id domain.AssessmentID) {
	g.log.InfoContext(ctx, "insight generation triggered",
		"assessment_id", id.String(),
	)
}
