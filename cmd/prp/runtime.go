package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/prp-express/constants"
	"github.com/joseph-ayodele/prp-express/internal/async"
	"github.com/joseph-ayodele/prp-express/internal/common"
	"github.com/joseph-ayodele/prp-express/internal/llm"
	"github.com/joseph-ayodele/prp-express/internal/llm/provider"
	"github.com/joseph-ayodele/prp-express/internal/session"
)

// runtime is the wiring shared by build and watch.
type runtime struct {
	cfg    *common.Config
	logger *slog.Logger
	collab llm.Collaborator
	queue  *async.ExtractionQueue
	store  *session.Store
}

func newRuntime(ctx context.Context, g *globalFlags, subject string) (*runtime, error) {
	cfg := common.LoadConfig()
	if g.configPath != "" {
		var err error
		if cfg, err = common.LoadFromFile(g.configPath); err != nil {
			return nil, err
		}
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	if g.logFormat != "" {
		cfg.Log.Format = g.logFormat
	}
	if err := cfg.Validate(true); err != nil {
		return nil, err
	}

	logger := common.NewLogger(cfg.Log, os.Stderr)
	slog.SetDefault(logger)

	collab, err := provider.New(ctx, cfg.LLM, logger)
	if err != nil {
		return nil, fmt.Errorf("llm provider: %w", err)
	}
	queue := async.NewExtractionQueue(collab, logger,
		async.WithWorkers(cfg.Queue.Workers),
		async.WithQueueSize(cfg.Queue.Size),
		async.WithProcessTimeout(cfg.Queue.Timeout),
	)
	store := session.NewStore(queue, collab, logger)
	store.SetSubject(strings.TrimSpace(subject))

	logger.Info("prp.start", "provider", cfg.LLM.Provider, "subject", store.Subject(), "workers", cfg.Queue.Workers)
	return &runtime{cfg: cfg, logger: logger, collab: collab, queue: queue, store: store}, nil
}

func (r *runtime) close(ctx context.Context) {
	r.queue.Shutdown(ctx)
}

// fieldDefaults are values typed once for the whole class.
type fieldDefaults struct {
	teacher  string
	taking   string
	proposal string
	plan     string
}

func (d fieldDefaults) values() (map[constants.Field]string, error) {
	out := map[constants.Field]string{}
	if v := strings.TrimSpace(d.teacher); v != "" {
		out[constants.ResponsibleTeacher] = v
	}
	if v := strings.ToUpper(strings.TrimSpace(d.taking)); v != "" {
		if v != constants.TakingYes && v != constants.TakingNo {
			return nil, fmt.Errorf("--taking must be %s or %s", constants.TakingYes, constants.TakingNo)
		}
		out[constants.IsTakingSubject] = v
	}
	if v := strings.TrimSpace(d.proposal); v != "" {
		out[constants.MethodologicalProposal] = v
	}
	if v := strings.TrimSpace(d.plan); v != "" {
		out[constants.DetailedEvaluationPlan] = v
	}
	return out, nil
}

// applyTo writes the defaults onto one record.
func (d fieldDefaults) applyTo(store *session.Store, id uuid.UUID) error {
	vals, err := d.values()
	if err != nil {
		return err
	}
	for f, v := range vals {
		store.UpdateField(id, f, v)
	}
	return nil
}

func parseID(id string) uuid.UUID {
	u, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil
	}
	return u
}
