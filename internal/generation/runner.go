package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"lectern/internal/config"
	"lectern/internal/logging"
	"lectern/internal/phase"
	"lectern/internal/plan"
	"lectern/internal/services"
)

// PlanStore is the persistence surface the executors need. Executors are the
// only writers of plan documents; the engine itself never mutates them.
type PlanStore interface {
	Load(ctx context.Context, id string) (*plan.Plan, error)
	Save(ctx context.Context, p *plan.Plan) error
}

// Runner routes phase execution requests to the matching synthesis routine.
// It implements the executor contract consumed by the repair engine.
type Runner struct {
	store  PlanStore
	client *Client
	logger *slog.Logger
}

// NewRunner constructs the default executor set from configuration.
func NewRunner(cfg *config.Config, store PlanStore, logger *slog.Logger) *Runner {
	client := NewClient(cfg.Generation.APIKey,
		WithBaseURL(cfg.Generation.BaseURL),
		WithModel(cfg.Generation.Model),
		WithTimeout(cfg.GenerationTimeout()),
	)
	return &Runner{
		store:  store,
		client: client,
		logger: logging.NewComponentLogger(logger, "generation"),
	}
}

// NewRunnerWithClient builds a runner around an existing client.
func NewRunnerWithClient(store PlanStore, client *Client, logger *slog.Logger) *Runner {
	return &Runner{
		store:  store,
		client: client,
		logger: logging.NewComponentLogger(logger, "generation"),
	}
}

// Execute performs one pipeline phase for the given plan.
func (r *Runner) Execute(ctx context.Context, planID, phaseID string, emit func(line string)) error {
	if emit == nil {
		emit = func(string) {}
	}
	switch phaseID {
	case phase.ContextIndexing:
		return r.refreshIndex(ctx, emit)
	case phase.MasterPlan:
		return r.synthesizeMasterPlan(ctx, planID, emit)
	case phase.LessonGeneration:
		return r.expandLessons(ctx, planID, emit)
	case phase.Enrichment:
		return r.enrichLessons(ctx, planID, emit)
	default:
		return services.Wrap(services.ErrValidation, phaseID, "execute", "no executor registered", nil)
	}
}

// refreshIndex announces the shared corpus index refresh. The index is
// global and rebuilt out of band; there is nothing per-plan to persist.
func (r *Runner) refreshIndex(ctx context.Context, emit func(string)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	emit("corpus index refresh requested")
	emit("corpus index is shared across plans; nothing plan-specific to rebuild")
	return nil
}

type masterPlanPayload struct {
	Title   string `json:"title"`
	Modules []struct {
		Title string `json:"title"`
	} `json:"modules"`
}

func (r *Runner) synthesizeMasterPlan(ctx context.Context, planID string, emit func(string)) error {
	current, err := r.store.Load(ctx, planID)
	if err != nil {
		return services.Wrap(services.ErrNotFound, phase.MasterPlan, "load plan", planID, err)
	}

	emit("requesting module outline from generation service")
	content, err := r.client.Complete(ctx, masterPlanSystemPrompt, masterPlanUserPrompt(current.Title))
	if err != nil {
		return services.Wrap(services.ErrExternalService, phase.MasterPlan, "synthesize outline", "", err)
	}

	var payload masterPlanPayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return services.Wrap(services.ErrExternalService, phase.MasterPlan, "parse outline", "service returned malformed JSON", err)
	}
	if len(payload.Modules) == 0 {
		return services.Wrap(services.ErrExternalService, phase.MasterPlan, "parse outline", "service returned no modules", nil)
	}

	if title := strings.TrimSpace(payload.Title); title != "" {
		current.Title = title
	}
	current.Modules = make([]plan.Module, 0, len(payload.Modules))
	for _, m := range payload.Modules {
		current.Modules = append(current.Modules, plan.Module{
			ID:    uuid.NewString(),
			Title: strings.TrimSpace(m.Title),
		})
	}

	if err := r.store.Save(ctx, current); err != nil {
		return services.Wrap(services.ErrTransient, phase.MasterPlan, "save plan", "", err)
	}
	emit(fmt.Sprintf("master plan written with %d modules", len(current.Modules)))
	return nil
}

type lessonsPayload struct {
	Lessons []struct {
		Title string `json:"title"`
	} `json:"lessons"`
}

func (r *Runner) expandLessons(ctx context.Context, planID string, emit func(string)) error {
	current, err := r.store.Load(ctx, planID)
	if err != nil {
		return services.Wrap(services.ErrNotFound, phase.LessonGeneration, "load plan", planID, err)
	}

	expanded := 0
	for i := range current.Modules {
		module := &current.Modules[i]
		if len(module.Lessons) > 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		emit(fmt.Sprintf("generating lessons for module %q", module.Title))
		content, err := r.client.Complete(ctx, lessonSystemPrompt, lessonUserPrompt(current.Title, module.Title))
		if err != nil {
			return services.Wrap(services.ErrExternalService, phase.LessonGeneration, "generate lessons", module.Title, err)
		}

		var payload lessonsPayload
		if err := json.Unmarshal([]byte(content), &payload); err != nil {
			return services.Wrap(services.ErrExternalService, phase.LessonGeneration, "parse lessons", module.Title, err)
		}
		if len(payload.Lessons) == 0 {
			return services.Wrap(services.ErrExternalService, phase.LessonGeneration, "parse lessons", fmt.Sprintf("no lessons returned for %q", module.Title), nil)
		}

		module.Lessons = make([]plan.Lesson, 0, len(payload.Lessons))
		for _, l := range payload.Lessons {
			module.Lessons = append(module.Lessons, plan.Lesson{
				ID:    uuid.NewString(),
				Title: strings.TrimSpace(l.Title),
			})
		}

		// Persist after every module so an interrupted run keeps its progress.
		if err := r.store.Save(ctx, current); err != nil {
			return services.Wrap(services.ErrTransient, phase.LessonGeneration, "save plan", "", err)
		}
		expanded++
		emit(fmt.Sprintf("module %q now has %d lessons", module.Title, len(module.Lessons)))
	}

	emit(fmt.Sprintf("lesson generation finished: %d modules expanded", expanded))
	return nil
}

type enrichmentPayload struct {
	VoiceoverScript string `json:"voiceover_script"`
	Quiz            string `json:"quiz"`
}

func (r *Runner) enrichLessons(ctx context.Context, planID string, emit func(string)) error {
	current, err := r.store.Load(ctx, planID)
	if err != nil {
		return services.Wrap(services.ErrNotFound, phase.Enrichment, "load plan", planID, err)
	}

	enriched := 0
	for i := range current.Modules {
		module := &current.Modules[i]
		for j := range module.Lessons {
			lesson := &module.Lessons[j]
			if lesson.HasScript() {
				continue
			}
			if err := ctx.Err(); err != nil {
				return err
			}

			emit(fmt.Sprintf("enriching lesson %q", lesson.Title))
			content, err := r.client.Complete(ctx, enrichmentSystemPrompt, enrichmentUserPrompt(module.Title, lesson.Title))
			if err != nil {
				return services.Wrap(services.ErrExternalService, phase.Enrichment, "enrich lesson", lesson.Title, err)
			}

			var payload enrichmentPayload
			if err := json.Unmarshal([]byte(content), &payload); err != nil {
				return services.Wrap(services.ErrExternalService, phase.Enrichment, "parse enrichment", lesson.Title, err)
			}
			if strings.TrimSpace(payload.VoiceoverScript) == "" {
				return services.Wrap(services.ErrExternalService, phase.Enrichment, "parse enrichment", fmt.Sprintf("empty script for %q", lesson.Title), nil)
			}

			lesson.VoiceoverScript = strings.TrimSpace(payload.VoiceoverScript)
			if quiz := strings.TrimSpace(payload.Quiz); quiz != "" {
				lesson.Quiz = quiz
			}

			if err := r.store.Save(ctx, current); err != nil {
				return services.Wrap(services.ErrTransient, phase.Enrichment, "save plan", "", err)
			}
			enriched++
		}
	}

	emit(fmt.Sprintf("enrichment finished: %d lessons enriched", enriched))
	return nil
}
