package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/akchatar/socialconnect-ai/internal/application"
	domai "github.com/akchatar/socialconnect-ai/internal/domain/ai"
	domain "github.com/akchatar/socialconnect-ai/internal/domain/analysis"
	"github.com/akchatar/socialconnect-ai/internal/infra/ai/prompt"
)

// Service implements the note-analysis use-cases: deterministic rule
// hits, model extraction through the dispatcher, merge, and an audit
// trail of every completed analysis.
// Service is designed to be used concurrently and is thread-safe.
type Service struct {
	Dispatcher *Dispatcher
	Repo       domain.Repository    // nil disables the audit trail
	Artifacts  domain.ArtifactStore // nil disables result archiving
	Clock      application.Clock

	Categories domain.Vocabulary
	Actions    domain.Vocabulary

	AnalysisEnabled     bool
	AnalysisTemperature float32
	CustomPrompt        string
}

// AnalyzeCommand carries one note to analyze
type AnalyzeCommand struct {
	TenantID      string
	Text          string
	ForceProvider domai.Provider
}

// AnalyzeOutput is what the caller reviews before validating items.
type AnalyzeOutput struct {
	ID          domain.AnalysisID `json:"id,omitempty"`
	Result      domain.Result     `json:"result"`
	Provider    string            `json:"provider"`
	ModelUsed   bool              `json:"model_used"`
	ParseFailed bool              `json:"parse_failed,omitempty"`
	ModelError  string            `json:"model_error,omitempty"`
}

// Analyze runs the full pipeline. Model-side failures degrade to the
// rule-based half of the result instead of failing the operation; only
// an empty note is an error.
func (s *Service) Analyze(ctx context.Context, cmd AnalyzeCommand) (AnalyzeOutput, error) {
	text := strings.TrimSpace(cmd.Text)
	if text == "" {
		return AnalyzeOutput{}, domain.ErrEmptyNote
	}

	ruleHits := domain.Result{Categories: CategorizeByRules(text, s.Categories)}

	out := AnalyzeOutput{Provider: s.providerName(cmd.ForceProvider)}

	if !s.AnalysisEnabled || s.Dispatcher == nil {
		out.Provider = "rules"
		out.Result = Merge(domain.Result{}, ruleHits, s.Categories, s.Actions)
		return s.finish(ctx, cmd.TenantID, text, out), nil
	}

	system := s.CustomPrompt
	if system == "" {
		system = prompt.AnalysisSystemPrompt(s.Actions.Labels(), s.Categories.Labels())
	}
	user := prompt.AnalysisUserPrompt + "\n" + text

	temp := s.AnalysisTemperature
	comp := s.Dispatcher.Complete(ctx, user, system, DispatchOptions{
		Temperature:   &temp,
		ForceProvider: cmd.ForceProvider,
	})
	if comp.Err != "" {
		// Rule output survives a model failure.
		out.ModelError = comp.Err
		out.Result = Merge(domain.Result{}, ruleHits, s.Categories, s.Actions)
		return s.finish(ctx, cmd.TenantID, text, out), nil
	}

	out.ModelUsed = true
	parsed, err := domain.ParseModelOutput(comp.Content)
	if err != nil {
		log.Printf("model output unparseable tenant=%s err=%v", cmd.TenantID, err)
		out.ParseFailed = true
		out.Result = Merge(domain.Result{}, ruleHits, s.Categories, s.Actions)
		return s.finish(ctx, cmd.TenantID, text, out), nil
	}

	out.Result = Merge(s.resultFromModel(parsed), ruleHits, s.Categories, s.Actions)
	return s.finish(ctx, cmd.TenantID, text, out), nil
}

// Reformulate rewrites a raw note into clean prose. Aggregated personal
// data should not leave the local network, so callers can force the
// local provider.
func (s *Service) Reformulate(ctx context.Context, tenant, text string, localOnly bool) (domai.Completion, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domai.Completion{}, domain.ErrEmptyNote
	}
	if s.Dispatcher == nil {
		return domai.Completion{Err: "ai disabled"}, nil
	}

	opts := DispatchOptions{}
	if localOnly {
		opts.ForceProvider = domai.ProviderOllama
	}
	return s.Dispatcher.Complete(ctx, text, prompt.ReformulationSystemPrompt, opts), nil
}

// ListAnalyses pages through the audit trail.
func (s *Service) ListAnalyses(ctx context.Context, tenant string, page, pageSize int) ([]*domain.Record, error) {
	if s.Repo == nil {
		return nil, nil
	}
	return s.Repo.Paginate(ctx, tenant, page, pageSize)
}

// resultFromModel converts parsed model output into unvalidated items.
// Action items without a date get today's, matching what the reviewer
// would otherwise type in by hand.
func (s *Service) resultFromModel(m domain.ModelOutput) domain.Result {
	today := s.Clock.Now().Format("2006-01-02")

	var r domain.Result
	for _, p := range m.Problematiques {
		r.Categories = append(r.Categories, domain.Item{
			Label:       p.Type,
			Description: p.Text(),
		})
	}
	for _, a := range m.Actions {
		date := a.Date
		if date == "" {
			date = today
		}
		r.Actions = append(r.Actions, domain.Item{
			Label:       a.Type,
			Description: a.Text(),
			Date:        date,
		})
	}
	return r
}

// finish persists the audit record and archives the merged result.
// Both are best-effort: the caller still gets their result when the
// audit backend is down.
func (s *Service) finish(ctx context.Context, tenant, text string, out AnalyzeOutput) AnalyzeOutput {
	if s.Repo == nil {
		return out
	}

	id := domain.AnalysisID(uuid.New().String())
	out.ID = id

	payload, err := json.Marshal(out.Result)
	if err != nil {
		log.Printf("marshal analysis result failed tenant=%s err=%v", tenant, err)
		return out
	}

	rec := &domain.Record{
		ID:         id,
		TenantID:   tenant,
		Provider:   out.Provider,
		NoteLength: len(text),
		ResultJSON: string(payload),
		CreatedAt:  s.Clock.Now(),
	}

	if s.Artifacts != nil {
		key := fmt.Sprintf("%s/analyses/%s.json", tenant, id)
		url, err := s.Artifacts.Put(ctx, key, "application/json", payload)
		if err != nil {
			log.Printf("archive analysis failed tenant=%s id=%s err=%v", tenant, id, err)
		} else {
			rec.ArtifactURL = url
		}
	}

	if err := s.Repo.Save(ctx, rec); err != nil {
		log.Printf("save analysis failed tenant=%s id=%s err=%v", tenant, id, err)
	}
	return out
}

func (s *Service) providerName(force domai.Provider) string {
	if force != "" {
		return string(force)
	}
	if s.Dispatcher != nil {
		return string(s.Dispatcher.Default)
	}
	return "rules"
}
