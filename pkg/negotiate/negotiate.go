// Package negotiate runs the schema negotiation loop: a model drafts a
// named JSON schema from a plain-language description, a reviewer accepts,
// refines or restarts it, and the loop repeats until the reviewer is
// satisfied or the iteration budget runs out.
package negotiate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/parleykit/parley/pkg/dialog"
	"github.com/parleykit/parley/pkg/prompts"
	"github.com/parleykit/parley/pkg/providers/provider"
	"github.com/parleykit/parley/pkg/schema"
)

// ErrBadSetup is wrapped by Run for negotiator misconfiguration.
var ErrBadSetup = errors.New("negotiate: invalid setup")

// Defaults applied by Run when the corresponding Negotiator field is zero.
const (
	DefaultMaxIterations   = 5
	DefaultMaxInteractions = 3
)

// nowFunc stamps history entries; swapped in tests.
var nowFunc = time.Now

// HistoryEntry records one drafted schema and the prompt that produced it.
type HistoryEntry struct {
	Iteration int
	Prompt    string
	Draft     schema.Object
	At        time.Time
}

// State is the live negotiation state handed to the reviewer. History is
// append-only within a run; Restart begins a fresh state.
type State struct {
	Iteration   int
	Description string
	Draft       *schema.Object
	Feedback    string
	History     []HistoryEntry
	Satisfied   bool
}

// Result is the outcome of a negotiation. Satisfied false means the run
// ended on an exhausted budget; Schema then holds the last draft, or nil if
// no draft ever passed the structural checks.
type Result struct {
	ID          uuid.UUID
	Schema      *schema.Object
	Description string
	Iterations  int
	History     []HistoryEntry
	Satisfied   bool
}

// Negotiator drives schema negotiations against one completer.
type Negotiator struct {
	Completer provider.Completer
	// Reviewer decides the fate of each draft. Nil means AutoReviewer:
	// the first valid draft is accepted.
	Reviewer Reviewer
	// MaxIterations bounds review cycles. Zero means DefaultMaxIterations.
	MaxIterations int
	// MaxInteractions is the dialog budget for producing each draft. Zero
	// means DefaultMaxInteractions.
	MaxInteractions int
}

// Run negotiates a schema for the given description. Exhausting the
// iteration budget is not an error: the result comes back with Satisfied
// false and whatever draft the run got to.
func (n *Negotiator) Run(ctx context.Context, description string) (*Result, error) {
	if description == "" {
		return nil, fmt.Errorf("%w: description is required", ErrBadSetup)
	}

	if n.Completer == nil {
		return nil, fmt.Errorf("%w: completer is required", ErrBadSetup)
	}

	reviewer := n.Reviewer
	if reviewer == nil {
		reviewer = AutoReviewer{}
	}

	maxIterations := n.MaxIterations
	if maxIterations == 0 {
		maxIterations = DefaultMaxIterations
	}

	budget := n.MaxInteractions
	if budget == 0 {
		budget = DefaultMaxInteractions
	}

	id := uuid.New()
	st := &State{Iteration: 1, Description: description}

	for st.Iteration <= maxIterations {
		prompt := draftPrompt(st)

		ans, err := dialog.AskJSON(ctx, n.Completer, prompt, dialog.Options{
			System:          draftSystem,
			MaxInteractions: budget,
			Validate:        validateDraft,
			TrimHistory:     true,
		})
		if err != nil {
			return nil, fmt.Errorf("negotiate: %w", err)
		}

		if !ans.Answered {
			// Draft budget exhausted; report what the run got to.
			break
		}

		obj, err := schema.FromMap(ans.Object)
		if err != nil {
			return nil, fmt.Errorf("negotiate: %w", err)
		}

		st.Draft = obj
		st.History = append(st.History, HistoryEntry{
			Iteration: st.Iteration,
			Prompt:    prompt,
			Draft:     *obj,
			At:        nowFunc(),
		})

		dec, err := review(ctx, reviewer, st)
		if err != nil {
			return nil, err
		}

		switch dec.Choice {
		case Accept:
			st.Satisfied = true
		case Refine:
			st.Feedback = dec.Feedback
			st.Iteration++
		case Restart:
			desc := dec.Description
			if desc == "" {
				desc = description
			}
			st = &State{Iteration: 1, Description: desc}
		default:
			return nil, fmt.Errorf("negotiate: unknown review choice %d", dec.Choice)
		}

		if st.Satisfied {
			break
		}
	}

	return &Result{
		ID:          id,
		Schema:      st.Draft,
		Description: st.Description,
		Iterations:  len(st.History),
		History:     st.History,
		Satisfied:   st.Satisfied,
	}, nil
}

// review asks the reviewer until it makes a state-changing choice. Inspect
// repeats the same review without touching the state.
func review(ctx context.Context, r Reviewer, st *State) (Decision, error) {
	for {
		dec, err := r.Review(ctx, st)
		if err != nil {
			return Decision{}, fmt.Errorf("negotiate: review: %w", err)
		}

		if dec.Choice != Inspect {
			return dec, nil
		}
	}
}

func validateDraft(m map[string]any) error {
	return schema.ValidateDraft(m)
}

const draftSystem = "You are a precise JSON schema designer. Reply only with JSON."

const generateTemplate = `Design a JSON schema for the following need.

Need: {description}

Reply with a single JSON object with exactly these keys:
"name" - a short snake_case identifier
"description" - one sentence stating what the schema captures
"schema" - the JSON schema definition itself, with a "type" key; object types must declare their "properties"`

const refineTemplate = `Revise the JSON schema draft below.

Need: {description}

Current draft:
{draft}

Requested changes: {feedback}

Reply with the complete revised JSON object, keeping the "name", "description" and "schema" keys.`

// draftPrompt builds the generation prompt for a fresh negotiation or the
// refinement prompt once a draft exists. Refinement carries the full current
// draft and the last feedback; each dialog starts clean, so the prompt is
// the only memory between iterations.
func draftPrompt(st *State) string {
	if st.Draft == nil {
		return prompts.Fill(generateTemplate, map[string]any{"description": st.Description})
	}

	raw, _ := json.MarshalIndent(st.Draft.Map(), "", "  ")

	return prompts.Fill(refineTemplate, map[string]any{
		"description": st.Description,
		"draft":       string(raw),
		"feedback":    st.Feedback,
	})
}
