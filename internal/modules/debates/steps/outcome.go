package steps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/yungbote/hansard-backend/internal/modules/debates/prompts"
	"github.com/yungbote/hansard-backend/internal/platform/openai"
)

type OutcomeKind string

const (
	OutcomeOK              OutcomeKind = "ok"
	OutcomeSchemaViolation OutcomeKind = "schema_violation"
	OutcomeProviderError   OutcomeKind = "provider_error"
	OutcomeRefusal         OutcomeKind = "refusal"
	// OutcomeNotRequested marks a generator with nothing to work on.
	OutcomeNotRequested OutcomeKind = "not_requested"
)

// Outcome is the tagged result of one structured-output call. Value is only
// meaningful when Kind is OutcomeOK.
type Outcome[T any] struct {
	Kind  OutcomeKind
	Value T
	Raw   map[string]any
	Err   error
}

func (o Outcome[T]) OK() bool { return o.Kind == OutcomeOK }

// Or returns the value when the outcome is ok, def otherwise.
func (o Outcome[T]) Or(def T) T {
	if o.Kind == OutcomeOK {
		return o.Value
	}
	return def
}

// generate builds the named prompt, calls the model and decodes the reply.
func generate[T any](ctx context.Context, ai openai.Client, name prompts.PromptName, in prompts.Input, decode func(map[string]any) (T, error)) Outcome[T] {
	p, err := prompts.Build(name, in)
	if err != nil {
		return Outcome[T]{Kind: OutcomeProviderError, Err: err}
	}
	obj, err := ai.GenerateJSON(ctx, p.System, p.User, p.SchemaName, p.Schema)
	if err != nil {
		if errors.Is(err, openai.ErrRefusal) {
			return Outcome[T]{Kind: OutcomeRefusal, Err: err}
		}
		return Outcome[T]{Kind: OutcomeProviderError, Err: err}
	}
	v, err := decode(obj)
	if err != nil {
		return Outcome[T]{Kind: OutcomeSchemaViolation, Raw: obj, Err: err}
	}
	return Outcome[T]{Kind: OutcomeOK, Value: v, Raw: obj}
}

// decodeInto re-encodes a generic JSON object into a typed wire struct.
func decodeInto[T any](obj map[string]any) (T, error) {
	var out T
	if obj == nil {
		return out, fmt.Errorf("empty response")
	}
	raw, err := json.Marshal(obj)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, err
	}
	return out, nil
}
