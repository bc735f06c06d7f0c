package cel

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
)

// Input is the activation exposed to rule expressions.
type Input struct {
	MessageID string
	Headers   map[string]string
	Metadata  map[string]interface{}
	BodySize  int
}

type Evaluator struct {
	env      *cel.Env
	programs sync.Map // expression -> cel.Program
}

func NewEvaluator() (*Evaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable("message_id", cel.StringType),
		cel.Variable("headers", cel.MapType(cel.StringType, cel.StringType)),
		cel.Variable("metadata", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("body_size", cel.IntType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	return &Evaluator{env: env}, nil
}

func (e *Evaluator) ValidateExpression(expression string) error {
	_, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return fmt.Errorf("CEL expression validation failed: %w", issues.Err())
	}
	return nil
}

func (e *Evaluator) CompileExpression(expression string) (cel.Program, error) {
	if p, ok := e.programs.Load(expression); ok {
		return p.(cel.Program), nil
	}

	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile CEL expression: %w", issues.Err())
	}

	program, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL program: %w", err)
	}

	e.programs.Store(expression, program)
	return program, nil
}

// Evaluate runs expression against in. A null result is returned as nil.
func (e *Evaluator) Evaluate(ctx context.Context, expression string, in Input) (interface{}, error) {
	program, err := e.CompileExpression(expression)
	if err != nil {
		return nil, err
	}

	headers := in.Headers
	if headers == nil {
		headers = map[string]string{}
	}
	metadata := in.Metadata
	if metadata == nil {
		metadata = map[string]interface{}{}
	}

	result, _, err := program.ContextEval(ctx, map[string]interface{}{
		"message_id": in.MessageID,
		"headers":    headers,
		"metadata":   metadata,
		"body_size":  int64(in.BodySize),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate CEL expression: %w", err)
	}

	if result == types.NullValue {
		return nil, nil
	}
	return result.Value(), nil
}

func (e *Evaluator) EvaluateBool(ctx context.Context, expression string, in Input) (bool, error) {
	v, err := e.Evaluate(ctx, expression, in)
	if err != nil {
		return false, err
	}

	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("CEL expression did not return bool, got %T", v)
	}
	return b, nil
}
