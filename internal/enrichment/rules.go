package enrichment

import (
	"context"
	"fmt"

	"auditwatch/internal/config"
	"auditwatch/pkg/cel"
)

type rule struct {
	name       string
	target     string
	expression string
}

// rulesEnricher writes the result of each CEL rule to metadata[target].
// A rule that evaluates to null leaves the target unset.
type rulesEnricher struct {
	evaluator *cel.Evaluator
	rules     []rule
}

func newRulesEnricher(cfgs []config.RuleConfig) (*rulesEnricher, error) {
	evaluator, err := cel.NewEvaluator()
	if err != nil {
		return nil, err
	}

	rules := make([]rule, 0, len(cfgs))
	for _, c := range cfgs {
		name := c.Name
		if name == "" {
			name = c.Target
		}
		if _, err := evaluator.CompileExpression(c.Expression); err != nil {
			return nil, fmt.Errorf("rule %s: %w", name, err)
		}
		rules = append(rules, rule{name: name, target: c.Target, expression: c.Expression})
	}

	return &rulesEnricher{evaluator: evaluator, rules: rules}, nil
}

func (*rulesEnricher) Name() string       { return "rules" }
func (*rulesEnricher) EnrichAudits() bool { return true }

func (r *rulesEnricher) Enrich(ctx context.Context, headers map[string]string, metadata map[string]interface{}) error {
	for _, rl := range r.rules {
		v, err := r.evaluator.Evaluate(ctx, rl.expression, cel.Input{
			MessageID: stringValue(metadata["MessageId"]),
			Headers:   headers,
			Metadata:  metadata,
		})
		if err != nil {
			return fmt.Errorf("rule %s: %w", rl.name, err)
		}
		if v != nil {
			metadata[rl.target] = v
		}
	}
	return nil
}

func stringValue(v interface{}) string {
	s, _ := v.(string)
	return s
}
