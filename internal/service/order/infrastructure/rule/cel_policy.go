package rule

import (
	"context"
	"fmt"

	"bookstore/internal/service/order/domain"

	"github.com/google/cel-go/cel"
)

// CELPlacementPolicy 是 port.PlacementPolicy 的 CEL 实现。
// 策略表达式来自配置，例如 "total_quantity <= 100 && item_count <= 20"，
// 求值为 true 的请求放行。表达式在启动时编译一次。
type CELPlacementPolicy struct {
	rule    string
	program cel.Program
}

// NewCELPlacementPolicy 编译策略表达式。表达式里可用的变量：
// user_id、item_count（条目数）、total_quantity（总件数）。
func NewCELPlacementPolicy(rule string) (*CELPlacementPolicy, error) {
	env, err := cel.NewEnv(
		cel.Variable("user_id", cel.IntType),
		cel.Variable("item_count", cel.IntType),
		cel.Variable("total_quantity", cel.IntType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create cel environment: %w", err)
	}

	ast, issues := env.Compile(rule)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("invalid placement policy %q: %w", rule, issues.Err())
	}
	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to build cel program: %w", err)
	}

	return &CELPlacementPolicy{rule: rule, program: program}, nil
}

func (p *CELPlacementPolicy) Allow(ctx context.Context, userID int64, items map[int64]int) error {
	totalQuantity := 0
	for _, quantity := range items {
		totalQuantity += quantity
	}

	out, _, err := p.program.Eval(map[string]interface{}{
		"user_id":        userID,
		"item_count":     len(items),
		"total_quantity": totalQuantity,
	})
	if err != nil {
		return fmt.Errorf("placement policy evaluation failed: %w", err)
	}

	if allowed, ok := out.Value().(bool); !ok || !allowed {
		return &domain.PolicyViolationError{Rule: p.rule}
	}
	return nil
}
