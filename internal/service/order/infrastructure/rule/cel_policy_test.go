package rule

import (
	"context"
	"errors"
	"testing"

	"bookstore/internal/service/order/domain"
)

func TestCELPlacementPolicy(t *testing.T) {
	policy, err := NewCELPlacementPolicy("total_quantity <= 100 && item_count <= 20")
	if err != nil {
		t.Fatalf("compiling policy: %v", err)
	}

	if err := policy.Allow(context.Background(), 1, map[int64]int{101: 2, 102: 3}); err != nil {
		t.Errorf("small order should pass the policy: %v", err)
	}

	err = policy.Allow(context.Background(), 1, map[int64]int{101: 101})
	var violation *domain.PolicyViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("oversized order should be rejected with PolicyViolationError, got %v", err)
	}
	if violation.Rule == "" {
		t.Error("violation should carry the offending rule text")
	}
}

func TestCELPlacementPolicy_UserScoped(t *testing.T) {
	policy, err := NewCELPlacementPolicy("user_id != 666")
	if err != nil {
		t.Fatalf("compiling policy: %v", err)
	}
	if err := policy.Allow(context.Background(), 1, map[int64]int{101: 1}); err != nil {
		t.Errorf("unrelated user should pass: %v", err)
	}
	if err := policy.Allow(context.Background(), 666, map[int64]int{101: 1}); err == nil {
		t.Error("blocked user must be rejected")
	}
}

func TestNewCELPlacementPolicy_InvalidExpression(t *testing.T) {
	if _, err := NewCELPlacementPolicy("total_quantity <=="); err == nil {
		t.Error("syntax errors must be caught at compile time")
	}
	if _, err := NewCELPlacementPolicy("unknown_var > 0"); err == nil {
		t.Error("references to undeclared variables must be caught at compile time")
	}
}
