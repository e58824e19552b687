package billing

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/clockwerk/worklog-engine/employment"
)

// Multiplier factors are clamped to this window wherever they enter the
// system, so a fat-fingered 20.0 can at worst double a rate.
var (
	multiplierFloor   = decimal.NewFromFloat(0.01)
	multiplierCeiling = decimal.NewFromInt(2)
)

// ClampFactor forces a multiplier into [0.01, 2.0].
func ClampFactor(f decimal.Decimal) decimal.Decimal {
	if f.LessThan(multiplierFloor) {
		return multiplierFloor
	}
	if f.GreaterThan(multiplierCeiling) {
		return multiplierCeiling
	}
	return f
}

// MultiplierResolver resolves the effective category multiplier through the
// fallback chain: project override -> global default -> 1.0.
type MultiplierResolver struct {
	Repo MultiplierRepository
}

func NewMultiplierResolver(repo MultiplierRepository) *MultiplierResolver {
	return &MultiplierResolver{Repo: repo}
}

// Effective returns the multiplier a project applies to an employment
// category. Never errors on missing configuration; that resolves to 1.0.
func (m *MultiplierResolver) Effective(ctx context.Context, projectID string, typ employment.Type) (decimal.Decimal, error) {
	if override, err := m.Repo.ProjectMultiplier(ctx, projectID, typ); err != nil {
		return decimal.Decimal{}, err
	} else if override != nil {
		return ClampFactor(*override), nil
	}

	if def, err := m.Repo.DefaultMultiplier(ctx, typ); err != nil {
		return decimal.Decimal{}, err
	} else if def != nil {
		return ClampFactor(*def), nil
	}

	return decimal.NewFromInt(1), nil
}
