package groupbuy

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/groupbuy/backend/internal/domain/shared"
)

// DiscountStage is one tier of the volume discount ladder: once the total
// ordered quantity reaches Threshold units, Rate applies to all options.
type DiscountStage struct {
	Threshold int             `json:"threshold"`
	Rate      decimal.Decimal `json:"rate"`
}

// DiscountStages is the ordered discount ladder for a group buy.
// Stored as a jsonb column on the group_buys table.
type DiscountStages []DiscountStage

// Validate checks that the ladder is well formed: thresholds strictly
// increasing and positive, rates non-decreasing within (0, 1).
func (s DiscountStages) Validate() error {
	prevThreshold := 0
	prevRate := decimal.Zero
	for i, stage := range s {
		if stage.Threshold <= prevThreshold {
			return shared.NewDomainError("INVALID_DISCOUNT_STAGES",
				fmt.Sprintf("stage %d: threshold %d must be greater than %d", i, stage.Threshold, prevThreshold))
		}
		if !stage.Rate.GreaterThan(decimal.Zero) {
			return shared.NewDomainError("INVALID_DISCOUNT_STAGES",
				fmt.Sprintf("stage %d: rate must be positive", i))
		}
		if stage.Rate.LessThan(prevRate) {
			return shared.NewDomainError("INVALID_DISCOUNT_STAGES",
				fmt.Sprintf("stage %d: rate must not decrease", i))
		}
		if stage.Rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
			return shared.NewDomainError("INVALID_DISCOUNT_STAGES",
				fmt.Sprintf("stage %d: rate must be less than 1", i))
		}
		prevThreshold = stage.Threshold
		prevRate = stage.Rate
	}
	return nil
}

// RateFor returns the discount rate in effect for the given total ordered
// quantity. Returns zero when no stage threshold has been reached.
func (s DiscountStages) RateFor(orderedQuantity int) decimal.Decimal {
	rate := decimal.Zero
	for _, stage := range s {
		if orderedQuantity >= stage.Threshold {
			rate = stage.Rate
		} else {
			break
		}
	}
	return rate
}

// NextStage returns the first stage not yet reached at the given quantity,
// or nil when the ladder is fully unlocked.
func (s DiscountStages) NextStage(orderedQuantity int) *DiscountStage {
	for i := range s {
		if orderedQuantity < s[i].Threshold {
			stage := s[i]
			return &stage
		}
	}
	return nil
}

// Sorted returns a copy of the stages ordered by threshold.
func (s DiscountStages) Sorted() DiscountStages {
	out := make(DiscountStages, len(s))
	copy(out, s)
	sort.Slice(out, func(i, j int) bool { return out[i].Threshold < out[j].Threshold })
	return out
}

// Value implements driver.Valuer for jsonb storage
func (s DiscountStages) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner for jsonb retrieval
func (s *DiscountStages) Scan(value any) error {
	if value == nil {
		*s = DiscountStages{}
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into DiscountStages", value)
	}

	return json.Unmarshal(data, s)
}
