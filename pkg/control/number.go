package control

import (
	"encoding/json"
	"strconv"

	"github.com/aretw0/arbor/pkg/domain"
)

// NumberConfig configures a NumberControl.
type NumberConfig struct {
	ValueConfig
}

// misheardPairs maps commonly confused spoken numbers ("thirteen" vs
// "thirty") to their single likely alternate interpretation.
var misheardPairs = map[int64]int64{
	13: 30, 30: 13,
	14: 40, 40: 14,
	15: 50, 50: 15,
	16: 60, 60: 16,
	17: 70, 70: 17,
	18: 80, 80: 18,
	19: 90, 90: 19,
}

// NumberControl acquires a single integer value.
type NumberControl struct {
	leafControl
}

// NewNumber creates a number control.
func NewNumber(cfg NumberConfig) (*NumberControl, error) {
	leaf, err := newLeaf(cfg.ValueConfig)
	if err != nil {
		return nil, err
	}
	c := &NumberControl{leafControl: leaf}
	c.m.coerce = coerceNumber
	c.m.alternate = numberAlternate
	c.m.normalize = normalizeNumber
	return c, nil
}

func coerceNumber(s domain.Slot) (any, *domain.Validation) {
	raw := s.Raw()
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, &domain.Validation{Code: "not_a_number"}
	}
	return n, nil
}

func numberAlternate(rejected any) (any, bool) {
	n, ok := normalizeNumber(rejected).(int64)
	if !ok {
		return nil, false
	}
	alt, ok := misheardPairs[n]
	return alt, ok
}

// normalizeNumber undoes the float64/json.Number drift a JSON round trip
// introduces into int64 state.
func normalizeNumber(v any) any {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int64:
		return n
	case float64:
		return int64(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i
		}
	}
	return v
}
