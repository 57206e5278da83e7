package control

import (
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
)

// MultiValueConfig configures a MultiValueControl.
type MultiValueConfig struct {
	ValueConfig

	// Options optionally closes the set of accepted items. Empty means
	// any string item is accepted.
	Options []string
}

// MultiValueControl acquires an ordered list of string values. A "set"
// or "change" replaces the list; the "add" action appends missing items.
type MultiValueControl struct {
	leafControl
}

// NewMultiValue creates a multi-value control. When an option list is
// configured, per-item membership is validated ahead of any configured
// validators.
func NewMultiValue(cfg MultiValueConfig) (*MultiValueControl, error) {
	inner := cfg.ValueConfig
	if len(cfg.Options) > 0 {
		inner.Validators = append([]Validator{itemsValidator(cfg.Options)}, inner.Validators...)
	}
	leaf, err := newLeaf(inner)
	if err != nil {
		return nil, err
	}
	c := &MultiValueControl{leafControl: leaf}
	c.m.coerce = coerceStrings
	c.m.normalize = normalizeStrings
	c.m.merge = mergeStrings
	return c, nil
}

func coerceStrings(s domain.Slot) (any, *domain.Validation) {
	items := make([]string, 0, len(s.Values))
	for _, v := range s.Values {
		if v.Raw == "" {
			continue
		}
		items = append(items, v.Raw)
	}
	if len(items) == 0 {
		return nil, &domain.Validation{Code: "empty_values"}
	}
	return items, nil
}

// itemsValidator fails on the first item outside the option list.
func itemsValidator(options []string) Validator {
	return func(value any) *domain.Validation {
		items, _ := normalizeStrings(value).([]string)
		for _, item := range items {
			known := false
			for _, opt := range options {
				if strings.EqualFold(opt, item) {
					known = true
					break
				}
			}
			if !known {
				return &domain.Validation{Code: "not_in_options"}
			}
		}
		return nil
	}
}

func mergeStrings(existing, incoming any) any {
	have, _ := normalizeStrings(existing).([]string)
	add, _ := normalizeStrings(incoming).([]string)
	out := append([]string{}, have...)
	for _, item := range add {
		dup := false
		for _, h := range out {
			if strings.EqualFold(h, item) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, item)
		}
	}
	return out
}

// normalizeStrings undoes the []any drift a JSON round trip introduces
// into []string state.
func normalizeStrings(v any) any {
	switch items := v.(type) {
	case []string:
		return items
	case []any:
		out := make([]string, 0, len(items))
		for _, item := range items {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return v
}
