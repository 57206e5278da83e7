package control

import (
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
)

// ListConfig configures a ListControl.
type ListConfig struct {
	ValueConfig

	// Options is the closed set of selectable values.
	Options []string
}

// ListControl acquires one selection out of a closed option list.
type ListControl struct {
	leafControl
	options []string
}

// NewList creates a list-selection control. Membership in the option
// list is validated ahead of any configured validators.
func NewList(cfg ListConfig) (*ListControl, error) {
	if len(cfg.Options) == 0 {
		return nil, domain.NewConfigError("list control %q requires at least one option", cfg.ID)
	}
	inner := cfg.ValueConfig
	inner.Validators = append([]Validator{optionValidator(cfg.Options)}, inner.Validators...)
	leaf, err := newLeaf(inner)
	if err != nil {
		return nil, err
	}
	c := &ListControl{leafControl: leaf, options: cfg.Options}
	c.m.coerce = coerceString
	c.m.alternate = c.alternateOption
	return c, nil
}

func coerceString(s domain.Slot) (any, *domain.Validation) {
	return s.Raw(), nil
}

func optionValidator(options []string) Validator {
	return func(value any) *domain.Validation {
		v, _ := value.(string)
		for _, opt := range options {
			if strings.EqualFold(opt, v) {
				return nil
			}
		}
		return &domain.Validation{Code: "not_in_options"}
	}
}

// alternateOption proposes the one other option the rejected selection
// plausibly meant, when exactly one such option exists.
func (c *ListControl) alternateOption(rejected any) (any, bool) {
	v, _ := rejected.(string)
	if v == "" {
		return nil, false
	}
	lower := strings.ToLower(v)
	var match string
	for _, opt := range c.options {
		if strings.EqualFold(opt, v) {
			continue
		}
		candidate := strings.ToLower(opt)
		if strings.Contains(candidate, lower) || strings.Contains(lower, candidate) {
			if match != "" {
				return nil, false // more than one plausible reading
			}
			match = opt
		}
	}
	if match == "" {
		return nil, false
	}
	return match, true
}
