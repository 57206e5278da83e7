// Package recipe builds control trees from declarative YAML documents.
//
// A recipe is data, not code: tree shape, targets, option lists and the
// required/confirm/validate rules all live in the document, and the
// resulting Builder reconstructs the tree deterministically every turn.
// Predicates and validation rules are expr-lang expressions compiled once
// when the document is loaded.
package recipe

import (
	"fmt"
	"os"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/arbor/pkg/control"
	"github.com/aretw0/arbor/pkg/domain"
)

// Document is the root of a YAML tree definition.
type Document struct {
	Version int  `yaml:"version"`
	Root    Spec `yaml:"root"`
}

// Spec describes one control of the tree.
type Spec struct {
	// Kind is one of container, number, list, value, multi.
	Kind string `yaml:"kind"`
	// ID is the tree-wide unique identifier.
	ID string `yaml:"id"`
	// Config holds kind-specific settings.
	Config map[string]any `yaml:"config"`
	// Children only applies to containers.
	Children []Spec `yaml:"children"`
}

// leafSettings are the kind-specific settings of value-acquiring leaves.
type leafSettings struct {
	Target      string   `mapstructure:"target"`
	AlsoTargets []string `mapstructure:"also_targets"`
	// Required and Confirm accept a boolean or an expr expression over
	// {turn}, e.g. "turn > 2".
	Required any            `mapstructure:"required"`
	Confirm  any            `mapstructure:"confirm"`
	Validate []ruleSettings `mapstructure:"validate"`
	// Options applies to list and multi kinds.
	Options []string `mapstructure:"options"`
}

// ruleSettings is one validation rule: an expr expression over {value}
// that must evaluate true, plus the reason code and rendered explanation
// surfaced when it does not.
type ruleSettings struct {
	Rule    string `mapstructure:"rule"`
	Code    string `mapstructure:"code"`
	Explain string `mapstructure:"explain"`
}

type containerSettings struct {
	Strategy       string `mapstructure:"strategy"`
	Disambiguation string `mapstructure:"disambiguation"`
}

// Load reads and parses a recipe file.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read recipe: %w", err)
	}
	return Parse(data)
}

// Parse parses a YAML recipe document.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse recipe: %w", err)
	}
	if doc.Root.Kind == "" {
		return nil, domain.NewConfigError("recipe has no root control")
	}
	return &doc, nil
}

// Builder compiles the document into a tree builder. Expressions compile
// here, once; the returned builder only instantiates controls, so a
// broken recipe fails at load time rather than mid-conversation.
func (d *Document) Builder() (control.Builder, error) {
	factory, err := compileSpec(d.Root)
	if err != nil {
		return nil, err
	}
	return control.Builder(factory), nil
}

type factory func() (control.Control, error)

func compileSpec(spec Spec) (factory, error) {
	if spec.ID == "" {
		return nil, domain.NewConfigError("recipe control of kind %q has no id", spec.Kind)
	}
	if spec.Kind != "container" && len(spec.Children) > 0 {
		return nil, domain.NewConfigError("recipe control %q of kind %q cannot have children", spec.ID, spec.Kind)
	}

	switch spec.Kind {
	case "container":
		return compileContainer(spec)
	case "number", "list", "value", "multi":
		return compileLeaf(spec)
	}
	return nil, domain.NewConfigError("recipe control %q has unknown kind %q", spec.ID, spec.Kind)
}

func compileContainer(spec Spec) (factory, error) {
	var settings containerSettings
	if err := decodeSettings(spec, &settings); err != nil {
		return nil, err
	}
	if len(spec.Children) == 0 {
		return nil, domain.NewConfigError("container %q has no children", spec.ID)
	}

	children := make([]factory, len(spec.Children))
	for i, child := range spec.Children {
		f, err := compileSpec(child)
		if err != nil {
			return nil, err
		}
		children[i] = f
	}

	cfg := control.ContainerConfig{
		ID:             spec.ID,
		Strategy:       control.Strategy(settings.Strategy),
		Disambiguation: control.DisambiguationMode(settings.Disambiguation),
	}
	return func() (control.Control, error) {
		built := make([]control.Control, len(children))
		for i, f := range children {
			c, err := f()
			if err != nil {
				return nil, err
			}
			built[i] = c
		}
		return control.NewContainer(cfg, built...)
	}, nil
}

func compileLeaf(spec Spec) (factory, error) {
	var settings leafSettings
	if err := decodeSettings(spec, &settings); err != nil {
		return nil, err
	}

	required, err := compilePredicate(settings.Required, spec.ID, "required")
	if err != nil {
		return nil, err
	}
	confirm, err := compilePredicate(settings.Confirm, spec.ID, "confirm")
	if err != nil {
		return nil, err
	}
	validators := make([]control.Validator, 0, len(settings.Validate))
	for _, rule := range settings.Validate {
		v, err := compileRule(rule, spec.ID)
		if err != nil {
			return nil, err
		}
		validators = append(validators, v)
	}

	cfg := control.ValueConfig{
		ID:          spec.ID,
		Target:      settings.Target,
		AlsoTargets: settings.AlsoTargets,
		Required:    required,
		Confirm:     confirm,
		Validators:  validators,
	}

	switch spec.Kind {
	case "number":
		return func() (control.Control, error) {
			return control.NewNumber(control.NumberConfig{ValueConfig: cfg})
		}, nil
	case "list":
		options := settings.Options
		return func() (control.Control, error) {
			return control.NewList(control.ListConfig{ValueConfig: cfg, Options: options})
		}, nil
	case "multi":
		options := settings.Options
		return func() (control.Control, error) {
			return control.NewMultiValue(control.MultiValueConfig{ValueConfig: cfg, Options: options})
		}, nil
	default: // "value"
		return func() (control.Control, error) {
			return control.NewValue(cfg)
		}, nil
	}
}

func decodeSettings(spec Spec, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      out,
		ErrorUnused: true,
	})
	if err != nil {
		return fmt.Errorf("recipe control %q: %w", spec.ID, err)
	}
	if err := decoder.Decode(spec.Config); err != nil {
		return domain.NewConfigError("recipe control %q: invalid config: %v", spec.ID, err)
	}
	return nil
}

// compilePredicate turns a boolean or an expr expression over {turn}
// into a per-turn predicate.
func compilePredicate(v any, id, field string) (control.Predicate, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case bool:
		return control.When(val), nil
	case string:
		program, err := expr.Compile(val, expr.Env(predicateEnv(0)), expr.AsBool())
		if err != nil {
			return nil, domain.NewConfigError("recipe control %q: %s expression: %v", id, field, err)
		}
		return runPredicate(program), nil
	}
	return nil, domain.NewConfigError("recipe control %q: %s must be a boolean or an expression", id, field)
}

func predicateEnv(turn int) map[string]any {
	return map[string]any{"turn": turn}
}

func runPredicate(program *vm.Program) control.Predicate {
	return func(turn int) bool {
		out, err := expr.Run(program, predicateEnv(turn))
		if err != nil {
			return false
		}
		b, _ := out.(bool)
		return b
	}
}

// compileRule turns one validation rule into a Validator. A rule that
// evaluates false (or fails to evaluate at all) yields the configured
// reason code and explanation.
func compileRule(rule ruleSettings, id string) (control.Validator, error) {
	if rule.Rule == "" {
		return nil, domain.NewConfigError("recipe control %q: validation rule has no expression", id)
	}
	if rule.Code == "" {
		return nil, domain.NewConfigError("recipe control %q: validation rule %q has no code", id, rule.Rule)
	}
	program, err := expr.Compile(rule.Rule, expr.AsBool())
	if err != nil {
		return nil, domain.NewConfigError("recipe control %q: validation rule: %v", id, err)
	}
	failure := &domain.Validation{Code: rule.Code, Explanation: rule.Explain}
	return func(value any) *domain.Validation {
		out, err := expr.Run(program, map[string]any{"value": value})
		if err != nil {
			return failure
		}
		if ok, _ := out.(bool); ok {
			return nil
		}
		return failure
	}, nil
}
