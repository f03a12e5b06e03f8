package service

import (
	"errors"
	"fmt"
	"sort"

	"visaletter-backend/models"

	"github.com/google/cel-go/cel"
)

// Rule names, also the keys accepted in the scenario_rules config section
const (
	RuleReapplication    = "reapplication"
	RulePriorRefusals    = "prior_refusals"
	RuleSponsored        = "sponsored"
	RuleSelfEmployed     = "self_employed"
	RuleMedical          = "medical"
	RuleBusiness         = "business"
	RuleTouristFirstTime = "tourist_first_time"
	RuleStudy            = "study"
	RuleStrongTies       = "strong_ties"
	RuleHasWeaknesses    = "has_weaknesses"
)

var ruleOrder = []string{
	RuleReapplication,
	RulePriorRefusals,
	RuleSponsored,
	RuleSelfEmployed,
	RuleMedical,
	RuleBusiness,
	RuleTouristFirstTime,
	RuleStudy,
	RuleStrongTies,
	RuleHasWeaknesses,
}

const ruleCostLimit = 100000

// Rules see the payload as p: map(string, string) with absent fields left
// out, so presence is tested with has(). Regex matching is reserved for the
// free-text fields; categorical ones use presence and equality.
const (
	noneToken    = `'(?i)^(none|no|nil|n/?a|0)$'`
	refusalsRule = `has(p.visaRefusals) && !p.visaRefusals.matches(` + noneToken + `)`
)

var defaultScenarioRules = map[string]string{
	RulePriorRefusals: refusalsRule,
	RuleReapplication: `(has(p.applicationType) && p.applicationType.matches('(?i)re-?appl')) || (` + refusalsRule + `)`,
	RuleSponsored: `(has(p.funding) && p.funding.matches('(?i)^(sponsor|sponsored|sponsorship|family|employer)$'))
		|| (has(p.selfSponsored) && p.selfSponsored.matches('(?i)^no$'))
		|| has(p.sponsorName) || has(p.sponsorRelationship)`,
	RuleSelfEmployed: `has(p.occupation) && p.occupation.matches(r'(?i)\b(owner|self|founder|ceo|proprietor)')`,
	RuleMedical: `(has(p.visaType) && p.visaType.matches('(?i)medical'))
		|| (has(p.purpose) && p.purpose.matches('(?i)medical'))`,
	RuleBusiness: `(has(p.visaType) && p.visaType.matches('(?i)business|conference|training'))
		|| (has(p.purpose) && p.purpose.matches('(?i)business|conference|training'))`,
	RuleTouristFirstTime: `!has(p.travelHistory) && (
		(has(p.purpose) && p.purpose.matches('(?i)touris|holiday|vacation|visit|sightseeing'))
		|| (has(p.visaType) && p.visaType.matches('(?i)touris|holiday|vacation|visit|sightseeing')))`,
	RuleStudy: `(has(p.visaType) && p.visaType.matches('(?i)study|student|university|school'))
		|| (has(p.purpose) && p.purpose.matches('(?i)study|student|university|school'))`,
	RuleStrongTies:    `has(p.propertyDetails) || has(p.businessCommitments) || has(p.familyDependents)`,
	RuleHasWeaknesses: `has(p.weaknesses) && !p.weaknesses.matches(` + noneToken + `)`,
}

// DefaultScenarioRules returns a copy of the built-in rule table
func DefaultScenarioRules() map[string]string {
	out := make(map[string]string, len(defaultScenarioRules))
	for name, expr := range defaultScenarioRules {
		out[name] = expr
	}
	return out
}

// Classifier derives scenario flags from a canonical payload using CEL rules
// compiled once at startup. It is safe for concurrent use.
type Classifier struct {
	programs map[string]cel.Program
}

// NewClassifier compiles the default rules with the given per-rule overrides.
// Unknown rule names and expressions that fail to compile are errors.
func NewClassifier(overrides map[string]string) (*Classifier, error) {
	env, err := cel.NewEnv(
		cel.Variable("p", cel.MapType(cel.StringType, cel.StringType)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create rule environment: %w", err)
	}

	rules := DefaultScenarioRules()
	unknown := make([]string, 0)
	for name, expr := range overrides {
		if _, ok := rules[name]; !ok {
			unknown = append(unknown, name)
			continue
		}
		rules[name] = expr
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("unknown scenario rules: %v", unknown)
	}

	c := &Classifier{programs: make(map[string]cel.Program, len(rules))}
	for _, name := range ruleOrder {
		ast, issues := env.Compile(rules[name])
		if issues != nil && issues.Err() != nil {
			return nil, fmt.Errorf("rule %s: compile error: %w", name, issues.Err())
		}
		if !ast.OutputType().IsExactType(cel.BoolType) {
			return nil, fmt.Errorf("rule %s: must evaluate to bool, got %s", name, ast.OutputType())
		}
		prog, err := env.Program(ast, cel.CostLimit(ruleCostLimit))
		if err != nil {
			return nil, fmt.Errorf("rule %s: program creation error: %w", name, err)
		}
		c.programs[name] = prog
	}

	return c, nil
}

// Classify evaluates every rule against the payload. A rule that fails to
// evaluate counts as false; the failures are returned joined for logging
// alongside the flags, which are always usable.
func (c *Classifier) Classify(p models.Payload) (models.ScenarioFlags, error) {
	facts := map[string]any{"p": p.AsMap()}

	results := make(map[string]bool, len(c.programs))
	var errs []error
	for _, name := range ruleOrder {
		matched, err := c.eval(name, facts)
		if err != nil {
			errs = append(errs, err)
		}
		results[name] = matched
	}

	flags := models.ScenarioFlags{
		ApplicationType:  models.ApplicationFirstTime,
		Sponsored:        results[RuleSponsored],
		SelfEmployed:     results[RuleSelfEmployed],
		Medical:          results[RuleMedical],
		Business:         results[RuleBusiness],
		TouristFirstTime: results[RuleTouristFirstTime],
		Study:            results[RuleStudy],
		PriorRefusals:    results[RulePriorRefusals],
		StrongTies:       results[RuleStrongTies],
		HasWeaknesses:    results[RuleHasWeaknesses],
	}
	if results[RuleReapplication] || flags.PriorRefusals {
		flags.ApplicationType = models.ApplicationReapplication
	}

	return flags, errors.Join(errs...)
}

// Sponsored evaluates only the sponsorship rule
func (c *Classifier) Sponsored(p models.Payload) bool {
	matched, _ := c.eval(RuleSponsored, map[string]any{"p": p.AsMap()})
	return matched
}

func (c *Classifier) eval(name string, facts map[string]any) (bool, error) {
	prog, ok := c.programs[name]
	if !ok {
		return false, fmt.Errorf("rule %s is not compiled", name)
	}
	out, _, err := prog.Eval(facts)
	if err != nil {
		return false, fmt.Errorf("rule %s: %w", name, err)
	}
	matched, _ := out.Value().(bool)
	return matched, nil
}
