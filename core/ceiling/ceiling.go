// Package ceiling computes the effective permission of an agent from
// five independent trust inputs. The model is a strict floor: the
// effective level is the minimum of every ceiling, so no single
// generous input can override a restrictive one.
package ceiling

import (
	"github.com/davidahmann/trustgate/core/capability"
)

// Factor names one ceiling source. FactorMultiple marks a result where
// more than one source achieves the minimum.
type Factor string

const (
	FactorCertification Factor = "certification"
	FactorCompetence    Factor = "competence"
	FactorRuntime       Factor = "runtime"
	FactorObservability Factor = "observability"
	FactorContextPolicy Factor = "context_policy"
	FactorMultiple      Factor = "multiple"
	FactorNone          Factor = ""
)

// certTierCeilings maps a certification tier to the maximum capability
// level it supports.
var certTierCeilings = [...]capability.Level{
	capability.TierT0: capability.LevelObserve,
	capability.TierT1: capability.LevelAssist,
	capability.TierT2: capability.LevelAct,
	capability.TierT3: capability.LevelOrchestrate,
	capability.TierT4: capability.LevelGovern,
	capability.TierT5: capability.LevelSovereign,
}

// runtimeTierCeilings maps a deployment-assigned runtime tier 1:1 to a
// capability ceiling.
var runtimeTierCeilings = [...]capability.Level{
	capability.TierT0: capability.LevelObserve,
	capability.TierT1: capability.LevelAssist,
	capability.TierT2: capability.LevelAct,
	capability.TierT3: capability.LevelOrchestrate,
	capability.TierT4: capability.LevelGovern,
	capability.TierT5: capability.LevelSovereign,
}

var recommendations = map[Factor]string{
	FactorCertification: "obtain a higher-tier attestation from a trusted issuer",
	FactorCompetence:    "raise the declared capability level after competence review",
	FactorRuntime:       "request a higher runtime tier from the deployment operator",
	FactorObservability: "improve observability instrumentation to raise the observation ceiling",
	FactorContextPolicy: "review context policy limits with the governing organization",
}

// Context carries the five ceiling inputs.
type Context struct {
	CertificationTier    capability.Tier  `json:"certification_tier"`
	Competence           capability.Level `json:"competence"`
	RuntimeTier          capability.Tier  `json:"runtime_tier"`
	ObservabilityCeiling int              `json:"observability_ceiling"`
	ContextPolicyCeiling int              `json:"context_policy_ceiling"`
}

// Ceilings are the five individual ceiling values after tier mapping
// and clamping.
type Ceilings struct {
	Certification capability.Level `json:"certification"`
	Competence    capability.Level `json:"competence"`
	Runtime       capability.Level `json:"runtime"`
	Observability capability.Level `json:"observability"`
	ContextPolicy capability.Level `json:"context_policy"`
}

// Effective is the computed permission: the minimum across all five
// ceilings plus which factor(s) held it down.
type Effective struct {
	Level              capability.Level `json:"level"`
	Constrained        bool             `json:"constrained"`
	ConstrainingFactor Factor           `json:"constraining_factor,omitempty"`
	Ceilings           Ceilings         `json:"ceilings"`
	Recommendations    []string         `json:"recommendations,omitempty"`
}

// Check is the result of comparing an effective permission against a
// required level. A denial is a normal return value, not an error.
type Check struct {
	Allowed  bool             `json:"allowed"`
	Required capability.Level `json:"required"`
	Actual   capability.Level `json:"actual"`
	Gap      int              `json:"gap"`
}

// Calculate derives the effective permission. Pure and total: invalid
// tiers clamp to the nearest valid value rather than failing, so a
// malformed profile degrades to its most restrictive reading.
func Calculate(ctx Context) Effective {
	ceilings := resolveCeilings(ctx)
	ordered := [...]struct {
		factor Factor
		level  capability.Level
	}{
		{FactorCertification, ceilings.Certification},
		{FactorCompetence, ceilings.Competence},
		{FactorRuntime, ceilings.Runtime},
		{FactorObservability, ceilings.Observability},
		{FactorContextPolicy, ceilings.ContextPolicy},
	}

	minimum := ordered[0].level
	maximum := ordered[0].level
	for _, entry := range ordered[1:] {
		if entry.level < minimum {
			minimum = entry.level
		}
		if entry.level > maximum {
			maximum = entry.level
		}
	}

	effective := Effective{
		Level:    minimum,
		Ceilings: ceilings,
	}
	if minimum == maximum {
		return effective
	}

	effective.Constrained = true
	var constraining []Factor
	for _, entry := range ordered {
		if entry.level == minimum {
			constraining = append(constraining, entry.factor)
		}
	}
	if len(constraining) == 1 {
		effective.ConstrainingFactor = constraining[0]
	} else {
		effective.ConstrainingFactor = FactorMultiple
	}
	for _, factor := range constraining {
		if recommendation, ok := recommendations[factor]; ok {
			effective.Recommendations = append(effective.Recommendations, recommendation)
		}
	}
	return effective
}

// CheckPermission reports whether the effective permission meets a
// required level, and the numeric gap when it does not.
func CheckPermission(ctx Context, required capability.Level) Check {
	required = capability.ClampLevel(int(required))
	actual := Calculate(ctx).Level
	check := Check{
		Required: required,
		Actual:   actual,
	}
	if actual >= required {
		check.Allowed = true
		return check
	}
	check.Gap = int(required) - int(actual)
	return check
}

func resolveCeilings(ctx Context) Ceilings {
	return Ceilings{
		Certification: certTierCeilings[clampTier(ctx.CertificationTier)],
		Competence:    capability.ClampLevel(int(ctx.Competence)),
		Runtime:       runtimeTierCeilings[clampTier(ctx.RuntimeTier)],
		Observability: capability.ClampLevel(ctx.ObservabilityCeiling),
		ContextPolicy: capability.ClampLevel(ctx.ContextPolicyCeiling),
	}
}

func clampTier(tier capability.Tier) capability.Tier {
	if tier < capability.MinTier {
		return capability.MinTier
	}
	if tier > capability.MaxTier {
		return capability.MaxTier
	}
	return tier
}
