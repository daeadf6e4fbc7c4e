package constraint

import (
	"github.com/davidahmann/trustgate/core/schema/v1/authz"
)

// Merge combines two constraint sets into the stricter of the two:
// allow-lists intersect (wildcard-aware), approvals and rate limits
// concatenate, reversibility ORs, and numeric caps take the minimum
// with zero treated as unlimited. Used when an agent operates under
// two simultaneously applicable policies. Symmetric fields commute.
func Merge(a, b authz.DecisionConstraints) authz.DecisionConstraints {
	merged := authz.DecisionConstraints{
		AllowedTools:          intersectAllowList(a.AllowedTools, b.AllowedTools),
		DataScopes:            intersectAllowList(a.DataScopes, b.DataScopes),
		ReversibilityRequired: a.ReversibilityRequired || b.ReversibilityRequired,
		MaxExecutionSeconds:   minCap(a.MaxExecutionSeconds, b.MaxExecutionSeconds),
		MaxRetries:            minCap(a.MaxRetries, b.MaxRetries),
	}

	if len(a.RequiredApprovals)+len(b.RequiredApprovals) > 0 {
		merged.RequiredApprovals = make([]authz.ApprovalRequirement, 0, len(a.RequiredApprovals)+len(b.RequiredApprovals))
		merged.RequiredApprovals = append(merged.RequiredApprovals, a.RequiredApprovals...)
		merged.RequiredApprovals = append(merged.RequiredApprovals, b.RequiredApprovals...)
	}
	if len(a.RateLimits)+len(b.RateLimits) > 0 {
		merged.RateLimits = make([]authz.RateLimit, 0, len(a.RateLimits)+len(b.RateLimits))
		merged.RateLimits = append(merged.RateLimits, a.RateLimits...)
		merged.RateLimits = append(merged.RateLimits, b.RateLimits...)
	}

	merged.ResourceQuotas = mergeQuotas(a.ResourceQuotas, b.ResourceQuotas)
	return merged
}

func intersectAllowList(a, b []string) []string {
	if containsWildcard(a) {
		return uniqueSorted(b)
	}
	if containsWildcard(b) {
		return uniqueSorted(a)
	}
	set := make(map[string]struct{}, len(b))
	for _, value := range b {
		set[value] = struct{}{}
	}
	out := make([]string, 0, len(a))
	for _, value := range a {
		if _, ok := set[value]; ok {
			out = append(out, value)
		}
	}
	return uniqueSorted(out)
}

// minCap treats zero as unlimited.
func minCap(a, b int) int {
	if a == 0 {
		return b
	}
	if b == 0 {
		return a
	}
	if a < b {
		return a
	}
	return b
}

func mergeQuotas(a, b map[string]int64) map[string]int64 {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	merged := make(map[string]int64, len(a)+len(b))
	for key, value := range a {
		merged[key] = value
	}
	for key, value := range b {
		if existing, ok := merged[key]; !ok || value < existing {
			merged[key] = value
		}
	}
	return merged
}
