// Package advise holds the in-process decision logic of a redesign: which
// items to replace and which materials fit the chosen budget.
package advise

import (
	"fmt"
	"sort"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"artistry/internal/domain"
)

// Upgrade is the outcome of Reason.
type Upgrade struct {
	Replace   []string                 `json:"replace"`
	Keep      []string                 `json:"keep"`
	Reasoning map[string]string        `json:"reasoning"`
	Decisions []domain.UpgradeDecision `json:"detailed_decisions"`
}

var titleCaser = cases.Title(language.English)

var budgetFlavour = map[domain.BudgetTier]string{
	domain.BudgetLow:    "keeping costs low",
	domain.BudgetMedium: "within a mid-range budget",
	domain.BudgetHigh:   "with room for premium materials",
}

// Reason decides replace/keep for every item named by either the condition
// ratings or the user's selection. Items without a rating are treated as
// acceptable. The budget only changes the reasoning text.
func Reason(conditions map[string]domain.Condition, selection []string, budget domain.BudgetTier) Upgrade {
	rated := make(map[string]domain.Condition, len(conditions))
	for item, cond := range conditions {
		key := domain.CanonicalItem(item)
		if key == "" {
			continue
		}
		rated[key] = cond
	}

	wanted := make(map[string]bool, len(selection))
	order := make([]string, 0, len(selection)+len(rated))
	for _, item := range selection {
		key := domain.CanonicalItem(item)
		if key == "" || wanted[key] {
			continue
		}
		wanted[key] = true
		order = append(order, key)
	}
	rest := make([]string, 0, len(rated))
	for key := range rated {
		if !wanted[key] {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	order = append(order, rest...)

	flavour, ok := budgetFlavour[budget]
	if !ok {
		flavour = budgetFlavour[domain.BudgetMedium]
	}

	out := Upgrade{
		Replace:   []string{},
		Keep:      []string{},
		Reasoning: make(map[string]string, len(order)),
		Decisions: make([]domain.UpgradeDecision, 0, len(order)),
	}
	for _, item := range order {
		cond, ok := rated[item]
		if !ok || cond == "" {
			cond = domain.ConditionAcceptable
		}
		d := decide(item, cond, wanted[item], flavour)
		if d.Decision == domain.DecisionReplace {
			out.Replace = append(out.Replace, item)
		} else {
			out.Keep = append(out.Keep, item)
		}
		out.Reasoning[item] = d.Reasoning
		out.Decisions = append(out.Decisions, d)
	}
	return out
}

func decide(item string, cond domain.Condition, wanted bool, flavour string) domain.UpgradeDecision {
	name := titleCaser.String(item)
	d := domain.UpgradeDecision{Item: item}
	switch {
	case wanted && cond == domain.ConditionOld:
		d.Decision, d.Priority = domain.DecisionReplace, 5
		d.Reasoning = fmt.Sprintf("%s is worn and you asked to replace it; top priority %s.", name, flavour)
	case wanted && cond == domain.ConditionNew:
		d.Decision, d.Priority = domain.DecisionReplace, 2
		d.Reasoning = fmt.Sprintf("%s still looks new but you asked to replace it; low priority %s.", name, flavour)
	case wanted:
		d.Decision, d.Priority = domain.DecisionReplace, 3
		d.Reasoning = fmt.Sprintf("%s is in acceptable shape and you asked to replace it %s.", name, flavour)
	case cond == domain.ConditionOld:
		d.Decision, d.Priority = domain.DecisionKeep, 4
		d.Reasoning = fmt.Sprintf("%s is worn but was not selected; consider replacing it later.", name)
	default:
		d.Decision, d.Priority = domain.DecisionKeep, 1
		d.Reasoning = fmt.Sprintf("%s is in %s condition and was not selected.", name, cond)
	}
	return d
}
