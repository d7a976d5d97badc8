package core

import "creocore/pkg/domain"

// NewDefaultRulesEngine builds a rules engine with the built-in policy set:
// lifecycle terminality, budget validation, and follow-up hygiene.
func NewDefaultRulesEngine() *domain.RulesEngine {
	engine := domain.NewRulesEngine()
	engine.Register(LifecycleTransitionRule())
	engine.Register(BudgetRule())
	engine.Register(FollowUpHygieneRule())
	return engine
}
