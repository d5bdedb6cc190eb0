package escalation

// Adaptive wraps Policy with sensitivity- and context-risk-scaled
// thresholds, grounded on AdaptiveEscalationPolicy. Higher sensitivity
// tightens thresholds (stricter); AdjustForContext further tightens them
// in proportion to how risky the current context is judged to be.
type Adaptive struct {
	Policy
	BaseSensitivity float64
}

// NewAdaptivePolicy returns an Adaptive policy whose drift and uncertainty
// thresholds are scaled by sensitivity: threshold = base * (1.1 -
// sensitivity). Sensitivity is expected in [0, 1]; 0.1 reproduces
// NewPolicy's defaults (drift 0.5, uncertainty 0.4).
func NewAdaptivePolicy(sensitivity float64) *Adaptive {
	scale := 1.1 - sensitivity
	return &Adaptive{
		Policy: Policy{
			DriftThreshold:       0.5 * scale,
			ViolationThreshold:   1,
			UncertaintyThreshold: 0.4 * scale,
		},
		BaseSensitivity: sensitivity,
	}
}

// AdjustForContext further scales DriftThreshold and UncertaintyThreshold
// by (1 - contextRisk*0.3); higher-risk contexts get stricter (lower)
// thresholds. It mutates the receiver in place and may be called more than
// once, compounding each adjustment, matching the original's behavior.
func (a *Adaptive) AdjustForContext(contextRisk float64) {
	riskFactor := 1 - (contextRisk * 0.3)
	a.DriftThreshold *= riskFactor
	a.UncertaintyThreshold *= riskFactor
}
