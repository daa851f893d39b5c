package model

import "github.com/pitch-lab/pitchcoach/pkg/domain/types"

// BehavioralCue is one behavioral signal extracted from the trainee's reply
type BehavioralCue struct {
	Name              string  `json:"name"`
	Evidence          string  `json:"evidence_quote"`
	Interpretation    string  `json:"interpretation"`
	ImpactProbability float64 `json:"impact_probability"`
}

// Risk is one deal risk extracted from the trainee's reply
type Risk struct {
	Description string            `json:"description"`
	Impact      string            `json:"impact"`
	Level       types.ImpactLevel `json:"impact_level"`
}

// ProblemAnalysis is produced once per substantive turn and consumed
// immediately by solution resolution. It is never persisted.
type ProblemAnalysis struct {
	Cues  []BehavioralCue `json:"behavioral_cues"`
	Risks []Risk          `json:"risks"`
}

// Empty reports whether the analysis carries no signals at all
func (p *ProblemAnalysis) Empty() bool {
	return p == nil || (len(p.Cues) == 0 && len(p.Risks) == 0)
}

// Solution is a remediation path resolved from the knowledge graph:
// Strategy --USES--> Technique --RESULTS_IN--> Outcome
type Solution struct {
	Strategy  *Entity `json:"strategy"`
	Technique *Entity `json:"technique"`
	Outcome   *Entity `json:"outcome"`
}

// Key returns the structural identity of the solution triple, used for
// deduplication
func (s Solution) Key() string {
	return s.Strategy.EntityID + "/" + s.Technique.EntityID + "/" + s.Outcome.EntityID
}
