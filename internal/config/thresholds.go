package config

import "fmt"

// FilterConfig tunes the cheap pre-filter that narrows the pairwise space.
// The filter keeps a pair when ANY heuristic clears its minimum; tightening
// these values trades evaluation cost against the risk of hiding a pair the
// classifier would have flagged.
type FilterConfig struct {
	// MinActiveWeight is the magnitude below which an axis weight is treated
	// as noise when computing the active-axis set.
	MinActiveWeight float64 `yaml:"min_active_weight" json:"min_active_weight"`

	MinActiveAxisOverlap float64 `yaml:"min_active_axis_overlap" json:"min_active_axis_overlap"`
	MinSignAgreement     float64 `yaml:"min_sign_agreement" json:"min_sign_agreement"`
	MinWeightCosine      float64 `yaml:"min_weight_cosine" json:"min_weight_cosine"`
}

func (f FilterConfig) validate() error {
	if f.MinActiveWeight < 0 {
		return fmt.Errorf("min_active_weight must be >= 0")
	}
	if err := rateInRange("min_active_axis_overlap", f.MinActiveAxisOverlap); err != nil {
		return err
	}
	if err := rateInRange("min_sign_agreement", f.MinSignAgreement); err != nil {
		return err
	}
	if f.MinWeightCosine < -1 || f.MinWeightCosine > 1 {
		return fmt.Errorf("min_weight_cosine must be within [-1,1], got %v", f.MinWeightCosine)
	}
	return nil
}

// EvaluatorConfig bounds the per-pair behavioral evaluation.
type EvaluatorConfig struct {
	// SampleCountPerPair caps how many contexts each pair is evaluated over,
	// keeping worst-case cost bounded regardless of corpus size.
	SampleCountPerPair int `yaml:"sample_count_per_pair" json:"sample_count_per_pair"`

	// StrongIntensity is the level above which a prototype counts as
	// strongly active for the high-coactivation statistic.
	StrongIntensity float64 `yaml:"strong_intensity" json:"strong_intensity"`

	// MinExpressedIntensity is the level a gated-on prototype must reach to
	// count as passing (actually expressing behavior).
	MinExpressedIntensity float64 `yaml:"min_expressed_intensity" json:"min_expressed_intensity"`

	// MaxDivergenceExamples caps the divergence samples kept for human review.
	MaxDivergenceExamples int `yaml:"max_divergence_examples" json:"max_divergence_examples"`
}

func (e EvaluatorConfig) validate() error {
	if e.SampleCountPerPair < 0 {
		return fmt.Errorf("sample_count_per_pair must be >= 0")
	}
	if e.StrongIntensity < 0 {
		return fmt.Errorf("strong_intensity must be >= 0")
	}
	if e.MinExpressedIntensity < 0 {
		return fmt.Errorf("min_expressed_intensity must be >= 0")
	}
	if e.MaxDivergenceExamples < 0 {
		return fmt.Errorf("max_divergence_examples must be >= 0")
	}
	return nil
}

// ClassifierConfig holds the overlap classification cut points, applied in
// the fixed first-match-wins order documented on the classifier.
type ClassifierConfig struct {
	MergeMinGateAgreement     float64 `yaml:"merge_min_gate_agreement" json:"merge_min_gate_agreement"`
	MergeMinIntensityCorr     float64 `yaml:"merge_min_intensity_corr" json:"merge_min_intensity_corr"`
	NestedMinIntensityCorr    float64 `yaml:"nested_min_intensity_corr" json:"nested_min_intensity_corr"`
	SeparationMinCoactivation float64 `yaml:"separation_min_coactivation" json:"separation_min_coactivation"`
	SeparationMinMeanAbsDiff  float64 `yaml:"separation_min_mean_abs_diff" json:"separation_min_mean_abs_diff"`
	NegligibleGateAgreement   float64 `yaml:"negligible_gate_agreement" json:"negligible_gate_agreement"`
}

func (c ClassifierConfig) validate() error {
	for name, v := range map[string]float64{
		"merge_min_gate_agreement":    c.MergeMinGateAgreement,
		"nested_min_intensity_corr":   c.NestedMinIntensityCorr,
		"separation_min_coactivation": c.SeparationMinCoactivation,
		"negligible_gate_agreement":   c.NegligibleGateAgreement,
	} {
		if err := rateInRange(name, v); err != nil {
			return err
		}
	}
	if c.MergeMinIntensityCorr < -1 || c.MergeMinIntensityCorr > 1 {
		return fmt.Errorf("merge_min_intensity_corr must be within [-1,1]")
	}
	if c.SeparationMinMeanAbsDiff < 0 {
		return fmt.Errorf("separation_min_mean_abs_diff must be >= 0")
	}
	return nil
}

// AnalyzerConfig bounds the batch orchestration.
type AnalyzerConfig struct {
	// MaxCandidatePairs caps how many filtered pairs reach behavioral
	// evaluation in one batch run.
	MaxCandidatePairs int `yaml:"max_candidate_pairs" json:"max_candidate_pairs"`

	// Workers sets the parallelism for pair evaluation. 1 preserves fully
	// synchronous evaluation; higher values fan pairs out across goroutines.
	// Output is deterministic at any worker count.
	Workers int `yaml:"workers" json:"workers"`

	// ConfidenceFullCount is the evaluated-context count at which the
	// evidence base is considered complete for confidence scoring.
	ConfidenceFullCount int `yaml:"confidence_full_sample" json:"confidence_full_sample"`
}

func (a AnalyzerConfig) validate() error {
	if a.MaxCandidatePairs < 0 {
		return fmt.Errorf("max_candidate_pairs must be >= 0")
	}
	if a.Workers < 1 {
		return fmt.Errorf("workers must be >= 1")
	}
	if a.ConfidenceFullCount < 1 {
		return fmt.Errorf("confidence_full_sample must be >= 1")
	}
	return nil
}

// FeasibilityConfig tunes the empirical reachability tiers.
type FeasibilityConfig struct {
	// RareMaxPassRate separates RARE from OK. A pass rate exactly at this
	// boundary classifies as RARE.
	RareMaxPassRate float64 `yaml:"rare_max_pass_rate" json:"rare_max_pass_rate"`
}

func (f FeasibilityConfig) validate() error {
	return rateInRange("rare_max_pass_rate", f.RareMaxPassRate)
}

// SeverityConfig tunes axis-conflict severity scoring.
type SeverityConfig struct {
	// Primary scale: max lost intensity divided by the clause threshold.
	HighLostIntensityRatio   float64 `yaml:"high_lost_intensity_ratio" json:"high_lost_intensity_ratio"`
	MediumLostIntensityRatio float64 `yaml:"medium_lost_intensity_ratio" json:"medium_lost_intensity_ratio"`

	// Fallback scale applied when no threshold or numeric lost intensity is
	// available; scores the raw impact value instead.
	HighImpact   float64 `yaml:"high_impact" json:"high_impact"`
	MediumImpact float64 `yaml:"medium_impact" json:"medium_impact"`
}

func (s SeverityConfig) validate() error {
	if s.HighLostIntensityRatio <= s.MediumLostIntensityRatio {
		return fmt.Errorf("high_lost_intensity_ratio must exceed medium_lost_intensity_ratio")
	}
	if s.MediumLostIntensityRatio < 0 {
		return fmt.Errorf("medium_lost_intensity_ratio must be >= 0")
	}
	if s.HighImpact <= s.MediumImpact {
		return fmt.Errorf("high_impact must exceed medium_impact")
	}
	if s.MediumImpact < 0 {
		return fmt.Errorf("medium_impact must be >= 0")
	}
	return nil
}
