package domain

import "fmt"

// Measure is the user-facing name of a draws quantity.
type Measure string

const (
	MeasureExposure     Measure = "exposure"
	MeasureRelativeRisk Measure = "relative_risk"
	MeasurePAF          Measure = "population_attributable_fraction"
)

// Source is the key the draws service uses to select a dataset.
type Source string

const (
	SourceExposure   Source = "exposure"
	SourceRR         Source = "rr"
	SourceBurdenator Source = "burdenator"
)

var measureSources = map[Measure]Source{
	MeasureExposure:     SourceExposure,
	MeasureRelativeRisk: SourceRR,
	MeasurePAF:          SourceBurdenator,
}

// Measures returns the recognized measures in a stable order.
func Measures() []Measure {
	return []Measure{MeasureExposure, MeasureRelativeRisk, MeasurePAF}
}

// Sources returns the recognized sources in a stable order.
func Sources() []Source {
	return []Source{SourceExposure, SourceRR, SourceBurdenator}
}

// ParseMeasure validates s against the closed set of measures.
func ParseMeasure(s string) (Measure, error) {
	m := Measure(s)
	if _, ok := measureSources[m]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownMeasure, s)
	}
	return m, nil
}

// Source maps the measure to its draws-service source.
func (m Measure) Source() (Source, error) {
	src, ok := measureSources[m]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownMeasure, string(m))
	}
	return src, nil
}

// ParseSource validates s against the closed set of sources.
func ParseSource(s string) (Source, error) {
	for _, src := range Sources() {
		if string(src) == s {
			return src, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSource, s)
}
