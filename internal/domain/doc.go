// Package domain models the GBD draws pulled for the low birth weight and
// short gestation (LBWSG) risk factor.
//
// # Draws
//
// A draws table holds Monte-Carlo samples of one estimate. Each row is one
// demographic stratum (location, sex, age group) and the columns draw_0 through
// draw_N-1 hold the samples. The table is produced by the central draws
// service and is persisted as-is; nothing in this module inspects its values
// beyond counting rows.
//
// # Measures and sources
//
// Users ask for a measure; the draws service is keyed by a source:
//
//	exposure                          → exposure
//	relative_risk                     → rr
//	population_attributable_fraction  → burdenator
//
// Both sets are closed. See [Measure.Source] and [ParseSource].
//
// # Locations
//
// Location names are resolved against two location sets of the same round:
// the reporting set (id 1) and the model-results set (id 35). The sets
// overlap; rows present in both are deduplicated before the name index is
// built. Names are compared after NFC normalization, otherwise exactly.
//
// No name collisions (the same name with different ids) are known between the
// two sets. If one appears, the model-results id wins because it is indexed
// last. See [MergeLocations] and [NewLocationIndex].
package domain
