package domain

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testReporting = []LocationRecord{
		{ID: 1, Name: "Global"},
		{ID: 6, Name: "China"},
		{ID: 163, Name: "India"},
	}
	testModelResults = []LocationRecord{
		{ID: 1, Name: "Global"},
		{ID: 6, Name: "China"},
		{ID: 491, Name: "Beijing"},
		{ID: 4841, Name: "Andhra Pradesh"},
	}
)

func TestMergeLocations_ReportingFirstAndDeduplicated(t *testing.T) {
	got := MergeLocations(testReporting, testModelResults)

	want := []LocationRecord{
		{ID: 1, Name: "Global"},
		{ID: 6, Name: "China"},
		{ID: 163, Name: "India"},
		{ID: 491, Name: "Beijing"},
		{ID: 4841, Name: "Andhra Pradesh"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("MergeLocations mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeLocations_KeepsRowsDifferingOnlyInID(t *testing.T) {
	got := MergeLocations(
		[]LocationRecord{{ID: 10, Name: "Georgia"}},
		[]LocationRecord{{ID: 35, Name: "Georgia"}},
	)
	assert.Len(t, got, 2)
}

func TestMergeLocations_Empty(t *testing.T) {
	assert.Empty(t, MergeLocations(nil, nil))
}

func TestLocationIndex_Lookup(t *testing.T) {
	ix := NewLocationIndex(MergeLocations(testReporting, testModelResults))

	tests := []struct {
		name string
		want int
	}{
		{"India", 163},           // reporting only
		{"Andhra Pradesh", 4841}, // model results only
		{"Global", 1},            // in both sets
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ix.Lookup(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLocationIndex_LookupMissing(t *testing.T) {
	ix := NewLocationIndex(MergeLocations(testReporting, testModelResults))

	_, err := ix.Lookup("Nowhereland")
	require.ErrorIs(t, err, ErrLocationNotFound)
	assert.Contains(t, err.Error(), "Nowhereland")
}

func TestLocationIndex_LookupIsCaseSensitive(t *testing.T) {
	ix := NewLocationIndex(testReporting)

	_, err := ix.Lookup("global")
	require.ErrorIs(t, err, ErrLocationNotFound)
}

func TestLocationIndex_CollisionLastWins(t *testing.T) {
	ix := NewLocationIndex(MergeLocations(
		[]LocationRecord{{ID: 10, Name: "Georgia"}},
		[]LocationRecord{{ID: 35, Name: "Georgia"}},
	))

	id, err := ix.Lookup("Georgia")
	require.NoError(t, err)
	assert.Equal(t, 35, id)
}

func TestLocationIndex_NormalizesUnicode(t *testing.T) {
	composed := "C\u00f4te d'Ivoire"
	decomposed := "Co\u0302te d'Ivoire"
	ix := NewLocationIndex([]LocationRecord{{ID: 205, Name: composed}})

	id, err := ix.Lookup(decomposed)
	require.NoError(t, err)
	assert.Equal(t, 205, id)
}
