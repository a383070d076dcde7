package gbdfake

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"math/rand/v2"
	"os"
	"slices"
	"strconv"

	"github.com/lbwsg/get-draws/internal/adapter/gbd"
	"github.com/lbwsg/get-draws/internal/domain"
)

// Dataset is the metadata and draw shape served by the fake.
type Dataset struct {
	RoundID   int                             `json:"gbd_round_id"`
	Locations map[int][]domain.LocationRecord `json:"locations"`
	AgeGroups []gbd.AgeGroup                  `json:"age_groups"`
	NumDraws  int                             `json:"num_draws"`
	// NoDraws lists location ids that exist but have no draws.
	NoDraws []int `json:"no_draws,omitempty"`
}

// DefaultDataset returns a small round 5 dataset: a handful of countries and
// subnationals split across the reporting and model-results sets.
func DefaultDataset(numDraws int) *Dataset {
	return &Dataset{
		RoundID: domain.DefaultRoundID,
		Locations: map[int][]domain.LocationRecord{
			domain.ReportingLocationSetID: {
				{ID: 1, Name: "Global"},
				{ID: 6, Name: "China"},
				{ID: 163, Name: "India"},
				{ID: 205, Name: "Côte d'Ivoire"},
			},
			domain.ModelResultsLocationSetID: {
				{ID: 1, Name: "Global"},
				{ID: 6, Name: "China"},
				{ID: 491, Name: "Beijing"},
				{ID: 4841, Name: "Andhra Pradesh"},
			},
		},
		AgeGroups: []gbd.AgeGroup{
			{ID: 2, Name: "Early Neonatal"},
			{ID: 3, Name: "Late Neonatal"},
			{ID: 4, Name: "Post Neonatal"},
			{ID: 5, Name: "1 to 4"},
		},
		NumDraws: numDraws,
	}
}

// LoadDataset reads a JSON dataset from path.
func LoadDataset(path string) (*Dataset, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	var d Dataset
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, fmt.Errorf("decode dataset %s: %w", path, err)
	}
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("dataset %s: %w", path, err)
	}
	return &d, nil
}

// Validate checks the dataset can answer every request the CLI makes.
func (d *Dataset) Validate() error {
	for _, set := range []int{domain.ReportingLocationSetID, domain.ModelResultsLocationSetID} {
		if _, ok := d.Locations[set]; !ok {
			return fmt.Errorf("missing location set %d", set)
		}
	}
	if len(d.AgeGroups) == 0 {
		return fmt.Errorf("no age groups")
	}
	if d.NumDraws <= 0 {
		return fmt.Errorf("num_draws must be positive, got %d", d.NumDraws)
	}
	return nil
}

func (d *Dataset) hasLocation(id int) bool {
	for _, records := range d.Locations {
		for _, r := range records {
			if r.ID == id {
				return true
			}
		}
	}
	return false
}

func (d *Dataset) hasAgeGroup(id int) bool {
	return slices.ContainsFunc(d.AgeGroups, func(ag gbd.AgeGroup) bool { return ag.ID == id })
}

// Table builds the draws table for req: one row per (sex, age group), draws
// seeded from the request so repeated pulls return identical values.
func (d *Dataset) Table(req domain.DrawsRequest) domain.DrawsTable {
	cols := make([]string, 0, 3+d.NumDraws)
	cols = append(cols, domain.LocationIDColumn, domain.SexIDColumn, domain.AgeGroupIDColumn)
	for i := range d.NumDraws {
		cols = append(cols, domain.DrawColumnPrefix+strconv.Itoa(i))
	}

	table := domain.DrawsTable{Columns: cols}
	for _, sex := range req.SexIDs {
		for _, age := range req.AgeGroups {
			if !d.hasAgeGroup(age) {
				continue
			}
			rng := rand.New(rand.NewPCG(seed(req.Source, req.LocationID), uint64(sex)<<32|uint64(age))) //nolint:gosec // fixture data
			row := make([]float64, 0, len(cols))
			row = append(row, float64(req.LocationID), float64(sex), float64(age))
			for range d.NumDraws {
				row = append(row, drawValue(req.Source, rng))
			}
			table.Rows = append(table.Rows, row)
		}
	}
	return table
}

func seed(src domain.Source, locationID int) uint64 {
	h := fnv.New64a()
	h.Write([]byte(src))
	return h.Sum64() ^ uint64(locationID)
}

// drawValue keeps each source in a plausible range: exposure and PAF are
// fractions, relative risks are at least one.
func drawValue(src domain.Source, rng *rand.Rand) float64 {
	switch src {
	case domain.SourceRR:
		return 1 + 4*rng.Float64()
	case domain.SourceBurdenator:
		return 0.5 * rng.Float64()
	default:
		return rng.Float64()
	}
}

// WriteJSON writes the dataset in the format LoadDataset reads.
func (d *Dataset) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encode dataset: %w", err)
	}
	return nil
}
