package domain

import (
	"fmt"
	"path/filepath"
	"time"
)

// Fixed request parameters for LBWSG draws.
const (
	GBDIDType        = "rei_id"
	LBWSGReiID       = 339
	DefaultRoundID   = 5
	AgeGroupSetID    = 12 // disaggregated age groups used by GBD 2016, 2017 and 2019
	StatusBest       = "best"
	MeasureModeExt   = "pickle"
	SourceModeExt    = "pkl"
	DrawColumnPrefix = "draw_"
	LocationIDColumn = "location_id"
	SexIDColumn      = "sex_id"
	AgeGroupIDColumn = "age_group_id"
)

// SexIDs are the GBD sex ids requested: male and female.
var SexIDs = []int{1, 2}

// DrawsRequest is the parameter set sent to the draws service.
type DrawsRequest struct {
	GBDIDType  string `json:"gbd_id_type"`
	GBDID      int    `json:"gbd_id"`
	Source     Source `json:"source"`
	LocationID int    `json:"location_id"`
	SexIDs     []int  `json:"sex_id"`
	AgeGroups  []int  `json:"age_group_id"`
	RoundID    int    `json:"gbd_round_id"`
	Status     string `json:"status"`
}

// NewDrawsRequest fills in the LBWSG constants around the resolved values.
func NewDrawsRequest(src Source, locationID int, ageGroups []int, roundID int) DrawsRequest {
	return DrawsRequest{
		GBDIDType:  GBDIDType,
		GBDID:      LBWSGReiID,
		Source:     src,
		LocationID: locationID,
		SexIDs:     append([]int(nil), SexIDs...),
		AgeGroups:  ageGroups,
		RoundID:    roundID,
		Status:     StatusBest,
	}
}

// DrawsTable is the tabular result returned by the draws service.
type DrawsTable struct {
	Columns []string    `json:"columns" msgpack:"columns"`
	Rows    [][]float64 `json:"rows" msgpack:"rows"`
}

// Len returns the number of rows.
func (t DrawsTable) Len() int { return len(t.Rows) }

// ColumnIndex returns the position of name, or -1.
func (t DrawsTable) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// ArtifactPath builds <dir>/<location>_<label>.<ext>.
func ArtifactPath(dir, location, label, ext string) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s.%s", location, label, ext))
}

// ArtifactWritten announces a successfully written artifact.
type ArtifactWritten struct {
	RunID      string    `json:"run_id"`
	Location   string    `json:"location"`
	LocationID int       `json:"location_id"`
	Measure    string    `json:"measure,omitempty"`
	Source     Source    `json:"source"`
	Path       string    `json:"path"`
	Rows       int       `json:"rows"`
	WrittenAt  time.Time `json:"written_at"`
}
