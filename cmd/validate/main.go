// Command validate checks a get_draws artifact: that it decodes, has the
// expected columns, covers both sexes for the same age groups, and holds
// finite draw values.
//
// Usage:
//
//	go run ./cmd/validate -artifact /share/lbwsg/Global_exposure.pickle -location-id 1 -draws 1000
package main

import (
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/lbwsg/get-draws/internal/adapter/artifact"
	"github.com/lbwsg/get-draws/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name    string
	errors  []string
	skipped bool
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 && !p.skipped }

// maxErrors caps the per-phase detail printed for large artifacts.
const maxErrors = 20

func main() {
	path := flag.String("artifact", "", "path to the artifact to validate")
	locationID := flag.Int("location-id", 0, "expected location_id (0 skips the check)")
	draws := flag.Int("draws", 0, "expected number of draw columns (0 skips the check)")
	flag.Parse()

	if *path == "" {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run(os.Stdout, *path, *locationID, *draws))
}

func run(w io.Writer, path string, locationID, draws int) int {
	fmt.Fprintln(w, "=== Draws Artifact Validation ===")
	fmt.Fprintf(w, "Artifact: %s\n\n", path)

	decode := &phase{name: "Phase 1: Decode"}
	table, err := artifact.Read(path)
	if err != nil {
		decode.errorf("%v", err)
	}

	phases := []*phase{decode}
	if decode.passed() {
		schema := validateSchema(table, draws)
		phases = append(phases, schema)
		if schema.passed() {
			phases = append(phases, validateCoverage(table, locationID), validateValues(table))
		} else {
			phases = append(phases, skipped("Phase 3: Coverage"), skipped("Phase 4: Values"))
		}
	} else {
		phases = append(phases, skipped("Phase 2: Schema"), skipped("Phase 3: Coverage"), skipped("Phase 4: Values"))
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		switch {
		case p.skipped:
			status = "SKIPPED"
			allPassed = false
		case !p.passed():
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(w, "  %-28s %s\n", p.name, status)
	}

	if decode.passed() {
		fmt.Fprintf(w, "\nRows: %d, columns: %d\n", table.Len(), len(table.Columns))
	}

	for _, p := range phases {
		if p.passed() || p.skipped {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			if i == maxErrors {
				fmt.Fprintf(w, "  ... %d more\n", len(p.errors)-maxErrors)
				break
			}
			fmt.Fprintf(w, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(w, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(w, "\nValidation FAILED.")
	return 1
}

func skipped(name string) *phase {
	return &phase{name: name, skipped: true}
}

// ── Phase 2: Schema ──
// Id columns first, then draw_0..draw_N-1 in order, every row full width.

var idColumns = []string{domain.LocationIDColumn, domain.SexIDColumn, domain.AgeGroupIDColumn}

func validateSchema(t domain.DrawsTable, draws int) *phase {
	p := &phase{name: "Phase 2: Schema"}

	if t.Len() == 0 {
		p.errorf("artifact has no rows")
	}
	if len(t.Columns) < len(idColumns) || !slices.Equal(t.Columns[:len(idColumns)], idColumns) {
		p.errorf("columns must start with %s, got %v", strings.Join(idColumns, ", "), head(t.Columns, len(idColumns)))
		return p
	}

	drawCols := t.Columns[len(idColumns):]
	if len(drawCols) == 0 {
		p.errorf("no draw columns")
	}
	for i, c := range drawCols {
		if want := domain.DrawColumnPrefix + strconv.Itoa(i); c != want {
			p.errorf("column %d: expected %q, got %q", len(idColumns)+i, want, c)
		}
	}
	if draws > 0 && len(drawCols) != draws {
		p.errorf("expected %d draw columns, got %d", draws, len(drawCols))
	}

	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			p.errorf("row %d: %d values for %d columns", i, len(row), len(t.Columns))
		}
	}
	return p
}

// ── Phase 3: Coverage ──
// One location, both sexes, the same age groups for each sex, no duplicates.

func validateCoverage(t domain.DrawsTable, locationID int) *phase {
	p := &phase{name: "Phase 3: Coverage"}

	ages := map[int][]int{}
	seen := map[[2]int]bool{}
	locations := map[int]bool{}

	for i, row := range t.Rows {
		loc, sex, age := int(row[0]), int(row[1]), int(row[2])
		locations[loc] = true
		if locationID > 0 && loc != locationID {
			p.errorf("row %d: location_id %d, expected %d", i, loc, locationID)
		}
		if !slices.Contains(domain.SexIDs, sex) {
			p.errorf("row %d: unexpected sex_id %d", i, sex)
			continue
		}
		key := [2]int{sex, age}
		if seen[key] {
			p.errorf("row %d: duplicate sex_id %d age_group_id %d", i, sex, age)
			continue
		}
		seen[key] = true
		ages[sex] = append(ages[sex], age)
	}

	if len(locations) > 1 {
		p.errorf("artifact spans %d locations", len(locations))
	}
	for _, sex := range domain.SexIDs {
		if len(ages[sex]) == 0 {
			p.errorf("no rows for sex_id %d", sex)
		}
		slices.Sort(ages[sex])
	}
	first := ages[domain.SexIDs[0]]
	for _, sex := range domain.SexIDs[1:] {
		if !slices.Equal(first, ages[sex]) {
			p.errorf("age groups differ between sex_id %d %v and sex_id %d %v", domain.SexIDs[0], first, sex, ages[sex])
		}
	}
	return p
}

// ── Phase 4: Values ──

func validateValues(t domain.DrawsTable) *phase {
	p := &phase{name: "Phase 4: Values"}
	for i, row := range t.Rows {
		for j := len(idColumns); j < len(row); j++ {
			v := row[j]
			switch {
			case math.IsNaN(v) || math.IsInf(v, 0):
				p.errorf("row %d %s: non-finite value %v", i, t.Columns[j], v)
			case v < 0:
				p.errorf("row %d %s: negative value %g", i, t.Columns[j], v)
			}
		}
	}
	return p
}

func head(s []string, n int) []string {
	if len(s) < n {
		return s
	}
	return s[:n]
}
