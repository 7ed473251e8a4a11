package cli

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/aretw0/mrt/pkg/domain"
	"github.com/aretw0/mrt/pkg/factory"
)

// PrintPlan writes a generated trial order as a table, JSON or CSV.
func PrintPlan(w io.Writer, plan *factory.Plan, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(plan)
	case "csv":
		return writePlanCSV(w, plan)
	case "", "text":
		return writePlanTable(w, plan)
	}
	return fmt.Errorf("unknown format %q (text, json, csv)", format)
}

var planColumns = []string{"block", "index", "condition", "angle", "left_angle", "right_angle", "left_mirror", "right_mirror"}

func planRows(plan *factory.Plan) [][]string {
	var rows [][]string
	add := func(block domain.Block, trials []domain.TrialSpec) {
		for i, t := range trials {
			rows = append(rows, []string{
				string(block),
				strconv.Itoa(i + 1),
				string(t.Condition),
				strconv.Itoa(t.Angle),
				strconv.Itoa(t.LeftAngle),
				strconv.Itoa(t.RightAngle),
				strconv.FormatBool(t.LeftMirror),
				strconv.FormatBool(t.RightMirror),
			})
		}
	}
	add(domain.BlockPractice, plan.Practice)
	add(domain.BlockMain, plan.Main)
	return rows
}

func writePlanCSV(w io.Writer, plan *factory.Plan) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(planColumns); err != nil {
		return err
	}
	if err := cw.WriteAll(planRows(plan)); err != nil {
		return err
	}
	return cw.Error()
}

func writePlanTable(w io.Writer, plan *factory.Plan) error {
	same, mirror := 0, 0
	for _, t := range plan.Main {
		if t.Condition == domain.ConditionMirror {
			mirror++
		} else {
			same++
		}
	}
	fmt.Fprintf(w, "seed key %q, seed %d: %d practice, %d main (%d same, %d mirror)\n\n",
		plan.SeedKey, plan.Seed, len(plan.Practice), len(plan.Main), same, mirror)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, c := range planColumns {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, c)
	}
	fmt.Fprintln(tw)
	for _, row := range planRows(plan) {
		for i, c := range row {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, c)
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

// ReportValidation prints every configuration violation on its own line.
func ReportValidation(w io.Writer, err error) {
	if err == nil {
		fmt.Fprintln(w, "Configuration is valid.")
		return
	}
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		for _, e := range joined.Unwrap() {
			fmt.Fprintf(w, "  - %v\n", e)
		}
		return
	}
	fmt.Fprintf(w, "  - %v\n", err)
}
