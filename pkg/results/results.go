// Package results aggregates and exports the in-memory Result Log.
//
// The log held by a session is the durable source of truth; exports here work
// whether or not any sink accepted the entries.
package results

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/aretw0/mrt/pkg/domain"
)

// Columns is the fixed column order of CSV exports.
var Columns = []string{
	"block", "trial_index", "condition", "angle",
	"left_angle", "left_mirror", "right_angle", "right_mirror",
	"angle_difference", "response", "correct_response", "accuracy",
	"rt_ms", "timestamp",
}

// Summarize aggregates the main block. Accuracy and mean reaction time cover
// main records with a non-none response only.
func Summarize(records []domain.TrialRecord, totalMain int, at time.Time) domain.SessionSummary {
	s := domain.SessionSummary{TotalMainTrials: totalMain, Timestamp: at}

	var rtSum int64
	for _, r := range records {
		if r.Block != domain.BlockMain || r.Response == domain.ResponseNone {
			continue
		}
		s.AnsweredMainTrials++
		if r.Correct {
			s.CorrectMainTrials++
		}
		if r.ReactionTimeMs != nil {
			rtSum += *r.ReactionTimeMs
		}
	}
	if s.AnsweredMainTrials == 0 {
		return s
	}

	acc := math.Round(float64(s.CorrectMainTrials)/float64(s.AnsweredMainTrials)*1000) / 10
	mean := int64(math.Round(float64(rtSum) / float64(s.AnsweredMainTrials)))
	s.AccuracyPercent = &acc
	s.MeanReactionTimeMs = &mean
	return s
}

// Row renders a record in Columns order.
func Row(r domain.TrialRecord) []string {
	rt := ""
	if r.ReactionTimeMs != nil {
		rt = strconv.FormatInt(*r.ReactionTimeMs, 10)
	}
	return []string{
		string(r.Block),
		strconv.Itoa(r.SequenceIndex),
		string(r.Trial.Condition),
		strconv.Itoa(r.Trial.Angle),
		strconv.Itoa(r.Trial.LeftAngle),
		boolDigit(r.Trial.LeftMirror),
		strconv.Itoa(r.Trial.RightAngle),
		boolDigit(r.Trial.RightMirror),
		strconv.Itoa(r.Trial.AngleDifference),
		string(r.Response),
		string(r.Trial.ExpectedResponse()),
		strconv.Itoa(r.Accuracy()),
		rt,
		r.Timestamp.UTC().Format(time.RFC3339Nano),
	}
}

// WriteCSV writes a header and one row per record.
func WriteCSV(w io.Writer, records []domain.TrialRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for i, r := range records {
		if err := cw.Write(Row(r)); err != nil {
			return fmt.Errorf("failed to write csv row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSONL writes one JSON object per record, newline-delimited.
func WriteJSONL(w io.Writer, records []domain.TrialRecord) error {
	enc := json.NewEncoder(w)
	for i, r := range records {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("failed to encode record %d: %w", i, err)
		}
	}
	return nil
}

// ReadJSONL decodes records written by WriteJSONL.
func ReadJSONL(r io.Reader) ([]domain.TrialRecord, error) {
	dec := json.NewDecoder(r)
	var out []domain.TrialRecord
	for {
		var rec domain.TrialRecord
		if err := dec.Decode(&rec); err != nil {
			if err == io.EOF {
				return out, nil
			}
			return out, fmt.Errorf("failed to decode record %d: %w", len(out), err)
		}
		out = append(out, rec)
	}
}

func boolDigit(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
