// Package factory turns a configuration and a seeded random stream into the
// ordered trial lists of a session.
//
// Every function here is pure given its inputs: the same configuration and a
// Source at the same state produce bit-identical lists.
package factory

import (
	"errors"
	"fmt"

	"github.com/aretw0/mrt/pkg/config"
	"github.com/aretw0/mrt/pkg/domain"
	"github.com/aretw0/mrt/pkg/rng"
)

// ErrNilSource is returned when a builder is called without a random stream.
var ErrNilSource = errors.New("random source is required")

// Plan is the complete, reproducible trial layout of a session.
type Plan struct {
	SeedKey  string             `json:"seed_key"`
	Seed     uint32             `json:"seed"`
	Practice []domain.TrialSpec `json:"practice"`
	Main     []domain.TrialSpec `json:"main"`
}

// BuildPlan seeds a stream from seedKey and generates practice then main.
func BuildPlan(cfg config.Config, seedKey string) (*Plan, error) {
	seed := rng.Seed(seedKey)
	practice, main, err := BuildSession(cfg, rng.New(seed))
	if err != nil {
		return nil, err
	}
	return &Plan{SeedKey: seedKey, Seed: seed, Practice: practice, Main: main}, nil
}

// BuildSession generates both blocks from one stream, practice first.
func BuildSession(cfg config.Config, src *rng.Source) (practice, main []domain.TrialSpec, err error) {
	practice, err = BuildPractice(cfg, src)
	if err != nil {
		return nil, nil, err
	}
	main, err = BuildMain(cfg, src)
	if err != nil {
		return nil, nil, err
	}
	return practice, main, nil
}

// BuildMain generates the shuffled main block.
//
// Under the same-angle policy every angle gets RepetitionsPerAngle trials per
// condition with both glyphs at that angle. Under the all-pairs policy every
// ordered pair of angles gets RepetitionsPerPair trials per condition, and the
// shuffled list is then capped at MaxMainTrials when set.
func BuildMain(cfg config.Config, src *rng.Source) ([]domain.TrialSpec, error) {
	if err := check(cfg, src); err != nil {
		return nil, err
	}

	var keys []pair
	reps := cfg.RepetitionsPerAngle
	switch cfg.Pairing {
	case domain.PairingAllPairs:
		keys = allPairs(cfg.Angles)
		reps = cfg.RepetitionsPerPair
	default:
		keys = diagonal(cfg.Angles)
	}

	conds := make([]domain.Condition, 0, len(keys)*len(domain.Conditions)*reps)
	for range keys {
		for _, cond := range domain.Conditions {
			for r := 0; r < reps; r++ {
				conds = append(conds, cond)
			}
		}
	}
	sides := mirrorSides(cfg, src, conds)

	trials := make([]domain.TrialSpec, 0, len(conds))
	i := 0
	for _, k := range keys {
		for _, cond := range domain.Conditions {
			for r := 0; r < reps; r++ {
				trials = append(trials, domain.NewTrialSpec(cond, k.left, k.right, sides[i]))
				i++
			}
		}
	}

	Shuffle(trials, src)

	if cfg.Pairing == domain.PairingAllPairs {
		trials = Cap(trials, cfg.MaxMainTrials)
	}
	return trials, nil
}

// BuildPractice generates the shuffled practice block.
//
// Stimulus keys (angles, or angle pairs under all-pairs) are shuffled and
// cycled so that consecutive items differ. The first half, rounded up, is
// Same and the rest Mirror, so both conditions appear for any valid count.
func BuildPractice(cfg config.Config, src *rng.Source) ([]domain.TrialSpec, error) {
	if err := check(cfg, src); err != nil {
		return nil, err
	}

	var keys []pair
	if cfg.Pairing == domain.PairingAllPairs {
		keys = allPairs(cfg.Angles)
	} else {
		keys = diagonal(cfg.Angles)
	}
	Shuffle(keys, src)

	n := cfg.PracticeTrials
	sameCount := (n + 1) / 2
	conds := make([]domain.Condition, n)
	for i := range conds {
		if i < sameCount {
			conds[i] = domain.ConditionSame
		} else {
			conds[i] = domain.ConditionMirror
		}
	}
	sides := mirrorSides(cfg, src, conds)

	trials := make([]domain.TrialSpec, n)
	for i := range trials {
		k := keys[i%len(keys)]
		trials[i] = domain.NewTrialSpec(conds[i], k.left, k.right, sides[i])
	}

	Shuffle(trials, src)
	return trials, nil
}

// Shuffle permutes items in place with Fisher-Yates, one draw per remaining element.
func Shuffle[T any](items []T, src *rng.Source) {
	for i := len(items) - 1; i > 0; i-- {
		j := src.Intn(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}

// Cap trims a shuffled list to limit trials, keeping the first limit/2 Same
// and limit/2 Mirror trials in their shuffled order. A non-positive limit, or
// one not below the list length, leaves the list unchanged.
func Cap(trials []domain.TrialSpec, limit int) []domain.TrialSpec {
	if limit <= 0 || limit >= len(trials) {
		return trials
	}
	half := limit / 2
	var same, mirror int
	out := make([]domain.TrialSpec, 0, limit)
	for _, t := range trials {
		switch {
		case t.Condition == domain.ConditionSame && same < half:
			same++
			out = append(out, t)
		case t.Condition == domain.ConditionMirror && mirror < half:
			mirror++
			out = append(out, t)
		}
	}
	return out
}

type pair struct {
	left, right int
}

func diagonal(angles []int) []pair {
	out := make([]pair, len(angles))
	for i, a := range angles {
		out[i] = pair{a, a}
	}
	return out
}

func allPairs(angles []int) []pair {
	out := make([]pair, 0, len(angles)*len(angles))
	for _, l := range angles {
		for _, r := range angles {
			out = append(out, pair{l, r})
		}
	}
	return out
}

// mirrorSides returns, per condition slot, whether the left glyph is the
// mirrored one. Same slots are always false and consume no draw.
func mirrorSides(cfg config.Config, src *rng.Source, conds []domain.Condition) []bool {
	sides := make([]bool, len(conds))
	if !cfg.BalanceMirrorSide {
		for i, c := range conds {
			if c == domain.ConditionMirror {
				sides[i] = src.Float64() < 0.5
			}
		}
		return sides
	}

	var idx []int
	for i, c := range conds {
		if c == domain.ConditionMirror {
			idx = append(idx, i)
		}
	}
	balanced := make([]bool, len(idx))
	for i := 0; i < len(balanced)/2; i++ {
		balanced[i] = true
	}
	// Odd counts get their extra slot from a single draw.
	if len(balanced)%2 == 1 {
		balanced[len(balanced)-1] = src.Float64() < 0.5
	}
	Shuffle(balanced, src)
	for i, at := range idx {
		sides[at] = balanced[i]
	}
	return sides
}

func check(cfg config.Config, src *rng.Source) error {
	if src == nil {
		return ErrNilSource
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
