package verify

import (
	"fmt"
	"time"

	"go.uber.org/multierr"
)

// Report collects the results of one Run, in scenario order.
type Report struct {
	RunID    string           `json:"run_id"`
	BaseURL  string           `json:"base_url"`
	Resource string           `json:"resource"`
	Started  time.Time        `json:"started"`
	Elapsed  time.Duration    `json:"elapsed"`
	Results  []ScenarioResult `json:"results"`
}

// Passed reports whether every scenario matched.
func (r *Report) Passed() bool {
	for _, res := range r.Results {
		if !res.Passed() {
			return false
		}
	}
	return len(r.Results) > 0
}

// Count returns how many scenarios ended with the given outcome.
func (r *Report) Count(outcome Outcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == outcome {
			n++
		}
	}
	return n
}

// Result returns the result for label.
func (r *Report) Result(label string) (ScenarioResult, bool) {
	for _, res := range r.Results {
		if res.Label == label {
			return res, true
		}
	}
	return ScenarioResult{}, false
}

// Err combines every failed scenario into one error, nil if all matched.
// Transport and status errors are wrapped with the scenario label; digest
// mismatches appear as *MismatchError.
func (r *Report) Err() error {
	var err error
	for _, res := range r.Results {
		switch res.Outcome {
		case OutcomeMatched:
		case OutcomeMismatched:
			err = multierr.Append(err, &MismatchError{
				Label:           res.Label,
				Divergence:      res.Divergence,
				FirstDifference: res.FirstDifference,
			})
		default:
			err = multierr.Append(err, fmt.Errorf("scenario %q %s: %w", res.Label, res.Outcome, res.Err))
		}
	}
	return err
}
