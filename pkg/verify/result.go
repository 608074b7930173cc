package verify

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/azhovan/rangeprobe/pkg/client"
)

// DiagnosticHeaders are the response headers kept on each Observation.
var DiagnosticHeaders = []string{
	"Content-Length",
	"Content-Range",
	"Accept-Ranges",
	"Content-Type",
	"Transfer-Encoding",
}

// Outcome is the verdict of one scenario.
type Outcome int

const (
	// OutcomeIndeterminate means the pair could not be compared: a request
	// failed at the transport level.
	OutcomeIndeterminate Outcome = iota
	// OutcomeMatched means both bodies have the same full digest.
	OutcomeMatched
	// OutcomeMismatched means both requests succeeded but the bodies differ.
	OutcomeMismatched
	// OutcomeRejected means at least one request got a status outside 200/206.
	OutcomeRejected
)

func (o Outcome) String() string {
	switch o {
	case OutcomeMatched:
		return "matched"
	case OutcomeMismatched:
		return "mismatched"
	case OutcomeRejected:
		return "rejected"
	default:
		return "indeterminate"
	}
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Divergence locates where two bodies differ, based on the window digests.
type Divergence int

const (
	// DivergenceUnknown is used when no comparison took place.
	DivergenceUnknown Divergence = iota
	// DivergenceNone means the full digests are equal.
	DivergenceNone
	// DivergenceLeading means the leading windows already differ.
	DivergenceLeading
	// DivergenceTrailing means the leading windows match but the trailing ones do not,
	// typical for a truncated or padded tail.
	DivergenceTrailing
	// DivergenceInterior means both windows match and the bodies still differ.
	DivergenceInterior
)

func (d Divergence) String() string {
	switch d {
	case DivergenceNone:
		return "none"
	case DivergenceLeading:
		return "leading window"
	case DivergenceTrailing:
		return "trailing window"
	case DivergenceInterior:
		return "interior"
	default:
		return "unknown"
	}
}

func (d Divergence) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func classify(static, live DigestResult) Divergence {
	switch {
	case static.Full == live.Full:
		return DivergenceNone
	case static.Prefix != live.Prefix:
		return DivergenceLeading
	case static.Suffix != live.Suffix:
		return DivergenceTrailing
	default:
		return DivergenceInterior
	}
}

// Observation is what the verifier kept from one response.
type Observation struct {
	StatusCode int               `json:"status_code"`
	Headers    map[string]string `json:"headers"`
	Digest     DigestResult      `json:"digest"`
}

func observe(rec *client.ResponseRecord, window int) *Observation {
	headers := make(map[string]string, len(DiagnosticHeaders))
	for _, h := range DiagnosticHeaders {
		if v := rec.Header.Values(h); len(v) > 0 {
			headers[h] = strings.Join(v, ", ")
		}
	}
	return &Observation{
		StatusCode: rec.StatusCode,
		Headers:    headers,
		Digest:     Digest(rec.Body, window),
	}
}

// ScenarioResult is the outcome of one static/live request pair.
// Static and Live are nil when the corresponding request never produced a response.
type ScenarioResult struct {
	Label string `json:"label"`
	Range string `json:"range"`

	Static *Observation `json:"static,omitempty"`
	Live   *Observation `json:"live,omitempty"`

	// Matched is true when both full digests are equal.
	Matched bool `json:"matched"`

	// PrefixMatched and SuffixMatched compare the window digests.
	PrefixMatched bool `json:"prefix_matched"`
	SuffixMatched bool `json:"suffix_matched"`

	// StatusMatched is false when, e.g., one mode answered 206 and the other 200.
	StatusMatched bool `json:"status_matched"`

	Outcome    Outcome    `json:"outcome"`
	Divergence Divergence `json:"divergence"`

	// FirstDifference is the offset of the first differing byte, -1 if none.
	FirstDifference int64 `json:"first_difference"`

	// Err holds the transport or status error, if any.
	Err error `json:"-"`
}

// Passed reports whether the pair was compared and matched.
func (r ScenarioResult) Passed() bool {
	return r.Outcome == OutcomeMatched
}

func (r ScenarioResult) MarshalJSON() ([]byte, error) {
	type plain ScenarioResult
	out := struct {
		plain
		Error string `json:"error,omitempty"`
	}{plain: plain(r)}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	return json.Marshal(out)
}

// MismatchError describes a compared pair whose bodies differ.
type MismatchError struct {
	Label           string
	Divergence      Divergence
	FirstDifference int64
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("scenario %q: static and live bodies differ (divergence: %s, first difference at byte %d)",
		e.Label, e.Divergence, e.FirstDifference)
}
