package aggregator

import (
	"encoding/json"
	"time"

	"github.com/guarzo/crosslist/internal/model"
)

// Reason classifies why a platform contributed no results.
type Reason string

const (
	// ReasonUnknownPlatform: the name is not a registered platform.
	ReasonUnknownPlatform Reason = "unknown_platform"
	// ReasonUnavailable: the connector cannot be queried and was never called.
	ReasonUnavailable Reason = "unavailable"
	// ReasonFault: the connector returned an error or panicked.
	ReasonFault Reason = "fault"
	// ReasonTimeout: the connector did not report before its deadline.
	ReasonTimeout Reason = "timeout"
)

// Skipped reports whether the platform was never scheduled.
func (r Reason) Skipped() bool {
	return r == ReasonUnknownPlatform || r == ReasonUnavailable
}

// Failure records one platform that was skipped or failed.
type Failure struct {
	Platform string
	Reason   Reason
	Err      error
}

func (f Failure) Error() string {
	if f.Err == nil {
		return f.Platform + ": " + string(f.Reason)
	}
	return f.Platform + ": " + string(f.Reason) + ": " + f.Err.Error()
}

func (f Failure) Unwrap() error {
	return f.Err
}

// MarshalJSON renders the error as a string.
func (f Failure) MarshalJSON() ([]byte, error) {
	out := struct {
		Platform string `json:"platform"`
		Reason   Reason `json:"reason"`
		Error    string `json:"error,omitempty"`
	}{Platform: f.Platform, Reason: f.Reason}
	if f.Err != nil {
		out.Error = f.Err.Error()
	}
	return json.Marshal(out)
}

// Response is the outcome of one federated search. Raw is the merged result
// set after the query's filters, ordering and limit; Results and Intelligence
// are both derived from it. Failures is sorted by platform.
type Response struct {
	SearchID     string                   `json:"search_id"`
	Raw          []model.SearchResult     `json:"raw"`
	Results      []model.NormalizedResult `json:"results"`
	Intelligence model.MarketIntelligence `json:"intelligence"`
	Failures     []Failure                `json:"failures"`
	Elapsed      time.Duration            `json:"elapsed_ns"`
}

// FailedPlatforms lists platforms that were scheduled but faulted or timed out.
func (r *Response) FailedPlatforms() []string {
	var out []string
	for _, f := range r.Failures {
		if !f.Reason.Skipped() {
			out = append(out, f.Platform)
		}
	}
	return out
}

// SkippedPlatforms lists platforms that were never scheduled.
func (r *Response) SkippedPlatforms() []string {
	var out []string
	for _, f := range r.Failures {
		if f.Reason.Skipped() {
			out = append(out, f.Platform)
		}
	}
	return out
}

// Failure returns the failure recorded for platform, if any.
func (r *Response) Failure(platform string) (Failure, bool) {
	for _, f := range r.Failures {
		if f.Platform == platform {
			return f, true
		}
	}
	return Failure{}, false
}
