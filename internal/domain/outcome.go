package domain

type Status string

const (
	StatusSuccess Status = "success"
	StatusPartial Status = "partial"
	StatusFailure Status = "failure"
)

type StopReason string

const (
	StopEndOfData   StopReason = "end_of_data"
	StopPageBound   StopReason = "page_bound"
	StopAllKnown    StopReason = "all_known"
	StopError       StopReason = "error"
	StopSchemaLimit StopReason = "schema_errors"
)

// ResourceResult aggregates every page visited for one (business, resource) pair.
type ResourceResult struct {
	Kind       ResourceKind
	Status     Status
	Err        error
	Reviews    []Review
	Stats      []StatsSnapshot
	Profile    *Business
	Pages      []int
	Warnings   []string
	StopReason StopReason
}

func (r ResourceResult) Records() int { return len(r.Reviews) + len(r.Stats) }

// BusinessOutcome is what a sink receives once per business per run.
// Reviews or Stats is nil when that resource was not requested.
type BusinessOutcome struct {
	Business  BusinessID
	Profile   *Business
	Reviews   *ResourceResult
	Stats     *ResourceResult
	Status    Status
	Err       error
	Persisted bool
}

// Warnings collects page-level warnings from every requested resource.
func (o BusinessOutcome) Warnings() []string {
	var out []string
	for _, r := range []*ResourceResult{o.Reviews, o.Stats} {
		if r != nil {
			out = append(out, r.Warnings...)
		}
	}
	return out
}

func (o BusinessOutcome) ReviewList() []Review {
	if o.Reviews == nil {
		return nil
	}
	return o.Reviews.Reviews
}

func (o BusinessOutcome) StatsList() []StatsSnapshot {
	if o.Stats == nil {
		return nil
	}
	return o.Stats.Stats
}

// HasData reports whether anything worth persisting was gathered.
func (o BusinessOutcome) HasData() bool {
	return o.Profile != nil || len(o.ReviewList()) > 0 || len(o.StatsList()) > 0
}
