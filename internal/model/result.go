package model

// Outcome classifies what happened to a single item during a download run.
type Outcome int

const (
	// OutcomeSuccess means the file was fetched and renamed into place.
	OutcomeSuccess Outcome = iota

	// OutcomeSkipped means a matching file already existed locally and no
	// network call was made.
	OutcomeSkipped

	// OutcomeFailed means the item could not be downloaded after all
	// permitted retries (or failed a non-retryable error immediately).
	OutcomeFailed
)

// String returns a human-readable name for the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// DownloadResult records the per-item outcome of a download run.
//
// One item's failure never aborts the others; failures are collected here
// and surfaced by the summary instead.
type DownloadResult struct {
	// Entry is the item this result refers to.
	Entry ResolvedMedia

	// Outcome is the final disposition of the item.
	Outcome Outcome

	// Reason holds the error that caused a failed outcome, nil otherwise.
	Reason error
}

// Summary aggregates the results of a download run for reporting.
type Summary struct {
	Success int
	Skipped int
	Failed  int

	// FailedIDs lists the entry IDs that failed, in manifest order.
	FailedIDs []string
}

// Summarize folds a result slice into counts plus the failed item IDs.
func Summarize(results []DownloadResult) Summary {
	var s Summary
	for _, r := range results {
		switch r.Outcome {
		case OutcomeSuccess:
			s.Success++
		case OutcomeSkipped:
			s.Skipped++
		case OutcomeFailed:
			s.Failed++
			s.FailedIDs = append(s.FailedIDs, r.Entry.ID)
		}
	}
	return s
}

// Total returns the number of items covered by the summary.
func (s Summary) Total() int {
	return s.Success + s.Skipped + s.Failed
}

// AllSucceeded reports whether no item failed.
func (s Summary) AllSucceeded() bool {
	return s.Failed == 0
}
