package classify

import "github.com/ezpz4akash/docu-check/internal/core/domain"

// Summarize folds findings into a job-level summary: distinct types in
// discovery order, per-type counts, and the total finding count.
func Summarize(findings []domain.Finding) domain.JobSummary {
	found := make([]domain.Label, 0, len(findings))
	counts := make(map[domain.Label]int, len(findings))
	for _, f := range findings {
		if counts[f.Type] == 0 {
			found = append(found, f.Type)
		}
		counts[f.Type]++
	}
	return domain.JobSummary{
		FoundTypes: found,
		FileCount:  len(findings),
		Counts:     counts,
	}
}
