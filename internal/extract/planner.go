// Package extract orchestrates the conversion run: batch planning,
// per-batch model fan-out, visual-element validation, and output
// assembly.
package extract

// BatchDescriptor names one contiguous page range. Page numbers are
// 1-indexed and inclusive on both ends.
type BatchDescriptor struct {
	BatchNum  int
	PageStart int
	PageEnd   int
}

// PlanBatches partitions [startPage, endPage] into consecutive ranges
// of at most batchSize pages. Invalid inputs yield an empty plan.
func PlanBatches(startPage, endPage, batchSize int) []BatchDescriptor {
	if startPage < 1 || endPage < startPage || batchSize < 1 {
		return nil
	}
	var plan []BatchDescriptor
	for start := startPage; start <= endPage; start += batchSize {
		end := start + batchSize - 1
		if end > endPage {
			end = endPage
		}
		plan = append(plan, BatchDescriptor{
			BatchNum:  len(plan),
			PageStart: start,
			PageEnd:   end,
		})
	}
	return plan
}
