package usecase

// popularity encodes the feed's externally provided ranking as a score
// comparable across pages and across days: (offset+rank)/total. The value
// is deliberately not clamped, matching the original scoring; for a
// consistent feed the last article of a run scores (total-1)/total, just
// below 1. Callers must guarantee total > 0.
func popularity(rank, offset, total int) float64 {
	return float64(offset+rank) / float64(total)
}
