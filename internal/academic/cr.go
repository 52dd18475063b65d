package academic

// CRItem is one discipline's contribution to the CR.
type CRItem struct {
	Average  *float64
	Workload float64
}

// ComputeCR is the workload-weighted average of discipline averages. Items without an average or
// with no workload are skipped; ok is false when nothing counts.
func ComputeCR(items []CRItem) (cr float64, ok bool) {
	var sum, weight float64
	for _, it := range items {
		if it.Average == nil || it.Workload <= 0 {
			continue
		}
		sum += *it.Average * it.Workload
		weight += it.Workload
	}
	if weight == 0 {
		return 0, false
	}
	return Round2(sum / weight), true
}
