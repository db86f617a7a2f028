package follower

// FilterScan reduces a raw scan to the usable middle angular band. Samples
// outside [RangeMin, RangeMax) are discarded, then only the middle half of
// the filtered sequence (indices 25%..75%) is kept, dropping near-boresight
// artifacts at the extremes. Relative angular ordering is preserved.
//
// An empty result is valid; downstream detectors tolerate it.
func FilterScan(scan RangeScan) []float64 {
	valid := make([]float64, 0, len(scan.Ranges))
	for _, r := range scan.Ranges {
		if r >= scan.RangeMin && r < scan.RangeMax {
			valid = append(valid, r)
		}
	}

	n := len(valid)
	return valid[n/4 : 3*n/4]
}
