package analyzer

// SampleIndices returns min(sampleCount, frameCount) frame indices spread
// evenly over [0, frameCount). Index i is floor(i*frameCount/n), so the first
// frame is always included and the indices are strictly increasing.
func SampleIndices(frameCount, sampleCount int) []int {
	if frameCount <= 0 || sampleCount <= 0 {
		return nil
	}
	n := sampleCount
	if frameCount < n {
		n = frameCount
	}
	indices := make([]int, n)
	for i := 0; i < n; i++ {
		indices[i] = int(int64(i) * int64(frameCount) / int64(n))
	}
	return indices
}
