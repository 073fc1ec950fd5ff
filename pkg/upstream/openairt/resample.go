package openairt

// resampleLinear converts PCM16 samples between rates by linear
// interpolation. Adequate for speech input; the provider runs its own DSP on
// what it receives.
func resampleLinear(in []int16, fromRate, toRate int) []int16 {
	if fromRate == toRate || len(in) == 0 || fromRate <= 0 || toRate <= 0 {
		return in
	}

	outLen := len(in) * toRate / fromRate
	if outLen == 0 {
		return nil
	}

	out := make([]int16, outLen)
	step := float64(fromRate) / float64(toRate)
	for i := range out {
		pos := float64(i) * step
		idx := int(pos)
		if idx >= len(in)-1 {
			out[i] = in[len(in)-1]
			continue
		}
		frac := pos - float64(idx)
		a := float64(in[idx])
		b := float64(in[idx+1])
		out[i] = int16(a + (b-a)*frac)
	}
	return out
}
