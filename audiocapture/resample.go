package audiocapture

// resampleLinear converts samples from srcRate to dstRate using linear
// interpolation. Good enough for speech headed into a 16 kHz model; anything
// fancier (windowed sinc) buys nothing at this bandwidth.
func resampleLinear(in []float32, srcRate, dstRate float64) []float32 {
	if len(in) == 0 || srcRate <= 0 || dstRate <= 0 {
		return nil
	}
	if srcRate == dstRate {
		out := make([]float32, len(in))
		copy(out, in)
		return out
	}

	ratio := srcRate / dstRate
	n := int(float64(len(in)) / ratio)
	if n == 0 {
		return nil
	}

	out := make([]float32, n)
	for i := range out {
		pos := float64(i) * ratio
		lo := int(pos)
		hi := lo + 1
		if hi >= len(in) {
			out[i] = in[len(in)-1]
			continue
		}
		frac := float32(pos - float64(lo))
		out[i] = in[lo]*(1-frac) + in[hi]*frac
	}
	return out
}
