package metrics

import (
	"math"

	"imagecert/types"

	"gonum.org/v1/gonum/floats"
)

const (
	vifScales  = 4
	vifEpsilon = 1e-10
)

// VIF computes pixel-domain visual information fidelity over four scales.
// Samples are on the 0-255 scale the noise variance refers to. The result is
// NaN when the reference carries no signal or is smaller than the first window.
func VIF(ref, cand *types.Image, noise float64) (float64, error) {
	if err := checkShape(ref, cand); err != nil {
		return 0, err
	}

	var total float64
	defined := 0
	for c := 0; c < ref.Channels; c++ {
		v := vifPlane(ref.Plane(c, 1), cand.Plane(c, 1), ref.Width, ref.Height, noise)
		if math.IsNaN(v) {
			continue
		}
		total += v
		defined++
	}
	if defined == 0 {
		return math.NaN(), nil
	}
	return total / float64(defined), nil
}

func vifPlane(ref, dist []float64, width, height int, noise float64) float64 {
	var num, den float64

	for scale := 1; scale <= vifScales; scale++ {
		size := 1<<(vifScales-scale+1) + 1
		kernel := gaussianKernel(size, float64(size)/5)

		if scale > 1 {
			if width < size || height < size {
				break
			}
			var w, h int
			ref, w, h = filterValid(ref, width, height, kernel)
			dist, _, _ = filterValid(dist, width, height, kernel)
			ref, width, height = downsample(ref, w, h)
			dist, _, _ = downsample(dist, w, h)
		}
		if width < size || height < size {
			break
		}

		muRef, w, h := filterValid(ref, width, height, kernel)
		muDist, _, _ := filterValid(dist, width, height, kernel)
		refSq, _, _ := filterValid(product(ref, ref), width, height, kernel)
		distSq, _, _ := filterValid(product(dist, dist), width, height, kernel)
		cross, _, _ := filterValid(product(ref, dist), width, height, kernel)

		for i := 0; i < w*h; i++ {
			sigmaRef := math.Max(refSq[i]-muRef[i]*muRef[i], 0)
			sigmaDist := math.Max(distSq[i]-muDist[i]*muDist[i], 0)
			sigmaCross := cross[i] - muRef[i]*muDist[i]

			g := sigmaCross / (sigmaRef + vifEpsilon)
			sv := sigmaDist - g*sigmaCross

			if sigmaRef < vifEpsilon {
				g = 0
				sv = sigmaDist
				sigmaRef = 0
			}
			if sigmaDist < vifEpsilon {
				g = 0
				sv = 0
			}
			if g < 0 {
				sv = sigmaDist
				g = 0
			}
			if sv <= vifEpsilon {
				sv = vifEpsilon
			}

			num += math.Log10(1 + g*g*sigmaRef/(sv+noise))
			den += math.Log10(1 + sigmaRef/noise)
		}
	}

	if den == 0 {
		return math.NaN()
	}
	return num / den
}

// gaussianKernel returns a normalized 1-D Gaussian; its outer product with
// itself is the normalized 2-D window.
func gaussianKernel(size int, sigma float64) []float64 {
	kernel := make([]float64, size)
	half := size / 2
	for i := range kernel {
		d := float64(i - half)
		kernel[i] = math.Exp(-(d * d) / (2 * sigma * sigma))
	}
	floats.Scale(1/floats.Sum(kernel), kernel)
	return kernel
}

// filterValid correlates the plane with the separable kernel, keeping only
// positions where the kernel fits entirely.
func filterValid(plane []float64, width, height int, kernel []float64) ([]float64, int, int) {
	size := len(kernel)
	outW, outH := width-size+1, height-size+1

	rows := make([]float64, outW*height)
	for y := 0; y < height; y++ {
		src := plane[y*width : (y+1)*width]
		for x := 0; x < outW; x++ {
			rows[y*outW+x] = floats.Dot(src[x:x+size], kernel)
		}
	}

	out := make([]float64, outW*outH)
	for y := 0; y < outH; y++ {
		for x := 0; x < outW; x++ {
			var sum float64
			for k := 0; k < size; k++ {
				sum += rows[(y+k)*outW+x] * kernel[k]
			}
			out[y*outW+x] = sum
		}
	}
	return out, outW, outH
}

// downsample keeps every second row and column starting at the origin
func downsample(plane []float64, width, height int) ([]float64, int, int) {
	outW, outH := (width+1)/2, (height+1)/2
	out := make([]float64, outW*outH)
	for y := 0; y < outH; y++ {
		for x := 0; x < outW; x++ {
			out[y*outW+x] = plane[(2*y)*width+2*x]
		}
	}
	return out, outW, outH
}

func product(a, b []float64) []float64 {
	out := make([]float64, len(a))
	floats.MulTo(out, a, b)
	return out
}
