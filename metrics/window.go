package metrics

// summedArea is an integral image over a single plane; sums over any square
// window are answered in constant time.
type summedArea struct {
	width  int
	height int
	table  []float64
}

func newSummedArea(values []float64, width, height int) *summedArea {
	stride := width + 1
	table := make([]float64, stride*(height+1))
	for y := 0; y < height; y++ {
		var row float64
		for x := 0; x < width; x++ {
			row += values[y*width+x]
			table[(y+1)*stride+x+1] = table[y*stride+x+1] + row
		}
	}
	return &summedArea{width: width, height: height, table: table}
}

// window sums the size×size block whose top-left corner is (x, y)
func (s *summedArea) window(x, y, size int) float64 {
	stride := s.width + 1
	x2, y2 := x+size, y+size
	return s.table[y2*stride+x2] - s.table[y*stride+x2] - s.table[y2*stride+x] + s.table[y*stride+x]
}

// localSums holds integral images of both planes, their squares and their product
type localSums struct {
	x, y, xx, yy, xy *summedArea
}

func newLocalSums(a, b []float64, width, height int) *localSums {
	aa := make([]float64, len(a))
	bb := make([]float64, len(b))
	ab := make([]float64, len(a))
	for i := range a {
		aa[i] = a[i] * a[i]
		bb[i] = b[i] * b[i]
		ab[i] = a[i] * b[i]
	}
	return &localSums{
		x:  newSummedArea(a, width, height),
		y:  newSummedArea(b, width, height),
		xx: newSummedArea(aa, width, height),
		yy: newSummedArea(bb, width, height),
		xy: newSummedArea(ab, width, height),
	}
}

func largestOddAtMost(n int) int {
	if n%2 == 0 {
		return n - 1
	}
	return n
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
