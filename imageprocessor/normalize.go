package imageprocessor

import (
	"errors"
	"fmt"
	"image"
	"runtime"

	"imagecert/logging"
	"imagecert/types"

	"gocv.io/x/gocv"
)

// ErrShapeMismatch is returned when normalization cannot make a pair congruent
var ErrShapeMismatch = errors.New("normalized images still differ in shape")

// depthMask extracts the depth bits of an OpenCV matrix type
const depthMask = 7

// Normalized is a congruent 8-bit BGR pair ready for comparison
type Normalized struct {
	Reference gocv.Mat
	Candidate gocv.Mat

	// Resized is set when the candidate was rescaled to the reference resolution
	Resized bool
	// CandidateSize is the candidate resolution before resizing
	CandidateSize image.Point
}

// Close releases both matrices
func (n *Normalized) Close() {
	n.Reference.Close()
	n.Candidate.Close()
}

// Normalize reconciles channel count, bit depth and resolution of a pair.
// Alpha is composited over white, and a candidate of a different resolution is
// resized to the reference with nearest-neighbour sampling. The inputs are not
// modified; the returned pair must be closed by the caller.
func Normalize(ref, cand gocv.Mat) (*Normalized, error) {
	refColor, err := toColor(ref)
	if err != nil {
		return nil, fmt.Errorf("reference: %w", err)
	}
	candColor, err := toColor(cand)
	if err != nil {
		refColor.Close()
		return nil, fmt.Errorf("candidate: %w", err)
	}

	result := &Normalized{
		Reference:     refColor,
		Candidate:     candColor,
		CandidateSize: image.Point{X: candColor.Cols(), Y: candColor.Rows()},
	}

	if candColor.Rows() != refColor.Rows() || candColor.Cols() != refColor.Cols() {
		logging.DebugLog("Candidate resolution %dx%d differs from reference %dx%d, resizing",
			candColor.Cols(), candColor.Rows(), refColor.Cols(), refColor.Rows())

		resized := gocv.NewMat()
		gocv.Resize(candColor, &resized, image.Point{X: refColor.Cols(), Y: refColor.Rows()}, 0, 0, gocv.InterpolationNearestNeighbor)
		candColor.Close()
		result.Candidate = resized
		result.Resized = true
	}

	if !sameShape(result.Reference, result.Candidate) {
		err := fmt.Errorf("%w: reference %dx%dx%d, candidate %dx%dx%d", ErrShapeMismatch,
			result.Reference.Cols(), result.Reference.Rows(), result.Reference.Channels(),
			result.Candidate.Cols(), result.Candidate.Rows(), result.Candidate.Channels())
		result.Close()
		return nil, err
	}

	return result, nil
}

func sameShape(a, b gocv.Mat) bool {
	return a.Rows() == b.Rows() && a.Cols() == b.Cols() && a.Channels() == b.Channels() && a.Type() == b.Type()
}

// toColor converts any decoded image to 8-bit, 3-channel BGR
func toColor(src gocv.Mat) (gocv.Mat, error) {
	if src.Empty() {
		return gocv.NewMat(), fmt.Errorf("empty image")
	}

	eight := toEightBit(src)

	switch eight.Channels() {
	case 3:
		return eight, nil
	case 1:
		bgr := gocv.NewMat()
		gocv.CvtColor(eight, &bgr, gocv.ColorGrayToBGR)
		eight.Close()
		return bgr, nil
	case 4:
		defer eight.Close()
		return compositeOverWhite(eight)
	}

	channels := eight.Channels()
	eight.Close()
	return gocv.NewMat(), fmt.Errorf("unsupported channel count %d", channels)
}

// toEightBit rescales 16-bit samples to 8 bits and copies 8-bit input
func toEightBit(src gocv.Mat) gocv.Mat {
	dst := gocv.NewMat()
	depth := src.Type() & depthMask

	switch depth {
	case gocv.MatTypeCV8U:
		src.CopyTo(&dst)
	case gocv.MatTypeCV16U:
		src.ConvertToWithParams(&dst, gocv.MatTypeCV8U, 1.0/257.0, 0)
	default:
		// floating point images are expected in [0,1]
		src.ConvertToWithParams(&dst, gocv.MatTypeCV8U, 255, 0)
	}
	return dst
}

// compositeOverWhite blends a BGRA image onto a white background
func compositeOverWhite(bgra gocv.Mat) (gocv.Mat, error) {
	rows, cols := bgra.Rows(), bgra.Cols()
	src := bgra.ToBytes()

	dst := make([]byte, rows*cols*3)
	for i := 0; i < rows*cols; i++ {
		a := int(src[i*4+3])
		for c := 0; c < 3; c++ {
			v := int(src[i*4+c])
			dst[i*3+c] = uint8((a*v + (255-a)*255 + 127) / 255)
		}
	}

	return matFromBytes(rows, cols, gocv.MatTypeCV8UC3, dst)
}

// matFromBytes builds a matrix that owns a private copy of data
func matFromBytes(rows, cols int, mt gocv.MatType, data []byte) (gocv.Mat, error) {
	view, err := gocv.NewMatFromBytes(rows, cols, mt, data)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to wrap %dx%d buffer: %w", cols, rows, err)
	}
	defer view.Close()

	out := view.Clone()
	runtime.KeepAlive(data)
	return out, nil
}

// ToImage copies an 8-bit BGR, BGRA or gray matrix into an RGB(A) image
func ToImage(src gocv.Mat) (*types.Image, error) {
	if src.Empty() {
		return nil, fmt.Errorf("empty image")
	}
	if src.Type()&depthMask != gocv.MatTypeCV8U {
		return nil, fmt.Errorf("expected 8-bit samples, got type %v", src.Type())
	}

	channels := src.Channels()
	rgb := gocv.NewMat()
	defer rgb.Close()

	switch channels {
	case 1:
		src.CopyTo(&rgb)
	case 3:
		gocv.CvtColor(src, &rgb, gocv.ColorBGRToRGB)
	case 4:
		gocv.CvtColor(src, &rgb, gocv.ColorBGRAToRGBA)
	default:
		return nil, fmt.Errorf("unsupported channel count %d", channels)
	}

	return &types.Image{
		Width:    rgb.Cols(),
		Height:   rgb.Rows(),
		Channels: channels,
		Pix:      rgb.ToBytes(),
	}, nil
}

// FromImage builds a BGR(A) or gray matrix from an RGB(A) image
func FromImage(img *types.Image) (gocv.Mat, error) {
	var mt gocv.MatType
	var code gocv.ColorConversionCode
	switch img.Channels {
	case 1:
		mt = gocv.MatTypeCV8UC1
	case 3:
		mt, code = gocv.MatTypeCV8UC3, gocv.ColorRGBToBGR
	case 4:
		mt, code = gocv.MatTypeCV8UC4, gocv.ColorRGBAToBGRA
	default:
		return gocv.NewMat(), fmt.Errorf("unsupported channel count %d", img.Channels)
	}

	mat, err := matFromBytes(img.Height, img.Width, mt, img.Pix)
	if err != nil {
		return gocv.NewMat(), err
	}
	if img.Channels == 1 {
		return mat, nil
	}

	bgr := gocv.NewMat()
	gocv.CvtColor(mat, &bgr, code)
	mat.Close()
	return bgr, nil
}
