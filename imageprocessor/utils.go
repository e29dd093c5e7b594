package imageprocessor

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"imagecert/types"

	"gocv.io/x/gocv"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// tryGoImagePackages decodes a file with the Go image packages. It is the
// fallback when OpenCV was built without a codec for the format.
func tryGoImagePackages(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	return img, err
}

// fromGoImage converts a decoded Go image to gray, BGR or BGRA depending on
// whether it carries colour and transparency
func fromGoImage(src image.Image) (gocv.Mat, error) {
	b := src.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return gocv.NewMat(), fmt.Errorf("empty image")
	}

	channels := 3
	switch src.(type) {
	case *image.Gray, *image.Gray16:
		channels = 1
	case *image.NRGBA, *image.NRGBA64, *image.RGBA, *image.RGBA64, *image.Paletted:
		if !opaque(src) {
			channels = 4
		}
	}

	img := types.NewImage(b.Dx(), b.Dy(), channels)
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			i := img.Offset(x, y)
			r, g, bl, a := src.At(x+b.Min.X, y+b.Min.Y).RGBA()
			switch channels {
			case 1:
				img.Pix[i] = uint8(r >> 8)
			case 3:
				img.Pix[i], img.Pix[i+1], img.Pix[i+2] = uint8(r>>8), uint8(g>>8), uint8(bl>>8)
			case 4:
				// RGBA() is alpha premultiplied, undo it
				if a == 0 {
					img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = 0, 0, 0, 0
					continue
				}
				img.Pix[i] = uint8((r * 0xffff / a) >> 8)
				img.Pix[i+1] = uint8((g * 0xffff / a) >> 8)
				img.Pix[i+2] = uint8((bl * 0xffff / a) >> 8)
				img.Pix[i+3] = uint8(a >> 8)
			}
		}
	}
	return FromImage(img)
}

func opaque(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	return false
}
