package report

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"
)

// Contact sheet geometry in pixels
const (
	SheetCell    = 256
	sheetPadding = 8
	sheetLabel   = 18
)

// Tile is one labelled image of a contact sheet
type Tile struct {
	Label string
	Image image.Image
}

// Thumbnail scales img to fit a size×size box keeping its aspect ratio.
// Nearest-neighbour scaling keeps single changed pixels visible.
func Thumbnail(img image.Image, size int) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return image.NewRGBA(image.Rect(0, 0, 0, 0))
	}

	tw, th := size, size
	if w >= h {
		th = maxInt(1, h*size/w)
	} else {
		tw = maxInt(1, w*size/h)
	}

	dst := image.NewRGBA(image.Rect(0, 0, tw, th))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// RenderSheet draws the tiles in a two-column grid with a label above each
// thumbnail and writes the result as PNG
func RenderSheet(path string, tiles []Tile) error {
	if len(tiles) == 0 {
		return fmt.Errorf("contact sheet needs at least one image")
	}

	cols := 2
	if len(tiles) < cols {
		cols = len(tiles)
	}
	rows := (len(tiles) + cols - 1) / cols

	cellW := SheetCell + 2*sheetPadding
	cellH := SheetCell + sheetLabel + 2*sheetPadding

	dc := gg.NewContext(cols*cellW, rows*cellH)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	for i, tile := range tiles {
		x := (i % cols) * cellW
		y := (i / cols) * cellH

		dc.SetRGB(0, 0, 0)
		dc.DrawStringAnchored(tile.Label, float64(x+cellW/2), float64(y+sheetPadding+sheetLabel/2), 0.5, 0.5)

		if tile.Image == nil {
			continue
		}
		thumb := Thumbnail(tile.Image, SheetCell)
		// center inside the cell
		ox := x + sheetPadding + (SheetCell-thumb.Bounds().Dx())/2
		oy := y + sheetPadding + sheetLabel + (SheetCell-thumb.Bounds().Dy())/2

		dc.SetRGB(0.8, 0.8, 0.8)
		dc.DrawRectangle(float64(ox-1), float64(oy-1), float64(thumb.Bounds().Dx()+2), float64(thumb.Bounds().Dy()+2))
		dc.Stroke()
		dc.DrawImage(thumb, ox, oy)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := dc.SavePNG(path); err != nil {
		return fmt.Errorf("cannot write contact sheet %s: %w", path, err)
	}
	return nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
