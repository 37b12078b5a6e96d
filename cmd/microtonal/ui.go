package main

import (
	"image"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

const (
	textScale = 2
	charW     = 7 * textScale
	lineH     = 14 * textScale
)

var (
	bgColor        = color.RGBA{192, 192, 192, 255}
	panelColor     = color.RGBA{192, 192, 192, 255}
	borderColor    = color.RGBA{128, 128, 128, 255}
	highlightColor = color.RGBA{0, 0, 128, 255}
	octaveColor    = color.RGBA{96, 96, 144, 255}

	// 3D bevel colors for old-school embossed look.
	bevelLight  = color.RGBA{255, 255, 255, 255}
	bevelDarker = color.RGBA{64, 64, 64, 255}

	sunkenBgColor = color.RGBA{24, 24, 32, 255}
	cellOnColor   = color.RGBA{0, 160, 96, 255}
	cursorColor   = color.RGBA{64, 64, 96, 255}
)

type keyRect struct {
	id   string
	rect image.Rectangle
}

// keyRects lays out rows (bottom row first) so that the last row is drawn
// at the top of the area.
func keyRects(rows [][]string, x, y, w, h int) []keyRect {
	if len(rows) == 0 {
		return nil
	}
	cols := 0
	for _, row := range rows {
		cols = max(cols, len(row))
	}
	keyW := w / (cols + 1)
	keyH := h / len(rows)
	out := make([]keyRect, 0, len(rows)*cols)
	for i, row := range rows {
		top := y + (len(rows)-1-i)*keyH
		// Stagger rows like a physical keyboard.
		indent := (len(rows) - 1 - i) * keyW / 4
		for j, id := range row {
			left := x + indent + j*keyW
			out = append(out, keyRect{id: id, rect: image.Rect(left+2, top+2, left+keyW-2, top+keyH-2)})
		}
	}
	return out
}

func hitKey(keys []keyRect, x, y int) (string, bool) {
	for _, k := range keys {
		if pointInRect(x, y, k.rect) {
			return k.id, true
		}
	}
	return "", false
}

// gridLayout is the sequencer grid, highest row at the top.
type gridLayout struct {
	rect  image.Rectangle
	rows  int
	steps int
}

func (g gridLayout) cellSize() (int, int) {
	return g.rect.Dx() / max(1, g.steps), g.rect.Dy() / max(1, g.rows)
}

func (g gridLayout) cellRect(row, step int) image.Rectangle {
	cw, ch := g.cellSize()
	x := g.rect.Min.X + step*cw
	y := g.rect.Min.Y + (g.rows-1-row)*ch
	return image.Rect(x, y, x+cw, y+ch)
}

func (g gridLayout) cellAt(x, y int) (row, step int, ok bool) {
	if !pointInRect(x, y, g.rect) {
		return 0, 0, false
	}
	cw, ch := g.cellSize()
	if cw == 0 || ch == 0 {
		return 0, 0, false
	}
	step = (x - g.rect.Min.X) / cw
	row = g.rows - 1 - (y-g.rect.Min.Y)/ch
	if step >= g.steps || row < 0 {
		return 0, 0, false
	}
	return row, step, true
}

func fillRect(screen *ebiten.Image, rect image.Rectangle, c color.Color) {
	ebitenutil.DrawRect(screen, float64(rect.Min.X), float64(rect.Min.Y), float64(rect.Dx()), float64(rect.Dy()), c)
}

func drawPanel(screen *ebiten.Image, rect image.Rectangle, fill color.Color) {
	fillRect(screen, rect, fill)
	drawBorder(screen, rect)
}

func drawSunkenPanel(screen *ebiten.Image, rect image.Rectangle) {
	fillRect(screen, rect, sunkenBgColor)
	drawSunkenBorder(screen, rect)
}

// drawBorder draws a raised 3D bevel (highlight top/left, shadow bottom/right).
func drawBorder(screen *ebiten.Image, rect image.Rectangle) {
	x := float64(rect.Min.X)
	y := float64(rect.Min.Y)
	w := float64(rect.Dx())
	h := float64(rect.Dy())
	ebitenutil.DrawRect(screen, x, y, w-1, 1, bevelLight)
	ebitenutil.DrawRect(screen, x, y+1, 1, h-2, bevelLight)
	ebitenutil.DrawRect(screen, x, y+h-1, w, 1, bevelDarker)
	ebitenutil.DrawRect(screen, x+w-1, y, 1, h, bevelDarker)
	ebitenutil.DrawRect(screen, x+1, y+h-2, w-3, 1, borderColor)
	ebitenutil.DrawRect(screen, x+w-2, y+1, 1, h-3, borderColor)
}

// drawSunkenBorder is drawBorder with the light and shadow swapped.
func drawSunkenBorder(screen *ebiten.Image, rect image.Rectangle) {
	x := float64(rect.Min.X)
	y := float64(rect.Min.Y)
	w := float64(rect.Dx())
	h := float64(rect.Dy())
	ebitenutil.DrawRect(screen, x, y, w-1, 1, borderColor)
	ebitenutil.DrawRect(screen, x, y+1, 1, h-2, borderColor)
	ebitenutil.DrawRect(screen, x, y+h-1, w, 1, bevelLight)
	ebitenutil.DrawRect(screen, x+w-1, y, 1, h, bevelLight)
	ebitenutil.DrawRect(screen, x+1, y+1, w-3, 1, bevelDarker)
	ebitenutil.DrawRect(screen, x+1, y+2, 1, h-4, bevelDarker)
}

type textCache map[string]*ebiten.Image

func (tc *textCache) draw(screen *ebiten.Image, msg string, x, y int) {
	if msg == "" {
		return
	}
	img := (*tc)[msg]
	if img == nil {
		w := max(1, len([]rune(msg))*7)
		img = ebiten.NewImage(w, 14)
		ebitenutil.DebugPrintAt(img, msg, 0, 0)
		if len(*tc) > 3000 {
			*tc = make(textCache, 1024)
		}
		(*tc)[msg] = img
	}
	opS := &ebiten.DrawImageOptions{}
	opS.GeoM.Scale(textScale, textScale)
	opS.GeoM.Translate(float64(x+2), float64(y+2))
	opS.ColorScale.Scale(0, 0, 0, 1)
	screen.DrawImage(img, opS)
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(textScale, textScale)
	op.GeoM.Translate(float64(x), float64(y))
	screen.DrawImage(img, op)
}

func shortenEnd(s string, maxChars int) string {
	r := []rune(s)
	if len(r) <= maxChars {
		return s
	}
	if maxChars <= 3 {
		return string(r[:max(0, maxChars)])
	}
	return string(r[:maxChars-3]) + "..."
}

func pointInRect(x, y int, rect image.Rectangle) bool {
	return x >= rect.Min.X && x < rect.Max.X && y >= rect.Min.Y && y < rect.Max.Y
}
