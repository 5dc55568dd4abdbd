// Package render draws game snapshots to images with gg.
package render

import (
	"fmt"
	"image"
	"image/color"
	"log"
	"os"
	"path/filepath"
	"sync"

	"lastball/internal/config"
	"lastball/internal/game"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
)

// Fallback frame size when the snapshot has no boundary yet
const (
	fallbackWidth  = 800
	fallbackHeight = 600
)

// Renderer turns snapshots into frames. It is safe for concurrent use.
type Renderer struct {
	cfg        config.RenderConfig
	background color.RGBA
	ballText   color.RGBA

	// Cached faces (loaded once, not per-frame). Faces are not safe for
	// concurrent use, mu serializes drawing.
	mu       sync.Mutex
	nameFace font.Face
	ballFace font.Face
}

// NewRenderer creates a renderer and loads fonts. Missing fonts disable text
// but not shapes.
func NewRenderer(cfg config.RenderConfig) *Renderer {
	if cfg.FontSize <= 0 {
		cfg.FontSize = config.DefaultRender().FontSize
	}

	r := &Renderer{
		cfg:        cfg,
		background: parseHexColor(cfg.Background),
		ballText:   parseHexColor(cfg.BallText),
	}
	r.loadFonts()
	return r
}

func (r *Renderer) loadFonts() {
	fontPath := r.cfg.FontPath
	if fontPath == "" {
		fontPath = getFontPath()
	}
	if fontPath == "" {
		log.Println("⚠️ No font found, names will not be drawn")
		return
	}

	fontData, err := os.ReadFile(fontPath)
	if err != nil {
		log.Printf("⚠️ Failed to read font file: %v", err)
		return
	}

	parsedFont, err := opentype.Parse(fontData)
	if err != nil {
		log.Printf("⚠️ Failed to parse font: %v", err)
		return
	}

	r.nameFace, err = opentype.NewFace(parsedFont, &opentype.FaceOptions{
		Size:    r.cfg.FontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		log.Printf("⚠️ Failed to create name font face: %v", err)
		return
	}

	r.ballFace, err = opentype.NewFace(parsedFont, &opentype.FaceOptions{
		Size:    r.cfg.FontSize * 1.3,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		log.Printf("⚠️ Failed to create ball font face: %v", err)
		r.nameFace = nil
		return
	}

	log.Printf("✅ Fonts loaded and cached from: %s", fontPath)
}

// Render draws one frame the size of the snapshot's boundary
func (r *Renderer) Render(snap game.Snapshot) image.Image {
	width, height := int(snap.Boundary.Width), int(snap.Boundary.Height)
	if width <= 0 || height <= 0 {
		width, height = fallbackWidth, fallbackHeight
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	dc := gg.NewContext(width, height)
	r.drawBackground(dc, width, height)

	for _, p := range snap.Players {
		r.drawPlayer(dc, p)
	}
	r.drawBall(dc, snap.Ball)

	return dc.Image()
}

func (r *Renderer) drawBackground(dc *gg.Context, width, height int) {
	dc.SetColor(r.background)
	dc.DrawRectangle(0, 0, float64(width), float64(height))
	dc.Fill()
}

func (r *Renderer) drawPlayer(dc *gg.Context, p game.Player) {
	if p.Eliminated() || p.Radius <= 0 {
		return
	}

	dc.SetColor(withOpacity(parseHexColor(p.Color), p.Opacity))
	dc.DrawCircle(p.Pos.X, p.Pos.Y, p.Radius)
	dc.Fill()

	if !r.cfg.ShowNames || r.nameFace == nil {
		return
	}
	dc.SetFontFace(r.nameFace)
	dc.SetColor(withOpacity(color.RGBA{255, 255, 255, 255}, p.Opacity))
	dc.DrawStringAnchored(p.Name, p.Pos.X+p.Radius+4, p.Pos.Y, 0, 0.35)
}

func (r *Renderer) drawBall(dc *gg.Context, b game.Ball) {
	dc.SetColor(parseHexColor(b.Color))
	dc.DrawCircle(b.Pos.X, b.Pos.Y, b.Radius)
	dc.Fill()

	// Touchable ring
	if b.Touchable {
		dc.SetColor(r.ballText)
		dc.SetLineWidth(3)
		dc.DrawCircle(b.Pos.X, b.Pos.Y, b.Radius-2)
		dc.Stroke()
	}

	if b.Name == "" || r.ballFace == nil {
		return
	}
	dc.SetFontFace(r.ballFace)
	dc.SetColor(r.ballText)
	dc.DrawStringWrapped(b.Name, b.Pos.X, b.Pos.Y, 0.5, 0.5, b.Radius*1.6, 1.2, gg.AlignCenter)
}

func withOpacity(c color.RGBA, opacity float64) color.NRGBA {
	if opacity < 0 {
		opacity = 0
	}
	if opacity > 1 {
		opacity = 1
	}
	return color.NRGBA{c.R, c.G, c.B, uint8(opacity*255 + 0.5)}
}

func parseHexColor(hex string) color.RGBA {
	if len(hex) != 7 || hex[0] != '#' {
		return color.RGBA{255, 255, 255, 255}
	}

	var r, g, b uint8
	fmt.Sscanf(hex[1:], "%02x%02x%02x", &r, &g, &b)
	return color.RGBA{r, g, b, 255}
}

func getFontPath() string {
	// Try common font locations
	paths := []string{
		"C:\\Windows\\Fonts\\arial.ttf",
		"C:\\Windows\\Fonts\\segoeui.ttf",
		"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
		"/System/Library/Fonts/Helvetica.ttc",
	}

	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	// Try to find any ttf in current directory
	matches, _ := filepath.Glob("*.ttf")
	if len(matches) > 0 {
		return matches[0]
	}

	return ""
}
