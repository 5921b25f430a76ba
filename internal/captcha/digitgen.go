package captcha

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"sync"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/google/uuid"
)

const (
	digitCount  = 6
	imageWidth  = 160
	imageHeight = 60
	challengeTTL = 5 * time.Minute
)

type challenge struct {
	answer    string
	expiresAt time.Time
}

// DigitGenerator renders a fixed-width string of digits onto a noisy
// background using golang.org/x/image's bitmap font, the same dependency
// fazt-sh-fazt pulls in for its own image-rendering path.
type DigitGenerator struct {
	mu         sync.Mutex
	challenges map[string]challenge
}

func NewDigitGenerator() *DigitGenerator {
	return &DigitGenerator{challenges: make(map[string]challenge)}
}

var _ Generator = (*DigitGenerator)(nil)

func (g *DigitGenerator) New(_ context.Context) (string, string, error) {
	answer, err := randomDigits(digitCount)
	if err != nil {
		return "", "", fmt.Errorf("generate captcha digits: %w", err)
	}

	img := renderDigits(answer)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", "", fmt.Errorf("encode captcha png: %w", err)
	}

	id := uuid.New().String()
	g.mu.Lock()
	g.sweepLocked()
	g.challenges[id] = challenge{answer: answer, expiresAt: time.Now().Add(challengeTTL)}
	g.mu.Unlock()

	return id, base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func (g *DigitGenerator) Verify(_ context.Context, id, answer string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	c, ok := g.challenges[id]
	delete(g.challenges, id) // single-use regardless of outcome
	if !ok {
		return false
	}
	if time.Now().After(c.expiresAt) {
		return false
	}
	return c.answer == answer
}

func (g *DigitGenerator) sweepLocked() {
	now := time.Now()
	for id, c := range g.challenges {
		if now.After(c.expiresAt) {
			delete(g.challenges, id)
		}
	}
}

func randomDigits(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	out := make([]byte, n)
	for i, b := range buf {
		out[i] = '0' + b%10
	}
	return string(out), nil
}

func renderDigits(answer string) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, imageWidth, imageHeight))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	drawNoise(img)

	face := basicfont.Face7x13
	fg := image.NewUniform(color.Black)
	x := fixed.I(12)
	y := fixed.I(imageHeight/2 + 5)
	drawer := &font.Drawer{Dst: img, Src: fg, Face: face, Dot: fixed.Point26_6{X: x, Y: y}}
	for _, r := range answer {
		drawer.DrawString(string(r))
		drawer.Dot.X += fixed.I(6)
	}
	return img
}

// drawNoise scatters deterministic-looking but per-call-random pixels
// across the background to discourage trivial OCR of the reference
// implementation; a production generator would do far more.
func drawNoise(img *image.RGBA) {
	seedBuf := make([]byte, 8)
	_, _ = rand.Read(seedBuf)
	seed := binary.BigEndian.Uint64(seedBuf)

	bounds := img.Bounds()
	for i := 0; i < 120; i++ {
		seed = seed*6364136223846793005 + 1442695040888963407
		x := bounds.Min.X + int(seed>>33)%bounds.Dx()
		seed = seed*6364136223846793005 + 1442695040888963407
		y := bounds.Min.Y + int(seed>>33)%bounds.Dy()
		img.Set(x, y, color.Gray{Y: uint8(seed % 180)})
	}
}
