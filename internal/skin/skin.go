// Package skin works on raw minecraft skin textures: head extraction with
// optional overlay compositing and the built-in default skins served when a
// profile carries no custom texture.
package skin

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"

	"github.com/google/uuid"
)

// Model is the arm model of a skin.
type Model string

const (
	ModelClassic Model = "classic"
	ModelSlim    Model = "slim"
)

// ErrInvalidSkin is returned when texture bytes are not a usable skin.
var ErrInvalidSkin = errors.New("skin: invalid skin texture")

// Skin layout constants. Modern skins are 64x64, legacy skins 64x32; the
// head and its overlay sit at the same coordinates in both.
const (
	headSize = 8

	headX, headY       = 8, 8
	overlayX, overlayY = 40, 8
)

//go:embed default/steve.png default/alex.png
var defaultSkins embed.FS

// DefaultSkin returns the built-in skin bytes and model for a profile
// without a custom texture. The choice mirrors the vanilla client: the four
// big-endian int32 words of the uuid are xor-folded, an even result maps to
// steve (classic) and an odd one to alex (slim).
func DefaultSkin(id uuid.UUID) ([]byte, Model) {
	fold := int32(0)
	for i := 0; i < 16; i += 4 {
		fold ^= int32(id[i])<<24 | int32(id[i+1])<<16 | int32(id[i+2])<<8 | int32(id[i+3])
	}
	name, model := "default/steve.png", ModelClassic
	if fold&1 == 1 {
		name, model = "default/alex.png", ModelSlim
	}
	b, err := defaultSkins.ReadFile(name)
	if err != nil {
		// embedded at build time, cannot fail
		panic("skin: missing embedded default skin: " + err.Error())
	}
	return b, model
}

// Head extracts the 8x8 head from png-encoded skin bytes. With overlay set,
// the hat layer is composited on top of the base; fully transparent overlay
// pixels leave the base untouched, anything with alpha draws over it.
func Head(skinPNG []byte, overlay bool) ([]byte, error) {
	src, err := png.Decode(bytes.NewReader(skinPNG))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSkin, err)
	}
	b := src.Bounds()
	if b.Dx() != 64 || (b.Dy() != 64 && b.Dy() != 32) {
		return nil, fmt.Errorf("%w: unexpected dimensions %dx%d", ErrInvalidSkin, b.Dx(), b.Dy())
	}

	head := image.NewRGBA(image.Rect(0, 0, headSize, headSize))
	draw.Draw(head, head.Bounds(), src, b.Min.Add(image.Pt(headX, headY)), draw.Src)
	if overlay {
		draw.Draw(head, head.Bounds(), src, b.Min.Add(image.Pt(overlayX, overlayY)), draw.Over)
	}

	var out bytes.Buffer
	if err := png.Encode(&out, head); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
