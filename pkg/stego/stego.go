// Package stego hides a share file inside an image by overwriting the
// least significant bit of each red, green and blue channel.
//
// The payload is prefixed with its length as a big-endian uint32, and bits
// are laid out row by row, MSB first.
package stego

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
)

const (
	lengthPrefixBits = 32
	channelsPerPixel = 3
)

// ErrMessageTooLarge indicates the carrier image is too small to hold the data.
var ErrMessageTooLarge = errors.New("message too large for carrier image")

// ErrNoHiddenData indicates the extraction failed to find a valid length prefix.
var ErrNoHiddenData = errors.New("could not extract hidden data (invalid length prefix)")

// Capacity returns how many payload bytes fit into an image of the given bounds.
func Capacity(bounds image.Rectangle) int {
	bits := bounds.Dx()*bounds.Dy()*channelsPerPixel - lengthPrefixBits
	if bits < 0 {
		return 0
	}
	return bits / 8
}

// Embed returns a copy of carrier with data hidden in it.
func Embed(carrier image.Image, data []byte) (*image.NRGBA, error) {
	bounds := carrier.Bounds()
	if capacity := Capacity(bounds); len(data) > capacity {
		return nil, fmt.Errorf("%w: need %d bytes, have %d", ErrMessageTooLarge, len(data), capacity)
	}

	out := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(out, out.Bounds(), carrier, bounds.Min, draw.Src)

	payload := make([]byte, 4+len(data))
	binary.BigEndian.PutUint32(payload, uint32(len(data)))
	copy(payload[4:], data)

	total := len(payload) * 8
	for bit := 0; bit < total; bit += channelsPerPixel {
		pixel := bit / channelsPerPixel
		x, y := pixel%bounds.Dx(), pixel/bounds.Dx()

		c := out.NRGBAAt(x, y)
		channels := [channelsPerPixel]*uint8{&c.R, &c.G, &c.B}
		for ch, ptr := range channels {
			if bit+ch >= total {
				break
			}
			*ptr = (*ptr &^ 1) | payloadBit(payload, bit+ch)
		}
		out.SetNRGBA(x, y, c)
	}

	return out, nil
}

// Extract retrieves the data hidden by Embed.
func Extract(img image.Image) ([]byte, error) {
	r := newLSBReader(img)

	var prefix [4]byte
	if !r.readBytes(prefix[:]) {
		return nil, ErrNoHiddenData
	}

	n := binary.BigEndian.Uint32(prefix[:])
	if n == 0 || int64(n) > int64(Capacity(img.Bounds())) {
		return nil, ErrNoHiddenData
	}

	data := make([]byte, n)
	if !r.readBytes(data) {
		return nil, ErrNoHiddenData
	}
	return data, nil
}

func payloadBit(payload []byte, i int) uint8 {
	return (payload[i/8] >> (7 - uint(i%8))) & 1
}

// lsbReader walks the channel LSBs of an image in embedding order.
type lsbReader struct {
	img    image.Image
	bounds image.Rectangle
	pos    int
}

func newLSBReader(img image.Image) *lsbReader {
	return &lsbReader{img: img, bounds: img.Bounds()}
}

func (r *lsbReader) readBytes(dst []byte) bool {
	for i := range dst {
		var b byte
		for j := 0; j < 8; j++ {
			bit, ok := r.next()
			if !ok {
				return false
			}
			b = b<<1 | bit
		}
		dst[i] = b
	}
	return true
}

func (r *lsbReader) next() (uint8, bool) {
	width := r.bounds.Dx()
	pixel := r.pos / channelsPerPixel
	if width == 0 || pixel >= width*r.bounds.Dy() {
		return 0, false
	}

	x := r.bounds.Min.X + pixel%width
	y := r.bounds.Min.Y + pixel/width
	c := color.NRGBAModel.Convert(r.img.At(x, y)).(color.NRGBA)

	var v uint8
	switch r.pos % channelsPerPixel {
	case 0:
		v = c.R
	case 1:
		v = c.G
	default:
		v = c.B
	}
	r.pos++
	return v & 1, true
}
