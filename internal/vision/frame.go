package vision

import "fmt"

// Frame is a packed BGR color image, 3 bytes per pixel, row-major.
type Frame struct {
	Width  int
	Height int
	Pix    []byte
}

// Tensor is a normalized RGB image batch of shape [1, Size, Size, 3] with
// values in [0, 1], laid out row-major in Data.
type Tensor struct {
	Size int
	Data []float32
}

// Prepare converts an arbitrary-resolution BGR frame into the fixed-size
// tensor a classifier expects: nearest-neighbour resize to size x size,
// BGR to RGB channel swap, scale to [0, 1], leading batch dimension of 1.
func Prepare(frame Frame, size int) (Tensor, error) {
	if size <= 0 {
		return Tensor{}, fmt.Errorf("invalid target size %d", size)
	}
	if frame.Width <= 0 || frame.Height <= 0 {
		return Tensor{}, fmt.Errorf("invalid frame dimensions %dx%d", frame.Width, frame.Height)
	}
	if len(frame.Pix) != frame.Width*frame.Height*3 {
		return Tensor{}, fmt.Errorf("frame payload is %d bytes, expected %d for %dx%d BGR",
			len(frame.Pix), frame.Width*frame.Height*3, frame.Width, frame.Height)
	}

	data := make([]float32, size*size*3)
	for y := 0; y < size; y++ {
		srcY := y * frame.Height / size
		for x := 0; x < size; x++ {
			srcX := x * frame.Width / size
			src := (srcY*frame.Width + srcX) * 3
			dst := (y*size + x) * 3
			// BGR -> RGB
			data[dst] = float32(frame.Pix[src+2]) / 255.0
			data[dst+1] = float32(frame.Pix[src+1]) / 255.0
			data[dst+2] = float32(frame.Pix[src]) / 255.0
		}
	}
	return Tensor{Size: size, Data: data}, nil
}
