package render

import (
	"bytes"
	"image"
	"image/png"
	"sync"
)

// encoderPool reuses PNG encoder buffers across runs; finalization happens
// once per composite and the buffers are large.
type encoderPool struct {
	pool sync.Pool
}

func (p *encoderPool) Get() *png.EncoderBuffer {
	buf, _ := p.pool.Get().(*png.EncoderBuffer)
	return buf
}

func (p *encoderPool) Put(buf *png.EncoderBuffer) {
	p.pool.Put(buf)
}

var pngEncoder = png.Encoder{
	CompressionLevel: png.BestCompression,
	BufferPool:       &encoderPool{},
}

// EncodePNG serializes the composite as a web-safe PNG. The compression
// parameters are fixed so identical composites produce identical bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := pngEncoder.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
