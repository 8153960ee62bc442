package pool

import "sync"

// Payload buffer sizing for artifact encoding.
const (
	PayloadBufferDefaultSize  = 1024 * 16  // 16KiB
	PayloadBufferMaxThreshold = 1024 * 512 // 512KiB
)

// ByteBuffer is a reusable append-only byte slice.
type ByteBuffer struct {
	B []byte
}

// NewByteBuffer creates a ByteBuffer with the given capacity.
func NewByteBuffer(defaultSize int) *ByteBuffer {
	return &ByteBuffer{B: make([]byte, 0, defaultSize)}
}

// Bytes returns the buffered bytes.
func (bb *ByteBuffer) Bytes() []byte { return bb.B }

// Len returns the number of buffered bytes.
func (bb *ByteBuffer) Len() int { return len(bb.B) }

// Reset empties the buffer, keeping its capacity.
func (bb *ByteBuffer) Reset() { bb.B = bb.B[:0] }

// Grow ensures room for n more bytes without reallocating. Small buffers grow
// by PayloadBufferDefaultSize, larger ones by a quarter of their capacity.
func (bb *ByteBuffer) Grow(n int) {
	if cap(bb.B)-len(bb.B) >= n {
		return
	}

	growBy := PayloadBufferDefaultSize
	if cap(bb.B) > 4*PayloadBufferDefaultSize {
		growBy = cap(bb.B) / 4
	}
	growBy = max(growBy, n)

	buf := make([]byte, len(bb.B), len(bb.B)+growBy)
	copy(buf, bb.B)
	bb.B = buf
}

// Write appends data to the buffer.
func (bb *ByteBuffer) Write(data []byte) (int, error) {
	bb.B = append(bb.B, data...)
	return len(data), nil
}

// ByteBufferPool recycles ByteBuffers. Buffers grown past maxThreshold are
// dropped on Put instead of being retained.
type ByteBufferPool struct {
	pool         sync.Pool
	maxThreshold int
}

// NewByteBufferPool creates a pool of buffers with the given default capacity.
func NewByteBufferPool(defaultSize, maxThreshold int) *ByteBufferPool {
	return &ByteBufferPool{
		pool: sync.Pool{
			New: func() any { return NewByteBuffer(defaultSize) },
		},
		maxThreshold: maxThreshold,
	}
}

// Get returns an empty buffer.
func (p *ByteBufferPool) Get() *ByteBuffer {
	bb, _ := p.pool.Get().(*ByteBuffer)
	return bb
}

// Put returns bb to the pool.
func (p *ByteBufferPool) Put(bb *ByteBuffer) {
	if bb == nil {
		return
	}
	if p.maxThreshold > 0 && cap(bb.B) > p.maxThreshold {
		return
	}

	bb.Reset()
	p.pool.Put(bb)
}

var payloadPool = NewByteBufferPool(PayloadBufferDefaultSize, PayloadBufferMaxThreshold)

// GetPayloadBuffer returns a buffer from the shared artifact payload pool.
// The caller must not retain the buffer's bytes after PutPayloadBuffer.
func GetPayloadBuffer() *ByteBuffer {
	return payloadPool.Get()
}

// PutPayloadBuffer returns bb to the shared artifact payload pool.
func PutPayloadBuffer(bb *ByteBuffer) {
	payloadPool.Put(bb)
}
