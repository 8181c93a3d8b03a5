package packets

import "sync"

// pooledBufferSize covers most control packets and small PUBLISH payloads
// without a further allocation; larger packets fall back to a one-off make.
const pooledBufferSize = 4096

var bufferPool = sync.Pool{
	New: func() any {
		buf := make([]byte, pooledBufferSize)
		return &buf
	},
}

// GetBuffer returns a buffer of at least size bytes, reusing a pooled one
// when size fits within pooledBufferSize.
func GetBuffer(size int) *[]byte {
	if size > pooledBufferSize {
		buf := make([]byte, size)
		return &buf
	}
	buf := bufferPool.Get().(*[]byte)
	*buf = (*buf)[:size]
	return buf
}

// PutBuffer returns a buffer obtained from GetBuffer to the pool. Buffers
// that didn't come from the pool (oversized requests) are left for the
// garbage collector.
func PutBuffer(bufPtr *[]byte) {
	if cap(*bufPtr) != pooledBufferSize {
		return
	}
	*bufPtr = (*bufPtr)[:pooledBufferSize]
	bufferPool.Put(bufPtr)
}
