package ion

import (
	"bytes"
	"sync"
)

// bufferPool reuses scratch buffers for draining input streams into memory.
var bufferPool = sync.Pool{
	New: func() any {
		return bytes.NewBuffer(make([]byte, 0, 4096))
	},
}

// maxPooledBuffer keeps one oversized segment from pinning its memory in the pool.
const maxPooledBuffer = 1 << 20

func getBuffer() *bytes.Buffer {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

func putBuffer(buf *bytes.Buffer) {
	if buf.Cap() > maxPooledBuffer {
		return
	}
	bufferPool.Put(buf)
}
