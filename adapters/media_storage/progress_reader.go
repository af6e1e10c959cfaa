package media_storage

import (
	"io"
	"sync"

	"github.com/khoahotran/portgen/internal/application/service"
)

// progressReader reports the fraction of size read so far. Reported values
// never decrease and stay below 1 until the caller calls done.
type progressReader struct {
	r      io.Reader
	size   int64
	read   int64
	last   float64
	report service.ProgressFunc
	mu     sync.Mutex
}

func newProgressReader(r io.Reader, size int64, report service.ProgressFunc) *progressReader {
	return &progressReader{r: r, size: size, report: report}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.mu.Lock()
		p.read += int64(n)
		if p.size > 0 {
			frac := float64(p.read) / float64(p.size)
			// 1 is reserved for a confirmed upload.
			if frac >= 1 {
				frac = 0.99
			}
			p.emitLocked(frac)
		}
		p.mu.Unlock()
	}
	return n, err
}

func (p *progressReader) BytesRead() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.read
}

func (p *progressReader) done() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.emitLocked(1)
}

func (p *progressReader) emitLocked(frac float64) {
	if p.report == nil || frac <= p.last {
		return
	}
	p.last = frac
	p.report(frac)
}
