package ioutils

import (
	"io"
	"sync/atomic"
)

type CountWriter struct {
	w     io.Writer
	count atomic.Int64
}

var _ io.Writer = (*CountWriter)(nil)

func (w *CountWriter) Write(b []byte) (n int, err error) {
	n, err = w.w.Write(b)
	if n > 0 {
		w.count.Add(int64(n))
	}
	return n, err
}

func (w *CountWriter) Count() (count int64) {
	return w.count.Load()
}

func NewCountWriter(w io.Writer) (c *CountWriter) {
	return &CountWriter{w: w}
}

// Reader counterpart of CountWriter. Safe to query from other goroutines while reading.
type CountReader struct {
	r     io.Reader
	count *atomic.Int64
}

var _ io.Reader = (*CountReader)(nil)

func (r *CountReader) Read(b []byte) (n int, err error) {
	n, err = r.r.Read(b)
	if n > 0 {
		r.count.Add(int64(n))
	}
	return n, err
}

// Counter may be shared between multiple readers to get an aggregated total
func NewCountReader(r io.Reader, counter *atomic.Int64) (c *CountReader) {
	return &CountReader{r: r, count: counter}
}
