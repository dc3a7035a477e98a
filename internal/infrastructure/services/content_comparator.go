package services

import (
	"bytes"
	"errors"
	"fmt"
	"go-local-duplicates/internal/domain/entities"
	"go-local-duplicates/internal/domain/services"
	"io"
	"os"
	"sync"
)

// ChunkComparator compares two files by streaming fixed-size chunks from both
type ChunkComparator struct {
	mu    sync.Mutex
	pools map[int64]*sync.Pool
}

// NewChunkComparator creates a comparator with per-size buffer pools
func NewChunkComparator() services.ContentComparator {
	return &ChunkComparator{pools: make(map[int64]*sync.Pool)}
}

func (c *ChunkComparator) Compare(pathA, pathB string, size, chunkSize int64, cancelled func() bool) (bool, error) {
	if chunkSize <= 0 {
		chunkSize = entities.DefaultChunkSize
	}
	chunk := chunkSize
	if size > 0 && chunk > size {
		chunk = size
	}

	fa, err := os.Open(pathA)
	if err != nil {
		return false, fmt.Errorf("failed to open file: %w", err)
	}
	defer fa.Close()

	fb, err := os.Open(pathB)
	if err != nil {
		return false, fmt.Errorf("failed to open file: %w", err)
	}
	defer fb.Close()

	// Buffers are pooled at the configured chunk size and sliced down
	pa := c.getBuffer(chunkSize)
	defer c.putBuffer(chunkSize, pa)
	pb := c.getBuffer(chunkSize)
	defer c.putBuffer(chunkSize, pb)
	bufA, bufB := (*pa)[:chunk], (*pb)[:chunk]

	for {
		na, err := readChunk(fa, bufA)
		if err != nil {
			return false, fmt.Errorf("error reading %s: %w", pathA, err)
		}
		nb, err := readChunk(fb, bufB)
		if err != nil {
			return false, fmt.Errorf("error reading %s: %w", pathB, err)
		}

		// One side changed size underneath us
		if na != nb {
			return false, nil
		}
		if na == 0 {
			return true, nil
		}
		if !bytes.Equal(bufA[:na], bufB[:nb]) {
			return false, nil
		}

		if cancelled != nil && cancelled() {
			return false, nil
		}
	}
}

// readChunk fills buf as far as the file allows. A short read at the end of
// the file is not an error.
func readChunk(r io.Reader, buf []byte) (int, error) {
	n, err := io.ReadFull(r, buf)
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return n, nil
	}
	return n, err
}

func (c *ChunkComparator) getBuffer(size int64) *[]byte {
	c.mu.Lock()
	pool, ok := c.pools[size]
	if !ok {
		pool = &sync.Pool{New: func() interface{} {
			b := make([]byte, size)
			return &b
		}}
		c.pools[size] = pool
	}
	c.mu.Unlock()
	return pool.Get().(*[]byte)
}

func (c *ChunkComparator) putBuffer(size int64, buf *[]byte) {
	c.mu.Lock()
	pool := c.pools[size]
	c.mu.Unlock()
	pool.Put(buf)
}
