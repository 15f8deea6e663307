package counter

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIncrementGetReset(t *testing.T) {
	c := New()
	assert.Equal(t, uint64(0), c.Get())
	assert.Equal(t, uint64(1), c.Increment())
	assert.Equal(t, uint64(2), c.Increment())
	assert.Equal(t, uint64(2), c.Get())
	assert.Equal(t, uint64(2), c.Get(), "reads are not counted by default")

	c.Reset()
	assert.Equal(t, uint64(0), c.Get())
}

func TestCountedReads(t *testing.T) {
	c := New(WithCountedReads())
	assert.Equal(t, uint64(1), c.Get())
	assert.Equal(t, uint64(2), c.Get())
	c.Reset()
	assert.Equal(t, uint64(1), c.Get())
}

func TestConcurrentIncrements(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Increment()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, uint64(5000), c.Get())
}

func TestCountedReadsResetThenGetReadsOne(t *testing.T) {
	c := New(WithCountedReads())
	for i := 0; i < 5; i++ {
		c.Increment()
	}
	assert.Equal(t, uint64(6), c.Get())

	c.Reset()
	assert.Equal(t, uint64(1), c.Get(), "the read after a reset counts itself")
	assert.Equal(t, uint64(2), c.Get())
}
