package adapter

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalProductLockerMutualExclusion(t *testing.T) {
	locker := NewLocalProductLocker()
	ctx := context.Background()

	var counter int64
	const workers = 32
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(ctx, 7)
			assert.NoError(t, err)
			defer unlock()
			counter++
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(workers), counter)
}

func TestLocalProductLockerIndependentProducts(t *testing.T) {
	locker := NewLocalProductLocker()
	ctx := context.Background()

	unlockA, err := locker.Lock(ctx, 1)
	require.NoError(t, err)

	// 不同商品的锁互不阻塞
	done := make(chan struct{})
	go func() {
		unlockB, err := locker.Lock(ctx, 2)
		assert.NoError(t, err)
		unlockB()
		close(done)
	}()
	<-done
	unlockA()
}
