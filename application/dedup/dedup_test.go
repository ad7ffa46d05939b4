package dedup

import (
	"context"
	"sync"
	"testing"
	"time"

	"gqlcache/application/exchange"
	"gqlcache/domain/operation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopClient struct{}

func (noopClient) RerunQuery(ctx context.Context, opKey string)                     {}
func (noopClient) PushResult(ctx context.Context, opKey string, r *operation.Result) {}

// blockingNext lets the test control exactly when the downstream call
// completes, so concurrent callers can be made to race deterministically.
type blockingNext struct {
	release chan struct{}
	calls   int
	mu      sync.Mutex
}

func (b *blockingNext) Run(ctx context.Context, op *operation.Operation) (*operation.Result, error) {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()
	<-b.release
	return &operation.Result{Key: op.Key}, nil
}

func TestDedupCollapsesConcurrentIdenticalOperations(t *testing.T) {
	next := &blockingNext{release: make(chan struct{})}
	stage := NewFactory(nil)(next, noopClient{})
	op := &operation.Operation{Key: "k1", Meta: operation.Meta{OperationType: operation.TypeQuery}}

	const callers = 5
	results := make([]*operation.Result, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := stage.Run(context.Background(), op)
			require.NoError(t, err)
			results[i] = r
		}(i)
	}

	time.Sleep(20 * time.Millisecond) // let every caller reach the dedup gate
	close(next.release)
	wg.Wait()

	next.mu.Lock()
	calls := next.calls
	next.mu.Unlock()
	assert.Equal(t, 1, calls, "only one caller should reach the downstream stage")

	dedupCount := 0
	for _, r := range results {
		if r.Response.Debug.DidDedup {
			dedupCount++
		}
	}
	assert.Equal(t, callers-1, dedupCount, "exactly one caller is the non-dedup'd original")
}

func TestDedupForwardsSubscriptionsUnchanged(t *testing.T) {
	next := &blockingNext{release: make(chan struct{})}
	close(next.release)
	stage := NewFactory(nil)(next, noopClient{})
	op := &operation.Operation{Key: "k1", Meta: operation.Meta{OperationType: operation.TypeSubscription}}

	_, err := stage.Run(context.Background(), op)
	require.NoError(t, err)

	next.mu.Lock()
	defer next.mu.Unlock()
	assert.Equal(t, 1, next.calls)
}

func TestDedupPropagatesDownstreamError(t *testing.T) {
	failing := exchange.ExchangeFunc(func(ctx context.Context, op *operation.Operation) (*operation.Result, error) {
		return nil, assert.AnError
	})
	stage := NewFactory(nil)(failing, noopClient{})
	op := &operation.Operation{Key: "k1", Meta: operation.Meta{OperationType: operation.TypeQuery}}

	_, err := stage.Run(context.Background(), op)
	assert.ErrorIs(t, err, assert.AnError)
}
