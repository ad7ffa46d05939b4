package client

import (
	"context"
	"testing"
	"time"

	"gqlcache/application/exchange"
	"gqlcache/domain/operation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoFactory() exchange.Factory {
	return func(next exchange.Exchange, ch exchange.ClientHandle) exchange.Exchange {
		return exchange.ExchangeFunc(func(ctx context.Context, op *operation.Operation) (*operation.Result, error) {
			return &operation.Result{Key: op.Key, Response: operation.Response{Data: op.Query.Variables}}, nil
		})
	}
}

func TestClientQueryForwardsThroughChain(t *testing.T) {
	c := New([]exchange.Factory{echoFactory()}, nil)
	op := &operation.Operation{Key: "k1", Query: operation.Query{Variables: map[string]interface{}{"id": "1"}}}

	result, err := c.Query(context.Background(), op)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"id": "1"}, result.Response.Data)
}

func TestSubscribeDeliversRerunResults(t *testing.T) {
	c := New([]exchange.Factory{echoFactory()}, nil)
	op := &operation.Operation{Key: "sub1", Query: operation.Query{Variables: map[string]interface{}{"n": 1}}}

	sub, first, err := c.Subscribe(context.Background(), op)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"n": 1}, first.Response.Data)
	defer sub.Close()

	c.RerunQuery(context.Background(), "sub1")

	select {
	case result := <-sub.Results():
		assert.Equal(t, op.Key, result.Key)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for rerun result")
	}
}

func TestSubscriptionCloseIsIdempotentAndRemovesListener(t *testing.T) {
	c := New([]exchange.Factory{echoFactory()}, nil)
	op := &operation.Operation{Key: "sub1"}

	sub, _, err := c.Subscribe(context.Background(), op)
	require.NoError(t, err)

	sub.Close()
	assert.NotPanics(t, func() { sub.Close() }, "closing twice must be safe")

	// A rerun after the only listener closed must not panic or block.
	c.RerunQuery(context.Background(), "sub1")
}

func TestPushResultDeliversWithoutRerun(t *testing.T) {
	var rerunCalls int
	factory := func(next exchange.Exchange, ch exchange.ClientHandle) exchange.Exchange {
		return exchange.ExchangeFunc(func(ctx context.Context, op *operation.Operation) (*operation.Result, error) {
			rerunCalls++
			return &operation.Result{Key: op.Key}, nil
		})
	}
	c := New([]exchange.Factory{factory}, nil)
	op := &operation.Operation{Key: "sub1"}
	sub, _, err := c.Subscribe(context.Background(), op)
	require.NoError(t, err)
	defer sub.Close()

	callsAfterSubscribe := rerunCalls
	c.PushResult(context.Background(), "sub1", &operation.Result{Key: "sub1", Response: operation.Response{Data: "pushed"}})

	select {
	case result := <-sub.Results():
		assert.Equal(t, "pushed", result.Response.Data)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for pushed result")
	}
	assert.Equal(t, callsAfterSubscribe, rerunCalls, "PushResult must not re-execute the operation")
}
