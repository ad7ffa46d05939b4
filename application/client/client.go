// Package client implements the pipeline runtime / Client (spec §4.1,
// §4.6): it owns the built exchange chain and the subscription table,
// dispatches queries, and supplies the rerun/push callbacks used by the
// normalized cache stage. Grounded on the teacher's infrastructure/di
// provider-wiring construction style, and on the original source's
// artemis/src/client/{impl,observable}.rs for the subscription-slot /
// listener-drop contract (§3.5), supplemented per SPEC_FULL §13.
package client

import (
	"context"
	"sync"

	"gqlcache/application/exchange"
	"gqlcache/domain/operation"

	"go.uber.org/zap"
)

// subscriptionSlot holds everything needed to re-run one operation and
// fan its result out to every active listener.
type subscriptionSlot struct {
	mu        sync.Mutex
	op        *operation.Operation
	listeners map[int]chan *operation.Result
	nextID    int
}

// Client is the pipeline runtime described in spec §4.1/§4.6.
type Client struct {
	logger *zap.Logger
	chain  exchange.Exchange

	mu   sync.Mutex
	subs map[string]*subscriptionSlot
}

// New builds a Client from an ordered list of stage factories, applied
// right-to-left onto a terminal failing stage (§4.1).
func New(factories []exchange.Factory, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{logger: logger.Named("client"), subs: make(map[string]*subscriptionSlot)}
	c.chain = exchange.Build(factories, c)
	return c
}

// Query forwards op through the chain and returns its result. This is a
// simple forward, per spec §4.6.
func (c *Client) Query(ctx context.Context, op *operation.Operation) (*operation.Result, error) {
	return c.chain.Run(ctx, op)
}

// Subscription is returned by Subscribe; Results delivers fresh results
// as they're produced by re-runs, and Close removes this listener.
type Subscription struct {
	results chan *operation.Result
	close   func()
	once    sync.Once
}

// Results returns the channel fresh results are delivered on.
func (s *Subscription) Results() <-chan *operation.Result { return s.results }

// Close removes this listener from its subscription slot. Safe to call
// more than once (spec §3.5: listeners are removed when their consumer
// is dropped; when the list becomes empty the entry is removed).
func (s *Subscription) Close() {
	s.once.Do(s.close)
}

// Subscribe runs op once and joins (or creates) its subscription slot,
// returning a stream of subsequent results driven by RerunQuery.
func (c *Client) Subscribe(ctx context.Context, op *operation.Operation) (*Subscription, *operation.Result, error) {
	result, err := c.Query(ctx, op)
	if err != nil {
		return nil, nil, err
	}

	c.mu.Lock()
	slot, ok := c.subs[op.Key]
	if !ok {
		slot = &subscriptionSlot{op: op, listeners: make(map[int]chan *operation.Result)}
		c.subs[op.Key] = slot
	} else {
		slot.op = op // latest operation value wins, e.g. refreshed variables
	}
	c.mu.Unlock()

	slot.mu.Lock()
	id := slot.nextID
	slot.nextID++
	ch := make(chan *operation.Result, 8)
	slot.listeners[id] = ch
	slot.mu.Unlock()

	sub := &Subscription{results: ch}
	sub.close = func() {
		slot.mu.Lock()
		delete(slot.listeners, id)
		empty := len(slot.listeners) == 0
		slot.mu.Unlock()
		close(ch)
		if empty {
			c.mu.Lock()
			if current, ok := c.subs[op.Key]; ok && current == slot {
				delete(c.subs, op.Key)
			}
			c.mu.Unlock()
		}
	}
	return sub, result, nil
}

// RerunQuery implements exchange.ClientHandle: it re-executes the stored
// operation for opKey and broadcasts the fresh result to all listeners,
// per spec §4.4.5/§4.6. If opKey has no active subscription this is a
// no-op.
func (c *Client) RerunQuery(ctx context.Context, opKey string) {
	c.mu.Lock()
	slot, ok := c.subs[opKey]
	c.mu.Unlock()
	if !ok {
		return
	}

	slot.mu.Lock()
	op := slot.op
	slot.mu.Unlock()

	result, err := c.chain.Run(ctx, op)
	if err != nil {
		c.logger.Error("rerun failed", zap.String("opKey", opKey), zap.Error(err))
		return
	}
	c.broadcast(slot, result)
}

// PushResult implements exchange.ClientHandle: deliver a result directly
// to opKey's subscribers without re-executing the operation.
func (c *Client) PushResult(ctx context.Context, opKey string, result *operation.Result) {
	c.mu.Lock()
	slot, ok := c.subs[opKey]
	c.mu.Unlock()
	if !ok {
		return
	}
	c.broadcast(slot, result)
}

func (c *Client) broadcast(slot *subscriptionSlot, result *operation.Result) {
	slot.mu.Lock()
	defer slot.mu.Unlock()
	for _, ch := range slot.listeners {
		select {
		case ch <- result:
		default:
			c.logger.Warn("subscriber channel full, dropping result")
		}
	}
}
