package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// Metrics publishes cache lifecycle counters (hit/miss/rerun) to
// CloudWatch. Counts accumulate locally and are published only when
// Flush is called (the container calls it on Shutdown), so the hot
// read/write paths in application/normalizedcache never block on a
// network call.
type Metrics struct {
	client    *cloudwatch.Client
	namespace string

	mu      sync.Mutex
	counts  map[string]float64
}

// NewMetrics constructs a Metrics sink. With a nil client the sink
// counts but never publishes. A nil *Metrics (what ProvideMetrics
// returns when EnableMetrics is false) is also safe to use.
func NewMetrics(client *cloudwatch.Client, namespace string) *Metrics {
	return &Metrics{client: client, namespace: namespace, counts: make(map[string]float64)}
}

// Incr increments a named counter (e.g. "CacheHit", "CacheMiss",
// "RerunDispatched").
func (m *Metrics) Incr(name string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.counts[name]++
	m.mu.Unlock()
}

// Flush publishes accumulated counters to CloudWatch and resets them.
// Safe to call on a timer from the client's background loop.
func (m *Metrics) Flush(ctx context.Context) error {
	if m == nil || m.client == nil {
		return nil
	}
	m.mu.Lock()
	data := make([]types.MetricDatum, 0, len(m.counts))
	now := time.Now()
	for name, value := range m.counts {
		data = append(data, types.MetricDatum{
			MetricName: aws.String(name),
			Value:      aws.Float64(value),
			Unit:       types.StandardUnitCount,
			Timestamp:  aws.Time(now),
		})
	}
	m.counts = make(map[string]float64)
	m.mu.Unlock()

	if len(data) == 0 {
		return nil
	}
	_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(m.namespace),
		MetricData: data,
	})
	return err
}
