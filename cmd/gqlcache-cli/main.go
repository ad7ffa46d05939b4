// Command gqlcache-cli is a one-shot query runner and concurrent-fire
// benchmark harness. The one-shot mode is grounded on the teacher's
// cmd/lambda/main.go config->container startup sequence; the -bench
// mode supplements spec.md per SPEC_FULL §13, adapting the original
// source's artemis-load-gen/src/main.rs random-id concurrent-query loop
// into goroutines over a worker pool instead of rayon.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"gqlcache/codegen"
	"gqlcache/codegen/conference"
	"gqlcache/domain/operation"
	"gqlcache/infrastructure/di"
	"gqlcache/pkg/config"

	"go.uber.org/zap"
)

func main() {
	var (
		confID    = flag.String("id", "1", "conference id for a one-shot GetConference query")
		bench     = flag.Bool("bench", false, "run the concurrent-fire benchmark instead of a single query")
		workers   = flag.Int("workers", 8, "number of concurrent worker goroutines in -bench mode")
		duration  = flag.Duration("duration", 5*time.Second, "how long to run -bench mode")
		idSpace   = flag.Int("id-space", 25, "number of distinct conference ids to draw from in -bench mode")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	ctx := context.Background()
	container, err := di.NewContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize container: %v", err)
	}
	defer container.Shutdown(ctx)

	if *bench {
		runBench(ctx, container, *workers, *duration, *idSpace)
		return
	}
	runOneShot(ctx, container, *confID)
}

func runOneShot(ctx context.Context, container *di.Container, confID string) {
	desc := conference.NewGetConferenceQuery(confID)
	op, err := buildOperation(desc, container)
	if err != nil {
		log.Fatalf("failed to build operation: %v", err)
	}

	result, err := container.Client.Query(ctx, op)
	if err != nil {
		log.Fatalf("query failed: %v", err)
	}
	if result.Response.HasErrors() {
		fmt.Fprintf(os.Stderr, "server returned errors: %v\n", result.Response.Errors)
		os.Exit(1)
	}
	fmt.Printf("source=%s data=%v\n", result.Response.Debug.Source, result.Response.Data)
}

// runBench repeatedly fires GetConference queries for a random id drawn
// from [0, idSpace) across workers goroutines, mirroring
// artemis-load-gen's "repeat + random id + query" loop.
func runBench(ctx context.Context, container *di.Container, workers int, duration time.Duration, idSpace int) {
	ctx, cancel := context.WithTimeout(ctx, duration)
	defer cancel()

	var total int64
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano()))
			for {
				select {
				case <-ctx.Done():
					return
				default:
				}
				id := fmt.Sprintf("%d", r.Intn(idSpace))
				desc := conference.NewGetConferenceQuery(id)
				op, err := buildOperation(desc, container)
				if err != nil {
					container.Logger.Error("bench: failed to build operation", zap.Error(err))
					continue
				}
				if _, err := container.Client.Query(ctx, op); err != nil {
					container.Logger.Warn("bench: query failed", zap.Error(err))
					continue
				}
				atomic.AddInt64(&total, 1)
			}
		}()
	}
	wg.Wait()
	fmt.Printf("completed %d queries across %d workers in %s\n", atomic.LoadInt64(&total), workers, duration)
}

func buildOperation(desc *conference.GetConferenceQuery, container *di.Container) (*operation.Operation, error) {
	return codegen.BuildOperation(desc, operation.Options{
		URL:           container.Config.TransportURL,
		RequestPolicy: container.Config.DefaultRequestPolicy,
	})
}
