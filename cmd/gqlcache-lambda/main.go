// Command gqlcache-lambda wraps the admin introspection surface
// (interfaces/admin) for deployment behind API Gateway, grounded on the
// teacher's cmd/lambda/main.go cold-start/adapter-wrapping shape. The
// GraphQL client pipeline itself is a library, not a service, so only
// the admin surface needs a Lambda entrypoint (spec's Non-goals exclude
// running the client "as a service" in its own right).
package main

import (
	"context"
	"log"
	"time"

	"gqlcache/infrastructure/di"
	"gqlcache/pkg/config"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	gorillaadapter "github.com/awslabs/aws-lambda-go-api-proxy/gorillamux"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

var (
	muxAdapter    *gorillaadapter.GorillaMuxAdapter
	container     *di.Container
	coldStart     = true
	coldStartTime time.Time
)

func init() {
	coldStartTime = time.Now()
	log.Println("gqlcache-lambda cold start initiated")

	ctx := context.Background()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	container, err = di.NewContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize container: %v", err)
	}

	handler := container.Admin.Handler()
	router, ok := handler.(*mux.Router)
	if !ok {
		log.Fatal("failed to cast admin handler to mux.Router")
	}
	muxAdapter = gorillaadapter.New(router)

	container.Logger.Info("cold start completed", zap.Duration("duration", time.Since(coldStartTime)))
}

// Handler is the Lambda function entrypoint.
func Handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	resp, err := muxAdapter.ProxyWithContextV2(ctx, req)
	if resp.Headers == nil {
		resp.Headers = make(map[string]string)
	}
	if coldStart {
		resp.Headers["X-Cold-Start"] = "true"
		coldStart = false
	} else {
		resp.Headers["X-Cold-Start"] = "false"
	}
	resp.Headers["X-Request-ID"] = req.RequestContext.RequestID
	return resp, err
}

func main() {
	lambda.Start(Handler)
}
