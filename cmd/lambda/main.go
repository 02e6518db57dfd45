package main

import (
	"context"
	"log"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	chiadapter "github.com/awslabs/aws-lambda-go-api-proxy/chi"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"decisionmap/infrastructure/config"
	"decisionmap/infrastructure/di"
)

// Global variables for Lambda lifecycle management
var (
	// chiLambda wraps the Chi router for AWS Lambda integration
	chiLambda *chiadapter.ChiLambdaV2

	// container holds the dependency injection container
	container *di.Container

	// coldStart tracks whether this is a cold start invocation
	coldStart = true

	// coldStartTime records when the cold start began
	coldStartTime time.Time
)

// init runs during cold start
func init() {
	coldStartTime = time.Now()
	log.Println("Lambda cold start initiated")

	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cfg.IsLambda = true
	// No overlay hot reload in Lambda; each cold start reads the file once
	watchFile := cfg.ConfigFile
	cfg.ConfigFile = ""

	// The sandbox filesystem is read-only outside /tmp
	if cfg.HistoryBackend == config.HistorySQLite {
		log.Println("SQLite history is not supported in Lambda, history disabled")
		cfg.HistoryBackend = config.HistoryNone
	}

	// Initialize dependency container. The container lives as long as the
	// execution environment, so its cleanup is never run.
	container, _, err = di.InitializeContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}

	handler := container.Router.Setup()

	// Create Lambda adapter - need to type assert to *chi.Mux
	chiRouter, ok := handler.(*chi.Mux)
	if !ok {
		log.Fatal("Failed to cast handler to chi.Mux")
	}
	chiLambda = chiadapter.NewV2(chiRouter)

	container.Logger.Info("Lambda cold start completed",
		zap.Duration("duration", time.Since(coldStartTime)),
		zap.String("config_file", watchFile),
		zap.String("llm", container.LLM.Name()),
	)
}

// Handler is the Lambda function handler
func Handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	// API Gateway's request id doubles as ours so logs correlate
	if req.Headers == nil {
		req.Headers = make(map[string]string)
	}
	if req.RequestContext.RequestID != "" {
		req.Headers["X-Request-Id"] = req.RequestContext.RequestID
	}

	resp, err := chiLambda.ProxyWithContextV2(ctx, req)

	if resp.Headers == nil {
		resp.Headers = make(map[string]string)
	}
	if coldStart {
		resp.Headers["X-Cold-Start"] = "true"
		resp.Headers["X-Cold-Start-Duration"] = time.Since(coldStartTime).String()
		coldStart = false
	} else {
		resp.Headers["X-Cold-Start"] = "false"
	}
	resp.Headers["X-Lambda-Request-ID"] = req.RequestContext.RequestID

	if resp.StatusCode >= 500 {
		container.Logger.Error("Lambda error response",
			zap.String("method", req.RequestContext.HTTP.Method),
			zap.String("path", req.RequestContext.HTTP.Path),
			zap.String("request_id", req.RequestContext.RequestID),
			zap.Int("status_code", resp.StatusCode),
		)
	}

	// The environment may be frozen right after returning, so counters go
	// out now
	if container.Reporter != nil {
		container.Reporter.Flush(ctx)
	}

	return resp, err
}

// main is the entry point for the Lambda function
func main() {
	lambda.Start(Handler)
}
