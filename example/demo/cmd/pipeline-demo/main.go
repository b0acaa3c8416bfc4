// Demo for the instrumented value pipeline.
//
// It composes a small numeric pipeline, drains it through a logging sink,
// and, when a Postgres DSN is reachable via PIPELINE_EVENTS_POSTGRES_DSN,
// also persists the drained event records with the Postgres sink.
//
// Usage:
//
//	go run ./example/demo/cmd/pipeline-demo
//	go run ./example/demo/cmd/pipeline-demo -postgres
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trailware/instrumented-values-go/instrumented"
	"github.com/trailware/instrumented-values-go/instrumented/oteladapters"
	"github.com/trailware/instrumented-values-go/postgressink"
	"github.com/trailware/instrumented-values-go/postgressink/config"
)

func main() {
	usePostgres := flag.Bool("postgres", false, "persist drained event records to Postgres")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := oteladapters.NewSlogBridgeLoggerWithHandler(
		slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	final, err := runPipeline(ctx, logger)
	if err != nil {
		log.Fatalf("pipeline drain failed: %v", err)
	}

	logger.InfoContext(ctx, "pipeline finished", "final_value", final)

	if *usePostgres {
		if err := persistToPostgres(ctx, logger); err != nil {
			log.Fatalf("postgres delivery failed: %v", err)
		}
	}
}

// runPipeline builds the chain and drains it through the contextual logging
// sink, which logs one line per recorded stage.
func runPipeline(ctx context.Context, logger instrumented.ContextualLogger) (float64, error) {
	chain, err := buildChain(logger)
	if err != nil {
		return 0, err
	}

	return chain.RunAsync(ctx, instrumented.NewContextualLoggingSink(logger))
}

// persistToPostgres re-runs the chain and delivers its event records into the
// pipeline_events table through a pgx connection pool.
func persistToPostgres(ctx context.Context, logger instrumented.ContextualLogger) error {
	poolConfig, err := config.PostgresPGXPoolConfig()
	if err != nil {
		return err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err = pool.Ping(ctx); err != nil {
		return err
	}

	sink, err := postgressink.NewSinkFromPGXPool(pool)
	if err != nil {
		return err
	}

	chain, err := buildChain(logger)
	if err != nil {
		return err
	}

	_, err = chain.RunAsync(ctx, sink.DeliverContext)

	return err
}

// buildChain composes the pipeline: start at 5, add 3 plus a random offset,
// add 2 anonymously, then multiply by 5 plus another random offset.
func buildChain(logger instrumented.ContextualLogger) (*instrumented.Value[float64], error) {
	start, err := instrumented.Of(5.0, instrumented.WithContextualLogger(logger))
	if err != nil {
		return nil, err
	}

	afterAdd, err := instrumented.FlatMapNamed(start, "addThreeAndRandom", addThreeAndRandom)
	if err != nil {
		return nil, err
	}

	afterBump, err := instrumented.Map(afterAdd, func(value float64) float64 { return value + 2 })
	if err != nil {
		return nil, err
	}

	return instrumented.FlatMapNamed(afterBump, "multiplyBy5AndRandom", multiplyBy5AndRandom)
}

func addThreeAndRandom(value float64) (*instrumented.Value[float64], error) {
	offset := rand.Float64()

	return instrumented.Of(value+3+offset, instrumented.WithEventPayload(instrumented.Fields{
		"randomNumber": offset,
	}))
}

func multiplyBy5AndRandom(value float64) (*instrumented.Value[float64], error) {
	offset := rand.Float64()

	return instrumented.Of(value*5+offset, instrumented.WithEventPayload(instrumented.Fields{
		"randomNumber": offset,
	}))
}
