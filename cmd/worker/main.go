package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/joripage/matching-engine/config"
	"github.com/joripage/matching-engine/pkg/engine/store"
	"github.com/joripage/matching-engine/pkg/engine/worker"
	postgres_wrapper "github.com/joripage/matching-engine/pkg/infra/postgres"
	"github.com/joripage/matching-engine/pkg/kafkautil"
	"github.com/joripage/matching-engine/pkg/logging"
)

func main() {
	var configFile string
	flag.StringVar(&configFile, "config-file", "", "Specify config file path")
	flag.Parse()

	cfg, err := config.Load(configFile)
	if err != nil {
		panic(err)
	}

	if _, err := logging.Init(cfg.ServiceName, cfg.LogLevel); err != nil {
		panic(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	db, err := postgres_wrapper.InitPostgresWithBackoff(cfg.EngineDB)
	if err != nil {
		zap.S().Fatalf("init postgres fail: %v", err)
	}

	consumer := kafkautil.NewConsumerGroup(kafkautil.ConsumerConfig{
		Brokers: cfg.Kafka.Brokers,
		GroupID: cfg.Kafka.ConsumerGroup,
		Topic:   cfg.Kafka.ExecutionTopic,
	})
	defer consumer.Close() // nolint

	w := worker.NewWorker(store.NewExecutionSQLStore(db), consumer)
	go func() {
		if err := w.Run(ctx); err != nil {
			zap.S().Errorf("worker stopped: %v", err)
		}
	}()

	zap.S().Info("execution archive worker started")

	<-sigs
	zap.S().Info("shutting down...")
	cancel()
}
