package main

import (
	"context"
	"encoding/json"
	"flag"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/joripage/matching-engine/config"
	"github.com/joripage/matching-engine/pkg/engine"
	"github.com/joripage/matching-engine/pkg/engine/model"
	"github.com/joripage/matching-engine/pkg/engine/monitor"
	"github.com/joripage/matching-engine/pkg/engine/sink"
	"github.com/joripage/matching-engine/pkg/engine/store"
	"github.com/joripage/matching-engine/pkg/fixgateway"
	postgres_wrapper "github.com/joripage/matching-engine/pkg/infra/postgres"
	redis_wrapper "github.com/joripage/matching-engine/pkg/infra/redis"
	"github.com/joripage/matching-engine/pkg/kafkautil"
	"github.com/joripage/matching-engine/pkg/logging"
)

// observingSink tees execution reports into the stop monitor before they go
// out on the wire, so stop triggers follow every trade.
type observingSink struct {
	next    engine.ExecutionSink
	monitor *monitor.StopMonitor
}

func (s *observingSink) Report(ctx context.Context, report *model.ExecutionReport) error {
	s.monitor.ObserveTrade(report.Symbol, report.Price)
	return s.next.Report(ctx, report)
}

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

	configBytes, err := json.MarshalIndent(cfg, "", "   ")
	if err != nil {
		zap.S().Warnf("could not convert config to JSON: %v", err)
	} else {
		zap.S().Debugf("load config %s", string(configBytes))
	}

	if cfg.PprofAddr != "" {
		go func() {
			http.ListenAndServe(cfg.PprofAddr, nil) // nolint
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	db, err := postgres_wrapper.InitPostgresWithBackoff(cfg.EngineDB)
	if err != nil {
		zap.S().Fatalf("init postgres fail: %v", err)
	}

	redisClient, err := redis_wrapper.InitRedis(cfg.Redis)
	if err != nil {
		zap.S().Fatalf("init redis fail: %v", err)
	}

	producer := kafkautil.NewProducer(kafkautil.ProducerConfig{
		Brokers:      cfg.Kafka.Brokers,
		BatchSize:    cfg.Kafka.BatchSize,
		BatchTimeout: cfg.Kafka.BatchTimeout(),
	})
	defer producer.Close() // nolint

	orderStore := store.NewOrderSQLStore(db)
	execSink := sink.NewKafkaExecutionSink(producer, cfg.Kafka.ExecutionTopic)
	marketData := sink.NewRedisMarketDataSink(redisClient)

	obs := &observingSink{next: execSink}
	eng := engine.New(orderStore, obs, marketData)
	stopMonitor := monitor.NewStopMonitor(eng, cfg.StopCheckInterval())
	obs.monitor = stopMonitor
	go stopMonitor.Run(ctx)

	submitter := engine.NewRetryingSubmitter(eng, cfg.SubmitRetryMaxElapsed())

	gateway := fixgateway.NewFixGateway(&fixgateway.FixGatewayConfig{
		ConfigFilepath: cfg.Fix.SettingsFile,
	}, submitter)
	if err := gateway.Start(ctx); err != nil {
		zap.S().Fatalf("start fix gateway fail: %v", err)
	}
	defer gateway.Stop()

	zap.S().Info("matching engine started")

	<-sigs
	zap.S().Info("shutting down...")
	cancel()
}
