package di

import (
	"context"
	"net/http"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"wayfinder/application/commands"
	"wayfinder/application/commands/bus"
	"wayfinder/application/ports"
	"wayfinder/application/queries"
	querybus "wayfinder/application/queries/bus"
	"wayfinder/application/services"
	"wayfinder/application/session"
	"wayfinder/infrastructure/client/httpapi"
	"wayfinder/infrastructure/config"
	"wayfinder/infrastructure/messaging/eventbridge"
	"wayfinder/infrastructure/messaging/logbus"
	"wayfinder/infrastructure/persistence/dynamodb"
	"wayfinder/infrastructure/persistence/memory"
	"wayfinder/interfaces/http/rest"
	pkgerrors "wayfinder/pkg/errors"
	"wayfinder/pkg/observability"
)

const serviceName = "wayfinder"

// ProvideLogger builds the zap logger. With LOG_FILE set, output is also
// written as JSON to a rotating file.
func ProvideLogger(cfg *config.Config) (*zap.Logger, func(), error) {
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}

	var console zapcore.Encoder
	if cfg.IsProduction() {
		console = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	} else {
		console = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	}
	cores := []zapcore.Core{zapcore.NewCore(console, zapcore.Lock(os.Stderr), level)}

	var rotator *lumberjack.Logger
	if cfg.LogFile != "" {
		rotator = &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    50, // megabytes
			MaxBackups: 5,
			MaxAge:     28, // days
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(rotator),
			level,
		))
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller()).
		With(zap.String("service", serviceName), zap.String("environment", cfg.Environment))
	cleanup := func() {
		_ = logger.Sync()
		if rotator != nil {
			_ = rotator.Close()
		}
	}
	return logger, cleanup, nil
}

// ProvideTracer creates the X-Ray tracer
func ProvideTracer(cfg *config.Config) *observability.Tracer {
	return observability.NewTracer(serviceName, cfg.EnableTracing)
}

// ProvideMetrics creates the prometheus collector
func ProvideMetrics() *observability.Collector {
	return observability.NewCollector(serviceName)
}

// ProvideAWSConfig creates AWS configuration with X-Ray instrumentation
// when tracing is on.
func ProvideAWSConfig(ctx context.Context, cfg *config.Config, tracer *observability.Tracer) (aws.Config, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return aws.Config{}, err
	}
	tracer.InstrumentAWS(&awsCfg)
	return awsCfg, nil
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideGraphStore picks the store backend
func ProvideGraphStore(cfg *config.Config, client *awsdynamodb.Client, logger *zap.Logger) ports.GraphStore {
	if cfg.Store == config.StoreDynamoDB {
		logger.Info("Using DynamoDB store", zap.String("table", cfg.TableName))
		return dynamodb.NewGraphStore(client, cfg.TableName, logger)
	}
	logger.Info("Using in-memory store")
	return memory.NewStore()
}

// ProvideEventPublisher publishes to EventBridge when a bus is configured
// and logs events otherwise.
func ProvideEventPublisher(cfg *config.Config, client *awseventbridge.Client, logger *zap.Logger) ports.EventPublisher {
	if cfg.EventBusName != "" {
		return eventbridge.NewPublisher(client, cfg.EventBusName, logger)
	}
	return logbus.NewPublisher(logger)
}

// ProvideGraphService creates the graph service
func ProvideGraphService(
	store ports.GraphStore,
	publisher ports.EventPublisher,
	cfg *config.Config,
	metrics *observability.Collector,
	logger *zap.Logger,
) *services.GraphService {
	return services.NewGraphService(store, publisher, cfg.Domain, metrics, logger)
}

// ProvideCommandBus creates a command bus with registered handlers
func ProvideCommandBus(svc *services.GraphService, logger *zap.Logger) (*bus.CommandBus, error) {
	commandBus := bus.NewCommandBus(bus.LoggingMiddleware(logger))
	if err := commands.Register(commandBus, svc); err != nil {
		return nil, err
	}
	return commandBus, nil
}

// ProvideQueryBus creates a query bus with registered handlers
func ProvideQueryBus(svc *services.GraphService, logger *zap.Logger) (*querybus.QueryBus, error) {
	queryBus := querybus.NewQueryBus(logger)
	if err := queries.Register(queryBus, svc); err != nil {
		return nil, err
	}
	return queryBus, nil
}

// ProvideHTTPHandler builds the REST router
func ProvideHTTPHandler(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	store ports.GraphStore,
	metrics *observability.Collector,
	tracer *observability.Tracer,
	cfg *config.Config,
	logger *zap.Logger,
) http.Handler {
	if !cfg.EnableMetrics {
		metrics = nil
	}
	opts := rest.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		Debug:          !cfg.IsProduction(),
		Ready:          storeReady(store),

		RateLimitPerMinute: cfg.RateLimitPerMinute,
	}
	return rest.NewRouter(commandBus, queryBus, metrics, tracer, opts, logger).Setup()
}

// storeReady probes the store with a point read of a key that never exists
func storeReady(store ports.GraphStore) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		_, err := store.GetMap(ctx, "__readiness__")
		if err == nil || pkgerrors.IsNotFound(err) {
			return nil
		}
		return err
	}
}

// ProvideBackend selects where an editing session sends its calls: the
// remote REST API when BACKEND_URL is set, the in-process service otherwise.
func ProvideBackend(cfg *config.Config, svc *services.GraphService, logger *zap.Logger) ports.Backend {
	if cfg.BackendURL != "" {
		logger.Info("Using remote backend", zap.String("url", cfg.BackendURL))
		return httpapi.NewClient(cfg.BackendURL, nil, httpapi.DefaultBreakerConfig(), logger)
	}
	return svc
}

// ProvideLocker guards graph mutations across processes when the graph
// lives in DynamoDB, and within the process otherwise.
func ProvideLocker(
	cfg *config.Config,
	client *awsdynamodb.Client,
	metrics *observability.Collector,
	logger *zap.Logger,
) ports.Locker {
	var locker ports.Locker
	if cfg.Store == config.StoreDynamoDB && cfg.BackendURL == "" {
		locker = dynamodb.NewDistributedLock(client, cfg.TableName, cfg.LockOwner, cfg.LockTTL, logger)
	} else {
		locker = session.NewGuard()
	}
	return &observedLocker{Locker: locker, metrics: metrics}
}

// observedLocker counts busy locks
type observedLocker struct {
	ports.Locker
	metrics *observability.Collector
}

func (l *observedLocker) TryAcquire(ctx context.Context, key string) (func(), error) {
	release, err := l.Locker.TryAcquire(ctx, key)
	if pkgerrors.IsConflict(err) {
		l.metrics.RecordLockConflict()
	}
	return release, err
}

// ProvideSession creates the editing session
func ProvideSession(backend ports.Backend, locker ports.Locker, cfg *config.Config, logger *zap.Logger) (*session.Session, func()) {
	s := session.New(backend, locker, cfg.Domain, logger)
	return s, s.Dispose
}
