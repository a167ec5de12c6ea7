package main

import (
	"context"
	"embed"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/appetiteclub/apt/middleware"
	apttemplate "github.com/appetiteclub/apt/template"

	"github.com/expeditehq/expedite/internal/backend"
	"github.com/expeditehq/expedite/internal/console"
	"github.com/expeditehq/expedite/internal/expo"
	"github.com/expeditehq/expedite/internal/receipt"
	"github.com/expeditehq/expedite/pkg"
	"github.com/expeditehq/expedite/pkg/event"
)

//go:embed assets
var assetsFS embed.FS

const (
	appNamespace = "EXPEDITE"
	appName      = "expedite"
	appVersion   = "0.1.0"
)

func main() {
	config, err := apt.LoadConfig(appNamespace, os.Args[1:])
	if err != nil {
		log.Fatalf("%s(%s) cannot setup: %v", appName, appVersion, err)
	}

	logLevel, _ := config.GetString("log.level")
	logger := apt.NewLogger(logLevel)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer stop()

	tmplMgr := apttemplate.NewManager(assetsFS, apttemplate.WithLogger(logger))

	// Tenant backend HTTP client
	backendURL, _ := config.GetString("services.backend.url")
	if backendURL == "" {
		log.Fatalf("%s(%s) cannot setup: services.backend.url is required", appName, appVersion)
	}
	gateway := backend.NewGateway(apt.NewServiceClient(backendURL))

	natsURL := config.GetStringOrDef("nats.url", "nats://localhost:4222")

	pub, err := pkg.NewNATSPublisher(natsURL)
	if err != nil {
		log.Fatalf("%s(%s) cannot connect to NATS publisher: %v", appName, appVersion, err)
	}

	sub, err := pkg.NewNATSSubscriber(natsURL)
	if err != nil {
		log.Fatalf("%s(%s) cannot connect to NATS subscriber: %v", appName, appVersion, err)
	}

	// JetStream replay lets the board warm its caches without hammering the
	// backend on restart. Optional: caches fall back to HTTP when disabled.
	var ordersStream, callsStream events.StreamConsumer
	var streamCloser apt.LifecycleHooks

	streamEnabled := config.GetStringOrDef("nats.stream.enabled", "false")
	if streamEnabled == "true" {
		ordersJS, err := pkg.NewNATSStream(pkg.NATSStreamConfig{
			URL:          natsURL,
			StreamName:   "TENANT_ORDERS",
			Topic:        event.OrdersTopic,
			ConsumerName: appName + "-orders",
		})
		if err != nil {
			log.Fatalf("%s(%s) cannot setup orders stream: %v", appName, appVersion, err)
		}

		callsJS, err := pkg.NewNATSStream(pkg.NATSStreamConfig{
			URL:          natsURL,
			StreamName:   "TENANT_CALLS",
			Topic:        event.WaiterCallsTopic,
			ConsumerName: appName + "-calls",
		})
		if err != nil {
			log.Fatalf("%s(%s) cannot setup waiter calls stream: %v", appName, appVersion, err)
		}

		ordersStream = ordersJS
		callsStream = callsJS
		streamCloser = apt.LifecycleHooks{
			OnStop: func(context.Context) error {
				_ = ordersJS.Close()
				return callsJS.Close()
			},
		}
	}

	orderCache := expo.NewOrderStateCache(ordersStream, gateway, logger)
	callCache := expo.NewCallStateCache(callsStream, gateway, logger)

	boardStream := expo.NewBoardStream(logger)
	gate := expo.NewSoundGate(boardStream, logger)
	board := expo.NewBoard(orderCache, callCache, gateway, pub, boardStream, gate, logger)

	poller := expo.NewPoller(gateway, orderCache, callCache, gate, boardStream, logger)
	if raw := config.GetStringOrDef("poll.interval", ""); raw != "" {
		interval, err := time.ParseDuration(raw)
		if err != nil {
			log.Fatalf("%s(%s) invalid poll.interval: %v", appName, appVersion, err)
		}
		poller.SetInterval(interval)
	}
	board.SetResyncer(poller)

	tenantSub := expo.NewTenantEventSubscriber(sub, orderCache, callCache, boardStream, logger)

	renderer := receipt.NewRenderer(tmplMgr)
	handler := console.NewHandler(board, boardStream, renderer, config, logger)

	warmHooks := apt.LifecycleHooks{
		OnStart: func(ctx context.Context) error {
			if err := orderCache.Warm(ctx); err != nil {
				logger.Errorf("cannot warm order cache: %v", err)
			}
			if err := callCache.Warm(ctx); err != nil {
				logger.Errorf("cannot warm waiter call cache: %v", err)
			}
			return nil
		},
	}

	publisherLifecycle := apt.LifecycleHooks{
		OnStop: func(context.Context) error {
			return pub.Close()
		},
	}

	subLifecycle := apt.LifecycleHooks{
		OnStop: func(context.Context) error {
			return sub.Close()
		},
	}

	stack := middleware.DefaultStack(middleware.StackOptions{
		Logger:      logger,
		DisableCORS: false, // Consoles are served from a different origin
	})

	lifecycles := []interface{}{
		tmplMgr,
		warmHooks,
		boardStream,
		tenantSub,
		poller,
		publisherLifecycle,
		subLifecycle,
	}
	if streamEnabled == "true" {
		lifecycles = append(lifecycles, streamCloser)
	}

	options := []apt.Option{
		apt.WithConfig(config),
		apt.WithLogger(logger),
		apt.WithHTTPMiddleware(stack...),
		apt.WithHTTPServerModules("web.port", handler),
		apt.WithLifecycle(lifecycles...),
		apt.WithHealthChecks(appName),
	}

	ms := apt.NewMicro(options...)
	logger.Infof("Starting %s(%s)", appName, appVersion)

	if err := ms.Run(ctx); err != nil {
		log.Fatalf("%s(%s) stopped: %v", appName, appVersion, err)
	}

	logger.Infof("%s(%s) stopped", appName, appVersion)
}
