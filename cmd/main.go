package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clementgustavo1301-blip/tavares-pizzaria/internal/address"
	"github.com/clementgustavo1301-blip/tavares-pizzaria/internal/catalog"
	"github.com/clementgustavo1301-blip/tavares-pizzaria/internal/checkout"
	"github.com/clementgustavo1301-blip/tavares-pizzaria/internal/config"
	"github.com/clementgustavo1301-blip/tavares-pizzaria/internal/db"
	"github.com/clementgustavo1301-blip/tavares-pizzaria/internal/events"
	httpapi "github.com/clementgustavo1301-blip/tavares-pizzaria/internal/http"
	"github.com/clementgustavo1301-blip/tavares-pizzaria/internal/kitchen"
	"github.com/clementgustavo1301-blip/tavares-pizzaria/internal/order"
	"github.com/clementgustavo1301-blip/tavares-pizzaria/internal/ordersync"
	"github.com/clementgustavo1301-blip/tavares-pizzaria/internal/session"
)

func main() {
	cfg := config.Load()
	logger := log.New(os.Stdout, "[pizzeria] ", log.LstdFlags|log.Lmicroseconds)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- DB ---
	pool, err := db.NewPool(ctx, cfg.DatabaseDSN)
	if err != nil {
		logger.Fatalf("db connect: %v", err)
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.MigrateUp(cfg.DatabaseDSN, logger); err != nil {
			logger.Fatalf("db migrate: %v", err)
		}
	}

	orders := order.NewPostgresRepository(pool)
	menu := catalog.NewReader(catalog.NewPostgresRepository(pool), logger, cfg.StoreTimeout)

	loadCtx, loadCancel := context.WithTimeout(ctx, cfg.StoreTimeout)
	if err := menu.Load(loadCtx); err != nil {
		logger.Printf("menu load failed, serving an empty menu until the next change: %v", err)
	}
	loadCancel()

	// --- AMQP ---
	// The change feed is optional: without a broker, local writes still
	// refresh the board and clients can ask for a manual refresh.
	publisher := events.NewPublisher(cfg.RabbitURL)
	defer publisher.Close()
	if err := publisher.Connect(); err != nil {
		logger.Printf("rabbitmq unavailable, publishing retries on the next change: %v", err)
	}

	subscriber := events.NewSubscriber(cfg.RabbitURL, logger)
	defer subscriber.Close()

	streamOpts := events.StreamOptions{MaxBackoff: cfg.ReconnectMaxBackoff, Logger: logger}
	orderChanges := events.Stream(ctx, subscriber, streamOpts,
		events.TableBinding(events.TableOrders),
		events.TableBinding(events.TableOrderItems),
	)
	menuChanges := events.Stream(ctx, subscriber, streamOpts, events.TableBinding(events.TableMenuItems))

	// --- sync ---
	board := ordersync.NewBoard(orders, ordersync.Options{
		MinInterval:  cfg.RefreshMinInterval,
		StoreTimeout: cfg.StoreTimeout,
		Logger:       logger,
	})
	go board.Run(ctx, orderChanges)
	go menu.Watch(ctx, menuChanges)

	sessions := session.NewRegistry(session.Options{IdleTTL: cfg.SessionIdleTTL})
	go sessions.Run(ctx, time.Minute)

	submissions := checkout.NewService(orders, board, publisher, checkout.Options{
		StoreTimeout:   cfg.StoreTimeout,
		PickupLocation: cfg.PickupLocation,
		Logger:         logger,
	})
	kitchenSvc := kitchen.NewService(orders, board, sessions, publisher, kitchen.Options{
		StoreTimeout: cfg.StoreTimeout,
		Logger:       logger,
	})

	// --- HTTP ---
	h := httpapi.NewHandler(httpapi.Deps{
		Logger:       logger,
		StoreTimeout: cfg.StoreTimeout,
		Menu:         menu,
		Sessions:     sessions,
		Submissions:  submissions,
		Kitchen:      kitchenSvc,
		Board:        board,
		Orders:       orders,
		Address:      address.NewClient(cfg.AddressLookupURL, &http.Client{Timeout: cfg.StoreTimeout}),
	})
	r := httpapi.NewRouter(h, httpapi.RouterOptions{
		CORSAllowOrigins:  cfg.CORSAllowOrigins,
		CheckoutRateRPS:   cfg.CheckoutRateRPS,
		CheckoutRateBurst: cfg.CheckoutRateBurst,
	})

	// No WriteTimeout: the kitchen stream holds its response open.
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)

	go func() {
		logger.Printf("http listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Printf("shutdown signal: %s", sig)
	case err := <-errCh:
		logger.Printf("fatal error: %v", err)
	}

	// Request contexts derive from ctx, so this also ends open kitchen streams.
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = httpServer.Shutdown(shutdownCtx)

	logger.Printf("shutdown complete")
}
