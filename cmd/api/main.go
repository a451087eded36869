package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/quickbites/orderflow/internal/aws"
	"github.com/quickbites/orderflow/internal/cache"
	"github.com/quickbites/orderflow/internal/cart"
	"github.com/quickbites/orderflow/internal/catalog"
	"github.com/quickbites/orderflow/internal/checkout"
	"github.com/quickbites/orderflow/internal/config"
	"github.com/quickbites/orderflow/internal/gateway"
	"github.com/quickbites/orderflow/internal/handlers"
	"github.com/quickbites/orderflow/internal/logger"
	"github.com/quickbites/orderflow/internal/metrics"
	"github.com/quickbites/orderflow/internal/orders"
	"github.com/quickbites/orderflow/internal/realtime"
	"github.com/quickbites/orderflow/internal/session"
	"github.com/quickbites/orderflow/internal/validation"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Init("release").Fatal("loading config", zap.Error(err))
	}

	log := logger.Init(cfg.Server.Mode)
	defer log.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clients, err := aws.NewClients(ctx, cfg.AWS.Region)
	if err != nil {
		log.Fatal("building aws clients", zap.Error(err))
	}

	gw := gateway.New(clients.DynamoDB, gateway.TableNames{
		Products:   cfg.Tables.Products,
		Orders:     cfg.Tables.Orders,
		OrderItems: cfg.Tables.OrderItems,
	})
	queryCache := cache.New()

	catalogStore := catalog.NewStore(gw, queryCache)
	orderStore := orders.NewStore(gw, queryCache)
	images := catalog.NewImageStore(clients.S3, clients.Presign, cfg.Storage.Bucket,
		time.Duration(cfg.Storage.SignedURLSeconds)*time.Second)

	var publisher *metrics.Publisher
	if cfg.Metrics.Enabled {
		publisher = metrics.NewPublisher(clients.CloudWatch, cfg.Metrics.Namespace)
	}

	orchestrator := checkout.New(orderStore, queryCache, publisher, log)

	bridge := realtime.NewBridge()
	orderInserts := bridge.Subscribe("orders", realtime.Filter{Event: realtime.EventInsert}, func(realtime.Change) {
		queryCache.InvalidateKind(cache.KindOrderList)
	})
	defer orderInserts.Unsubscribe()
	orderUpdates := bridge.Subscribe("orders", realtime.Filter{Event: realtime.EventUpdate}, func(ch realtime.Change) {
		queryCache.InvalidateKind(cache.KindOrderList)
		queryCache.Invalidate(cache.OrderDetail(ch.ID))
	})
	defer orderUpdates.Unsubscribe()
	onProductChange := func(ch realtime.Change) {
		queryCache.InvalidateKind(cache.KindProductList)
		queryCache.Invalidate(cache.ProductDetail(ch.ID))
	}
	productInserts := bridge.Subscribe("products", realtime.Filter{Event: realtime.EventInsert}, onProductChange)
	defer productInserts.Unsubscribe()
	productUpdates := bridge.Subscribe("products", realtime.Filter{Event: realtime.EventUpdate}, onProductChange)
	defer productUpdates.Unsubscribe()

	consumerDone := make(chan struct{})
	if cfg.Queue.URL != "" {
		consumer := realtime.NewConsumer(clients.SQS, cfg.Queue.URL, cfg.Queue.WaitSeconds, bridge, log)
		go func() {
			defer close(consumerDone)
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("change feed consumer stopped", zap.Error(err))
			}
		}()
	} else {
		log.Warn("no change feed queue configured, cache invalidation is write-local only")
		close(consumerDone)
	}

	gin.SetMode(ginMode(cfg.Server.Mode))
	router := handlers.NewRouter(handlers.Config{
		Catalog:  catalogStore,
		Images:   images,
		Orders:   orderStore,
		Carts:    cart.NewRegistry(),
		Checkout: orchestrator,
		Sessions: session.NewManager(cfg.JWT.Secret),
		Validate: validation.New(),
		Log:      log,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("api listening", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", zap.Error(err))
	}
	<-consumerDone
}

func ginMode(mode string) string {
	if mode == "debug" {
		return gin.DebugMode
	}
	return gin.ReleaseMode
}
