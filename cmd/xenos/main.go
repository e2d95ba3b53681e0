// Command xenos runs the caching minecraft profile proxy: a grpc and a rest
// facade over the mojang api with a two-tier cache in between.
package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/unkn0wn-root/xenos/internal/cache"
	"github.com/unkn0wn-root/xenos/internal/config"
	"github.com/unkn0wn-root/xenos/internal/metrics"
	"github.com/unkn0wn-root/xenos/internal/mojang"
	"github.com/unkn0wn-root/xenos/internal/resolver"
	"github.com/unkn0wn-root/xenos/internal/server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("xenos exited", zap.Error(err))
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	c := zap.NewProductionConfig()
	c.Level = lvl
	return c.Build()
}

func run(cfg *config.Config, logger *zap.Logger) error {
	met := metrics.New()

	var remote cache.Store
	if cfg.RemoteCache == config.RemoteRedis {
		rs, err := cache.NewRemoteStore(cache.RemoteOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return err
		}
		defer rs.Close(context.Background())

		pctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rs.Ping(pctx); err != nil {
			// remote outages degrade to local-only, so a dead redis at boot
			// is a warning, not a startup failure
			logger.Warn("remote cache unreachable", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		cancel()
		remote = rs
		logger.Info("remote cache enabled", zap.String("addr", cfg.RedisAddr))
	}

	caches, err := buildCaches(cfg, remote, logger, met)
	if err != nil {
		return err
	}
	defer closeCaches(caches)

	mc, err := mojang.NewClient(mojang.Options{
		UUIDBaseURL:    cfg.MojangUUIDBaseURL,
		SessionBaseURL: cfg.MojangSessionBaseURL,
		Timeout:        cfg.MojangTimeout,
		Logger:         logger,
		Metrics:        met,
	})
	if err != nil {
		return err
	}

	res, err := resolver.New(resolver.Options{
		Mojang: mc,
		Caches: caches,
		Admission: resolver.AdmissionConfig{
			MaxInFlight:     cfg.UpstreamMaxInFlight,
			RatePerInterval: cfg.UpstreamRate,
			Interval:        cfg.UpstreamRateInterval,
			Burst:           cfg.UpstreamBurst,
		},
		Logger:  logger,
		Metrics: met,
	})
	if err != nil {
		return err
	}

	grpcSrv := server.NewGRPCServer(server.NewProfileServer(res, logger, met))
	httpSrv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: server.NewREST(server.RESTOptions{
			Resolver:       res,
			Logger:         logger,
			Metrics:        met,
			SignedProfiles: cfg.SignedProfiles,
			BearerToken:    cfg.BearerToken,
			MetricsUser:    cfg.MetricsUser,
			MetricsPass:    cfg.MetricsPass,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen grpc: %w", err)
	}

	errc := make(chan error, 2)
	go func() {
		logger.Info("grpc listening", zap.String("addr", cfg.GRPCAddr))
		errc <- grpcSrv.Serve(lis)
	}()
	go func() {
		logger.Info("http listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
			return
		}
		errc <- nil
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(sctx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	grpcSrv.GracefulStop()
	return nil
}

func buildCaches(cfg *config.Config, remote cache.Store, logger *zap.Logger, met *metrics.Metrics) (resolver.Caches, error) {
	var (
		caches resolver.Caches
		err    error
	)
	if caches.UUID, err = newTiered[resolver.UUIDData](cache.KindUUID, cfg.UUIDCache, remote, logger, met); err != nil {
		return caches, err
	}
	if caches.Profile, err = newTiered[mojang.Profile](cache.KindProfile, cfg.ProfileCache, remote, logger, met); err != nil {
		return caches, err
	}
	if caches.ProfileSigned, err = newTiered[mojang.Profile](cache.KindProfileSigned, cfg.ProfileCache, remote, logger, met); err != nil {
		return caches, err
	}
	if caches.Skin, err = newTiered[resolver.SkinData](cache.KindSkin, cfg.SkinCache, remote, logger, met); err != nil {
		return caches, err
	}
	if caches.Cape, err = newTiered[resolver.CapeData](cache.KindCape, cfg.CapeCache, remote, logger, met); err != nil {
		return caches, err
	}
	if caches.Head, err = newTiered[resolver.HeadData](cache.KindHead, cfg.HeadCache, remote, logger, met); err != nil {
		return caches, err
	}
	return caches, nil
}

func newTiered[D any](kind cache.Kind, p config.KindPolicy, remote cache.Store, logger *zap.Logger, met *metrics.Metrics) (*cache.Tiered[D], error) {
	local, err := cache.NewLocalStore(p.Capacity)
	if err != nil {
		return nil, fmt.Errorf("local store %s: %w", kind, err)
	}
	return cache.NewTiered(cache.TieredOptions[D]{
		Kind: kind,
		Policy: cache.Policy{
			FreshTTL:     p.FreshTTL,
			StaleHorizon: p.StaleHorizon,
			NegativeTTL:  p.NegativeTTL,
			Capacity:     p.Capacity,
		},
		Local:   local,
		Remote:  remote,
		Logger:  logger,
		Metrics: met,
	})
}

func closeCaches(c resolver.Caches) {
	ctx := context.Background()
	for _, closer := range []interface{ Close(context.Context) error }{
		c.UUID, c.Profile, c.ProfileSigned, c.Skin, c.Cape, c.Head,
	} {
		if closer != nil {
			_ = closer.Close(ctx)
		}
	}
}
