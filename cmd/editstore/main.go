// Edit Store gRPC Server
// Tracks pending metadata edits per page and compiles them into JSON patches
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	"github.com/nainya/editstore/internal/config"
	"github.com/nainya/editstore/internal/logger"
	"github.com/nainya/editstore/internal/metrics"
	"github.com/nainya/editstore/internal/server"
)

var (
	configPath  = flag.String("config", "", "YAML config file path")
	port        = flag.Int("port", 0, "The gRPC port (overrides config)")
	metricsPort = flag.Int("metrics-port", -1, "The metrics port, 0 disables (overrides config)")
	logLevel    = flag.String("log-level", "", "Log level: debug, info, warn, error (overrides config)")
	pretty      = flag.Bool("pretty", false, "Human readable console logs")
	undoTimeout = flag.Duration("undo-timeout", -1, "Default undo window for discards (overrides config)")
	printConfig = flag.Bool("print-config", false, "Print the effective configuration as YAML and exit")
)

func loadConfig() (config.Config, error) {
	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		return cfg, err
	}
	if *port > 0 {
		cfg.GRPCPort = *port
	}
	if *metricsPort >= 0 {
		cfg.MetricsPort = *metricsPort
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if *pretty {
		cfg.Log.Pretty = true
	}
	if *undoTimeout >= 0 {
		cfg.Undo.Timeout = *undoTimeout
	}
	return cfg, cfg.Validate()
}

func main() {
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	if *printConfig {
		data, err := config.Marshal(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode configuration: %v\n", err)
			os.Exit(1)
		}
		os.Stdout.Write(data)
		return
	}

	logger.InitGlobalLogger(logger.Config{
		Level:      cfg.Log.Level,
		Pretty:     cfg.Log.Pretty,
		WithCaller: cfg.Log.WithCaller,
	})
	hostname, _ := os.Hostname()
	log := logger.GetGlobalLogger().WithFields(map[string]any{"host": hostname})
	log.LogServerStart(cfg.GRPCPort, cfg.MetricsPort)

	m := metrics.NewMetrics(prometheus.DefaultRegisterer)
	stopUptime := make(chan struct{})
	go m.RunUptime(15*time.Second, stopUptime)

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
	if err != nil {
		log.Error("Failed to listen").Err(err).Int("port", cfg.GRPCPort).Send()
		os.Exit(1)
	}

	editServer := server.NewServer(server.Options{
		Logger:      log,
		Metrics:     m,
		UndoTimeout: cfg.Undo.Timeout,
	})
	defer editServer.Close()

	grpcServer := grpc.NewServer(
		grpc.UnaryInterceptor(server.GrpcMetricsInterceptor(m, log)),
	)
	server.RegisterEditServiceServer(grpcServer, editServer)

	// Register reflection service for grpcurl/grpcui
	reflection.Register(grpcServer)

	var ready atomic.Bool
	var obs *server.ObservabilityServer
	if cfg.MetricsPort > 0 {
		obs = server.NewObservabilityServer(cfg.MetricsPort,
			server.ObservabilityHandler(prometheus.DefaultGatherer, ready.Load), log)
		go func() {
			if err := obs.Start(); err != nil {
				log.Error("Observability server stopped").Err(err).Send()
			}
		}()
	}

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.LogServerShutdown()
		ready.Store(false)
		close(stopUptime)

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown)
		defer cancel()
		if obs != nil {
			if err := obs.Shutdown(ctx); err != nil {
				log.Error("Failed to stop observability server").Err(err).Send()
			}
		}

		stopped := make(chan struct{})
		go func() {
			grpcServer.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-ctx.Done():
			grpcServer.Stop()
		}
	}()

	ready.Store(true)
	log.LogServerReady(cfg.GRPCPort)
	if err := grpcServer.Serve(lis); err != nil {
		log.Error("Failed to serve").Err(err).Send()
		os.Exit(1)
	}
}
