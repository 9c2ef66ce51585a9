package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"clubchain/config"
	"clubchain/core"
	"clubchain/gateway"
	"clubchain/native/attendance"
	"clubchain/observability/logging"
	"clubchain/observability/otel"
	"clubchain/rpc"
	"clubchain/storage"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	memFlag := flag.Bool("memdb", false, "DEV ONLY: keep ledger state in memory instead of the data directory")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("CLUB_ENV"))

	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}
	logger := logging.Setup("clubd", env, cfg.LogFile)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.OTLPEndpoint != "" {
		shutdown, err := otel.Init(ctx, otel.Config{
			ServiceName: "clubd",
			Environment: env,
			Endpoint:    cfg.OTLPEndpoint,
			Insecure:    cfg.OTLPInsecure,
		})
		if err != nil {
			logger.Error("Failed to initialise telemetry", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				logger.Warn("Telemetry shutdown failed", slog.Any("error", err))
			}
		}()
	}

	var db storage.Database
	if *memFlag {
		db = storage.NewMemDB()
	} else {
		leveldb, err := storage.NewLevelDB(cfg.DataDir)
		if err != nil {
			panic(fmt.Sprintf("Failed to open database: %v", err))
		}
		db = leveldb
	}
	defer db.Close()

	allowList, err := cfg.AdminIdentities()
	if err != nil {
		panic(fmt.Sprintf("Failed to parse admin allow list: %v", err))
	}

	node := core.NewNode(db,
		core.WithSchedule(attendance.Schedule{
			OnTimePoints: cfg.OnTimePoints,
			LatePoints:   cfg.LatePoints,
		}),
		core.WithAdminAllowList(allowList),
		core.WithPaymentAsset(cfg.PaymentToken),
	)
	defer node.Close()

	rpcServer := rpc.NewServer(node)
	rpcErr := make(chan error, 1)
	go func() {
		rpcErr <- rpcServer.Start(cfg.RPCAddress)
	}()

	gw := gateway.New(node, gateway.Config{RequestsPerSecond: 50, Burst: 100})
	gwServer := &http.Server{Addr: cfg.GatewayAddress, Handler: gw.Handler()}
	gwErr := make(chan error, 1)
	go func() {
		logger.Info("starting REST gateway", "addr", cfg.GatewayAddress)
		gwErr <- gwServer.ListenAndServe()
	}()

	logger.Info("node started",
		"network", cfg.NetworkName,
		"rpc", cfg.RPCAddress,
		"gateway", cfg.GatewayAddress,
	)

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-rpcErr:
		if err != nil {
			logger.Error("RPC server exited", slog.Any("error", err))
		}
	case err := <-gwErr:
		if err != nil && err != http.ErrServerClosed {
			logger.Error("Gateway exited", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := gwServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Gateway shutdown failed", slog.Any("error", err))
	}
}
