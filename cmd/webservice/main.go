package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/ohowland/lvnet/internal/pkg/config"
	"github.com/ohowland/lvnet/internal/pkg/datastreams/mongodb"
	"github.com/ohowland/lvnet/internal/pkg/datastreams/natshandler"
	"github.com/ohowland/lvnet/internal/pkg/datastreams/sqldb"
	"github.com/ohowland/lvnet/internal/pkg/engine"
	"github.com/ohowland/lvnet/internal/pkg/logging"
	"github.com/ohowland/lvnet/internal/pkg/metrics"
	"github.com/ohowland/lvnet/internal/pkg/msg"
	"github.com/ohowland/lvnet/internal/pkg/webservice"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// stream is a result sink running in its own goroutine.
type stream interface {
	Process() error
	Stop()
}

func main() {
	var configPath string
	cmd := &cobra.Command{
		Use:          "webservice",
		Short:        "Serve voltage drop calculations over HTTP",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(configPath)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "service configuration file")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serve(configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync()
	logger = logger.Named("main")

	logger.Info("starting lvnet webservice")
	pub := msg.NewPublisher(uuid.New())
	reg := metrics.NewRegistry()
	e, err := engine.New(cfg.Engine,
		engine.WithLogger(logger),
		engine.WithMetrics(reg),
		engine.WithPublisher(pub))
	if err != nil {
		return fmt.Errorf("building engine: %w", err)
	}

	streams, err := buildStreams(cfg.Streams, pub, logger)
	if err != nil {
		return fmt.Errorf("building streams: %w", err)
	}
	for _, s := range streams {
		go func(s stream) {
			if err := s.Process(); err != nil {
				logger.Error("stream stopped", zap.Error(err))
			}
		}(s)
	}

	app := &webservice.App{Engine: e, Publisher: pub, Metrics: reg, Logger: logger.Named("webservice")}
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           app.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
	for _, s := range streams {
		s.Stop()
	}
	pub.Close()
	return nil
}

func buildStreams(cfg config.StreamsConfig, pub *msg.PubSub, logger *zap.Logger) ([]stream, error) {
	var streams []stream
	if cfg.MongoDB != "" {
		h, err := mongodb.New(cfg.MongoDB, pub, logger)
		if err != nil {
			return nil, err
		}
		streams = append(streams, h)
	}
	if cfg.NATS != "" {
		h, err := natshandler.New(cfg.NATS, pub, logger)
		if err != nil {
			return nil, err
		}
		streams = append(streams, h)
	}
	if cfg.SQL != "" {
		h, err := sqldb.New(cfg.SQL, pub, logger)
		if err != nil {
			return nil, err
		}
		streams = append(streams, h)
	}
	return streams, nil
}
