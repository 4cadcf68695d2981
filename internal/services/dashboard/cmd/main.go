package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/LeonardoBeccarini/pm25_dashboard/internal/services/dashboard/app"
	"github.com/LeonardoBeccarini/pm25_dashboard/internal/services/export"
	"github.com/LeonardoBeccarini/pm25_dashboard/internal/services/snapshot"
	"github.com/LeonardoBeccarini/pm25_dashboard/pkg/rabbitmq"
)

func setupLogging(cfg Config) {
	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.LogFormat == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

func main() {
	cfg := loadConfig()
	setupLogging(cfg)

	loc, err := time.LoadLocation(cfg.TZ)
	if err != nil {
		log.Warn().Err(err).Str("tz", cfg.TZ).Msg("unknown time zone, using UTC")
		loc = time.UTC
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	timeout := time.Duration(cfg.TimeoutMs) * time.Millisecond

	// === InfluxDB (opzionale) ===
	var snaps app.SnapshotRecorder
	if cfg.InfluxURL != "" {
		rec, err := snapshot.NewRecorder(snapshot.InfluxConfig{
			InfluxURL:    cfg.InfluxURL,
			InfluxToken:  cfg.InfluxToken,
			InfluxOrg:    cfg.InfluxOrg,
			InfluxBucket: cfg.InfluxBucket,
			Timeout:      timeout,
		})
		if err != nil {
			log.Warn().Err(err).Msg("influx snapshots disabled")
		} else {
			defer rec.Close()
			snaps = rec
			log.Info().Str("url", cfg.InfluxURL).Str("bucket", cfg.InfluxBucket).Msg("influx snapshots enabled")
		}
	}

	// === MQTT (opzionale) ===
	var exps app.ExportNotifier
	if cfg.MQTTHost != "" {
		client, err := rabbitmq.NewRabbitMQConn(ctx, &rabbitmq.RabbitMQConfig{
			Host:     cfg.MQTTHost,
			Port:     cfg.MQTTPort,
			User:     cfg.MQTTUser,
			Password: cfg.MQTTPassword,
			ClientID: cfg.MQTTClientID,
		})
		if err != nil {
			// il broker non è necessario per servire la dashboard
			log.Warn().Err(err).Msg("export notifications disabled")
		} else {
			defer rabbitmq.CloseRabbitMQConn(client)
			factory := func(topic string) rabbitmq.IPublisher {
				return rabbitmq.NewPublisher(client, topic)
			}
			exps = export.NewMQTTNotifier(factory, cfg.TopicTemplate)
		}
	}

	dash := app.NewDashboard(app.Config{
		DataDir:         cfg.DataDir,
		PredictionFile:  cfg.PredictionFile,
		ComparisonFile:  cfg.ComparisonFile,
		Location:        loc,
		SinkTimeout:     timeout,
		BreakerFailures: cfg.CBFails,
		BreakerOpenFor:  time.Duration(cfg.CBOpenMs) * time.Millisecond,
		BreakerInterval: time.Duration(cfg.CBIntervalMs) * time.Millisecond,
		WarnDedupTTL:    cfg.WarnDedupTTL,
	}, snaps, exps)

	for _, s := range dash.Sources() {
		if !s.Present {
			log.Warn().Str("file", s.Path).Msg("source file not found at startup")
		}
	}

	// === gRPC health ===
	hs := health.NewServer()
	gs := grpc.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		log.Fatal().Err(err).Str("port", cfg.GRPCPort).Msg("grpc listen")
	}
	go func() {
		log.Info().Str("addr", lis.Addr().String()).Msg("grpc health listening")
		if err := gs.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			log.Error().Err(err).Msg("grpc server error")
		}
	}()
	go dash.WatchHealth(ctx, hs, cfg.HealthRefresh)

	// === HTTP ===
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           dash.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().Str("addr", srv.Addr).Str("data_dir", cfg.DataDir).Msg("dashboard listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("dashboard: shutting down...")

	shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shCtx)
	gs.GracefulStop()
}
