// Command relaynode runs a single relay node: the gRPC RelayService,
// the HTTP health/stats/metrics surface, the retention sweep, and the
// streaming pub/sub loop.
package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	relayv1 "github.com/relaynote/relaynode/gen/go/relay/v1"
	"github.com/relaynote/relaynode/internal/httpapi"
	"github.com/relaynote/relaynode/internal/maintenance"
	"github.com/relaynote/relaynode/internal/metrics"
	"github.com/relaynote/relaynode/internal/relay"
	"github.com/relaynote/relaynode/internal/relayconfig"
	"github.com/relaynote/relaynode/internal/store"
	"github.com/relaynote/relaynode/internal/streamer"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.NewConsoleWriter())

	cfg := relayconfig.LoadServer()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("relaynode exited with error")
	}
}

func run(ctx context.Context, cfg relayconfig.Server) error {
	m := metrics.NewDefault()

	s, err := store.Open(ctx, cfg.DatabaseURL, cfg.MaxNoteSize, m, log.Logger)
	if err != nil {
		return err
	}
	defer s.Close()

	str := streamer.New(s, m, log.Logger, 0)
	maint := maintenance.New(s, cfg.RetentionDays, 0, m, log.Logger)

	go str.Run(ctx)
	go maint.Run(ctx)

	svc := relay.New(s, str, m, relay.Config{
		MaxNoteSize:    cfg.MaxNoteSize,
		MaxConnections: cfg.MaxConnections,
		RequestTimeout: cfg.RequestTimeout,
	}, log.Logger)

	grpcServer := grpc.NewServer()
	relayv1.RegisterRelayServiceServer(grpcServer, relay.NewGRPCServer(svc))
	healthpb.RegisterHealthServer(grpcServer, relay.NewHealthServer())

	lis, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    httpAddr(cfg),
		Handler: (&httpapi.Server{Store: s, Gatherer: prometheus.DefaultGatherer}).Routes(),
	}

	errCh := make(chan error, 2)
	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("gRPC server listening")
		errCh <- grpcServer.Serve(lis)
	}()
	go func() {
		log.Info().Str("addr", httpServer.Addr).Msg("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		grpcServer.GracefulStop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// httpAddr shares the configured host with the gRPC listener but binds
// the next port up, so a single RELAY_PORT setting still yields two
// distinct, predictable listeners.
func httpAddr(cfg relayconfig.Server) string {
	return net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port+1))
}
