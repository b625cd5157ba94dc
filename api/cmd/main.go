// Command api serves the TasteRail account API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/VaibhavAI05/TasteRail/internal/bootstrap"
	"github.com/VaibhavAI05/TasteRail/internal/config"
	"github.com/VaibhavAI05/TasteRail/internal/logger"
)

// httpServer is the part of *http.Server that Run drives.
type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
	Close() error
	Addr() string
}

type realServer struct{ *http.Server }

func (r realServer) Addr() string { return r.Server.Addr }

// serverBuilder returns the server and a cleanup for its dependencies.
type serverBuilder func() (httpServer, func(), error)

// Run serves until the first signal, then drains in-flight requests for at
// most drain. A second signal or an expired drain closes every connection
// and Run returns 1.
func Run(build serverBuilder, sigCh <-chan os.Signal, lg zerolog.Logger, drain time.Duration) int {
	if drain <= 0 {
		drain = config.DefaultShutdownTimeout
	}

	srv, cleanup, err := build()
	if err != nil {
		lg.Error().Err(err).Msg("account service bootstrap failed")
		return 1
	}
	defer cleanup()

	errCh := make(chan error, 1)
	go func() {
		lg.Info().Str("addr", srv.Addr()).Msg("account service listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case sig := <-sigCh:
		lg.Info().Str("signal", sig.String()).Dur("drain", drain).Msg("draining account service")
	case err := <-errCh:
		lg.Error().Err(err).Msg("account service listener failed")
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), drain)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- srv.Shutdown(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			lg.Error().Err(err).Msg("drain incomplete, closing connections")
			_ = srv.Close()
			return 1
		}
	case sig := <-sigCh:
		lg.Warn().Str("signal", sig.String()).Msg("second signal, closing connections")
		_ = srv.Close()
		<-done
		return 1
	}

	lg.Info().Msg("account service stopped")
	return 0
}

func buildFromBootstrap() (httpServer, func(), error) {
	srv, cleanup, err := bootstrap.NewServer()
	if err != nil {
		return nil, nil, err
	}
	return realServer{srv}, cleanup, nil
}

func main() {
	logger.Init()

	drain, err := config.ShutdownTimeout()
	if err != nil {
		zlog.Warn().Err(err).Dur("drain", drain).Msg("using default shutdown timeout")
	}

	// room for the second, forcing signal
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	os.Exit(Run(buildFromBootstrap, sigCh, zlog.Logger, drain))
}
