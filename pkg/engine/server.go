package engine

import (
	"context"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/flare-foundation/go-flare-common/pkg/logger"
	"github.com/pkg/errors"
)

const rpcNamespace = "ledger"

// ServeRPC exposes the submission and query APIs over HTTP JSON-RPC until
// the context is cancelled.
func (e *Engine) ServeRPC(ctx context.Context, addr string) error {
	srv := rpc.NewServer()
	defer srv.Stop()

	if err := srv.RegisterName(rpcNamespace, NewAPI(e)); err != nil {
		return errors.Wrap(err, "registering RPC API")
	}

	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpSrv.ListenAndServe()
	}()

	logger.Infof("JSON-RPC server listening on %s", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logger.Errorf("RPC server shutdown error: %v", err)
		}

		return ctx.Err()
	case err := <-errCh:
		return errors.Wrap(err, "RPC server failed")
	}
}
