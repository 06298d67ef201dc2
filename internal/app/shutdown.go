package app

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Shutdown gracefully shuts down the application. The stream closes
// first so no new records arrive, then in-flight records drain, then
// storage and the HTTP surface come down.
func (a *App) Shutdown() error {
	a.logger.Info("monitor-shutting-down")

	a.healthChecker.SetReady(false)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// Close the log stream; the record channel closes with it and the
	// pipeline drains what remains.
	err := a.wsManager.Close()
	if err != nil {
		a.logger.Error("log-stream-close-error", zap.Error(err))
	}

	// Cancel context to signal remaining components
	a.cancel()

	// Stop price polling
	a.priceTracker.Close()

	// Shutdown HTTP server
	err = a.httpServer.Shutdown(shutdownCtx)
	if err != nil {
		a.logger.Error("http-server-shutdown-error", zap.Error(err))
	}

	// Wait for all goroutines
	a.wg.Wait()

	// Close storage after the last record has been stored
	err = a.storage.Close()
	if err != nil {
		a.logger.Error("storage-close-error", zap.Error(err))
	}

	a.appCache.Close()

	a.logger.Info("monitor-shutdown-complete")

	return nil
}
