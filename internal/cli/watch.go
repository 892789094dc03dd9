package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/switchboard/pkg/adapters/loam"
)

// WatchControllers revalidates the descriptor directory on every change and
// reports the result, until ctx is cancelled. Running engines are not reloaded.
func WatchControllers(ctx context.Context, dir string, w io.Writer, logger *slog.Logger) error {
	src, err := loam.Open(dir)
	if err != nil {
		return err
	}

	check := func() {
		descs, err := src.Descriptors(ctx)
		if err != nil {
			printSystemMessage(w, "Invalid controllers: %v", err)
			return
		}
		printSystemMessage(w, "%d controllers OK.", len(descs))
	}
	check()

	events, err := src.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	printSystemMessage(w, "Watching %s (Ctrl+C to stop).", dir)
	for {
		select {
		case <-ctx.Done():
			return nil
		case id, ok := <-events:
			if !ok {
				return nil
			}
			logger.Debug("controller changed", "id", id)
			printSystemMessage(w, "Changed: %s", id)
			check()
		}
	}
}
