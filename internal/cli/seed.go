package cli

import (
	"context"
	"io"
	"time"

	"github.com/aretw0/switchboard/internal/travel"
)

// Seed resets the travel database at path to the demo data set.
func Seed(ctx context.Context, path string, now time.Time, w io.Writer) error {
	db, err := travel.Open(ctx, path)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := travel.Seed(ctx, db, now); err != nil {
		return err
	}
	printSystemMessage(w, "Seeded %s for passenger %s.", path, travel.DemoPassenger)
	return nil
}
