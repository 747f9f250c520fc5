// Command demo walks through the core streaming pipeline without a
// server: it seeds an in-memory store, builds a guard, session, and
// dispatch, and streams the record envelope to stdout.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/strom-dev/strom/pkg/seed"
	"github.com/strom-dev/strom/pkg/storage"
	"github.com/strom-dev/strom/pkg/storage/memory"
	"github.com/strom-dev/strom/pkg/stream"
)

func main() {
	fmt.Println("=== strom streaming pipeline demo ===")
	fmt.Println()

	ctx := context.Background()

	// 1. Seed an in-memory store with generated records.
	store := memory.New()
	seeder := seed.New(store, seed.WithSeed(7))
	n, err := seeder.Seed(ctx, 5)
	if err != nil {
		fmt.Printf("seeding FAILED: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("[1] Seeded %d records\n", n)

	// 2. Build the pipeline. Nothing touches the store yet: the guard
	// is unacquired and the dispatch is pending.
	guard := stream.NewGuard(store, storage.RecordsOptions{})
	session := stream.NewSession(guard, stream.SessionConfig{
		MaxDuration: 10 * time.Second,
	})
	d := stream.NewDispatch(session.Run, nil)
	fmt.Printf("[2] Dispatch planned, state: %s\n", d.State())

	// 3. Run it. The producing call acquires the cursor, streams the
	// array element by element, and releases the cursor on exit.
	fmt.Println("[3] Streaming envelope:")
	d.Run(ctx, os.Stdout)
	fmt.Println()

	// 4. Inspect the outcome.
	fmt.Printf("[4] Dispatch finished, state: %s\n", d.State())
	if err := d.Err(); err != nil {
		fmt.Printf("    error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("    guard released: %v\n", guard.Released())
}
