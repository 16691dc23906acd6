// Package main - simulate
// Headless fast-forward runner. Drives a session for N ticks without a
// clock or network layer, checks the core invariants after every tick, and
// prints a run summary. Exits non-zero when an invariant breaks.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/BizSimLabs/SalonTycoon/server/internal/config"
	"github.com/BizSimLabs/SalonTycoon/server/internal/domain/customer"
	"github.com/BizSimLabs/SalonTycoon/server/internal/events"
	"github.com/BizSimLabs/SalonTycoon/server/internal/game"
	"github.com/BizSimLabs/SalonTycoon/server/internal/platform/logger"
)

// nopPersister discards events; the in-memory log still holds everything.
type nopPersister struct{}

func (nopPersister) Append(events.GameEvent) error { return nil }

func main() {
	configPath := flag.String("config", "", "Path to a YAML balance sheet (defaults to the built-in hair salon)")
	ticks := flag.Int("ticks", 18000, "Number of ticks to simulate")
	monthEvery := flag.Int("month-every", 6000, "Close the month every N ticks (0 = never)")
	flag.Parse()

	var cfg *config.GameConfig
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("=========================================")
	fmt.Println("SALON SIMULATE - Headless Fast-Forward")
	fmt.Println("=========================================")
	fmt.Printf("Industry: %s\n", cfg.Industry.Name)
	fmt.Printf("Ticks:    %d\n", *ticks)
	fmt.Println("=========================================")

	appLogger := logger.NewLogger()
	session := game.NewSession(cfg, appLogger, nopPersister{})

	violations := 0
	for i := 0; i < *ticks; i++ {
		session.Tick()

		if msg := checkInvariants(session); msg != "" {
			fmt.Fprintf(os.Stderr, "INVARIANT VIOLATION at tick %d: %s\n", i+1, msg)
			violations++
			if violations > 10 {
				fmt.Fprintln(os.Stderr, "Too many violations, aborting run.")
				break
			}
		}

		if *monthEvery > 0 && (i+1)%*monthEvery == 0 {
			summary := session.AdvanceMonth()
			fmt.Printf("Month %d closed: revenue=%.2f expenses=%.2f served=%d lost=%d\n",
				summary.Month, summary.Revenue, summary.Expenses, summary.Served, summary.Lost)
		}
	}

	snap := session.Snapshot()
	fmt.Println("\n=========================================")
	fmt.Println("RUN SUMMARY")
	fmt.Println("=========================================")
	fmt.Printf("Final cash:      %.2f\n", snap.Cash)
	fmt.Printf("Level:           %d\n", snap.Level)
	fmt.Printf("Months closed:   %d\n", snap.Month)
	fmt.Printf("Capacity:        %d\n", snap.Capacity)
	fmt.Printf("Floor customers: %d\n", len(snap.Customers))
	fmt.Printf("Events logged:   %d\n", len(session.EventLog().Replay()))

	if violations > 0 {
		fmt.Printf("\nFAILED: %d invariant violations\n", violations)
		os.Exit(1)
	}
	fmt.Println("\nPASSED: all invariants held")
}

// checkInvariants inspects the floor after a tick. Returns an empty string
// when everything holds.
func checkInvariants(session *game.Session) string {
	snap := session.Snapshot()

	inService := 0
	for _, c := range snap.Customers {
		if c.PatienceLeft < 0 || c.PatienceLeft > c.MaxPatience {
			return fmt.Sprintf("customer %s patience out of bounds: %.2f/%.2f", c.ID, c.PatienceLeft, c.MaxPatience)
		}
		if c.ServiceTimeLeft < 0 {
			return fmt.Sprintf("customer %s negative service time: %.2f", c.ID, c.ServiceTimeLeft)
		}
		hasRoomStatus := c.Status == customer.StatusWalkingToRoom || c.Status == customer.StatusInService
		if c.HasRoom() != hasRoomStatus {
			return fmt.Sprintf("customer %s room/status mismatch: room=%d status=%s", c.ID, c.RoomID, c.Status)
		}
		if c.Status == customer.StatusInService {
			inService++
		}
	}
	if inService > snap.Capacity {
		return fmt.Sprintf("%d customers in service but capacity is %d", inService, snap.Capacity)
	}
	return ""
}
