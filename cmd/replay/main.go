// Command replay re-evaluates historical ledger rows under a parameter
// snapshot and reports any decision drift. The snapshot is either a TOML
// fixture or, without one, the Parameter Store's built-in defaults
// (amount_max 1000, allowlist US/CA/GB/DE); the live Parameter Store is not
// queried, so admin mutations made since startup are not reflected. It never
// mutates the ledger.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/BurntSushi/toml"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"decisioncore/internal/config"
	"decisioncore/internal/kernel"
	"decisioncore/internal/ledger"
)

// paramsFixture lets an operator replay against a pinned parameter set
// instead of the built-in default parameters.
type paramsFixture struct {
	AmountMax float64  `toml:"amount_max"`
	Allowlist []string `toml:"allowlist"`
}

func main() {
	fixturePath := flag.String("params", "", "optional TOML file with amount_max/allowlist to replay against")
	flag.Parse()

	if err := run(*fixturePath); err != nil {
		log.Fatalf("replay: %v", err)
	}
}

func run(fixturePath string) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	snapshot, err := loadSnapshot(fixturePath)
	if err != nil {
		return fmt.Errorf("load params: %w", err)
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{TranslateError: true})
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	ledgerStore := ledger.New(db)

	maxID, err := ledgerStore.MaxID()
	if err != nil {
		return fmt.Errorf("read max id: %w", err)
	}

	rows, err := ledgerStore.ReadRange(1, maxID, 0)
	if err != nil {
		return fmt.Errorf("read ledger rows: %w", err)
	}

	var drift int
	for _, row := range rows {
		var bundle struct {
			Decision string `json:"decision"`
			Inputs   struct {
				Amount  float64 `json:"amount"`
				Country string  `json:"country"`
				Recent  int     `json:"recent"`
				Ts      string  `json:"ts"`
			} `json:"inputs"`
		}
		if err := json.Unmarshal([]byte(row.Bundle), &bundle); err != nil {
			fmt.Printf("[SKIP] id=%d unreadable bundle: %v\n", row.ID, err)
			continue
		}

		ts, err := parseTimestamp(bundle.Inputs.Ts)
		if err != nil {
			fmt.Printf("[SKIP] id=%d unreadable timestamp: %v\n", row.ID, err)
			continue
		}

		replayed := kernel.Decide(kernel.Inputs{
			Amount:  bundle.Inputs.Amount,
			Country: bundle.Inputs.Country,
			Ts:      ts,
			Recent:  bundle.Inputs.Recent,
		}, snapshot)

		if string(replayed.Decision) != bundle.Decision {
			drift++
			fmt.Printf("[DRIFT] id=%d recorded=%s now=%s proof_id=%s\n", row.ID, bundle.Decision, replayed.Decision, row.ProofID)
		}
	}

	fmt.Printf("Checked %d decisions, drift=%d\n", len(rows), drift)
	return nil
}

func loadSnapshot(fixturePath string) (kernel.Snapshot, error) {
	if fixturePath == "" {
		allowlist := map[string]bool{"US": true, "CA": true, "GB": true, "DE": true}
		return kernel.Snapshot{AmountMax: 1000, Allowlist: allowlist}, nil
	}
	var fixture paramsFixture
	if _, err := toml.DecodeFile(fixturePath, &fixture); err != nil {
		return kernel.Snapshot{}, err
	}
	allowlist := make(map[string]bool, len(fixture.Allowlist))
	for _, country := range fixture.Allowlist {
		allowlist[country] = true
	}
	return kernel.Snapshot{AmountMax: fixture.AmountMax, Allowlist: allowlist}, nil
}

func parseTimestamp(raw string) (time.Time, error) {
	return time.Parse(time.RFC3339, raw)
}
