package ledger

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Store is the gorm-backed append-only ledger.
type Store struct {
	db *gorm.DB
}

// New wraps an open gorm connection (with postgres.Open + TranslateError so
// ErrDuplicatedKey surfaces portably) as a ledger Store.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// AppendResult reports whether row was the winner of a race on
// idempotency_key, and returns the row actually committed (the caller's own
// row on a win, or the prior winner's row on a loss).
type AppendResult struct {
	Row   Row
	Raced bool
}

// Append writes row. Per the design notes, the unique constraint on
// idempotency_key is the single source of truth for deduplication: this
// never pre-checks with a read. It attempts the insert directly; on a
// unique-key collision it re-reads and returns the row that won the race,
// exactly as the spec's idempotency invariant requires (first committed
// response is canonical, all losers return it).
func (s *Store) Append(row Row) (AppendResult, error) {
	err := s.db.Create(&row).Error
	if err == nil {
		return AppendResult{Row: row}, nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) && row.IdempotencyKey != "" {
		var winner Row
		if readErr := s.db.First(&winner, "idempotency_key = ?", row.IdempotencyKey).Error; readErr != nil {
			return AppendResult{}, fmt.Errorf("ledger: read race winner: %w", readErr)
		}
		return AppendResult{Row: winner, Raced: true}, nil
	}
	return AppendResult{}, fmt.Errorf("ledger: append row: %w", err)
}

// Lookup returns the cached row for idemKey, if one exists.
func (s *Store) Lookup(idemKey string) (Row, bool, error) {
	var row Row
	err := s.db.First(&row, "idempotency_key = ?", idemKey).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Row{}, false, nil
	}
	if err != nil {
		return Row{}, false, fmt.Errorf("ledger: lookup idempotency key: %w", err)
	}
	return row, true, nil
}

// ReadRange returns ledger rows with id in [fromID, toID] ascending,
// capped at limit (no cap when limit <= 0). Used by the replay tool; the
// Anchor Worker pages with ReadFrom.
func (s *Store) ReadRange(fromID, toID int64, limit int) ([]Row, error) {
	var rows []Row
	q := s.db.Where("id >= ? AND id <= ?", fromID, toID).Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("ledger: read range: %w", err)
	}
	return rows, nil
}

// ReadFrom returns up to limit ledger rows with id >= fromID ascending —
// the Anchor Worker's per-cycle page.
func (s *Store) ReadFrom(fromID int64, limit int) ([]Row, error) {
	var rows []Row
	if err := s.db.Where("id >= ?", fromID).Order("id ASC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("ledger: read from: %w", err)
	}
	return rows, nil
}

// MaxID returns the highest ledger row id, or 0 if the ledger is empty.
func (s *Store) MaxID() (int64, error) {
	var row Row
	err := s.db.Order("id DESC").First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("ledger: max id: %w", err)
	}
	return row.ID, nil
}

// AppendAnchor inserts an immutable anchor row.
func (s *Store) AppendAnchor(row AnchorRow) error {
	if err := s.db.Create(&row).Error; err != nil {
		return fmt.Errorf("ledger: append anchor: %w", err)
	}
	return nil
}

// MaxAnchoredID returns the highest to_id covered by any anchor, or 0 if no
// anchors exist yet.
func (s *Store) MaxAnchoredID() (int64, error) {
	var row AnchorRow
	err := s.db.Order("to_id DESC").First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("ledger: max anchored id: %w", err)
	}
	return row.ToID, nil
}

// Anchors returns every anchor row in from_id order, for coverage checks
// and the replay/verification tooling.
func (s *Store) Anchors() ([]AnchorRow, error) {
	var rows []AnchorRow
	if err := s.db.Order("from_id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("ledger: list anchors: %w", err)
	}
	return rows, nil
}
