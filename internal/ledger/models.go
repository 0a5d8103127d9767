// Package ledger implements the append-only decision log: Row persistence
// with idempotency-key deduplication, the anchor table the Anchor Worker
// writes to, and the forward iterator the Anchor Worker reads from.
package ledger

import (
	"time"

	"gorm.io/gorm"
)

// Row is one immutable decision record. Rows are never mutated after
// insert; ID is assigned monotonically by the database in commit order.
type Row struct {
	ID             int64  `gorm:"primaryKey;autoIncrement"`
	TsInserted     time.Time
	ProofID        string `gorm:"size:64;index"`
	KernelID       string `gorm:"size:64"`
	ParamHash      string `gorm:"size:64"`
	Kid            string `gorm:"size:64"`
	Bundle         string `gorm:"type:text"`
	CertificateJWS string `gorm:"type:text"`
	IdempotencyKey string `gorm:"size:128;uniqueIndex"`
	Response       string `gorm:"type:text"`
}

// AnchorRow is a signed record of a Merkle root over a contiguous,
// non-overlapping range of ledger rows. Immutable once written.
type AnchorRow struct {
	ID                int64 `gorm:"primaryKey;autoIncrement"`
	FromID            int64 `gorm:"index"`
	ToID              int64 `gorm:"index"`
	MerkleRoot        string `gorm:"size:64"`
	AttestorSignature string `gorm:"type:text"`
	AttestorKid       string `gorm:"size:64"`
	CreatedAt         time.Time
}

// AutoMigrate runs the ledger's schema migrations.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&Row{}, &AnchorRow{})
}
