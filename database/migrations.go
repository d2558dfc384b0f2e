package database

import (
	"log"
	"strings"

	"gorm.io/gorm"

	"taskmarket/models"
)

// Migrate runs AutoMigrate for every core table. Only invoked in development;
// production schema changes go through reviewed SQL.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.TaskCategory{},
		&models.Task{},
		&models.Submission{},
		&models.Payment{},
		&models.Review{},
		&models.Dispute{},
		&models.RefreshToken{},
	)
}

// EnsureProductionSchema applies the additive schema guards we rely on even
// when AutoMigrate is skipped: the sybil uniqueness on submissions and the
// idempotency uniqueness on payments must exist before the API serves
// traffic, because the transactional core treats a duplicate-key error as a
// business rejection rather than a bug.
func EnsureProductionSchema(db *gorm.DB) {
	stmts := []string{
		"CREATE UNIQUE INDEX idx_task_user ON submissions (task_id, user_id)",
		"CREATE UNIQUE INDEX idx_task_nullifier ON submissions (task_id, submitter_nullifier)",
		"CREATE UNIQUE INDEX idx_external_payment_id ON payments (external_payment_id)",
		"CREATE UNIQUE INDEX idx_transaction_hash ON payments (transaction_hash)",
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			if !strings.Contains(err.Error(), "Duplicate key name") {
				log.Printf("[warn] schema guard: %v", err)
			}
		}
	}
}
