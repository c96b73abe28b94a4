package database

import (
	"errors"
	"fmt"
	"hash/fnv"
	"strings"

	"clinic-backend/internal/config"
	"clinic-backend/internal/logger"
	"clinic-backend/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DB holds the database connection.
var DB *gorm.DB

// InitDB initializes the database connection.
func InitDB(cfg *config.Config) error {
	level := gormlogger.Warn
	if cfg.IsDev() {
		level = gormlogger.Info
	}

	var err error
	DB, err = gorm.Open(postgres.Open(cfg.PostgresURI), &gorm.Config{
		Logger: gormlogger.Default.LogMode(level),
	})
	if err != nil {
		return fmt.Errorf("open postgres: %w", err)
	}
	logger.Log.Info("Connected to PostgreSQL")
	return nil
}

// Close releases the underlying connection pool.
func Close() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Tables lists every model owned by the application, in migration order.
var Tables = []interface{}{
	&models.Doctor{},
	&models.Patient{},
	&models.Receptionist{},
	&models.LabTechnician{},
	&models.PendingDoctor{},
	&models.PendingPatient{},
	&models.PendingReceptionist{},
	&models.PendingLabTechnician{},
	&models.Appointment{},
	&models.LabTest{},
	&models.Prescription{},
	&models.Report{},
	&models.UserVisit{},
}

// AccountTables are the verified account tables, PendingTables the
// registrations awaiting verification. A username is unique across all of them.
var (
	AccountTables = []interface{}{
		&models.Doctor{}, &models.Patient{}, &models.Receptionist{}, &models.LabTechnician{},
	}
	PendingTables = []interface{}{
		&models.PendingDoctor{}, &models.PendingPatient{}, &models.PendingReceptionist{}, &models.PendingLabTechnician{},
	}
)

// UsernameTaken looks through every verified and pending account table.
// exceptID skips the verified account being edited.
func UsernameTaken(tx *gorm.DB, username, exceptID string) (bool, error) {
	for _, m := range AccountTables {
		var n int64
		q := tx.Model(m).Where("username = ? AND is_deleted = ?", username, false)
		if exceptID != "" {
			q = q.Where("id <> ?", exceptID)
		}
		if err := q.Count(&n).Error; err != nil {
			return false, err
		}
		if n > 0 {
			return true, nil
		}
	}
	for _, m := range PendingTables {
		var n int64
		if err := tx.Model(m).Where("username = ?", username).Count(&n).Error; err != nil {
			return false, err
		}
		if n > 0 {
			return true, nil
		}
	}
	return false, nil
}

// Partial unique indexes backing the one-appointment-per-slot rule.
// Cancelled and deleted rows do not hold a slot.
var slotIndexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_appointments_doctor_slot
		ON appointments (doctor_id, date, time)
		WHERE status <> 'cancelled' AND is_deleted = false`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_appointments_patient_slot
		ON appointments (patient_id, date, time)
		WHERE status <> 'cancelled' AND is_deleted = false`,
}

// Migrate creates or updates the schema on db.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Tables...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	for _, stmt := range slotIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create slot index: %w", err)
		}
	}
	return nil
}

// LockKey serializes transactions that share key. It takes a
// transaction-scoped advisory lock on PostgreSQL and is a no-op elsewhere.
// tx must be inside a transaction.
func LockKey(tx *gorm.DB, key string) error {
	if tx.Dialector.Name() != "postgres" {
		return nil
	}
	h := fnv.New64a()
	h.Write([]byte(key))
	return tx.Exec("SELECT pg_advisory_xact_lock(?)", int64(h.Sum64())).Error
}

// IsUniqueViolation reports whether err came from a unique constraint.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}
