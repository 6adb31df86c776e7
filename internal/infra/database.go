package infra

import (
	"github.com/AlexArancibia/AmbientalDashboard-sub001/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx.
// TranslateError is on so unique-constraint violations surface as
// gorm.ErrDuplicatedKey — the sequence-retry path depends on it.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	return db, nil
}

// RunMigrations creates or updates the schema. The composite unique index
// on (tipo, numero) comes from the model tags: it is the backstop that
// makes number assignment safe under concurrency.
func RunMigrations(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Cliente{},
		&model.Usuario{},
		&model.Documento{},
		&model.DocumentoItem{},
	)
}
