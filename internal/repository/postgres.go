package repository

import (
	"database/sql"

	"github.com/rs/zerolog"
)

// PostgresRepository is the shared base for SQL-backed repositories.
type PostgresRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewPostgresRepository(db *sql.DB, logger zerolog.Logger) *PostgresRepository {
	return &PostgresRepository{
		db:     db,
		logger: logger,
	}
}

func (r *PostgresRepository) Close() error {
	return r.db.Close()
}
