package database

import (
	"database/sql"
)

type PgFlatFinderRepository struct {
	conn *sql.DB
}

func NewPgFlatFinderRepository(dsn string) (*PgFlatFinderRepository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return &PgFlatFinderRepository{conn: db}, nil
}

func (db *PgFlatFinderRepository) Ping() error {
	return db.conn.Ping()
}

func (db *PgFlatFinderRepository) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}
