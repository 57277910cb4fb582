package repo

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sander-remitly/knapsnack/internal/logger"
	"github.com/sander-remitly/knapsnack/internal/models"
	"go.uber.org/zap"
)

// Repository persists the bottle inventory
type Repository struct {
	db *sql.DB
}

// New creates a new repository instance
func New(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	repo := &Repository{db: db}
	if err := repo.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return repo, nil
}

// initialize creates the database schema
func (r *Repository) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS bottles (
		weight INTEGER PRIMARY KEY CHECK (weight > 0),
		count INTEGER NOT NULL CHECK (count >= 0),
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err := r.db.Exec(schema)
	return err
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}

// IsEmpty reports whether no inventory has been stored yet
func (r *Repository) IsEmpty() (bool, error) {
	var n int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM bottles").Scan(&n); err != nil {
		return false, err
	}
	return n == 0, nil
}

// GetBottles retrieves the stored inventory, falling back to the defaults when none is stored
func (r *Repository) GetBottles() (map[int]int, error) {
	rows, err := r.db.Query("SELECT weight, count FROM bottles ORDER BY weight")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bottles := make(map[int]int)
	for rows.Next() {
		var weight, count int
		if err := rows.Scan(&weight, &count); err != nil {
			return nil, err
		}
		bottles[weight] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(bottles) == 0 {
		return models.GetDefaultBottles(), nil
	}

	return bottles, nil
}

// SetBottles replaces the stored inventory
func (r *Repository) SetBottles(bottles map[int]int) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM bottles"); err != nil {
		return err
	}

	stmt, err := tx.Prepare("INSERT INTO bottles (weight, count) VALUES (?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for weight, count := range bottles {
		if _, err := stmt.Exec(weight, count); err != nil {
			return fmt.Errorf("insert %d g: %w", weight, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	logger.Log.Debug("Bottle inventory replaced", zap.Int("classes", len(bottles)))
	return nil
}

// LastUpdated returns when the inventory was last written, or the zero time if never
func (r *Repository) LastUpdated() (time.Time, error) {
	var latest sql.NullString
	if err := r.db.QueryRow("SELECT MAX(updated_at) FROM bottles").Scan(&latest); err != nil {
		return time.Time{}, err
	}
	if !latest.Valid {
		return time.Time{}, nil
	}

	t, err := time.Parse(time.DateTime, latest.String)
	if err != nil {
		logger.Log.Warn("Error parsing inventory timestamp", zap.String("value", latest.String), zap.Error(err))
		return time.Time{}, nil
	}
	return t.UTC(), nil
}

// Ping checks if the database connection is alive
func (r *Repository) Ping() error {
	return r.db.Ping()
}
