package item

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/itemvault/internal/infrastructure/database"
)

// SQLiteRepository implements Repository using the items table.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed item repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create inserts it.
func (r *SQLiteRepository) Create(ctx context.Context, it Item) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO items (id, name, description, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		it.ID, it.Name, it.Description, now, now,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrItemExists
		}
		return fmt.Errorf("inserting item %s: %w", it.ID, err)
	}
	return nil
}

// Get retrieves an item by ID.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (Item, error) {
	var it Item
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, description FROM items WHERE id = ?", id,
	).Scan(&it.ID, &it.Name, &it.Description)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Item{}, ErrItemNotFound
		}
		return Item{}, fmt.Errorf("getting item %s: %w", id, err)
	}
	return it, nil
}

// List returns every item ordered by name, then ID.
func (r *SQLiteRepository) List(ctx context.Context) ([]Item, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name, description FROM items ORDER BY name, id")
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.Name, &it.Description); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating items: %w", err)
	}
	return items, nil
}

// Update replaces name and description of the item with it.ID.
func (r *SQLiteRepository) Update(ctx context.Context, it Item) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE items SET name = ?, description = ?, updated_at = ? WHERE id = ?`,
		it.Name, it.Description, time.Now().UTC().Format(time.RFC3339), it.ID,
	)
	if err != nil {
		return fmt.Errorf("updating item %s: %w", it.ID, err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrItemNotFound
	}
	return nil
}

// Delete removes the item with id.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM items WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting item %s: %w", id, err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrItemNotFound
	}
	return nil
}

// Count returns the number of stored items.
func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM items").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting items: %w", err)
	}
	return n, nil
}
