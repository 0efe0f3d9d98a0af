package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS images (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	owner_id    TEXT    NOT NULL,
	raffle_id   INTEGER,
	blob_key    TEXT    NOT NULL UNIQUE,
	url         TEXT    NOT NULL,
	file_name   TEXT    NOT NULL DEFAULT '',
	mime_type   TEXT    NOT NULL DEFAULT '',
	size        INTEGER NOT NULL DEFAULT 0,
	image_order INTEGER,
	created_at  TEXT    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_images_owner ON images(owner_id, raffle_id);
CREATE INDEX IF NOT EXISTS idx_images_raffle ON images(raffle_id, image_order);
`

const imageColumns = `id, owner_id, raffle_id, blob_key, url, file_name, mime_type, size, image_order, created_at`

// SQLiteImageRepository implements ImageRepository on SQLite
type SQLiteImageRepository struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path; ":memory:" gives a private in-memory database
func OpenSQLite(ctx context.Context, path string) (*SQLiteImageRepository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// one connection: SQLite serialises writers and ":memory:" is per connection
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", ErrRepositoryUnavailable, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteImageRepository{db: db}, nil
}

func (r *SQLiteImageRepository) Create(ctx context.Context, img *Image) error {
	if img.CreatedAt.IsZero() {
		img.CreatedAt = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO images (owner_id, raffle_id, blob_key, url, file_name, mime_type, size, image_order, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		img.OwnerID, nullInt64(img.RaffleID), img.BlobKey, img.URL, img.FileName, img.MimeType, img.Size,
		nullInt(img.ImageOrder), img.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert image: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert image: %w", err)
	}
	img.ID = id
	return nil
}

func (r *SQLiteImageRepository) Get(ctx context.Context, id int64) (*Image, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+imageColumns+` FROM images WHERE id = ?`, id)
	img, err := scanImage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrImageNotFound
	}
	return img, err
}

func (r *SQLiteImageRepository) ListUnattached(ctx context.Context, ownerID string) ([]*Image, error) {
	return r.query(ctx, `SELECT `+imageColumns+` FROM images WHERE owner_id = ? AND raffle_id IS NULL ORDER BY id`, ownerID)
}

func (r *SQLiteImageRepository) ListByRaffle(ctx context.Context, raffleID int64) ([]*Image, error) {
	return r.query(ctx, `SELECT `+imageColumns+` FROM images WHERE raffle_id = ? ORDER BY image_order, id`, raffleID)
}

func (r *SQLiteImageRepository) CountForOwner(ctx context.Context, ownerID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM images WHERE owner_id = ? AND raffle_id IS NULL`, ownerID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count images: %w", err)
	}
	return n, nil
}

func (r *SQLiteImageRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM images WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete image: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrImageNotFound
	}
	return nil
}

func (r *SQLiteImageRepository) AttachOrdered(ctx context.Context, raffleID int64, orders []ImageOrder) error {
	seen := make(map[int64]struct{}, len(orders))
	for _, o := range orders {
		if _, dup := seen[o.ID]; dup {
			return fmt.Errorf("%w: id %d", ErrDuplicateImage, o.ID)
		}
		seen[o.ID] = struct{}{}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin attach: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE images SET raffle_id = NULL, image_order = NULL WHERE raffle_id = ?`, raffleID); err != nil {
		return fmt.Errorf("detach images: %w", err)
	}
	for _, o := range orders {
		res, err := tx.ExecContext(ctx, `UPDATE images SET raffle_id = ?, image_order = ? WHERE id = ?`, raffleID, o.Order, o.ID)
		if err != nil {
			return fmt.Errorf("attach image %d: %w", o.ID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: id %d", ErrImageNotFound, o.ID)
		}
	}
	return tx.Commit()
}

func (r *SQLiteImageRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteImageRepository) query(ctx context.Context, query string, args ...any) ([]*Image, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query images: %w", err)
	}
	defer rows.Close()

	var out []*Image
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query images: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanImage(s scanner) (*Image, error) {
	var (
		img       Image
		raffleID  sql.NullInt64
		order     sql.NullInt64
		createdAt string
	)
	if err := s.Scan(&img.ID, &img.OwnerID, &raffleID, &img.BlobKey, &img.URL, &img.FileName,
		&img.MimeType, &img.Size, &order, &createdAt); err != nil {
		return nil, err
	}
	if raffleID.Valid {
		id := raffleID.Int64
		img.RaffleID = &id
	}
	if order.Valid {
		o := int(order.Int64)
		img.ImageOrder = &o
	}
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		img.CreatedAt = t
	}
	return &img, nil
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
