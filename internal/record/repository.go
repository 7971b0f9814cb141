package record

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const recordColumns = `id, recorded_at, water, food_amount, snack_partymix, snack_jogong, snack_churu, poop_count, urine_size, memo`

func (r *Repository) ListBetween(ctx context.Context, start, end time.Time) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+recordColumns+`
		FROM pet_records
		WHERE recorded_at >= $1 AND recorded_at <= $2
		ORDER BY recorded_at DESC
	`, start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}

	return records, nil
}

func (r *Repository) Get(ctx context.Context, id string) (Record, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+recordColumns+`
		FROM pet_records
		WHERE id = $1
	`, id)

	rec, err := scanRecord(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return Record{}, err
		}
		return Record{}, fmt.Errorf("query record: %w", err)
	}

	return rec, nil
}

func (r *Repository) Create(ctx context.Context, input Input) (Record, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return Record{}, fmt.Errorf("generate uuid v7: %w", err)
	}

	rec := Record{
		ID:            id.String(),
		RecordedAt:    time.Now().UTC(),
		Water:         input.Water,
		FoodAmount:    input.FoodAmount,
		SnackPartymix: input.SnackPartymix,
		SnackJogong:   input.SnackJogong,
		SnackChuru:    input.SnackChuru,
		PoopCount:     input.PoopCount,
		UrineSize:     input.UrineSize,
		Memo:          input.Memo,
	}

	var memoValue any
	if len(rec.Memo) > 0 {
		encoded, err := json.Marshal(rec.Memo)
		if err != nil {
			return Record{}, fmt.Errorf("encode memo: %w", err)
		}
		memoValue = string(encoded)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO pet_records (`+recordColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, rec.ID, rec.RecordedAt, rec.Water, rec.FoodAmount, rec.SnackPartymix,
		rec.SnackJogong, rec.SnackChuru, rec.PoopCount, rec.UrineSize, memoValue)
	if err != nil {
		return Record{}, fmt.Errorf("insert record: %w", err)
	}

	return rec, nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM pet_records WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var rec Record
	var memo sql.NullString

	err := row.Scan(&rec.ID, &rec.RecordedAt, &rec.Water, &rec.FoodAmount,
		&rec.SnackPartymix, &rec.SnackJogong, &rec.SnackChuru,
		&rec.PoopCount, &rec.UrineSize, &memo)
	if err != nil {
		if err == sql.ErrNoRows {
			return Record{}, err
		}
		return Record{}, fmt.Errorf("scan record: %w", err)
	}

	if memo.Valid && memo.String != "" {
		// Malformed memo payloads are dropped rather than failing the row.
		_ = json.Unmarshal([]byte(memo.String), &rec.Memo)
	}
	rec.RecordedAt = rec.RecordedAt.UTC()

	return rec, nil
}
