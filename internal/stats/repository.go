package stats

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

type FoodStats struct {
	Count   int
	Total   int
	Average float64
}

type SnackStats struct {
	Partymix int
	Jogong   int
	Churu    int
}

type WaterStats struct {
	Self  int
	Given int
	Total int
}

type PoopStats struct {
	Total   int
	Records int
}

type UrineStats struct {
	Large  int
	Medium int
	Small  int
}

func (r *Repository) Food(ctx context.Context, start, end time.Time) (FoodStats, error) {
	var stats FoodStats
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(food_amount),
			COALESCE(SUM(food_amount), 0),
			COALESCE(AVG(food_amount), 0)::float8
		FROM pet_records
		WHERE recorded_at >= $1 AND recorded_at <= $2
	`, start.UTC(), end.UTC()).Scan(&stats.Count, &stats.Total, &stats.Average)
	if err != nil {
		return FoodStats{}, fmt.Errorf("query food stats: %w", err)
	}

	return stats, nil
}

func (r *Repository) Snacks(ctx context.Context, start, end time.Time) (SnackStats, error) {
	var stats SnackStats
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(snack_partymix), 0),
			COALESCE(SUM(snack_jogong), 0),
			COUNT(*) FILTER (WHERE snack_churu)
		FROM pet_records
		WHERE recorded_at >= $1 AND recorded_at <= $2
	`, start.UTC(), end.UTC()).Scan(&stats.Partymix, &stats.Jogong, &stats.Churu)
	if err != nil {
		return SnackStats{}, fmt.Errorf("query snack stats: %w", err)
	}

	return stats, nil
}

func (r *Repository) Water(ctx context.Context, start, end time.Time) (WaterStats, error) {
	var stats WaterStats
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE water = 'self'),
			COUNT(*) FILTER (WHERE water = 'given'),
			COUNT(water)
		FROM pet_records
		WHERE recorded_at >= $1 AND recorded_at <= $2
	`, start.UTC(), end.UTC()).Scan(&stats.Self, &stats.Given, &stats.Total)
	if err != nil {
		return WaterStats{}, fmt.Errorf("query water stats: %w", err)
	}

	return stats, nil
}

func (r *Repository) Poop(ctx context.Context, start, end time.Time) (PoopStats, error) {
	var stats PoopStats
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(poop_count), 0),
			COUNT(poop_count)
		FROM pet_records
		WHERE recorded_at >= $1 AND recorded_at <= $2
	`, start.UTC(), end.UTC()).Scan(&stats.Total, &stats.Records)
	if err != nil {
		return PoopStats{}, fmt.Errorf("query poop stats: %w", err)
	}

	return stats, nil
}

func (r *Repository) Urine(ctx context.Context, start, end time.Time) (UrineStats, error) {
	var stats UrineStats
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE urine_size = 'large'),
			COUNT(*) FILTER (WHERE urine_size = 'medium'),
			COUNT(*) FILTER (WHERE urine_size = 'small')
		FROM pet_records
		WHERE recorded_at >= $1 AND recorded_at <= $2
	`, start.UTC(), end.UTC()).Scan(&stats.Large, &stats.Medium, &stats.Small)
	if err != nil {
		return UrineStats{}, fmt.Errorf("query urine stats: %w", err)
	}

	return stats, nil
}

// MemoLists returns the decoded memo arrays of all records in the range
// that carry at least one memo item. Rows with malformed memo payloads
// are skipped.
func (r *Repository) MemoLists(ctx context.Context, start, end time.Time) ([][]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT memo
		FROM pet_records
		WHERE recorded_at >= $1 AND recorded_at <= $2
		  AND memo IS NOT NULL AND memo <> '[]'
	`, start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("query memo records: %w", err)
	}
	defer rows.Close()

	lists := make([][]string, 0)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan memo record: %w", err)
		}

		var items []string
		if err := json.Unmarshal([]byte(raw), &items); err != nil {
			continue
		}
		if len(items) > 0 {
			lists = append(lists, items)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate memo records: %w", err)
	}

	return lists, nil
}
