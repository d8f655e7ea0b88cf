package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Karthick9298/hostel-flavour/internal/civilday"
	"github.com/Karthick9298/hostel-flavour/internal/domain"
)

const recordColumns = "id, resident_id, day, meals, created_at, updated_at"

// FeedbackRepo persists one feedback record per resident per civil day.
// The unique (resident_id, day) constraint is the serialization point for
// concurrent first-ever writes.
type FeedbackRepo struct {
	pool *pgxpool.Pool
}

func NewFeedbackRepo(pool *pgxpool.Pool) *FeedbackRepo {
	return &FeedbackRepo{pool: pool}
}

// FindOrInit reads the record for a resident and day. When none is persisted
// yet it returns an unsubmitted view instead of an error, so read-only
// previews never create rows.
func (r *FeedbackRepo) FindOrInit(ctx context.Context, residentID uuid.UUID, day civilday.Day) (domain.RecordView, error) {
	row := r.pool.QueryRow(ctx,
		"SELECT "+recordColumns+" FROM feedback WHERE resident_id = $1 AND day = $2",
		residentID, day.Time())

	record, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.RecordView{Record: domain.EmptyRecord(residentID, day)}, nil
	}
	if err != nil {
		return domain.RecordView{}, mapError("failed to find feedback record", err)
	}
	return domain.RecordView{Persisted: true, Record: record}, nil
}

// EnsureRecord creates the empty record for a resident and day if it does
// not exist yet and returns the current row either way. ON CONFLICT DO
// NOTHING absorbs the duplicate-creation race; the loser simply re-reads
// the winner's row.
func (r *FeedbackRepo) EnsureRecord(ctx context.Context, residentID uuid.UUID, day civilday.Day) (domain.FeedbackRecord, error) {
	_, err := r.pool.Exec(ctx,
		"INSERT INTO feedback (resident_id, day, meals) VALUES ($1, $2, $3) ON CONFLICT (resident_id, day) DO NOTHING",
		residentID, day.Time(), domain.MealSet[domain.MealEntry]{})
	if err != nil {
		return domain.FeedbackRecord{}, mapError("failed to ensure feedback record", err)
	}

	row := r.pool.QueryRow(ctx,
		"SELECT "+recordColumns+" FROM feedback WHERE resident_id = $1 AND day = $2",
		residentID, day.Time())
	record, err := scanRecord(row)
	if err != nil {
		return domain.FeedbackRecord{}, mapError("failed to read feedback record after ensure", err)
	}
	return record, nil
}

// SetMealEntry writes one meal slot, conditional on the slot's rating still
// being absent. Zero rows affected means another request already rated the
// slot. Callers must ensure the record row exists first.
func (r *FeedbackRepo) SetMealEntry(ctx context.Context, residentID uuid.UUID, day civilday.Day, meal domain.MealType, entry domain.MealEntry) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE feedback
		 SET meals = jsonb_set(meals, ARRAY[$3], $4), updated_at = now()
		 WHERE resident_id = $1 AND day = $2 AND meals->$3->>'rating' IS NULL`,
		residentID, day.Time(), string(meal), entry)
	if err != nil {
		return mapError("failed to write meal entry", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlreadySubmitted
	}
	return nil
}

// FindRange returns records with day inside the window, newest day first.
func (r *FeedbackRepo) FindRange(ctx context.Context, window civilday.Window, opts domain.ListOptions) ([]domain.FeedbackRecord, error) {
	query := "SELECT " + recordColumns + " FROM feedback WHERE day BETWEEN $1 AND $2"
	args := []any{window.Start.Time(), window.End.Time()}

	if opts.ResidentID != nil {
		args = append(args, *opts.ResidentID)
		query += fmt.Sprintf(" AND resident_id = $%d", len(args))
	}

	query += " ORDER BY day DESC, created_at DESC"

	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError("failed to query feedback range", err)
	}
	defer rows.Close()

	var records []domain.FeedbackRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, mapError("failed to scan feedback record", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("failed to read feedback range", err)
	}
	return records, nil
}

// CountRange returns how many records fall inside the window, for the
// pagination totals of range listings.
func (r *FeedbackRepo) CountRange(ctx context.Context, window civilday.Window, residentID *uuid.UUID) (int, error) {
	query := "SELECT count(*) FROM feedback WHERE day BETWEEN $1 AND $2"
	args := []any{window.Start.Time(), window.End.Time()}
	if residentID != nil {
		args = append(args, *residentID)
		query += fmt.Sprintf(" AND resident_id = $%d", len(args))
	}

	var count int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, mapError("failed to count feedback range", err)
	}
	return count, nil
}

// CountByDay returns how many residents have a record for the given day.
func (r *FeedbackRepo) CountByDay(ctx context.Context, day civilday.Day) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, "SELECT count(*) FROM feedback WHERE day = $1", day.Time()).Scan(&count)
	if err != nil {
		return 0, mapError("failed to count feedback records", err)
	}
	return count, nil
}

func scanRecord(row pgx.Row) (domain.FeedbackRecord, error) {
	var record domain.FeedbackRecord
	var day time.Time
	if err := row.Scan(&record.ID, &record.ResidentID, &day, &record.Meals, &record.CreatedAt, &record.UpdatedAt); err != nil {
		return domain.FeedbackRecord{}, err
	}
	record.Day = toDay(day)
	return record, nil
}

// toDay converts a scanned DATE value. The calendar components are taken
// as-is; no offset arithmetic applies to a date column.
func toDay(t time.Time) civilday.Day {
	year, month, date := t.Date()
	return civilday.Day{Year: year, Month: month, Date: date}
}

// mapError translates driver failures into domain errors. A unique
// violation (SQLSTATE 23505) is a creation race the caller retries once;
// anything without a server error code is treated as connectivity loss.
func mapError(msg string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" {
			return fmt.Errorf("%s: %w", msg, domain.ErrConstraintViolation)
		}
		return fmt.Errorf("%s: %w", msg, err)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", msg, err)
	}
	return fmt.Errorf("%s: %w (%v)", msg, domain.ErrConnectivity, err)
}
