package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/ParkEase/service-parking/internal/domain/report"
	slotDomain "github.com/ParkEase/service-parking/internal/domain/slot"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const bookingFactColumns = `
	id,
	booking_number,
	user_id,
	location_id,
	vehicle_type,
	booking_status,
	payment_status,
	booking_date,
	start_time,
	duration_minutes,
	total_amount,
	created_at`

// SQLReportRepository reads report projections with hand-written SQL.
type SQLReportRepository struct {
	db *sqlx.DB
}

// NewSQLReportRepository creates a new SQLReportRepository.
func NewSQLReportRepository(db *sqlx.DB) *SQLReportRepository {
	return &SQLReportRepository{db: db}
}

// BookingFacts loads the bookings selected by q, oldest first.
func (r *SQLReportRepository) BookingFacts(ctx context.Context, q report.FactQuery) ([]report.BookingFact, error) {
	var (
		where []string
		args  []interface{}
	)
	if q.LocationID != nil {
		where = append(where, "location_id = ?")
		args = append(args, *q.LocationID)
	}
	if q.CreatedFrom != nil {
		where = append(where, "created_at >= ?")
		args = append(args, *q.CreatedFrom)
	}
	if q.CreatedTo != nil {
		where = append(where, "created_at < ?")
		args = append(args, *q.CreatedTo)
	}
	if q.BookingDateFrom != nil {
		where = append(where, "booking_date >= ?")
		args = append(args, *q.BookingDateFrom)
	}
	if q.BookingDateTo != nil {
		where = append(where, "booking_date < ?")
		args = append(args, *q.BookingDateTo)
	}
	if len(q.Statuses) > 0 {
		where = append(where, "booking_status IN (?)")
		args = append(args, q.Statuses)
	}
	if q.PaymentStatus != "" {
		where = append(where, "payment_status = ?")
		args = append(args, q.PaymentStatus)
	}

	query := "SELECT" + bookingFactColumns + "\nFROM bookings"
	if len(where) > 0 {
		query += "\nWHERE " + strings.Join(where, " AND ")
	}
	query += "\nORDER BY created_at ASC"

	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to expand report query: %w", err)
	}

	var facts []report.BookingFact
	if err := r.db.SelectContext(ctx, &facts, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to query booking facts: %w", err)
	}
	return facts, nil
}

// SlotCounts counts active slots by status, optionally for one location.
func (r *SQLReportRepository) SlotCounts(ctx context.Context, locationID *uuid.UUID) (slotDomain.Counts, error) {
	query := `
		SELECT status, count(*) AS count
		FROM slots
		WHERE active = TRUE`
	var args []interface{}
	if locationID != nil {
		query += " AND location_id = ?"
		args = append(args, *locationID)
	}
	query += "\nGROUP BY status"

	var rows []struct {
		Status string `db:"status"`
		Count  int64  `db:"count"`
	}
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return slotDomain.Counts{}, fmt.Errorf("failed to count slots: %w", err)
	}

	var counts slotDomain.Counts
	for _, row := range rows {
		counts.Total += row.Count
		switch slotDomain.SlotStatus(row.Status) {
		case slotDomain.StatusAvailable:
			counts.Available = row.Count
		case slotDomain.StatusBooked:
			counts.Booked = row.Count
		case slotDomain.StatusMaintenance:
			counts.Maintenance = row.Count
		}
	}
	return counts, nil
}
