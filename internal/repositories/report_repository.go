package repositories

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"leave-system/internal/entities"
	"leave-system/pkg/constants"
)

// LeaveReportFilter - условия отчёта по отпускам. Пустые поля не фильтруют.
type LeaveReportFilter struct {
	DateFrom  *time.Time
	DateTo    *time.Time
	Status    constants.Status
	LeaveType constants.LeaveType
	Page      int
	PerPage   int
}

type ReportRepositoryInterface interface {
	GetLeaveReport(ctx context.Context, filter LeaveReportFilter) ([]entities.LeaveReportRow, uint64, error)
}

type reportRepository struct {
	db *pgxpool.Pool
}

func NewReportRepository(db *pgxpool.Pool) ReportRepositoryInterface {
	return &reportRepository{db: db}
}

func (r *reportRepository) GetLeaveReport(ctx context.Context, filter LeaveReportFilter) ([]entities.LeaveReportRow, uint64, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	// Общая основа для COUNT и выборки
	baseSelect := psql.Select().
		From(employeeLeaveTable.Name + " l").
		Join("users u ON u.id = l.user_id").
		LeftJoin("teams t ON t.id = u.team_id")

	if filter.DateFrom != nil {
		baseSelect = baseSelect.Where(sq.GtOrEq{"l.start_date": filter.DateFrom})
	}
	if filter.DateTo != nil {
		baseSelect = baseSelect.Where(sq.Lt{"l.start_date": filter.DateTo})
	}
	if filter.Status != "" {
		baseSelect = baseSelect.Where(sq.Eq{"l.status": filter.Status})
	}
	if filter.LeaveType != "" {
		baseSelect = baseSelect.Where(sq.Eq{"l.leave_type": filter.LeaveType})
	}

	countQuery, countArgs, err := baseSelect.Columns("COUNT(l.id)").ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка сборки COUNT-запроса отчёта: %w", err)
	}
	var totalCount uint64
	if err = r.db.QueryRow(ctx, countQuery, countArgs...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("ошибка выполнения COUNT-запроса отчёта: %w", err)
	}
	if totalCount == 0 {
		return []entities.LeaveReportRow{}, 0, nil
	}

	mainBuilder := baseSelect.Columns(
		"l.id", "u.email", "u.first_name || ' ' || u.last_name", "t.name",
		"l.leave_type", "l.exceptional_leave_type", "l.time_of_day",
		"l.start_date", "l.end_date", "l.status", "l.reason", "l.created_at",
	).OrderBy("l.start_date", "l.id")

	if filter.PerPage > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		mainBuilder = mainBuilder.Limit(uint64(filter.PerPage)).Offset(uint64((page - 1) * filter.PerPage))
	}

	query, args, err := mainBuilder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка сборки запроса отчёта: %w", err)
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка получения отчёта по отпускам: %w", err)
	}
	defer rows.Close()

	report := make([]entities.LeaveReportRow, 0)
	for rows.Next() {
		var row entities.LeaveReportRow
		if err := rows.Scan(
			&row.LeaveID, &row.UserEmail, &row.UserFullName, &row.TeamName,
			&row.LeaveType, &row.ExceptionalLeaveType, &row.TimeOfDay,
			&row.StartDate, &row.EndDate, &row.Status, &row.Reason, &row.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("ошибка сканирования отчёта: %w", err)
		}
		report = append(report, row)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, err
	}
	return report, totalCount, nil
}
