package repositories

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"leave-system/internal/entities"
	"leave-system/internal/infrastructure/bd"
	"leave-system/pkg/constants"
	apperrors "leave-system/pkg/errors"
	"leave-system/pkg/types"
)

var employeeLeaveTable = requestTable{Name: "employee_leaves", OwnerCol: "user_id"}

var employeeLeaveColumns = []string{
	"l.id", "l.user_id", "l.leave_type", "l.exceptional_leave_type", "l.time_of_day",
	"l.start_date", "l.end_date", "l.status", "l.reason", "l.created_at",
}

var employeeLeaveMap = map[string]string{
	"id":         "l.id",
	"user_id":    "l.user_id",
	"leave_type": "l.leave_type",
	"status":     "l.status",
	"start_date": "l.start_date",
	"end_date":   "l.end_date",
	"created_at": "l.created_at",
}

type EmployeeLeaveRepositoryInterface interface {
	GetAll(ctx context.Context, filter types.Filter) ([]entities.EmployeeLeave, uint64, error)
	FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.EmployeeLeave, error)
	FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id uint64) (*entities.EmployeeLeave, error)
	ListByUserID(ctx context.Context, userID uint64) ([]entities.EmployeeLeave, error)
	// ListByTeamID - заявки участников команды.
	ListByTeamID(ctx context.Context, teamID uint64) ([]entities.EmployeeLeave, error)
	ListAccepted(ctx context.Context, tx pgx.Tx) ([]entities.EmployeeLeave, error)

	Create(ctx context.Context, tx pgx.Tx, leave *entities.EmployeeLeave) (uint64, error)
	Update(ctx context.Context, tx pgx.Tx, leave *entities.EmployeeLeave) error
	SetStatus(ctx context.Context, tx pgx.Tx, id uint64, status constants.Status) error
	DeleteOtherPending(ctx context.Context, tx pgx.Tx, userID, exceptID uint64) (int64, error)
	Delete(ctx context.Context, tx pgx.Tx, id uint64) error
}

type EmployeeLeaveRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewEmployeeLeaveRepository(storage *pgxpool.Pool, logger *zap.Logger) EmployeeLeaveRepositoryInterface {
	return &EmployeeLeaveRepository{storage: storage, logger: logger}
}

func scanEmployeeLeave(row pgx.Row) (*entities.EmployeeLeave, error) {
	var l entities.EmployeeLeave
	err := row.Scan(
		&l.ID, &l.UserID, &l.LeaveType, &l.ExceptionalLeaveType, &l.TimeOfDay,
		&l.StartDate, &l.EndDate, &l.Status, &l.Reason, &l.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования employee_leaves: %w", err)
	}
	return &l, nil
}

func collectEmployeeLeaves(rows pgx.Rows) ([]entities.EmployeeLeave, error) {
	defer rows.Close()
	leaves := make([]entities.EmployeeLeave, 0)
	for rows.Next() {
		l, err := scanEmployeeLeave(rows)
		if err != nil {
			return nil, err
		}
		leaves = append(leaves, *l)
	}
	return leaves, rows.Err()
}

func (r *EmployeeLeaveRepository) selectLeaves() sq.SelectBuilder {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Select(employeeLeaveColumns...).
		From(employeeLeaveTable.Name + " l")
}

func (r *EmployeeLeaveRepository) findOne(ctx context.Context, querier Querier, where sq.Eq, forUpdate bool) (*entities.EmployeeLeave, error) {
	builder := r.selectLeaves().Where(where)
	if forUpdate {
		builder = builder.Suffix("FOR UPDATE")
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки SQL для employee_leaves: %w", err)
	}
	return scanEmployeeLeave(querier.QueryRow(ctx, query, args...))
}

func (r *EmployeeLeaveRepository) findMany(ctx context.Context, querier Querier, builder sq.SelectBuilder) ([]entities.EmployeeLeave, error) {
	query, args, err := builder.OrderBy("l.start_date DESC", "l.id DESC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки SQL для employee_leaves: %w", err)
	}
	rows, err := querier.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения employee_leaves: %w", err)
	}
	return collectEmployeeLeaves(rows)
}

func (r *EmployeeLeaveRepository) GetAll(ctx context.Context, filter types.Filter) ([]entities.EmployeeLeave, uint64, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	countBuilder := psql.Select("COUNT(l.id)").From(employeeLeaveTable.Name + " l")
	countBuilder = bd.ApplyListParams(countBuilder, bd.CountFilter(filter), employeeLeaveMap)
	countQuery, countArgs, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, err
	}

	var total uint64
	if err := r.storage.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчета заявок на отпуск: %w", err)
	}
	if total == 0 {
		return []entities.EmployeeLeave{}, 0, nil
	}

	builder := r.selectLeaves()
	if len(filter.Sort) == 0 {
		builder = builder.OrderBy("l.id DESC")
	}
	builder = bd.ApplyListParams(builder, filter, employeeLeaveMap)

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка получения заявок на отпуск: %w", err)
	}
	leaves, err := collectEmployeeLeaves(rows)
	return leaves, total, err
}

func (r *EmployeeLeaveRepository) FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.EmployeeLeave, error) {
	return r.findOne(ctx, pick(r.storage, tx), sq.Eq{"l.id": id}, false)
}

func (r *EmployeeLeaveRepository) FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id uint64) (*entities.EmployeeLeave, error) {
	return r.findOne(ctx, pick(r.storage, tx), sq.Eq{"l.id": id}, true)
}

func (r *EmployeeLeaveRepository) ListByUserID(ctx context.Context, userID uint64) ([]entities.EmployeeLeave, error) {
	return r.findMany(ctx, r.storage, r.selectLeaves().Where(sq.Eq{"l.user_id": userID}))
}

func (r *EmployeeLeaveRepository) ListByTeamID(ctx context.Context, teamID uint64) ([]entities.EmployeeLeave, error) {
	builder := r.selectLeaves().
		Join("users u ON u.id = l.user_id").
		Where(sq.Eq{"u.team_id": teamID})
	return r.findMany(ctx, r.storage, builder)
}

func (r *EmployeeLeaveRepository) ListAccepted(ctx context.Context, tx pgx.Tx) ([]entities.EmployeeLeave, error) {
	return r.findMany(ctx, pick(r.storage, tx), r.selectLeaves().Where(sq.Eq{"l.status": constants.StatusAccepted}))
}

func (r *EmployeeLeaveRepository) Create(ctx context.Context, tx pgx.Tx, leave *entities.EmployeeLeave) (uint64, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	query, args, err := psql.Insert(employeeLeaveTable.Name).
		Columns("user_id", "leave_type", "exceptional_leave_type", "time_of_day", "start_date", "end_date", "status", "reason", "created_at").
		Values(leave.UserID, leave.LeaveType, leave.ExceptionalLeaveType, leave.TimeOfDay, leave.StartDate, leave.EndDate, leave.Status, leave.Reason, sq.Expr("NOW()")).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("ошибка сборки запроса Create employee_leaves: %w", err)
	}

	var id uint64
	if err := pick(r.storage, tx).QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("ошибка создания employee_leaves: %w", err)
	}
	return id, nil
}

func (r *EmployeeLeaveRepository) Update(ctx context.Context, tx pgx.Tx, leave *entities.EmployeeLeave) error {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	query, args, err := psql.Update(employeeLeaveTable.Name).
		Set("leave_type", leave.LeaveType).
		Set("exceptional_leave_type", leave.ExceptionalLeaveType).
		Set("time_of_day", leave.TimeOfDay).
		Set("start_date", leave.StartDate).
		Set("end_date", leave.EndDate).
		Set("reason", leave.Reason).
		Where(sq.Eq{"id": leave.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("ошибка сборки запроса Update employee_leaves: %w", err)
	}
	return execAffectingOne(ctx, pick(r.storage, tx), employeeLeaveTable.Name, query, args...)
}

func (r *EmployeeLeaveRepository) SetStatus(ctx context.Context, tx pgx.Tx, id uint64, status constants.Status) error {
	return setRequestStatus(ctx, pick(r.storage, tx), employeeLeaveTable, id, status)
}

func (r *EmployeeLeaveRepository) DeleteOtherPending(ctx context.Context, tx pgx.Tx, userID, exceptID uint64) (int64, error) {
	return deleteOtherPending(ctx, pick(r.storage, tx), employeeLeaveTable, userID, exceptID)
}

func (r *EmployeeLeaveRepository) Delete(ctx context.Context, tx pgx.Tx, id uint64) error {
	return deleteRequest(ctx, pick(r.storage, tx), employeeLeaveTable, id)
}
