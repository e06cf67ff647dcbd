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

var teamExitPermissionTable = requestTable{Name: "team_exit_permissions", OwnerCol: "team_id"}

var teamExitPermissionColumns = []string{
	"p.id", "p.team_id", "p.leave_duration", "p.start_date", "p.end_date", "p.status", "p.reason", "p.created_at",
}

var teamExitPermissionMap = map[string]string{
	"id":         "p.id",
	"team_id":    "p.team_id",
	"status":     "p.status",
	"start_date": "p.start_date",
	"created_at": "p.created_at",
}

type TeamExitPermissionRepositoryInterface interface {
	GetAll(ctx context.Context, filter types.Filter) ([]entities.TeamExitPermission, uint64, error)
	FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.TeamExitPermission, error)
	FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id uint64) (*entities.TeamExitPermission, error)
	ListByTeamID(ctx context.Context, teamID uint64) ([]entities.TeamExitPermission, error)
	ListByTeamIDs(ctx context.Context, teamIDs []uint64) ([]entities.TeamExitPermission, error)

	Create(ctx context.Context, tx pgx.Tx, perm *entities.TeamExitPermission) (uint64, error)
	Update(ctx context.Context, tx pgx.Tx, perm *entities.TeamExitPermission) error
	SetStatus(ctx context.Context, tx pgx.Tx, id uint64, status constants.Status) error
	DeleteOtherPending(ctx context.Context, tx pgx.Tx, teamID, exceptID uint64) (int64, error)
	Delete(ctx context.Context, tx pgx.Tx, id uint64) error
}

type TeamExitPermissionRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewTeamExitPermissionRepository(storage *pgxpool.Pool, logger *zap.Logger) TeamExitPermissionRepositoryInterface {
	return &TeamExitPermissionRepository{storage: storage, logger: logger}
}

func scanTeamExitPermission(row pgx.Row) (*entities.TeamExitPermission, error) {
	var p entities.TeamExitPermission
	err := row.Scan(&p.ID, &p.TeamID, &p.LeaveDuration, &p.StartDate, &p.EndDate, &p.Status, &p.Reason, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования team_exit_permissions: %w", err)
	}
	return &p, nil
}

func (r *TeamExitPermissionRepository) selectPermissions() sq.SelectBuilder {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Select(teamExitPermissionColumns...).
		From(teamExitPermissionTable.Name + " p")
}

func (r *TeamExitPermissionRepository) findOne(ctx context.Context, querier Querier, where sq.Eq, forUpdate bool) (*entities.TeamExitPermission, error) {
	builder := r.selectPermissions().Where(where)
	if forUpdate {
		builder = builder.Suffix("FOR UPDATE")
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки SQL для team_exit_permissions: %w", err)
	}
	return scanTeamExitPermission(querier.QueryRow(ctx, query, args...))
}

func (r *TeamExitPermissionRepository) findMany(ctx context.Context, builder sq.SelectBuilder) ([]entities.TeamExitPermission, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки SQL для team_exit_permissions: %w", err)
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения team_exit_permissions: %w", err)
	}
	defer rows.Close()

	list := make([]entities.TeamExitPermission, 0)
	for rows.Next() {
		p, err := scanTeamExitPermission(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *p)
	}
	return list, rows.Err()
}

func (r *TeamExitPermissionRepository) GetAll(ctx context.Context, filter types.Filter) ([]entities.TeamExitPermission, uint64, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	countBuilder := bd.ApplyListParams(
		psql.Select("COUNT(p.id)").From(teamExitPermissionTable.Name+" p"),
		bd.CountFilter(filter), teamExitPermissionMap,
	)
	countQuery, countArgs, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, err
	}

	var total uint64
	if err := r.storage.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчета разрешений команды на выход: %w", err)
	}
	if total == 0 {
		return []entities.TeamExitPermission{}, 0, nil
	}

	builder := r.selectPermissions()
	if len(filter.Sort) == 0 {
		builder = builder.OrderBy("p.id DESC")
	}
	list, err := r.findMany(ctx, bd.ApplyListParams(builder, filter, teamExitPermissionMap))
	return list, total, err
}

func (r *TeamExitPermissionRepository) FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.TeamExitPermission, error) {
	return r.findOne(ctx, pick(r.storage, tx), sq.Eq{"p.id": id}, false)
}

func (r *TeamExitPermissionRepository) FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id uint64) (*entities.TeamExitPermission, error) {
	return r.findOne(ctx, pick(r.storage, tx), sq.Eq{"p.id": id}, true)
}

func (r *TeamExitPermissionRepository) ListByTeamID(ctx context.Context, teamID uint64) ([]entities.TeamExitPermission, error) {
	return r.ListByTeamIDs(ctx, []uint64{teamID})
}

func (r *TeamExitPermissionRepository) ListByTeamIDs(ctx context.Context, teamIDs []uint64) ([]entities.TeamExitPermission, error) {
	if len(teamIDs) == 0 {
		return []entities.TeamExitPermission{}, nil
	}
	return r.findMany(ctx, r.selectPermissions().Where(sq.Eq{"p.team_id": teamIDs}).OrderBy("p.start_date DESC"))
}

func (r *TeamExitPermissionRepository) Create(ctx context.Context, tx pgx.Tx, perm *entities.TeamExitPermission) (uint64, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	query, args, err := psql.Insert(teamExitPermissionTable.Name).
		Columns("team_id", "leave_duration", "start_date", "end_date", "status", "reason", "created_at").
		Values(perm.TeamID, perm.LeaveDuration, perm.StartDate, perm.EndDate, perm.Status, perm.Reason, sq.Expr("NOW()")).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("ошибка сборки запроса Create team_exit_permissions: %w", err)
	}

	var id uint64
	if err := pick(r.storage, tx).QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("ошибка создания team_exit_permissions: %w", err)
	}
	return id, nil
}

func (r *TeamExitPermissionRepository) Update(ctx context.Context, tx pgx.Tx, perm *entities.TeamExitPermission) error {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	query, args, err := psql.Update(teamExitPermissionTable.Name).
		Set("leave_duration", perm.LeaveDuration).
		Set("start_date", perm.StartDate).
		Set("end_date", perm.EndDate).
		Set("reason", perm.Reason).
		Where(sq.Eq{"id": perm.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("ошибка сборки запроса Update team_exit_permissions: %w", err)
	}
	return execAffectingOne(ctx, pick(r.storage, tx), teamExitPermissionTable.Name, query, args...)
}

func (r *TeamExitPermissionRepository) SetStatus(ctx context.Context, tx pgx.Tx, id uint64, status constants.Status) error {
	return setRequestStatus(ctx, pick(r.storage, tx), teamExitPermissionTable, id, status)
}

func (r *TeamExitPermissionRepository) DeleteOtherPending(ctx context.Context, tx pgx.Tx, teamID, exceptID uint64) (int64, error) {
	return deleteOtherPending(ctx, pick(r.storage, tx), teamExitPermissionTable, teamID, exceptID)
}

func (r *TeamExitPermissionRepository) Delete(ctx context.Context, tx pgx.Tx, id uint64) error {
	return deleteRequest(ctx, pick(r.storage, tx), teamExitPermissionTable, id)
}
