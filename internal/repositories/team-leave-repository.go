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

var teamLeaveTable = requestTable{Name: "team_leaves", OwnerCol: "team_id"}

var teamLeaveColumns = []string{
	"tl.id", "tl.team_id", "tl.start_date", "tl.end_date", "tl.status", "tl.reason", "tl.created_at",
}

var teamLeaveMap = map[string]string{
	"id":         "tl.id",
	"team_id":    "tl.team_id",
	"status":     "tl.status",
	"start_date": "tl.start_date",
	"end_date":   "tl.end_date",
	"created_at": "tl.created_at",
}

type TeamLeaveRepositoryInterface interface {
	GetAll(ctx context.Context, filter types.Filter) ([]entities.TeamLeave, uint64, error)
	FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.TeamLeave, error)
	FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id uint64) (*entities.TeamLeave, error)
	ListByTeamID(ctx context.Context, teamID uint64) ([]entities.TeamLeave, error)
	ListByTeamIDs(ctx context.Context, teamIDs []uint64) ([]entities.TeamLeave, error)

	Create(ctx context.Context, tx pgx.Tx, leave *entities.TeamLeave) (uint64, error)
	Update(ctx context.Context, tx pgx.Tx, leave *entities.TeamLeave) error
	SetStatus(ctx context.Context, tx pgx.Tx, id uint64, status constants.Status) error
	DeleteOtherPending(ctx context.Context, tx pgx.Tx, teamID, exceptID uint64) (int64, error)
	Delete(ctx context.Context, tx pgx.Tx, id uint64) error
}

type TeamLeaveRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewTeamLeaveRepository(storage *pgxpool.Pool, logger *zap.Logger) TeamLeaveRepositoryInterface {
	return &TeamLeaveRepository{storage: storage, logger: logger}
}

func scanTeamLeave(row pgx.Row) (*entities.TeamLeave, error) {
	var p entities.TeamLeave
	err := row.Scan(&p.ID, &p.TeamID, &p.StartDate, &p.EndDate, &p.Status, &p.Reason, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования team_leaves: %w", err)
	}
	return &p, nil
}

func (r *TeamLeaveRepository) selectTeamLeaves() sq.SelectBuilder {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Select(teamLeaveColumns...).
		From(teamLeaveTable.Name + " tl")
}

func (r *TeamLeaveRepository) findOne(ctx context.Context, querier Querier, where sq.Eq, forUpdate bool) (*entities.TeamLeave, error) {
	builder := r.selectTeamLeaves().Where(where)
	if forUpdate {
		builder = builder.Suffix("FOR UPDATE")
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки SQL для team_leaves: %w", err)
	}
	return scanTeamLeave(querier.QueryRow(ctx, query, args...))
}

func (r *TeamLeaveRepository) findMany(ctx context.Context, builder sq.SelectBuilder) ([]entities.TeamLeave, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки SQL для team_leaves: %w", err)
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения team_leaves: %w", err)
	}
	defer rows.Close()

	list := make([]entities.TeamLeave, 0)
	for rows.Next() {
		p, err := scanTeamLeave(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *p)
	}
	return list, rows.Err()
}

func (r *TeamLeaveRepository) GetAll(ctx context.Context, filter types.Filter) ([]entities.TeamLeave, uint64, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	countBuilder := bd.ApplyListParams(
		psql.Select("COUNT(tl.id)").From(teamLeaveTable.Name+" tl"),
		bd.CountFilter(filter), teamLeaveMap,
	)
	countQuery, countArgs, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, err
	}

	var total uint64
	if err := r.storage.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчета отпусков команд: %w", err)
	}
	if total == 0 {
		return []entities.TeamLeave{}, 0, nil
	}

	builder := r.selectTeamLeaves()
	if len(filter.Sort) == 0 {
		builder = builder.OrderBy("tl.id DESC")
	}
	list, err := r.findMany(ctx, bd.ApplyListParams(builder, filter, teamLeaveMap))
	return list, total, err
}

func (r *TeamLeaveRepository) FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.TeamLeave, error) {
	return r.findOne(ctx, pick(r.storage, tx), sq.Eq{"tl.id": id}, false)
}

func (r *TeamLeaveRepository) FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id uint64) (*entities.TeamLeave, error) {
	return r.findOne(ctx, pick(r.storage, tx), sq.Eq{"tl.id": id}, true)
}

func (r *TeamLeaveRepository) ListByTeamID(ctx context.Context, teamID uint64) ([]entities.TeamLeave, error) {
	return r.ListByTeamIDs(ctx, []uint64{teamID})
}

func (r *TeamLeaveRepository) ListByTeamIDs(ctx context.Context, teamIDs []uint64) ([]entities.TeamLeave, error) {
	if len(teamIDs) == 0 {
		return []entities.TeamLeave{}, nil
	}
	return r.findMany(ctx, r.selectTeamLeaves().Where(sq.Eq{"tl.team_id": teamIDs}).OrderBy("tl.start_date DESC"))
}

func (r *TeamLeaveRepository) Create(ctx context.Context, tx pgx.Tx, leave *entities.TeamLeave) (uint64, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	query, args, err := psql.Insert(teamLeaveTable.Name).
		Columns("team_id", "start_date", "end_date", "status", "reason", "created_at").
		Values(leave.TeamID, leave.StartDate, leave.EndDate, leave.Status, leave.Reason, sq.Expr("NOW()")).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("ошибка сборки запроса Create team_leaves: %w", err)
	}

	var id uint64
	if err := pick(r.storage, tx).QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("ошибка создания team_leaves: %w", err)
	}
	return id, nil
}

func (r *TeamLeaveRepository) Update(ctx context.Context, tx pgx.Tx, leave *entities.TeamLeave) error {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	query, args, err := psql.Update(teamLeaveTable.Name).
		Set("start_date", leave.StartDate).
		Set("end_date", leave.EndDate).
		Set("reason", leave.Reason).
		Where(sq.Eq{"id": leave.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("ошибка сборки запроса Update team_leaves: %w", err)
	}
	return execAffectingOne(ctx, pick(r.storage, tx), teamLeaveTable.Name, query, args...)
}

func (r *TeamLeaveRepository) SetStatus(ctx context.Context, tx pgx.Tx, id uint64, status constants.Status) error {
	return setRequestStatus(ctx, pick(r.storage, tx), teamLeaveTable, id, status)
}

func (r *TeamLeaveRepository) DeleteOtherPending(ctx context.Context, tx pgx.Tx, teamID, exceptID uint64) (int64, error) {
	return deleteOtherPending(ctx, pick(r.storage, tx), teamLeaveTable, teamID, exceptID)
}

func (r *TeamLeaveRepository) Delete(ctx context.Context, tx pgx.Tx, id uint64) error {
	return deleteRequest(ctx, pick(r.storage, tx), teamLeaveTable, id)
}
