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

var externalAuthorizationTable = requestTable{Name: "external_authorizations", OwnerCol: "user_id"}

var externalAuthorizationColumns = []string{
	"a.id", "a.user_id", "a.leave_duration", "a.start_date", "a.end_date", "a.status", "a.reason", "a.created_at",
}

var externalAuthorizationMap = map[string]string{
	"id":         "a.id",
	"user_id":    "a.user_id",
	"status":     "a.status",
	"start_date": "a.start_date",
	"created_at": "a.created_at",
}

type ExternalAuthorizationRepositoryInterface interface {
	GetAll(ctx context.Context, filter types.Filter) ([]entities.ExternalAuthorization, uint64, error)
	FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.ExternalAuthorization, error)
	FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id uint64) (*entities.ExternalAuthorization, error)
	ListByUserID(ctx context.Context, userID uint64) ([]entities.ExternalAuthorization, error)
	ListByTeamID(ctx context.Context, teamID uint64) ([]entities.ExternalAuthorization, error)

	Create(ctx context.Context, tx pgx.Tx, auth *entities.ExternalAuthorization) (uint64, error)
	Update(ctx context.Context, tx pgx.Tx, auth *entities.ExternalAuthorization) error
	SetStatus(ctx context.Context, tx pgx.Tx, id uint64, status constants.Status) error
	DeleteOtherPending(ctx context.Context, tx pgx.Tx, userID, exceptID uint64) (int64, error)
	Delete(ctx context.Context, tx pgx.Tx, id uint64) error
}

type ExternalAuthorizationRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewExternalAuthorizationRepository(storage *pgxpool.Pool, logger *zap.Logger) ExternalAuthorizationRepositoryInterface {
	return &ExternalAuthorizationRepository{storage: storage, logger: logger}
}

func scanExternalAuthorization(row pgx.Row) (*entities.ExternalAuthorization, error) {
	var a entities.ExternalAuthorization
	err := row.Scan(&a.ID, &a.UserID, &a.LeaveDuration, &a.StartDate, &a.EndDate, &a.Status, &a.Reason, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования external_authorizations: %w", err)
	}
	return &a, nil
}

func (r *ExternalAuthorizationRepository) selectAuthorizations() sq.SelectBuilder {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Select(externalAuthorizationColumns...).
		From(externalAuthorizationTable.Name + " a")
}

func (r *ExternalAuthorizationRepository) findOne(ctx context.Context, querier Querier, where sq.Eq, forUpdate bool) (*entities.ExternalAuthorization, error) {
	builder := r.selectAuthorizations().Where(where)
	if forUpdate {
		builder = builder.Suffix("FOR UPDATE")
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки SQL для external_authorizations: %w", err)
	}
	return scanExternalAuthorization(querier.QueryRow(ctx, query, args...))
}

func (r *ExternalAuthorizationRepository) findMany(ctx context.Context, builder sq.SelectBuilder) ([]entities.ExternalAuthorization, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки SQL для external_authorizations: %w", err)
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения external_authorizations: %w", err)
	}
	defer rows.Close()

	list := make([]entities.ExternalAuthorization, 0)
	for rows.Next() {
		a, err := scanExternalAuthorization(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *a)
	}
	return list, rows.Err()
}

func (r *ExternalAuthorizationRepository) GetAll(ctx context.Context, filter types.Filter) ([]entities.ExternalAuthorization, uint64, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	countBuilder := bd.ApplyListParams(
		psql.Select("COUNT(a.id)").From(externalAuthorizationTable.Name+" a"),
		bd.CountFilter(filter), externalAuthorizationMap,
	)
	countQuery, countArgs, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, err
	}

	var total uint64
	if err := r.storage.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчета разрешений на выход: %w", err)
	}
	if total == 0 {
		return []entities.ExternalAuthorization{}, 0, nil
	}

	builder := r.selectAuthorizations()
	if len(filter.Sort) == 0 {
		builder = builder.OrderBy("a.id DESC")
	}
	list, err := r.findMany(ctx, bd.ApplyListParams(builder, filter, externalAuthorizationMap))
	return list, total, err
}

func (r *ExternalAuthorizationRepository) FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.ExternalAuthorization, error) {
	return r.findOne(ctx, pick(r.storage, tx), sq.Eq{"a.id": id}, false)
}

func (r *ExternalAuthorizationRepository) FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id uint64) (*entities.ExternalAuthorization, error) {
	return r.findOne(ctx, pick(r.storage, tx), sq.Eq{"a.id": id}, true)
}

func (r *ExternalAuthorizationRepository) ListByUserID(ctx context.Context, userID uint64) ([]entities.ExternalAuthorization, error) {
	return r.findMany(ctx, r.selectAuthorizations().Where(sq.Eq{"a.user_id": userID}).OrderBy("a.start_date DESC"))
}

func (r *ExternalAuthorizationRepository) ListByTeamID(ctx context.Context, teamID uint64) ([]entities.ExternalAuthorization, error) {
	return r.findMany(ctx, r.selectAuthorizations().
		Join("users u ON u.id = a.user_id").
		Where(sq.Eq{"u.team_id": teamID}).
		OrderBy("a.start_date DESC"))
}

func (r *ExternalAuthorizationRepository) Create(ctx context.Context, tx pgx.Tx, auth *entities.ExternalAuthorization) (uint64, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	query, args, err := psql.Insert(externalAuthorizationTable.Name).
		Columns("user_id", "leave_duration", "start_date", "end_date", "status", "reason", "created_at").
		Values(auth.UserID, auth.LeaveDuration, auth.StartDate, auth.EndDate, auth.Status, auth.Reason, sq.Expr("NOW()")).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("ошибка сборки запроса Create external_authorizations: %w", err)
	}

	var id uint64
	if err := pick(r.storage, tx).QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("ошибка создания external_authorizations: %w", err)
	}
	return id, nil
}

func (r *ExternalAuthorizationRepository) Update(ctx context.Context, tx pgx.Tx, auth *entities.ExternalAuthorization) error {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	query, args, err := psql.Update(externalAuthorizationTable.Name).
		Set("leave_duration", auth.LeaveDuration).
		Set("start_date", auth.StartDate).
		Set("end_date", auth.EndDate).
		Set("reason", auth.Reason).
		Where(sq.Eq{"id": auth.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("ошибка сборки запроса Update external_authorizations: %w", err)
	}
	return execAffectingOne(ctx, pick(r.storage, tx), externalAuthorizationTable.Name, query, args...)
}

func (r *ExternalAuthorizationRepository) SetStatus(ctx context.Context, tx pgx.Tx, id uint64, status constants.Status) error {
	return setRequestStatus(ctx, pick(r.storage, tx), externalAuthorizationTable, id, status)
}

func (r *ExternalAuthorizationRepository) DeleteOtherPending(ctx context.Context, tx pgx.Tx, userID, exceptID uint64) (int64, error) {
	return deleteOtherPending(ctx, pick(r.storage, tx), externalAuthorizationTable, userID, exceptID)
}

func (r *ExternalAuthorizationRepository) Delete(ctx context.Context, tx pgx.Tx, id uint64) error {
	return deleteRequest(ctx, pick(r.storage, tx), externalAuthorizationTable, id)
}
