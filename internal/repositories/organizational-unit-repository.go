package repositories

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"leave-system/internal/entities"
	"leave-system/internal/infrastructure/bd"
	apperrors "leave-system/pkg/errors"
	"leave-system/pkg/types"
)

const organizationalUnitTable = "organizational_units"

var organizationalUnitColumns = []string{"o.id", "o.name", "o.manager_id", "o.created_at"}

var organizationalUnitMap = map[string]string{
	"id":         "o.id",
	"name":       "o.name",
	"manager_id": "o.manager_id",
	"created_at": "o.created_at",
}

type OrganizationalUnitRepositoryInterface interface {
	GetAll(ctx context.Context, filter types.Filter) ([]entities.OrganizationalUnit, uint64, error)
	FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.OrganizationalUnit, error)
	FindByName(ctx context.Context, tx pgx.Tx, name string) (*entities.OrganizationalUnit, error)
	Create(ctx context.Context, tx pgx.Tx, unit *entities.OrganizationalUnit) (uint64, error)
	Update(ctx context.Context, tx pgx.Tx, unit *entities.OrganizationalUnit) error
	ClearManager(ctx context.Context, tx pgx.Tx, managerID uint64) error
	Delete(ctx context.Context, tx pgx.Tx, id uint64) error
}

type OrganizationalUnitRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewOrganizationalUnitRepository(storage *pgxpool.Pool, logger *zap.Logger) OrganizationalUnitRepositoryInterface {
	return &OrganizationalUnitRepository{storage: storage, logger: logger}
}

func scanOrganizationalUnit(row pgx.Row) (*entities.OrganizationalUnit, error) {
	var o entities.OrganizationalUnit
	if err := row.Scan(&o.ID, &o.Name, &o.ManagerID, &o.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования organizational_units: %w", err)
	}
	return &o, nil
}

func (r *OrganizationalUnitRepository) selectUnits() sq.SelectBuilder {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Select(organizationalUnitColumns...).
		From(organizationalUnitTable + " o")
}

func (r *OrganizationalUnitRepository) findOne(ctx context.Context, querier Querier, where sq.Eq) (*entities.OrganizationalUnit, error) {
	query, args, err := r.selectUnits().Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки SQL для organizational_units: %w", err)
	}
	return scanOrganizationalUnit(querier.QueryRow(ctx, query, args...))
}

func (r *OrganizationalUnitRepository) GetAll(ctx context.Context, filter types.Filter) ([]entities.OrganizationalUnit, uint64, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	countBuilder := bd.ApplySearch(psql.Select("COUNT(o.id)").From(organizationalUnitTable+" o"), filter.Search, "o.name")
	countBuilder = bd.ApplyListParams(countBuilder, bd.CountFilter(filter), organizationalUnitMap)
	countQuery, countArgs, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, err
	}

	var total uint64
	if err := r.storage.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчета подразделений: %w", err)
	}
	if total == 0 {
		return []entities.OrganizationalUnit{}, 0, nil
	}

	builder := bd.ApplySearch(r.selectUnits(), filter.Search, "o.name")
	if len(filter.Sort) == 0 {
		builder = builder.OrderBy("o.name")
	}
	query, args, err := bd.ApplyListParams(builder, filter, organizationalUnitMap).ToSql()
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка получения подразделений: %w", err)
	}
	defer rows.Close()

	units := make([]entities.OrganizationalUnit, 0)
	for rows.Next() {
		o, err := scanOrganizationalUnit(rows)
		if err != nil {
			return nil, 0, err
		}
		units = append(units, *o)
	}
	return units, total, rows.Err()
}

func (r *OrganizationalUnitRepository) FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.OrganizationalUnit, error) {
	return r.findOne(ctx, pick(r.storage, tx), sq.Eq{"o.id": id})
}

func (r *OrganizationalUnitRepository) FindByName(ctx context.Context, tx pgx.Tx, name string) (*entities.OrganizationalUnit, error) {
	return r.findOne(ctx, pick(r.storage, tx), sq.Eq{"o.name": name})
}

func (r *OrganizationalUnitRepository) Create(ctx context.Context, tx pgx.Tx, unit *entities.OrganizationalUnit) (uint64, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	query, args, err := psql.Insert(organizationalUnitTable).
		Columns("name", "manager_id", "created_at").
		Values(unit.Name, unit.ManagerID, sq.Expr("NOW()")).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("ошибка сборки запроса Create organizational_units: %w", err)
	}

	var id uint64
	if err := pick(r.storage, tx).QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return 0, r.mapWriteError(err)
	}
	return id, nil
}

func (r *OrganizationalUnitRepository) Update(ctx context.Context, tx pgx.Tx, unit *entities.OrganizationalUnit) error {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	query, args, err := psql.Update(organizationalUnitTable).
		Set("name", unit.Name).
		Set("manager_id", unit.ManagerID).
		Where(sq.Eq{"id": unit.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("ошибка сборки запроса Update organizational_units: %w", err)
	}
	result, err := pick(r.storage, tx).Exec(ctx, query, args...)
	if err != nil {
		return r.mapWriteError(err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *OrganizationalUnitRepository) ClearManager(ctx context.Context, tx pgx.Tx, managerID uint64) error {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	query, args, err := psql.Update(organizationalUnitTable).Set("manager_id", nil).Where(sq.Eq{"manager_id": managerID}).ToSql()
	if err != nil {
		return fmt.Errorf("ошибка сборки запроса ClearManager organizational_units: %w", err)
	}
	if _, err := pick(r.storage, tx).Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("ошибка снятия руководителя подразделения: %w", err)
	}
	return nil
}

func (r *OrganizationalUnitRepository) Delete(ctx context.Context, tx pgx.Tx, id uint64) error {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	query, args, err := psql.Delete(organizationalUnitTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("ошибка сборки запроса Delete organizational_units: %w", err)
	}
	return execAffectingOne(ctx, pick(r.storage, tx), organizationalUnitTable, query, args...)
}

func (r *OrganizationalUnitRepository) mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return apperrors.NewHttpError(http.StatusBadRequest, "Подразделение с таким названием уже существует", err, nil)
	}
	return fmt.Errorf("ошибка записи organizational_units: %w", err)
}
