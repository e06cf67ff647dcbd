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

const teamTable = "teams"

var teamColumns = []string{
	"t.id", "t.name", "t.description", "t.minimum_attendance", "t.manager_id", "t.organizational_unit_id", "t.created_at",
}

var teamMap = map[string]string{
	"id":                     "t.id",
	"name":                   "t.name",
	"manager_id":             "t.manager_id",
	"organizational_unit_id": "t.organizational_unit_id",
	"created_at":             "t.created_at",
}

type TeamRepositoryInterface interface {
	GetAll(ctx context.Context, filter types.Filter) ([]entities.Team, uint64, error)
	FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Team, error)
	FindByName(ctx context.Context, tx pgx.Tx, name string) (*entities.Team, error)
	// FindByIDForUpdate блокирует строку команды до конца транзакции.
	FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Team, error)
	FindByManagerID(ctx context.Context, tx pgx.Tx, managerID uint64) ([]entities.Team, error)
	FindByUnitID(ctx context.Context, tx pgx.Tx, unitID uint64) ([]entities.Team, error)

	Create(ctx context.Context, tx pgx.Tx, team *entities.Team) (uint64, error)
	Update(ctx context.Context, tx pgx.Tx, team *entities.Team) error
	SetUnit(ctx context.Context, tx pgx.Tx, teamID uint64, unitID *uint64) error
	// ClearManager снимает пользователя с руководства всеми его командами.
	ClearManager(ctx context.Context, tx pgx.Tx, managerID uint64) error
	Delete(ctx context.Context, tx pgx.Tx, id uint64) error
}

type TeamRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewTeamRepository(storage *pgxpool.Pool, logger *zap.Logger) TeamRepositoryInterface {
	return &TeamRepository{storage: storage, logger: logger}
}

func scanTeam(row pgx.Row) (*entities.Team, error) {
	var t entities.Team
	err := row.Scan(&t.ID, &t.Name, &t.Description, &t.MinimumAttendance, &t.ManagerID, &t.OrganizationalUnitID, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования teams: %w", err)
	}
	return &t, nil
}

func (r *TeamRepository) selectTeams() sq.SelectBuilder {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar).Select(teamColumns...).From(teamTable + " t")
}

func (r *TeamRepository) findOne(ctx context.Context, querier Querier, where sq.Eq, forUpdate bool) (*entities.Team, error) {
	builder := r.selectTeams().Where(where)
	if forUpdate {
		builder = builder.Suffix("FOR UPDATE")
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки SQL для teams: %w", err)
	}
	return scanTeam(querier.QueryRow(ctx, query, args...))
}

func (r *TeamRepository) findMany(ctx context.Context, querier Querier, builder sq.SelectBuilder) ([]entities.Team, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки SQL для teams: %w", err)
	}
	rows, err := querier.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения teams: %w", err)
	}
	defer rows.Close()

	teams := make([]entities.Team, 0)
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, err
		}
		teams = append(teams, *t)
	}
	return teams, rows.Err()
}

func (r *TeamRepository) GetAll(ctx context.Context, filter types.Filter) ([]entities.Team, uint64, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	countBuilder := bd.ApplySearch(psql.Select("COUNT(t.id)").From(teamTable+" t"), filter.Search, "t.name")
	countBuilder = bd.ApplyListParams(countBuilder, bd.CountFilter(filter), teamMap)
	countQuery, countArgs, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, err
	}

	var total uint64
	if err := r.storage.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчета команд: %w", err)
	}
	if total == 0 {
		return []entities.Team{}, 0, nil
	}

	builder := bd.ApplySearch(r.selectTeams(), filter.Search, "t.name")
	if len(filter.Sort) == 0 {
		builder = builder.OrderBy("t.name")
	}
	teams, err := r.findMany(ctx, r.storage, bd.ApplyListParams(builder, filter, teamMap))
	return teams, total, err
}

func (r *TeamRepository) FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Team, error) {
	return r.findOne(ctx, pick(r.storage, tx), sq.Eq{"t.id": id}, false)
}

func (r *TeamRepository) FindByName(ctx context.Context, tx pgx.Tx, name string) (*entities.Team, error) {
	return r.findOne(ctx, pick(r.storage, tx), sq.Eq{"t.name": name}, false)
}

func (r *TeamRepository) FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Team, error) {
	return r.findOne(ctx, pick(r.storage, tx), sq.Eq{"t.id": id}, true)
}

func (r *TeamRepository) FindByManagerID(ctx context.Context, tx pgx.Tx, managerID uint64) ([]entities.Team, error) {
	return r.findMany(ctx, pick(r.storage, tx), r.selectTeams().Where(sq.Eq{"t.manager_id": managerID}).OrderBy("t.id"))
}

func (r *TeamRepository) FindByUnitID(ctx context.Context, tx pgx.Tx, unitID uint64) ([]entities.Team, error) {
	return r.findMany(ctx, pick(r.storage, tx), r.selectTeams().Where(sq.Eq{"t.organizational_unit_id": unitID}).OrderBy("t.name"))
}

func (r *TeamRepository) Create(ctx context.Context, tx pgx.Tx, team *entities.Team) (uint64, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	query, args, err := psql.Insert(teamTable).
		Columns("name", "description", "minimum_attendance", "manager_id", "organizational_unit_id", "created_at").
		Values(team.Name, team.Description, team.MinimumAttendance, team.ManagerID, team.OrganizationalUnitID, sq.Expr("NOW()")).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("ошибка сборки запроса Create teams: %w", err)
	}

	var id uint64
	if err := pick(r.storage, tx).QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return 0, r.mapWriteError(err)
	}
	return id, nil
}

func (r *TeamRepository) Update(ctx context.Context, tx pgx.Tx, team *entities.Team) error {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	query, args, err := psql.Update(teamTable).
		Set("name", team.Name).
		Set("description", team.Description).
		Set("minimum_attendance", team.MinimumAttendance).
		Set("manager_id", team.ManagerID).
		Set("organizational_unit_id", team.OrganizationalUnitID).
		Where(sq.Eq{"id": team.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("ошибка сборки запроса Update teams: %w", err)
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

func (r *TeamRepository) SetUnit(ctx context.Context, tx pgx.Tx, teamID uint64, unitID *uint64) error {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	query, args, err := psql.Update(teamTable).Set("organizational_unit_id", unitID).Where(sq.Eq{"id": teamID}).ToSql()
	if err != nil {
		return fmt.Errorf("ошибка сборки запроса SetUnit teams: %w", err)
	}
	return execAffectingOne(ctx, pick(r.storage, tx), teamTable, query, args...)
}

func (r *TeamRepository) ClearManager(ctx context.Context, tx pgx.Tx, managerID uint64) error {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	query, args, err := psql.Update(teamTable).Set("manager_id", nil).Where(sq.Eq{"manager_id": managerID}).ToSql()
	if err != nil {
		return fmt.Errorf("ошибка сборки запроса ClearManager teams: %w", err)
	}
	if _, err := pick(r.storage, tx).Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("ошибка снятия руководителя команды: %w", err)
	}
	return nil
}

func (r *TeamRepository) Delete(ctx context.Context, tx pgx.Tx, id uint64) error {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	query, args, err := psql.Delete(teamTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("ошибка сборки запроса Delete teams: %w", err)
	}
	return execAffectingOne(ctx, pick(r.storage, tx), teamTable, query, args...)
}

func (r *TeamRepository) mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return apperrors.NewHttpError(http.StatusBadRequest, "Команда с таким названием уже существует", err, nil)
	}
	return fmt.Errorf("ошибка записи teams: %w", err)
}
