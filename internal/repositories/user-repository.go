package repositories

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

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

const userTable = "users"

var userColumns = []string{
	"u.id", "u.first_name", "u.last_name", "u.email", "u.phone", "u.gender", "u.password",
	"u.role", "u.leave_days", "u.external_activities_limit", "u.on_leave", "u.return_date",
	"u.team_id", "u.organizational_unit_id", "u.telegram_chat_id", "u.created_at", "u.updated_at",
}

// userMap - БЕЛЫЙ СПИСОК полей фильтрации и сортировки
var userMap = map[string]string{
	"id":                     "u.id",
	"email":                  "u.email",
	"last_name":              "u.last_name",
	"role":                   "u.role",
	"on_leave":               "u.on_leave",
	"team_id":                "u.team_id",
	"organizational_unit_id": "u.organizational_unit_id",
	"created_at":             "u.created_at",
}

type UserRepositoryInterface interface {
	GetAll(ctx context.Context, filter types.Filter) ([]entities.User, uint64, error)
	FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.User, error)
	FindByEmail(ctx context.Context, tx pgx.Tx, email string) (*entities.User, error)
	// FindByIDForUpdate блокирует строку пользователя до конца транзакции.
	FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id uint64) (*entities.User, error)
	FindByTeamID(ctx context.Context, tx pgx.Tx, teamID uint64) ([]entities.User, error)
	FindByUnitID(ctx context.Context, tx pgx.Tx, unitID uint64) ([]entities.User, error)
	FindReturnDue(ctx context.Context, tx pgx.Tx, now time.Time) ([]entities.User, error)
	FindByTelegramChatID(ctx context.Context, tx pgx.Tx, chatID int64) (*entities.User, error)

	Create(ctx context.Context, tx pgx.Tx, user *entities.User) (uint64, error)
	Update(ctx context.Context, tx pgx.Tx, user *entities.User) error
	UpdatePassword(ctx context.Context, tx pgx.Tx, userID uint64, passwordHash string) error
	UpdateLeaveState(ctx context.Context, tx pgx.Tx, userID uint64, onLeave bool, returnDate *time.Time) error
	SetTeam(ctx context.Context, tx pgx.Tx, userID uint64, teamID *uint64) error
	SetUnit(ctx context.Context, tx pgx.Tx, userID uint64, unitID *uint64) error
	// SetTelegramChatID привязывает чат Telegram; nil отвязывает.
	SetTelegramChatID(ctx context.Context, tx pgx.Tx, userID uint64, chatID *int64) error
	// MoveTeamMembersToUnit переводит всех участников команды в подразделение и возвращает их.
	MoveTeamMembersToUnit(ctx context.Context, tx pgx.Tx, teamID uint64, unitID uint64) ([]entities.User, error)
	ResetLeaveDays(ctx context.Context, tx pgx.Tx, days float64) ([]entities.User, error)
	ResetExternalActivities(ctx context.Context, tx pgx.Tx, limit int) ([]entities.User, error)
	Delete(ctx context.Context, tx pgx.Tx, id uint64) error
}

type UserRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewUserRepository(storage *pgxpool.Pool, logger *zap.Logger) UserRepositoryInterface {
	return &UserRepository{storage: storage, logger: logger}
}

func scanUser(row pgx.Row) (*entities.User, error) {
	var u entities.User
	err := row.Scan(
		&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Phone, &u.Gender, &u.Password,
		&u.Role, &u.LeaveDays, &u.ExternalActivitiesLimit, &u.OnLeave, &u.ReturnDate,
		&u.TeamID, &u.OrganizationalUnitID, &u.TelegramChatID, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования users: %w", err)
	}
	return &u, nil
}

func collectUsers(rows pgx.Rows) ([]entities.User, error) {
	defer rows.Close()
	users := make([]entities.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *UserRepository) selectUsers() sq.SelectBuilder {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar).Select(userColumns...).From(userTable + " u")
}

func (r *UserRepository) findOne(ctx context.Context, querier Querier, where sq.Eq, forUpdate bool) (*entities.User, error) {
	builder := r.selectUsers().Where(where)
	if forUpdate {
		builder = builder.Suffix("FOR UPDATE")
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки SQL для users: %w", err)
	}
	return scanUser(querier.QueryRow(ctx, query, args...))
}

func (r *UserRepository) findMany(ctx context.Context, querier Querier, where sq.Sqlizer) ([]entities.User, error) {
	query, args, err := r.selectUsers().Where(where).OrderBy("u.id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки SQL для users: %w", err)
	}
	rows, err := querier.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения users: %w", err)
	}
	return collectUsers(rows)
}

func (r *UserRepository) GetAll(ctx context.Context, filter types.Filter) ([]entities.User, uint64, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	countBuilder := psql.Select("COUNT(u.id)").From(userTable + " u")
	countBuilder = bd.ApplySearch(countBuilder, filter.Search, "u.email", "u.first_name", "u.last_name")
	countBuilder = bd.ApplyListParams(countBuilder, bd.CountFilter(filter), userMap)

	countQuery, countArgs, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	if err := r.storage.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчета пользователей: %w", err)
	}
	if total == 0 {
		return []entities.User{}, 0, nil
	}

	builder := bd.ApplySearch(r.selectUsers(), filter.Search, "u.email", "u.first_name", "u.last_name")
	if len(filter.Sort) == 0 {
		builder = builder.OrderBy("u.id DESC")
	}
	builder = bd.ApplyListParams(builder, filter, userMap)

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	r.logger.Debug("Выполнение SQL-запроса пользователей", zap.String("query", query), zap.Any("args", args))

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка получения пользователей: %w", err)
	}
	users, err := collectUsers(rows)
	return users, total, err
}

func (r *UserRepository) FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.User, error) {
	return r.findOne(ctx, pick(r.storage, tx), sq.Eq{"u.id": id}, false)
}

func (r *UserRepository) FindByEmail(ctx context.Context, tx pgx.Tx, email string) (*entities.User, error) {
	return r.findOne(ctx, pick(r.storage, tx), sq.Eq{"u.email": email}, false)
}

func (r *UserRepository) FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id uint64) (*entities.User, error) {
	return r.findOne(ctx, pick(r.storage, tx), sq.Eq{"u.id": id}, true)
}

func (r *UserRepository) FindByTeamID(ctx context.Context, tx pgx.Tx, teamID uint64) ([]entities.User, error) {
	return r.findMany(ctx, pick(r.storage, tx), sq.Eq{"u.team_id": teamID})
}

func (r *UserRepository) FindByUnitID(ctx context.Context, tx pgx.Tx, unitID uint64) ([]entities.User, error) {
	return r.findMany(ctx, pick(r.storage, tx), sq.Eq{"u.organizational_unit_id": unitID})
}

// FindReturnDue - пользователи в отпуске, чья дата выхода уже наступила.
func (r *UserRepository) FindReturnDue(ctx context.Context, tx pgx.Tx, now time.Time) ([]entities.User, error) {
	return r.findMany(ctx, pick(r.storage, tx), sq.And{
		sq.NotEq{"u.return_date": nil},
		sq.LtOrEq{"u.return_date": now},
	})
}

func (r *UserRepository) FindByTelegramChatID(ctx context.Context, tx pgx.Tx, chatID int64) (*entities.User, error) {
	return r.findOne(ctx, pick(r.storage, tx), sq.Eq{"u.telegram_chat_id": chatID}, false)
}

func (r *UserRepository) Create(ctx context.Context, tx pgx.Tx, user *entities.User) (uint64, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	query, args, err := psql.Insert(userTable).
		Columns("first_name", "last_name", "email", "phone", "gender", "password", "role",
			"leave_days", "external_activities_limit", "on_leave", "team_id", "organizational_unit_id",
			"created_at", "updated_at").
		Values(user.FirstName, user.LastName, user.Email, user.Phone, user.Gender, user.Password, user.Role,
			user.LeaveDays, user.ExternalActivitiesLimit, user.OnLeave, user.TeamID, user.OrganizationalUnitID,
			sq.Expr("NOW()"), sq.Expr("NOW()")).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("ошибка сборки запроса Create users: %w", err)
	}

	var id uint64
	if err := pick(r.storage, tx).QueryRow(ctx, query, args...).Scan(&id); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, apperrors.NewHttpError(http.StatusBadRequest, "Пользователь с таким email уже существует", err, nil)
		}
		return 0, fmt.Errorf("ошибка создания users: %w", err)
	}
	return id, nil
}

func (r *UserRepository) Update(ctx context.Context, tx pgx.Tx, user *entities.User) error {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	query, args, err := psql.Update(userTable).
		Set("first_name", user.FirstName).
		Set("last_name", user.LastName).
		Set("email", user.Email).
		Set("phone", user.Phone).
		Set("gender", user.Gender).
		Set("role", user.Role).
		Set("leave_days", user.LeaveDays).
		Set("external_activities_limit", user.ExternalActivitiesLimit).
		Set("on_leave", user.OnLeave).
		Set("return_date", user.ReturnDate).
		Set("team_id", user.TeamID).
		Set("organizational_unit_id", user.OrganizationalUnitID).
		Set("telegram_chat_id", user.TelegramChatID).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": user.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("ошибка сборки запроса Update users: %w", err)
	}
	return r.exec(ctx, tx, query, args...)
}

func (r *UserRepository) UpdatePassword(ctx context.Context, tx pgx.Tx, userID uint64, passwordHash string) error {
	return r.updateColumns(ctx, tx, userID, map[string]interface{}{"password": passwordHash})
}

func (r *UserRepository) SetTelegramChatID(ctx context.Context, tx pgx.Tx, userID uint64, chatID *int64) error {
	return r.updateColumns(ctx, tx, userID, map[string]interface{}{"telegram_chat_id": chatID})
}

func (r *UserRepository) UpdateLeaveState(ctx context.Context, tx pgx.Tx, userID uint64, onLeave bool, returnDate *time.Time) error {
	return r.updateColumns(ctx, tx, userID, map[string]interface{}{"on_leave": onLeave, "return_date": returnDate})
}

func (r *UserRepository) SetTeam(ctx context.Context, tx pgx.Tx, userID uint64, teamID *uint64) error {
	return r.updateColumns(ctx, tx, userID, map[string]interface{}{"team_id": teamID})
}

func (r *UserRepository) SetUnit(ctx context.Context, tx pgx.Tx, userID uint64, unitID *uint64) error {
	return r.updateColumns(ctx, tx, userID, map[string]interface{}{"organizational_unit_id": unitID})
}

func (r *UserRepository) MoveTeamMembersToUnit(ctx context.Context, tx pgx.Tx, teamID uint64, unitID uint64) ([]entities.User, error) {
	return r.bulkUpdate(ctx, tx,
		sq.StatementBuilder.PlaceholderFormat(sq.Dollar).Update(userTable+" u").
			Set("organizational_unit_id", unitID).
			Set("updated_at", sq.Expr("NOW()")).
			Where(sq.Eq{"u.team_id": teamID}),
	)
}

func (r *UserRepository) ResetLeaveDays(ctx context.Context, tx pgx.Tx, days float64) ([]entities.User, error) {
	return r.bulkUpdate(ctx, tx,
		sq.StatementBuilder.PlaceholderFormat(sq.Dollar).Update(userTable+" u").
			Set("leave_days", days).
			Set("updated_at", sq.Expr("NOW()")),
	)
}

func (r *UserRepository) ResetExternalActivities(ctx context.Context, tx pgx.Tx, limit int) ([]entities.User, error) {
	return r.bulkUpdate(ctx, tx,
		sq.StatementBuilder.PlaceholderFormat(sq.Dollar).Update(userTable+" u").
			Set("external_activities_limit", limit).
			Set("updated_at", sq.Expr("NOW()")),
	)
}

func (r *UserRepository) Delete(ctx context.Context, tx pgx.Tx, id uint64) error {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	query, args, err := psql.Delete(userTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("ошибка сборки запроса Delete users: %w", err)
	}
	return r.exec(ctx, tx, query, args...)
}

func (r *UserRepository) updateColumns(ctx context.Context, tx pgx.Tx, userID uint64, values map[string]interface{}) error {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	query, args, err := psql.Update(userTable).
		SetMap(values).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("ошибка сборки запроса обновления users: %w", err)
	}
	return r.exec(ctx, tx, query, args...)
}

// bulkUpdate выполняет массовый UPDATE и возвращает затронутые строки.
func (r *UserRepository) bulkUpdate(ctx context.Context, tx pgx.Tx, builder sq.UpdateBuilder) ([]entities.User, error) {
	query, args, err := builder.Suffix("RETURNING " + joinColumns(userColumns)).ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки массового обновления users: %w", err)
	}
	rows, err := pick(r.storage, tx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка массового обновления users: %w", err)
	}
	return collectUsers(rows)
}

func (r *UserRepository) exec(ctx context.Context, tx pgx.Tx, query string, args ...interface{}) error {
	result, err := pick(r.storage, tx).Exec(ctx, query, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperrors.NewHttpError(http.StatusBadRequest, "Пользователь с таким email уже существует", err, nil)
		}
		return fmt.Errorf("ошибка изменения users: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
