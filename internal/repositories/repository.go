package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"

	"leave-system/pkg/constants"
	apperrors "leave-system/pkg/errors"
)

// Общие операции для таблиц заявок (employee_leaves, external_authorizations,
// team_exit_permissions, team_leaves): у всех есть id, status и колонка владельца.

type requestTable struct {
	Name     string
	OwnerCol string
}

func joinColumns(columns []string) string {
	return strings.Join(columns, ", ")
}

// setRequestStatus меняет статус заявки.
func setRequestStatus(ctx context.Context, q Querier, t requestTable, id uint64, status constants.Status) error {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	query, args, err := psql.Update(t.Name).
		Set("status", status).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("ошибка сборки запроса статуса %s: %w", t.Name, err)
	}
	return execAffectingOne(ctx, q, t.Name, query, args...)
}

// deleteOtherPending удаляет все PENDING-заявки владельца, кроме exceptID. Возвращает число удалённых.
func deleteOtherPending(ctx context.Context, q Querier, t requestTable, ownerID, exceptID uint64) (int64, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	query, args, err := psql.Delete(t.Name).
		Where(sq.Eq{t.OwnerCol: ownerID, "status": constants.StatusPending}).
		Where(sq.NotEq{"id": exceptID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("ошибка сборки запроса удаления %s: %w", t.Name, err)
	}
	result, err := q.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("ошибка удаления ожидающих заявок %s: %w", t.Name, err)
	}
	return result.RowsAffected(), nil
}

func deleteRequest(ctx context.Context, q Querier, t requestTable, id uint64) error {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	query, args, err := psql.Delete(t.Name).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("ошибка сборки запроса удаления %s: %w", t.Name, err)
	}
	return execAffectingOne(ctx, q, t.Name, query, args...)
}

func execAffectingOne(ctx context.Context, q Querier, table, query string, args ...interface{}) error {
	result, err := q.Exec(ctx, query, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return fmt.Errorf("%s: нарушена ссылочная целостность: %w", table, apperrors.ErrBadRequest)
		}
		return fmt.Errorf("ошибка изменения %s: %w", table, err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
