package bd

import (
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leave-system/pkg/types"
)

var testAllowed = map[string]string{"status": "l.status", "start_date": "l.start_date"}

func TestApplyListParams(t *testing.T) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	filter := types.Filter{
		Filter:         map[string]interface{}{"status": "PENDING", "unknown": "x"},
		Sort:           map[string]string{"start_date": "desc"},
		Limit:          10,
		Offset:         20,
		WithPagination: true,
	}

	query, args, err := ApplyListParams(psql.Select("l.id").From("employee_leaves l"), filter, testAllowed).ToSql()
	require.NoError(t, err)

	assert.Equal(t, "SELECT l.id FROM employee_leaves l WHERE l.status = $1 ORDER BY l.start_date DESC LIMIT 10 OFFSET 20", query)
	assert.Equal(t, []interface{}{"PENDING"}, args)
}

func TestApplyListParams_MultiValue(t *testing.T) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	filter := types.Filter{Filter: map[string]interface{}{"status": "PENDING,REJECTED"}}

	query, args, err := ApplyListParams(psql.Select("l.id").From("employee_leaves l"), filter, testAllowed).ToSql()
	require.NoError(t, err)

	assert.Equal(t, "SELECT l.id FROM employee_leaves l WHERE l.status IN ($1,$2)", query)
	assert.Equal(t, []interface{}{"PENDING", "REJECTED"}, args)
}

func TestCountFilter_DropsSortAndPagination(t *testing.T) {
	f := CountFilter(types.Filter{Sort: map[string]string{"a": "asc"}, WithPagination: true, Limit: 5})
	assert.Nil(t, f.Sort)
	assert.False(t, f.WithPagination)
}

func TestApplySearch(t *testing.T) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	query, args, err := ApplySearch(psql.Select("u.id").From("users u"), "ivan", "u.email", "u.last_name").ToSql()
	require.NoError(t, err)

	assert.Equal(t, "SELECT u.id FROM users u WHERE (u.email ILIKE $1 OR u.last_name ILIKE $2)", query)
	assert.Equal(t, []interface{}{"%ivan%", "%ivan%"}, args)
}
