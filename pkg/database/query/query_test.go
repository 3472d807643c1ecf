package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaginateQuery(t *testing.T) {
	base := "SELECT id FROM table WHERE (state = $1)"

	query, opts := PaginateQuery(base, []interface{}{1}, nil, 0, Ascending)
	assert.Equal(t, base+" ORDER BY id ASC", query)
	assert.Len(t, opts, 1)

	query, opts = PaginateQuery(base, []interface{}{1}, ToCursor(10), 5, Descending)
	assert.Equal(t, base+" AND id < $2 ORDER BY id DESC LIMIT $3", query)
	require.Len(t, opts, 3)
	assert.EqualValues(t, 10, opts[1])
	assert.EqualValues(t, 5, opts[2])

	query, opts = PaginateQuery(base, []interface{}{1}, ToCursor(10), 0, Ascending)
	assert.Equal(t, base+" AND id > $2 ORDER BY id ASC", query)
	assert.Len(t, opts, 2)
}

func TestDefaultPaginationHandler(t *testing.T) {
	req, err := DefaultPaginationHandler()
	require.NoError(t, err)
	assert.EqualValues(t, MaxPageSize, req.Limit)
	assert.Equal(t, Ascending, req.SortBy)

	req, err = DefaultPaginationHandler(WithLimit(10), WithDirection(Descending), WithCursor(ToCursor(3)))
	require.NoError(t, err)
	assert.EqualValues(t, 10, req.Limit)
	assert.Equal(t, Descending, req.SortBy)
	assert.EqualValues(t, 3, req.Cursor.ToUint64())

	_, err = DefaultPaginationHandler(WithLimit(MaxPageSize + 1))
	assert.Equal(t, ErrQueryNotSupported, err)

	_, err = DefaultPaginationHandler(WithCursor([]byte{1}))
	assert.Equal(t, ErrQueryNotSupported, err)
}

func TestCursorBase58(t *testing.T) {
	cursor := ToCursor(12345)

	decoded, err := CursorFromBase58(cursor.ToBase58())
	require.NoError(t, err)
	assert.EqualValues(t, 12345, decoded.ToUint64())

	decoded, err = CursorFromBase58("")
	require.NoError(t, err)
	assert.Empty(t, decoded)

	_, err = CursorFromBase58("0OIl")
	assert.Error(t, err)

	_, err = CursorFromBase58(ToCursor(1)[:4].ToBase58())
	assert.Error(t, err)
}

func TestOrdering(t *testing.T) {
	ordering, err := ToOrdering("desc")
	require.NoError(t, err)
	assert.Equal(t, Descending, ordering)

	_, err = ToOrdering("sideways")
	assert.Error(t, err)

	ordering, err = ToOrdering(" Ascending ")
	require.NoError(t, err)
	assert.Equal(t, Ascending, ordering)

	assert.Equal(t, Descending, ToOrderingWithFallback("", Descending))
	assert.Equal(t, "asc", Ascending.String())
	assert.Equal(t, "desc", Descending.String())
}
