package query

import (
	"strconv"
	"strings"
)

// MaxPageSize caps how many records a single page may return.
const MaxPageSize = 1000

// PaginateQuery appends keyset paging over the id column to a query whose
// filter is a single parenthesized WHERE clause, like
//
//	SELECT ... FROM payment_records WHERE (state = $1)
//
// The cursor, when set, excludes ids at or before it in the requested order.
// Arguments for the new placeholders are appended to args.
func PaginateQuery(query string, args []interface{}, cursor Cursor, limit uint64, direction Ordering) (string, []interface{}) {
	var sb strings.Builder
	sb.WriteString(query)

	if len(cursor) > 0 {
		args = append(args, cursor.ToUint64())
		if direction == Descending {
			sb.WriteString(" AND id < $")
		} else {
			sb.WriteString(" AND id > $")
		}
		sb.WriteString(strconv.Itoa(len(args)))
	}

	sb.WriteString(" ORDER BY id ")
	sb.WriteString(direction.sql())

	if limit > 0 {
		args = append(args, limit)
		sb.WriteString(" LIMIT $")
		sb.WriteString(strconv.Itoa(len(args)))
	}

	return sb.String(), args
}

// DefaultPaginationHandler applies opts on top of an ascending, full page
// request, rejecting anything beyond MaxPageSize.
func DefaultPaginationHandler(opts ...Option) (*QueryOptions, error) {
	req := &QueryOptions{
		Supported: CanLimitResults | CanSortBy | CanQueryByCursor,
		SortBy:    Ascending,
		Limit:     MaxPageSize,
	}
	if err := req.Apply(opts...); err != nil || req.Limit > MaxPageSize {
		return nil, ErrQueryNotSupported
	}
	return req, nil
}
