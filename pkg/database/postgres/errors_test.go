package pg

import (
	"database/sql"
	"testing"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

var errOut = errors.New("translated")

func TestCheckNoRows(t *testing.T) {
	assert.Equal(t, errOut, CheckNoRows(sql.ErrNoRows, errOut))
	assert.Equal(t, errOut, CheckNoRows(errors.Wrap(sql.ErrNoRows, "scan"), errOut))

	other := errors.New("other")
	assert.Equal(t, other, CheckNoRows(other, errOut))
	assert.NoError(t, CheckNoRows(nil, errOut))
}

func TestCheckUniqueViolation(t *testing.T) {
	violation := &pgconn.PgError{Code: pgerrcode.UniqueViolation}
	assert.Equal(t, errOut, CheckUniqueViolation(violation, errOut))
	assert.Equal(t, errOut, CheckUniqueViolation(errors.Wrap(violation, "insert"), errOut))

	other := &pgconn.PgError{Code: pgerrcode.NotNullViolation}
	assert.Equal(t, other, CheckUniqueViolation(other, errOut))
	assert.NoError(t, CheckUniqueViolation(nil, errOut))
}

func TestIsSerializationFailure(t *testing.T) {
	assert.True(t, IsSerializationFailure(&pgconn.PgError{Code: pgerrcode.SerializationFailure}))
	assert.True(t, IsSerializationFailure(errors.Wrap(&pgconn.PgError{Code: pgerrcode.DeadlockDetected}, "update")))
	assert.False(t, IsSerializationFailure(&pgconn.PgError{Code: pgerrcode.UniqueViolation}))
	assert.False(t, IsSerializationFailure(sql.ErrNoRows))
	assert.False(t, IsSerializationFailure(nil))
}
