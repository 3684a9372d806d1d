package storage

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"reflect"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

// arrayConverter passes string slices through to the driver
// the way the pgx driver accepts them.
type arrayConverter struct{}

func (arrayConverter) ConvertValue(v any) (driver.Value, error) {
	if vs, ok := v.([]string); ok {
		return vs, nil
	}
	return driver.DefaultParameterConverter.ConvertValue(v)
}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.ValueConverterOption(arrayConverter{}))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

// jsonArg matches a JSON document argument regardless of formatting.
type jsonArg string

func (a jsonArg) Match(v driver.Value) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	var got, want any
	if json.Unmarshal([]byte(s), &got) != nil {
		return false
	}
	if json.Unmarshal([]byte(a), &want) != nil {
		return false
	}
	return reflect.DeepEqual(got, want)
}
