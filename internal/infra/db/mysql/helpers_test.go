package mysql

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNullable(t *testing.T) {
	assert.Nil(t, nullable(""))
	assert.Equal(t, "A1", nullable("A1"))
}

func TestJSONListRoundTrip(t *testing.T) {
	v, err := jsonList([]string{"I1", "I2"})
	require.NoError(t, err)
	assert.Equal(t, `["I1","I2"]`, v)

	ids := parseJSONList(sql.NullString{String: v.(string), Valid: true})
	assert.Equal(t, []string{"I1", "I2"}, ids)
}

func TestJSONListNil(t *testing.T) {
	v, err := jsonList(nil)
	require.NoError(t, err)
	assert.Nil(t, v)

	assert.Nil(t, parseJSONList(sql.NullString{}))
	assert.Nil(t, parseJSONList(sql.NullString{String: "not json", Valid: true}))
}
