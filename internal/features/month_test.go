package features

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonth_StringAndParse(t *testing.T) {
	m, err := ParseMonth("2023-07")
	require.NoError(t, err)
	assert.Equal(t, Month{2023, time.July}, m)
	assert.Equal(t, "2023-07", m.String())

	_, err = ParseMonth("July 2023")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "YYYY-MM")
}

func TestMonth_NextAndBefore(t *testing.T) {
	dec := Month{2022, time.December}
	assert.Equal(t, Month{2023, time.January}, dec.Next())
	assert.True(t, dec.Before(dec.Next()))
	assert.False(t, dec.Next().Before(dec))
	assert.False(t, dec.Before(dec))
	assert.True(t, Month{}.IsZero())
}

func TestMonth_JSON(t *testing.T) {
	b, err := json.Marshal(MonthlyRow{Title: "x", Month: Month{2024, time.March}, Count: 3})
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"x","month":"2024-03","count":3}`, string(b))

	var row MonthlyRow
	require.NoError(t, json.Unmarshal(b, &row))
	assert.Equal(t, Month{2024, time.March}, row.Month)
}
