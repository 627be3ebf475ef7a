package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounty_StateCodePrefix(t *testing.T) {
	assert.Equal(t, "MA", County{CountyCode: "MA01"}.StateCodePrefix())
	assert.Equal(t, "36", County{CountyCode: "36061"}.StateCodePrefix())
	assert.Equal(t, "X", County{CountyCode: "X"}.StateCodePrefix())
	assert.Equal(t, "", County{}.StateCodePrefix())
}

func TestHealthRecord_JSONKeysAreLowerCasedColumnNames(t *testing.T) {
	data, err := json.Marshal(HealthRecord{RawValue: "0.22"})
	require.NoError(t, err)

	var m map[string]string
	require.NoError(t, json.Unmarshal(data, &m))

	// Every column serializes, missing values as empty strings.
	assert.Len(t, m, 14)
	assert.Equal(t, "0.22", m["raw_value"])
	assert.Equal(t, "", m["fipscode"])
	assert.Contains(t, m, "confidence_interval_lower_bound")
	assert.Contains(t, m, "year_span")
}
