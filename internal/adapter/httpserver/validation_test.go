package httpserver

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProductID(t *testing.T) {
	id, verr := ParseProductID("2")
	require.Nil(t, verr)
	assert.Equal(t, 2, id)

	id, verr = ParseProductID("-1")
	require.Nil(t, verr)
	assert.Equal(t, -1, id)

	_, verr = ParseProductID("")
	require.NotNil(t, verr)
	assert.Equal(t, "REQUIRED", verr.Code)

	_, verr = ParseProductID("1.5")
	require.NotNil(t, verr)
	assert.Equal(t, "INVALID_FORMAT", verr.Code)
}

func TestValidateProductName(t *testing.T) {
	assert.Nil(t, ValidateProductName("Laptop"))
	assert.Nil(t, ValidateProductName(strings.Repeat("é", 200)))

	verr := ValidateProductName(strings.Repeat("x", 201))
	require.NotNil(t, verr)
	assert.Equal(t, "TOO_LONG", verr.Code)
	assert.Equal(t, "name", verr.Field)
}
