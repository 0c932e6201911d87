package cart

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeUsesPersistedLayout(t *testing.T) {
	raw, err := Encode([]LineItem{
		{ID: 1, Title: "Apples", Price: 5, Quantity: 2},
		{ID: 2, Title: "Pears", Price: 3.5, Quantity: 1, Image: "pears.png"},
	})
	require.NoError(t, err)

	assert.JSONEq(t, `[
		{"id":1,"title":"Apples","price":5,"quantity":2},
		{"id":2,"title":"Pears","price":3.5,"quantity":1,"image":"pears.png"}
	]`, raw)

	var generic []map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &generic))
	_, isNumber := generic[0]["price"].(float64)
	assert.True(t, isNumber, "price must be a JSON number")
	_, hasImage := generic[0]["image"]
	assert.False(t, hasImage, "empty image is omitted")
}

func TestEncodeEmptyCart(t *testing.T) {
	raw, err := Encode(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", raw)
}

func TestDecodeAcceptsUnknownFields(t *testing.T) {
	items, err := Decode(`[{"id":4,"title":"Jam","price":8,"quantity":2,"vendor":"Ruth"}]`)
	require.NoError(t, err)
	assert.Equal(t, []LineItem{{ID: 4, Title: "Jam", Price: 8, Quantity: 2}}, items)
}

func TestDecodeEmptyArray(t *testing.T) {
	items, err := Decode(`[]`)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestDecodeRejectsCorruptValues(t *testing.T) {
	for _, raw := range []string{
		"{not json",
		"",
		`"harvest"`,
		`[{"id":1,"title":"A","price":5,"quantity":-1}]`,
	} {
		_, err := Decode(raw)
		require.Error(t, err, raw)
		assert.True(t, errors.Is(err, ErrCorruptCart), raw)
	}
}
