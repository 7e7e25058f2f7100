package repository

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMovementID_MarshalJSON(t *testing.T) {
	// IDs above 2^53 lose precision as JSON numbers, so they go out as strings
	id := MovementID(9007199254740993)

	data, err := json.Marshal(id)
	require.NoError(t, err)
	assert.Equal(t, `"9007199254740993"`, string(data))
}

func TestMovementID_UnmarshalJSON(t *testing.T) {
	var id MovementID

	require.NoError(t, json.Unmarshal([]byte(`"42"`), &id))
	assert.Equal(t, MovementID(42), id)

	// Bare numbers are accepted for lenient clients
	require.NoError(t, json.Unmarshal([]byte(`7`), &id))
	assert.Equal(t, MovementID(7), id)

	assert.Error(t, json.Unmarshal([]byte(`"not-a-number"`), &id))
}

func TestMovementID_Scan(t *testing.T) {
	var id MovementID

	require.NoError(t, id.Scan(int64(99)))
	assert.Equal(t, MovementID(99), id)

	require.NoError(t, id.Scan([]byte("123")))
	assert.Equal(t, MovementID(123), id)

	assert.Error(t, id.Scan(3.14))
}

func TestMovement_JSONWireFormat(t *testing.T) {
	m := Movement{ID: 5, ItemID: 1, LotID: 2, Type: TypeIn, Reason: ReasonPurchase}

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"id":"5"`)
}
