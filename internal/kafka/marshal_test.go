package kafka

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUnwrapPayload(t *testing.T) {
	type payload struct {
		OrderID string `json:"order_id"`
	}
	raw := json.RawMessage(MustMarshal(payload{OrderID: "o-1"}))

	p, err := UnwrapPayload[payload](raw)
	require.NoError(t, err)
	require.Equal(t, "o-1", p.OrderID)

	_, err = UnwrapPayload[payload](json.RawMessage(`{"order_id":`))
	require.Error(t, err)
}

func TestMustMarshalPanicsOnUnsupported(t *testing.T) {
	require.Panics(t, func() { MustMarshal(make(chan int)) })
}
