package orders

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanCancel(t *testing.T) {
	allowed := map[Status]bool{StatusPending: true, StatusConfirmed: true}
	for s := range statuses {
		require.Equal(t, allowed[s], CanCancel(s), s)
	}
}

func TestCanTransition(t *testing.T) {
	require.True(t, CanTransition(StatusPending, StatusShipped))
	require.True(t, CanTransition(StatusDelivered, StatusReturned))
	require.True(t, CanTransition(StatusShipped, StatusPending))
	require.True(t, CanTransition(StatusConfirmed, StatusCancelled))

	require.False(t, CanTransition(StatusShipped, StatusShipped))
	require.False(t, CanTransition(StatusProcessing, StatusCancelled))
	require.False(t, CanTransition(StatusPending, "lost"))
}

func TestValidStatus(t *testing.T) {
	require.True(t, ValidStatus("out_for_delivery"))
	require.False(t, ValidStatus("OUT_FOR_DELIVERY"))
	require.False(t, ValidStatus(""))
}
