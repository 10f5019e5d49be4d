package sim

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"stocksim-api/pkg/quote"
)

func TestFetchBatchDeterministicAcrossInstances(t *testing.T) {
	a := New("sim")
	b := New("sim")

	resA, err := a.FetchBatch(context.Background(), []quote.Symbol{"TCS.NS"})
	require.NoError(t, err)
	resB, err := b.FetchBatch(context.Background(), []quote.Symbol{"TCS.NS"})
	require.NoError(t, err)

	require.Equal(t, resA["TCS.NS"].Snapshot.CurrentPrice, resB["TCS.NS"].Snapshot.CurrentPrice)
}

func TestFetchBatchWalksForward(t *testing.T) {
	source := New("sim")

	first, err := source.FetchBatch(context.Background(), []quote.Symbol{"RELIANCE.NS"})
	require.NoError(t, err)
	second, err := source.FetchBatch(context.Background(), []quote.Symbol{"RELIANCE.NS"})
	require.NoError(t, err)

	// The second fetch's baseline is the first fetch's price.
	require.Equal(t, first["RELIANCE.NS"].Snapshot.CurrentPrice, second["RELIANCE.NS"].Snapshot.PreviousClose)
	require.Positive(t, second["RELIANCE.NS"].Snapshot.CurrentPrice)
}

func TestFetchBatchSkipsBlankSymbols(t *testing.T) {
	source := New("sim")

	results, err := source.FetchBatch(context.Background(), []quote.Symbol{"", "  ", "ITC.NS"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.True(t, results["ITC.NS"].OK())
}

func TestFetchBatchCancelled(t *testing.T) {
	source := New("sim")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := source.FetchBatch(ctx, []quote.Symbol{"TCS.NS"})
	require.ErrorIs(t, err, context.Canceled)
}
