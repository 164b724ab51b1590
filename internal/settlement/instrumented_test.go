package settlement

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bitasset-ledger/internal/observability"
)

// One registration per test binary; promauto registers globally.
var testMetrics = observability.NewMetrics("settlement_test")

func TestInstrumented_GlobalSettle(t *testing.T) {
	i := &Instrumented{Metrics: testMetrics}
	before := testutil.ToFloat64(testMetrics.GlobalSettlements)

	a, b := marketIssued(false)
	require.NoError(t, i.GlobalSettle(a, b, swanPrice(), 100))
	assert.Equal(t, before+1, testutil.ToFloat64(testMetrics.GlobalSettlements))

	// The rejected second settlement is not counted.
	require.Error(t, i.GlobalSettle(a, b, swanPrice(), 100))
	assert.Equal(t, before+1, testutil.ToFloat64(testMetrics.GlobalSettlements))
}

func TestInstrumented_RecordForceSettlement(t *testing.T) {
	i := &Instrumented{Metrics: testMetrics}
	settled := testutil.ToFloat64(testMetrics.ForceSettlements)
	throttled := testutil.ToFloat64(testMetrics.VolumeThrottled)

	_, b := marketIssued(false)
	b.Options.MaximumForceSettlementVolume = 200 // 2%, cap 20_000

	require.NoError(t, i.RecordForceSettlement(b, 20_000, 1_000_000))
	assert.ErrorIs(t, i.RecordForceSettlement(b, 1, 1_000_000), ErrVolumeThrottled)

	assert.Equal(t, settled+1, testutil.ToFloat64(testMetrics.ForceSettlements))
	assert.Equal(t, throttled+1, testutil.ToFloat64(testMetrics.VolumeThrottled))

	// Invalid input counts neither way.
	assert.Error(t, i.RecordForceSettlement(b, -1, 1_000_000))
	assert.Equal(t, settled+1, testutil.ToFloat64(testMetrics.ForceSettlements))
	assert.Equal(t, throttled+1, testutil.ToFloat64(testMetrics.VolumeThrottled))
}

func TestInstrumented_NilMetrics(t *testing.T) {
	i := &Instrumented{}

	a, b := marketIssued(false)
	require.NoError(t, i.GlobalSettle(a, b, swanPrice(), 100))
}
