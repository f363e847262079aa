// AngelaMos | 2026
// plan_test.go

package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLimits(t *testing.T) {
	tests := []struct {
		plan Plan
		want Limits
	}{
		{Starter, Limits{Users: 5, Medicines: 500, Prescriptions: 1000, StorageMB: 1024}},
		{Professional, Limits{Users: 25, Medicines: 5000, Prescriptions: 10000, StorageMB: 10240}},
		{Enterprise, Limits{Users: 100, Medicines: 50000, Prescriptions: 100000, StorageMB: 102400}},
	}

	for _, tt := range tests {
		t.Run(string(tt.plan), func(t *testing.T) {
			got, err := DefaultLimits(tt.plan)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := DefaultLimits("platinum")
	assert.Error(t, err)
}

func TestLimitsIncreaseWithPlan(t *testing.T) {
	s, _ := DefaultLimits(Starter)
	p, _ := DefaultLimits(Professional)
	e, _ := DefaultLimits(Enterprise)

	for _, r := range []Resource{Users, Medicines, Prescriptions} {
		assert.Less(t, s.For(r), p.For(r), r)
		assert.Less(t, p.For(r), e.For(r), r)
	}
}

func TestNewUsage_ExceededAtLimit(t *testing.T) {
	assert.False(t, NewUsage(4, 5).Exceeded)
	assert.True(t, NewUsage(5, 5).Exceeded)
	assert.True(t, NewUsage(6, 5).Exceeded)
}
