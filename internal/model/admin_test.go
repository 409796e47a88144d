package model

import (
	"errors"
	"testing"

	"github.com/Veraticus/tcg-ledger/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTier(t *testing.T) {
	tests := []struct {
		in      string
		want    Tier
		wantErr bool
	}{
		{in: "free", want: TierFree},
		{in: " Basic ", want: TierBasic},
		{in: "PRO", want: TierPro},
		{in: "gold", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTier(tt.in)
			if tt.wantErr {
				var verr *common.ValidationError
				require.True(t, errors.As(err, &verr), "want a validation error, got %v", err)
				assert.Contains(t, verr.Fields, "tier")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAdminStatistics_TierUsers(t *testing.T) {
	s := AdminStatistics{FreeTierUsers: 7, BasicTierUsers: 3, ProTierUsers: 1}
	assert.Equal(t, 7, s.TierUsers(TierFree))
	assert.Equal(t, 3, s.TierUsers(TierBasic))
	assert.Equal(t, 1, s.TierUsers(TierPro))
	assert.Zero(t, s.TierUsers("gold"))
}

func TestUserName(t *testing.T) {
	assert.Equal(t, "Ash Ketchum", User{FirstName: ptr("Ash"), LastName: ptr("Ketchum")}.Name())
	assert.Equal(t, "Misty", User{FirstName: ptr(" Misty "), LastName: ptr("")}.Name())
	assert.Empty(t, User{}.Name())
}
