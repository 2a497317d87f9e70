package rating

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApply(t *testing.T) {
	tests := []struct {
		name       string
		winner     int
		loser      int
		wantWinner int
		wantLoser  int
	}{
		{"fresh players", 1000, 1000, 1025, 985},
		{"underdog win", 800, 1400, 825, 1385},
		{"loser floors at zero", 1200, 10, 1225, 0},
		{"loser already at zero", 1200, 0, 1225, 0},
		{"loser lands exactly on zero", 500, 15, 525, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotWinner, gotLoser := Apply(tt.winner, tt.loser)
			assert.Equal(t, tt.wantWinner, gotWinner)
			assert.Equal(t, tt.wantLoser, gotLoser)
		})
	}
}
