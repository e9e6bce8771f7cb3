package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRollRangeBounds(t *testing.T) {
	for i := 0; i < 500; i++ {
		r, err := RollRange(2, 4, 6)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, r.Dice, 2)
		assert.LessOrEqual(t, r.Dice, 4)
		assert.Len(t, r.Faces, r.Dice)
		assert.GreaterOrEqual(t, r.Total, r.Dice)
		assert.LessOrEqual(t, r.Total, r.Dice*6)
	}
}

func TestRollRangeDeterministic(t *testing.T) {
	// always picks the highest value
	max := func(n int) int { return n - 1 }
	r, err := rollRange(max, 1, 3, 6)
	require.NoError(t, err)
	assert.Equal(t, Roll{Total: 18, Dice: 3, Faces: []int{6, 6, 6}}, r)
}

func TestRollRangeRejectsBadInput(t *testing.T) {
	_, err := RollRange(3, 1, 6)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = RollRange(1, 2, 1)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = RollRange(1, MaxDice+1, 6)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
