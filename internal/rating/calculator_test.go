package rating

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpected(t *testing.T) {
	assert.InDelta(t, 0.5, Expected(1500, 1500), 1e-9)
	assert.InDelta(t, 0.76, Expected(1700, 1500), 0.01)
	assert.InDelta(t, 1.0, Expected(1700, 1500)+Expected(1500, 1700), 1e-9)
}

func TestTeamDeltas(t *testing.T) {
	calc := NewCalculator(32, 0, 1500)

	t.Run("equal singles ratings move by half of K", func(t *testing.T) {
		d1, d2 := calc.TeamDeltas([]int{1500}, []int{1500}, true)
		assert.Equal(t, 16, d1)
		assert.Equal(t, -16, d2)
	})

	t.Run("upset win by the weaker side gains more", func(t *testing.T) {
		d1, d2 := calc.TeamDeltas([]int{1400}, []int{1600}, true)
		assert.Equal(t, 24, d1)
		assert.Equal(t, -24, d2)
	})

	t.Run("doubles uses team averages", func(t *testing.T) {
		// Both teams average 1500.
		d1, d2 := calc.TeamDeltas([]int{1400, 1600}, []int{1500, 1500}, false)
		assert.Equal(t, -16, d1)
		assert.Equal(t, 16, d2)
	})
}

func TestApply_RespectsFloor(t *testing.T) {
	calc := NewCalculator(32, 100, 1500)
	assert.Equal(t, 100, calc.Apply(110, -16))
	assert.Equal(t, 1516, calc.Apply(1500, 16))
}
