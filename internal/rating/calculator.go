package rating

import "math"

// Calculator applies ELO updates. The zero value is not usable; use NewCalculator.
type Calculator struct {
	K       float64
	Floor   int
	Initial int
}

// NewCalculator returns a calculator with the given K factor, rating floor and
// starting rating.
func NewCalculator(k float64, floor, initial int) Calculator {
	return Calculator{K: k, Floor: floor, Initial: initial}
}

// Expected is the probability that a player rated rp beats one rated ro.
func Expected(rp, ro float64) float64 {
	return 1 / (1 + math.Pow(10, (ro-rp)/400))
}

// TeamDeltas returns the rating change for every member of team 1 and team 2.
// Team strength is the average of its members' ratings.
func (c Calculator) TeamDeltas(team1, team2 []int, team1Won bool) (int, int) {
	r1, r2 := average(team1), average(team2)
	actual1 := 0.0
	if team1Won {
		actual1 = 1
	}
	d1 := int(math.Round(c.K * (actual1 - Expected(r1, r2))))
	d2 := int(math.Round(c.K * ((1 - actual1) - Expected(r2, r1))))
	return d1, d2
}

// Apply adds delta to rating without going below the floor.
func (c Calculator) Apply(rating, delta int) int {
	next := rating + delta
	if next < c.Floor {
		return c.Floor
	}
	return next
}

func average(ratings []int) float64 {
	if len(ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	return float64(sum) / float64(len(ratings))
}
