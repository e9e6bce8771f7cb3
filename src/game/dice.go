package game

import (
	"fmt"
	"math/rand/v2"
)

// MaxDice bounds a single roll so a typo cannot spin for long.
const MaxDice = 100

// Roll is the outcome of RollRange.
type Roll struct {
	Total int
	Dice  int
	Faces []int
}

// RollRange rolls between minDice and maxDice dice (inclusive) with the given
// number of faces and sums them.
func RollRange(minDice, maxDice, faces int) (Roll, error) {
	return rollRange(rand.IntN, minDice, maxDice, faces)
}

func rollRange(intn func(int) int, minDice, maxDice, faces int) (Roll, error) {
	if faces < 2 {
		return Roll{}, fmt.Errorf("%w: dice need at least 2 faces", ErrInvalidInput)
	}
	if minDice < 0 || minDice > maxDice || maxDice > MaxDice {
		return Roll{}, fmt.Errorf("%w: dice range %d-%d", ErrInvalidInput, minDice, maxDice)
	}

	n := minDice + intn(maxDice-minDice+1)
	r := Roll{Dice: n, Faces: make([]int, n)}
	for i := range r.Faces {
		r.Faces[i] = 1 + intn(faces)
		r.Total += r.Faces[i]
	}
	return r, nil
}
