// Package phasedomain holds the pure scheduling rules used when the league changes phase:
// the regular season round robin and playoff seeding.
package phasedomain

// Pairing is one scheduled game between two teams.
type Pairing struct {
	Home int
	Away int
}

// RoundRobin builds a schedule of days in which every team plays at most once per day.
// Rounds of the circle method are repeated, home and away swapped on each repeat, until
// numDays days have been produced. An odd team count gives one team a bye each day.
func RoundRobin(tids []int, numDays int) [][]Pairing {
	if len(tids) < 2 || numDays <= 0 {
		return nil
	}
	const bye = -1 << 31
	ring := append([]int(nil), tids...)
	if len(ring)%2 == 1 {
		ring = append(ring, bye)
	}
	n := len(ring)
	rounds := n - 1

	days := make([][]Pairing, 0, numDays)
	for d := range numDays {
		r := d % rounds
		swap := (d/rounds)%2 == 1
		var day []Pairing
		for i := range n / 2 {
			a := rotated(ring, r, i)
			b := rotated(ring, r, n-1-i)
			if a == bye || b == bye {
				continue
			}
			// Alternate who hosts the fixed team so home games stay balanced.
			if (i == 0 && r%2 == 1) != swap {
				a, b = b, a
			}
			day = append(day, Pairing{Home: a, Away: b})
		}
		days = append(days, day)
	}
	return days
}

// rotated returns slot i of the ring after r rotations. Slot 0 stays fixed.
func rotated(ring []int, r, i int) int {
	if i == 0 {
		return ring[0]
	}
	n := len(ring) - 1
	return ring[1+(i-1+r)%n]
}

// AllStarDay is the day index the exhibition game is inserted before, about 60% of the
// way through the season.
func AllStarDay(numDays int) int {
	if numDays <= 1 {
		return numDays
	}
	return (numDays*3 + 4) / 5
}
