package usecase

// Rating bookkeeping shared by the three synchronizers.
//
// Transitions:
//
//	first sighting, available                 -> baseline
//	first sighting, unavailable (value 0)     -> 1
//	previously flagged, available again       -> baseline
//	previously known, now absent              -> previous + 1
//	previously known, value changed, nonzero  -> previous + 1
//	previously known, value unchanged         -> no write
//
// The counter therefore reads "cycles stale" for absent items and "times
// changed" for present ones. The two meanings are inherited from the data
// already in production tables and must not be unified.

const (
	// DefaultBaselineRating is the rating of a freshly confirmed, available
	// item. Callers may configure a different baseline; it must stay >= 2 so
	// that flagged rows remain distinguishable.
	DefaultBaselineRating = 5

	// RatingFlagged marks an item confirmed absent or unavailable.
	RatingFlagged = 1
)

// firstSightRating returns the rating of a row observed for the first time:
// baseline when the observed value (price or count) is positive, flagged
// when the item is explicitly unavailable.
func firstSightRating(baseline, value int) int {
	if value > 0 {
		return baseline
	}
	return RatingFlagged
}

// changedRating returns the rating of a previously known row whose value
// moved: a zero value collapses the counter, anything else increments it.
func changedRating(previous, value int) int {
	if value == 0 {
		return RatingFlagged
	}
	return previous + 1
}
