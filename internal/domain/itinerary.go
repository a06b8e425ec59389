package domain

// Represents one day of driving between two confirmed places.
// Day is assigned by Itinerary.Append and is never set by callers.
type Stage struct {
	Day            int            `json:"day"`
	From           string         `json:"from"`
	To             string         `json:"to"`
	DistanceMeters float64        `json:"distance_meters"`
	Point          GeoPoint       `json:"point"`
	Charging       ChargerSummary `json:"charging"`
}

// Itinerary is the ordered, append-only list of stages for one trip.
// Day indices are always 1..N with no gaps.
type Itinerary struct {
	stages []Stage
}

// Append numbers the stage as the next day and stores it.
// It returns the stored copy.
func (it *Itinerary) Append(s Stage) Stage {
	s.Day = len(it.stages) + 1
	it.stages = append(it.stages, s)
	return s
}

func (it *Itinerary) Len() int { return len(it.stages) }

// Stages returns a copy so callers cannot reorder or edit stored stages.
func (it *Itinerary) Stages() []Stage {
	out := make([]Stage, len(it.stages))
	copy(out, it.stages)
	return out
}

func (it *Itinerary) Last() (Stage, bool) {
	if len(it.stages) == 0 {
		return Stage{}, false
	}
	return it.stages[len(it.stages)-1], true
}

func (it *Itinerary) TotalMeters() float64 {
	var total float64
	for _, s := range it.stages {
		total += s.DistanceMeters
	}
	return total
}

// ItineraryFrom rebuilds an itinerary from stored stages, renumbering days
// in the given order.
func ItineraryFrom(stages []Stage) Itinerary {
	var it Itinerary
	for _, s := range stages {
		it.Append(s)
	}
	return it
}
