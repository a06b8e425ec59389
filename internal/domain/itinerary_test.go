package domain

import (
	"testing"
)

func TestItineraryAppendNumbersDays(t *testing.T) {
	var it Itinerary

	it.Append(Stage{From: "Bogotá", To: "Honda", DistanceMeters: 150000, Day: 9})
	it.Append(Stage{From: "Honda", To: "Caucasia", DistanceMeters: 210000})
	it.Append(Stage{From: "Caucasia", To: "Cartagena", DistanceMeters: 300000})

	stages := it.Stages()
	if len(stages) != 3 {
		t.Fatalf("expected 3 stages, got %d", len(stages))
	}
	for i, s := range stages {
		if s.Day != i+1 {
			t.Errorf("stage %d Day = %d, want %d", i, s.Day, i+1)
		}
	}

	if got := it.TotalMeters(); got != 660000 {
		t.Fatalf("TotalMeters = %v, want 660000", got)
	}

	last, ok := it.Last()
	if !ok || last.To != "Cartagena" {
		t.Fatalf("Last = %+v, %v", last, ok)
	}
}

func TestItineraryStagesIsACopy(t *testing.T) {
	var it Itinerary
	it.Append(Stage{From: "A", To: "B"})

	stages := it.Stages()
	stages[0].To = "Z"

	if got, _ := it.Last(); got.To != "B" {
		t.Fatalf("stored stage was mutated: %+v", got)
	}
}

func TestItineraryFromRenumbers(t *testing.T) {
	it := ItineraryFrom([]Stage{{Day: 4, To: "A"}, {Day: 7, To: "B"}})

	stages := it.Stages()
	if stages[0].Day != 1 || stages[1].Day != 2 {
		t.Fatalf("days = %d,%d want 1,2", stages[0].Day, stages[1].Day)
	}
}

func TestEmptyItineraryLast(t *testing.T) {
	var it Itinerary
	if _, ok := it.Last(); ok {
		t.Fatal("expected no last stage")
	}
}
