package memory

import (
	"time"

	"github.com/courtsync/booking/internal/domain/court"
	"github.com/courtsync/booking/internal/domain/venue"
)

const (
	ComplexIDPalermo  = "cx-palermo-padel"
	ComplexIDBelgrano = "cx-belgrano-tenis"

	CourtIDPalermo1  = "ct-palermo-1"
	CourtIDPalermo2  = "ct-palermo-2"
	CourtIDBelgrano1 = "ct-belgrano-central"
)

var seedEpoch = time.Date(2026, time.January, 5, 12, 0, 0, 0, time.UTC)

func SeedComplexes() []venue.Complex {
	return []venue.Complex{
		{
			ID:        ComplexIDPalermo,
			Name:      "Palermo Padel Club",
			Timezone:  "America/Argentina/Buenos_Aires",
			CreatedAt: seedEpoch,
		},
		{
			ID:        ComplexIDBelgrano,
			Name:      "Belgrano Tenis",
			Timezone:  "America/Argentina/Buenos_Aires",
			CreatedAt: seedEpoch,
		},
	}
}

func SeedCourts() []court.Court {
	everyDay := func(start, end int) court.Schedule {
		s := make(court.Schedule, 7)
		for day := time.Sunday; day <= time.Saturday; day++ {
			s[day] = []court.OpenInterval{{StartMinute: start, EndMinute: end}}
		}

		return s
	}

	return []court.Court{
		{
			ID:                  CourtIDPalermo1,
			ComplexID:           ComplexIDPalermo,
			Name:                "Cancha 1",
			SlotDurationMinutes: 60,
			Schedule:            everyDay(8*60, 22*60),
			CreatedAt:           seedEpoch,
		},
		{
			ID:                  CourtIDPalermo2,
			ComplexID:           ComplexIDPalermo,
			Name:                "Cancha 2",
			SlotDurationMinutes: 90,
			Schedule:            everyDay(9*60, 21*60),
			CreatedAt:           seedEpoch,
		},
		{
			ID:                  CourtIDBelgrano1,
			ComplexID:           ComplexIDBelgrano,
			Name:                "Cancha Central",
			SlotDurationMinutes: 60,
			Schedule:            everyDay(7*60, 23*60),
			CreatedAt:           seedEpoch,
		},
	}
}

func SeedPriceRules() []court.PriceRule {
	allWeek := []time.Weekday{
		time.Sunday, time.Monday, time.Tuesday, time.Wednesday,
		time.Thursday, time.Friday, time.Saturday,
	}

	return []court.PriceRule{
		{ID: "pr-palermo1-day", CourtID: CourtIDPalermo1, Weekdays: allWeek, StartMinute: 8 * 60, EndMinute: 18 * 60, Price: 100000, Deposit: 20000, CreatedAt: seedEpoch},
		{ID: "pr-palermo1-night", CourtID: CourtIDPalermo1, Weekdays: allWeek, StartMinute: 18 * 60, EndMinute: 22 * 60, Price: 150000, Deposit: 30000, CreatedAt: seedEpoch},
		{ID: "pr-palermo2-flat", CourtID: CourtIDPalermo2, Weekdays: allWeek, StartMinute: 9 * 60, EndMinute: 21 * 60, Price: 135000, Deposit: 27000, CreatedAt: seedEpoch},
		{ID: "pr-belgrano1-day", CourtID: CourtIDBelgrano1, Weekdays: allWeek, StartMinute: 7 * 60, EndMinute: 17 * 60, Price: 90000, Deposit: 18000, CreatedAt: seedEpoch},
		{ID: "pr-belgrano1-night", CourtID: CourtIDBelgrano1, Weekdays: allWeek, StartMinute: 17 * 60, EndMinute: 23 * 60, Price: 120000, Deposit: 24000, CreatedAt: seedEpoch},
	}
}

// SeedVenueRepository builds a venue repository with the seed complexes
// and its court index already registered against the seed courts.
func SeedVenueRepository() *VenueRepository {
	repo := NewVenueRepository(SeedComplexes())
	for _, c := range SeedCourts() {
		repo.RegisterCourt(c.ComplexID, c.ID)
	}

	return repo
}
