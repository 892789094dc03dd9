package travel

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// TimeLayout is how timestamps are stored; it sorts lexically.
const TimeLayout = time.RFC3339

// DemoPassenger owns the seeded tickets.
const DemoPassenger = "0000 000001"

// Seed replaces all rows with demo data. Flight times are relative to now so
// the rescheduling window rules stay meaningful.
func Seed(ctx context.Context, db *sqlx.DB, now time.Time) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{
		"flights", "tickets", "ticket_flights", "boarding_passes",
		"hotels", "car_rentals", "trip_recommendations", "policies",
	} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	at := func(d time.Duration) string { return now.UTC().Add(d).Truncate(time.Minute).Format(TimeLayout) }
	day := 24 * time.Hour

	flights := []Flight{
		{1, "LX0112", "CDG", "BSL", at(2 * day), at(2*day + 90*time.Minute)},
		{2, "LX0112", "CDG", "BSL", at(3 * day), at(3*day + 90*time.Minute)},
		{3, "LX0114", "CDG", "BSL", at(2 * time.Hour), at(3*time.Hour + 30*time.Minute)},
		{4, "LX0318", "ZRH", "JFK", at(5 * day), at(5*day + 9*time.Hour)},
		{5, "LX0820", "BSL", "LHR", at(4 * day), at(4*day + 100*time.Minute)},
	}
	for _, f := range flights {
		_, err := tx.NamedExecContext(ctx, `INSERT INTO flights
			(flight_id, flight_no, departure_airport, arrival_airport, scheduled_departure, scheduled_arrival)
			VALUES (:flight_id, :flight_no, :departure_airport, :arrival_airport, :scheduled_departure, :scheduled_arrival)`, f)
		if err != nil {
			return fmt.Errorf("seed flights: %w", err)
		}
	}

	stmts := []struct {
		query string
		args  []any
	}{
		{"INSERT INTO tickets VALUES (?, ?, ?)", []any{"7240005432906569", "C46E9F", DemoPassenger}},
		{"INSERT INTO ticket_flights VALUES (?, ?, ?, ?)", []any{"7240005432906569", 1, "Economy", 26500}},
		{"INSERT INTO boarding_passes VALUES (?, ?, ?)", []any{"7240005432906569", 1, "18E"}},
		{"INSERT INTO tickets VALUES (?, ?, ?)", []any{"0005432000284", "3B54BB", "8149 604011"}},
		{"INSERT INTO ticket_flights VALUES (?, ?, ?, ?)", []any{"0005432000284", 4, "Business", 98000}},
		{"INSERT INTO boarding_passes VALUES (?, ?, ?)", []any{"0005432000284", 4, "2A"}},
	}
	for _, s := range stmts {
		if _, err := tx.ExecContext(ctx, s.query, s.args...); err != nil {
			return fmt.Errorf("seed tickets: %w", err)
		}
	}

	hotels := []Hotel{
		{ID: 1, Name: "Hilton Basel", Location: "Basel", PriceTier: "Luxury"},
		{ID: 2, Name: "Marriott Zurich", Location: "Zurich", PriceTier: "Upscale"},
		{ID: 3, Name: "Hyatt Regency Basel", Location: "Basel", PriceTier: "Upper Upscale"},
		{ID: 4, Name: "Radisson Blu Lucerne", Location: "Lucerne", PriceTier: "Midscale"},
		{ID: 5, Name: "Best Western Bern", Location: "Bern", PriceTier: "Upper Midscale"},
		{ID: 6, Name: "InterContinental Geneva", Location: "Geneva", PriceTier: "Luxury"},
		{ID: 7, Name: "Sheraton Zurich", Location: "Zurich", PriceTier: "Upper Upscale"},
		{ID: 8, Name: "Holiday Inn Basel", Location: "Basel", PriceTier: "Upper Midscale"},
		{ID: 42, Name: "Grand Hotel Les Trois Rois", Location: "Basel", PriceTier: "Luxury"},
	}
	for _, h := range hotels {
		_, err := tx.NamedExecContext(ctx, `INSERT INTO hotels (id, name, location, price_tier)
			VALUES (:id, :name, :location, :price_tier)`, h)
		if err != nil {
			return fmt.Errorf("seed hotels: %w", err)
		}
	}

	cars := []CarRental{
		{ID: 1, Name: "Europcar", Location: "Basel", PriceTier: "Economy"},
		{ID: 2, Name: "Avis", Location: "Basel", PriceTier: "Luxury"},
		{ID: 3, Name: "Hertz", Location: "Zurich", PriceTier: "Midsize"},
		{ID: 4, Name: "Sixt", Location: "Bern", PriceTier: "SUV"},
		{ID: 5, Name: "Enterprise", Location: "Geneva", PriceTier: "Premium"},
	}
	for _, c := range cars {
		_, err := tx.NamedExecContext(ctx, `INSERT INTO car_rentals (id, name, location, price_tier)
			VALUES (:id, :name, :location, :price_tier)`, c)
		if err != nil {
			return fmt.Errorf("seed car rentals: %w", err)
		}
	}

	trips := []TripRecommendation{
		{ID: 1, Name: "Basel Minster", Location: "Basel", Keywords: "landmark, history", Details: "Visit the historic Basel Minster, a beautiful Gothic cathedral."},
		{ID: 2, Name: "Kunstmuseum Basel", Location: "Basel", Keywords: "art, museum", Details: "Explore the extensive art collection at the Kunstmuseum."},
		{ID: 3, Name: "Zurich Old Town", Location: "Zurich", Keywords: "sightseeing, history", Details: "Take a stroll through the charming streets of Zurich Old Town."},
		{ID: 4, Name: "Lucerne Chapel Bridge", Location: "Lucerne", Keywords: "landmark, history", Details: "Walk across the iconic Chapel Bridge in Lucerne."},
		{ID: 5, Name: "Bern Bear Park", Location: "Bern", Keywords: "wildlife, park", Details: "Visit the Bern Bear Park and see the city's famous bears."},
		{ID: 6, Name: "Rhine Swim", Location: "Basel", Keywords: "outdoor, swimming, summer", Details: "Float down the Rhine with a Wickelfisch dry bag."},
	}
	for _, r := range trips {
		_, err := tx.NamedExecContext(ctx, `INSERT INTO trip_recommendations (id, name, location, keywords, details)
			VALUES (:id, :name, :location, :keywords, :details)`, r)
		if err != nil {
			return fmt.Errorf("seed trip recommendations: %w", err)
		}
	}

	policies := []Policy{
		{"Booking and Cancellation", "Changes to a booking are possible up to 3 hours before departure. Cancellations made more than 24 hours before departure are refunded minus a service fee."},
		{"Flight Changes", "Rebooking to another flight on the same route is free of charge for flex fares. Economy Light fares pay the fare difference plus a change fee."},
		{"Baggage", "Economy fares include one checked bag of up to 23 kg. Business fares include two checked bags of up to 32 kg each."},
		{"Refunds", "Refunds are issued to the original form of payment within 7 business days."},
	}
	for _, p := range policies {
		if _, err := tx.NamedExecContext(ctx, `INSERT INTO policies (section, content) VALUES (:section, :content)`, p); err != nil {
			return fmt.Errorf("seed policies: %w", err)
		}
	}

	return tx.Commit()
}
