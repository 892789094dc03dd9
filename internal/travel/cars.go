package travel

import (
	"context"
	"fmt"

	"github.com/aretw0/switchboard/pkg/domain"
)

var (
	searchCarRentalsSpec = domain.Tool{
		Name:        "search_car_rentals",
		Description: "Search for car rentals based on location, name, price tier, start date, and end date.",
		Parameters: params(nil, map[string]any{
			"location":   str("pick-up city"),
			"name":       str("rental company"),
			"price_tier": str("Economy, Midsize, SUV, Premium or Luxury"),
			"start_date": str("rental start, YYYY-MM-DD"),
			"end_date":   str("rental end, YYYY-MM-DD"),
		}),
	}
	bookCarRentalSpec = domain.Tool{
		Name:        "book_car_rental",
		Description: "Book a car rental by its ID.",
		Parameters:  params([]string{"rental_id"}, map[string]any{"rental_id": integer("car rental to book")}),
	}
	updateCarRentalSpec = domain.Tool{
		Name:        "update_car_rental",
		Description: "Update a car rental's start and end dates by its ID.",
		Parameters: params([]string{"rental_id"}, map[string]any{
			"rental_id":  integer("car rental to update"),
			"start_date": str("new start date, YYYY-MM-DD"),
			"end_date":   str("new end date, YYYY-MM-DD"),
		}),
	}
	cancelCarRentalSpec = domain.Tool{
		Name:        "cancel_car_rental",
		Description: "Cancel a car rental by its ID.",
		Parameters:  params([]string{"rental_id"}, map[string]any{"rental_id": integer("car rental to cancel")}),
	}
)

// SearchCarRentalsArgs filters car rentals by location and company name.
type SearchCarRentalsArgs struct {
	Location  string `json:"location"`
	Name      string `json:"name"`
	PriceTier string `json:"price_tier"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// SearchCarRentals finds car rentals.
func (s *Service) SearchCarRentals(ctx context.Context, args SearchCarRentalsArgs) (string, error) {
	var rows []CarRental
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, name, location, price_tier, start_date, end_date, booked
		FROM car_rentals WHERE location LIKE ? AND name LIKE ? ORDER BY id`,
		like(args.Location), like(args.Name))
	if err != nil {
		return "", fmt.Errorf("search car rentals: %w", err)
	}
	return asJSON(rows)
}

// CarRentalArgs identifies a car rental.
type CarRentalArgs struct {
	RentalID int64 `json:"rental_id"`
}

// BookCarRental marks a car rental as booked.
func (s *Service) BookCarRental(ctx context.Context, args CarRentalArgs) (string, error) {
	return carRentalTable.setBooked(ctx, s, args.RentalID, true)
}

// CancelCarRental releases a car rental.
func (s *Service) CancelCarRental(ctx context.Context, args CarRentalArgs) (string, error) {
	return carRentalTable.setBooked(ctx, s, args.RentalID, false)
}

// UpdateCarRentalArgs changes rental dates.
type UpdateCarRentalArgs struct {
	RentalID  int64  `json:"rental_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// UpdateCarRental changes the dates of a car rental.
func (s *Service) UpdateCarRental(ctx context.Context, args UpdateCarRentalArgs) (string, error) {
	return carRentalTable.update(ctx, s, args.RentalID, map[string]string{
		"start_date": args.StartDate,
		"end_date":   args.EndDate,
	})
}
