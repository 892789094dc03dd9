package travel

import (
	"context"
	"fmt"

	"github.com/aretw0/switchboard/pkg/domain"
)

var (
	searchHotelsSpec = domain.Tool{
		Name:        "search_hotels",
		Description: "Search for hotels based on location, name, price tier, check-in date, and check-out date.",
		Parameters: params(nil, map[string]any{
			"location":      str("city of the hotel"),
			"name":          str("hotel name"),
			"price_tier":    str("Midscale, Upper Midscale, Upscale or Luxury"),
			"checkin_date":  str("check-in date, YYYY-MM-DD"),
			"checkout_date": str("check-out date, YYYY-MM-DD"),
		}),
	}
	bookHotelSpec = domain.Tool{
		Name:        "book_hotel",
		Description: "Book a hotel by its ID.",
		Parameters:  params([]string{"hotel_id"}, map[string]any{"hotel_id": integer("hotel to book")}),
	}
	updateHotelSpec = domain.Tool{
		Name:        "update_hotel",
		Description: "Update a hotel's check-in and check-out dates by its ID.",
		Parameters: params([]string{"hotel_id"}, map[string]any{
			"hotel_id":      integer("hotel to update"),
			"checkin_date":  str("new check-in date, YYYY-MM-DD"),
			"checkout_date": str("new check-out date, YYYY-MM-DD"),
		}),
	}
	cancelHotelSpec = domain.Tool{
		Name:        "cancel_hotel",
		Description: "Cancel a hotel reservation by its ID.",
		Parameters:  params([]string{"hotel_id"}, map[string]any{"hotel_id": integer("hotel to cancel")}),
	}
)

// SearchHotelsArgs filters hotels by location and name. Price tier and dates
// are accepted so the model can pass them, but availability is not modelled.
type SearchHotelsArgs struct {
	Location     string `json:"location"`
	Name         string `json:"name"`
	PriceTier    string `json:"price_tier"`
	CheckinDate  string `json:"checkin_date"`
	CheckoutDate string `json:"checkout_date"`
}

// SearchHotels finds hotels.
func (s *Service) SearchHotels(ctx context.Context, args SearchHotelsArgs) (string, error) {
	var rows []Hotel
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, name, location, price_tier, checkin_date, checkout_date, booked
		FROM hotels WHERE location LIKE ? AND name LIKE ? ORDER BY id`,
		like(args.Location), like(args.Name))
	if err != nil {
		return "", fmt.Errorf("search hotels: %w", err)
	}
	return asJSON(rows)
}

// HotelArgs identifies a hotel.
type HotelArgs struct {
	HotelID int64 `json:"hotel_id"`
}

// BookHotel marks a hotel as booked.
func (s *Service) BookHotel(ctx context.Context, args HotelArgs) (string, error) {
	return hotelTable.setBooked(ctx, s, args.HotelID, true)
}

// CancelHotel releases a hotel booking.
func (s *Service) CancelHotel(ctx context.Context, args HotelArgs) (string, error) {
	return hotelTable.setBooked(ctx, s, args.HotelID, false)
}

// UpdateHotelArgs changes a hotel stay.
type UpdateHotelArgs struct {
	HotelID      int64  `json:"hotel_id"`
	CheckinDate  string `json:"checkin_date"`
	CheckoutDate string `json:"checkout_date"`
}

// UpdateHotel changes the stay dates of a hotel.
func (s *Service) UpdateHotel(ctx context.Context, args UpdateHotelArgs) (string, error) {
	return hotelTable.update(ctx, s, args.HotelID, map[string]string{
		"checkin_date":  args.CheckinDate,
		"checkout_date": args.CheckoutDate,
	})
}
