package travel

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// bookable describes a table of items that can be booked, updated and cancelled.
type bookable struct {
	table string
	noun  string // "Hotel", "Car rental", "Trip recommendation"
}

var (
	hotelTable     = bookable{table: "hotels", noun: "Hotel"}
	carRentalTable = bookable{table: "car_rentals", noun: "Car rental"}
	excursionTable = bookable{table: "trip_recommendations", noun: "Trip recommendation"}
)

func (b bookable) setBooked(ctx context.Context, s *Service, id int64, booked bool) (string, error) {
	n, err := s.exec(ctx, "UPDATE "+b.table+" SET booked = ? WHERE id = ?", booked, id)
	if err != nil {
		return "", fmt.Errorf("update %s: %w", b.table, err)
	}
	if n == 0 {
		return b.missing(id), nil
	}
	verb := "booked"
	if !booked {
		verb = "cancelled"
	}
	s.logger.Info(strings.ToLower(b.noun)+" "+verb, "id", id)
	return fmt.Sprintf("%s %d successfully %s.", b.noun, id, verb), nil
}

// update sets the non-empty columns. With nothing to change it still
// confirms the item exists.
func (b bookable) update(ctx context.Context, s *Service, id int64, cols map[string]string) (string, error) {
	var (
		sets []string
		args []any
	)
	for _, col := range slices.Sorted(maps.Keys(cols)) {
		if v := cols[col]; v != "" {
			sets = append(sets, col+" = ?")
			args = append(args, v)
		}
	}

	query := "UPDATE " + b.table + " SET id = id WHERE id = ?"
	if len(sets) > 0 {
		query = "UPDATE " + b.table + " SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	}
	n, err := s.exec(ctx, query, append(args, id)...)
	if err != nil {
		return "", fmt.Errorf("update %s: %w", b.table, err)
	}
	if n == 0 {
		return b.missing(id), nil
	}
	return fmt.Sprintf("%s %d successfully updated.", b.noun, id), nil
}

func (b bookable) missing(id int64) string {
	return fmt.Sprintf("No %s found with ID %d.", strings.ToLower(b.noun), id)
}
