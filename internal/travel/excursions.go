package travel

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/switchboard/pkg/domain"
)

var (
	searchTripsSpec = domain.Tool{
		Name:        "search_trip_recommendations",
		Description: "Search for trip recommendations based on location, name, and keywords.",
		Parameters: params(nil, map[string]any{
			"location": str("city"),
			"name":     str("name of the excursion"),
			"keywords": str("comma separated keywords, any of which may match"),
		}),
	}
	bookExcursionSpec = domain.Tool{
		Name:        "book_excursion",
		Description: "Book an excursion by its recommendation ID.",
		Parameters: params([]string{"recommendation_id"}, map[string]any{
			"recommendation_id": integer("trip recommendation to book"),
		}),
	}
	updateExcursionSpec = domain.Tool{
		Name:        "update_excursion",
		Description: "Update a trip recommendation's details by its ID.",
		Parameters: params([]string{"recommendation_id", "details"}, map[string]any{
			"recommendation_id": integer("trip recommendation to update"),
			"details":           str("new details"),
		}),
	}
	cancelExcursionSpec = domain.Tool{
		Name:        "cancel_excursion",
		Description: "Cancel a trip recommendation by its ID.",
		Parameters: params([]string{"recommendation_id"}, map[string]any{
			"recommendation_id": integer("trip recommendation to cancel"),
		}),
	}
)

// SearchTripsArgs filters trip recommendations.
type SearchTripsArgs struct {
	Location string `json:"location"`
	Name     string `json:"name"`
	Keywords string `json:"keywords"`
}

// SearchTripRecommendations finds excursions. Keywords are OR'd.
func (s *Service) SearchTripRecommendations(ctx context.Context, args SearchTripsArgs) (string, error) {
	query := `SELECT id, name, location, keywords, details, booked
		FROM trip_recommendations WHERE location LIKE ? AND name LIKE ?`
	qargs := []any{like(args.Location), like(args.Name)}

	var ors []string
	for _, kw := range strings.Split(args.Keywords, ",") {
		if kw = strings.TrimSpace(kw); kw != "" {
			ors = append(ors, "keywords LIKE ?")
			qargs = append(qargs, like(kw))
		}
	}
	if len(ors) > 0 {
		query += " AND (" + strings.Join(ors, " OR ") + ")"
	}
	query += " ORDER BY id"

	var rows []TripRecommendation
	if err := s.db.SelectContext(ctx, &rows, query, qargs...); err != nil {
		return "", fmt.Errorf("search trip recommendations: %w", err)
	}
	return asJSON(rows)
}

// ExcursionArgs identifies a trip recommendation.
type ExcursionArgs struct {
	RecommendationID int64 `json:"recommendation_id"`
}

// BookExcursion marks a trip recommendation as booked.
func (s *Service) BookExcursion(ctx context.Context, args ExcursionArgs) (string, error) {
	return excursionTable.setBooked(ctx, s, args.RecommendationID, true)
}

// CancelExcursion releases a trip recommendation.
func (s *Service) CancelExcursion(ctx context.Context, args ExcursionArgs) (string, error) {
	return excursionTable.setBooked(ctx, s, args.RecommendationID, false)
}

// UpdateExcursionArgs replaces the details of a trip recommendation.
type UpdateExcursionArgs struct {
	RecommendationID int64  `json:"recommendation_id"`
	Details          string `json:"details"`
}

// UpdateExcursion changes the details of a trip recommendation.
func (s *Service) UpdateExcursion(ctx context.Context, args UpdateExcursionArgs) (string, error) {
	return excursionTable.update(ctx, s, args.RecommendationID, map[string]string{
		"details": args.Details,
	})
}
