package travel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/switchboard/internal/logging"
	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/registry"
	"github.com/jmoiron/sqlx"
)

// ErrNoPassenger is returned by passenger-scoped tools when the session has no user identity.
var ErrNoPassenger = errors.New("no passenger ID configured")

// Service holds the database handle shared by all travel tools.
// Tools are safe for concurrent use; SQLite serializes the writes.
type Service struct {
	db     *sqlx.DB
	now    func() time.Time
	logger *slog.Logger
}

// Option configures the Service.
type Option func(*Service)

// WithClock overrides the time source used by the rescheduling window check.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithLogger configures a logger for tool queries.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates the travel tools over db.
func NewService(db *sqlx.DB, opts ...Option) *Service {
	s := &Service{
		db:     db,
		now:    time.Now,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type tool struct {
	spec domain.Tool
	fn   registry.ToolFunction
}

func (s *Service) tools() []tool {
	return []tool{
		{fetchUserFlightsSpec, registry.Typed(s.FetchUserFlightInformation)},
		{searchFlightsSpec, registry.Typed(s.SearchFlights)},
		{updateTicketSpec, registry.Typed(s.UpdateTicketToNewFlight)},
		{cancelTicketSpec, registry.Typed(s.CancelTicket)},

		{searchHotelsSpec, registry.Typed(s.SearchHotels)},
		{bookHotelSpec, registry.Typed(s.BookHotel)},
		{updateHotelSpec, registry.Typed(s.UpdateHotel)},
		{cancelHotelSpec, registry.Typed(s.CancelHotel)},

		{searchCarRentalsSpec, registry.Typed(s.SearchCarRentals)},
		{bookCarRentalSpec, registry.Typed(s.BookCarRental)},
		{updateCarRentalSpec, registry.Typed(s.UpdateCarRental)},
		{cancelCarRentalSpec, registry.Typed(s.CancelCarRental)},

		{searchTripsSpec, registry.Typed(s.SearchTripRecommendations)},
		{bookExcursionSpec, registry.Typed(s.BookExcursion)},
		{updateExcursionSpec, registry.Typed(s.UpdateExcursion)},
		{cancelExcursionSpec, registry.Typed(s.CancelExcursion)},

		{lookupPolicySpec, registry.Typed(s.LookupPolicy)},
	}
}

// Register adds every travel tool to reg.
func (s *Service) Register(reg *registry.Registry) error {
	for _, t := range s.tools() {
		if err := reg.Register(t.spec, t.fn); err != nil {
			return fmt.Errorf("register %s: %w", t.spec.Name, err)
		}
	}
	return nil
}

// Specs lists the metadata of every travel tool.
func (s *Service) Specs() []domain.Tool {
	tools := s.tools()
	out := make([]domain.Tool, len(tools))
	for i, t := range tools {
		out[i] = t.spec
	}
	return out
}

func passenger(ctx context.Context) (string, error) {
	id, ok := domain.UserIDFromContext(ctx)
	if !ok {
		return "", ErrNoPassenger
	}
	return id, nil
}

// asJSON renders query results for the model. Nil slices render as "[]".
func asJSON[T any](rows []T) (string, error) {
	if rows == nil {
		rows = []T{}
	}
	b, err := json.Marshal(rows)
	if err != nil {
		return "", fmt.Errorf("encode results: %w", err)
	}
	return string(b), nil
}

// like wraps a search term for a LIKE clause.
func like(term string) string {
	return "%" + term + "%"
}

func (s *Service) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func params(required []string, props map[string]any) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func str(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}

func integer(desc string) map[string]any {
	return map[string]any{"type": "integer", "description": desc}
}
