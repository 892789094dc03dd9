package travel

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/switchboard/pkg/domain"
)

// RescheduleWindow is the minimum time between now and a new flight's departure.
const RescheduleWindow = 3 * time.Hour

var (
	fetchUserFlightsSpec = domain.Tool{
		Name:        "fetch_user_flight_information",
		Description: "Fetch all tickets for the user along with corresponding flight information and seat assignments.",
		Parameters:  params(nil, map[string]any{}),
	}
	searchFlightsSpec = domain.Tool{
		Name:        "search_flights",
		Description: "Search for flights based on departure airport, arrival airport, and departure time range.",
		Parameters: params(nil, map[string]any{
			"departure_airport": str("IATA code of the departure airport"),
			"arrival_airport":   str("IATA code of the arrival airport"),
			"start_time":        str("earliest scheduled departure, RFC 3339"),
			"end_time":          str("latest scheduled departure, RFC 3339"),
			"limit":             integer("maximum number of flights, default 20"),
			"offset":            integer("number of flights to skip"),
		}),
	}
	updateTicketSpec = domain.Tool{
		Name:        "update_ticket_to_new_flight",
		Description: "Update the user's ticket to a new valid flight.",
		Parameters: params([]string{"ticket_no", "new_flight_id"}, map[string]any{
			"ticket_no":     str("ticket number"),
			"new_flight_id": integer("id of the replacement flight"),
		}),
	}
	cancelTicketSpec = domain.Tool{
		Name:        "cancel_ticket",
		Description: "Cancel the user's ticket and remove it from the database.",
		Parameters: params([]string{"ticket_no"}, map[string]any{
			"ticket_no": str("ticket number"),
		}),
	}
)

// FetchUserFlightsArgs takes no arguments; the passenger comes from the session.
type FetchUserFlightsArgs struct{}

// FetchUserFlightInformation lists the passenger's tickets with flight and seat details.
func (s *Service) FetchUserFlightInformation(ctx context.Context, _ FetchUserFlightsArgs) (string, error) {
	pid, err := passenger(ctx)
	if err != nil {
		return "", err
	}

	var rows []PassengerFlight
	err = s.db.SelectContext(ctx, &rows, `
		SELECT t.ticket_no, t.book_ref,
			f.flight_id, f.flight_no, f.departure_airport, f.arrival_airport,
			f.scheduled_departure, f.scheduled_arrival,
			COALESCE(bp.seat_no, '') AS seat_no, tf.fare_conditions
		FROM tickets t
		JOIN ticket_flights tf ON t.ticket_no = tf.ticket_no
		JOIN flights f ON tf.flight_id = f.flight_id
		LEFT JOIN boarding_passes bp ON bp.ticket_no = t.ticket_no AND bp.flight_id = f.flight_id
		WHERE t.passenger_id = ?
		ORDER BY f.scheduled_departure`, pid)
	if err != nil {
		return "", fmt.Errorf("fetch flights: %w", err)
	}
	return asJSON(rows)
}

// SearchFlightsArgs filters flights; empty fields are ignored.
type SearchFlightsArgs struct {
	DepartureAirport string `json:"departure_airport"`
	ArrivalAirport   string `json:"arrival_airport"`
	StartTime        string `json:"start_time"`
	EndTime          string `json:"end_time"`
	Limit            int    `json:"limit"`
	Offset           int    `json:"offset"`
}

// SearchFlights finds scheduled flights.
func (s *Service) SearchFlights(ctx context.Context, args SearchFlightsArgs) (string, error) {
	var (
		where []string
		qargs []any
	)
	if args.DepartureAirport != "" {
		where = append(where, "departure_airport = ?")
		qargs = append(qargs, strings.ToUpper(args.DepartureAirport))
	}
	if args.ArrivalAirport != "" {
		where = append(where, "arrival_airport = ?")
		qargs = append(qargs, strings.ToUpper(args.ArrivalAirport))
	}
	if args.StartTime != "" {
		where = append(where, "scheduled_departure >= ?")
		qargs = append(qargs, args.StartTime)
	}
	if args.EndTime != "" {
		where = append(where, "scheduled_departure <= ?")
		qargs = append(qargs, args.EndTime)
	}
	if args.Limit <= 0 {
		args.Limit = 20
	}
	if args.Offset < 0 {
		args.Offset = 0
	}

	query := `SELECT flight_id, flight_no, departure_airport, arrival_airport,
		scheduled_departure, scheduled_arrival FROM flights`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY scheduled_departure LIMIT ? OFFSET ?"
	qargs = append(qargs, args.Limit, args.Offset)

	var rows []Flight
	if err := s.db.SelectContext(ctx, &rows, query, qargs...); err != nil {
		return "", fmt.Errorf("search flights: %w", err)
	}
	return asJSON(rows)
}

// UpdateTicketArgs moves a ticket to another flight.
type UpdateTicketArgs struct {
	TicketNo    string `json:"ticket_no"`
	NewFlightID int64  `json:"new_flight_id"`
}

// UpdateTicketToNewFlight rebooks a ticket owned by the passenger.
func (s *Service) UpdateTicketToNewFlight(ctx context.Context, args UpdateTicketArgs) (string, error) {
	pid, err := passenger(ctx)
	if err != nil {
		return "", err
	}

	var departure string
	err = s.db.GetContext(ctx, &departure,
		"SELECT scheduled_departure FROM flights WHERE flight_id = ?", args.NewFlightID)
	if errors.Is(err, sql.ErrNoRows) {
		return "Invalid new flight ID provided.", nil
	}
	if err != nil {
		return "", fmt.Errorf("lookup flight: %w", err)
	}

	departs, err := time.Parse(TimeLayout, departure)
	if err != nil {
		return "", fmt.Errorf("flight %d has malformed departure %q: %w", args.NewFlightID, departure, err)
	}
	if departs.Sub(s.now()) < RescheduleWindow {
		return fmt.Sprintf("Not permitted to reschedule to a flight that is less than 3 hours from the current time. Selected flight is at %s.", departure), nil
	}

	msg, owned, err := s.checkTicket(ctx, pid, args.TicketNo)
	if err != nil || !owned {
		return msg, err
	}

	if _, err := s.exec(ctx, "UPDATE ticket_flights SET flight_id = ? WHERE ticket_no = ?",
		args.NewFlightID, args.TicketNo); err != nil {
		return "", fmt.Errorf("update ticket: %w", err)
	}
	s.logger.Info("ticket rebooked", "ticket_no", args.TicketNo, "flight_id", args.NewFlightID)
	return fmt.Sprintf("Successfully updated ticket %s to flight %d", args.TicketNo, args.NewFlightID), nil
}

// CancelTicketArgs names the ticket to cancel.
type CancelTicketArgs struct {
	TicketNo string `json:"ticket_no"`
}

// CancelTicket removes a ticket owned by the passenger from its flights.
func (s *Service) CancelTicket(ctx context.Context, args CancelTicketArgs) (string, error) {
	pid, err := passenger(ctx)
	if err != nil {
		return "", err
	}

	msg, owned, err := s.checkTicket(ctx, pid, args.TicketNo)
	if err != nil || !owned {
		return msg, err
	}

	if _, err := s.exec(ctx, "DELETE FROM ticket_flights WHERE ticket_no = ?", args.TicketNo); err != nil {
		return "", fmt.Errorf("cancel ticket: %w", err)
	}
	s.logger.Info("ticket cancelled", "ticket_no", args.TicketNo)
	return "Ticket successfully cancelled.", nil
}

// checkTicket reports whether the ticket has flights and belongs to pid.
// When it does not, msg explains why for the model.
func (s *Service) checkTicket(ctx context.Context, pid, ticketNo string) (msg string, ok bool, err error) {
	var n int
	if err := s.db.GetContext(ctx, &n,
		"SELECT COUNT(*) FROM ticket_flights WHERE ticket_no = ?", ticketNo); err != nil {
		return "", false, fmt.Errorf("lookup ticket: %w", err)
	}
	if n == 0 {
		return "No existing ticket found for the given ticket number.", false, nil
	}

	var owner string
	err = s.db.GetContext(ctx, &owner, "SELECT passenger_id FROM tickets WHERE ticket_no = ?", ticketNo)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && owner != pid) {
		return fmt.Sprintf("Current signed-in passenger with ID %s not the owner of ticket %s", pid, ticketNo), false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("lookup ticket owner: %w", err)
	}
	return "", true, nil
}
