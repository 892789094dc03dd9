package travel

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewService(sqlx.NewDb(db, "sqlmock")), mock
}

func TestService_QueryFailures(t *testing.T) {
	ctx := domain.ContextWithUserID(context.Background(), DemoPassenger)
	diskErr := errors.New("disk I/O error")

	t.Run("Search", func(t *testing.T) {
		svc, mock := newMock(t)
		mock.ExpectQuery("SELECT id, name, location").WillReturnError(diskErr)

		_, err := svc.SearchHotels(ctx, SearchHotelsArgs{Location: "Basel"})
		assert.ErrorIs(t, err, diskErr)
		assert.ErrorContains(t, err, "search hotels")
	})

	t.Run("Book", func(t *testing.T) {
		svc, mock := newMock(t)
		mock.ExpectExec("UPDATE car_rentals SET booked").WillReturnError(diskErr)

		_, err := svc.BookCarRental(ctx, CarRentalArgs{RentalID: 1})
		assert.ErrorIs(t, err, diskErr)
	})

	t.Run("Book missing row", func(t *testing.T) {
		svc, mock := newMock(t)
		mock.ExpectExec("UPDATE trip_recommendations SET booked").
			WithArgs(true, int64(5)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		text, err := svc.BookExcursion(ctx, ExcursionArgs{RecommendationID: 5})
		require.NoError(t, err)
		assert.Equal(t, "No trip recommendation found with ID 5.", text)
	})

	t.Run("Ticket lookup", func(t *testing.T) {
		svc, mock := newMock(t)
		mock.ExpectQuery("SELECT COUNT").WillReturnError(diskErr)

		_, err := svc.CancelTicket(ctx, CancelTicketArgs{TicketNo: "1"})
		assert.ErrorContains(t, err, "lookup ticket")
	})

	t.Run("Policy", func(t *testing.T) {
		svc, mock := newMock(t)
		mock.ExpectQuery("SELECT section, content FROM policies").WillReturnError(diskErr)

		_, err := svc.LookupPolicy(ctx, LookupPolicyArgs{Query: "baggage"})
		assert.ErrorIs(t, err, diskErr)
	})

	t.Run("Malformed departure", func(t *testing.T) {
		svc, mock := newMock(t)
		mock.ExpectQuery("SELECT scheduled_departure FROM flights").
			WillReturnRows(sqlmock.NewRows([]string{"scheduled_departure"}).AddRow("tomorrow"))

		_, err := svc.UpdateTicketToNewFlight(ctx, UpdateTicketArgs{TicketNo: "1", NewFlightID: 2})
		assert.ErrorContains(t, err, "malformed departure")
	})
}
