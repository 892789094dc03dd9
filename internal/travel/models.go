package travel

// Flight is a row of the flights table.
type Flight struct {
	FlightID           int64  `db:"flight_id" json:"flight_id"`
	FlightNo           string `db:"flight_no" json:"flight_no"`
	DepartureAirport   string `db:"departure_airport" json:"departure_airport"`
	ArrivalAirport     string `db:"arrival_airport" json:"arrival_airport"`
	ScheduledDeparture string `db:"scheduled_departure" json:"scheduled_departure"`
	ScheduledArrival   string `db:"scheduled_arrival" json:"scheduled_arrival"`
}

// PassengerFlight is a ticket joined with its flight and seat.
type PassengerFlight struct {
	TicketNo string `db:"ticket_no" json:"ticket_no"`
	BookRef  string `db:"book_ref" json:"book_ref"`
	Flight
	SeatNo         string `db:"seat_no" json:"seat_no"`
	FareConditions string `db:"fare_conditions" json:"fare_conditions"`
}

// Hotel is a row of the hotels table.
type Hotel struct {
	ID           int64  `db:"id" json:"id"`
	Name         string `db:"name" json:"name"`
	Location     string `db:"location" json:"location"`
	PriceTier    string `db:"price_tier" json:"price_tier"`
	CheckinDate  string `db:"checkin_date" json:"checkin_date"`
	CheckoutDate string `db:"checkout_date" json:"checkout_date"`
	Booked       bool   `db:"booked" json:"booked"`
}

// CarRental is a row of the car_rentals table.
type CarRental struct {
	ID        int64  `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	Location  string `db:"location" json:"location"`
	PriceTier string `db:"price_tier" json:"price_tier"`
	StartDate string `db:"start_date" json:"start_date"`
	EndDate   string `db:"end_date" json:"end_date"`
	Booked    bool   `db:"booked" json:"booked"`
}

// TripRecommendation is a row of the trip_recommendations table.
type TripRecommendation struct {
	ID       int64  `db:"id" json:"id"`
	Name     string `db:"name" json:"name"`
	Location string `db:"location" json:"location"`
	Keywords string `db:"keywords" json:"keywords"`
	Details  string `db:"details" json:"details"`
	Booked   bool   `db:"booked" json:"booked"`
}

// Policy is one section of the company policy handbook.
type Policy struct {
	Section string `db:"section" json:"section"`
	Content string `db:"content" json:"content"`
}
