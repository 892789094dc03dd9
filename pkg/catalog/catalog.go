// Package catalog holds the built-in travel-support controllers.
package catalog

import (
	"github.com/aretw0/switchboard/pkg/adapters/memory"
	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/dsl"
)

// Controller names.
const (
	Primary      = domain.PrimaryController
	UpdateFlight = "update_flight"
	CarRental    = "book_car_rental"
	Hotel        = "book_hotel"
	Excursion    = "book_excursion"
)

// DefaultPassenger is the demo passenger seeded into the travel database.
const DefaultPassenger = "0000 000001"

const escalationGuide = "\n\nIf the user needs help, and none of your tools are appropriate for it, then " +
	`"CompleteOrEscalate" the dialog to the host assistant. Do not waste the user's time. Do not make up invalid tools or functions.`

const primaryPrompt = "You are a helpful customer support assistant for Swiss Airlines." +
	" Your primary role is to search for flight information and company policies to answer customer queries." +
	" If a customer requests to update or cancel a flight, book a car rental, book a hotel, or get trip recommendations," +
	" delegate the task to the appropriate specialized assistant by invoking the corresponding tool." +
	" You are not able to make these types of changes yourself. Only the specialized assistants are given permission to do this for the user." +
	" The user is not aware of the different specialized assistants, so do not mention them; just quietly delegate through function calls." +
	" Provide detailed information to the customer, and always double-check the database before concluding that information is unavailable." +
	" When searching, be persistent. Expand your query bounds if the first search returns no results." +
	" If a search comes up empty, expand your search before giving up." +
	"\n\nCurrent user flight information:\n<User>\n{{.UserInfo}}\n</User>" +
	"\nCurrent time: {{.Time}}."

const flightPrompt = "You are a specialized assistant for handling flight updates." +
	" The primary assistant delegates work to you whenever the user needs help updating their bookings." +
	" Confirm the updated flight details with the customer and inform them of any additional fees." +
	" When searching, be persistent. Expand your query bounds if the first search returns no results." +
	" If you need more information or the customer changes their mind, escalate the task back to the main assistant." +
	" Remember that a booking isn't completed until after the relevant tool has successfully been used." +
	"\n\nCurrent user flight information:\n<User>\n{{.UserInfo}}\n</User>" +
	"\nCurrent time: {{.Time}}." +
	escalationGuide

const carRentalPrompt = "You are a specialized assistant for handling car rental bookings." +
	" The primary assistant delegates work to you whenever the user needs help booking a car rental." +
	" Search for available car rentals based on the user's preferences and confirm the booking details with the customer." +
	" When searching, be persistent. Expand your query bounds if the first search returns no results." +
	" If you need more information or the customer changes their mind, escalate the task back to the main assistant." +
	" Remember that a booking isn't completed until after the relevant tool has successfully been used." +
	"\nCurrent time: {{.Time}}." +
	escalationGuide +
	"\n\nSome examples for which you should CompleteOrEscalate:\n" +
	" - 'what's the weather like this time of year?'\n" +
	" - 'What flights are available?'\n" +
	" - 'nevermind i think I'll book separately'\n" +
	" - 'Oh wait i haven't booked my flight yet i'll do that first'\n" +
	" - 'Car rental booking confirmed'"

const hotelPrompt = "You are a specialized assistant for handling hotel bookings." +
	" The primary assistant delegates work to you whenever the user needs help booking a hotel." +
	" Search for available hotels based on the user's preferences and confirm the booking details with the customer." +
	" When searching, be persistent. Expand your query bounds if the first search returns no results." +
	" If you need more information or the customer changes their mind, escalate the task back to the main assistant." +
	" Remember that a booking isn't completed until after the relevant tool has successfully been used." +
	"\nCurrent time: {{.Time}}." +
	escalationGuide +
	"\n\nSome examples for which you should CompleteOrEscalate:\n" +
	" - 'what's the weather like this time of year?'\n" +
	" - 'nevermind i think I'll book separately'\n" +
	" - 'i need to figure out transportation while i'm there'\n" +
	" - 'Oh wait i haven't booked my flight yet i'll do that first'\n" +
	" - 'Hotel booking confirmed'"

const excursionPrompt = "You are a specialized assistant for handling trip recommendations." +
	" The primary assistant delegates work to you whenever the user needs help booking a recommended trip." +
	" Search for available trip recommendations based on the user's preferences and confirm the booking details with the customer." +
	" If you need more information or the customer changes their mind, escalate the task back to the main assistant." +
	" When searching, be persistent. Expand your query bounds if the first search returns no results." +
	" Remember that a booking isn't completed until after the relevant tool has successfully been used." +
	"\nCurrent time: {{.Time}}." +
	escalationGuide +
	"\n\nSome examples for which you should CompleteOrEscalate:\n" +
	" - 'nevermind i think I'll book separately'\n" +
	" - 'i need to figure out transportation while i'm there'\n" +
	" - 'Oh wait i haven't booked my flight yet i'll do that first'\n" +
	" - 'Excursion booking confirmed!'"

// Builder declares the built-in controllers. Hosts may extend it before building.
func Builder() *dsl.Builder {
	b := dsl.New()

	b.Add(Primary).
		Describe("Swiss Airlines customer support assistant").
		Prompt(primaryPrompt).
		Safe("search_flights", "lookup_policy", "fetch_user_flight_information")

	b.Add(UpdateFlight).
		Describe("Flight Updates & Booking Assistant").
		Prompt(flightPrompt).
		Entry("ToFlightBookingAssistant").
		Safe("search_flights", "fetch_user_flight_information", "lookup_policy").
		Sensitive("update_ticket_to_new_flight", "cancel_ticket")

	b.Add(CarRental).
		Describe("Car Rental Assistant").
		Prompt(carRentalPrompt).
		Entry("ToBookCarRental").
		Safe("search_car_rentals").
		Sensitive("book_car_rental", "update_car_rental", "cancel_car_rental")

	b.Add(Hotel).
		Describe("Hotel Booking Assistant").
		Prompt(hotelPrompt).
		Entry("ToHotelBookingAssistant").
		Safe("search_hotels").
		Sensitive("book_hotel", "update_hotel", "cancel_hotel")

	b.Add(Excursion).
		Describe("Trip Recommendation Assistant").
		Prompt(excursionPrompt).
		Entry("ToBookExcursion").
		Safe("search_trip_recommendations").
		Sensitive("book_excursion", "update_excursion", "cancel_excursion")

	return b
}

// Descriptors returns the built-in controller descriptors.
func Descriptors() []domain.Descriptor {
	descs, err := Builder().Descriptors()
	if err != nil {
		// The built-in declarations are static; a failure is a programming error.
		panic(err)
	}
	return descs
}

// Source returns the built-in controllers as a ports.DescriptorSource.
func Source() *memory.Source {
	return memory.NewSource(Descriptors()...)
}
