/*
Package dsl provides a fluent Go builder for controller descriptors.

It lets hosts declare controllers in code instead of Markdown files, with
IDE completion and compile-time checks.

Example usage:

	b := dsl.New()

	b.Add("primary_assistant").
		Describe("customer support assistant").
		Prompt("You help {{.UserInfo}}. Current time: {{.Time}}.").
		Safe("search_flights")

	b.Add("book_hotel").
		Describe("Hotel Booking Assistant").
		Entry("ToHotelBookingAssistant").
		Safe("search_hotels").
		Sensitive("book_hotel", "cancel_hotel")

	// The result is a ports.DescriptorSource.
	source, err := b.Build()
*/
package dsl
