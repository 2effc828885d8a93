package booking

const (
	EventBookingCreated       = "booking.created"
	EventBookingStatusChanged = "booking.status_changed"
	EventBookingTermsUpdated  = "booking.terms_updated"
)
