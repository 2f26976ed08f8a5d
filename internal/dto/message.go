package dto

// CalendarLinkedMessage is published when a calendar event has been created
// for a consultation and must be written back to the booking.
type CalendarLinkedMessage struct {
	ConsultationID string `json:"consultationId"`
	EventID        string `json:"eventId"`
	Link           string `json:"link"`
}
