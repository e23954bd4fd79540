package notify

import (
	"fmt"

	"github.com/nightpulse/eventbot/internal/storage"
	"github.com/nightpulse/eventbot/internal/timezone"
)

// ReminderText builds the reminder message for an event. Dates and
// clock times are rendered in the display zone; everything else is the
// event's own metadata passed through.
func ReminderText(e storage.Event, tz *timezone.Normalizer) string {
	return fmt.Sprintf(
		"Reminder: The event '%s' is happening soon! Here are the details:\n\n"+
			"**Location**: %s\n"+
			"**Date**: %s\n"+
			"**Start Time**: %s\n"+
			"**Contact Info**: %s",
		e.Name, e.Location, tz.FormatDate(e.StartAt), tz.FormatClock(e.StartAt), e.ContactInfo,
	)
}

func ConfirmationText() string {
	return "You have successfully RSVPed to the event! " +
		"We'll send you a reminder closer to the event date."
}
