package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/goldtouchmobile/booking-relay/internal/booking"
)

// BookingLinkURL is where customers are pointed to start or redo a booking.
const BookingLinkURL = "goldtouchmobile.com/providers"

// RedirectMessage is the one-time reply for senders we don't recognize.
const RedirectMessage = "Hi! This number handles booking confirmations for Gold Touch Mobile. " +
	"To book a massage, please visit " + BookingLinkURL + "."

// RebookingMessage goes to the customer when a provider declines or the
// request expires.
const RebookingMessage = "Hi, we're sorry for the inconvenience, but the provider you selected is not available. " +
	"You can book with another provider here: " + BookingLinkURL + ".\n\n" +
	"We apologize for any inconvenience and hope to serve you soon!"

// DeclineAckMessage confirms to the provider that their N was processed.
const DeclineAckMessage = "You've declined the booking. The customer has been notified and will look for another provider.\n\n" +
	"Thank you for your prompt response!"

// CancellationAckMessage is the fixed acknowledgment for a customer
// cancellation request, sent whether or not a booking could be matched.
const CancellationAckMessage = "We've received your cancellation request. Your provider has been notified. " +
	"If you'd like to rebook, visit " + BookingLinkURL + ". Thank you!"

// CompletedAckMessage answers a provider's "completed" reply to the check-in.
const CompletedAckMessage = "Great, thanks for confirming! Payment will be processed shortly."

// IssueAckMessage answers a provider's "issue" reply to the check-in.
const IssueAckMessage = "Sorry to hear that. Our team will reach out to you shortly to sort it out."

const timeLayout = "Monday, January 2 at 3:04 PM"

func formatWhen(t time.Time) string {
	if t.IsZero() {
		return "Not specified"
	}
	return t.Format(timeLayout)
}

func orUnspecified(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Not specified"
	}
	return s
}

// ProviderPrompt is the initial Y/N request sent to the provider.
func ProviderPrompt(providerName string, b *booking.Booking) string {
	at := ""
	if strings.TrimSpace(b.Address) != "" {
		at = fmt.Sprintf(" at %s", b.Address)
	}
	return fmt.Sprintf(
		"Hey %s, new request: %s%s on %s. Reply Y to accept or N if you are booked. "+
			"Feel free to contact the client directly at %s",
		providerName, b.ServiceType, at, formatWhen(b.ScheduledAt), b.CustomerPhone,
	)
}

// CustomerConfirmed tells the customer their booking was accepted. When a
// checkout link is available it is appended; otherwise payment details are
// promised separately so a payments outage never blocks the confirmation.
func CustomerConfirmed(providerName string, b *booking.Booking, paymentURL string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Your booking with %s has been confirmed!\n\n", providerName)
	fmt.Fprintf(&sb, "Service: %s\n", orUnspecified(b.ServiceType))
	fmt.Fprintf(&sb, "When: %s\n", formatWhen(b.ScheduledAt))
	fmt.Fprintf(&sb, "Address: %s\n\n", orUnspecified(b.Address))
	if paymentURL != "" {
		fmt.Fprintf(&sb, "Secure your appointment with a deposit: %s\n\n", paymentURL)
	} else {
		sb.WriteString("Payment details to follow.\n\n")
	}
	sb.WriteString("Thank you for choosing our service!")
	return sb.String()
}

// ProviderConfirmedDetails gives the provider the booking details after a Y.
func ProviderConfirmedDetails(b *booking.Booking) string {
	return fmt.Sprintf(
		"You've confirmed the booking! The customer has been notified.\n\n"+
			"Customer: %s\nService: %s\nWhen: %s\nAddress: %s",
		b.CustomerPhone, orUnspecified(b.ServiceType), formatWhen(b.ScheduledAt), orUnspecified(b.Address),
	)
}

// ProviderCancellationNotice alerts the provider that the customer asked to
// cancel or reschedule a confirmed booking.
func ProviderCancellationNotice(b *booking.Booking) string {
	who := strings.TrimSpace(b.CustomerName)
	if who == "" {
		who = b.CustomerPhone
	}
	return fmt.Sprintf(
		"Heads up: %s has asked to cancel or reschedule the %s booked for %s. "+
			"Please reach out to them at %s to coordinate.",
		who, orUnspecified(b.ServiceType), formatWhen(b.ScheduledAt), b.CustomerPhone,
	)
}

// CustomerReviewRequest is the post-service check-in sent to the customer.
func CustomerReviewRequest(b *booking.Booking) string {
	return fmt.Sprintf(
		"Hope you enjoyed your %s! We'd love to hear how it went - "+
			"reply here with any feedback, or leave a review at %s. Thank you!",
		orUnspecified(b.ServiceType), BookingLinkURL,
	)
}

// ProviderCompletionCheck is the post-service check-in sent to the provider.
func ProviderCompletionCheck(b *booking.Booking) string {
	return fmt.Sprintf(
		"Checking in on the %s scheduled for %s: reply 'completed' if everything went well, "+
			"or 'issue' if something came up.",
		orUnspecified(b.ServiceType), formatWhen(b.ScheduledAt),
	)
}
