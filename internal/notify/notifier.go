package notify

import (
	"context"
	"fmt"
	"log"

	"ewaste/internal/models"
)

// Notifier sends the two lifecycle emails: the approval notice and the OTP
// for pickup verification. Delivery failures are logged, never propagated,
// so a broken mail path cannot fail a status update.
type Notifier struct {
	provider Provider
}

func New(provider Provider) *Notifier {
	return &Notifier{provider: provider}
}

func (n *Notifier) RequestApproved(ctx context.Context, request models.Request) {
	subject := "Your e-waste pickup request was approved"
	message := fmt.Sprintf(
		"Hi %s, your request %s (%s) has been approved. We will schedule a pickup shortly.",
		request.UserName, request.RequestID, request.DeviceType)
	if err := n.provider.Send(ctx, subject, message, request.UserEmail); err != nil {
		log.Printf("approval email for %s failed: %v", request.RequestID, err)
	}
}

func (n *Notifier) RequestRejected(ctx context.Context, request models.Request) {
	subject := "Your e-waste pickup request was rejected"
	message := fmt.Sprintf(
		"Hi %s, your request %s was rejected. Reason: %s",
		request.UserName, request.RequestID, request.RejectionReason)
	if err := n.provider.Send(ctx, subject, message, request.UserEmail); err != nil {
		log.Printf("rejection email for %s failed: %v", request.RequestID, err)
	}
}

// PickupOTP must succeed for initiate-verification to report success, so the
// error is returned rather than swallowed.
func (n *Notifier) PickupOTP(ctx context.Context, request models.Request, code string) error {
	subject := "Pickup verification code"
	message := fmt.Sprintf(
		"Hi %s, share this code with the pickup personnel to confirm collection of your %s: %s",
		request.UserName, request.DeviceType, code)
	return n.provider.Send(ctx, subject, message, request.UserEmail)
}
