package adapter

import "context"

// RecruiterNotifier pushes a short out-of-band message to a recruiter.
// Delivery is best effort; callers log failures and continue.
type RecruiterNotifier interface {
	NotifyNewSubmission(ctx context.Context, recruiterRef, jobTitle string, questionIndex int) error
}
