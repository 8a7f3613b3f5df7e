package core

import "context"

// Domain event subjects.
const (
	SubjectMemberCreated        = "member.created"
	SubjectFinanceEntryRecorded = "finance.entry.recorded"
	SubjectPostPublished        = "post.published"
)

// Publisher broadcasts domain events to whoever listens (notification workers, audit...).
// Publishing is best effort: callers log failures and carry on.
type Publisher interface {
	Publish(ctx context.Context, subject string, payload interface{}) error
}
