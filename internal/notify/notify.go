// Package notify is the Notification Port (C7): the outbound interface the
// dispatcher calls to edit/send status messages and deliver final artifacts.
// The dispatcher only ever sees the Port interface below; it never knows
// which transport actually carries a message.
package notify

import "context"

// Attachment is a file the dispatcher wants delivered alongside a message
// (the transcript text file, or an optional subtitle file).
type Attachment struct {
	Path string
	Name string
}

// Target addresses a single recipient. ChatID == 0 means "no user-facing
// message, log-only" for a direct message, but system-owned jobs (enrolled
// from the downloads watcher) use ChatID == 0 together with IsSystem to mean
// "broadcast to the configured administrator set" instead.
type Target struct {
	ChatID    int64
	MessageID int64
	IsSystem  bool
}

// Port is the interface C4 depends on. Every call runs on the dispatcher's
// goroutine, NotifyStatus included for frequent progress edits, so the time
// an implementation spends delivering (retries included) delays the
// dispatcher's wait loop by the same amount.
type Port interface {
	// NotifyStatus edits text into message_id, or sends a new message and
	// returns its id when editing fails (message deleted, never existed).
	// For a system target it fans the text out to every administrator and
	// returns 0; per-recipient message ids are tracked internally for the
	// next edit of the same job.
	NotifyStatus(ctx context.Context, jobID uint, target Target, text string) (newMessageID int64, err error)

	// NotifyResult delivers the finished transcript. When text alone fits
	// under the transport's message size cap it is embedded in the message
	// in addition to being attached; otherwise the message carries only a
	// preview and the full text rides as an attachment.
	NotifyResult(ctx context.Context, jobID uint, target Target, preview, fullText string, attachments []Attachment) error

	// NotifyError sends a final, non-progress failure message. Distinct from
	// NotifyStatus so adapters can skip edit-in-place semantics for it.
	NotifyError(ctx context.Context, jobID uint, target Target, text string) error
}
