package notify

import "context"

// Tee wraps a Port so every outbound notification also fans out to the local
// dashboard broadcaster, without the dispatcher needing to know a dashboard
// exists.
type Tee struct {
	Port
	dashboard *Broadcaster
}

// NewTee combines a delivery Port with a dashboard Broadcaster.
func NewTee(port Port, dashboard *Broadcaster) *Tee {
	return &Tee{Port: port, dashboard: dashboard}
}

func (t *Tee) NotifyStatus(ctx context.Context, jobID uint, target Target, text string) (int64, error) {
	id, err := t.Port.NotifyStatus(ctx, jobID, target, text)
	t.dashboard.Broadcast(jobID, "status", map[string]any{"text": text})
	return id, err
}

func (t *Tee) NotifyResult(ctx context.Context, jobID uint, target Target, preview, fullText string, attachments []Attachment) error {
	err := t.Port.NotifyResult(ctx, jobID, target, preview, fullText, attachments)
	t.dashboard.Broadcast(jobID, "result", map[string]any{"preview": preview, "attachments": attachments})
	return err
}

func (t *Tee) NotifyError(ctx context.Context, jobID uint, target Target, text string) error {
	err := t.Port.NotifyError(ctx, jobID, target, text)
	t.dashboard.Broadcast(jobID, "error", map[string]any{"text": text})
	return err
}
