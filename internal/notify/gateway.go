package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"transflow/pkg/logger"
)

// messageSizeCap mirrors the upstream chat transport's hard message-length
// limit; previewCap leaves room for the header line plus the 50-byte safety
// margin the artifact-delivery rule calls for.
const (
	messageSizeCap = 4096
	previewCap     = messageSizeCap - 200 - 50
)

// outboundPayload is what crosses the wire to the messaging gateway. The
// gateway is an external process that actually speaks to the chat transport;
// this service never talks to it directly, the same separation the teacher
// draws between its webhook.Service and the callback URL it posts to.
type outboundPayload struct {
	Kind        string       `json:"kind"` // "status", "result", "error"
	JobID       uint         `json:"job_id"`
	ChatID      int64        `json:"chat_id"`
	MessageID   int64        `json:"message_id,omitempty"`
	Text        string       `json:"text"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

type gatewayResponse struct {
	MessageID int64 `json:"message_id"`
}

// GatewayClient is the C7 adapter that actually crosses the wire: it POSTs
// outboundPayload to a configured callback URL and tracks per-recipient
// message ids so a later NotifyStatus call edits the right message. For
// system-owned jobs it fans out to every configured administrator id and
// keeps one message id per admin, the same "superuser_messages" dict shape
// the original bot used to track broadcast copies of a single notification.
type GatewayClient struct {
	url        string
	adminIDs   []int64
	client     *http.Client
	mu         sync.Mutex
	messageIDs map[uint]int64           // jobID -> message id, direct chats
	adminMsgs  map[uint]map[int64]int64 // jobID -> adminID -> message id
}

// NewGatewayClient builds a client that posts to url. adminIDs is the
// administrator broadcast list used whenever a Target has IsSystem set.
func NewGatewayClient(url string, adminIDs []int64) *GatewayClient {
	return &GatewayClient{
		url:        url,
		adminIDs:   adminIDs,
		client:     &http.Client{Timeout: 10 * time.Second},
		messageIDs: make(map[uint]int64),
		adminMsgs:  make(map[uint]map[int64]int64),
	}
}

func (g *GatewayClient) NotifyStatus(ctx context.Context, jobID uint, target Target, text string) (int64, error) {
	if target.IsSystem {
		return 0, g.broadcastToAdmins(ctx, jobID, "status", text, nil)
	}
	if target.ChatID == 0 {
		return 0, nil
	}

	g.mu.Lock()
	messageID := target.MessageID
	if messageID == 0 {
		messageID = g.messageIDs[jobID]
	}
	g.mu.Unlock()

	resp, err := g.post(ctx, outboundPayload{
		Kind:      "status",
		JobID:     jobID,
		ChatID:    target.ChatID,
		MessageID: messageID,
		Text:      text,
	})
	if err != nil {
		return 0, err
	}

	g.mu.Lock()
	g.messageIDs[jobID] = resp.MessageID
	g.mu.Unlock()
	return resp.MessageID, nil
}

func (g *GatewayClient) NotifyResult(ctx context.Context, jobID uint, target Target, preview, fullText string, attachments []Attachment) error {
	text := fullText
	if len(fullText) > previewCap {
		text = preview
		if len(text) > previewCap {
			text = text[:previewCap]
		}
	}

	if target.IsSystem {
		return g.broadcastToAdmins(ctx, jobID, "result", text, attachments)
	}
	if target.ChatID == 0 {
		return nil
	}

	_, err := g.post(ctx, outboundPayload{
		Kind:        "result",
		JobID:       jobID,
		ChatID:      target.ChatID,
		MessageID:   target.MessageID,
		Text:        text,
		Attachments: attachments,
	})
	return err
}

func (g *GatewayClient) NotifyError(ctx context.Context, jobID uint, target Target, text string) error {
	if target.IsSystem {
		return g.broadcastToAdmins(ctx, jobID, "error", text, nil)
	}
	if target.ChatID == 0 {
		return nil
	}
	_, err := g.post(ctx, outboundPayload{
		Kind:      "error",
		JobID:     jobID,
		ChatID:    target.ChatID,
		MessageID: target.MessageID,
		Text:      text,
	})
	return err
}

func (g *GatewayClient) broadcastToAdmins(ctx context.Context, jobID uint, kind, text string, attachments []Attachment) error {
	g.mu.Lock()
	perAdmin, ok := g.adminMsgs[jobID]
	if !ok {
		perAdmin = make(map[int64]int64)
		g.adminMsgs[jobID] = perAdmin
	}
	g.mu.Unlock()

	var lastErr error
	for _, adminID := range g.adminIDs {
		g.mu.Lock()
		messageID := perAdmin[adminID]
		g.mu.Unlock()

		resp, err := g.post(ctx, outboundPayload{
			Kind:        kind,
			JobID:       jobID,
			ChatID:      adminID,
			MessageID:   messageID,
			Text:        text,
			Attachments: attachments,
		})
		if err != nil {
			lastErr = err
			logger.Warn("Admin broadcast delivery failed", "job_id", jobID, "admin_id", adminID, "error", err)
			continue
		}
		g.mu.Lock()
		perAdmin[adminID] = resp.MessageID
		g.mu.Unlock()
	}
	return lastErr
}

// post sends one payload with the teacher's bounded-retry backoff, returning
// the gateway's response so callers can learn the (possibly new) message id.
func (g *GatewayClient) post(ctx context.Context, payload outboundPayload) (gatewayResponse, error) {
	if g.url == "" {
		// No gateway configured: log-only delivery, used by tests and by
		// deployments that only want the SSE-driven web dashboard.
		logger.Debug("Notification suppressed, no gateway configured", "job_id", payload.JobID, "kind", payload.Kind)
		return gatewayResponse{MessageID: payload.MessageID}, nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return gatewayResponse{}, fmt.Errorf("marshal notification payload: %w", err)
	}

	const maxRetries = 3
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Duration(attempt) * time.Second)
			logger.Info("Retrying notification delivery", "job_id", payload.JobID, "attempt", attempt+1)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
		if err != nil {
			return gatewayResponse{}, fmt.Errorf("build notification request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", "transflow-notify/1.0")

		resp, err := g.client.Do(req)
		if err != nil {
			lastErr = err
			logger.Warn("Notification request failed", "error", err, "attempt", attempt+1)
			continue
		}

		var decoded gatewayResponse
		decodeErr := json.NewDecoder(resp.Body).Decode(&decoded)
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			if decodeErr != nil || decoded.MessageID == 0 {
				decoded.MessageID = payload.MessageID
			}
			return decoded, nil
		}

		lastErr = fmt.Errorf("notification gateway returned status %s", strconv.Itoa(resp.StatusCode))
		logger.Warn("Notification gateway returned error status", "status_code", resp.StatusCode, "attempt", attempt+1)
	}

	return gatewayResponse{}, fmt.Errorf("notification delivery failed after %d attempts: %w", maxRetries, lastErr)
}
