package email

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/FabricioLanche/campus-room/internal/config"
)

// Notification kinds, used both to build subjects and to classify
// stored mock emails for test retrieval.
const (
	KindContractOffer = "contract_offer"
	KindDealSigned    = "deal_signed"
	KindDealPaid      = "deal_paid"
	KindUnknown       = "unknown"
)

// RedisSender stores emails in Redis instead of delivering them. The
// service API reads them back so end-to-end tests can assert on
// notifications without a mailbox.
type RedisSender struct {
	client *redis.Client
	cfg    *config.Config
}

// NewRedisSender creates a new RedisSender.
func NewRedisSender(client *redis.Client, cfg *config.Config) Sender {
	return &RedisSender{client: client, cfg: cfg}
}

// classifyKind maps a subject line to a notification kind for the mock
// email key. Subjects are composed by the task layer, so the match is
// on the fixed phrases it uses.
func classifyKind(subject string) string {
	switch {
	case strings.Contains(subject, "Propuesta de contrato"):
		return KindContractOffer
	case strings.Contains(subject, "Contrato firmado"):
		return KindDealSigned
	case strings.Contains(subject, "Pago confirmado"):
		return KindDealPaid
	}
	return KindUnknown
}

// Send stores the email under mockemail:<to>:<kind> with a short TTL.
func (s *RedisSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	kind := classifyKind(subject)

	primaryTo := ""
	if len(to) > 0 {
		primaryTo = to[0]
	}

	emailData := map[string]interface{}{
		"to":      strings.Join(to, ", "),
		"from":    s.cfg.SmtpFromAddress,
		"subject": subject,
		"body":    string(rawMessage),
		"sent_at": time.Now().UTC().Format(time.RFC3339Nano),
		"kind":    kind,
	}

	jsonData, err := json.Marshal(emailData)
	if err != nil {
		return fmt.Errorf("failed to marshal email data: %w", err)
	}

	key := fmt.Sprintf("mockemail:%s:%s", primaryTo, kind)
	ttl := 5 * time.Minute

	if err := s.client.Set(ctx, key, jsonData, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store email in Redis key '%s': %w", key, err)
	}

	log.Printf("Mock email stored in Redis key '%s' (To: %s, Subject: %s)", key, strings.Join(to, ", "), subject)
	return nil
}
