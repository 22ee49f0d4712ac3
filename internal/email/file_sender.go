package email

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileEmailSender appends email content to a log file. Useful for
// local development alongside the Redis mock.
type FileEmailSender struct {
	filePath string
}

// NewFileEmailSender creates a FileEmailSender, ensuring the log
// directory exists.
func NewFileEmailSender(filePath string) (Sender, error) {
	if strings.TrimSpace(filePath) == "" {
		return nil, fmt.Errorf("email log file path cannot be empty")
	}

	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory for email log file '%s': %w", dir, err)
	}

	return &FileEmailSender{filePath: filePath}, nil
}

// Send appends the raw message to the log file.
func (s *FileEmailSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	file, err := os.OpenFile(s.filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open email log file: %w", err)
	}
	defer file.Close()

	entry := fmt.Sprintf("--- Email Logged at %s (To: %v, Subject: %s) ---\n",
		time.Now().Format(time.RFC3339Nano), to, subject)
	full := append([]byte(entry), rawMessage...)
	full = append(full, []byte("--- End Logged Email ---\n\n")...)

	if _, err := file.Write(full); err != nil {
		return fmt.Errorf("failed to write email to log file: %w", err)
	}

	log.Printf("Email to %v (Subject: %s) logged to %s", to, subject, s.filePath)
	return nil
}
