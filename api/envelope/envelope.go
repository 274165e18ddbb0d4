// Package envelope - request identity and audit metadata.
// Every quote response carries the hash of the input it priced, so a
// re-quote can be verified byte for byte against the original.
package envelope

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"carecost/internal/logging"
)

// Metadata is attached to every quote response
type Metadata struct {
	RequestID     string `json:"request_id"`
	InputHash     string `json:"input_hash"`
	SnapshotHash  string `json:"snapshot_hash,omitempty"`
	RulesVersion  string `json:"rules_version,omitempty"`
	EngineVersion string `json:"engine_version"`
	DurationMs    int64  `json:"duration_ms"`
}

// NewRequestID generates a request identifier. Request IDs identify a
// call, not an input; the input hash is the deterministic one.
func NewRequestID() string {
	return uuid.New().String()
}

// HashInput computes the canonical SHA-256 of a request payload.
// encoding/json sorts map keys, so semantically equal requests hash
// equally.
func HashInput(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// AuditEntry records one priced request for audit and replay
type AuditEntry struct {
	Timestamp  time.Time `json:"timestamp"`
	RequestID  string    `json:"request_id"`
	InputHash  string    `json:"input_hash"`
	Route      string    `json:"route"`
	ClientIP   string    `json:"client_ip,omitempty"`
	DurationMs int64     `json:"duration_ms"`
	Success    bool      `json:"success"`
	Error      string    `json:"error,omitempty"`
}

// Log writes the audit entry through the structured logger
func (e AuditEntry) Log() {
	logging.Info("quote audit",
		zap.String("request_id", e.RequestID),
		zap.String("input_hash", e.InputHash),
		zap.String("route", e.Route),
		zap.Int64("duration_ms", e.DurationMs),
		zap.Bool("success", e.Success),
		zap.String("error", e.Error),
	)
}
