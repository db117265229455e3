package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Backup request reasons.
const (
	ReasonAuto   = "auto"
	ReasonManual = "manual"
)

// BackupRequest asks the worker to write the current local state to the
// remote backup. It carries no data; the worker reads the state itself, so
// stale requests are harmless.
type BackupRequest struct {
	ID          string    `json:"id"`
	Reason      string    `json:"reason"`
	Version     uint64    `json:"version"`
	RequestedAt time.Time `json:"requested_at"`
}

// NewBackupRequest creates a request for the given store version.
func NewBackupRequest(reason string, version uint64) *BackupRequest {
	return &BackupRequest{
		ID:          uuid.NewString(),
		Reason:      reason,
		Version:     version,
		RequestedAt: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *BackupRequest) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// BackupRequestFromJSON decodes a message and rejects one without an id.
func BackupRequestFromJSON(data []byte) (*BackupRequest, error) {
	var msg BackupRequest
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(msg.ID); err != nil {
		return nil, errors.New("backup request has no valid id")
	}
	return &msg, nil
}
