package audit

import (
	"time"

	"github.com/google/uuid"
)

// Action names an auditable administrative event.
type Action string

const (
	ActionIdentifierSubmitted Action = "identifier.submitted"
	ActionIdentifierValidated Action = "identifier.validated"
	ActionIdentifierFailed    Action = "identifier.failed"
	ActionIdentifierEdited    Action = "identifier.edited"
	ActionIdentifierDeleted   Action = "identifier.deleted"
	ActionDocumentUploaded    Action = "document.uploaded"
	ActionClientCreated       Action = "client.created"
	ActionClientRotated       Action = "client.rotated"
	ActionClientDeactivated   Action = "client.deactivated"
	ActionEntityCreated       Action = "entity.created"
	ActionEndpointCreated     Action = "endpoint.created"
)

// Event is one append-only audit record. Details never contain secret
// material; values are identifiers and status strings only.
type Event struct {
	ID        uuid.UUID         `json:"id"`
	Action    Action            `json:"action"`
	Actor     string            `json:"actor,omitempty"`
	Subject   string            `json:"subject"`
	Details   map[string]string `json:"details,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}
