package domain

import (
	"time"

	"github.com/google/uuid"
)

// Lead is modeled only at its boundary with the workflow subsystem:
// the normalized state reference plus the legacy free-text status it
// supersedes. Everything else about leads lives outside this core.
type Lead struct {
	ID          uuid.UUID
	DeskID      uuid.UUID
	Status      string
	DeskStateID *uuid.UUID
	CreatedAt   time.Time
}
