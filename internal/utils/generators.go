package utils

import (
	"strings"

	"github.com/google/uuid"
)

const (
	OrderNumberPrefix  = "LV"
	TicketNumberPrefix = "LVT"
)

// GenerateOrderNumber returns LV followed by a time-ordered UUIDv7 in upper-case
// hex. Numbers sort by creation time and never collide.
func GenerateOrderNumber() string {
	return OrderNumberPrefix + compactUUID()
}

func GenerateTicketNumber() string {
	return TicketNumberPrefix + compactUUID()
}

func compactUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return strings.ToUpper(strings.ReplaceAll(id.String(), "-", ""))
}
