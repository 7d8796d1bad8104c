package create_booking

import (
	"strings"

	"github.com/google/uuid"
)

const referencePrefix = "DT-"

// NewReference генерирует человекочитаемый код бронирования вида DT-1A2B3C4D
func NewReference() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return referencePrefix + strings.ToUpper(id[:8])
}
