package repository

import (
	"strings"

	"github.com/oklog/ulid/v2"
)

// NewID returns a sortable identifier such as "ord_01hq3...".
func NewID(prefix string) string {
	return prefix + "_" + strings.ToLower(ulid.Make().String())
}

func generateOrderID() string {
	return NewID("ord")
}

func generateProcurementID() string {
	return NewID("po")
}

func generateNotificationID() string {
	return NewID("ntf")
}
