package service

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	maxNotesLength  = 1000
	maxReasonLength = 500
)

// normalizePage applies the default and maximum page size.
func normalizePage(limit, offset int) (int, int, error) {
	if limit < 0 {
		return 0, 0, errors.NewValidationError("limit", "limit cannot be negative")
	}
	if offset < 0 {
		return 0, 0, errors.NewValidationError("offset", "offset cannot be negative")
	}
	if limit == 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return limit, offset, nil
}

// validateQuantity accepts finite positive weights.
func validateQuantity(q float64) error {
	if math.IsNaN(q) || math.IsInf(q, 0) || q <= 0 {
		return errors.NewValidationError("quantity", "quantity must be a positive number")
	}
	return nil
}

func validateAddress(addr *models.Address, field string) error {
	if strings.TrimSpace(addr.Name) == "" {
		return errors.NewValidationError(field, "recipient name is required")
	}
	if strings.TrimSpace(addr.Line1) == "" {
		return errors.NewValidationError(field, "address line 1 is required")
	}
	if strings.TrimSpace(addr.City) == "" {
		return errors.NewValidationError(field, "city is required")
	}
	if !isPostalCode(addr.PostalCode) {
		return errors.NewValidationError(field, "postal code must be 6 digits")
	}
	if !isPhone(addr.Phone) {
		return errors.NewValidationError(field, "phone must be 10 digits")
	}
	return nil
}

func isPostalCode(s string) bool {
	return len(s) == 6 && allDigits(s)
}

// isPhone accepts a 10 digit number with an optional +91 or 0 prefix.
func isPhone(s string) bool {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	s = strings.TrimPrefix(s, "+91")
	if len(s) == 11 {
		s = strings.TrimPrefix(s, "0")
	}
	return len(s) == 10 && allDigits(s)
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// ValidateUpdateOrderStatusRequest validates a status update request.
func ValidateUpdateOrderStatusRequest(req *models.UpdateOrderStatusRequest) error {
	if req.Status == "" {
		return errors.NewValidationError("status", "status is required")
	}
	if !req.Status.Valid() {
		return errors.NewValidationError("status", "invalid order status")
	}
	return nil
}

// SanitizeOrderNotes sanitizes order notes to prevent XSS.
func SanitizeOrderNotes(notes string) string {
	notes = strings.ReplaceAll(notes, "<", "&lt;")
	notes = strings.ReplaceAll(notes, ">", "&gt;")
	notes = strings.ReplaceAll(notes, "\"", "&quot;")
	notes = strings.TrimSpace(notes)

	if utf8.RuneCountInString(notes) > maxNotesLength {
		notes = string([]rune(notes)[:maxNotesLength])
	}

	return notes
}

// ValidateCancellationReason validates an order cancellation reason.
func ValidateCancellationReason(reason string) error {
	if utf8.RuneCountInString(reason) > maxReasonLength {
		return errors.NewValidationError("reason", "cancellation reason too long (max 500 characters)")
	}
	return nil
}

func isValidStatusTransition(from, to models.OrderStatus) bool {
	validTransitions := map[models.OrderStatus][]models.OrderStatus{
		models.OrderStatusPending:    {models.OrderStatusConfirmed, models.OrderStatusCancelled},
		models.OrderStatusConfirmed:  {models.OrderStatusProcessing, models.OrderStatusCancelled},
		models.OrderStatusProcessing: {models.OrderStatusShipped, models.OrderStatusCancelled},
		models.OrderStatusShipped:    {models.OrderStatusDelivered},
		models.OrderStatusDelivered:  {},
		models.OrderStatusCancelled:  {},
	}

	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}

	for _, status := range allowed {
		if status == to {
			return true
		}
	}
	return false
}

func isValidProcurementTransition(from, to models.ProcurementStatus) bool {
	switch from {
	case models.ProcurementStatusRequested:
		return to == models.ProcurementStatusApproved || to == models.ProcurementStatusRejected
	case models.ProcurementStatusApproved:
		return to == models.ProcurementStatusReceived
	}
	return false
}
