package clients

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

// PayloadError reports a catalog record that failed boundary validation.
type PayloadError struct {
	Index  int
	Field  string
	Reason string
}

func (e *PayloadError) Error() string {
	return fmt.Sprintf("catalog product[%d]: %s %s", e.Index, e.Field, e.Reason)
}

// flexNumber accepts a JSON number, a numeric string, or null.
type flexNumber struct {
	Value float64
	Set   bool
}

func (n *flexNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("not a number: %q", s)
		}
		n.Value, n.Set = v, true
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n.Value, n.Set = v, true
	return nil
}

// flexID accepts a JSON string or number identifier.
type flexID string

func (id *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = flexID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("identifier must be a string or number")
	}
	*id = flexID(n.String())
	return nil
}

// rawProduct mirrors the catalog API record. Older deployments send "id" instead of "pid"
// and encode numbers as strings.
type rawProduct struct {
	PID         flexID     `json:"pid"`
	ID          flexID     `json:"id"`
	Name        string     `json:"name"`
	VendorID    flexID     `json:"vendor_id"`
	Price       flexNumber `json:"price"`
	CGST        flexNumber `json:"cgst"`
	SGST        flexNumber `json:"sgst"`
	DeliveryFee flexNumber `json:"delivery_fee"`
	Stock       flexNumber `json:"stock"`
}

type productRecord struct {
	ID          string  `validate:"required"`
	Name        string  `validate:"max=200"`
	UnitPrice   float64 `validate:"gte=0"`
	CGSTPercent float64 `validate:"gte=0,lte=100"`
	SGSTPercent float64 `validate:"gte=0,lte=100"`
	DeliveryFee float64 `validate:"gte=0"`
	StockKg     float64 `validate:"gte=0"`
}

var productValidator = validator.New()

var recordFieldNames = map[string]string{
	"ID":          "pid",
	"Name":        "name",
	"UnitPrice":   "price",
	"CGSTPercent": "cgst",
	"SGSTPercent": "sgst",
	"DeliveryFee": "delivery_fee",
	"StockKg":     "stock",
}

// decodeProducts parses a catalog response body. The body may be a bare array or an object
// whose "data" member holds the array.
func decodeProducts(body []byte) ([]models.Product, error) {
	raw, err := unwrapEnvelope(body)
	if err != nil {
		return nil, err
	}

	var records []json.RawMessage
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("catalog response: expected array of products: %w", err)
	}

	products := make([]models.Product, 0, len(records))
	for i, rec := range records {
		p, err := decodeProduct(i, rec)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, nil
}

// decodeSingleProduct parses a single product body, optionally wrapped in "data".
func decodeSingleProduct(body []byte) (models.Product, error) {
	raw, err := unwrapEnvelope(body)
	if err != nil {
		return models.Product{}, err
	}
	return decodeProduct(0, raw)
}

func unwrapEnvelope(body []byte) (json.RawMessage, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, fmt.Errorf("catalog response: empty body")
	}
	if body[0] != '{' {
		return body, nil
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("catalog response: %w", err)
	}
	if len(envelope.Data) == 0 {
		// A bare object is a single product record.
		return body, nil
	}
	return envelope.Data, nil
}

func decodeProduct(index int, data json.RawMessage) (models.Product, error) {
	var raw rawProduct
	if err := json.Unmarshal(data, &raw); err != nil {
		return models.Product{}, &PayloadError{Index: index, Field: "record", Reason: err.Error()}
	}

	id := string(raw.PID)
	if id == "" {
		id = string(raw.ID)
	}

	rec := productRecord{
		ID:          id,
		Name:        strings.TrimSpace(raw.Name),
		UnitPrice:   raw.Price.Value,
		CGSTPercent: raw.CGST.Value,
		SGSTPercent: raw.SGST.Value,
		DeliveryFee: raw.DeliveryFee.Value,
		StockKg:     raw.Stock.Value,
	}

	if err := checkFinite(index, rec); err != nil {
		return models.Product{}, err
	}
	if err := productValidator.Struct(rec); err != nil {
		return models.Product{}, toPayloadError(index, err)
	}

	return models.Product{
		ID:          rec.ID,
		Name:        rec.Name,
		VendorID:    string(raw.VendorID),
		UnitPrice:   rec.UnitPrice,
		CGSTPercent: rec.CGSTPercent,
		SGSTPercent: rec.SGSTPercent,
		DeliveryFee: rec.DeliveryFee,
		StockKg:     rec.StockKg,
	}, nil
}

// checkFinite rejects NaN and infinities, which numeric strings such as "Infinity" parse to
// and which encoding/json cannot write back out.
func checkFinite(index int, rec productRecord) error {
	numbers := []struct {
		field string
		value float64
	}{
		{"price", rec.UnitPrice},
		{"cgst", rec.CGSTPercent},
		{"sgst", rec.SGSTPercent},
		{"delivery_fee", rec.DeliveryFee},
		{"stock", rec.StockKg},
	}
	for _, n := range numbers {
		if math.IsNaN(n.value) || math.IsInf(n.value, 0) {
			return &PayloadError{Index: index, Field: n.field, Reason: "must be a finite number"}
		}
	}
	return nil
}

func toPayloadError(index int, err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return &PayloadError{Index: index, Field: "record", Reason: err.Error()}
	}

	fe := verrs[0]
	field := recordFieldNames[fe.Field()]
	if field == "" {
		field = fe.Field()
	}

	var reason string
	switch fe.Tag() {
	case "required":
		reason = "is required"
	case "gte":
		reason = "must be >= " + fe.Param()
	case "lte":
		reason = "must be <= " + fe.Param()
	case "max":
		reason = "is too long"
	default:
		reason = "failed " + fe.Tag()
	}
	return &PayloadError{Index: index, Field: field, Reason: reason}
}
