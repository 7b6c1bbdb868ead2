package qris

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

var (
	// ErrInvalidFormat indicates the payload is not a well-formed QRIS TLV
	// string or lacks the Indonesian country-code marker.
	ErrInvalidFormat = errors.New("invalid QRIS payload format")
	// ErrInvalidAmount indicates a zero or negative transaction amount.
	ErrInvalidAmount = errors.New("amount must be positive")
)

// FeeType selects how an optional service fee is encoded in tag 55.
type FeeType string

const (
	FeeTypeFixed   FeeType = "fixed"
	FeeTypePercent FeeType = "percent"
)

type dynamicOptions struct {
	feeType  FeeType
	feeValue float64
	hasFee   bool
}

type DynamicOption func(*dynamicOptions)

// WithFee adds a service-fee section to the dynamic payload. Fixed fees are
// rounded to whole currency units; percentage fees keep the given value.
func WithFee(t FeeType, value float64) DynamicOption {
	return func(o *dynamicOptions) {
		o.feeType = t
		o.feeValue = value
		o.hasFee = true
	}
}

// MakeDynamic rewrites a static merchant QRIS payload into a dynamic one
// bound to the given amount. The point-of-initiation tag is switched from
// static to dynamic, the amount (and optional fee) tags are inserted before
// the country-code tag, and the CRC is recomputed.
func MakeDynamic(payload string, amount float64, opts ...DynamicOption) (string, error) {
	var o dynamicOptions
	for _, fn := range opts {
		fn(&o)
	}

	rupiah := int64(math.Round(amount))
	if rupiah <= 0 {
		return "", fmt.Errorf("%w: got %v", ErrInvalidAmount, amount)
	}

	fields, err := Parse(payload)
	if err != nil {
		return "", err
	}
	if cc, ok := findField(fields, TagCountryCode); !ok || cc.Value != "ID" {
		return "", fmt.Errorf("%w: country-code tag 58 missing", ErrInvalidFormat)
	}

	out := make([]Field, 0, len(fields)+3)
	for _, f := range fields {
		switch f.Tag {
		case TagAmount, TagFeeIndicator, TagFeeFixed, TagFeePercent, TagCRC:
			// rebuilt below, stale values dropped
			continue
		case TagInitiationMethod:
			if f.Value == InitiationStatic {
				f.Value = InitiationDynamic
			}
		case TagCountryCode:
			out = append(out, Field{Tag: TagAmount, Value: strconv.FormatInt(rupiah, 10)})
			out = append(out, feeFields(&o)...)
		}
		out = append(out, f)
	}

	body := Encode(out) + TagCRC + "04"
	return body + Checksum(body), nil
}

func feeFields(o *dynamicOptions) []Field {
	if !o.hasFee {
		return nil
	}
	switch o.feeType {
	case FeeTypePercent:
		return []Field{
			{Tag: TagFeeIndicator, Value: "03"},
			{Tag: TagFeePercent, Value: strconv.FormatFloat(o.feeValue, 'f', -1, 64)},
		}
	default:
		return []Field{
			{Tag: TagFeeIndicator, Value: "02"},
			{Tag: TagFeeFixed, Value: strconv.FormatInt(int64(math.Round(o.feeValue)), 10)},
		}
	}
}

// Validate reports whether payload looks like a QRIS string: minimum length,
// point-of-initiation and country-code markers present, and a trailing CRC
// matching the preceding characters.
func Validate(payload string) bool {
	if len(payload) < 50 {
		return false
	}
	fields, err := Parse(payload)
	if err != nil {
		return false
	}
	if _, ok := findField(fields, TagInitiationMethod); !ok {
		return false
	}
	if cc, ok := findField(fields, TagCountryCode); !ok || cc.Value != "ID" {
		return false
	}
	return payload[len(payload)-4:] == Checksum(payload[:len(payload)-4])
}

// MerchantNameUnknown is returned when tag 59 is absent or unreadable.
const MerchantNameUnknown = "unknown"

// MerchantName extracts the merchant name from tag 59. It never fails;
// malformed payloads yield MerchantNameUnknown.
func MerchantName(payload string) string {
	fields, err := Parse(payload)
	if err == nil {
		if f, ok := findField(fields, TagMerchantName); ok {
			return f.Value
		}
		return MerchantNameUnknown
	}
	// Fall back to a linear scan for payloads whose tail is malformed.
	for i := 0; i+4 <= len(payload); i++ {
		if payload[i:i+2] != TagMerchantName {
			continue
		}
		length, aerr := strconv.Atoi(payload[i+2 : i+4])
		if aerr != nil || length <= 0 || i+4+length > len(payload) {
			return MerchantNameUnknown
		}
		return payload[i+4 : i+4+length]
	}
	return MerchantNameUnknown
}
