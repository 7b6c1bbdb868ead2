package qris

import (
	"fmt"
	"strconv"
	"strings"
)

// EMVCo tag ids relevant to dynamic QRIS generation.
const (
	TagInitiationMethod = "01"
	TagAmount           = "54"
	TagFeeIndicator     = "55"
	TagFeeFixed         = "56"
	TagFeePercent       = "57"
	TagCountryCode      = "58"
	TagMerchantName     = "59"
	TagCRC              = "63"
)

const (
	InitiationStatic  = "11"
	InitiationDynamic = "12"
)

// Field is a single tag-length-value record of an EMVCo payload.
// Length is implied by Value; it is re-derived on encode.
type Field struct {
	Tag   string
	Value string
}

// Parse decodes a full TLV payload into its top-level fields. Nested
// templates (merchant account info, additional data) are kept opaque as the
// raw value of their outer tag.
func Parse(payload string) ([]Field, error) {
	var fields []Field
	for i := 0; i < len(payload); {
		if len(payload)-i < 4 {
			return nil, fmt.Errorf("%w: truncated field at offset %d", ErrInvalidFormat, i)
		}
		tag := payload[i : i+2]
		length, err := strconv.Atoi(payload[i+2 : i+4])
		if err != nil || length < 0 {
			return nil, fmt.Errorf("%w: bad length for tag %s at offset %d", ErrInvalidFormat, tag, i)
		}
		if i+4+length > len(payload) {
			return nil, fmt.Errorf("%w: tag %s value overruns payload", ErrInvalidFormat, tag)
		}
		fields = append(fields, Field{Tag: tag, Value: payload[i+4 : i+4+length]})
		i += 4 + length
	}
	return fields, nil
}

// Encode serializes fields back to the wire form: tag, zero-padded 2-digit
// length, value.
func Encode(fields []Field) string {
	var b strings.Builder
	for _, f := range fields {
		b.WriteString(f.Tag)
		fmt.Fprintf(&b, "%02d", len(f.Value))
		b.WriteString(f.Value)
	}
	return b.String()
}

func findField(fields []Field, tag string) (Field, bool) {
	for _, f := range fields {
		if f.Tag == tag {
			return f, true
		}
	}
	return Field{}, false
}
