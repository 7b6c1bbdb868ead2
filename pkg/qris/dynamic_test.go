package qris

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func staticTestPayload(merchant string) string {
	body := Encode([]Field{
		{Tag: "00", Value: "01"},
		{Tag: TagInitiationMethod, Value: InitiationStatic},
		{Tag: "26", Value: "0016ID.CO.EXAMPLE.WWW0215ID10200000000010303UMI"},
		{Tag: "52", Value: "5812"},
		{Tag: "53", Value: "360"},
		{Tag: TagCountryCode, Value: "ID"},
		{Tag: TagMerchantName, Value: merchant},
		{Tag: "60", Value: "JAKARTA"},
	}) + TagCRC + "04"
	return body + Checksum(body)
}

func TestMakeDynamic_InsertsAmountBeforeCountryCode(t *testing.T) {
	out, err := MakeDynamic(staticTestPayload("KOPI KENANGAN"), 15000)
	require.NoError(t, err)
	require.Contains(t, out, "5405150005802ID")
	require.Equal(t, Checksum(out[:len(out)-4]), out[len(out)-4:])
}

func TestMakeDynamic_SwitchesInitiationToDynamic(t *testing.T) {
	out, err := MakeDynamic(staticTestPayload("ACME"), 1000)
	require.NoError(t, err)
	require.Contains(t, out, TagInitiationMethod+"02"+InitiationDynamic)
	require.NotContains(t, out, TagInitiationMethod+"02"+InitiationStatic)
}

func TestMakeDynamic_OutputValidates(t *testing.T) {
	out, err := MakeDynamic(staticTestPayload("ACME"), 250000)
	require.NoError(t, err)
	require.True(t, Validate(out))
}

func TestMakeDynamic_RoundsToWholeRupiah(t *testing.T) {
	out, err := MakeDynamic(staticTestPayload("ACME"), 9999.6)
	require.NoError(t, err)
	require.Contains(t, out, TagAmount+"05"+"10000")
}

func TestMakeDynamic_RejectsNonPositiveAmount(t *testing.T) {
	for _, amount := range []float64{0, -1, -15000} {
		_, err := MakeDynamic(staticTestPayload("ACME"), amount)
		require.True(t, errors.Is(err, ErrInvalidAmount))
	}
}

func TestMakeDynamic_MissingCountryCode(t *testing.T) {
	body := Encode([]Field{
		{Tag: "00", Value: "01"},
		{Tag: TagInitiationMethod, Value: InitiationStatic},
		{Tag: TagMerchantName, Value: "ACME"},
	}) + TagCRC + "04"
	_, err := MakeDynamic(body+Checksum(body), 1000)
	require.True(t, errors.Is(err, ErrInvalidFormat))
}

func TestMakeDynamic_FixedFee(t *testing.T) {
	out, err := MakeDynamic(staticTestPayload("ACME"), 50000, WithFee(FeeTypeFixed, 1500))
	require.NoError(t, err)
	require.Contains(t, out, TagFeeIndicator+"02"+"02")
	require.Contains(t, out, TagFeeFixed+"04"+"1500")
	require.True(t, Validate(out))
}

func TestMakeDynamic_PercentFee(t *testing.T) {
	out, err := MakeDynamic(staticTestPayload("ACME"), 50000, WithFee(FeeTypePercent, 0.7))
	require.NoError(t, err)
	require.Contains(t, out, TagFeeIndicator+"02"+"03")
	require.Contains(t, out, TagFeePercent+"03"+"0.7")
	require.True(t, Validate(out))
}

func TestMakeDynamic_ReplacesStaleAmountTag(t *testing.T) {
	first, err := MakeDynamic(staticTestPayload("ACME"), 15000)
	require.NoError(t, err)
	second, err := MakeDynamic(first, 20000)
	require.NoError(t, err)
	require.Contains(t, second, TagAmount+"05"+"20000"+TagCountryCode+"02ID")
	require.NotContains(t, second, TagAmount+"05"+"15000")
	require.True(t, Validate(second))
}

func TestValidate_RejectsShortPayload(t *testing.T) {
	require.False(t, Validate("00020158020ID6304ABCD"))
}

func TestValidate_RejectsBadChecksum(t *testing.T) {
	p := staticTestPayload("ACME")
	require.False(t, Validate(p[:len(p)-4]+"0000"))
}

func TestValidate_AcceptsStaticPayload(t *testing.T) {
	require.True(t, Validate(staticTestPayload("WARUNG MAKAN SEDERHANA")))
}

func TestMerchantName_RoundTripThroughDynamic(t *testing.T) {
	out, err := MakeDynamic(staticTestPayload("ACME"), 1000)
	require.NoError(t, err)
	require.Equal(t, "ACME", MerchantName(out))
}

func TestMerchantName_MissingTag(t *testing.T) {
	require.Equal(t, MerchantNameUnknown, MerchantName("0002015802ID"))
}

func TestMerchantName_MalformedPayloadNeverPanics(t *testing.T) {
	require.Equal(t, MerchantNameUnknown, MerchantName("59"))
	require.Equal(t, "ACME", MerchantName("garbage5904ACMEtrailing9"))
}
