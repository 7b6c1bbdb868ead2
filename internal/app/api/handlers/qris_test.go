package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/warungpay/qrispay/pkg/qris"
	"github.com/warungpay/qrispay/pkg/response"
)

func staticPayload() string {
	body := qris.Encode([]qris.Field{
		{Tag: "00", Value: "01"},
		{Tag: qris.TagInitiationMethod, Value: qris.InitiationStatic},
		{Tag: "26", Value: "0016ID.CO.EXAMPLE.WWW0215ID10200000000010303UMI"},
		{Tag: "52", Value: "5812"},
		{Tag: "53", Value: "360"},
		{Tag: qris.TagCountryCode, Value: "ID"},
		{Tag: qris.TagMerchantName, Value: "WARUNG SEJAHTERA"},
		{Tag: "60", Value: "JAKARTA"},
	}) + qris.TagCRC + "04"
	return body + qris.Checksum(body)
}

func qrisRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterQRISRoutes(r.Group("/api/v1"), zap.NewNop().Sugar())
	return r
}

func TestApiMakeDynamicQR(t *testing.T) {
	r := qrisRouter()

	body, _ := json.Marshal(MakeDynamicQRRequest{Payload: staticPayload(), Amount: 15000})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/qris/dynamic", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var env response.APIResponse[DynamicQRResponse]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.Equal(t, response.APIResponseCodeOK, env.Code)
	require.Equal(t, "WARUNG SEJAHTERA", env.Data.MerchantName)
	require.True(t, qris.Validate(env.Data.Payload))
	require.Contains(t, env.Data.Payload, qris.TagAmount+"05"+"15000")
}

func TestApiMakeDynamicQR_RejectsBadPayload(t *testing.T) {
	r := qrisRouter()

	body, _ := json.Marshal(MakeDynamicQRRequest{Payload: "garbage", Amount: 15000})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/qris/dynamic", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var env response.APIResponse[string]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.Equal(t, response.APIResponseCodeBadRequest, env.Code)
}

func TestApiValidateQR(t *testing.T) {
	r := qrisRouter()

	body, _ := json.Marshal(ValidateQRRequest{Payload: staticPayload()})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/qris/validate", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var env response.APIResponse[ValidateQRResponse]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.True(t, env.Data.Valid)
	require.Equal(t, "WARUNG SEJAHTERA", env.Data.MerchantName)
}
