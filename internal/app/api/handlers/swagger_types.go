package handlers

import "github.com/warungpay/qrispay/pkg/response"

// Concrete envelope shapes for swagger docs; generics are not representable
// in the generated spec.

type RespOK struct {
	Code    response.APIResponseCode `json:"code" example:"0"`
	Message string                   `json:"message" example:"ok"`
	Data    any                      `json:"data"`
}

type RespErr struct {
	Code    response.APIResponseCode `json:"code" example:"40000"`
	Message string                   `json:"message" example:"unexpected error"`
	Data    string                   `json:"data"`
}
