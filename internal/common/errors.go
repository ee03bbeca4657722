// Package common provides shared utilities used across all features
package common

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds surfaced by the accounting core. Callers match them with errors.Is;
// components wrap them with context using %w.
var (
	ErrInvalidRewardInitParam = errors.New("invalid reward init param")
	ErrNotApproved            = errors.New("not approved")
	ErrMathOverflow           = errors.New("math overflow")
	ErrDivideByZero           = errors.New("divide by zero")
	ErrLiquidityOverflow      = errors.New("liquidity overflow")
	ErrLiquidityUnderflow     = errors.New("liquidity underflow")
	ErrInvalidRange           = errors.New("invalid tick range")
	ErrInsufficientFunding    = errors.New("insufficient funding")

	ErrInvalidTickIndex       = errors.New("tick index out of bounds")
	ErrInvalidSqrtPrice       = errors.New("sqrt price out of bounds")
	ErrInvalidSqrtPriceLimit  = errors.New("invalid sqrt price limit")
	ErrZeroAmountSpecified    = errors.New("amount specified must be non-zero")
	ErrInvalidTickArray       = errors.New("invalid tick array")
	ErrPoolAlreadyInitialized = errors.New("pool already initialized")
	ErrZeroLiquidityPoke      = errors.New("cannot poke a position with zero liquidity")
	ErrRewardNotInitialized   = errors.New("reward not initialized")
	ErrInvalidMintOrder       = errors.New("token mint 0 must sort before token mint 1")
	ErrInvalidFeeRate         = errors.New("invalid fee rate")
	ErrSlippageExceeded       = errors.New("price slippage check failed")
	ErrNotFound               = errors.New("record not found")
)

// HttpError represents an HTTP error with status code and message
type HttpError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *HttpError) Error() string {
	return fmt.Sprintf("HTTP error: %d %s %s", e.StatusCode, e.Code, e.Message)
}

func messageOrDefault(msg string, defaultMsg string) string {
	if msg != "" {
		return msg
	}
	return defaultMsg
}

// HTTP Error constructors

func HTTPErrorBadRequest(msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusBadRequest,
		Code:       "BAD_REQUEST",
		Message:    messageOrDefault(msg, "Bad request"),
	}
}

func HTTPErrorNotFound(msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusNotFound,
		Code:       "NOT_FOUND",
		Message:    messageOrDefault(msg, "Not found"),
	}
}

func HTTPErrorInternalError(msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusInternalServerError,
		Code:       "INTERNAL_SERVER_ERROR",
		Message:    messageOrDefault(msg, "Internal server error"),
	}
}

func HTTPErrorForbidden(msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusForbidden,
		Code:       "FORBIDDEN",
		Message:    messageOrDefault(msg, "Forbidden"),
	}
}

func HTTPErrorUnprocessable(code, msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusUnprocessableEntity,
		Code:       code,
		Message:    messageOrDefault(msg, "Unprocessable entity"),
	}
}

// HTTPErrorFromCore maps an error kind onto the response the inspection API returns.
func HTTPErrorFromCore(err error) *HttpError {
	var httpErr *HttpError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &httpErr):
		return httpErr
	case errors.Is(err, ErrNotFound):
		return HTTPErrorNotFound(err.Error())
	case errors.Is(err, ErrNotApproved):
		return HTTPErrorForbidden(err.Error())
	case errors.Is(err, ErrMathOverflow), errors.Is(err, ErrDivideByZero):
		return HTTPErrorUnprocessable("MATH_OVERFLOW", err.Error())
	case errors.Is(err, ErrLiquidityOverflow), errors.Is(err, ErrLiquidityUnderflow):
		return HTTPErrorUnprocessable("LIQUIDITY_BOUNDS", err.Error())
	case errors.Is(err, ErrSlippageExceeded):
		return HTTPErrorUnprocessable("SLIPPAGE_EXCEEDED", err.Error())
	case errors.Is(err, ErrInsufficientFunding):
		return HTTPErrorUnprocessable("INSUFFICIENT_FUNDING", err.Error())
	case errors.Is(err, ErrInvalidRewardInitParam),
		errors.Is(err, ErrInvalidRange),
		errors.Is(err, ErrInvalidTickIndex),
		errors.Is(err, ErrInvalidSqrtPrice),
		errors.Is(err, ErrInvalidSqrtPriceLimit),
		errors.Is(err, ErrZeroAmountSpecified),
		errors.Is(err, ErrInvalidMintOrder),
		errors.Is(err, ErrInvalidFeeRate),
		errors.Is(err, ErrInvalidTickArray),
		errors.Is(err, ErrPoolAlreadyInitialized),
		errors.Is(err, ErrZeroLiquidityPoke),
		errors.Is(err, ErrRewardNotInitialized):
		return HTTPErrorBadRequest(err.Error())
	default:
		return HTTPErrorInternalError(err.Error())
	}
}
