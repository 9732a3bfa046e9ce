package storage

import (
	"errors"
	"fmt"
)

// ErrorCode represents internal error codes for transfer and configuration
// failures.
type ErrorCode int

const (
	// Success
	ErrCodeOK ErrorCode = 0

	// Transfer rejection errors, raised from validation before any state
	// mutation.
	ErrCodeIllegalTransferType          ErrorCode = 1000
	ErrCodeDeviceDoesNotExist           ErrorCode = 1001
	ErrCodeComponentDoesNotExist        ErrorCode = 1002
	ErrCodeComponentAlreadyExists       ErrorCode = 1003
	ErrCodeComponentDoesNotNeedTransfer ErrorCode = 1004
	ErrCodeComponentIsBeingOperatedOn   ErrorCode = 1005

	// Configuration errors, raised from the factory.
	ErrCodeInvalidConfig ErrorCode = 2000
)

// String returns the snake_case name of the error code.
func (c ErrorCode) String() string {
	switch c {
	case ErrCodeOK:
		return "ok"
	case ErrCodeIllegalTransferType:
		return "illegal_transfer_type"
	case ErrCodeDeviceDoesNotExist:
		return "device_does_not_exist"
	case ErrCodeComponentDoesNotExist:
		return "component_does_not_exist"
	case ErrCodeComponentAlreadyExists:
		return "component_already_exists"
	case ErrCodeComponentDoesNotNeedTransfer:
		return "component_does_not_need_transfer"
	case ErrCodeComponentIsBeingOperatedOn:
		return "component_is_being_operated_on"
	case ErrCodeInvalidConfig:
		return "invalid_config"
	default:
		return "unknown"
	}
}

// TransferError represents a structured transfer rejection with code and
// context.
type TransferError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
}

// Error implements the error interface.
func (e *TransferError) Error() string {
	return e.Message
}

// WithDetail adds a detail to the error.
func (e *TransferError) WithDetail(key string, value interface{}) *TransferError {
	e.Details[key] = value
	return e
}

// NewTransferError creates a new TransferError.
func NewTransferError(code ErrorCode, message string) *TransferError {
	return &TransferError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Convenience constructors for the transfer error taxonomy.

// IllegalTransferType reports a transfer naming neither a source nor a
// destination device.
func IllegalTransferType(component ComponentID) *TransferError {
	return NewTransferError(ErrCodeIllegalTransferType,
		fmt.Sprintf("transfer of component '%s' names neither a source nor a destination", component)).
		WithDetail("component", component)
}

// DeviceDoesNotExist reports a transfer naming an unregistered device.
func DeviceDoesNotExist(device DeviceID) *TransferError {
	return NewTransferError(ErrCodeDeviceDoesNotExist,
		fmt.Sprintf("device '%s' is not registered", device)).
		WithDetail("device", device)
}

// ComponentDoesNotExist reports a transfer naming an absent component, or
// one located on a device different from the claimed source.
func ComponentDoesNotExist(component ComponentID, source DeviceID) *TransferError {
	return NewTransferError(ErrCodeComponentDoesNotExist,
		fmt.Sprintf("component '%s' does not exist on device '%s'", component, source)).
		WithDetail("component", component).
		WithDetail("source", source)
}

// ComponentAlreadyExists reports an add of a component already in the
// system, naming the device it currently resides on.
func ComponentAlreadyExists(component ComponentID, device DeviceID) *TransferError {
	return NewTransferError(ErrCodeComponentAlreadyExists,
		fmt.Sprintf("component '%s' already exists on device '%s'", component, device)).
		WithDetail("component", component).
		WithDetail("device", device)
}

// ComponentDoesNotNeedTransfer reports a transfer whose destination equals
// the component's current device.
func ComponentDoesNotNeedTransfer(component ComponentID, device DeviceID) *TransferError {
	return NewTransferError(ErrCodeComponentDoesNotNeedTransfer,
		fmt.Sprintf("component '%s' already resides on device '%s'", component, device)).
		WithDetail("component", component).
		WithDetail("device", device)
}

// ComponentIsBeingOperatedOn reports a transfer naming a component with
// another transfer in progress.
func ComponentIsBeingOperatedOn(component ComponentID) *TransferError {
	return NewTransferError(ErrCodeComponentIsBeingOperatedOn,
		fmt.Sprintf("component '%s' is being operated on by another transfer", component)).
		WithDetail("component", component)
}

// ConfigError reports an invalid system configuration passed to the
// factory.
type ConfigError struct {
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return e.Message
}

// InvalidConfig creates a new ConfigError.
func InvalidConfig(message string) *ConfigError {
	return &ConfigError{Message: message}
}

// IsTransferError checks if an error is a TransferError.
func IsTransferError(err error) bool {
	var te *TransferError
	return errors.As(err, &te)
}

// GetCode extracts the error code from an error.
func GetCode(err error) ErrorCode {
	var te *TransferError
	if errors.As(err, &te) {
		return te.Code
	}
	var ce *ConfigError
	if errors.As(err, &ce) {
		return ErrCodeInvalidConfig
	}
	return ErrCodeOK
}
