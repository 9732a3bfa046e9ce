// Package validation classifies submitted transfers as add, move, or
// remove, rejecting invalid ones with a typed error.
package validation

import (
	"github.com/NikodemGapski/storage-system/internal/registry"
	"github.com/NikodemGapski/storage-system/pkg/storage"
)

// Validator validates transfers against the current registry state.
type Validator struct {
	reg *registry.Registry
}

// NewValidator creates a new validator.
func NewValidator(reg *registry.Registry) *Validator {
	return &Validator{reg: reg}
}

// Classify checks a transfer and returns its type. It must be called with
// the coordinator mutex held, immediately after acquisition and before any
// state mutation; on error the caller releases the mutex and surfaces the
// error without invoking any callback.
func (v *Validator) Classify(t storage.Transfer) (storage.TransferType, error) {
	componentID := t.ComponentID()
	sourceID := t.SourceDeviceID()
	destinationID := t.DestinationDeviceID()

	comp := v.reg.Component(componentID)

	if sourceID == "" && destinationID == "" {
		return 0, storage.IllegalTransferType(componentID)
	}

	if sourceID != "" && v.reg.Device(sourceID) == nil {
		return 0, storage.DeviceDoesNotExist(sourceID)
	}
	if destinationID != "" && v.reg.Device(destinationID) == nil {
		return 0, storage.DeviceDoesNotExist(destinationID)
	}

	if sourceID == "" && comp != nil {
		var at storage.DeviceID
		if comp.Device() != nil {
			at = comp.Device().ID()
		}
		return 0, storage.ComponentAlreadyExists(componentID, at)
	}

	// A component mid-add has no current device yet; a move or remove
	// naming it cannot match its claimed source.
	if sourceID != "" && (comp == nil || comp.Device() == nil || comp.Device().ID() != sourceID) {
		return 0, storage.ComponentDoesNotExist(componentID, sourceID)
	}

	if destinationID != "" && comp != nil && comp.Device() != nil && comp.Device().ID() == destinationID {
		return 0, storage.ComponentDoesNotNeedTransfer(componentID, destinationID)
	}

	if comp != nil && comp.IsOperatedOn() {
		return 0, storage.ComponentIsBeingOperatedOn(componentID)
	}

	if sourceID == "" {
		return storage.TransferAdd, nil
	}
	if destinationID == "" {
		return storage.TransferRemove, nil
	}
	return storage.TransferMove, nil
}
