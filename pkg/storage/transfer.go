package storage

// Transfer describes a single component relocation request.
//
// A transfer with no source adds a new component, one with no destination
// removes an existing component, and one with both endpoints moves a
// component between devices.
//
// Prepare and Perform are opaque, possibly long-running callbacks supplied
// by the caller. The system invokes them on the submitting goroutine, in
// that order, and never while the coordinator mutex is held.
type Transfer interface {
	ComponentID() ComponentID
	SourceDeviceID() DeviceID
	DestinationDeviceID() DeviceID

	// Prepare carries out the first phase of the transfer, e.g. allocating
	// space on the destination device.
	Prepare()

	// Perform carries out the second phase of the transfer, e.g. copying
	// the component's data.
	Perform()
}

// CallbackTransfer is a Transfer backed by plain struct fields and optional
// callback functions. Nil callbacks are no-ops.
type CallbackTransfer struct {
	Component   ComponentID
	Source      DeviceID
	Destination DeviceID
	PrepareFn   func()
	PerformFn   func()
}

// ComponentID returns the id of the component being transferred.
func (t *CallbackTransfer) ComponentID() ComponentID { return t.Component }

// SourceDeviceID returns the source device, or the zero value for an add.
func (t *CallbackTransfer) SourceDeviceID() DeviceID { return t.Source }

// DestinationDeviceID returns the destination device, or the zero value
// for a remove.
func (t *CallbackTransfer) DestinationDeviceID() DeviceID { return t.Destination }

// Prepare invokes the PrepareFn callback if one is set.
func (t *CallbackTransfer) Prepare() {
	if t.PrepareFn != nil {
		t.PrepareFn()
	}
}

// Perform invokes the PerformFn callback if one is set.
func (t *CallbackTransfer) Perform() {
	if t.PerformFn != nil {
		t.PerformFn()
	}
}
