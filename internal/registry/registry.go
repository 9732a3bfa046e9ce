// Package registry owns the device and component tables and is the single
// point of identity resolution. It is not thread-safe on its own; all
// mutation after construction happens under the coordinator mutex.
package registry

import (
	"fmt"

	"github.com/NikodemGapski/storage-system/internal/model"
	"github.com/NikodemGapski/storage-system/pkg/storage"
)

// Registry maps device and component ids to their live state. The device
// table is fixed at construction; the component table grows and shrinks as
// adds and removes complete.
type Registry struct {
	devices    map[storage.DeviceID]*model.Device
	components map[storage.ComponentID]*model.Component
}

// New builds a registry from device capacities and the initial component
// placement, validating the configuration: both maps non-empty, no empty
// ids, positive capacities, placements referencing registered devices
// only, and no device over capacity. Violations return a ConfigError.
func New(capacities map[storage.DeviceID]int, placement map[storage.ComponentID]storage.DeviceID) (*Registry, error) {
	if len(capacities) == 0 {
		return nil, storage.InvalidConfig("device capacities must not be empty")
	}
	if len(placement) == 0 {
		return nil, storage.InvalidConfig("initial component placement must not be empty")
	}

	devices := make(map[storage.DeviceID]*model.Device, len(capacities))
	for id, capacity := range capacities {
		if id == "" {
			return nil, storage.InvalidConfig("a device has an empty id")
		}
		if capacity <= 0 {
			return nil, storage.InvalidConfig(fmt.Sprintf("device '%s' has non-positive capacity %d", id, capacity))
		}
		devices[id] = model.NewDevice(id, capacity)
	}

	components := make(map[storage.ComponentID]*model.Component, len(placement))
	for componentID, deviceID := range placement {
		if componentID == "" {
			return nil, storage.InvalidConfig("a component has an empty id")
		}
		device, ok := devices[deviceID]
		if !ok {
			return nil, storage.InvalidConfig(fmt.Sprintf("component '%s' is placed on unregistered device '%s'", componentID, deviceID))
		}
		c := model.NewComponent(componentID)
		device.Place(c)
		components[componentID] = c
	}

	for _, d := range devices {
		if d.PresentCount() > d.Capacity() {
			return nil, storage.InvalidConfig(fmt.Sprintf("device '%s' holds %d components but has capacity %d", d.ID(), d.PresentCount(), d.Capacity()))
		}
	}

	return &Registry{devices: devices, components: components}, nil
}

// Device returns the device with the given id, or nil if unregistered.
func (r *Registry) Device(id storage.DeviceID) *model.Device {
	return r.devices[id]
}

// Component returns the component with the given id, or nil if absent.
func (r *Registry) Component(id storage.ComponentID) *model.Component {
	return r.components[id]
}

// InsertComponent registers a component created by an admitted add.
func (r *Registry) InsertComponent(c *model.Component) {
	r.components[c.ID()] = c
}

// RemoveComponent erases a component at the start of an admitted remove.
func (r *Registry) RemoveComponent(id storage.ComponentID) {
	delete(r.components, id)
}

// Devices returns all registered devices in unspecified order.
func (r *Registry) Devices() []*model.Device {
	devices := make([]*model.Device, 0, len(r.devices))
	for _, d := range r.devices {
		devices = append(devices, d)
	}
	return devices
}

// ComponentCount returns the number of components currently registered.
func (r *Registry) ComponentCount() int {
	return len(r.components)
}
