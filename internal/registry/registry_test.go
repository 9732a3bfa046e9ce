package registry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NikodemGapski/storage-system/internal/registry"
	"github.com/NikodemGapski/storage-system/pkg/storage"
)

func validCapacities() map[storage.DeviceID]int {
	return map[storage.DeviceID]int{"d1": 2, "d2": 1}
}

func validPlacement() map[storage.ComponentID]storage.DeviceID {
	return map[storage.ComponentID]storage.DeviceID{"c1": "d1", "c2": "d1", "c3": "d2"}
}

func TestNew_InvalidConfigurations(t *testing.T) {
	tests := []struct {
		name       string
		capacities map[storage.DeviceID]int
		placement  map[storage.ComponentID]storage.DeviceID
	}{
		{
			name:       "empty devices",
			capacities: map[storage.DeviceID]int{},
			placement:  validPlacement(),
		},
		{
			name:       "nil devices",
			capacities: nil,
			placement:  validPlacement(),
		},
		{
			name:       "empty placement",
			capacities: validCapacities(),
			placement:  map[storage.ComponentID]storage.DeviceID{},
		},
		{
			name:       "empty device id",
			capacities: map[storage.DeviceID]int{"": 1},
			placement:  map[storage.ComponentID]storage.DeviceID{"c1": ""},
		},
		{
			name:       "zero capacity",
			capacities: map[storage.DeviceID]int{"d1": 0},
			placement:  map[storage.ComponentID]storage.DeviceID{"c1": "d1"},
		},
		{
			name:       "negative capacity",
			capacities: map[storage.DeviceID]int{"d1": -3},
			placement:  map[storage.ComponentID]storage.DeviceID{"c1": "d1"},
		},
		{
			name:       "empty component id",
			capacities: validCapacities(),
			placement:  map[storage.ComponentID]storage.DeviceID{"": "d1"},
		},
		{
			name:       "unregistered device in placement",
			capacities: validCapacities(),
			placement:  map[storage.ComponentID]storage.DeviceID{"c1": "d9"},
		},
		{
			name:       "device over capacity",
			capacities: map[storage.DeviceID]int{"d1": 1},
			placement:  map[storage.ComponentID]storage.DeviceID{"c1": "d1", "c2": "d1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, err := registry.New(tt.capacities, tt.placement)
			require.Error(t, err)
			assert.Nil(t, reg)

			var ce *storage.ConfigError
			assert.ErrorAs(t, err, &ce)
		})
	}
}

func TestNew_PlacesComponents(t *testing.T) {
	reg, err := registry.New(validCapacities(), validPlacement())
	require.NoError(t, err)

	d1 := reg.Device("d1")
	require.NotNil(t, d1)
	assert.Equal(t, 2, d1.Capacity())
	assert.Equal(t, 2, d1.PresentCount())
	assert.Equal(t, 2, d1.Reserved())
	assert.False(t, d1.HasEmptySlots())

	d2 := reg.Device("d2")
	require.NotNil(t, d2)
	assert.Equal(t, 1, d2.PresentCount())

	assert.Nil(t, reg.Device("d9"))

	c1 := reg.Component("c1")
	require.NotNil(t, c1)
	assert.Same(t, d1, c1.Device())
	assert.False(t, c1.IsOperatedOn())

	assert.Nil(t, reg.Component("c9"))
	assert.Equal(t, 3, reg.ComponentCount())
}

func TestRegistry_RemoveComponent(t *testing.T) {
	reg, err := registry.New(validCapacities(), validPlacement())
	require.NoError(t, err)

	reg.RemoveComponent("c1")
	assert.Nil(t, reg.Component("c1"))
	assert.Equal(t, 2, reg.ComponentCount())
}
