package validation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NikodemGapski/storage-system/internal/model"
	"github.com/NikodemGapski/storage-system/internal/registry"
	"github.com/NikodemGapski/storage-system/internal/validation"
	"github.com/NikodemGapski/storage-system/pkg/storage"
)

func newRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.New(
		map[storage.DeviceID]int{"d1": 2, "d2": 1},
		map[storage.ComponentID]storage.DeviceID{"c1": "d1", "c2": "d2"},
	)
	require.NoError(t, err)
	return reg
}

func transfer(component, source, destination string) storage.Transfer {
	return &storage.CallbackTransfer{
		Component:   storage.ComponentID(component),
		Source:      storage.DeviceID(source),
		Destination: storage.DeviceID(destination),
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		transfer storage.Transfer
		want     storage.TransferType
		wantCode storage.ErrorCode
	}{
		{
			name:     "add",
			transfer: transfer("c9", "", "d1"),
			want:     storage.TransferAdd,
		},
		{
			name:     "move",
			transfer: transfer("c1", "d1", "d2"),
			want:     storage.TransferMove,
		},
		{
			name:     "remove",
			transfer: transfer("c1", "d1", ""),
			want:     storage.TransferRemove,
		},
		{
			name:     "no endpoints",
			transfer: transfer("c1", "", ""),
			wantCode: storage.ErrCodeIllegalTransferType,
		},
		{
			name:     "unknown source device",
			transfer: transfer("c1", "d9", "d2"),
			wantCode: storage.ErrCodeDeviceDoesNotExist,
		},
		{
			name:     "unknown destination device",
			transfer: transfer("c1", "d1", "d9"),
			wantCode: storage.ErrCodeDeviceDoesNotExist,
		},
		{
			name:     "add of existing component",
			transfer: transfer("c1", "", "d2"),
			wantCode: storage.ErrCodeComponentAlreadyExists,
		},
		{
			name:     "unknown component",
			transfer: transfer("c9", "d1", "d2"),
			wantCode: storage.ErrCodeComponentDoesNotExist,
		},
		{
			name:     "component on different device than claimed",
			transfer: transfer("c2", "d1", ""),
			wantCode: storage.ErrCodeComponentDoesNotExist,
		},
		{
			name:     "destination equals current device",
			transfer: transfer("c1", "d1", "d1"),
			wantCode: storage.ErrCodeComponentDoesNotNeedTransfer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := validation.NewValidator(newRegistry(t))
			got, err := v.Classify(tt.transfer)
			if tt.wantCode != storage.ErrCodeOK {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, storage.GetCode(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassify_ComponentIsBeingOperatedOn(t *testing.T) {
	reg := newRegistry(t)
	reg.Component("c1").StartOperating()

	v := validation.NewValidator(reg)
	_, err := v.Classify(transfer("c1", "d1", "d2"))
	require.Error(t, err)
	assert.Equal(t, storage.ErrCodeComponentIsBeingOperatedOn, storage.GetCode(err))
}

func TestClassify_AddOfExistingNamesItsDevice(t *testing.T) {
	v := validation.NewValidator(newRegistry(t))
	_, err := v.Classify(transfer("c2", "", "d1"))
	require.Error(t, err)

	var te *storage.TransferError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, storage.ErrCodeComponentAlreadyExists, te.Code)
	assert.Equal(t, storage.DeviceID("d2"), te.Details["device"])
}

func TestClassify_ComponentMidAddDoesNotMatchSource(t *testing.T) {
	reg := newRegistry(t)
	// A component whose add is in flight has no current device yet.
	midAdd := model.NewComponent("c3")
	midAdd.StartOperating()
	reg.InsertComponent(midAdd)

	v := validation.NewValidator(reg)
	_, err := v.Classify(transfer("c3", "d1", "d2"))
	require.Error(t, err)
	assert.Equal(t, storage.ErrCodeComponentDoesNotExist, storage.GetCode(err))
}
