package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/atinyakov/crmsync/internal/crm"
	"github.com/atinyakov/crmsync/internal/models"
	"github.com/atinyakov/crmsync/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func syncedOwner() *mockMemberRepo {
	return &mockMemberRepo{
		GetMemberFunc: func(_ context.Context, id string) (*models.Member, error) {
			return &models.Member{ID: id, RemoteID: "a01OWNER"}, nil
		},
	}
}

func TestSyncVehicle_CreatesThenVerifies(t *testing.T) {
	var marked []string
	repo := &mockVehicleRepo{
		MarkVehiclesVerifiedFunc: func(_ context.Context, ids []string) error {
			marked = ids
			return nil
		},
	}
	syncer := &mockVehicleCRM{
		CreateFunc: func(context.Context, models.Vehicle) (string, error) { return "a02X", nil },
		VerifyFunc: func(_ context.Context, v models.Vehicle) bool {
			assert.Equal(t, "a02X", v.RemoteID, "verify must see the new remote id")
			return true
		},
	}
	svc := service.NewVehicleService(repo, syncedOwner(), syncer, nil)

	v := &models.Vehicle{ID: "V1", OwnerID: "M1"}
	res, err := svc.SyncVehicle(context.Background(), v)
	require.NoError(t, err)
	assert.Equal(t, service.VehicleSyncResult{RemoteID: "a02X", Verified: true}, res)
	assert.Equal(t, []string{"V1"}, marked)
	assert.True(t, v.IsVerified)
}

func TestSyncVehicle_PendingIsNotMarked(t *testing.T) {
	repo := &mockVehicleRepo{
		MarkVehiclesVerifiedFunc: func(context.Context, []string) error {
			t.Fatal("pending vehicle must not be marked verified")
			return nil
		},
	}
	syncer := &mockVehicleCRM{
		CreateFunc: func(context.Context, models.Vehicle) (string, error) { return "a02X", nil },
	}
	svc := service.NewVehicleService(repo, syncedOwner(), syncer, nil)

	res, err := svc.SyncVehicle(context.Background(), &models.Vehicle{ID: "V1", OwnerID: "M1"})
	require.NoError(t, err)
	assert.Equal(t, "a02X", res.RemoteID)
	assert.False(t, res.Verified)
}

func TestSyncVehicle_OwnerNotSynced(t *testing.T) {
	members := &mockMemberRepo{
		GetMemberFunc: func(_ context.Context, id string) (*models.Member, error) {
			return &models.Member{ID: id}, nil
		},
	}
	syncer := &mockVehicleCRM{
		CreateFunc: func(context.Context, models.Vehicle) (string, error) {
			t.Fatal("Create must not be called before the owner is synced")
			return "", nil
		},
	}
	svc := service.NewVehicleService(&mockVehicleRepo{}, members, syncer, nil)

	_, err := svc.SyncVehicle(context.Background(), &models.Vehicle{ID: "V1", OwnerID: "M1"})
	assert.ErrorIs(t, err, service.ErrOwnerNotSynced)
}

func TestSyncVehicle_CreateFailure(t *testing.T) {
	wantErr := errors.New("crm down")
	syncer := &mockVehicleCRM{
		CreateFunc: func(context.Context, models.Vehicle) (string, error) { return "", wantErr },
	}
	svc := service.NewVehicleService(&mockVehicleRepo{}, syncedOwner(), syncer, nil)

	v := &models.Vehicle{ID: "V1", OwnerID: "M1"}
	_, err := svc.SyncVehicle(context.Background(), v)
	assert.ErrorIs(t, err, wantErr)
	assert.Empty(t, v.RemoteID)
}

func TestUpdateVehicleByID_FieldError(t *testing.T) {
	fe := &crm.FieldError{Message: "VIN is invalid", Code: "FIELD_CUSTOM_VALIDATION_EXCEPTION"}
	repo := &mockVehicleRepo{
		GetVehicleFunc: func(_ context.Context, id string) (*models.Vehicle, error) {
			return &models.Vehicle{ID: id, RemoteID: "a02X"}, nil
		},
	}
	syncer := &mockVehicleCRM{
		UpdateFunc: func(context.Context, models.Vehicle) (crm.Result, error) {
			return crm.Result{FieldError: fe}, nil
		},
	}
	svc := service.NewVehicleService(repo, syncedOwner(), syncer, nil)

	got, err := svc.UpdateVehicleByID(context.Background(), "V1")
	require.NoError(t, err)
	assert.Same(t, fe, got)
}

func TestVerifyVehicle_CachedSkipsStore(t *testing.T) {
	repo := &mockVehicleRepo{
		MarkVehiclesVerifiedFunc: func(context.Context, []string) error {
			t.Fatal("already verified vehicle must not be stored again")
			return nil
		},
	}
	syncer := &mockVehicleCRM{
		VerifyFunc: func(_ context.Context, v models.Vehicle) bool { return v.IsVerified },
	}
	svc := service.NewVehicleService(repo, syncedOwner(), syncer, nil)

	ok, err := svc.VerifyVehicle(context.Background(), &models.Vehicle{ID: "V1", RemoteID: "a02X", IsVerified: true})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyVehicleByID_StoreFailure(t *testing.T) {
	repo := &mockVehicleRepo{
		GetVehicleFunc: func(_ context.Context, id string) (*models.Vehicle, error) {
			return &models.Vehicle{ID: id, RemoteID: "a02X"}, nil
		},
		MarkVehiclesVerifiedFunc: func(context.Context, []string) error { return errors.New("db down") },
	}
	syncer := &mockVehicleCRM{
		VerifyFunc: func(context.Context, models.Vehicle) bool { return true },
	}
	svc := service.NewVehicleService(repo, syncedOwner(), syncer, nil)

	ok, err := svc.VerifyVehicleByID(context.Background(), "V1")
	assert.Error(t, err)
	assert.True(t, ok)
}

func TestDeleteVehicleByID(t *testing.T) {
	var cleared string
	repo := &mockVehicleRepo{
		GetVehicleFunc: func(_ context.Context, id string) (*models.Vehicle, error) {
			return &models.Vehicle{ID: id, RemoteID: "a02X"}, nil
		},
		ClearVehicleRemoteIDFunc: func(_ context.Context, id string) error {
			cleared = id
			return nil
		},
	}
	syncer := &mockVehicleCRM{
		DeleteFunc: func(_ context.Context, remoteID string) error {
			assert.Equal(t, "a02X", remoteID)
			return nil
		},
	}
	svc := service.NewVehicleService(repo, syncedOwner(), syncer, nil)

	require.NoError(t, svc.DeleteVehicleByID(context.Background(), "V1"))
	assert.Equal(t, "V1", cleared)
}
