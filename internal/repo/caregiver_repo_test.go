package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/mediminder/mediminder-backend/internal/domain"
)

func TestCreateAndListCaregivers_PrimaryFirst(t *testing.T) {
	db := newRepoDB(t, &domain.Caregiver{})
	ctx := context.Background()

	if _, err := CreateCaregiver(ctx, db, &domain.Caregiver{
		UserID: "u1", Name: "Alex", Phone: "+155500001", Relationship: "friend",
	}); err != nil {
		t.Fatalf("CreateCaregiver: %v", err)
	}
	primary, err := CreateCaregiver(ctx, db, &domain.Caregiver{
		UserID: "u1", Name: "Dana", Phone: "+155500002", Relationship: "daughter", IsPrimary: true,
	})
	if err != nil {
		t.Fatalf("CreateCaregiver: %v", err)
	}

	got, err := ListCaregivers(ctx, db, "u1")
	if err != nil {
		t.Fatalf("ListCaregivers: %v", err)
	}
	if len(got) != 2 || got[0].ID != primary.ID {
		t.Fatalf("expected primary first, got %+v", got)
	}
}

func TestClearPrimary_DemotesAll(t *testing.T) {
	db := newRepoDB(t, &domain.Caregiver{})
	ctx := context.Background()

	c, err := CreateCaregiver(ctx, db, &domain.Caregiver{
		UserID: "u1", Name: "Dana", Phone: "+155500002", Relationship: "daughter", IsPrimary: true,
	})
	if err != nil {
		t.Fatalf("CreateCaregiver: %v", err)
	}
	if err := ClearPrimary(ctx, db, "u1"); err != nil {
		t.Fatalf("ClearPrimary: %v", err)
	}
	got, err := GetCaregiver(ctx, db, c.ID, "u1")
	if err != nil {
		t.Fatalf("GetCaregiver: %v", err)
	}
	if got.IsPrimary {
		t.Fatalf("caregiver still primary after ClearPrimary")
	}
}

func TestDeleteCaregiver_OwnershipAndNotFound(t *testing.T) {
	db := newRepoDB(t, &domain.Caregiver{})
	ctx := context.Background()

	c, err := CreateCaregiver(ctx, db, &domain.Caregiver{
		UserID: "u1", Name: "Alex", Phone: "+155500001", Relationship: "friend",
	})
	if err != nil {
		t.Fatalf("CreateCaregiver: %v", err)
	}

	if err := DeleteCaregiver(ctx, db, c.ID, "intruder"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign user, got %v", err)
	}
	if err := DeleteCaregiver(ctx, db, c.ID, "u1"); err != nil {
		t.Fatalf("DeleteCaregiver: %v", err)
	}
	if _, err := GetCaregiver(ctx, db, c.ID, "u1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
