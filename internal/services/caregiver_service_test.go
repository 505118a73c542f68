package services

import (
	"context"
	"errors"
	"testing"
)

func TestCaregiverCreate_PromotionDemotesExistingPrimary(t *testing.T) {
	db := newServiceDB(t)
	ctx := context.Background()
	svc := &CaregiverService{DB: db}

	first, err := svc.Create(ctx, "u1", CaregiverInput{
		Name: "Dana", Phone: "+155500002", Relationship: "daughter", IsPrimary: true,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	second, err := svc.Create(ctx, "u1", CaregiverInput{
		Name: "Alex", Phone: "+155500001", Relationship: "friend", IsPrimary: true,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	list, err := svc.List(ctx, "u1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	primaries := 0
	for _, cg := range list {
		if cg.IsPrimary {
			primaries++
			if cg.ID != second.ID {
				t.Fatalf("wrong primary: %+v", cg)
			}
		}
	}
	if primaries != 1 {
		t.Fatalf("expected exactly one primary, got %d", primaries)
	}
	_ = first
}

func TestCaregiverUpdate_NotFoundAndPromotion(t *testing.T) {
	db := newServiceDB(t)
	ctx := context.Background()
	svc := &CaregiverService{DB: db}

	if _, err := svc.Update(ctx, "u1", "missing", CaregiverInput{Name: "x", Phone: "y", Relationship: "z"}); !errors.Is(err, ErrCaregiverNotFound) {
		t.Fatalf("expected ErrCaregiverNotFound, got %v", err)
	}

	a, err := svc.Create(ctx, "u1", CaregiverInput{Name: "Dana", Phone: "+1", Relationship: "daughter", IsPrimary: true})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	b, err := svc.Create(ctx, "u1", CaregiverInput{Name: "Alex", Phone: "+2", Relationship: "friend"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := svc.Update(ctx, "u1", b.ID, CaregiverInput{Name: "Alex", Phone: "+2", Relationship: "friend", IsPrimary: true})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !got.IsPrimary {
		t.Fatalf("promotion not persisted: %+v", got)
	}
	list, _ := svc.List(ctx, "u1")
	for _, cg := range list {
		if cg.ID == a.ID && cg.IsPrimary {
			t.Fatalf("previous primary not demoted: %+v", cg)
		}
	}
}

func TestCaregiverDelete_NotFound(t *testing.T) {
	db := newServiceDB(t)
	svc := &CaregiverService{DB: db}

	if err := svc.Delete(context.Background(), "u1", "missing"); !errors.Is(err, ErrCaregiverNotFound) {
		t.Fatalf("expected ErrCaregiverNotFound, got %v", err)
	}
}
