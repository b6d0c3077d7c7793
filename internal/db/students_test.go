//go:build testutil
// +build testutil

package db_test

import (
	"context"
	"errors"
	"testing"

	"github.com/amamusic/accademia/internal/db"
)

func TestRecordPayment_Idempotent(t *testing.T) {
	h := startDB(t)
	ctx := context.Background()
	st := seedStudent(t, h, "Luca", "Verdi")

	created, err := db.RecordPayment(ctx, h.DB, st.ID, 2026, 3)
	if err != nil {
		t.Fatal(err)
	}
	if !created {
		t.Fatal("first payment not recorded")
	}

	created, err = db.RecordPayment(ctx, h.DB, st.ID, 2026, 3)
	if err != nil {
		t.Fatal(err)
	}
	if created {
		t.Fatal("duplicate payment reported as created")
	}

	payments, err := db.ListPayments(ctx, h.DB, st.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(payments) != 1 {
		t.Fatalf("want 1 payment row, got %d", len(payments))
	}
}

func TestMembershipFee_Upsert(t *testing.T) {
	h := startDB(t)
	ctx := context.Background()
	st := seedStudent(t, h, "Luca", "Verdi")

	fee, err := db.UpsertMembershipFee(ctx, h.DB, st.ID, 2026, true)
	if err != nil {
		t.Fatal(err)
	}
	if !fee.Paid || fee.PaidOn == nil {
		t.Fatalf("paid fee missing date: %+v", fee)
	}

	fee, err = db.UpsertMembershipFee(ctx, h.DB, st.ID, 2026, false)
	if err != nil {
		t.Fatal(err)
	}
	if fee.Paid || fee.PaidOn != nil {
		t.Fatalf("unpaid fee kept its date: %+v", fee)
	}

	fees, err := db.ListMembershipFees(ctx, h.DB, st.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(fees) != 1 {
		t.Fatalf("upsert created a second row: %d", len(fees))
	}
}

func TestAssignTeachers_ReplacesSet(t *testing.T) {
	h := startDB(t)
	ctx := context.Background()
	st := seedStudent(t, h, "Luca", "Verdi")
	t1 := seedTeacher(t, h, "Mario", "Rossi")
	t2 := seedTeacher(t, h, "Anna", "Bianchi")

	if err := db.AssignTeachers(ctx, h.DB, st.ID, []int64{t1.ID, t2.ID}); err != nil {
		t.Fatal(err)
	}
	if err := db.AssignTeachers(ctx, h.DB, st.ID, []int64{t2.ID}); err != nil {
		t.Fatal(err)
	}

	got, err := db.StudentTeachers(ctx, h.DB, st.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != t2.ID {
		t.Fatalf("assignment must replace the set, got %+v", got)
	}
}

func TestDeleteStudent_NotFound(t *testing.T) {
	h := startDB(t)
	err := db.DeleteStudent(context.Background(), h.DB, 9999)
	if !errors.Is(err, db.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}
