//go:build testutil
// +build testutil

package db_test

import (
	"context"
	"errors"
	"testing"

	"github.com/amamusic/accademia/internal/db"
)

func TestCreateRoom_DuplicateName(t *testing.T) {
	h := startDB(t)
	ctx := context.Background()

	if _, err := db.CreateRoom(ctx, h.DB, "Aula 1"); err != nil {
		t.Fatal(err)
	}
	_, err := db.CreateRoom(ctx, h.DB, "Aula 1")
	if !errors.Is(err, db.ErrDuplicateRoom) {
		t.Fatalf("want ErrDuplicateRoom, got %v", err)
	}
}

func TestRenameRoom(t *testing.T) {
	h := startDB(t)
	ctx := context.Background()

	a, err := db.CreateRoom(ctx, h.DB, "Aula 1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.CreateRoom(ctx, h.DB, "Aula 2"); err != nil {
		t.Fatal(err)
	}

	if _, err := db.RenameRoom(ctx, h.DB, a.ID, "Aula 2"); !errors.Is(err, db.ErrDuplicateRoom) {
		t.Fatalf("want ErrDuplicateRoom, got %v", err)
	}

	got, err := db.RenameRoom(ctx, h.DB, a.ID, "Sala prove")
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Sala prove" {
		t.Fatalf("rename not applied: %+v", got)
	}
}
