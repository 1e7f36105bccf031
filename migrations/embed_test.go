package migrations

import (
	"io/fs"
	"strings"
	"testing"
)

func TestPostgresMigrations(t *testing.T) {
	files, err := fs.Glob(PostgresMigrations, PostgresDir+"/*.sql")
	if err != nil {
		t.Fatalf("Glob() error = %v", err)
	}
	if len(files) == 0 {
		t.Fatal("no migrations embedded")
	}

	for _, name := range files {
		data, err := fs.ReadFile(PostgresMigrations, name)
		if err != nil {
			t.Fatalf("ReadFile(%s) error = %v", name, err)
		}
		body := string(data)
		if !strings.Contains(body, "-- +goose Up") || !strings.Contains(body, "-- +goose Down") {
			t.Errorf("%s must have goose Up and Down sections", name)
		}
	}
}
