package sqldb

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/BigKAA/apidown/apidown"
	"github.com/BigKAA/apidown/apidown/apidowntest"
	"github.com/BigKAA/apidown/apidown/checks/pgcheck"
)

func TestCheckDB_Healthy(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	trusted := apidowntest.NewValidator(true)
	c, err := apidown.New(CheckDB(db), apidown.Trust(trusted))
	if err != nil {
		t.Fatalf("failed to create Checker: %v", err)
	}

	if c.IsDown() {
		t.Error("IsDown() = true with a healthy pool")
	}
	if trusted.Calls() != 0 {
		t.Errorf("trusted calls = %d, want 0", trusted.Calls())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("not all sqlmock expectations were met: %v", err)
	}
}

func TestCheckDB_Down(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT now()").WillReturnError(errors.New("server closed the connection unexpectedly"))

	c, err := apidown.New(
		CheckDB(db, pgcheck.WithQuery("SELECT now()")),
		apidown.Trust(apidowntest.NewValidator(true)),
	)
	if err != nil {
		t.Fatalf("failed to create Checker: %v", err)
	}
	if !c.IsDown() {
		t.Error("IsDown() = false with a failing pool and healthy reference")
	}
}

func TestCheckMySQLDB(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	c, err := apidown.New(CheckMySQLDB(db), apidown.Trust(apidowntest.NewValidator(true)))
	if err != nil {
		t.Fatalf("failed to create Checker: %v", err)
	}
	if c.IsDown() {
		t.Error("IsDown() = true with a healthy pool")
	}
	if c.Untrusted().(*apidown.Probe).Checker().Type() != "mysql" {
		t.Errorf("untrusted probe type = %q", c.Untrusted().(*apidown.Probe).Checker().Type())
	}
}

func TestCheckDB_NilPool(t *testing.T) {
	trusted := apidown.Trust(apidowntest.NewValidator(true))
	for name, opt := range map[string]apidown.Option{
		"postgres": CheckDB(nil),
		"mysql":    CheckMySQLDB(nil),
	} {
		if _, err := apidown.New(opt, trusted); !errors.Is(err, apidown.ErrNilValidator) {
			t.Errorf("%s: expected ErrNilValidator, got: %v", name, err)
		}
	}
}
