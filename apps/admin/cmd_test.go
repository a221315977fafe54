package main

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strconv"
	"testing"

	"github.com/prepdesk/backend/core/user"
	inmemdb "github.com/prepdesk/backend/storage/database/inmem"
)

func setup(t *testing.T) (*commandLine, user.Repository) {
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	usrRepo := inmemdb.NewUserRepository(db)

	cli := &commandLine{usrRepo: usrRepo}
	return cli, usrRepo
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
}

func runCliTests(t *testing.T, cli *commandLine, tests []cliTest) {
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err != nil {
				if tt.wantErr != nil {
					if err != tt.wantErr {
						t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
					}
				} else if tt.wantErrStr != "" {
					if err.Error() != tt.wantErrStr {
						t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
					}
				} else {
					t.Errorf("cli.run() unexpected error = %v", err)
				}
				return
			}
			if tt.wantErr != nil || tt.wantErrStr != "" {
				t.Errorf("cli.run() error = nil, wantErr %v%s", tt.wantErr, tt.wantErrStr)
			}
		})
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _ := setup(t)

	gooseRunFunc = func(command string, db *sql.DB, fsys fs.FS, dir string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s requires a VERSION argument", command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create requires a NAME argument")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to requires a VERSION argument"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create requires a NAME argument"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "course", "sql"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	}
	runCliTests(t, cli, tests)
}

func Test_commandLine_addOwner(t *testing.T) {
	cli, usrRepo := setup(t)

	readPasswordFunc = func(fd int) ([]byte, error) { return []byte("s3cr3t#!"), nil }

	tests := []cliTest{
		{name: "no flags", args: []string{"addowner"}, wantErr: errHelp},
		{name: "missing email", args: []string{"addowner", "-username", "awe"}, wantErr: errHelp},
		{name: "ok", args: []string{"addowner", "-username", "awe", "-email", "awe@prepdesk.io"}},
		{name: "ok admin", args: []string{"addowner", "-username", "boss", "-email", "boss@prepdesk.io", "-admin"}},
	}
	runCliTests(t, cli, tests)

	ctx := context.Background()

	usr, err := usrRepo.GetUserByUsernameOrEmail(ctx, "awe")
	if err != nil {
		t.Fatalf("GetUserByUsernameOrEmail() failed: %v", err)
	}
	if !usr.IsOwner() || usr.IsAdmin() {
		t.Errorf("addowner roles = %v; want owner only", usr.Roles)
	}
	if !usr.Active() {
		t.Error("addowner created an inactive account")
	}
	if err := usr.CheckPassword("s3cr3t#!"); err != nil {
		t.Errorf("CheckPassword() failed: %v", err)
	}

	boss, err := usrRepo.GetUserByUsernameOrEmail(ctx, "boss")
	if err != nil {
		t.Fatalf("GetUserByUsernameOrEmail() failed: %v", err)
	}
	if !boss.IsAdmin() {
		t.Errorf("addowner -admin roles = %v; want all roles", boss.Roles)
	}

	// updating an existing account must not create a duplicate
	readPasswordFunc = func(fd int) ([]byte, error) { return []byte("n3w-p4ss#!"), nil }
	runCliTests(t, cli, []cliTest{
		{name: "update existing", args: []string{"addowner", "-username", "awe", "-email", "awe@prepdesk.io"}},
	})
	usr, err = usrRepo.GetUserByUsernameOrEmail(ctx, "awe")
	if err != nil {
		t.Fatalf("GetUserByUsernameOrEmail() failed: %v", err)
	}
	if err := usr.CheckPassword("n3w-p4ss#!"); err != nil {
		t.Errorf("CheckPassword() after update failed: %v", err)
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli, usrRepo := setup(t)

	usr := user.User{Name: "Awe", Username: "awe", Email: "awe@prepdesk.io", Roles: user.OwnerRoles}
	usr.SetActive(true)
	if err := usr.SetPassword("0ldp4ss#!"); err != nil {
		t.Fatalf("SetPassword() failed: %v", err)
	}
	if _, err := usrRepo.CreateUser(context.Background(), usr); err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}

	readPasswordFunc = func(fd int) ([]byte, error) { return []byte("n3wp4ss#!"), nil }

	tests := []cliTest{
		{name: "no flags", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "unknown user", args: []string{"resetpassword", "-username", "lol"}, wantErr: user.ErrNotFound},
		{name: "by username", args: []string{"resetpassword", "-username", "awe"}},
		{name: "by email", args: []string{"resetpassword", "-username", "awe@prepdesk.io"}},
	}
	runCliTests(t, cli, tests)

	got, err := usrRepo.GetUserByUsernameOrEmail(context.Background(), "awe")
	if err != nil {
		t.Fatalf("GetUserByUsernameOrEmail() failed: %v", err)
	}
	if err := got.CheckPassword("n3wp4ss#!"); err != nil {
		t.Errorf("CheckPassword() failed: %v", err)
	}
}
