// Package mariadb provides the database bootstrap steps.
package mariadb

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/wpforge/wpforge/internal/domain/engine"
	"github.com/wpforge/wpforge/internal/domain/secret"
	"github.com/wpforge/wpforge/internal/ports"
)

// DefaultCredentialsPath is where the root client credentials are written
// so later mysql invocations (and the operator) authenticate without flags.
const DefaultCredentialsPath = "/root/.my.cnf"

// SecureStep sets the root password and removes the insecure defaults
// (anonymous accounts, test database), the way mysql_secure_installation does.
type SecureStep struct {
	id        engine.StepID
	rootBytes int
	credsPath string
	gen       *secret.Generator
	runner    ports.CommandRunner
	fs        ports.FileSystem
}

// NewSecureStep creates a new SecureStep.
func NewSecureStep(rootBytes int, credsPath string, gen *secret.Generator, runner ports.CommandRunner, fs ports.FileSystem) *SecureStep {
	return &SecureStep{
		id:        engine.MustNewStepID("mariadb:secure"),
		rootBytes: rootBytes,
		credsPath: credsPath,
		gen:       gen,
		runner:    runner,
		fs:        fs,
	}
}

// ID returns the step identifier.
func (s *SecureStep) ID() engine.StepID {
	return s.id
}

// Description returns a human-readable summary.
func (s *SecureStep) Description() string {
	return "Set database root password and remove insecure defaults"
}

// DependsOn returns the step dependencies.
func (s *SecureStep) DependsOn() []engine.StepID {
	return []engine.StepID{engine.MustNewStepID("apt:install")}
}

// Check is satisfied when the root credential is already recorded and the
// client credentials file carries it.
func (s *SecureStep) Check(ctx engine.RunContext) (engine.StepStatus, error) {
	pwd, ok := ctx.Secrets().Get(secret.NameDBRootPassword)
	if !ok {
		return engine.StatusNeedsApply, nil
	}

	data, err := s.fs.ReadFile(s.credsPath)
	if err != nil {
		return engine.StatusNeedsApply, nil
	}

	creds, err := ini.Load(data)
	if err != nil {
		return engine.StatusNeedsApply, nil
	}

	if creds.Section("client").Key("password").String() == pwd {
		return engine.StatusSatisfied, nil
	}
	return engine.StatusNeedsApply, nil
}

// Apply secures the server using a fresh or previously persisted root
// password, then records the credential for the mysql client.
func (s *SecureStep) Apply(ctx engine.RunContext) error {
	pwd, err := ctx.Secrets().GetOrCreate(secret.NameDBRootPassword, func() (string, error) {
		return s.gen.Password(s.rootBytes)
	})
	if err != nil {
		return err
	}

	sql := strings.Join([]string{
		fmt.Sprintf("ALTER USER 'root'@'localhost' IDENTIFIED BY '%s';", pwd),
		"DROP USER IF EXISTS ''@'localhost';",
		"DROP USER IF EXISTS ''@'%';",
		"DROP DATABASE IF EXISTS test;",
		"DELETE FROM mysql.db WHERE Db='test' OR Db='test\\_%';",
		"FLUSH PRIVILEGES;",
	}, "\n")

	if err := runSQL(ctx, s.runner, sql, pwd); err != nil {
		return err
	}

	return s.writeCredentials(pwd)
}

// writeCredentials renders the [client] section read by the mysql client.
func (s *SecureStep) writeCredentials(pwd string) error {
	creds := ini.Empty()
	section := creds.Section("client")
	section.Key("user").SetValue("root")
	section.Key("password").SetValue(pwd)

	var buf bytes.Buffer
	if _, err := creds.WriteTo(&buf); err != nil {
		return fmt.Errorf("render %s: %w", s.credsPath, err)
	}

	if err := s.fs.WriteFile(s.credsPath, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("write %s: %w", s.credsPath, err)
	}
	return nil
}

// DatabaseStep creates the application database and its user.
type DatabaseStep struct {
	id      engine.StepID
	dbName  string
	dbUser  string
	dbBytes int
	gen     *secret.Generator
	runner  ports.CommandRunner
}

// NewDatabaseStep creates a new DatabaseStep.
func NewDatabaseStep(dbName, dbUser string, dbBytes int, gen *secret.Generator, runner ports.CommandRunner) *DatabaseStep {
	return &DatabaseStep{
		id:      engine.MustNewStepID("mariadb:database"),
		dbName:  dbName,
		dbUser:  dbUser,
		dbBytes: dbBytes,
		gen:     gen,
		runner:  runner,
	}
}

// ID returns the step identifier.
func (s *DatabaseStep) ID() engine.StepID {
	return s.id
}

// Description returns a human-readable summary.
func (s *DatabaseStep) Description() string {
	return fmt.Sprintf("Create database %q and application user %q", s.dbName, s.dbUser)
}

// DependsOn returns the step dependencies.
func (s *DatabaseStep) DependsOn() []engine.StepID {
	return []engine.StepID{engine.MustNewStepID("mariadb:secure")}
}

// Check is satisfied when both the schema and the application user exist.
func (s *DatabaseStep) Check(ctx engine.RunContext) (engine.StepStatus, error) {
	rootPwd, ok := ctx.Secrets().Get(secret.NameDBRootPassword)
	if !ok {
		// The server is not secured yet; this step cannot be satisfied.
		return engine.StatusNeedsApply, nil
	}

	sql := strings.Join([]string{
		fmt.Sprintf("SELECT COUNT(*) FROM information_schema.SCHEMATA WHERE SCHEMA_NAME='%s';", s.dbName),
		fmt.Sprintf("SELECT COUNT(*) FROM mysql.user WHERE User='%s' AND Host='localhost';", s.dbUser),
	}, "\n")

	result, err := querySQL(ctx, s.runner, sql, rootPwd)
	if err != nil {
		return engine.StatusUnknown, err
	}
	if !result.Success() {
		return engine.StatusNeedsApply, nil
	}

	counts := strings.Fields(result.Stdout)
	if len(counts) == 2 && counts[0] != "0" && counts[1] != "0" {
		return engine.StatusSatisfied, nil
	}
	return engine.StatusNeedsApply, nil
}

// Apply creates the schema and user with a fresh or previously persisted
// password. ALTER USER repairs a partial earlier apply where the user was
// created before the grant landed.
func (s *DatabaseStep) Apply(ctx engine.RunContext) error {
	rootPwd, _ := ctx.Secrets().Get(secret.NameDBRootPassword)

	pwd, err := ctx.Secrets().GetOrCreate(secret.NameDBPassword, func() (string, error) {
		return s.gen.Password(s.dbBytes)
	})
	if err != nil {
		return err
	}

	sql := strings.Join([]string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s`;", s.dbName),
		fmt.Sprintf("CREATE USER IF NOT EXISTS '%s'@'localhost' IDENTIFIED BY '%s';", s.dbUser, pwd),
		fmt.Sprintf("ALTER USER '%s'@'localhost' IDENTIFIED BY '%s';", s.dbUser, pwd),
		fmt.Sprintf("GRANT ALL PRIVILEGES ON `%s`.* TO '%s'@'localhost';", s.dbName, s.dbUser),
		"FLUSH PRIVILEGES;",
	}, "\n")

	return runSQL(ctx, s.runner, sql, rootPwd)
}

// runSQL feeds a SQL batch to the mysql client. It first relies on the
// client's own credential discovery (unix socket auth or ~/.my.cnf); when
// that is rejected it retries with the stored root password, which covers
// a partially applied secure step.
func runSQL(ctx engine.RunContext, runner ports.CommandRunner, sql, rootPwd string) error {
	result, err := querySQL(ctx, runner, sql, rootPwd)
	if err != nil {
		return err
	}
	if !result.Success() {
		return fmt.Errorf("mysql exited %d: %s", result.ExitCode, strings.TrimSpace(result.Stderr))
	}
	return nil
}

func querySQL(ctx engine.RunContext, runner ports.CommandRunner, sql, rootPwd string) (ports.CommandResult, error) {
	result, err := runner.RunInput(ctx.Context(), sql, "mysql", "--batch", "--skip-column-names")
	if err != nil {
		return result, err
	}
	if result.Success() || rootPwd == "" {
		return result, nil
	}

	return runner.RunInput(ctx.Context(), sql, "mysql", "--batch", "--skip-column-names", "-u", "root", "-p"+rootPwd)
}

// Compile-time interface checks.
var (
	_ engine.Step = (*SecureStep)(nil)
	_ engine.Step = (*DatabaseStep)(nil)
)
