package wordpress

import (
	"bytes"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"

	"github.com/wpforge/wpforge/internal/domain/engine"
	"github.com/wpforge/wpforge/internal/domain/secret"
	"github.com/wpforge/wpforge/internal/ports"
)

// configFile is the application configuration rendered into the target.
const configFile = "wp-config.php"

// placeholders appear in the sample config shipped inside the archive.
var placeholders = []string{
	"database_name_here",
	"username_here",
	"password_here",
	"put your unique phrase here",
}

// ConfigStep renders wp-config.php from a template, substituting the
// persisted database credentials and salts. An already-customized config
// is never overwritten.
type ConfigStep struct {
	id        engine.StepID
	targetDir string
	dbName    string
	dbUser    string
	webUser   string
	webGroup  string
	gen       *secret.Generator
	runner    ports.CommandRunner
	fs        ports.FileSystem
}

// NewConfigStep creates a new ConfigStep.
func NewConfigStep(targetDir, dbName, dbUser, webUser, webGroup string, gen *secret.Generator, runner ports.CommandRunner, fs ports.FileSystem) *ConfigStep {
	return &ConfigStep{
		id:        engine.MustNewStepID("wordpress:config"),
		targetDir: targetDir,
		dbName:    dbName,
		dbUser:    dbUser,
		webUser:   webUser,
		webGroup:  webGroup,
		gen:       gen,
		runner:    runner,
		fs:        fs,
	}
}

// ID returns the step identifier.
func (s *ConfigStep) ID() engine.StepID {
	return s.id
}

// Description returns a human-readable summary.
func (s *ConfigStep) Description() string {
	return "Render wp-config.php with database credentials and salts"
}

// DependsOn returns the step dependencies.
func (s *ConfigStep) DependsOn() []engine.StepID {
	return []engine.StepID{
		engine.MustNewStepID("mariadb:database"),
		engine.MustNewStepID("wordpress:deploy"),
	}
}

// Check is satisfied when the config exists and carries the expected
// database name and user rather than sample placeholders.
func (s *ConfigStep) Check(_ engine.RunContext) (engine.StepStatus, error) {
	data, err := s.fs.ReadFile(s.configPath())
	if err != nil {
		return engine.StatusNeedsApply, nil
	}
	content := string(data)

	if hasPlaceholder(content) {
		return engine.StatusNeedsApply, nil
	}
	if hasDefine(content, "DB_NAME", s.dbName) && hasDefine(content, "DB_USER", s.dbUser) {
		return engine.StatusSatisfied, nil
	}
	return engine.StatusNeedsApply, nil
}

// Apply renders the config from the template. A config that was customized
// by hand (no placeholders, values we do not recognize) is left alone and
// the step fails loudly instead of clobbering it.
func (s *ConfigStep) Apply(ctx engine.RunContext) error {
	path := s.configPath()

	if data, err := s.fs.ReadFile(path); err == nil {
		content := string(data)
		if !hasPlaceholder(content) &&
			!(hasDefine(content, "DB_NAME", s.dbName) && hasDefine(content, "DB_USER", s.dbUser)) {
			return fmt.Errorf("refusing to overwrite customized %s", path)
		}
	}

	dbPassword, ok := ctx.Secrets().Get(secret.NameDBPassword)
	if !ok {
		return fmt.Errorf("database password not found in state; run the database step first")
	}

	salts, err := ctx.Secrets().GetOrCreate(secret.NameSalts, func() (string, error) {
		return s.gen.Salts(ctx.Context())
	})
	if err != nil {
		return err
	}

	rendered, err := renderConfig(configVars{
		DBName:     s.dbName,
		DBUser:     s.dbUser,
		DBPassword: dbPassword,
		Salts:      salts,
	})
	if err != nil {
		return err
	}

	if err := s.fs.WriteFile(path, rendered, 0o640); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	result, err := s.runner.Run(ctx.Context(), "chown", s.webUser+":"+s.webGroup, path)
	if err != nil {
		return err
	}
	if !result.Success() {
		return fmt.Errorf("chown %s exited %d: %s", path, result.ExitCode, strings.TrimSpace(result.Stderr))
	}

	return nil
}

func (s *ConfigStep) configPath() string {
	return filepath.Join(s.targetDir, configFile)
}

type configVars struct {
	DBName     string
	DBUser     string
	DBPassword string
	Salts      string
}

// configTemplate mirrors the layout of the stock sample config, with the
// credential and salt sections substituted.
const configTemplate = `<?php
/**
 * WordPress base configuration, rendered by wpforge.
 */

define( 'DB_NAME', '{{.DBName}}' );
define( 'DB_USER', '{{.DBUser}}' );
define( 'DB_PASSWORD', '{{.DBPassword}}' );
define( 'DB_HOST', 'localhost' );
define( 'DB_CHARSET', 'utf8mb4' );
define( 'DB_COLLATE', '' );

{{.Salts}}

$table_prefix = 'wp_';

define( 'WP_DEBUG', false );

if ( ! defined( 'ABSPATH' ) ) {
	define( 'ABSPATH', __DIR__ . '/' );
}

require_once ABSPATH . 'wp-settings.php';
`

func renderConfig(vars configVars) ([]byte, error) {
	tmpl, err := template.New(configFile).Parse(configTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse config template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return nil, fmt.Errorf("render config template: %w", err)
	}
	return buf.Bytes(), nil
}

func hasPlaceholder(content string) bool {
	for _, placeholder := range placeholders {
		if strings.Contains(content, placeholder) {
			return true
		}
	}
	return false
}

// hasDefine matches a PHP define of key to the exact quoted value,
// tolerating whitespace variations between config styles.
func hasDefine(content, key, value string) bool {
	pattern := fmt.Sprintf(`define\(\s*'%s',\s*'%s'\s*\)`,
		regexp.QuoteMeta(key), regexp.QuoteMeta(value))
	return regexp.MustCompile(pattern).MatchString(content)
}

// Ensure ConfigStep implements engine.Step.
var _ engine.Step = (*ConfigStep)(nil)
