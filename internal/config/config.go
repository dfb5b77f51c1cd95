// Package config loads and validates the provisioner configuration.
package config

import (
	"fmt"
	"regexp"
	"time"
)

// Defaults for every configurable value. A missing config file is valid:
// the zero configuration provisions a stock WordPress on Apache/MariaDB.
const (
	DefaultPath = "/etc/wpforge/wpforge.yaml"

	DefaultTargetDir     = "/var/www/wordpress"
	DefaultDatabaseName  = "wordpress"
	DefaultDatabaseUser  = "wordpress"
	DefaultWebUser       = "www-data"
	DefaultWebGroup      = "www-data"
	DefaultApacheService = "apache2"
	DefaultVhostPath     = "/etc/apache2/sites-available/000-default.conf"
	DefaultArchiveURL    = "https://wordpress.org/latest.tar.gz"
	DefaultChecksumURL   = "https://wordpress.org/latest.tar.gz.sha1"
	DefaultSaltURL       = "https://api.wordpress.org/secret-key/1.1/salt/"
	DefaultStatePath     = "/var/lib/wpforge/state.yaml"
	DefaultLockPath      = "/var/lib/wpforge/wpforge.lock"

	// DefaultDBPasswordBytes and DefaultRootPasswordBytes are raw byte
	// counts before base64 encoding (16 and 20 encoded characters).
	DefaultDBPasswordBytes   = 12
	DefaultRootPasswordBytes = 15

	DefaultAptFreshness = 24 * time.Hour
)

// DefaultPackages is the package set for the Apache/MariaDB/PHP stack.
var DefaultPackages = []string{
	"apache2",
	"mariadb-server",
	"php",
	"php-mysql",
	"libapache2-mod-php",
	"php-curl",
	"php-gd",
	"php-mbstring",
	"php-xml",
	"php-zip",
}

// identPattern restricts database identifiers to names that are safe to
// interpolate into SQL statements.
var identPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config is the full provisioner configuration.
type Config struct {
	TargetDir     string   `yaml:"target_dir"`
	DatabaseName  string   `yaml:"database_name"`
	DatabaseUser  string   `yaml:"database_user"`
	WebUser       string   `yaml:"web_user"`
	WebGroup      string   `yaml:"web_group"`
	Packages      []string `yaml:"packages"`
	ApacheService string   `yaml:"apache_service"`
	VhostPath     string   `yaml:"vhost_path"`
	ArchiveURL    string   `yaml:"archive_url"`
	ChecksumURL   string   `yaml:"checksum_url"`
	SaltURL       string   `yaml:"salt_url"`
	StatePath     string   `yaml:"state_path"`
	LockPath      string   `yaml:"lock_path"`

	DBPasswordBytes   int `yaml:"db_password_bytes"`
	RootPasswordBytes int `yaml:"root_password_bytes"`

	AptFreshness time.Duration `yaml:"apt_freshness"`
}

// Default returns a Config populated with every default value.
func Default() *Config {
	packages := make([]string, len(DefaultPackages))
	copy(packages, DefaultPackages)

	return &Config{
		TargetDir:         DefaultTargetDir,
		DatabaseName:      DefaultDatabaseName,
		DatabaseUser:      DefaultDatabaseUser,
		WebUser:           DefaultWebUser,
		WebGroup:          DefaultWebGroup,
		Packages:          packages,
		ApacheService:     DefaultApacheService,
		VhostPath:         DefaultVhostPath,
		ArchiveURL:        DefaultArchiveURL,
		ChecksumURL:       DefaultChecksumURL,
		SaltURL:           DefaultSaltURL,
		StatePath:         DefaultStatePath,
		LockPath:          DefaultLockPath,
		DBPasswordBytes:   DefaultDBPasswordBytes,
		RootPasswordBytes: DefaultRootPasswordBytes,
		AptFreshness:      DefaultAptFreshness,
	}
}

// Validate reports the first invalid field, with a user-facing message.
func (c *Config) Validate() error {
	if c.TargetDir == "" {
		return fmt.Errorf("target_dir must not be empty")
	}
	if !identPattern.MatchString(c.DatabaseName) {
		return fmt.Errorf("database_name %q is not a valid identifier", c.DatabaseName)
	}
	if !identPattern.MatchString(c.DatabaseUser) {
		return fmt.Errorf("database_user %q is not a valid identifier", c.DatabaseUser)
	}
	if len(c.Packages) == 0 {
		return fmt.Errorf("packages must not be empty")
	}
	if c.DBPasswordBytes <= 0 {
		return fmt.Errorf("db_password_bytes must be positive, got %d", c.DBPasswordBytes)
	}
	if c.RootPasswordBytes <= 0 {
		return fmt.Errorf("root_password_bytes must be positive, got %d", c.RootPasswordBytes)
	}
	if c.AptFreshness <= 0 {
		return fmt.Errorf("apt_freshness must be positive, got %s", c.AptFreshness)
	}
	return nil
}
