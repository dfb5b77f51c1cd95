package mocks

import (
	"errors"
	"testing"
	"time"

	"github.com/wpforge/wpforge/internal/ports"
)

func TestFileSystem_ReadWrite(t *testing.T) {
	fs := NewFileSystem()

	if err := fs.WriteFile("/etc/motd", []byte("hello"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	content, err := fs.ReadFile("/etc/motd")
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(content) != "hello" {
		t.Errorf("content = %q, want %q", content, "hello")
	}
}

func TestFileSystem_ReadMissing(t *testing.T) {
	fs := NewFileSystem()

	if _, err := fs.ReadFile("/nope"); err == nil {
		t.Error("ReadFile() should fail for a missing path")
	}
}

func TestFileSystem_FailWrites(t *testing.T) {
	fs := NewFileSystem()
	boom := errors.New("disk full")
	fs.FailWrites(boom)

	if err := fs.WriteFile("/etc/motd", []byte("x"), 0o644); !errors.Is(err, boom) {
		t.Errorf("WriteFile() error = %v, want %v", err, boom)
	}
}

func TestFileSystem_ExistsAndIsDir(t *testing.T) {
	fs := NewFileSystem()
	fs.AddFile("/var/www/index.php", "<?php")
	fs.AddDir("/var/www")

	if !fs.Exists("/var/www/index.php") {
		t.Error("Exists() should find the file")
	}
	if !fs.Exists("/var/www") {
		t.Error("Exists() should find the directory")
	}
	if fs.Exists("/var/lib") {
		t.Error("Exists() should not find an unregistered path")
	}
	if fs.IsDir("/var/www/index.php") {
		t.Error("IsDir() should be false for a file")
	}
	if !fs.IsDir("/var/www") {
		t.Error("IsDir() should be true for a directory")
	}
}

func TestFileSystem_RemoveAll(t *testing.T) {
	fs := NewFileSystem()
	fs.AddDir("/var/www/wordpress")
	fs.AddFile("/var/www/wordpress/index.php", "<?php")
	fs.AddFile("/var/www/wordpress/wp-config.php", "<?php")
	fs.AddFile("/var/www/other.txt", "keep")

	if err := fs.RemoveAll("/var/www/wordpress"); err != nil {
		t.Fatalf("RemoveAll() error = %v", err)
	}

	if fs.Exists("/var/www/wordpress") || fs.Exists("/var/www/wordpress/index.php") {
		t.Error("RemoveAll() should remove the directory and its contents")
	}
	if !fs.Exists("/var/www/other.txt") {
		t.Error("RemoveAll() should not touch siblings")
	}
}

func TestFileSystem_RenameFile(t *testing.T) {
	fs := NewFileSystem()
	fs.AddFile("/tmp/a", "payload")

	if err := fs.Rename("/tmp/a", "/tmp/b"); err != nil {
		t.Fatalf("Rename() error = %v", err)
	}

	if fs.Exists("/tmp/a") {
		t.Error("Rename() should remove the old path")
	}
	content, err := fs.ReadFile("/tmp/b")
	if err != nil || string(content) != "payload" {
		t.Errorf("ReadFile(/tmp/b) = %q, %v; want payload", content, err)
	}
}

func TestFileSystem_RenameDirectoryCarriesContents(t *testing.T) {
	fs := NewFileSystem()
	fs.AddDir("/var/www/.stage/wordpress")
	fs.AddFile("/var/www/.stage/wordpress/index.php", "<?php")

	if err := fs.Rename("/var/www/.stage/wordpress", "/var/www/wordpress"); err != nil {
		t.Fatalf("Rename() error = %v", err)
	}

	if !fs.IsDir("/var/www/wordpress") {
		t.Error("Rename() should move the directory")
	}
	if _, err := fs.ReadFile("/var/www/wordpress/index.php"); err != nil {
		t.Error("Rename() should carry directory contents")
	}
	if fs.Exists("/var/www/.stage/wordpress/index.php") {
		t.Error("Rename() should leave nothing at the old prefix")
	}
}

func TestFileSystem_FailRenameOf(t *testing.T) {
	fs := NewFileSystem()
	fs.AddFile("/tmp/a", "payload")
	boom := errors.New("device busy")
	fs.FailRenameOf("/tmp/a", boom)

	if err := fs.Rename("/tmp/a", "/tmp/b"); !errors.Is(err, boom) {
		t.Errorf("Rename() error = %v, want %v", err, boom)
	}
	if !fs.Exists("/tmp/a") || fs.Exists("/tmp/b") {
		t.Error("failed Rename() should leave the filesystem untouched")
	}

	fs.AddFile("/tmp/c", "other")
	if err := fs.Rename("/tmp/c", "/tmp/d"); err != nil {
		t.Errorf("Rename() of an unaffected path should succeed, got %v", err)
	}
}

func TestFileSystem_RenameMissing(t *testing.T) {
	fs := NewFileSystem()

	if err := fs.Rename("/nope", "/also-nope"); err == nil {
		t.Error("Rename() should fail for a missing source")
	}
}

func TestFileSystem_GetFileInfo(t *testing.T) {
	fs := NewFileSystem()
	fs.AddFile("/etc/motd", "hello")
	fs.AddDir("/etc")

	info, err := fs.GetFileInfo("/etc/motd")
	if err != nil {
		t.Fatalf("GetFileInfo() error = %v", err)
	}
	if info.Size != 5 || info.IsDir {
		t.Errorf("file info = %+v, want size 5 regular file", info)
	}

	info, err = fs.GetFileInfo("/etc")
	if err != nil {
		t.Fatalf("GetFileInfo() error = %v", err)
	}
	if !info.IsDir {
		t.Errorf("dir info = %+v, want directory", info)
	}

	if _, err := fs.GetFileInfo("/nope"); err == nil {
		t.Error("GetFileInfo() should fail for a missing path")
	}
}

func TestFileSystem_SetFileInfoOverride(t *testing.T) {
	fs := NewFileSystem()
	fs.AddFile("/var/lib/apt/periodic/update-success-stamp", "")

	stamp := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	fs.SetFileInfo("/var/lib/apt/periodic/update-success-stamp", ports.FileInfo{
		Mode:    0o644,
		ModTime: stamp,
	})

	info, err := fs.GetFileInfo("/var/lib/apt/periodic/update-success-stamp")
	if err != nil {
		t.Fatalf("GetFileInfo() error = %v", err)
	}
	if !info.ModTime.Equal(stamp) {
		t.Errorf("ModTime = %v, want %v", info.ModTime, stamp)
	}
}

func TestFileSystem_Reset(t *testing.T) {
	fs := NewFileSystem()
	fs.AddFile("/a", "x")
	fs.AddDir("/d")

	fs.Reset()

	if fs.Exists("/a") || fs.Exists("/d") {
		t.Error("Reset() should clear all state")
	}
}
