package apache

import (
	"fmt"
	"regexp"
	"strings"
)

// Directory block handling works on the parsed structure of the vhost file
// rather than blind text substitution, so repeated applies cannot duplicate
// or corrupt blocks.

var (
	directoryOpenRe  = regexp.MustCompile(`(?i)^\s*<Directory\s+"?([^">]+?)"?\s*>\s*$`)
	directoryCloseRe = regexp.MustCompile(`(?i)^\s*</Directory>\s*$`)
	allowOverrideRe  = regexp.MustCompile(`(?i)^(\s*)AllowOverride\s+(.*)$`)
	vhostCloseRe     = regexp.MustCompile(`(?i)^\s*</VirtualHost>\s*$`)
)

// DirectoryHasOverride reports whether the config contains a Directory
// block for dirPath whose AllowOverride is All.
func DirectoryHasOverride(content, dirPath string) bool {
	lines := strings.Split(content, "\n")
	start, end := findDirectoryBlock(lines, dirPath)
	if start < 0 {
		return false
	}

	for _, line := range lines[start+1 : end] {
		if m := allowOverrideRe.FindStringSubmatch(line); m != nil {
			return strings.EqualFold(strings.TrimSpace(m[2]), "All")
		}
	}
	return false
}

// EnsureDirectoryOverride returns the config with the Directory block for
// dirPath carrying AllowOverride All, patching the existing block or
// inserting a new one inside the VirtualHost. The second return value
// reports whether the content changed.
func EnsureDirectoryOverride(content, dirPath string) (string, bool) {
	lines := strings.Split(content, "\n")
	start, end := findDirectoryBlock(lines, dirPath)

	if start >= 0 {
		return patchBlock(lines, start, end)
	}

	return insertBlock(lines, dirPath)
}

// findDirectoryBlock returns the open and close line indexes of the
// Directory block matching dirPath, or (-1, -1).
func findDirectoryBlock(lines []string, dirPath string) (int, int) {
	normalized := strings.TrimRight(dirPath, "/")

	for i, line := range lines {
		m := directoryOpenRe.FindStringSubmatch(line)
		if m == nil || strings.TrimRight(m[1], "/") != normalized {
			continue
		}
		for j := i + 1; j < len(lines); j++ {
			if directoryCloseRe.MatchString(lines[j]) {
				return i, j
			}
		}
		// Unclosed block: treat as absent rather than patching garbage.
		return -1, -1
	}
	return -1, -1
}

func patchBlock(lines []string, start, end int) (string, bool) {
	for i := start + 1; i < end; i++ {
		if m := allowOverrideRe.FindStringSubmatch(lines[i]); m != nil {
			if strings.EqualFold(strings.TrimSpace(m[2]), "All") {
				return strings.Join(lines, "\n"), false
			}
			lines[i] = m[1] + "AllowOverride All"
			return strings.Join(lines, "\n"), true
		}
	}

	// No AllowOverride directive in the block: add one before the close.
	indent := blockIndent(lines[start]) + "\t"
	patched := make([]string, 0, len(lines)+1)
	patched = append(patched, lines[:end]...)
	patched = append(patched, indent+"AllowOverride All")
	patched = append(patched, lines[end:]...)
	return strings.Join(patched, "\n"), true
}

func insertBlock(lines []string, dirPath string) (string, bool) {
	block := directoryBlock(dirPath, "\t")

	for i := len(lines) - 1; i >= 0; i-- {
		if vhostCloseRe.MatchString(lines[i]) {
			patched := make([]string, 0, len(lines)+len(block))
			patched = append(patched, lines[:i]...)
			patched = append(patched, block...)
			patched = append(patched, lines[i:]...)
			return strings.Join(patched, "\n"), true
		}
	}

	// No VirtualHost wrapper: append the block at top level.
	block = directoryBlock(dirPath, "")
	content := strings.TrimRight(strings.Join(lines, "\n"), "\n")
	if content != "" {
		content += "\n"
	}
	return content + strings.Join(block, "\n") + "\n", true
}

func directoryBlock(dirPath, indent string) []string {
	return []string{
		fmt.Sprintf("%s<Directory %s>", indent, dirPath),
		indent + "\tOptions Indexes FollowSymLinks",
		indent + "\tAllowOverride All",
		indent + "\tRequire all granted",
		fmt.Sprintf("%s</Directory>", indent),
	}
}

func blockIndent(line string) string {
	trimmed := strings.TrimLeft(line, " \t")
	return line[:len(line)-len(trimmed)]
}
