// Package discover walks a filesystem tree for candidate test
// binaries. This is explicitly outside the core per spec §1: the core
// consumes the resulting list; it never walks a directory itself.
package discover

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Executable is one discovered test binary: its display name, its
// absolute path, and any extra environment variables collected from
// its sibling config file (see Env below).
type Executable struct {
	Name string
	Path string
	// Env holds "KEY=VALUE" pairs read from configPath/<Name>.env, if
	// that file exists. Appended to exec.Cmd.Env verbatim when the
	// executor spawns this program.
	Env []string
}

// isHidden reports whether the final path component begins with a
// dot, matching the original collector's is_hidden check.
func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// isExecutable reports whether any execute bit (owner, group, other)
// is set, matching the original collector's POSIX is_executable
// check. Windows has no equivalent permission bit and is out of scope
// here, same as the original.
func isExecutable(mode fs.FileMode) bool {
	return mode&0o111 != 0
}

// Discover walks root and returns every regular, non-hidden,
// executable file found, sorted by path for deterministic ordering.
// configPath, if non-empty, is consulted per executable for an
// optional sibling "<name>.env" file of NAME=VALUE lines.
func Discover(root, configPath string) ([]Executable, error) {
	var found []Executable

	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && isHidden(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if isHidden(d.Name()) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() || !isExecutable(info.Mode()) {
			return nil
		}

		exe := Executable{Name: d.Name(), Path: path}
		if configPath != "" {
			exe.Env = readEnvFile(filepath.Join(configPath, d.Name()+".env"))
		}
		found = append(found, exe)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(found, func(i, j int) bool { return found[i].Path < found[j].Path })
	return found, nil
}

// readEnvFile reads NAME=VALUE lines from path. A missing file is not
// an error; it simply yields no extra environment variables.
func readEnvFile(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var env []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !strings.Contains(line, "=") {
			continue
		}
		env = append(env, line)
	}
	return env
}
