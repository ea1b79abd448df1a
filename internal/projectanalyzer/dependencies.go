package projectanalyzer

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

// ExtractDependencies reads the manifest files present at root and returns a
// flat, sorted-by-discovery list of declared dependency names. Unlike the
// original's import-statement scan (meaningful only for a Python codebase),
// a Go-native analyzer reads the manifests directly: go.mod's require block,
// package.json's dependencies/devDependencies keys, and requirements.txt
// lines.
func ExtractDependencies(root string) []string {
	var deps []string
	if fileExists(filepath.Join(root, "go.mod")) {
		deps = append(deps, goModRequires(filepath.Join(root, "go.mod"))...)
	}
	if fileExists(filepath.Join(root, "requirements.txt")) {
		deps = append(deps, requirementsTxtDeps(filepath.Join(root, "requirements.txt"))...)
	}
	if fileExists(filepath.Join(root, "package.json")) {
		deps = append(deps, packageJSONDeps(filepath.Join(root, "package.json"))...)
	}
	return deps
}

func goModRequires(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var deps []string
	inBlock := false
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "require (":
			inBlock = true
			continue
		case inBlock && line == ")":
			inBlock = false
			continue
		case inBlock:
			if mod := firstField(line); mod != "" {
				deps = append(deps, mod)
			}
		case strings.HasPrefix(line, "require "):
			rest := strings.TrimPrefix(line, "require ")
			if mod := firstField(rest); mod != "" {
				deps = append(deps, mod)
			}
		}
	}
	return deps
}

func firstField(line string) string {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "//") {
		return ""
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func requirementsTxtDeps(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var deps []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		for _, sep := range []string{"==", ">=", "<=", "~=", ">", "<", "!="} {
			if idx := strings.Index(line, sep); idx >= 0 {
				line = line[:idx]
				break
			}
		}
		deps = append(deps, strings.TrimSpace(line))
	}
	return deps
}

func packageJSONDeps(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var pkg struct {
		Dependencies    map[string]string `json:"dependencies"`
		DevDependencies map[string]string `json:"devDependencies"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil
	}
	var deps []string
	for name := range pkg.Dependencies {
		deps = append(deps, name)
	}
	for name := range pkg.DevDependencies {
		deps = append(deps, name)
	}
	return deps
}


