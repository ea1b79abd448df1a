package projectanalyzer

import (
	"os"
	"path/filepath"
)

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func hasFileWithExt(root, ext string) bool {
	found := false
	filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || found {
			return nil
		}
		if d.IsDir() {
			if excludedDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) == ext {
			found = true
		}
		return nil
	})
	return found
}

// DetectManifests reports which of go.mod, package.json, requirements.txt,
// pyproject.toml, Cargo.toml, pom.xml and Gemfile exist at root.
func DetectManifests(root string) []string {
	var manifests []string
	for _, name := range []string{"go.mod", "package.json", "requirements.txt", "pyproject.toml", "Cargo.toml", "pom.xml", "Gemfile"} {
		if fileExists(filepath.Join(root, name)) {
			manifests = append(manifests, name)
		}
	}
	return manifests
}

// DetectPatterns reports the project's detected languages and architectural
// patterns: primary language by manifest/file-extension evidence, plus
// secondary signals (CLI layout, modular src/ layout).
func DetectPatterns(root string) (languages, frameworks, patterns []string) {
	hasGoMod := fileExists(filepath.Join(root, "go.mod"))
	hasPackageJSON := fileExists(filepath.Join(root, "package.json"))
	hasRequirementsTxt := fileExists(filepath.Join(root, "requirements.txt"))
	hasPyprojectToml := fileExists(filepath.Join(root, "pyproject.toml"))
	hasCargoToml := fileExists(filepath.Join(root, "Cargo.toml"))
	hasPomXML := fileExists(filepath.Join(root, "pom.xml"))

	hasGoFiles := hasFileWithExt(root, ".go")
	hasJSFiles := hasFileWithExt(root, ".js") || hasFileWithExt(root, ".ts")
	hasPyFiles := hasFileWithExt(root, ".py")

	goScore := boolCount(hasGoMod, hasGoFiles)
	nodeScore := boolCount(hasPackageJSON, hasJSFiles)
	pyScore := boolCount(hasRequirementsTxt, hasPyprojectToml, hasPyFiles)

	switch {
	case goScore >= nodeScore && goScore >= pyScore && goScore > 0:
		languages = append(languages, "go")
		patterns = append(patterns, "Go module project")
		if fileExists(filepath.Join(root, "cmd")) {
			patterns = append(patterns, "cmd/internal layout")
		}
	case pyScore >= nodeScore && pyScore > 0:
		languages = append(languages, "python")
		if hasRequirementsTxt {
			patterns = append(patterns, "Python project with pip dependencies")
		} else {
			patterns = append(patterns, "Python project")
		}
	case nodeScore > 0:
		languages = append(languages, "javascript")
		patterns = append(patterns, "Node.js/JavaScript project")
	}

	if hasCargoToml {
		languages = append(languages, "rust")
		patterns = append(patterns, "Rust project")
	}
	if hasPomXML {
		languages = append(languages, "java")
		patterns = append(patterns, "Java Maven project")
	}

	if fileExists(filepath.Join(root, "internal")) {
		patterns = append(patterns, "Modular architecture with internal/ package boundary")
	}
	if fileExists(filepath.Join(root, "src")) {
		patterns = append(patterns, "Modular architecture with src/ directory")
	}
	if hasFileWithExt(filepath.Join(root, "cmd"), ".go") {
		patterns = append(patterns, "CLI-based application")
	}

	for _, fw := range detectFrameworks(root) {
		frameworks = append(frameworks, fw)
	}
	return languages, frameworks, patterns
}

// detectFrameworks reports which of cobra, gorilla/mux and mcp-go the
// project's go.mod mentions; no other manifest or config file is read.
func detectFrameworks(root string) []string {
	var out []string
	if fileExists(filepath.Join(root, "go.mod")) {
		data, err := os.ReadFile(filepath.Join(root, "go.mod"))
		if err == nil {
			for _, marker := range []struct{ needle, name string }{
				{"github.com/spf13/cobra", "cobra"},
				{"github.com/gorilla/mux", "gorilla/mux"},
				{"github.com/mark3labs/mcp-go", "mcp-go"},
			} {
				if contains(string(data), marker.needle) {
					out = append(out, marker.name)
				}
			}
		}
	}
	return out
}

func contains(haystack, needle string) bool {
	return len(needle) > 0 && indexOf(haystack, needle) >= 0
}

func indexOf(haystack, needle string) int {
	n, m := len(haystack), len(needle)
	for i := 0; i+m <= n; i++ {
		if haystack[i:i+m] == needle {
			return i
		}
	}
	return -1
}

func boolCount(vals ...bool) int {
	n := 0
	for _, v := range vals {
		if v {
			n++
		}
	}
	return n
}


