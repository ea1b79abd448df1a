// Package projectanalyzer scans a project's repository to produce a
// domain.ProjectSnapshot: detected languages/frameworks, manifest files,
// and phase-specific guidance fed to AutoRuleGenerator's full path.
package projectanalyzer

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var excludedDirs = map[string]bool{
	"node_modules":     true,
	".git":             true,
	".vscode":          true,
	".idea":            true,
	"dist":             true,
	"build":            true,
	"vendor":           true,
	"__pycache__":      true,
	".pytest_cache":    true,
	"htmlcov":          true,
}

// Node is one entry in an analyzed directory tree. Files carry no children;
// directories carry a (possibly empty) map of their own entries.
type Node = map[string]any

// analyzeDirectory recursively walks dir up to maxDepth, skipping hidden
// and excluded directories, returning a nested map mirroring the original's
// dict-of-dicts structure (files map to an empty Node).
func analyzeDirectory(dir string, maxDepth, depth int) Node {
	result := Node{}
	if depth >= maxDepth {
		return result
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return result
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.IsDir() != b.IsDir() {
			return !a.IsDir()
		}
		return a.Name() < b.Name()
	})

	for _, e := range entries {
		name := e.Name()
		if len(name) > 0 && name[0] == '.' {
			continue
		}
		if e.IsDir() {
			if excludedDirs[name] {
				continue
			}
			result[name] = analyzeDirectory(filepath.Join(dir, name), maxDepth, depth+1)
			continue
		}
		result[name] = Node{}
	}
	return result
}

// AnalyzeStructure walks root (bounded to a depth of 4, matching the
// original's directory-tree scan) and returns its directory tree plus the
// flat count of files/directories visited.
func AnalyzeStructure(root string) (Node, int) {
	structure := analyzeDirectory(root, 4, 0)
	return structure, countNodes(structure)
}

func countNodes(n Node) int {
	total := len(n)
	for _, v := range n {
		if child, ok := v.(Node); ok && len(child) > 0 {
			total += countNodes(child)
		}
	}
	return total
}

// FormatTree renders structure as an indented tree with box-drawing
// connectors, matching the original's ├──/└── directory-tree formatting.
func FormatTree(structure Node, prefix string) string {
	if len(structure) == 0 {
		return "No project structure analyzed"
	}

	names := make([]string, 0, len(structure))
	for name := range structure {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		iChild, iIsDir := structure[names[i]].(Node)
		jChild, jIsDir := structure[names[j]].(Node)
		iDir := iIsDir && len(iChild) >= 0 && !isFile(structure[names[i]])
		jDir := jIsDir && len(jChild) >= 0 && !isFile(structure[names[j]])
		if iDir != jDir {
			return iDir
		}
		return names[i] < names[j]
	})

	var lines []string
	for i, name := range names {
		last := i == len(names)-1
		connector := "├── "
		childPrefix := prefix + "│   "
		if last {
			connector = "└── "
			childPrefix = prefix + "    "
		}

		child := structure[name].(Node)
		if isFile(structure[name]) {
			lines = append(lines, prefix+connector+"📄 "+name)
			continue
		}
		lines = append(lines, prefix+connector+name+"/")
		if len(child) > 0 {
			lines = append(lines, FormatTree(child, childPrefix))
		}
	}
	return strings.Join(lines, "\n")
}

func isFile(v any) bool {
	n, ok := v.(Node)
	return ok && len(n) == 0
}


