package deploy

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

var placeholder = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_.-]*)\}`)

// Substitute replaces {name} placeholders with values from vars. Unknown
// placeholders are left untouched.
func Substitute(s string, vars map[string]string) string {
	return placeholder.ReplaceAllStringFunc(s, func(m string) string {
		if v, ok := vars[m[1:len(m)-1]]; ok {
			return v
		}
		return m
	})
}

// References reports whether s contains a {name} placeholder for any of names.
func References(s string, names ...string) bool {
	for _, match := range placeholder.FindAllStringSubmatch(s, -1) {
		for _, n := range names {
			if match[1] == n {
				return true
			}
		}
	}
	return false
}

// ParseParams parses KEY=VALUE pairs as given on the command line.
func ParseParams(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q: expected KEY=VALUE", pair)
		}
		out[key] = value
	}
	return out, nil
}

// ReadParamsFile reads KEY=VALUE lines from path. Blank lines and lines
// starting with # are skipped; surrounding quotes are removed from values.
func ReadParamsFile(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening params file: %w", err)
	}
	defer file.Close()

	vars, err := parseParams(file)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return vars, nil
}

func parseParams(r io.Reader) (map[string]string, error) {
	vars := make(map[string]string)

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		// Skip comments and empty lines
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("line %d: expected KEY=VALUE", lineNo)
		}
		value = strings.TrimSpace(value)
		if len(value) >= 2 && (value[0] == '"' || value[0] == '\'') && value[len(value)-1] == value[0] {
			value = value[1 : len(value)-1]
		}
		vars[key] = value
	}

	return vars, scanner.Err()
}
