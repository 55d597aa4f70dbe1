package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jwebster45206/realm-engine/pkg/encounter"
)

var validFilenameRegex = regexp.MustCompile(`^[a-z0-9]+(_[a-z0-9]+)*$`)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <enemy.json|enemies-dir>...\n", os.Args[0])
		os.Exit(1)
	}

	files, err := collect(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		os.Exit(1)
	}

	v := &ArchetypeValidator{names: map[string]string{}}
	failed := 0
	for _, f := range files {
		if err := v.validateFile(f); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			failed++
		}
	}
	if failed > 0 {
		fmt.Fprintf(os.Stderr, "Validation failed: %d of %d files invalid\n", failed, len(files))
		os.Exit(1)
	}

	fmt.Printf("%d enemy files are valid!\n", len(files))
}

// collect expands directories to the .json files directly inside them.
func collect(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		matches, err := filepath.Glob(filepath.Join(arg, "*.json"))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no enemy files found")
	}
	return files, nil
}

// ArchetypeValidator checks enemy files and tracks names across them.
type ArchetypeValidator struct {
	names map[string]string
}

func (v *ArchetypeValidator) validateFile(filename string) error {
	fmt.Printf("Validating %s...\n", filename)

	baseName := filepath.Base(filename)
	if !strings.HasSuffix(baseName, ".json") {
		return fmt.Errorf("enemy file must have .json extension: %s", baseName)
	}
	if !validFilenameRegex.MatchString(strings.TrimSuffix(baseName, ".json")) {
		return fmt.Errorf("enemy filename '%s' must be lowercase snake_case (e.g., dust_wraith.json)", baseName)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	if !json.Valid(data) {
		return fmt.Errorf("file %s contains invalid JSON", filename)
	}

	var a encounter.Archetype
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&a); err != nil {
		return fmt.Errorf("file %s failed strict JSON unmarshaling: %w", filename, err)
	}

	if err := a.Validate(); err != nil {
		return fmt.Errorf("file %s: %w", filename, err)
	}
	for _, item := range a.Loot {
		if strings.TrimSpace(item) == "" {
			return fmt.Errorf("file %s: archetype %q has a blank loot entry", filename, a.Name)
		}
	}
	if prev, ok := v.names[a.Name]; ok {
		return fmt.Errorf("file %s: archetype %q already defined in %s", filename, a.Name, prev)
	}
	v.names[a.Name] = filename
	return nil
}
