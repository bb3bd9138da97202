package routine

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// file is the on-disk layout of a routines file.
type file struct {
	Routines []Routine `yaml:"routines"`
}

// LoadFile reads and validates a routines file.
//
// Example:
//
//	routines:
//	  - id: wake-up
//	    name: Wake up
//	    steps:
//	      - {track: face, command: open_eyes, duration_ms: 400}
//	      - {track: head, command: look_up, duration_ms: 600, parallel: true}
//	      - {track: audio, command: yawn, ignore_result: true}
func LoadFile(path string) ([]Routine, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from operator config
	if err != nil {
		return nil, fmt.Errorf("reading routines file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates routines from YAML. Missing IDs are
// generated; IDs and names must be unique.
func Parse(data []byte) ([]Routine, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing routines: %w", err)
	}

	ids := make(map[string]bool, len(f.Routines))
	names := make(map[string]bool, len(f.Routines))
	for i := range f.Routines {
		r := &f.Routines[i]
		if err := Validate(r); err != nil {
			return nil, fmt.Errorf("routine[%d] %q: %w", i, r.Name, err)
		}
		normalize(r)
		if ids[r.ID] {
			return nil, fmt.Errorf("%w: id %q", ErrDuplicateRoutine, r.ID)
		}
		if names[r.Name] {
			return nil, fmt.Errorf("%w: name %q", ErrDuplicateRoutine, r.Name)
		}
		ids[r.ID] = true
		names[r.Name] = true
	}
	return f.Routines, nil
}
