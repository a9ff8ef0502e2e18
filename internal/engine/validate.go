package engine

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
)

var trackNumberPrefix = regexp.MustCompile(`^(\d{2}) `)

// ValidateMapping checks a proposed mapping against the structural mapping
// invariants: the keys are exactly the local files, every new name starts
// with a two-digit track number, numbers form a contiguous 01..N sequence,
// and extensions are preserved. It never consults official track listings.
func ValidateMapping(mapping map[string]string, files []string) error {
	problems := []string{}

	fileSet := make(map[string]struct{}, len(files))
	for _, file := range files {
		fileSet[file] = struct{}{}
	}

	for _, file := range files {
		if _, ok := mapping[file]; !ok {
			problems = append(problems, fmt.Sprintf("missing mapping for %q", file))
		}
	}
	for key := range mapping {
		if _, ok := fileSet[key]; !ok {
			problems = append(problems, fmt.Sprintf("unexpected key %q not in local files", key))
		}
	}

	numbers := []int{}
	for _, file := range files {
		newName, ok := mapping[file]
		if !ok {
			continue
		}

		match := trackNumberPrefix.FindStringSubmatch(newName)
		if match == nil {
			problems = append(problems, fmt.Sprintf("%q does not start with a two-digit track number", newName))
		} else {
			number := int(match[1][0]-'0')*10 + int(match[1][1]-'0')
			numbers = append(numbers, number)
		}

		if filepath.Ext(newName) != filepath.Ext(file) {
			problems = append(problems, fmt.Sprintf("%q does not preserve extension of %q", newName, file))
		}
	}

	if len(numbers) == len(files) {
		sort.Ints(numbers)
		for i, number := range numbers {
			if number != i+1 {
				problems = append(problems, fmt.Sprintf("track numbers are not a contiguous 01..%02d sequence", len(files)))
				break
			}
		}
	}

	if len(problems) > 0 {
		return &StructuralError{Problems: problems}
	}
	return nil
}
