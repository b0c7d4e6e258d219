package main

import (
	"fmt"
	"os"
	"strings"

	"loom/internal/driver"
)

// collectInputFiles expands command arguments into the list of .affine files
// to process. Directories are walked recursively; plain files must carry the
// .affine extension. No arguments means the current directory. Order follows
// the arguments, with duplicates dropped.
func collectInputFiles(args []string) ([]string, error) {
	if len(args) == 0 {
		args = []string{"."}
	}

	seen := make(map[string]struct{})
	var files []string
	add := func(path string) {
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		files = append(files, path)
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", arg, err)
		}
		if info.IsDir() {
			dirFiles, err := driver.ListFiles(arg)
			if err != nil {
				return nil, err
			}
			if len(dirFiles) == 0 {
				return nil, fmt.Errorf("%s: no .affine files found", arg)
			}
			for _, f := range dirFiles {
				add(f)
			}
			continue
		}
		if !strings.HasSuffix(arg, ".affine") {
			return nil, fmt.Errorf("%s: not a .affine file", arg)
		}
		add(arg)
	}
	return files, nil
}
