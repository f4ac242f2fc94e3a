package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// defaultOutputPath names an output after the project file plus a
// timestamp, e.g. output/intro_2025-01-02_15-04-05.mp4.
func defaultOutputPath(dir, projectPath, ext string) string {
	base := filepath.Base(projectPath)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	name = strings.ReplaceAll(name, " ", "_")
	stamp := time.Now().Format("2006-01-02_15-04-05")
	return filepath.Join(dir, fmt.Sprintf("%s_%s%s", name, stamp, ext))
}
