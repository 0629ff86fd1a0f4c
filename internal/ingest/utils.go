package ingest

import (
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/prp-express/constants"
)

// AllowedExt checks if a file extension is one we can read PSP text from.
func AllowedExt(ext string) bool {
	return constants.IsAllowedExt(ext)
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") && base != "." && base != ".."
}

// extOf handles both separators so uploaded names from any OS work.
func extOf(name string) string {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	return constants.NormalizeExt(filepath.Ext(name))
}
