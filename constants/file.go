package constants

import "strings"

// SourceFormat classifies an ingestible file.
type SourceFormat string

const (
	WORKBOOK SourceFormat = "WORKBOOK"
	TEXT     SourceFormat = "TEXT"
)

// AllowedExtensions holds the file extensions accepted for PSP ingestion.
var AllowedExtensions = map[string]SourceFormat{
	"xlsx": WORKBOOK,
	"xls":  WORKBOOK,
	"txt":  TEXT,
}

// PSPSheetName is the sheet an imported workbook must carry (matched case-insensitively).
const PSPSheetName = "PSP"

// PRPSheetName is the single sheet written on export.
const PRPSheetName = "PRP"

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat returns the source format for ext, or "" when unsupported.
func MapExtToFormat(ext string) SourceFormat {
	return AllowedExtensions[NormalizeExt(ext)]
}

// IsAllowedExt reports whether ext can be ingested.
func IsAllowedExt(ext string) bool {
	return MapExtToFormat(ext) != ""
}
