package middleware

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/bryanwahyu/medimage-analyzer/internal/domain/analysis"
)

// Input validation and sanitization utilities

// allowedExtensions matches the formats the normalizer decodes
var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
}

// ValidateImageType checks the modality field of a request
func ValidateImageType(raw string) (analysis.ImageType, error) {
	if strings.TrimSpace(raw) == "" {
		return "", fmt.Errorf("%w: image_type is required", analysis.ErrInvalidFormat)
	}
	return analysis.ParseImageType(SanitizeString(raw))
}

// ValidateUpload checks file name extension and size before decoding
func ValidateUpload(filename string, size, maxBytes int64) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext != "" && !allowedExtensions[ext] {
		return fmt.Errorf("%w: file type %s not allowed (png, jpg, jpeg, bmp, tiff)", analysis.ErrInvalidFormat, ext)
	}
	if size == 0 {
		return fmt.Errorf("%w: empty upload", analysis.ErrInvalidFormat)
	}
	if maxBytes > 0 && size > maxBytes {
		return fmt.Errorf("%w: upload of %d bytes exceeds %d", analysis.ErrInvalidFormat, size, maxBytes)
	}
	return nil
}

// ValidateReportID requires a UUID
func ValidateReportID(id string) error {
	if id == "" {
		return fmt.Errorf("report ID cannot be empty")
	}
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("invalid report ID format")
	}
	return nil
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Remove control characters
	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}

// ValidateLimit validates pagination limit
func ValidateLimit(raw string) int {
	limit, _ := strconv.Atoi(raw)
	if limit <= 0 {
		return 20 // default
	}
	if limit > 100 {
		return 100 // max limit
	}
	return limit
}

// ValidatePage validates page number
func ValidatePage(raw string) int {
	page, _ := strconv.Atoi(raw)
	if page <= 0 {
		return 1
	}
	return page
}
