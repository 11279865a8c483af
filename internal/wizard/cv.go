package wizard

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spigell/peanuts-cli/internal/apperr"
)

const maxCVSize = 10 << 20

var cvExtensions = []string{".pdf", ".docx", ".txt"}

// LoadCVFile reads a CV from disk for selection in the upload step.
func LoadCVFile(path string) (*CVFile, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, apperr.Validation("Upload je CV (PDF of DOCX).")
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !slices.Contains(cvExtensions, ext) {
		return nil, apperr.Validation(fmt.Sprintf("Bestandstype %q wordt niet ondersteund. Gebruik PDF, DOCX of TXT.", ext))
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("open cv file: %w", err)
	}
	if info.IsDir() {
		return nil, apperr.Validation(fmt.Sprintf("%s is een map, geen bestand.", path))
	}
	if info.Size() > maxCVSize {
		return nil, apperr.Validation("Het CV is groter dan 10 MB.")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cv file: %w", err)
	}

	return &CVFile{Name: filepath.Base(path), Data: data}, nil
}

type Band string

const (
	BandStrong   Band = "strong"
	BandModerate Band = "moderate"
	BandWeak     Band = "weak"
)

// ScoreBand groups a match score the way the result screen colours it.
func ScoreBand(score int) Band {
	switch {
	case score >= 70:
		return BandStrong
	case score >= 40:
		return BandModerate
	default:
		return BandWeak
	}
}
