package localfs

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/ezpz4akash/docu-check/internal/core/domain"
)

// BundleKind is the explicit upload classification: detection happens before
// any extraction, never as a fallback from a failed unzip.
type BundleKind int

const (
	KindUnrecognized BundleKind = iota
	KindSingleFile
	KindArchive
)

// DetectBundleKind inspects the raw upload bytes. A byte stream that opens as
// a valid zip is an archive; any other non-empty stream is a single file.
func DetectBundleKind(data []byte) BundleKind {
	if len(data) == 0 {
		return KindUnrecognized
	}
	if _, err := zip.NewReader(bytes.NewReader(data), int64(len(data))); err == nil {
		return KindArchive
	}
	return KindSingleFile
}

// Storage persists one uploaded bundle per job under basePath/<jobID>/.
type Storage struct {
	basePath string
}

func New(basePath string) (*Storage, error) {
	if basePath == "" {
		basePath = "./data/storage"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Storage{basePath: basePath}, nil
}

// SaveAndExtract writes the upload into the job folder. Archives are expanded
// into an extracted/ subfolder with member paths flattened to their basename
// and hidden/system entries skipped; the returned paths are regular files
// that exist on disk at return time.
func (s *Storage) SaveAndExtract(_ context.Context, jobID, filename string, data io.Reader) ([]string, error) {
	raw, err := io.ReadAll(data)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	jobDir := filepath.Join(s.basePath, jobID)
	if err := os.MkdirAll(jobDir, 0o755); err != nil {
		return nil, fmt.Errorf("create job dir: %w", err)
	}

	switch DetectBundleKind(raw) {
	case KindArchive:
		return s.extractArchive(jobDir, raw)
	case KindSingleFile:
		dest := filepath.Join(jobDir, sanitizeFilename(filename))
		if err := os.WriteFile(dest, raw, 0o644); err != nil {
			return nil, fmt.Errorf("write upload: %w", err)
		}
		return []string{dest}, nil
	default:
		return nil, domain.WrapError(domain.ErrInvalidInput, "save upload", fmt.Errorf("empty upload %q", filename))
	}
}

func (s *Storage) extractArchive(jobDir string, raw []byte) ([]string, error) {
	reader, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	extractedDir := filepath.Join(jobDir, "extracted")
	// Clear any stale members from a retried upload.
	if err := os.RemoveAll(extractedDir); err != nil {
		return nil, fmt.Errorf("clear extraction dir: %w", err)
	}
	if err := os.MkdirAll(extractedDir, 0o755); err != nil {
		return nil, fmt.Errorf("create extraction dir: %w", err)
	}

	var saved []string
	for _, member := range reader.File {
		if member.FileInfo().IsDir() || skipArchiveMember(member.Name) {
			continue
		}
		base := path.Base(member.Name)
		if base == "" || base == "." || base == "/" {
			continue
		}
		dest := filepath.Join(extractedDir, base)
		if err := copyArchiveMember(member, dest); err != nil {
			return nil, fmt.Errorf("extract member %q: %w", member.Name, err)
		}
		saved = append(saved, dest)
	}
	return saved, nil
}

// skipArchiveMember filters hidden and OS metadata entries before extraction.
func skipArchiveMember(name string) bool {
	if strings.HasPrefix(name, "__MACOSX") {
		return true
	}
	base := path.Base(name)
	return strings.HasPrefix(base, ".") || strings.HasPrefix(name, ".")
}

func copyArchiveMember(member *zip.File, dest string) error {
	src, err := member.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		return err
	}
	return nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." {
		return "upload.bin"
	}
	return base
}
