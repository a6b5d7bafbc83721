package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ezpz4akash/docu-check/internal/core/domain"
)

// labelsFile is the optional YAML override for keyword signatures:
//
//	signatures:
//	  W2:
//	    - form w-2
//	    - wage and tax statement
type labelsFile struct {
	Signatures map[string][]string `yaml:"signatures"`
}

// LoadSignatures returns the built-in keyword table, with per-label keyword
// lists replaced by the YAML file at path when one is given. Unknown labels
// are rejected so a typo cannot silently drop a document type.
func LoadSignatures(path string) ([]domain.Signature, error) {
	signatures := domain.DefaultSignatures()
	if path == "" {
		return signatures, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read labels config: %w", err)
	}

	var file labelsFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse labels config: %w", err)
	}

	overrides := make(map[domain.Label][]string, len(file.Signatures))
	for name, keywords := range file.Signatures {
		label := domain.Label(name)
		if !label.Valid() {
			return nil, fmt.Errorf("labels config: unknown label %q", name)
		}
		if len(keywords) == 0 {
			return nil, fmt.Errorf("labels config: label %q has no keywords", name)
		}
		lowered := make([]string, 0, len(keywords))
		for _, kw := range keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" {
				continue
			}
			lowered = append(lowered, kw)
		}
		if len(lowered) == 0 {
			return nil, fmt.Errorf("labels config: label %q has only blank keywords", name)
		}
		overrides[label] = lowered
	}

	for i := range signatures {
		if keywords, ok := overrides[signatures[i].Label]; ok {
			signatures[i].Keywords = keywords
		}
	}
	return signatures, nil
}
