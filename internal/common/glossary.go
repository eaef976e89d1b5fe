package common

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// LoadGlossary reads a TOML glossary file mapping source-language
// terms to their fixed target-language renderings. A missing path is
// not an error; the pipeline simply runs without a glossary.
func LoadGlossary(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read glossary file %s: %w", path, err)
	}

	glossary := make(map[string]string)
	if err := toml.Unmarshal(data, &glossary); err != nil {
		return nil, fmt.Errorf("failed to parse glossary file %s: %w", path, err)
	}

	return glossary, nil
}
