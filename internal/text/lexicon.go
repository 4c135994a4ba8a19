package text

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Lexicon holds tunable word lists loaded from a YAML file: extra stop-words
// for the scorer and category cue words for the heuristic entity extractor.
type Lexicon struct {
	Stopwords []string            `yaml:"stopwords"`
	Cues      map[string][]string `yaml:"cues"`
}

// LoadLexicon reads a lexicon file. An empty path returns an empty lexicon,
// not an error, so the file stays optional.
func LoadLexicon(path string) (*Lexicon, error) {
	if path == "" {
		return &Lexicon{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "lexicon: read %s", path)
	}
	var lex Lexicon
	if err := yaml.Unmarshal(data, &lex); err != nil {
		return nil, eris.Wrapf(err, "lexicon: parse %s", path)
	}
	return &lex, nil
}
