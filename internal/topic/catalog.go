package topic

import (
	_ "embed"
	"fmt"

	"github.com/foxseedlab/debaide/internal/repository"
	yaml "gopkg.in/yaml.v3"
)

//go:embed topics.yaml
var seedCatalog []byte

type catalogFile struct {
	Topics []struct {
		Title       string `yaml:"title"`
		Description string `yaml:"description"`
		Difficulty  string `yaml:"difficulty"`
		Category    string `yaml:"category"`
	} `yaml:"topics"`
}

// SeedTopics returns the built-in topic catalog.
func SeedTopics() ([]repository.CreateTopicInput, error) {
	return parseCatalog(seedCatalog)
}

func parseCatalog(raw []byte) ([]repository.CreateTopicInput, error) {
	var f catalogFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse topic catalog: %w", err)
	}
	out := make([]repository.CreateTopicInput, 0, len(f.Topics))
	for i, t := range f.Topics {
		if t.Title == "" {
			return nil, fmt.Errorf("topic catalog entry %d has no title", i)
		}
		difficulty := t.Difficulty
		if difficulty == "" {
			difficulty = "medium"
		}
		out = append(out, repository.CreateTopicInput{
			Title:       t.Title,
			Description: t.Description,
			Difficulty:  difficulty,
			Category:    t.Category,
		})
	}
	return out, nil
}
