// Package categories holds the per-domain category vocabulary the risk
// calculator checks coverage against, plus the earned per-category scores a
// project has already accumulated.
package categories

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownDomain = errors.New("categories: unknown domain")
	ErrUnknownPhase  = errors.New("categories: unknown phase")
)

// Provider resolves the category set (category name -> target weight) that a
// phase of a domain must cover.
type Provider interface {
	Categories(domain, phase string) (map[string]float64, error)
}

// Vocabulary maps domain -> phase -> category -> target weight.
type Vocabulary struct {
	Domains map[string]map[string]map[string]float64 `json:"domains" yaml:"domains"`
}

// Categories implements Provider.
func (v Vocabulary) Categories(domain, phase string) (map[string]float64, error) {
	phases, ok := v.Domains[normalize(domain)]
	if !ok {
		return nil, fmt.Errorf("categories: %q (known: %s): %w", domain, strings.Join(v.DomainNames(), ", "), ErrUnknownDomain)
	}
	cats, ok := phases[normalize(phase)]
	if !ok {
		return nil, fmt.Errorf("categories: %s/%q: %w", domain, phase, ErrUnknownPhase)
	}
	out := make(map[string]float64, len(cats))
	for name, weight := range cats {
		out[name] = weight
	}
	return out, nil
}

// DomainNames returns the configured domains in sorted order.
func (v Vocabulary) DomainNames() []string {
	names := make([]string, 0, len(v.Domains))
	for name := range v.Domains {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Merge overlays other onto v, replacing whole phases that appear in both.
func (v Vocabulary) Merge(other Vocabulary) Vocabulary {
	out := Vocabulary{Domains: map[string]map[string]map[string]float64{}}
	for _, src := range []Vocabulary{v, other} {
		for domain, phases := range src.Domains {
			if out.Domains[domain] == nil {
				out.Domains[domain] = map[string]map[string]float64{}
			}
			for phase, cats := range phases {
				out.Domains[domain][phase] = cats
			}
		}
	}
	return out
}

// ParseVocabularyYAML decodes a vocabulary document.
func ParseVocabularyYAML(data []byte) (Vocabulary, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Vocabulary{}, fmt.Errorf("categories: vocabulary payload is empty")
	}
	var raw Vocabulary
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Vocabulary{}, fmt.Errorf("categories: decode vocabulary: %w", err)
	}
	out := Vocabulary{Domains: make(map[string]map[string]map[string]float64, len(raw.Domains))}
	for domain, phases := range raw.Domains {
		np := make(map[string]map[string]float64, len(phases))
		for phase, cats := range phases {
			for name, weight := range cats {
				if weight < 0 {
					return Vocabulary{}, fmt.Errorf("categories: %s/%s/%s: weight must be >= 0", domain, phase, name)
				}
			}
			np[normalize(phase)] = cats
		}
		out.Domains[normalize(domain)] = np
	}
	return out, nil
}

// LoadVocabularyFile reads a vocabulary from disk.
func LoadVocabularyFile(path string) (Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Vocabulary{}, fmt.Errorf("categories: read %s: %w", path, err)
	}
	vocab, err := ParseVocabularyYAML(data)
	if err != nil {
		return Vocabulary{}, fmt.Errorf("categories: %s: %w", path, err)
	}
	return vocab, nil
}

// Coverage is a project's earned score per category.
type Coverage map[string]float64

// Satisfied reports whether the earned score for category has reached its
// target weight. Categories with a zero target are never satisfied by
// coverage alone.
func (c Coverage) Satisfied(category string, target float64) bool {
	if target <= 0 {
		return false
	}
	return c[category] >= target
}

// LoadCoverageFile reads a flat category: score YAML mapping.
func LoadCoverageFile(path string) (Coverage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("categories: read %s: %w", path, err)
	}
	var cov Coverage
	if err := yaml.Unmarshal(data, &cov); err != nil {
		return nil, fmt.Errorf("categories: decode coverage %s: %w", path, err)
	}
	return cov, nil
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
