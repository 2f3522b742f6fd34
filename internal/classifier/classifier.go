// Package classifier evaluates a frozen, pre-trained tree-ensemble artifact.
//
// The artifact is a versioned JSON export of a trained random forest: an
// ordered class list, the four-feature input layout, and one flattened node
// array per tree. It is produced offline by the training pipeline and
// consumed read-only here; this package never trains or mutates it.
package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"sync"

	"github.com/couchcryptid/water-quality-monitor/internal/domain"
)

// Artifact is the on-disk JSON layout of an exported forest.
type Artifact struct {
	Version  string   `json:"version"`
	Classes  []string `json:"classes"`
	Features []string `json:"features"`
	Trees    []Tree   `json:"trees"`
}

// Tree is one decision tree, nodes flattened into an array with index 0 as
// the root. Child fields hold node indices.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Node is either a split (feature/threshold/left/right) or, when Leaf is
// true, a terminal node. A leaf carries the predicted class index and,
// when the trainer exported probabilities, the class distribution.
type Node struct {
	Leaf      bool      `json:"leaf,omitempty"`
	Feature   int       `json:"feature,omitempty"`
	Threshold float64   `json:"threshold,omitempty"`
	Left      int       `json:"left,omitempty"`
	Right     int       `json:"right,omitempty"`
	Class     int       `json:"class,omitempty"`
	Dist      []float64 `json:"dist,omitempty"`
}

const featureCount = 4

// Service loads the forest artifact once and scores aggregates against it.
// It implements domain.Classifier. Safe for concurrent Classify calls after
// Load; tree evaluation is read-only.
type Service struct {
	path   string
	logger *slog.Logger

	mu       sync.RWMutex
	artifact *Artifact
	hasDist  bool
}

// New creates an unloaded classifier service for the artifact at path.
// Call Load before Classify.
func New(path string, logger *slog.Logger) *Service {
	return &Service{path: path, logger: logger}
}

// Load reads and validates the artifact. Failure here is startup-fatal for
// prediction capability; callers should treat a Load error as terminal.
func (s *Service) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("read classifier artifact: %w", err)
	}

	var art Artifact
	if err := json.Unmarshal(data, &art); err != nil {
		return fmt.Errorf("parse classifier artifact: %w", err)
	}
	if err := validate(&art); err != nil {
		return fmt.Errorf("invalid classifier artifact %s: %w", s.path, err)
	}

	hasDist := true
	for _, tree := range art.Trees {
		for _, n := range tree.Nodes {
			if n.Leaf && n.Dist == nil {
				hasDist = false
			}
		}
	}

	s.mu.Lock()
	s.artifact = &art
	s.hasDist = hasDist
	s.mu.Unlock()

	s.logger.Info("classifier artifact loaded",
		"path", s.path,
		"version", art.Version,
		"classes", art.Classes,
		"trees", len(art.Trees),
		"probabilities", hasDist,
	)
	return nil
}

// Loaded reports whether the artifact has been loaded. Used by readiness.
func (s *Service) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.artifact != nil
}

// Classes returns the fixed label set, nil before Load.
func (s *Service) Classes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.artifact == nil {
		return nil
	}
	return s.artifact.Classes
}

// Version returns the artifact version string, empty before Load.
func (s *Service) Version() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.artifact == nil {
		return ""
	}
	return s.artifact.Version
}

// Classify scores one day's aggregate means. The label is the class with the
// highest summed vote across trees. Confidence is the winning class's share
// of the probability mass when every leaf carries a distribution, and absent
// otherwise.
func (s *Service) Classify(_ context.Context, ph, tds, turbidity, temperature float64) (domain.Classification, error) {
	s.mu.RLock()
	art, hasDist := s.artifact, s.hasDist
	s.mu.RUnlock()

	if art == nil {
		return domain.Classification{}, domain.ErrArtifactNotLoaded
	}

	features := [featureCount]float64{ph, tds, turbidity, temperature}
	votes := make([]float64, len(art.Classes))

	for _, tree := range art.Trees {
		leaf := walk(tree, features)
		if hasDist {
			for i, p := range leaf.Dist {
				votes[i] += p
			}
		} else {
			votes[leaf.Class]++
		}
	}

	best := 0
	for i := range votes {
		if votes[i] > votes[best] {
			best = i
		}
	}

	result := domain.Classification{Label: art.Classes[best]}
	if hasDist {
		total := 0.0
		for _, v := range votes {
			total += v
		}
		if total > 0 {
			conf := votes[best] / total
			result.Confidence = &conf
		}
	}
	return result, nil
}

// walk descends one tree from the root to a leaf for the given features.
func walk(tree Tree, features [featureCount]float64) Node {
	node := tree.Nodes[0]
	for !node.Leaf {
		if features[node.Feature] <= node.Threshold {
			node = tree.Nodes[node.Left]
		} else {
			node = tree.Nodes[node.Right]
		}
	}
	return node
}

func validate(art *Artifact) error {
	if len(art.Classes) == 0 {
		return fmt.Errorf("no classes")
	}
	if len(art.Features) != featureCount {
		return fmt.Errorf("expected %d features, got %d", featureCount, len(art.Features))
	}
	if len(art.Trees) == 0 {
		return fmt.Errorf("no trees")
	}
	for ti, tree := range art.Trees {
		if len(tree.Nodes) == 0 {
			return fmt.Errorf("tree %d has no nodes", ti)
		}
		for ni, n := range tree.Nodes {
			if n.Leaf {
				if n.Class < 0 || n.Class >= len(art.Classes) {
					return fmt.Errorf("tree %d node %d: class index %d out of range", ti, ni, n.Class)
				}
				if n.Dist != nil {
					if len(n.Dist) != len(art.Classes) {
						return fmt.Errorf("tree %d node %d: dist length %d, want %d", ti, ni, len(n.Dist), len(art.Classes))
					}
					for _, p := range n.Dist {
						if math.IsNaN(p) || p < 0 || p > 1 {
							return fmt.Errorf("tree %d node %d: dist value %v outside [0,1]", ti, ni, p)
						}
					}
				}
				continue
			}
			if n.Feature < 0 || n.Feature >= featureCount {
				return fmt.Errorf("tree %d node %d: feature index %d out of range", ti, ni, n.Feature)
			}
			if n.Left <= ni || n.Left >= len(tree.Nodes) || n.Right <= ni || n.Right >= len(tree.Nodes) {
				return fmt.Errorf("tree %d node %d: child index out of range", ti, ni)
			}
		}
	}
	return nil
}
