// Package catalog loads skill trees and achievement definitions from YAML
// content files and seeds them into a store.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"

	"github.com/abhisek/engineermaster/internal/achievement"
	"github.com/abhisek/engineermaster/internal/skilltree"
)

// SupportedMajor is the catalog format major version this build reads.
const SupportedMajor = "v1"

// File is the on-disk YAML layout.
type File struct {
	Version      string            `yaml:"version"`
	Trees        []TreeSpec        `yaml:"trees"`
	Achievements []AchievementSpec `yaml:"achievements"`
}

type TreeSpec struct {
	ID          string     `yaml:"id"`
	Name        string     `yaml:"name"`
	Discipline  string     `yaml:"discipline"`
	Description string     `yaml:"description"`
	Active      *bool      `yaml:"active"`
	Mastery     string     `yaml:"mastery_achievement"`
	Nodes       []NodeSpec `yaml:"nodes"`
}

type NodeSpec struct {
	ID            string   `yaml:"id"`
	Name          string   `yaml:"name"`
	Description   string   `yaml:"description"`
	Type          string   `yaml:"type"`
	RequiredXP    int      `yaml:"required_xp"`
	XPReward      int      `yaml:"xp_reward"`
	Prerequisites []string `yaml:"prerequisites"`
	Achievement   string   `yaml:"achievement"`
	Active        *bool    `yaml:"active"`
}

type AchievementSpec struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Tier        string `yaml:"tier"`
	XPReward    int    `yaml:"xp_reward"`
	Active      *bool  `yaml:"active"`
	Criteria    any    `yaml:"criteria"`
}

// Catalog is a validated content set ready to be seeded.
type Catalog struct {
	Version      string
	Trees        []skilltree.Tree
	Nodes        map[string][]skilltree.Node // by tree ID
	Achievements []achievement.Achievement
	Mastery      map[string]string // tree ID -> achievement ID
}

// NodeCount returns the number of nodes across all trees.
func (c *Catalog) NodeCount() int {
	n := 0
	for _, nodes := range c.Nodes {
		n += len(nodes)
	}
	return n
}

// LoadFile reads and validates a catalog file.
func LoadFile(path string) (*Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	c, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates catalog YAML.
func Parse(data []byte) (*Catalog, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return f.Build()
}

// CheckVersion accepts versions with or without the leading "v" and rejects
// any major version other than SupportedMajor.
func CheckVersion(v string) error {
	if v == "" {
		return errors.New("version is required")
	}
	canonical := v
	if !strings.HasPrefix(canonical, "v") {
		canonical = "v" + canonical
	}
	if !semver.IsValid(canonical) {
		return fmt.Errorf("invalid catalog version %q", v)
	}
	if major := semver.Major(canonical); major != SupportedMajor {
		return fmt.Errorf("unsupported catalog version %q (this build reads %s.x)", v, SupportedMajor)
	}
	return nil
}

// Build validates the file and converts it to domain types. Every problem
// found is reported, not just the first.
func (f File) Build() (*Catalog, error) {
	if err := CheckVersion(f.Version); err != nil {
		return nil, err
	}

	c := &Catalog{
		Version: f.Version,
		Nodes:   make(map[string][]skilltree.Node),
		Mastery: make(map[string]string),
	}
	var errs []error

	achIDs := make(map[string]bool, len(f.Achievements))
	for i, as := range f.Achievements {
		a, err := as.build()
		if err != nil {
			errs = append(errs, fmt.Errorf("achievements[%d]: %w", i, err))
			continue
		}
		if achIDs[a.ID] {
			errs = append(errs, fmt.Errorf("duplicate achievement id %q", a.ID))
			continue
		}
		achIDs[a.ID] = true
		c.Achievements = append(c.Achievements, a)
	}

	treeIDs := make(map[string]bool, len(f.Trees))
	nodeIDs := make(map[string]string)
	for i, ts := range f.Trees {
		if ts.ID == "" {
			errs = append(errs, fmt.Errorf("trees[%d]: id is required", i))
			continue
		}
		if treeIDs[ts.ID] {
			errs = append(errs, fmt.Errorf("duplicate tree id %q", ts.ID))
			continue
		}
		treeIDs[ts.ID] = true
		if ts.Name == "" || ts.Discipline == "" {
			errs = append(errs, fmt.Errorf("tree %q: name and discipline are required", ts.ID))
		}

		tree := skilltree.Tree{
			ID:          ts.ID,
			Name:        ts.Name,
			Discipline:  ts.Discipline,
			Description: ts.Description,
			Active:      boolOr(ts.Active, true),
		}
		nodes := make([]skilltree.Node, 0, len(ts.Nodes))
		for _, ns := range ts.Nodes {
			if owner, ok := nodeIDs[ns.ID]; ok && owner != ts.ID {
				errs = append(errs, fmt.Errorf("node id %q is used by trees %q and %q", ns.ID, owner, ts.ID))
			}
			nodeIDs[ns.ID] = ts.ID
			if ns.Achievement != "" && !achIDs[ns.Achievement] {
				errs = append(errs, fmt.Errorf("node %q: unknown achievement %q", ns.ID, ns.Achievement))
			}
			nodes = append(nodes, ns.build(ts.ID))
		}
		if err := skilltree.Validate(tree, nodes); err != nil {
			errs = append(errs, err)
		}

		if ts.Mastery != "" {
			if !achIDs[ts.Mastery] {
				errs = append(errs, fmt.Errorf("tree %q: unknown mastery achievement %q", ts.ID, ts.Mastery))
			} else {
				c.Mastery[ts.ID] = ts.Mastery
			}
		}
		c.Trees = append(c.Trees, tree)
		c.Nodes[ts.ID] = nodes
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	sort.Slice(c.Trees, func(i, j int) bool { return c.Trees[i].ID < c.Trees[j].ID })
	sort.Slice(c.Achievements, func(i, j int) bool { return c.Achievements[i].ID < c.Achievements[j].ID })
	return c, nil
}

func (s AchievementSpec) build() (achievement.Achievement, error) {
	if s.ID == "" {
		return achievement.Achievement{}, errors.New("id is required")
	}
	tier, err := achievement.ParseTier(s.Tier)
	if err != nil {
		return achievement.Achievement{}, fmt.Errorf("achievement %q: %w", s.ID, err)
	}
	if s.XPReward < 0 {
		return achievement.Achievement{}, fmt.Errorf("achievement %q: negative xp_reward %d", s.ID, s.XPReward)
	}
	if s.Criteria == nil {
		return achievement.Achievement{}, fmt.Errorf("achievement %q: criteria are required", s.ID)
	}

	// Criteria are authored in YAML but validated against the JSON schema
	// they are stored under.
	raw, err := json.Marshal(s.Criteria)
	if err != nil {
		return achievement.Achievement{}, fmt.Errorf("achievement %q: encode criteria: %w", s.ID, err)
	}
	crit, err := achievement.ParseCriterion(raw)
	if err != nil {
		return achievement.Achievement{}, fmt.Errorf("achievement %q: %w", s.ID, err)
	}

	return achievement.Achievement{
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		Tier:        tier,
		XPReward:    s.XPReward,
		Criteria:    crit,
		Active:      boolOr(s.Active, true),
	}, nil
}

func (s NodeSpec) build(treeID string) skilltree.Node {
	typ := skilltree.NodeType(s.Type)
	if typ == "" {
		typ = skilltree.NodeCore
	}
	return skilltree.Node{
		ID:            s.ID,
		TreeID:        treeID,
		Name:          s.Name,
		Description:   s.Description,
		Type:          typ,
		RequiredXP:    s.RequiredXP,
		XPReward:      s.XPReward,
		Prerequisites: s.Prerequisites,
		AchievementID: s.Achievement,
		Active:        boolOr(s.Active, true),
	}
}

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}
