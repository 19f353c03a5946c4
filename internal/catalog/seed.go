package catalog

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/abhisek/engineermaster/internal/store"
)

//go:embed default_catalog.yaml
var defaultCatalog []byte

// Default returns the built-in catalog.
func Default() (*Catalog, error) {
	c, err := Parse(defaultCatalog)
	if err != nil {
		return nil, fmt.Errorf("built-in catalog: %w", err)
	}
	return c, nil
}

// SeedSummary counts what Seed wrote.
type SeedSummary struct {
	Trees        int
	Nodes        int
	Achievements int
}

// Seed writes the catalog to the store. Rows are upserted by ID, so seeding
// the same catalog twice is harmless and an edited catalog updates the
// stored definitions in place. User progress is never touched.
func Seed(ctx context.Context, st store.ProgressStore, c *Catalog) (SeedSummary, error) {
	var sum SeedSummary

	for _, a := range c.Achievements {
		if err := st.SaveAchievement(ctx, a); err != nil {
			return sum, fmt.Errorf("save achievement %q: %w", a.ID, err)
		}
		sum.Achievements++
	}
	for _, t := range c.Trees {
		if err := st.SaveTree(ctx, t); err != nil {
			return sum, fmt.Errorf("save tree %q: %w", t.ID, err)
		}
		sum.Trees++
		for _, n := range c.Nodes[t.ID] {
			if err := st.SaveNode(ctx, n); err != nil {
				return sum, fmt.Errorf("save node %q: %w", n.ID, err)
			}
			sum.Nodes++
		}
		if achID, ok := c.Mastery[t.ID]; ok {
			if err := st.SetTreeMasteryAchievement(ctx, t.ID, achID); err != nil {
				return sum, fmt.Errorf("set mastery for tree %q: %w", t.ID, err)
			}
		}
	}
	return sum, nil
}
