package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/engineermaster/internal/achievement"
	"github.com/abhisek/engineermaster/internal/progression"
	"github.com/abhisek/engineermaster/internal/skilltree"
	"github.com/abhisek/engineermaster/internal/store"
)

const minimal = `
version: "1.2.0"
achievements:
  - id: starter
    name: Starter
    tier: bronze
    xp_reward: 10
    criteria:
      type: lesson_completion
      count: 1
trees:
  - id: t
    name: Tree
    discipline: d
    mastery_achievement: starter
    nodes:
      - id: a
        name: A
        type: foundation
        xp_reward: 5
      - id: b
        name: B
        prerequisites: [a]
        achievement: starter
        active: false
`

func TestParseMinimal(t *testing.T) {
	c, err := Parse([]byte(minimal))
	require.NoError(t, err)

	require.Len(t, c.Trees, 1)
	assert.True(t, c.Trees[0].Active)
	require.Len(t, c.Nodes["t"], 2)

	a, b := c.Nodes["t"][0], c.Nodes["t"][1]
	assert.Equal(t, skilltree.NodeFoundation, a.Type)
	assert.True(t, a.Active)
	assert.Equal(t, skilltree.NodeCore, b.Type, "type defaults to core")
	assert.False(t, b.Active)
	assert.Equal(t, "starter", b.AchievementID)
	assert.Equal(t, "t", b.TreeID)

	require.Len(t, c.Achievements, 1)
	assert.Equal(t, achievement.LessonCompletion{Count: 1}, c.Achievements[0].Criteria)
	assert.Equal(t, map[string]string{"t": "starter"}, c.Mastery)
	assert.Equal(t, 2, c.NodeCount())
}

func TestCheckVersion(t *testing.T) {
	tests := []struct {
		version string
		wantErr bool
	}{
		{"1.0.0", false},
		{"v1.4.2", false},
		{"1", false},
		{"", true},
		{"2.0.0", true},
		{"v0.9.0", true},
		{"one", true},
	}
	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			err := CheckVersion(tt.version)
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckVersion(%q) error = %v, wantErr %v", tt.version, err, tt.wantErr)
			}
		})
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "bad yaml",
			yaml:    "version: [",
			wantErr: "decode catalog",
		},
		{
			name:    "unsupported version",
			yaml:    `version: "3.0.0"`,
			wantErr: "unsupported catalog version",
		},
		{
			name: "unknown criterion type",
			yaml: `version: "1.0.0"
achievements:
  - id: x
    tier: bronze
    criteria: {type: streak_days, days: 7}`,
			wantErr: "criterion schema validation failed",
		},
		{
			name: "fractional count",
			yaml: `version: "1.0.0"
achievements:
  - id: x
    tier: bronze
    criteria: {type: lesson_completion, count: 1.5}`,
			wantErr: "criterion schema validation failed",
		},
		{
			name: "unknown tier",
			yaml: `version: "1.0.0"
achievements:
  - id: x
    tier: diamond
    criteria: {type: lesson_completion, count: 1}`,
			wantErr: "unknown achievement tier",
		},
		{
			name: "missing criteria",
			yaml: `version: "1.0.0"
achievements:
  - id: x
    tier: bronze`,
			wantErr: "criteria are required",
		},
		{
			name: "duplicate achievement",
			yaml: `version: "1.0.0"
achievements:
  - {id: x, tier: bronze, criteria: {type: xp_earned, amount: 1}}
  - {id: x, tier: bronze, criteria: {type: xp_earned, amount: 2}}`,
			wantErr: `duplicate achievement id "x"`,
		},
		{
			name: "unknown node achievement",
			yaml: `version: "1.0.0"
trees:
  - id: t
    name: T
    discipline: d
    nodes:
      - {id: a, name: A, achievement: ghost}`,
			wantErr: `unknown achievement "ghost"`,
		},
		{
			name: "unknown mastery achievement",
			yaml: `version: "1.0.0"
trees:
  - id: t
    name: T
    discipline: d
    mastery_achievement: ghost
    nodes:
      - {id: a, name: A}`,
			wantErr: `unknown mastery achievement "ghost"`,
		},
		{
			name: "node shared between trees",
			yaml: `version: "1.0.0"
trees:
  - {id: t1, name: T1, discipline: d, nodes: [{id: a, name: A}]}
  - {id: t2, name: T2, discipline: d, nodes: [{id: a, name: A}]}`,
			wantErr: `node id "a" is used by trees`,
		},
		{
			name: "missing discipline",
			yaml: `version: "1.0.0"
trees:
  - {id: t, name: T, nodes: [{id: a, name: A}]}`,
			wantErr: "name and discipline are required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseCycle(t *testing.T) {
	_, err := Parse([]byte(`version: "1.0.0"
trees:
  - id: t
    name: T
    discipline: d
    nodes:
      - {id: root, name: Root}
      - {id: a, name: A, prerequisites: [root, b]}
      - {id: b, name: B, prerequisites: [a]}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, skilltree.ErrCyclicPrerequisites))
}

func TestParseReportsEveryProblem(t *testing.T) {
	_, err := Parse([]byte(`version: "1.0.0"
achievements:
  - {id: x, tier: diamond, criteria: {type: xp_earned, amount: 1}}
trees:
  - {id: t, name: T, discipline: d, mastery_achievement: ghost, nodes: [{id: a, name: A}]}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown achievement tier")
	assert.Contains(t, err.Error(), "unknown mastery achievement")
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimal), 0o644))

	c, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "1.2.0", c.Version)

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`version: "9.0.0"`), 0o644))
	_, err = LoadFile(path)
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), path))
}

func TestDefaultCatalog(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	assert.Len(t, c.Trees, 5)
	assert.Equal(t, 25, c.NodeCount())
	assert.Len(t, c.Mastery, 5)

	disciplines := map[string]bool{}
	for _, tree := range c.Trees {
		disciplines[tree.Discipline] = true
		g, err := skilltree.NewGraph(tree, c.Nodes[tree.ID])
		require.NoError(t, err, tree.ID)
		assert.Len(t, g.Roots(), 1, tree.ID)
	}
	assert.Len(t, disciplines, 5)

	kinds := map[achievement.Kind]bool{}
	for _, a := range c.Achievements {
		kinds[a.Criteria.Kind()] = true
	}
	for _, k := range achievement.AllKinds() {
		assert.True(t, kinds[k], "no default achievement uses %s", k)
	}
}

func TestSeedIsRepeatable(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	c, err := Default()
	require.NoError(t, err)

	for range 2 {
		sum, err := Seed(ctx, st, c)
		require.NoError(t, err)
		assert.Equal(t, SeedSummary{Trees: 5, Nodes: 25, Achievements: len(c.Achievements)}, sum)
	}

	trees, err := st.Trees(ctx)
	require.NoError(t, err)
	assert.Len(t, trees, 5)
	nodes, err := st.AllNodes(ctx)
	require.NoError(t, err)
	assert.Len(t, nodes, 25)

	id, ok, err := st.TreeMasteryAchievement(ctx, "backend")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "backend-master", id)
}

func TestSeededTreePlaythrough(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	c, err := Default()
	require.NoError(t, err)
	_, err = Seed(ctx, st, c)
	require.NoError(t, err)

	svc := progression.NewService(st, progression.DefaultConfig())
	for _, n := range []string{"backend-http", "backend-sql", "backend-api", "backend-caching", "backend-distributed"} {
		_, err := svc.CompleteNode(ctx, "learner", n)
		require.NoError(t, err, n)
	}

	earned, err := st.UserAchievements(ctx, "learner")
	require.NoError(t, err)
	got := achievement.EarnedSet(earned)
	for _, id := range []string{"backend-beginnings", "api-designer", "backend-master", "tree-finisher", "xp-1000"} {
		assert.True(t, got[id], "expected %s to be earned", id)
	}
	assert.False(t, got["full-stack"])

	has, err := st.HasXPEntry(ctx, "learner", store.XPTreeCompletion, "backend")
	require.NoError(t, err)
	assert.True(t, has)
}
