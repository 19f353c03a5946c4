package store

import (
	"context"
	"encoding/json"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/engineermaster/internal/achievement"
	"github.com/abhisek/engineermaster/internal/skilltree"
)

var (
	treeColumns        = []string{"id", "name", "discipline", "description", "active"}
	nodeColumns        = []string{"id", "tree_id", "name", "description", "node_type", "required_xp", "xp_reward", "prerequisites", "achievement_id", "active"}
	achievementColumns = []string{"id", "name", "description", "tier", "xp_reward", "criteria", "active"}
)

type treeRow struct {
	ID          string `sql:"id"`
	Name        string `sql:"name"`
	Discipline  string `sql:"discipline"`
	Description string `sql:"description"`
	Active      bool   `sql:"active"`
}

func (r treeRow) tree() skilltree.Tree {
	return skilltree.Tree{
		ID:          r.ID,
		Name:        r.Name,
		Discipline:  r.Discipline,
		Description: r.Description,
		Active:      r.Active,
	}
}

type nodeRow struct {
	ID            string  `sql:"id"`
	TreeID        string  `sql:"tree_id"`
	Name          string  `sql:"name"`
	Description   string  `sql:"description"`
	NodeType      string  `sql:"node_type"`
	RequiredXP    int     `sql:"required_xp"`
	XPReward      int     `sql:"xp_reward"`
	Prerequisites string  `sql:"prerequisites"`
	AchievementID *string `sql:"achievement_id"`
	Active        bool    `sql:"active"`
}

func (r nodeRow) node() (skilltree.Node, error) {
	var prereqs []string
	if r.Prerequisites != "" {
		if err := json.Unmarshal([]byte(r.Prerequisites), &prereqs); err != nil {
			return skilltree.Node{}, fmt.Errorf("decode prerequisites of node %q: %w", r.ID, err)
		}
	}
	return skilltree.Node{
		ID:            r.ID,
		TreeID:        r.TreeID,
		Name:          r.Name,
		Description:   r.Description,
		Type:          skilltree.NodeType(r.NodeType),
		RequiredXP:    r.RequiredXP,
		XPReward:      r.XPReward,
		Prerequisites: prereqs,
		AchievementID: derefString(r.AchievementID),
		Active:        r.Active,
	}, nil
}

type achievementRow struct {
	ID          string `sql:"id"`
	Name        string `sql:"name"`
	Description string `sql:"description"`
	Tier        string `sql:"tier"`
	XPReward    int    `sql:"xp_reward"`
	Criteria    string `sql:"criteria"`
	Active      bool   `sql:"active"`
}

// achievement decodes the row. Criteria that cannot be decoded become
// Unknown so the definition still loads and simply never unlocks.
func (r achievementRow) achievement() achievement.Achievement {
	c, err := achievement.UnmarshalCriterion([]byte(r.Criteria))
	if err != nil {
		c = achievement.Unknown{}
	}
	return achievement.Achievement{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Tier:        achievement.Tier(r.Tier),
		XPReward:    r.XPReward,
		Criteria:    c,
		Active:      r.Active,
	}
}

func (s *Store) Trees(ctx context.Context) ([]skilltree.Tree, error) {
	q := s.builder().Select(treeColumns...).
		From(entsql.Table(tableTrees)).
		Where(entsql.EQ("active", true)).
		OrderBy("id")
	rows, err := queryRows[treeRow](ctx, s.drv, q)
	if err != nil {
		return nil, classify("query trees", err)
	}
	out := make([]skilltree.Tree, len(rows))
	for i, r := range rows {
		out[i] = r.tree()
	}
	return out, nil
}

func (s *Store) Tree(ctx context.Context, treeID string) (skilltree.Tree, error) {
	q := s.builder().Select(treeColumns...).
		From(entsql.Table(tableTrees)).
		Where(entsql.EQ("id", treeID))
	rows, err := queryRows[treeRow](ctx, s.drv, q)
	if err != nil {
		return skilltree.Tree{}, classify("query tree", err)
	}
	if len(rows) == 0 {
		return skilltree.Tree{}, &NotFoundError{Kind: "tree", ID: treeID}
	}
	return rows[0].tree(), nil
}

func (s *Store) Nodes(ctx context.Context, treeID string) ([]skilltree.Node, error) {
	q := s.builder().Select(nodeColumns...).
		From(entsql.Table(tableNodes)).
		Where(entsql.EQ("tree_id", treeID)).
		OrderBy("id")
	return s.queryNodes(ctx, q)
}

func (s *Store) AllNodes(ctx context.Context) ([]skilltree.Node, error) {
	q := s.builder().Select(nodeColumns...).
		From(entsql.Table(tableNodes)).
		OrderBy("tree_id", "id")
	return s.queryNodes(ctx, q)
}

func (s *Store) Node(ctx context.Context, nodeID string) (skilltree.Node, error) {
	q := s.builder().Select(nodeColumns...).
		From(entsql.Table(tableNodes)).
		Where(entsql.EQ("id", nodeID))
	nodes, err := s.queryNodes(ctx, q)
	if err != nil {
		return skilltree.Node{}, err
	}
	if len(nodes) == 0 {
		return skilltree.Node{}, &NotFoundError{Kind: "node", ID: nodeID}
	}
	return nodes[0], nil
}

func (s *Store) queryNodes(ctx context.Context, q *entsql.Selector) ([]skilltree.Node, error) {
	rows, err := queryRows[nodeRow](ctx, s.drv, q)
	if err != nil {
		return nil, classify("query nodes", err)
	}
	out := make([]skilltree.Node, 0, len(rows))
	for _, r := range rows {
		n, err := r.node()
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func (s *Store) AchievementDefinitions(ctx context.Context, tier *achievement.Tier) ([]achievement.Achievement, error) {
	pred := entsql.EQ("active", true)
	if tier != nil {
		pred = entsql.And(pred, entsql.EQ("tier", string(*tier)))
	}
	q := s.builder().Select(achievementColumns...).
		From(entsql.Table(tableAchievements)).
		Where(pred).
		OrderBy("id")
	rows, err := queryRows[achievementRow](ctx, s.drv, q)
	if err != nil {
		return nil, classify("query achievements", err)
	}
	out := make([]achievement.Achievement, len(rows))
	for i, r := range rows {
		out[i] = r.achievement()
	}
	return out, nil
}

func (s *Store) Achievement(ctx context.Context, achievementID string) (achievement.Achievement, error) {
	q := s.builder().Select(achievementColumns...).
		From(entsql.Table(tableAchievements)).
		Where(entsql.EQ("id", achievementID))
	rows, err := queryRows[achievementRow](ctx, s.drv, q)
	if err != nil {
		return achievement.Achievement{}, classify("query achievement", err)
	}
	if len(rows) == 0 {
		return achievement.Achievement{}, &NotFoundError{Kind: "achievement", ID: achievementID}
	}
	return rows[0].achievement(), nil
}

func (s *Store) SaveTree(ctx context.Context, tree skilltree.Tree) error {
	q := s.builder().Insert(tableTrees).
		Columns(treeColumns...).
		Values(tree.ID, tree.Name, tree.Discipline, tree.Description, tree.Active).
		OnConflict(entsql.ConflictColumns("id"), entsql.ResolveWithNewValues())
	if _, err := execute(ctx, s.drv, q); err != nil {
		return classify("save tree", err)
	}
	return nil
}

func (s *Store) SaveNode(ctx context.Context, node skilltree.Node) error {
	prereqs := node.Prerequisites
	if prereqs == nil {
		prereqs = []string{}
	}
	encoded, err := json.Marshal(prereqs)
	if err != nil {
		return fmt.Errorf("encode prerequisites: %w", err)
	}

	q := s.builder().Insert(tableNodes).
		Columns(nodeColumns...).
		Values(node.ID, node.TreeID, node.Name, node.Description, string(node.Type),
			node.RequiredXP, node.XPReward, string(encoded), nullString(node.AchievementID), node.Active).
		OnConflict(entsql.ConflictColumns("id"), entsql.ResolveWithNewValues())
	if _, err := execute(ctx, s.drv, q); err != nil {
		return classify("save node", err)
	}
	return nil
}

func (s *Store) SaveAchievement(ctx context.Context, a achievement.Achievement) error {
	criteria, err := achievement.MarshalCriterion(a.Criteria)
	if err != nil {
		return fmt.Errorf("encode criteria of %q: %w", a.ID, err)
	}

	q := s.builder().Insert(tableAchievements).
		Columns(achievementColumns...).
		Values(a.ID, a.Name, a.Description, string(a.Tier), a.XPReward, string(criteria), a.Active).
		OnConflict(entsql.ConflictColumns("id"), entsql.ResolveWithNewValues())
	if _, err := execute(ctx, s.drv, q); err != nil {
		return classify("save achievement", err)
	}
	return nil
}

func (s *Store) SetTreeMasteryAchievement(ctx context.Context, treeID, achievementID string) error {
	q := s.builder().Insert(tableTreeMastery).
		Columns("tree_id", "achievement_id").
		Values(treeID, achievementID).
		OnConflict(entsql.ConflictColumns("tree_id"), entsql.ResolveWithNewValues())
	if _, err := execute(ctx, s.drv, q); err != nil {
		return classify("save tree mastery", err)
	}
	return nil
}

func (s *Store) TreeMasteryAchievement(ctx context.Context, treeID string) (string, bool, error) {
	type masteryRow struct {
		AchievementID string `sql:"achievement_id"`
	}
	q := s.builder().Select("achievement_id").
		From(entsql.Table(tableTreeMastery)).
		Where(entsql.EQ("tree_id", treeID))
	rows, err := queryRows[masteryRow](ctx, s.drv, q)
	if err != nil {
		return "", false, classify("query tree mastery", err)
	}
	if len(rows) == 0 {
		return "", false, nil
	}
	return rows[0].AchievementID, true, nil
}
