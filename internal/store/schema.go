package store

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

const (
	tableTrees            = "skill_trees"
	tableNodes            = "skill_nodes"
	tableAchievements     = "achievement_types"
	tableTreeMastery      = "tree_mastery"
	tableUserProgress     = "user_node_progress"
	tableXPEntries        = "xp_ledger"
	tableUserAchievements = "user_achievements"
	tableLessons          = "lesson_completions"
)

func col(name string, typ field.Type) *schema.Column {
	return &schema.Column{Name: name, Type: typ}
}

func nullable(name string, typ field.Type) *schema.Column {
	return &schema.Column{Name: name, Type: typ, Nullable: true}
}

// tables returns the relational schema applied on Open.
func tables() []*schema.Table {
	trees := schema.NewTable(tableTrees).
		AddPrimary(col("id", field.TypeString)).
		AddColumn(col("name", field.TypeString)).
		AddColumn(col("discipline", field.TypeString)).
		AddColumn(col("description", field.TypeString)).
		AddColumn(col("active", field.TypeBool))

	nodes := schema.NewTable(tableNodes).
		AddPrimary(col("id", field.TypeString)).
		AddColumn(col("tree_id", field.TypeString)).
		AddColumn(col("name", field.TypeString)).
		AddColumn(col("description", field.TypeString)).
		AddColumn(col("node_type", field.TypeString)).
		AddColumn(col("required_xp", field.TypeInt)).
		AddColumn(col("xp_reward", field.TypeInt)).
		AddColumn(col("prerequisites", field.TypeString)).
		AddColumn(nullable("achievement_id", field.TypeString)).
		AddColumn(col("active", field.TypeBool)).
		AddIndex("skill_nodes_tree_id", false, []string{"tree_id"})

	achievements := schema.NewTable(tableAchievements).
		AddPrimary(col("id", field.TypeString)).
		AddColumn(col("name", field.TypeString)).
		AddColumn(col("description", field.TypeString)).
		AddColumn(col("tier", field.TypeString)).
		AddColumn(col("xp_reward", field.TypeInt)).
		AddColumn(col("criteria", field.TypeString)).
		AddColumn(col("active", field.TypeBool))

	mastery := schema.NewTable(tableTreeMastery).
		AddPrimary(col("tree_id", field.TypeString)).
		AddColumn(col("achievement_id", field.TypeString))

	progress := schema.NewTable(tableUserProgress).
		AddPrimary(col("user_id", field.TypeString)).
		AddPrimary(col("node_id", field.TypeString)).
		AddColumn(col("tree_id", field.TypeString)).
		AddColumn(col("status", field.TypeString)).
		AddColumn(col("progress_percentage", field.TypeInt)).
		AddColumn(nullable("unlocked_at", field.TypeTime)).
		AddColumn(nullable("started_at", field.TypeTime)).
		AddColumn(nullable("completed_at", field.TypeTime)).
		AddColumn(col("updated_at", field.TypeTime)).
		AddIndex("user_node_progress_user_tree", false, []string{"user_id", "tree_id"})

	xp := schema.NewTable(tableXPEntries).
		AddPrimary(col("id", field.TypeString)).
		AddColumn(&schema.Column{Name: "sequence", Type: field.TypeInt64, Unique: true}).
		AddColumn(col("user_id", field.TypeString)).
		AddColumn(col("amount", field.TypeInt)).
		AddColumn(col("source", field.TypeString)).
		AddColumn(nullable("reference_id", field.TypeString)).
		AddColumn(col("description", field.TypeString)).
		AddColumn(col("created_at", field.TypeTime)).
		AddIndex("xp_ledger_user_source_reference", true, []string{"user_id", "source", "reference_id"})

	awards := schema.NewTable(tableUserAchievements).
		AddPrimary(col("id", field.TypeString)).
		AddColumn(col("user_id", field.TypeString)).
		AddColumn(col("achievement_id", field.TypeString)).
		AddColumn(col("earned_at", field.TypeTime)).
		AddColumn(col("progress_data", field.TypeString)).
		AddIndex("user_achievements_user_achievement", true, []string{"user_id", "achievement_id"})

	lessons := schema.NewTable(tableLessons).
		AddPrimary(col("user_id", field.TypeString)).
		AddPrimary(col("lesson_id", field.TypeString)).
		AddColumn(col("completed_at", field.TypeTime))

	return []*schema.Table{trees, nodes, achievements, mastery, progress, xp, awards, lessons}
}
