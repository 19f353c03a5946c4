package achievement

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// criterionSchema describes the stored JSON form of a Criterion.
const criterionSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$ref": "#/$defs/criterion",
  "$defs": {
    "count": {"type": "integer", "minimum": 0},
    "criterion": {
      "oneOf": [
        {
          "type": "object",
          "properties": {"type": {"const": "lesson_completion"}, "count": {"$ref": "#/$defs/count"}},
          "required": ["type", "count"],
          "additionalProperties": false
        },
        {
          "type": "object",
          "properties": {
            "type": {"const": "skill_mastery"},
            "discipline": {"type": "string", "minLength": 1},
            "nodes_required": {"$ref": "#/$defs/count"}
          },
          "required": ["type", "discipline", "nodes_required"],
          "additionalProperties": false
        },
        {
          "type": "object",
          "properties": {
            "type": {"const": "tier_achievement"},
            "tier": {"enum": ["bronze", "silver", "gold", "platinum"]},
            "count": {"$ref": "#/$defs/count"}
          },
          "required": ["type", "tier", "count"],
          "additionalProperties": false
        },
        {
          "type": "object",
          "properties": {"type": {"const": "tree_completion"}, "trees_required": {"$ref": "#/$defs/count"}},
          "required": ["type", "trees_required"],
          "additionalProperties": false
        },
        {
          "type": "object",
          "properties": {"type": {"const": "xp_earned"}, "amount": {"$ref": "#/$defs/count"}},
          "required": ["type", "amount"],
          "additionalProperties": false
        },
        {
          "type": "object",
          "properties": {"type": {"const": "skill_tree_mastery"}, "disciplines": {"$ref": "#/$defs/count"}},
          "required": ["type", "disciplines"],
          "additionalProperties": false
        },
        {
          "type": "object",
          "properties": {
            "type": {"const": "combined"},
            "requirements": {"type": "array", "items": {"$ref": "#/$defs/criterion"}}
          },
          "required": ["type", "requirements"],
          "additionalProperties": false
        }
      ]
    }
  }
}`

const criterionSchemaURL = "schema://criterion.json"

var (
	compileOnce      sync.Once
	compiledSchema   *jsonschema.Schema
	compileSchemaErr error
)

// wireCriterion is the union of every variant's JSON fields.
type wireCriterion struct {
	Type          string            `json:"type"`
	Count         int               `json:"count"`
	Discipline    string            `json:"discipline"`
	NodesRequired int               `json:"nodes_required"`
	Tier          string            `json:"tier"`
	TreesRequired int               `json:"trees_required"`
	Amount        int               `json:"amount"`
	Disciplines   int               `json:"disciplines"`
	Requirements  []json.RawMessage `json:"requirements"`
}

// MarshalCriterion encodes c in its stored JSON form.
func MarshalCriterion(c Criterion) ([]byte, error) {
	m, err := criterionToMap(c)
	if err != nil {
		return nil, err
	}
	return json.Marshal(m)
}

func criterionToMap(c Criterion) (map[string]any, error) {
	switch c := c.(type) {
	case LessonCompletion:
		return map[string]any{"type": string(KindLessonCompletion), "count": c.Count}, nil
	case SkillMastery:
		return map[string]any{"type": string(KindSkillMastery), "discipline": c.Discipline, "nodes_required": c.NodesRequired}, nil
	case TierAchievement:
		return map[string]any{"type": string(KindTierAchievement), "tier": string(c.Tier), "count": c.Count}, nil
	case TreeCompletion:
		return map[string]any{"type": string(KindTreeCompletion), "trees_required": c.TreesRequired}, nil
	case XPEarned:
		return map[string]any{"type": string(KindXPEarned), "amount": c.Amount}, nil
	case SkillTreeMastery:
		return map[string]any{"type": string(KindSkillTreeMastery), "disciplines": c.Disciplines}, nil
	case Combined:
		reqs := make([]any, 0, len(c.Requirements))
		for i, r := range c.Requirements {
			m, err := criterionToMap(r)
			if err != nil {
				return nil, fmt.Errorf("requirement %d: %w", i, err)
			}
			reqs = append(reqs, m)
		}
		return map[string]any{"type": string(KindCombined), "requirements": reqs}, nil
	case Unknown:
		return map[string]any{"type": c.Type}, nil
	case nil:
		return nil, fmt.Errorf("nil criterion")
	default:
		return nil, fmt.Errorf("unsupported criterion %T", c)
	}
}

// UnmarshalCriterion decodes stored JSON leniently: an unrecognised type tag
// becomes Unknown rather than an error, so one malformed definition cannot
// stop the rest from loading. Use ValidateCriterionJSON for strict checks.
func UnmarshalCriterion(data []byte) (Criterion, error) {
	var w wireCriterion
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decode criterion: %w", err)
	}

	switch Kind(w.Type) {
	case KindLessonCompletion:
		return LessonCompletion{Count: w.Count}, nil
	case KindSkillMastery:
		return SkillMastery{Discipline: w.Discipline, NodesRequired: w.NodesRequired}, nil
	case KindTierAchievement:
		return TierAchievement{Tier: Tier(w.Tier), Count: w.Count}, nil
	case KindTreeCompletion:
		return TreeCompletion{TreesRequired: w.TreesRequired}, nil
	case KindXPEarned:
		return XPEarned{Amount: w.Amount}, nil
	case KindSkillTreeMastery:
		return SkillTreeMastery{Disciplines: w.Disciplines}, nil
	case KindCombined:
		reqs := make([]Criterion, 0, len(w.Requirements))
		for i, raw := range w.Requirements {
			r, err := UnmarshalCriterion(raw)
			if err != nil {
				return nil, fmt.Errorf("requirement %d: %w", i, err)
			}
			reqs = append(reqs, r)
		}
		return Combined{Requirements: reqs}, nil
	default:
		return Unknown{Type: w.Type}, nil
	}
}

// ValidateCriterionJSON checks raw criterion JSON against the criterion
// schema.
func ValidateCriterionJSON(data []byte) error {
	schema, err := criterionValidator()
	if err != nil {
		return err
	}

	var parsed any
	if err := json.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("invalid criterion JSON: %w", err)
	}
	if err := schema.Validate(parsed); err != nil {
		return fmt.Errorf("criterion schema validation failed: %w", err)
	}
	return nil
}

// ParseCriterion validates and decodes raw criterion JSON. Unlike
// UnmarshalCriterion it rejects unknown tags.
func ParseCriterion(data []byte) (Criterion, error) {
	if err := ValidateCriterionJSON(data); err != nil {
		return nil, err
	}
	return UnmarshalCriterion(data)
}

// criterionValidator compiles the criterion schema once.
func criterionValidator() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		var doc any
		if err := json.Unmarshal([]byte(criterionSchema), &doc); err != nil {
			compileSchemaErr = fmt.Errorf("parse criterion schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(criterionSchemaURL, doc); err != nil {
			compileSchemaErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiledSchema, compileSchemaErr = c.Compile(criterionSchemaURL)
	})
	return compiledSchema, compileSchemaErr
}
