package policy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"

	"github.com/agentsafe/runtime/verdict"
)

// documentSchema is the JSON Schema a policy YAML document must satisfy
// before its rules are even parsed for conditions. It mirrors spec.md
// §4.3's rule shape: name, condition, action, reason, priority.
const documentSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["rules"],
  "properties": {
    "rules": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "condition", "action"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "condition": {"type": "string", "minLength": 1},
          "action": {"type": "string", "enum": ["PROCEED", "LOG_ONLY", "SOFT_STOP", "HUMAN_REVIEW", "HARD_STOP"]},
          "reason": {"type": "string"},
          "priority": {"type": "integer"}
        }
      }
    }
  }
}`

type ruleDocument struct {
	Rules []struct {
		Name      string `yaml:"name"`
		Condition string `yaml:"condition"`
		Action    string `yaml:"action"`
		Reason    string `yaml:"reason"`
		Priority  int    `yaml:"priority"`
	} `yaml:"rules"`
}

// LoadYAML reads a YAML policy document from r, validates its shape
// against documentSchema, compiles each rule, and installs the resulting
// ruleset via Load. A document that fails schema validation or contains a
// malformed condition is rejected as a configuration error and leaves the
// previously loaded ruleset untouched (spec.md §7).
func (e *Engine) LoadYAML(r io.Reader) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("policy: reading document: %w", err)
	}

	var generic any
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return fmt.Errorf("policy: parsing YAML: %w", err)
	}

	if err := validateDocument(generic); err != nil {
		return fmt.Errorf("policy: document failed schema validation: %w", err)
	}

	var doc ruleDocument
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("policy: parsing YAML: %w", err)
	}

	rules := make([]Rule, 0, len(doc.Rules))
	for _, r := range doc.Rules {
		decision, ok := verdict.ParseDecision(r.Action)
		if !ok {
			return fmt.Errorf("policy: rule %q: unrecognized action %q", r.Name, r.Action)
		}
		rules = append(rules, Rule{
			Name:      r.Name,
			Condition: r.Condition,
			Action:    decision,
			Reason:    r.Reason,
			Priority:  r.Priority,
		})
	}

	return e.Load(rules)
}

var (
	compiledDocumentSchema     *jsonschema.Schema
	compiledDocumentSchemaOnce sync.Once
	compiledDocumentSchemaErr  error
)

func validateDocument(doc any) error {
	compiledDocumentSchemaOnce.Do(func() {
		schemaValue, err := jsonschema.UnmarshalJSON(bytes.NewReader([]byte(documentSchema)))
		if err != nil {
			compiledDocumentSchemaErr = err
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("policy.json", schemaValue); err != nil {
			compiledDocumentSchemaErr = err
			return
		}
		compiled, err := compiler.Compile("policy.json")
		if err != nil {
			compiledDocumentSchemaErr = err
			return
		}
		compiledDocumentSchema = compiled
	})
	if compiledDocumentSchemaErr != nil {
		return compiledDocumentSchemaErr
	}

	// jsonschema validates against plain JSON-shaped values (map[string]any,
	// []any, string, float64, bool, nil); round-trip through encoding/json to
	// normalize whatever shape yaml.v3 produced (e.g. map[string]interface{}
	// with non-string-keyed nested maps are not expected here, but ints
	// decoded by yaml as int rather than float64 are).
	normalized, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("normalizing document: %w", err)
	}
	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(normalized))
	if err != nil {
		return fmt.Errorf("decoding normalized document: %w", err)
	}

	return compiledDocumentSchema.Validate(instance)
}
