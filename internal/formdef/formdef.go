// Package formdef loads form definitions from YAML files.
//
// A definition is the static shape of a form: nested questions, groups,
// field-list groups and repeats. The instance package materializes a
// definition into a navigable instance tree.
package formdef

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ElementType names what a definition element becomes in the tree.
type ElementType string

const (
	TypeQuestion ElementType = "question"
	TypeGroup    ElementType = "group"
	TypeRepeat   ElementType = "repeat"
)

// Definition is the root of a form definition file.
type Definition struct {
	ID       string    `yaml:"id" json:"id" validate:"required"`
	Title    string    `yaml:"title" json:"title"`
	Version  string    `yaml:"version,omitempty" json:"version,omitempty"`
	Children []Element `yaml:"children" json:"children" validate:"dive"`
}

// Element is one node of a definition.
type Element struct {
	Name      string      `yaml:"name" json:"name" validate:"required"`
	Type      ElementType `yaml:"type" json:"type" validate:"required,oneof=question group repeat"`
	Label     string      `yaml:"label,omitempty" json:"label,omitempty"`
	FieldList bool        `yaml:"field_list,omitempty" json:"field_list,omitempty"`
	// Relevant is the initial relevance; absent means relevant.
	Relevant *bool `yaml:"relevant,omitempty" json:"relevant,omitempty"`
	// Count is the number of repeat instances created up front.
	Count int `yaml:"count,omitempty" json:"count,omitempty" validate:"gte=0"`
	// Max caps repeat growth; 0 means unbounded.
	Max      int       `yaml:"max,omitempty" json:"max,omitempty" validate:"gte=0"`
	Children []Element `yaml:"children,omitempty" json:"children,omitempty" validate:"dive"`
}

// IsRelevant returns the element's initial relevance.
func (e Element) IsRelevant() bool {
	return e.Relevant == nil || *e.Relevant
}

// DisplayLabel falls back to the element name.
func (e Element) DisplayLabel() string {
	if e.Label != "" {
		return e.Label
	}
	return e.Name
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads and validates a definition file.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading form definition: %w", err)
	}
	def, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("form definition %s: %w", path, err)
	}
	return def, nil
}

// Parse decodes and validates a YAML definition. Unknown keys are
// rejected so typos in field names fail loudly.
func Parse(data []byte) (*Definition, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var def Definition
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("decoding yaml: %w", err)
	}
	if err := Validate(&def); err != nil {
		return nil, err
	}
	return &def, nil
}

// Validate checks struct tags and the structural rules tags cannot
// express: questions have no children, repeat counts fit their maximum,
// and sibling names are unique.
func Validate(def *Definition) error {
	if err := validate.Struct(def); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, len(verrs))
			for i, fe := range verrs {
				msgs[i] = fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag())
			}
			return fmt.Errorf("invalid definition: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid definition: %w", err)
	}
	return validateChildren(def.ID, def.Children)
}

func validateChildren(path string, children []Element) error {
	seen := make(map[string]bool, len(children))
	for _, e := range children {
		where := path + "/" + e.Name
		if seen[e.Name] {
			return fmt.Errorf("invalid definition: duplicate name %q", where)
		}
		seen[e.Name] = true

		switch e.Type {
		case TypeQuestion:
			if len(e.Children) > 0 {
				return fmt.Errorf("invalid definition: question %q has children", where)
			}
			if e.FieldList {
				return fmt.Errorf("invalid definition: question %q cannot be a field list", where)
			}
		case TypeRepeat:
			if e.Max > 0 && e.Count > e.Max {
				return fmt.Errorf("invalid definition: repeat %q count %d exceeds max %d", where, e.Count, e.Max)
			}
		}
		if e.Type != TypeRepeat && (e.Count != 0 || e.Max != 0) {
			return fmt.Errorf("invalid definition: %s %q cannot set count or max", e.Type, where)
		}

		if err := validateChildren(where, e.Children); err != nil {
			return err
		}
	}
	return nil
}
