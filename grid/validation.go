package grid

import (
	"strings"

	"github.com/shopspring/decimal"

	"tally/a1"
)

// ValidationKind selects the rule a validation enforces.
type ValidationKind string

const (
	ValidationLogical     ValidationKind = "logical"
	ValidationList        ValidationKind = "list"
	ValidationNumberRange ValidationKind = "number_range"
	ValidationTextLength  ValidationKind = "text_length"
)

// Validation is one rule over a selection.
type Validation struct {
	ID        string         `json:"id"`
	Selection a1.Selection   `json:"selection"`
	Kind      ValidationKind `json:"kind"`
	// List entries for ValidationList.
	List []string `json:"list,omitempty"`
	// Min/Max bound numbers or text lengths; nil means unbounded.
	Min *decimal.Decimal `json:"min,omitempty"`
	Max *decimal.Decimal `json:"max,omitempty"`
	// ShowError blocks invalid input; otherwise it only warns.
	ShowError bool   `json:"show_error"`
	Message   string `json:"message,omitempty"`
}

// Check reports whether a value satisfies the rule.
func (v *Validation) Check(value CellValue) bool {
	if IsBlank(value) {
		return true
	}
	switch v.Kind {
	case ValidationLogical:
		_, ok := value.(*Logical)
		return ok
	case ValidationList:
		display := value.Display()
		for _, entry := range v.List {
			if strings.EqualFold(entry, display) {
				return true
			}
		}
		return false
	case ValidationNumberRange:
		n, ok := value.(*Number)
		if !ok {
			return false
		}
		if v.Min != nil && n.Value.Cmp(*v.Min) < 0 {
			return false
		}
		if v.Max != nil && n.Value.Cmp(*v.Max) > 0 {
			return false
		}
		return true
	case ValidationTextLength:
		length := decimal.NewFromInt(int64(len(value.Display())))
		if v.Min != nil && length.Cmp(*v.Min) < 0 {
			return false
		}
		if v.Max != nil && length.Cmp(*v.Max) > 0 {
			return false
		}
		return true
	}
	return true
}

// Validations is the per-sheet rule list plus per-cell warnings.
type Validations struct {
	Rules    []*Validation     `json:"rules,omitempty"`
	Warnings map[a1.Pos]string `json:"-"` // pos -> validation id
}

func NewValidations() *Validations {
	return &Validations{Warnings: make(map[a1.Pos]string)}
}

// Set installs or replaces a rule by id, returning the prior rule (nil
// when new).
func (vs *Validations) Set(v *Validation) *Validation {
	for i, have := range vs.Rules {
		if have.ID == v.ID {
			vs.Rules[i] = v
			return have
		}
	}
	vs.Rules = append(vs.Rules, v)
	return nil
}

// Remove deletes a rule by id and returns it.
func (vs *Validations) Remove(id string) *Validation {
	for i, have := range vs.Rules {
		if have.ID == id {
			vs.Rules = append(vs.Rules[:i], vs.Rules[i+1:]...)
			return have
		}
	}
	return nil
}

// RuleFor returns the first rule whose selection covers the position.
func (vs *Validations) RuleFor(ctx *a1.Context, sp a1.SheetPos) *Validation {
	for _, rule := range vs.Rules {
		if rule.Selection.Contains(ctx, sp) {
			return rule
		}
	}
	return nil
}

// Adjust rewrites every rule's selection for a structural edit.
func (vs *Validations) Adjust(adj a1.RefAdjust) {
	for _, rule := range vs.Rules {
		rule.Selection = rule.Selection.Adjust(adj)
	}
	if len(vs.Warnings) > 0 && (adj.Dx != 0 || adj.Dy != 0) {
		moved := make(map[a1.Pos]string, len(vs.Warnings))
		for pos, id := range vs.Warnings {
			next := pos
			if adj.XStart == 0 || pos.X >= adj.XStart {
				next.X += adj.Dx
			}
			if adj.YStart == 0 || pos.Y >= adj.YStart {
				next.Y += adj.Dy
			}
			if next.X >= 1 && next.Y >= 1 {
				moved[next] = id
			}
		}
		vs.Warnings = moved
	}
}
