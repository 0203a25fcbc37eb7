package migrations

import (
	"fmt"

	"github.com/cofferapp/coffer/pkg/types"
)

// periodUnits maps the 1.1 period names onto 1.2 unit spellings.
var periodUnits = map[string]string{
	"weekly":  "week",
	"monthly": "month",
	"yearly":  "year",
}

// budgetPeriod migrates 1.1 to 1.2: the budget_period field grows from a
// fixed set of period names into a {unit, length} object so budgets can
// span arbitrary intervals.
type budgetPeriod struct{ types.Base }

func newBudgetPeriod() budgetPeriod {
	return budgetPeriod{Base: types.Base{
		From: "1.1",
		To:   "1.2",
		Desc: "normalize budget_period into a {unit, length} object",
	}}
}

func (budgetPeriod) Forward(doc types.Document) (types.Document, error) {
	raw, present := doc["budget_period"]
	if !present {
		doc["budget_period"] = map[string]any{"unit": "month", "length": 1}
		return doc, nil
	}
	if _, already := raw.(map[string]any); already {
		return doc, nil
	}
	name, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("budget_period has unexpected type %T", raw)
	}
	unit, known := periodUnits[name]
	if !known {
		return nil, fmt.Errorf("unknown budget period %q", name)
	}
	doc["budget_period"] = map[string]any{"unit": unit, "length": 1}
	return doc, nil
}

func (budgetPeriod) Backward(doc types.Document) (types.Document, error) {
	obj, ok := doc["budget_period"].(map[string]any)
	if !ok {
		return doc, nil
	}
	name, reason := periodName(obj)
	if name == "" {
		return nil, fmt.Errorf("cannot restore budget_period: %s", reason)
	}
	doc["budget_period"] = name
	return doc, nil
}

func (budgetPeriod) CanMigrateBackward(doc types.Document) (bool, string) {
	obj, ok := doc["budget_period"].(map[string]any)
	if !ok {
		return true, ""
	}
	if name, reason := periodName(obj); name == "" {
		return false, reason
	}
	return true, ""
}

// periodName maps a {unit, length} object back onto a 1.1 period name,
// or returns the reason it cannot be expressed.
func periodName(obj map[string]any) (string, string) {
	length, ok := asInt(obj["length"])
	if !ok || length != 1 {
		return "", fmt.Sprintf("budget period length %v has no schema 1.1 equivalent", obj["length"])
	}
	unit, _ := obj["unit"].(string)
	for name, u := range periodUnits {
		if u == unit {
			return name, ""
		}
	}
	return "", fmt.Sprintf("budget period unit %q has no schema 1.1 equivalent", unit)
}
