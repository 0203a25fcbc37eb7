package migrations

import (
	"fmt"

	"github.com/cofferapp/coffer/pkg/types"
)

// defaultFeatureFlags are the flags schema 1.1 introduced and their
// out-of-the-box values.
func defaultFeatureFlags() map[string]any {
	return map[string]any{
		"dark_mode":        false,
		"auto_categorize":  true,
		"insights_preview": false,
	}
}

// featureFlags migrates 1.0 to 1.1: a feature_flags object joins the
// document so user-facing toggles stop being hardcoded.
type featureFlags struct{ types.Base }

func newFeatureFlags() featureFlags {
	return featureFlags{Base: types.Base{
		From: "1.0",
		To:   "1.1",
		Desc: "introduce feature_flags with default values",
	}}
}

func (featureFlags) Forward(doc types.Document) (types.Document, error) {
	if _, ok := doc["feature_flags"]; !ok {
		doc["feature_flags"] = defaultFeatureFlags()
	}
	return doc, nil
}

func (featureFlags) Backward(doc types.Document) (types.Document, error) {
	delete(doc, "feature_flags")
	return doc, nil
}

// CanMigrateBackward refuses when any flag differs from its default or a
// flag unknown to 1.0's era is present: dropping the block would discard
// a choice the user actually made.
func (featureFlags) CanMigrateBackward(doc types.Document) (bool, string) {
	flags, ok := doc["feature_flags"].(map[string]any)
	if !ok {
		return true, ""
	}
	defaults := defaultFeatureFlags()
	for name, want := range defaults {
		if got, present := flags[name]; present && got != want {
			return false, fmt.Sprintf("feature flag %s was changed from its default; downgrading would discard that choice", name)
		}
	}
	for name := range flags {
		if _, known := defaults[name]; !known {
			return false, fmt.Sprintf("feature flag %s is unknown to schema 1.0; downgrading would discard it", name)
		}
	}
	return true, ""
}
