package migrations

import (
	"fmt"

	"github.com/cofferapp/coffer/pkg/types"
)

// insights migrates 1.2 to 1.3 on the beta channel: an insights workspace
// joins the document to hold generated spending reports. The block is a
// beta-only shape; the unit is constrained to beta documents on both
// sides.
type insights struct{ types.Base }

func newInsights() insights {
	return insights{Base: types.Base{
		From:   "1.2",
		To:     "1.3",
		FromCh: types.ChannelBeta,
		ToCh:   types.ChannelBeta,
		Desc:   "add the beta insights workspace",
	}}
}

func (insights) Forward(doc types.Document) (types.Document, error) {
	if _, ok := doc["insights"]; !ok {
		doc["insights"] = map[string]any{"reports": []any{}}
	}
	return doc, nil
}

func (insights) Backward(doc types.Document) (types.Document, error) {
	delete(doc, "insights")
	return doc, nil
}

// CanMigrateBackward refuses once reports have accumulated; they only
// exist in 1.3 and a downgrade would silently destroy them.
func (insights) CanMigrateBackward(doc types.Document) (bool, string) {
	obj, ok := doc["insights"].(map[string]any)
	if !ok {
		return true, ""
	}
	reports, _ := obj["reports"].([]any)
	if len(reports) > 0 {
		return false, fmt.Sprintf("insights hold %d generated report(s); downgrading would discard them", len(reports))
	}
	return true, ""
}
