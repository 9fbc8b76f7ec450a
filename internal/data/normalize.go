package data

import (
	"encoding/json"

	jmespath "github.com/jmespath-community/go-jmespath"
)

// Rows imported from the previous platform carry their original document in a
// raw payload column. The pay amount lives at compensation.salary there, except
// for the oldest rows where it sits at top-level salary. Normalization happens
// exactly once, at scan time; everything above the repository sees only the
// canonical gross_amount.
const legacyGrossExpr = "compensation.salary || salary"

// normalizeLegacyGross extracts the canonical gross amount from a legacy
// payload. The second return value is false when the payload is empty,
// malformed, or carries no recognizable amount.
func normalizeLegacyGross(raw []byte) (int64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return 0, false
	}
	result, err := jmespath.Search(legacyGrossExpr, doc)
	if err != nil {
		return 0, false
	}
	switch v := result.(type) {
	case float64:
		if v < 0 {
			return 0, false
		}
		return int64(v), true
	case json.Number:
		n, convErr := v.Int64()
		if convErr != nil || n < 0 {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
