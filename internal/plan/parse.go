// File path: internal/plan/parse.go
package plan

import (
	"encoding/json"
	"strings"

	"github.com/aquametrics/waterlens/internal/common"
)

// Parse decodes a model completion into a plan. Completions often wrap the
// JSON in code fences or prose, so the first balanced object is extracted
// before decoding. Any failure degrades to the fallback plan.
func Parse(raw string) Plan {
	fragment, ok := firstJSONObject(raw)
	if !ok {
		common.Logger().Warn("plan: completion carried no JSON object, using fallback")
		return Fallback()
	}
	var p Plan
	if err := json.Unmarshal([]byte(fragment), &p); err != nil {
		common.Logger().Warn("plan: completion JSON did not decode, using fallback", "error", err)
		return Fallback()
	}
	return Normalize(p)
}

// firstJSONObject returns the first balanced {...} fragment, tracking string
// literals so braces inside values do not unbalance the scan.
func firstJSONObject(raw string) (string, bool) {
	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return raw[start : i+1], true
			}
		}
	}
	return "", false
}
