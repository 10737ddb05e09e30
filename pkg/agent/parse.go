package agent

import (
	"regexp"
	"strings"
)

var pythonBlockPattern = regexp.MustCompile("(?s)```python\\s*(.*?)\\s*```")

// splitCodeResponse extracts the fenced Python block and the surrounding
// explanation from a raw model response.
//
// Fallback order, kept deliberately:
//  1. first ```python block is the code; the explanation is everything
//     after the block,
//  2. if nothing follows the block, the explanation is everything before it,
//  3. no fenced block at all: the whole response is the code and the
//     explanation is empty.
func splitCodeResponse(response string) (code, explanation string) {
	loc := pythonBlockPattern.FindStringSubmatchIndex(response)
	if loc == nil {
		return response, ""
	}

	code = strings.TrimSpace(response[loc[2]:loc[3]])
	explanation = strings.TrimSpace(response[loc[1]:])
	if explanation == "" {
		explanation = strings.TrimSpace(response[:loc[0]])
	}
	return code, explanation
}

// splitDebugResponse extracts the debug report and the corrected code from
// a raw model response. The report precedes the fenced block; when the
// text before the block is empty the text after it is used instead. With
// no fenced block the whole response is the report.
func splitDebugResponse(response string) (report, code string) {
	loc := pythonBlockPattern.FindStringSubmatchIndex(response)
	if loc == nil {
		return response, ""
	}

	code = strings.TrimSpace(response[loc[2]:loc[3]])
	report = strings.TrimSpace(response[:loc[0]])
	if report == "" {
		report = strings.TrimSpace(response[loc[1]:])
	}
	return report, code
}
