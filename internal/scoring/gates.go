package scoring

import (
	"regexp"
	"strings"
)

var articleTitlePattern = regexp.MustCompile(`(?i)^(guide to|how to|introduction to|best practices|tutorial|checklist|cheatsheet)\b`)

// genericStopset is the fixed generic-word set Layer 0 names.
var genericStopset = map[string]struct{}{
	"message": {}, "file": {}, "info": {}, "item": {}, "list": {}, "name": {},
	"type": {}, "value": {}, "result": {}, "issue": {}, "example": {}, "option": {},
}

// Eligible applies the Layer 0 candidate gates. It returns false if c
// should never be scored for this write.
func Eligible(c Candidate, hostFolder string, alreadyLinked map[string]struct{}) bool {
	if c.Suppressed {
		return false
	}
	if c.SuppressedIn != nil {
		if _, ok := c.SuppressedIn[hostFolder]; ok {
			return false
		}
	}
	if len(c.Name) > 25 {
		return false
	}
	if wordCount(c.Name) > 3 {
		return false
	}
	if articleTitlePattern.MatchString(c.Name) {
		return false
	}
	if _, ok := alreadyLinked[c.NameLower]; ok {
		return false
	}
	if _, ok := genericStopset[strings.ToLower(c.Name)]; ok {
		return false
	}
	return true
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}
