package settings

import (
	"fmt"
	"strings"
)

// evaluateGate decides whether the read-only gate on owner holds against
// the bound values. An unbound referenced value counts as outside the
// trigger set.
func (s *Schema) evaluateGate(values Values, owner string, c Condition) (bool, error) {
	i, ok := s.lookup(c.Name)
	if !ok {
		return false, saveErrorf(s.filename, "The setting %q depends on the value for %q but that setting does not seem to exist! Perhaps you misspelled %q?", owner, c.Name, c.Name)
	}
	if current, bound := values[i]; bound && c.contains(current) {
		return c.Negate, nil
	}
	return !c.Negate, nil
}

// evaluateDefault walks the conditional default rules of owner in
// declaration order and returns the value of the first rule whose
// condition holds. A referenced setting resolves to its bound value,
// falling back to its own literal default; anything else stays unresolved
// and counts as outside the rule's trigger set.
func (s *Schema) evaluateDefault(values Values, owner string, rules []DefaultRule) (int64, error) {
	for _, rule := range rules {
		i, ok := s.lookup(rule.Condition.Name)
		if !ok {
			continue
		}

		current, bound := values[i]
		if !bound && s.settings[i].Default.Kind == DefaultLiteral {
			current, bound = s.settings[i].Default.Value, true
		}

		in := bound && rule.Condition.contains(current)
		if in != rule.Condition.Negate {
			return rule.Value, nil
		}
	}

	return 0, saveErrorf(s.filename, "The default for setting %q could not be determined! Perhaps you misspelled one of %s, or you forgot a value?", owner, ruleNames(rules))
}

// ruleNames renders the distinct referenced setting names of a rule list,
// quoted and joined the way the failure message expects.
func ruleNames(rules []DefaultRule) string {
	seen := make(map[string]struct{}, len(rules))
	names := make([]string, 0, len(rules))
	for _, rule := range rules {
		quoted := fmt.Sprintf("%q", rule.Condition.Name)
		if _, ok := seen[quoted]; ok {
			continue
		}
		seen[quoted] = struct{}{}
		names = append(names, quoted)
	}
	if len(names) > 2 {
		return strings.Join(names[:len(names)-1], ", ") + " or " + names[len(names)-1]
	}
	return strings.Join(names, " or ")
}

// link verifies every condition reference resolves against the schema so
// a misspelled name in a descriptor file surfaces when the file loads
// rather than when an image is saved.
func (s *Schema) link() error {
	for i := range s.settings {
		set := &s.settings[i]

		if set.ReadOnly.Kind == ReadOnlyWhen {
			if _, ok := s.lookup(set.ReadOnly.Condition.Name); !ok {
				return parseErrorf(s.filename, "The setting %q depends on the value for %q but that setting does not seem to exist! Perhaps you misspelled %q?", set.Name, set.ReadOnly.Condition.Name, set.ReadOnly.Condition.Name)
			}
		}

		for _, rule := range set.Default.Rules {
			if _, ok := s.lookup(rule.Condition.Name); !ok {
				return parseErrorf(s.filename, "The setting %q depends on the value for %q but that setting does not seem to exist! Perhaps you misspelled %q?", set.Name, rule.Condition.Name, rule.Condition.Name)
			}
		}
	}
	return nil
}
