package rules

import "time"

// templateRule is the single concrete shape behind every RuleKind: a name,
// a URL-building closure and an extraction closure. This is the "small
// tagged variant per URL-pattern family" the registry redesign calls for —
// no class hierarchy, just data plus two functions.
type templateRule struct {
	name      string
	language  string
	format    string
	kind      RuleKind
	urlFn     func(date time.Time) string
	extractFn func(filepath string) (map[string]any, error)
}

func (r *templateRule) Name() string     { return r.name }
func (r *templateRule) Language() string { return r.language }
func (r *templateRule) Format() string   { return r.format }
func (r *templateRule) Kind() RuleKind   { return r.kind }

func (r *templateRule) URLFor(date time.Time) string {
	return r.urlFn(date)
}

func (r *templateRule) ExtractData(filepath string) (map[string]any, error) {
	if r.extractFn == nil {
		return nil, &ErrNotImplemented{RuleName: r.name}
	}
	return r.extractFn(filepath)
}
