package rules

import (
	"fmt"
	"strings"
	"time"
)

// Registry is the explicit, import-time-side-effect-free replacement for
// the original's decorator-based rule registration: every rule this
// process knows about is built once, here, from a static list.
type Registry struct {
	baseURL string
	rules   map[string]Rule
	probe   string
}

// NewRegistry builds the standard six-rule set against baseURL (the
// document server's root, e.g. "https://www.europarl.europa.eu/doceo/document").
// The canonical session-probe rule the SessionDayProbe uses is always
// "protocol_en_pdf".
func NewRegistry(baseURL string) *Registry {
	r := &Registry{baseURL: baseURL, rules: make(map[string]Rule), probe: "protocol_en_pdf"}

	r.add(&templateRule{
		name: "protocol_en_pdf", language: "en", format: "pdf", kind: KindProtocol,
		urlFn:     r.pvTemplate("EN", "pdf"),
		extractFn: nil, // PDF text extraction is out of scope; ExtractData returns ErrNotImplemented.
	})
	r.add(&templateRule{
		name: "wordprotocol_en_html", language: "en", format: "html", kind: KindWordProtocol,
		urlFn:     r.crTemplate("EN"),
		extractFn: extractWordProtocol,
	})
	r.add(&templateRule{
		name: "agenda_en_html", language: "en", format: "html", kind: KindAgenda,
		urlFn:     r.otTemplate("OJ", "EN"),
		extractFn: extractAgenda,
	})
	r.add(&templateRule{
		name: "daily_agenda_en_html", language: "en", format: "html", kind: KindDailyAgenda,
		urlFn:     r.otTemplate("OJQ", "EN"),
		extractFn: extractDailyAgenda,
	})
	r.add(&templateRule{
		name: "voting_overview_en_html", language: "en", format: "html", kind: KindVotingOverview,
		urlFn:     r.pvTemplate("RCV", "html"),
		extractFn: extractVotingOverview,
	})
	r.add(&templateRule{
		name: "voting_named_en_html", language: "en", format: "html", kind: KindVotingNamed,
		urlFn:     r.pvTemplate("VOT", "html"),
		extractFn: extractVotingNamed,
	})

	return r
}

func (r *Registry) add(rule Rule) {
	r.rules[rule.Name()] = rule
}

func (r *Registry) All() []Rule {
	out := make([]Rule, 0, len(r.rules))
	for _, rule := range r.rules {
		out = append(out, rule)
	}
	return out
}

func (r *Registry) Get(name string) (Rule, bool) {
	rule, ok := r.rules[name]
	return rule, ok
}

// ProbeRuleName is the rule whose URLFor computes the canonical
// session-probe URL (the one SessionDayProbe HEADs).
func (r *Registry) ProbeRuleName() string {
	return r.probe
}

// pvTemplate builds the classic "PV-<term>-<date>_<suffix>.<ext>" template
// used by plenary protocols and both voting document families.
func (r *Registry) pvTemplate(suffix, ext string) func(time.Time) string {
	return func(date time.Time) string {
		term := TermForDate(date)
		return fmt.Sprintf("%s/PV-%d-%s_%s.%s", r.baseURL, term, date.Format("2006-01-02"), suffix, ext)
	}
}

// crTemplate builds the word-for-word "CRE-<term>-<date>-<lang>.html"
// template.
func (r *Registry) crTemplate(lang string) func(time.Time) string {
	return func(date time.Time) string {
		term := TermForDate(date)
		return fmt.Sprintf("%s/CRE-%d-%s-%s.html", r.baseURL, term, date.Format("2006-01-02"), strings.ToUpper(lang))
	}
}

// otTemplate builds the agenda-family "<kind>-<term>-<date>-<lang>.html"
// template (OJ = ordre du jour, OJQ = daily variant).
func (r *Registry) otTemplate(kind, lang string) func(time.Time) string {
	return func(date time.Time) string {
		term := TermForDate(date)
		return fmt.Sprintf("%s/%s-%d-%s-%s.html", r.baseURL, kind, term, date.Format("2006-01-02"), strings.ToUpper(lang))
	}
}
