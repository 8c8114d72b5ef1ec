package extract

import (
	"regexp"
	"strings"

	"github.com/tonyg-mp/pubchem/internal/model"
	"github.com/tonyg-mp/pubchem/internal/tree"
)

// classRule turns a matching fragment into a classification row.
type classRule struct {
	re    *regexp.Regexp
	build func(m []string, re *regexp.Regexp) (typ, group, name *string)
}

// fdaRules are tried in order; the first match wins. The group form must
// come first because the suffix form would otherwise never see it.
var fdaRules = []classRule{
	{
		re: regexp.MustCompile(`^(?P<group>.+?)\s+\[(?P<typ>[A-Za-z]+)\]\s*-\s*(?P<name>.+)$`),
		build: func(m []string, re *regexp.Regexp) (*string, *string, *string) {
			return group(m, re, "typ"), group(m, re, "group"), group(m, re, "name")
		},
	},
	{
		re: regexp.MustCompile(`^(?P<name>.+?)\s+\[(?P<typ>[A-Za-z]+)\]$`),
		build: func(m []string, re *regexp.Regexp) (*string, *string, *string) {
			return group(m, re, "typ"), nil, group(m, re, "name")
		},
	},
}

func group(m []string, re *regexp.Regexp, name string) *string {
	s := m[re.SubexpIndex(name)]
	return &s
}

// FDAExtractor extracts FDA pharmacologic classes
type FDAExtractor struct{}

// Name returns the extractor name
func (e *FDAExtractor) Name() string { return "fda" }

// Extract splits each flattened string on ";" and classifies every
// fragment. Fragments that match no rule are dropped.
func (e *FDAExtractor) Extract(cid model.CID, doc tree.Value) model.Records {
	var rows []model.FDAClass
	for _, s := range FlattenStrings(doc) {
		for _, part := range strings.Split(s, ";") {
			p := strings.TrimSpace(part)
			if p == "" {
				continue
			}
			if row, ok := ClassifyFDA(cid, p); ok {
				rows = append(rows, row)
			}
		}
	}
	return model.Records{FDA: rows}
}

// ClassifyFDA parses one fragment with the first matching rule.
func ClassifyFDA(cid model.CID, fragment string) (model.FDAClass, bool) {
	for _, rule := range fdaRules {
		m := rule.re.FindStringSubmatch(fragment)
		if m == nil {
			continue
		}
		typ, grp, name := rule.build(m, rule.re)
		return model.FDAClass{
			CID:        cid,
			ClassType:  typ,
			ClassGroup: grp,
			ClassName:  name,
			RawText:    fragment,
		}, true
	}
	return model.FDAClass{}, false
}
