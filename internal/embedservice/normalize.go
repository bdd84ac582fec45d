// Package embedservice implements the Embed Service (component D): the
// ingestion endpoint that normalizes a candidate profile into a
// SearchableProfile, short-circuits re-embedding of unchanged text,
// requests a vector from the configured embedding provider, and
// upserts it into the vector store; plus the query-embedding endpoint
// the Search Orchestrator calls ahead of hybrid recall.
package embedservice

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/delimatsuo/headhunter-sub008/internal/models"
)

// BuildSearchableProfile serializes a CandidateProfile into the
// canonical text used both as embedding input and BM25 corpus
// document. Field order is fixed and skills/companies/domains/keywords
// are sorted so the output is stable regardless of upstream map or
// slice ordering.
func BuildSearchableProfile(p models.CandidateProfile) models.SearchableProfile {
	var b strings.Builder

	writeField(&b, "name", p.DisplayName)
	writeField(&b, "title", p.CurrentTitle)
	writeField(&b, "company", p.CurrentCompany)
	writeField(&b, "summary", p.Summary)
	writeField(&b, "seniority", p.SeniorityLevel)
	writeField(&b, "experience_years", strconv.FormatFloat(p.ExperienceYears, 'f', -1, 64))

	skills := make([]string, len(p.Skills))
	for i, s := range p.Skills {
		skills[i] = s.Name
	}
	sort.Strings(skills)
	writeField(&b, "skills", strings.Join(skills, ", "))

	companies := append([]string{}, p.Companies...)
	sort.Strings(companies)
	writeField(&b, "companies", strings.Join(companies, ", "))

	domains := append([]string{}, p.Domains...)
	sort.Strings(domains)
	writeField(&b, "domains", strings.Join(domains, ", "))

	keywords := append([]string{}, p.Keywords...)
	sort.Strings(keywords)
	writeField(&b, "keywords", strings.Join(keywords, ", "))

	titles := make([]string, len(p.TitleHistory))
	for i, t := range p.TitleHistory {
		titles[i] = t.Title
	}
	writeField(&b, "title_history", strings.Join(titles, " > "))

	return models.SearchableProfile{EntityID: p.Identifier, Text: b.String()}
}

func writeField(b *strings.Builder, name, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "%s: %s\n", name, value)
}

// TextHash computes the stable content hash used to decide whether a
// profile needs re-embedding.
func TextHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
