package assessments

// Catalog returns the built-in test vectors. The entries are immutable and
// referenced by id from vulnerability records, never copied into them.
func Catalog() []TestVector {
	return []TestVector{
		{ID: "sql_injection", Name: "SQL Injection", Category: "owasp", Severity: SeverityHigh},
		{ID: "xss", Name: "Cross-Site Scripting", Category: "owasp", Severity: SeverityMedium},
		{ID: "prompt_injection", Name: "Prompt Injection", Category: "owasp", Severity: SeverityCritical},
		{ID: "insecure_output", Name: "Insecure Output Handling", Category: "owasp", Severity: SeverityHigh},
		{ID: "nist_governance", Name: "AI Governance", Category: "nist", Severity: SeverityMedium},
		{ID: "nist_transparency", Name: "Transparency", Category: "nist", Severity: SeverityMedium},
		{ID: "fairness_demographic", Name: "Demographic Parity", Category: "fairness", Severity: SeverityHigh},
		{ID: "privacy_gdpr", Name: "GDPR Compliance", Category: "privacy", Severity: SeverityCritical},
		{ID: "jailbreaking", Name: "Jailbreaking Resistance", Category: "exploit", Severity: SeverityCritical},
	}
}

// DefaultVectors is the 3-entry selection preloaded in the test
// configuration page.
func DefaultVectors() []TestVector {
	return Catalog()[:3]
}

// VectorsByID resolves catalog ids, silently skipping unknown ones.
func VectorsByID(ids []string) []TestVector {
	byID := make(map[string]TestVector)
	for _, v := range Catalog() {
		byID[v.ID] = v
	}
	out := make([]TestVector, 0, len(ids))
	for _, id := range ids {
		if v, ok := byID[id]; ok {
			out = append(out, v)
		}
	}
	return out
}
