package skills

import (
	"regexp"
	"sort"
	"strings"
	"sync"
)

// DomainOther is the fallback label when no domain keyword matches.
const DomainOther = "Other"

// categoryKeywords maps each profile skill domain to the keywords that
// signal it. Matching is word-bounded so short keywords like "hr" never
// match inside unrelated words.
var categoryKeywords = map[string][]string{
	"Testing": {
		"testing", "tester", "qa", "quality assurance", "manual testing",
		"automation", "automation testing", "selenium", "appium", "pytest",
		"jmeter", "testng", "uat", "quality engineer",
	},
	"Data Engineering": {
		"data engineer", "data engineering", "etl", "elt", "data pipeline",
		"apache spark", "spark", "hadoop", "airflow", "kafka", "databricks",
		"snowflake", "big data",
	},
	"Data Science": {
		"data scientist", "data science", "machine learning", "ml engineer",
		"ai engineer", "artificial intelligence", "deep learning", "nlp",
		"computer vision", "tensorflow", "pytorch",
	},
	"Analytics": {
		"analytics", "business analyst", "data analyst", "power bi",
		"tableau", "qlik", "excel", "bi developer",
	},
	"DevOps": {
		"devops", "ci/cd", "cicd", "jenkins", "docker", "kubernetes", "helm",
		"ansible", "terraform", "infrastructure as code",
	},
	"Cloud": {
		"cloud", "aws", "amazon web services", "azure", "gcp", "google cloud",
		"cloud architect", "cloud engineer", "cloud practitioner",
	},
	"Backend": {
		"backend", "server-side", "python", "django", "flask", "fastapi",
		"java", "spring", "node.js", "nodejs", "express", "golang", "php",
		"laravel", "ruby", "rails", ".net", "c#",
	},
	"Frontend": {
		"frontend", "client-side", "react", "angular", "vue", "javascript",
		"typescript", "html", "css", "next.js", "nextjs", "svelte",
	},
	"Mobile": {
		"mobile", "android", "ios", "react native", "flutter", "xamarin",
		"kotlin", "swift",
	},
	"Database": {
		"database", "sql", "mysql", "postgres", "postgresql", "oracle",
		"mongodb", "nosql", "db2", "sql server", "pl/sql",
	},
	"Security": {
		"security", "cybersecurity", "cyber security", "penetration testing",
		"pentest", "vulnerability", "soc", "siem", "information security",
	},
	"Management": {
		"project manager", "project management", "program manager",
		"product manager", "scrum master", "pmp", "agile", "delivery manager",
	},
	"HR": {
		"hr", "human resources", "human resource", "recruitment", "recruiter",
		"talent acquisition", "employee relations", "payroll", "compensation",
		"benefits", "hr manager", "hr executive",
	},
	"UI/UX": {
		"ui design", "ux design", "user experience", "user interface",
		"figma", "adobe xd", "sketch", "wireframe", "prototype",
	},
	"ERP": {
		"sap", "oracle erp", "oracle ebs", "erp", "sap hana", "sap basis",
		"sap fico",
	},
	"Networking": {
		"network", "networking", "router", "switch", "ccna", "ccnp",
		"firewall", "lan", "wan",
	},
}

// queryDomainKeywords maps query-level domains to quick-check keywords,
// used before falling back to embedding-based detection.
var queryDomainKeywords = map[string][]string{
	"data engineering":        {"data engineer", "etl", "hadoop", "spark", "airflow", "data pipeline", "big data"},
	"cloud computing":         {"cloud", "aws", "azure", "gcp", "cloud architect", "cloud infrastructure"},
	"web development":         {"web developer", "react", "javascript", "node.js", "frontend", "backend"},
	"devops":                  {"devops", "ci/cd", "jenkins", "kubernetes", "docker", "terraform"},
	"ai machine learning":     {"ai engineer", "machine learning", "ml", "deep learning", "nlp", "tensorflow"},
	"enterprise software":     {"sap", "hana", "erp", "enterprise"},
	"mobile development":      {"mobile", "ios", "android", "react native", "flutter"},
	"cybersecurity":           {"cybersecurity", "security", "penetration testing", "ethical hacking"},
	"database administration": {"dba", "database", "sql", "oracle", "mysql", "postgresql"},
	"system administration":   {"system admin", "sysadmin", "linux", "windows server", "networking"},
}

var (
	keywordPatternsOnce sync.Once
	keywordPatterns     map[string][]*regexp.Regexp
	queryPatterns       map[string][]*regexp.Regexp
)

func compileTable(table map[string][]string) map[string][]*regexp.Regexp {
	compiled := make(map[string][]*regexp.Regexp, len(table))
	for domain, keywords := range table {
		patterns := make([]*regexp.Regexp, 0, len(keywords))
		for _, kw := range keywords {
			patterns = append(patterns, regexp.MustCompile(keywordPattern(kw)))
		}
		compiled[domain] = patterns
	}
	return compiled
}

// keywordPattern builds a word-bounded pattern for a keyword. \b only works
// against word-character edges, so keywords ending or starting with symbols
// ("c#", ".net") get explicit non-word boundaries instead.
func keywordPattern(kw string) string {
	prefix := `\b`
	if !isWordByte(kw[0]) {
		prefix = `(?:^|[^\w])`
	}
	suffix := `\b`
	if !isWordByte(kw[len(kw)-1]) {
		suffix = `(?:[^\w]|$)`
	}
	return prefix + regexp.QuoteMeta(kw) + suffix
}

func isWordByte(b byte) bool {
	return b == '_' ||
		('a' <= b && b <= 'z') ||
		('A' <= b && b <= 'Z') ||
		('0' <= b && b <= '9')
}

func compiledKeywordPatterns() map[string][]*regexp.Regexp {
	keywordPatternsOnce.Do(func() {
		keywordPatterns = compileTable(categoryKeywords)
		queryPatterns = compileTable(queryDomainKeywords)
	})
	return keywordPatterns
}

// InferDomains derives high-level skill domains from a profile's skills and
// raw text. Returns a sorted list of domain labels; [Other] when nothing
// matches or there is no text to classify.
func InferDomains(skills []string, rawText string) []string {
	var parts []string
	for _, s := range skills {
		if s != "" {
			parts = append(parts, s)
		}
	}
	if rawText != "" {
		parts = append(parts, rawText)
	}
	text := strings.ToLower(strings.Join(parts, " "))
	if strings.TrimSpace(text) == "" {
		return []string{DomainOther}
	}

	var domains []string
	for domain, patterns := range compiledKeywordPatterns() {
		for _, p := range patterns {
			if p.MatchString(text) {
				domains = append(domains, domain)
				break
			}
		}
	}
	if len(domains) == 0 {
		return []string{DomainOther}
	}
	sort.Strings(domains)
	return domains
}

// matchQueryDomain returns the query-level domain whose keywords occur in
// the text, or empty when none do. Matching is word-bounded so "ml" never
// matches inside "html".
func matchQueryDomain(text string) string {
	compiledKeywordPatterns()
	text = strings.ToLower(text)

	for _, domain := range queryDomainNames() {
		for _, p := range queryPatterns[domain] {
			if p.MatchString(text) {
				return domain
			}
		}
	}
	return ""
}

// queryDomainNames returns every query-level domain in sorted order.
func queryDomainNames() []string {
	domains := make([]string, 0, len(queryDomainKeywords))
	for d := range queryDomainKeywords {
		domains = append(domains, d)
	}
	sort.Strings(domains)
	return domains
}
