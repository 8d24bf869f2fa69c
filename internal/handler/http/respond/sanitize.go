package respond

import "regexp"

var (
	anthropicKeyPattern = regexp.MustCompile(`sk-ant-[a-zA-Z0-9-_]+`)
	apiKeyPattern       = regexp.MustCompile(`sk-[a-zA-Z0-9]{10,}`)
	dsnPasswordPattern  = regexp.MustCompile(`://([^:]+):([^@]+)@`)
)

// SanitizeError masks API keys and connection-string passwords in an error
// message before it is logged.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeString(err.Error())
}

// SanitizeString masks secrets embedded in an arbitrary string. The longer
// Anthropic prefix is matched first so the generic key pattern does not
// truncate it.
func SanitizeString(s string) string {
	s = anthropicKeyPattern.ReplaceAllString(s, "sk-ant-****")
	s = apiKeyPattern.ReplaceAllString(s, "sk-****")
	s = dsnPasswordPattern.ReplaceAllString(s, "://$1:****@")
	return s
}
