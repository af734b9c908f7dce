package path_sanitizer

import "regexp"

// traversalPatterns cover the encodings scanners use to smuggle "../"
// past naive prefix checks. They run against both the raw and the decoded
// path.
var traversalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\.\./`),
	regexp.MustCompile(`\.\.\\`),
	regexp.MustCompile(`(?i)%2e%2e`),
	regexp.MustCompile(`(?i)%252e`),
	regexp.MustCompile(`\.{4,}//?`),
}

// commandInjectionPatterns catch shell command material in the path:
// metacharacters and separators, shell binaries, escape-sequence smuggling
// and destructive file verbs. None of these appear in a legitimate portal
// path.
var commandInjectionPatterns = []*regexp.Regexp{
	regexp.MustCompile("[;&|`]|\\$[({]"),
	regexp.MustCompile(`(?i)/(bin/)?(sh|bash|zsh|dash|ksh|csh)(/|$)`),
	regexp.MustCompile(`(?i)\b(rm|del|format|mkfs|shutdown|reboot)\b`),
	regexp.MustCompile(`(?i)\\x[0-9a-f]{2}`),
	regexp.MustCompile(`(?i)\\u[0-9a-f]{4}`),
}

// stallFragments mark secret-material and dump lookups that no legitimate
// client ever issues. Matched as substrings of the lower-cased path so
// "/old/backup/db.sql" trips them at any depth. They are answered slowly
// and blandly so scanners waste their time budget here.
var stallFragments = []string{
	"/.env",
	"/.git",
	"/.aws",
	"/.ssh",
	"/admin/secret",
	"/backup",
	"/database",
	"/private",
	"/config",
	"/logs",
	"/db",
	"/dump",
	"/secret",
}
