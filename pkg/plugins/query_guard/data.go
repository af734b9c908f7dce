package query_guard

import "regexp"

// dangerousPayloadPatterns match query values that carry an actual attack
// payload: command execution, SQL injection in its keyword, boolean and
// time-based forms, script injection, sensitive file reads and directory
// climbing. A hit earns a ban and a fake outage response.
var dangerousPayloadPatterns = []*regexp.Regexp{
	// command execution
	regexp.MustCompile(`(?i)\b(whoami|uname|hostname|ifconfig|ipconfig|netstat)\b`),
	regexp.MustCompile(`(?i)\b(cat|more|less|head|tail)\s+/`),
	regexp.MustCompile(`(?i)\b(wget|curl|nc|ncat|netcat|telnet)\b`),
	regexp.MustCompile(`(?i)\brm\s+-rf\b`),
	regexp.MustCompile(`(?i)\b(eval|exec|system|passthru|shell_exec|popen|proc_open)\s*\(`),
	regexp.MustCompile(`(?i)\bbase64\s*(-d|--decode)`),
	regexp.MustCompile("[;|`]|\\$\\("),
	// sql keywords and idioms
	regexp.MustCompile(`(?i)\b(select|union|insert|update|delete|drop|truncate|alter)\b.*\b(from|into|table|where|all)\b`),
	regexp.MustCompile(`(?i)\bunion\b.*\bselect\b`),
	regexp.MustCompile(`(?i)\b(and|or)\b\s*\d+\s*=\s*\d+`),
	regexp.MustCompile(`(?i)\b(and|or)\b\s*(true|false)\b`),
	regexp.MustCompile(`(?i)\b(sleep|benchmark|pg_sleep|waitfor)\s*\(?`),
	// script injection
	regexp.MustCompile(`(?i)<\?|<script|javascript:|data:text/html|vbscript:|onload\s*=|onerror\s*=`),
	// sensitive files and traversal
	regexp.MustCompile(`(?i)/etc/(passwd|shadow|hosts|group)`),
	regexp.MustCompile(`(?i)\b(proc/self|boot\.ini|win\.ini)\b`),
	regexp.MustCompile(`\.\./`),
}

// suspiciousParamNames are parameter names the portal never uses but
// injection and open-redirect tooling tries by default. These only earn a
// throttle response, not a ban, because a curious human can type them too.
var suspiciousParamNames = map[string]struct{}{
	"cmd":        {},
	"exec":       {},
	"command":    {},
	"shell":      {},
	"run":        {},
	"debug":      {},
	"test":       {},
	"query":      {},
	"union":      {},
	"select":     {},
	"load":       {},
	"proc":       {},
	"redirect":   {},
	"return_url": {},
	"returnurl":  {},
	"next":       {},
	"goto":       {},
	"include":    {},
	"require":    {},
	"file":       {},
	"path":       {},
	"template":   {},
}
