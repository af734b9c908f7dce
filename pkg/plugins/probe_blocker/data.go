package probe_blocker

import "regexp"

// honeypotExact and honeypotPrefixes name endpoints the portal has never
// served: CMS logins, admin panels, framework config files and the web
// shells scanners try to reach after a hypothetical upload. Matched
// against the lower-cased path; answering with a convincing fake login
// page keeps scanners busy instead of advertising what the portal runs.
var honeypotExact = map[string]struct{}{
	"/wp-login.php":             {},
	"/wp-admin/admin-ajax.php":  {},
	"/xmlrpc.php":               {},
	"/wp-config.php":            {},
	"/wp-config.php.bak":        {},
	"/wordpress/wp-login.php":   {},
	"/configuration.php":        {},
	"/config.php":               {},
	"/settings.php":             {},
	"/admin.php":                {},
	"/login.php":                {},
	"/administrator/index.php":  {},
	"/shell.php":                {},
	"/c99.php":                  {},
	"/r57.php":                  {},
	"/cmd.php":                  {},
	"/wso.php":                  {},
	"/alfa.php":                 {},
	"/up.php":                   {},
	"/setup.php":                {},
	"/install.php":              {},
	"/.htaccess":                {},
	"/.htpasswd":                {},
	"/web.config":               {},
	"/server-status":            {},
	"/actuator/env":             {},
	"/laravel/.env":             {},
	"/api/.env":                 {},
	"/vendor/phpunit/phpunit/src/util/php/eval-stdin.php": {},
}

var honeypotPrefixes = []string{
	"/wp-admin",
	"/wordpress",
	"/phpmyadmin",
	"/pma",
	"/adminer",
	"/administrator",
	"/cpanel",
	"/webadmin",
	"/mysql-admin",
}

// probePatterns match wider CMS and panel discovery sweeps. These get an
// unremarkable 404 so the scanner records a miss.
var probePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^/wp-(content|includes|json)(/|$)`),
	regexp.MustCompile(`(?i)^/(cgi-bin|fckeditor|jmx-console)(/|$)`),
	regexp.MustCompile(`(?i)\.(php|asp|aspx|jsp)$`),
}

// honeypotHTML imitates a stock WordPress login page closely enough to
// pass an automated fingerprint check.
const honeypotHTML = `<!DOCTYPE html>
<html lang="en-US">
<head>
<meta http-equiv="Content-Type" content="text/html; charset=UTF-8" />
<title>Log In &lsaquo; University Portal &#8212; WordPress</title>
<link rel="stylesheet" href="/wp-admin/css/login.min.css" media="all" />
</head>
<body class="login login-action-login wp-core-ui">
<div id="login">
<h1><a href="https://wordpress.org/">Powered by WordPress</a></h1>
<form name="loginform" id="loginform" action="/wp-login.php" method="post">
<p><label for="user_login">Username or Email Address</label>
<input type="text" name="log" id="user_login" class="input" size="20" /></p>
<p><label for="user_pass">Password</label>
<input type="password" name="pwd" id="user_pass" class="input" size="20" /></p>
<p class="submit"><input type="submit" name="wp-submit" id="wp-submit" class="button button-primary button-large" value="Log In" /></p>
</form>
</div>
</body>
</html>
`
