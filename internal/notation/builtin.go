package notation

// builtinAbbreviations is the process-wide default table.
// Every token is unique so that decoding is unambiguous.
var builtinAbbreviations = []Abbreviation{
	{"module", "mod"},
	{"modules", "mods"},
	{"plugin", "plg"},
	{"plugins", "plgs"},
	{"maintained", "mnt"},
	{"maintainability", "mntb"},
	{"abandoned", "abd"},
	{"dependency", "dep"},
	{"dependencies", "deps"},
	{"dependency injection", "di"},
	{"configuration", "cfg"},
	{"configurations", "cfgs"},
	{"security", "sec"},
	{"performance", "perf"},
	{"stability", "stab"},
	{"documentation", "doc"},
	{"authentication", "auth"},
	{"authorization", "authz"},
	{"permission", "perm"},
	{"permissions", "perms"},
	{"repository", "repo"},
	{"repositories", "repos"},
	{"template", "tpl"},
	{"templates", "tpls"},
	{"environment", "env"},
	{"environments", "envs"},
	{"implementation", "impl"},
	{"version", "ver"},
	{"versions", "vers"},
	{"update", "upd"},
	{"updates", "upds"},
	{"breaking", "brk"},
	{"compatibility", "compat"},
	{"developer experience", "dx"},
	{"continuous integration", "ci"},
	{"pull request", "pr"},
	{"pull requests", "prs"},
	{"function", "fn"},
	{"functions", "fns"},
	{"class", "cls"},
	{"classes", "clss"},
	{"service", "svc"},
	{"services", "svcs"},
	{"cache", "cch"},
	{"context", "ctx"},
	{"required", "req"},
	{"requirement", "rqmt"},
	{"requirements", "rqmts"},
	{"request", "rqst"},
	{"requests", "rqsts"},
	{"response", "resp"},
	{"responses", "resps"},
	{"validation", "val"},
	{"sanitization", "san"},
	{"escaping", "esc"},
	{"check", "chk"},
	{"checks", "chks"},
	{"WordPress", "wp"},
	{"Drupal", "dp"},
	{"deprecated", "depr"},
	{"application", "app"},
	{"applications", "apps"},
	{"database", "db"},
	{"databases", "dbs"},
	{"directory", "dir"},
	{"directories", "dirs"},
	{"parameter", "param"},
	{"parameters", "params"},
	{"argument", "arg"},
	{"arguments", "args"},
	{"middleware", "mw"},
	{"controller", "ctrl"},
	{"controllers", "ctrls"},
	{"component", "comp"},
	{"components", "comps"},
	{"description", "desc"},
	{"specification", "spec"},
	{"infrastructure", "infra"},
	{"production", "prod"},
	{"development", "dev"},
	{"default", "def"},
	{"maximum", "max"},
	{"minimum", "min"},
	{"information", "info"},
	{"available", "avail"},
	{"backwards", "bkwd"},
	{"variable", "var"},
	{"variables", "vars"},
	{"message", "msg"},
	{"messages", "msgs"},
	{"error", "err"},
	{"errors", "errs"},
	{"command", "cmd"},
	{"commands", "cmds"},
	{"reference", "ref"},
	{"references", "refs"},
	{"language", "lang"},
}

// everydayTokens are built-in tokens that also read as ordinary words with
// another meaning: "5 min", "a sec", Python's def.
var everydayTokens = map[string]bool{
	"min": true, "sec": true, "def": true, "dev": true, "var": true,
	"esc": true, "desc": true, "ref": true, "val": true, "comp": true,
}

// IsEverydayToken reports whether word, written as is in source text, would
// decode to a built-in term it probably does not mean.
func IsEverydayToken(word string) bool {
	return everydayTokens[word]
}

var builtin = NewTable(builtinAbbreviations)

// Builtin returns the shared default abbreviation table.
func Builtin() *Table {
	return builtin
}
