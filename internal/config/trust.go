package config

import "strings"

// IsTrusted checks if a repository is in the trusted list.
// The trusted list can contain:
//   - Full repo references: "owner/repo"
//   - Org-level trust: "owner" (trusts all repos from that owner)
func IsTrusted(repo string, trusted []string) bool {
	if len(trusted) == 0 {
		return false
	}

	repoOwner, repoName, err := ParseRepo(repo)
	if err != nil {
		return false
	}

	for _, t := range trusted {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}

		if !strings.Contains(t, "/") {
			if strings.EqualFold(repoOwner, t) {
				return true
			}
			continue
		}

		tOwner, tRepo, err := ParseRepo(t)
		if err == nil && strings.EqualFold(tOwner, repoOwner) && strings.EqualFold(tRepo, repoName) {
			return true
		}
	}

	return false
}

// TrustWarning returns the notice printed before encoding a prompt fetched
// from a repo outside the trusted list.
func TrustWarning(repo string) string {
	return `Encoding a prompt from an untrusted source: ` + repo + `

    Review it before using the result: https://github.com/` + repo + `

    To trust this source, add it to your config:
      trusted:
        - ` + repo + `
`
}
