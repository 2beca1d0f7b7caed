// Package gitinfo reads repository metadata stamped into published packages.
package gitinfo

import (
	"github.com/go-git/go-git/v5"
)

// HeadHash returns the repository HEAD commit hash for the repo containing
// dir, walking up to find .git. A missing or unreadable repository returns
// "": publishing from an unversioned tree is fine, the manifest just omits
// gitHead.
func HeadHash(dir string) string {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return ""
	}
	head, err := repo.Head()
	if err != nil {
		return ""
	}
	return head.Hash().String()
}
