// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"
)

type Id int

const (
	MissingRefId Id = iota + 1
	FetchFailedId
	RateLimitedId
	ManifestWriteFailedId
	RegistryUnavailableId
	ConfigLoadFailedId
	PermissionDeniedId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink  // project documentation for this failure
	extLinks []HttpLink  // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render renders the guidance with the glamour style at stylePath
// ("dark", "light", "notty", or a JSON style file).
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if links := append(i.DocLinks(), i.ExtLinks()...); len(links) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range links {
			md.WriteString("- <" + string(link) + ">\n")
		}
	}
	return render(md.String(), stylePath)
}

var (
	render = glamour.Render

	missingRefIssue = &Issue{
		id: MissingRefId,
		mdMsg: `
# No version to install!

The installer needs a ref (a version, tag, branch or commit) and found none.
It never guesses one.

## Things you can try:
- Pass the ref as the first argument:
~~~
$ dogfood install 2.3.0
~~~

- Or set it in the environment:
~~~
$ VENDOR_REF=2.3.0 dogfood install
~~~`,
		docLinks: []HttpLink{"https://github.com/mangimangi/git-dogfood#installing"},
	}

	fetchFailedIssue = &Issue{
		id: FetchFailedId,
		mdMsg: `
# Could not download an artifact!

A file could not be retrieved from the source repository at the requested ref.

## Common causes:
- The ref does not exist (check the tag spelling; "2.3.0" is fetched as "v2.3.0")
- The source repository is private and no token is set
- The network or GitHub is unavailable

## Things you can try:
- Verify the tag exists in the source repository
- Export a token so the authenticated API is used:
~~~
$ export GH_TOKEN=...
~~~`,
		extLinks: []HttpLink{"https://docs.github.com/en/rest/repos/contents"},
	}

	rateLimitedIssue = &Issue{
		id: RateLimitedId,
		mdMsg: `
# GitHub rate limit reached!

The API refused the request because the rate limit for this token or address
is exhausted.

## Things you can try:
- Wait for the limit to reset and retry
- Use a token with a higher limit (GH_TOKEN or GITHUB_TOKEN)`,
		extLinks: []HttpLink{"https://docs.github.com/en/rest/using-the-rest-api/rate-limits-for-the-rest-api"},
	}

	manifestWriteFailedIssue = &Issue{
		id: ManifestWriteFailedId,
		mdMsg: `
# Could not write the manifest!

All artifacts were installed but the list of written files could not be saved.
The previous manifest, if any, is unchanged.

## Things you can try:
- Check that VENDOR_MANIFEST points to a writable file path, not a directory
- Check the permissions of its parent directory`,
	}

	registryUnavailableIssue = &Issue{
		id: RegistryUnavailableId,
		mdMsg: `
# Vendor registry unavailable

The vendor registry could not be read, so no vendor was resolved. This is not
an error: the self-update simply does nothing.

## Things you can try:
- Make sure .vendored/config.json exists and is valid JSON
- Register this tool under the "git-dogfood" key:
~~~json
{"vendors": {"git-dogfood": {"repo": "mangimangi/git-dogfood"}}}
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

The settings file could not be parsed or does not match the expected schema.

## Things you can try:
- Check the CUE syntax of the file passed with --config or .dogfood/config.cue
- Remove unknown keys; accepted keys are log, http, github, registry and install:
~~~cue
log: level: "debug"
http: timeout: "10s"
install: concurrency: 2
~~~`,
		extLinks: []HttpLink{"https://cuelang.org/docs/"},
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Permission denied!

The installer could not create or replace a file in the repository.

## Things you can try:
- Check the permissions of the install directory and .github/workflows
- Run the installer from the repository root you own`,
	}

	issues = map[Id]*Issue{
		missingRefIssue.Id():          missingRefIssue,
		fetchFailedIssue.Id():         fetchFailedIssue,
		rateLimitedIssue.Id():         rateLimitedIssue,
		manifestWriteFailedIssue.Id(): manifestWriteFailedIssue,
		registryUnavailableIssue.Id(): registryUnavailableIssue,
		configLoadFailedIssue.Id():    configLoadFailedIssue,
		permissionDeniedIssue.Id():    permissionDeniedIssue,
	}
)

// Values returns every catalog entry ordered by Id.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, id := range slices.Sorted(maps.Keys(issues)) {
		out = append(out, issues[id])
	}
	return out
}

func Get(id Id) *Issue {
	return issues[id]
}
