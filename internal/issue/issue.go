// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"
)

type (
	// Id identifies an entry in the issue catalog.
	Id int

	// MarkdownMsg is the Markdown body of an issue.
	MarkdownMsg string

	// HttpLink is a documentation or external reference URL.
	HttpLink string

	// Issue is a catalogued failure class with remediation guidance.
	Issue struct {
		id       Id
		mdMsg    MarkdownMsg
		docLinks []HttpLink
		extLinks []HttpLink
	}
)

const (
	UntrustedDownloadId Id = iota + 1
	DownloadFailedId
	InstallerLaunchFailedId
	ToolNotInstalledId
	RegistryUnreachableId
	ReleaseCheckFailedId
	ConfigLoadFailedId
	PermissionDeniedId
)

const releasesLink HttpLink = "https://github.com/farion1231/cc-switch/releases"

//nolint:gochecknoglobals // Test seam for the Markdown renderer.
var render = glamour.Render

var (
	untrustedDownloadIssue = &Issue{
		id: UntrustedDownloadId,
		mdMsg: `
# Download refused

The update link does not point at a trusted download host, so nothing was
downloaded.

## Things you can try:
- Copy the link again from the official release announcement
- Check that the link starts with ` + "`https://`" + `
- If your organization mirrors updates, add the mirror's domain suffix:
~~~cue
download: trusted_hosts: [".cjjd19.com", ".123pan.com", ".123865.com", ".mirror.example.com"]
~~~`,
		extLinks: []HttpLink{releasesLink},
	}

	downloadFailedIssue = &Issue{
		id: DownloadFailedId,
		mdMsg: `
# Download failed

The update package could not be saved. Any partial file was removed.

## Things you can try:
- Check your network connection and retry
- Make sure the temporary directory has free space
- Download the package manually from the release page`,
		extLinks: []HttpLink{releasesLink},
	}

	installerLaunchFailedIssue = &Issue{
		id: InstallerLaunchFailedId,
		mdMsg: `
# Installer could not be started

The package was downloaded, but launching it failed.

## Things you can try:
- Open the saved file manually from your file manager
- On Windows, run the MSI directly:
~~~
> msiexec /i <path-to-package.msi>
~~~
- On Linux, make an AppImage executable before running it:
~~~
$ chmod +x <path-to-package.AppImage>
~~~`,
	}

	toolNotInstalledIssue = &Issue{
		id: ToolNotInstalledId,
		mdMsg: `
# Tool not found

A command-line tool could not be located or did not report a version.

## Where we look:
1. Your PATH
2. ~/.npm-global/bin, ~/.local/bin, ~/n/bin
3. /opt/homebrew/bin, /usr/local/bin (macOS) or /usr/local/bin, /usr/bin (Linux)
4. %APPDATA%\npm, C:\Program Files\nodejs (Windows)
5. Every ~/.nvm/versions/node/*/bin, newest first

## Things you can try:
- Install the tool globally with npm:
~~~
$ npm install -g @anthropic-ai/claude-code
~~~
- Check that ` + "`<tool> --version`" + ` works in a fresh terminal`,
	}

	registryUnreachableIssue = &Issue{
		id: RegistryUnreachableId,
		mdMsg: `
# Latest versions unavailable

The package registry could not be reached, so update information is missing.
Installed versions are still reported.

## Things you can try:
- Check your network or proxy settings
- Point the registry at a mirror:
~~~cue
registry: base_url: "https://registry.npmmirror.com"
~~~`,
	}

	releaseCheckFailedIssue = &Issue{
		id: ReleaseCheckFailedId,
		mdMsg: `
# Update check failed

The latest release could not be retrieved from GitHub.

## Things you can try:
- Wait a while if the API rate limit was exceeded
- Set a token in the GITHUB_TOKEN environment variable
- Visit the release page directly`,
		extLinks: []HttpLink{releasesLink},
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Configuration could not be loaded

The configuration file is not valid CUE or does not match the schema.

## Things you can try:
- Show the effective configuration:
~~~
$ toolkeeper config show
~~~
- Recreate a default file:
~~~
$ toolkeeper config init --force
~~~`,
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Permission denied

A file or directory could not be written.

## Things you can try:
- Check the permissions of the temporary directory
- Change the download directory name with ` + "`download.dir_name`",
	}

	issues = map[Id]*Issue{
		untrustedDownloadIssue.Id():     untrustedDownloadIssue,
		downloadFailedIssue.Id():        downloadFailedIssue,
		installerLaunchFailedIssue.Id(): installerLaunchFailedIssue,
		toolNotInstalledIssue.Id():      toolNotInstalledIssue,
		registryUnreachableIssue.Id():   registryUnreachableIssue,
		releaseCheckFailedIssue.Id():    releaseCheckFailedIssue,
		configLoadFailedIssue.Id():      configLoadFailedIssue,
		permissionDeniedIssue.Id():      permissionDeniedIssue,
	}
)

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

// Render returns the issue as styled terminal output. stylePath is a glamour
// style name ("dark", "light", "notty") or a path to a JSON style file.
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		md.WriteString("\n\n## See also:\n")
		for _, link := range slices.Concat(i.docLinks, i.extLinks) {
			md.WriteString("- " + string(link) + "\n")
		}
	}
	return render(md.String(), stylePath)
}

// Values returns every catalogued issue ordered by Id.
func Values() []*Issue {
	return slices.SortedFunc(maps.Values(issues), func(a, b *Issue) int {
		return cmp.Compare(a.id, b.id)
	})
}

// Get returns the issue for id, or nil if none is registered.
func Get(id Id) *Issue {
	return issues[id]
}
