// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
)

const (
	SpackNotFoundId Id = iota + 1
	SpackRootNotSetId
	SpackRootNotFoundId
	InvalidEnvNameId
	DescriptorNotFoundId
	DescriptorParseErrorId
	CommandFailedId
	ConfigLoadFailedId
	ShellNotFoundId
)

type (
	// Id identifies an entry of the issue catalog.
	Id int

	// MarkdownMsg is Markdown text rendered for the terminal.
	MarkdownMsg string

	// HttpLink is a documentation URL shown below an issue.
	HttpLink string

	// Issue is a catalog entry with longer guidance for a common failure.
	Issue struct {
		id       Id
		mdMsg    MarkdownMsg
		docLinks []HttpLink
	}
)

var (
	render = glamour.Render

	spackDocs = HttpLink("https://spack.readthedocs.io/en/latest/environments.html")

	spackNotFoundIssue = &Issue{
		id: SpackNotFoundId,
		mdMsg: `
# Spack was not found!

The ` + "`spack`" + ` executable is neither on your PATH nor in ` + "`$SPACK_ROOT/bin`" + `.

## Things you can try:
- Load Spack's shell integration:
~~~
$ . $SPACK_ROOT/share/spack/setup-env.sh
~~~
- Point spackenv at the executable:
~~~
$ spackenv --sdm-spack-executable /path/to/spack check myenv
~~~`,
		docLinks: []HttpLink{"https://spack.readthedocs.io/en/latest/getting_started.html"},
	}

	spackRootNotSetIssue = &Issue{
		id: SpackRootNotSetId,
		mdMsg: `
# SPACK_ROOT is not set!

Environment descriptors live below ` + "`$SPACK_ROOT/var/spack/environments`" + `,
so the Spack installation root must be known.

## Things you can try:
- Export the variable:
~~~
$ export SPACK_ROOT=/opt/spack
~~~
- Or set ` + "`spack_root`" + ` in your config file, or pass ` + "`--sdm-spack-root`" + `.`,
		docLinks: []HttpLink{spackDocs},
	}

	spackRootNotFoundIssue = &Issue{
		id: SpackRootNotFoundId,
		mdMsg: `
# The Spack root does not exist!

The configured Spack root is not a directory.

## Things you can try:
- Check the value with ` + "`spackenv config show`" + `
- Verify the installation with ` + "`ls $SPACK_ROOT/bin/spack`",
		docLinks: []HttpLink{spackDocs},
	}

	invalidEnvNameIssue = &Issue{
		id: InvalidEnvNameId,
		mdMsg: `
# Invalid environment name!

Environment names may only contain letters, digits, ` + "`.`" + `, ` + "`_`" + ` and ` + "`-`" + `,
and must start with a letter or digit. Names are spliced into shell commands,
so anything else is rejected.`,
		docLinks: []HttpLink{spackDocs},
	}

	descriptorNotFoundIssue = &Issue{
		id: DescriptorNotFoundId,
		mdMsg: `
# Environment descriptor not found!

There is no ` + "`spack.yaml`" + ` for this environment.

## Things you can try:
- List the environments Spack knows about:
~~~
$ spack env list
~~~
- Create the environment:
~~~
$ spack env create myenv
~~~`,
		docLinks: []HttpLink{spackDocs},
	}

	descriptorParseErrorIssue = &Issue{
		id: DescriptorParseErrorId,
		mdMsg: `
# The environment descriptor is not valid YAML!

## Things you can try:
- Let Spack check it:
~~~
$ spack -e myenv config get
~~~
- Open it for editing with ` + "`spack -e myenv config edit`",
		docLinks: []HttpLink{spackDocs},
	}

	commandFailedIssue = &Issue{
		id: CommandFailedId,
		mdMsg: `
# The command failed inside the environment!

The command exited with a non-zero status. Activation failures also end up here,
since the command only runs after ` + "`spack env activate`" + ` succeeds.

## Things you can try:
- Run with ` + "`--verbose`" + ` to see the full script
- Try the activation on its own: ` + "`spackenv run myenv -- true`",
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load the configuration!

## Things you can try:
- Check the syntax of your ` + "`config.cue`" + `
- Print the file location with ` + "`spackenv config path`" + `
- Recreate it with ` + "`spackenv config init`",
	}

	shellNotFoundIssue = &Issue{
		id: ShellNotFoundId,
		mdMsg: `
# No shell found!

The native runtime needs a POSIX shell.

## Things you can try:
- Set ` + "`$SHELL`" + ` or ` + "`shell`" + ` in the config file
- Use the embedded interpreter: ` + "`spackenv run --runtime virtual ...`",
	}

	issues = map[Id]*Issue{
		spackNotFoundIssue.Id():        spackNotFoundIssue,
		spackRootNotSetIssue.Id():      spackRootNotSetIssue,
		spackRootNotFoundIssue.Id():    spackRootNotFoundIssue,
		invalidEnvNameIssue.Id():       invalidEnvNameIssue,
		descriptorNotFoundIssue.Id():   descriptorNotFoundIssue,
		descriptorParseErrorIssue.Id(): descriptorParseErrorIssue,
		commandFailedIssue.Id():        commandFailedIssue,
		configLoadFailedIssue.Id():     configLoadFailedIssue,
		shellNotFoundIssue.Id():        shellNotFoundIssue,
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

// Render renders the issue and its links with the given glamour style
// ("dark", "light", "notty", ...).
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 {
		md.WriteString("\n\n## See also:\n")
		for _, link := range i.docLinks {
			md.WriteString("- [" + string(link) + "](" + string(link) + ")\n")
		}
	}
	return render(md.String(), stylePath)
}

// Values returns every catalog entry ordered by Id.
func Values() []*Issue {
	values := maps.Values(issues)
	slices.SortFunc(values, func(a, b *Issue) int {
		return cmp.Compare(a.id, b.id)
	})
	return values
}

// Get returns the catalog entry for id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}
