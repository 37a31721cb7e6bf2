package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/nanowrimo/internal/cli/ui"
	"github.com/conduit-lang/nanowrimo/pkg/nano/kind"
)

// kindError is a kind name the registry does not know, with close names
type kindError struct {
	name        string
	suggestions []string
}

func (e *kindError) Error() string {
	msg := fmt.Sprintf("unknown kind %q", e.name)
	if len(e.suggestions) > 0 {
		msg += fmt.Sprintf(" (did you mean %s?)", strings.Join(e.suggestions, ", "))
	}
	return msg
}

// resolveKind accepts plural or singular names, case-insensitively
func resolveKind(name string) (kind.Kind, error) {
	k, err := kind.Resolve(strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		return kind.Unknown, &kindError{name: name, suggestions: suggestKinds(name)}
	}
	return k, nil
}

// suggestKinds offers plural names close to name
func suggestKinds(name string) []string {
	plurals := make([]string, 0, len(kind.All()))
	for _, k := range kind.All() {
		plurals = append(plurals, k.Plural())
	}
	return ui.FindSimilar(name, plurals, nil)
}

// resolveKinds resolves a list of names, each of which may itself be a
// comma separated list
func resolveKinds(names []string) ([]kind.Kind, error) {
	var kinds []kind.Kind
	for _, n := range names {
		for _, part := range strings.Split(n, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			k, err := resolveKind(part)
			if err != nil {
				return nil, err
			}
			kinds = append(kinds, k)
		}
	}
	return kinds, nil
}

func newKindsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "kinds",
		Short:       "List the resource kinds the client knows",
		Annotations: map[string]string{skipSetup: "true"},
		Args:        cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			table := ui.NewTable(cmd.OutOrStdout(), []string{"KIND", "SINGULAR", "LINK"}, &ui.TableOptions{NoColor: a.noColor})
			for _, k := range kind.All() {
				link := ""
				if k.IsLink() {
					link = "yes"
				}
				table.AddRow(k.Plural(), k.Singular(), link)
			}
			table.Render()
		},
	}
}
