package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/nanowrimo/pkg/nano/client"
	"github.com/conduit-lang/nanowrimo/pkg/nano/fault"
	"github.com/conduit-lang/nanowrimo/pkg/nano/model"
)

// resourceFlags are shared by the commands that read resources
type resourceFlags struct {
	includes  []string
	anonymous bool
}

func (f *resourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&f.includes, "include", "i", nil, "side-load related kinds (e.g. users,genres)")
	cmd.Flags().BoolVar(&f.anonymous, "anonymous", false, "do not log in")
	_ = cmd.RegisterFlagCompletionFunc("include", completeIncludes)
}

// resourceClient logs in unless --anonymous is set or no credentials are configured
// and none can be asked for
func (a *app) resourceClient(ctx context.Context, anonymous bool) (*client.Client, error) {
	if anonymous || (!a.cfg.HasCredentials() && a.prompt == nil) {
		return a.anonymous()
	}
	return a.authenticated(ctx)
}

func parseID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fault.Contract("parse id", "%q is not a resource id", s)
	}
	return id, nil
}

// parseFilters reads key=id pairs
func parseFilters(pairs []string) ([]client.Filter, error) {
	filters := make([]client.Filter, 0, len(pairs))
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		if !ok || key == "" {
			return nil, fault.Contract("parse filter", "filter %q is not key=id", p)
		}
		id, err := parseID(value)
		if err != nil {
			return nil, err
		}
		filters = append(filters, client.Filter{Key: key, ID: id})
	}
	return filters, nil
}

func newGetCommand(a *app) *cobra.Command {
	var flags resourceFlags

	cmd := &cobra.Command{
		Use:   "get KIND ID",
		Short: "Fetch one resource",
		Example: `  nano get users 42
  nano get project 7 --include users,genres`,
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: completeKinds(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := resolveKind(args[0])
			if err != nil {
				return err
			}
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			include, err := resolveKinds(flags.includes)
			if err != nil {
				return err
			}

			c, err := a.resourceClient(cmd.Context(), flags.anonymous)
			if err != nil {
				return err
			}
			var item *model.Item
			err = a.spin(fmt.Sprintf("Fetching %s %d", k.Plural(), id), func() error {
				item, err = c.GetIDInclude(cmd.Context(), k, id, include...)
				return err
			})
			if err != nil {
				return err
			}
			return a.renderItem(cmd.OutOrStdout(), item)
		},
	}

	flags.register(cmd)
	return cmd
}

func newListCommand(a *app) *cobra.Command {
	var flags resourceFlags
	var filterPairs []string

	cmd := &cobra.Command{
		Use:   "list KIND",
		Short: "List resources of a kind",
		Example: `  nano list genres
  nano list projects --filter user_id=42 --include challenges`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeKinds(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := resolveKind(args[0])
			if err != nil {
				return err
			}
			include, err := resolveKinds(flags.includes)
			if err != nil {
				return err
			}
			filters, err := parseFilters(filterPairs)
			if err != nil {
				return err
			}

			c, err := a.resourceClient(cmd.Context(), flags.anonymous)
			if err != nil {
				return err
			}
			var coll *model.Collection
			err = a.spin("Fetching "+k.Plural(), func() error {
				coll, err = c.GetAllIncludeFiltered(cmd.Context(), k, include, filters)
				return err
			})
			if err != nil {
				return err
			}
			return a.renderCollection(cmd.OutOrStdout(), coll)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringSliceVarP(&filterPairs, "filter", "f", nil, "only resources related to an id, as key=id (e.g. user_id=42)")
	return cmd
}

func newRelatedCommand(a *app) *cobra.Command {
	var anonymous bool

	cmd := &cobra.Command{
		Use:   "related KIND ID RELATION",
		Short: "Follow a relationship link of a resource",
		Long: `Fetch a resource, then follow the link of one of its relationships.

RELATION is a kind name such as projects or user. Plural links return a
listing, singular links a single resource.`,
		Example: `  nano related users 42 projects
  nano related projects 7 user`,
		Args:              cobra.ExactArgs(3),
		ValidArgsFunction: completeKinds(0, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := resolveKind(args[0])
			if err != nil {
				return err
			}
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			rel, err := resolveKind(args[2])
			if err != nil {
				return err
			}

			c, err := a.resourceClient(cmd.Context(), anonymous)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			item, err := c.GetID(ctx, k, id)
			if err != nil {
				return err
			}
			link, ok := item.Data.Relationships.Link(rel)
			if !ok {
				return fault.Contract("related", "%s %d has no %s relationship", k.Plural(), id, rel.Plural())
			}

			if link.Cardinality() == model.Many {
				coll, err := c.GetAllRelated(ctx, link)
				if err != nil {
					return err
				}
				return a.renderCollection(cmd.OutOrStdout(), coll)
			}
			one, err := c.GetUniqueRelated(ctx, link)
			if err != nil {
				return err
			}
			return a.renderItem(cmd.OutOrStdout(), one)
		},
	}

	cmd.Flags().BoolVar(&anonymous, "anonymous", false, "do not log in")
	return cmd
}
