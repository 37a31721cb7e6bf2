package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/nanowrimo/internal/cli/ui"
	"github.com/conduit-lang/nanowrimo/pkg/nano/model"
)

func newFundometerCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "fundometer",
		Short: "Show the state of the donation drive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.anonymous()
			if err != nil {
				return err
			}
			f, err := c.Fundometer(cmd.Context())
			if err != nil {
				return err
			}
			if a.jsonOut {
				return writeJSON(cmd.OutOrStdout(), f)
			}

			table := ui.NewKeyValueTable(cmd.OutOrStdout(), a.noColor)
			table.AddRow("goal", strconv.FormatUint(f.Goal, 10))
			table.AddRow("raised", strconv.FormatFloat(float64(f.Raised), 'f', 2, 64))
			table.AddRow("donors", strconv.FormatUint(f.DonorCount, 10))
			if f.Goal > 0 {
				table.AddRow("progress", fmt.Sprintf("%.1f%%", 100*float64(f.Raised)/float64(f.Goal)))
			}
			table.Render()
			return nil
		},
	}
}

func newSearchCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "search NAME",
		Short: "Find users by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.authenticated(cmd.Context())
			if err != nil {
				return err
			}
			users, err := c.Search(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.renderCollection(cmd.OutOrStdout(), users)
		},
	}
}

func newNotificationsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "notifications",
		Short: "List your notifications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.authenticated(cmd.Context())
			if err != nil {
				return err
			}
			notes, err := c.Notifications(cmd.Context())
			if err != nil {
				return err
			}
			return a.renderCollection(cmd.OutOrStdout(), notes)
		},
	}
}

func newChallengesCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "challenges",
		Short: "List the challenges you can join",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.authenticated(cmd.Context())
			if err != nil {
				return err
			}
			coll, err := c.AvailableChallenges(cmd.Context())
			if err != nil {
				return err
			}
			if a.jsonOut {
				return writeJSON(cmd.OutOrStdout(), coll)
			}

			table := ui.NewTable(cmd.OutOrStdout(), []string{"ID", "NAME", "EVENT", "STARTS", "ENDS"}, &ui.TableOptions{NoColor: a.noColor})
			for i := range coll.Data {
				ch, err := model.AttributesAs[*model.ChallengeAttributes](&coll.Data[i])
				if err != nil {
					return err
				}
				table.AddRow(strconv.FormatUint(coll.Data[i].ID, 10), ch.Name, ch.EventType.String(),
					ch.StartsAt.String(), ch.EndsAt.String())
			}
			table.Render()
			return nil
		},
	}
}

func newStoreCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "store",
		Short: "List the merchandise store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.anonymous()
			if err != nil {
				return err
			}
			items, err := c.StoreItems(cmd.Context())
			if err != nil {
				return err
			}
			if a.jsonOut {
				return writeJSON(cmd.OutOrStdout(), items)
			}

			table := ui.NewTable(cmd.OutOrStdout(), []string{"HANDLE", "TITLE", "IMAGE"}, &ui.TableOptions{NoColor: a.noColor})
			for _, it := range items {
				table.AddRow(it.Handle, it.Title, string(it.Image))
			}
			table.Render()
			return nil
		},
	}
}

func newOffersCommand(a *app) *cobra.Command {
	var random bool

	cmd := &cobra.Command{
		Use:   "offers",
		Short: "List sponsor offers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.anonymous()
			if err != nil {
				return err
			}
			if random {
				offer, err := c.RandomOffer(cmd.Context())
				if err != nil {
					return err
				}
				return a.renderItem(cmd.OutOrStdout(), offer)
			}

			offers, err := c.Offers(cmd.Context())
			if err != nil {
				return err
			}
			coll := &model.Collection{Data: make([]model.Resource, 0, len(offers))}
			for _, o := range offers {
				coll.Data = append(coll.Data, o.Data)
			}
			return a.renderCollection(cmd.OutOrStdout(), coll)
		},
	}

	cmd.Flags().BoolVar(&random, "random", false, "show one random offer")
	return cmd
}

func newPageCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "page SLUG",
		Short:   "Show a content page",
		Example: "  nano page pep-talks",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.anonymous()
			if err != nil {
				return err
			}
			page, err := c.Page(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := a.renderItem(cmd.OutOrStdout(), page); err != nil {
				return err
			}
			if a.jsonOut || page.PostInfo == nil {
				return nil
			}

			out := cmd.OutOrStdout()
			for _, group := range []struct {
				title string
				posts []model.Item
			}{
				{"Before", page.PostInfo.BeforePosts},
				{"After", page.PostInfo.AfterPosts},
			} {
				if len(group.posts) == 0 {
					continue
				}
				fmt.Fprintln(out)
				ui.Header(out, group.title, a.noColor)
				for i := range group.posts {
					fmt.Fprintf(out, "%d  %s\n", group.posts[i].Data.ID, summarize(&group.posts[i].Data))
				}
			}
			return nil
		},
	}
}
