package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/misiektoja/github-monitor/internal/format"
	"github.com/misiektoja/github-monitor/internal/gateway"
)

// oneShotTimeout bounds the one-shot listing commands.
const oneShotTimeout = 2 * time.Minute

func oneShotClient() (*gateway.GitHub, context.Context, context.CancelFunc, error) {
	if cfg.GitHub.Token == "" {
		return nil, nil, nil, fmt.Errorf("github token is required (config github.token or GITHUB_TOKEN)")
	}
	gh := gateway.New(cfg.GitHub.Token,
		gateway.WithContributionsURL(cfg.GitHub.ContributionsURL),
		gateway.WithPerPage(cfg.GitHub.PerPage))
	ctx, cancel := context.WithTimeout(context.Background(), oneShotTimeout)
	return gh, ctx, cancel, nil
}

// showCmd prints a full profile summary, fetching the collections
// concurrently.
var showCmd = &cobra.Command{
	Use:   "show [username]",
	Short: "Print a one-shot summary of the user's profile and collections",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		login := args[0]
		gh, ctx, cancel, err := oneShotClient()
		if err != nil {
			return err
		}
		defer cancel()

		var (
			profile              gateway.Profile
			followers, following []string
			repos                []gateway.Repo
			starred              []string
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) { profile, err = gh.Profile(gctx, login); return })
		g.Go(func() (err error) { followers, err = gh.Followers(gctx, login); return })
		g.Go(func() (err error) { following, err = gh.Following(gctx, login); return })
		g.Go(func() (err error) { repos, err = gh.Repos(gctx, login); return })
		g.Go(func() (err error) { starred, err = gh.Starred(gctx, login); return })
		if err := g.Wait(); err != nil {
			return err
		}

		now := time.Now()
		fmt.Printf("User: %s\n", profile.DisplayName())
		fmt.Printf("URL: %s\n", profile.HTMLURL)
		if profile.Bio != "" {
			fmt.Printf("Bio: %s\n", profile.Bio)
		}
		if profile.Location != "" {
			fmt.Printf("Location: %s\n", profile.Location)
		}
		if profile.Company != "" {
			fmt.Printf("Company: %s\n", profile.Company)
		}
		if profile.Blog != "" {
			fmt.Printf("Blog: %s\n", profile.Blog)
		}
		fmt.Printf("Followers: %d, followings: %d\n", profile.Followers, profile.Following)
		fmt.Printf("Repos: %d owned, %d starred\n", len(repos), len(starred))
		if !profile.CreatedAt.IsZero() {
			fmt.Printf("Created: %s (%s)\n",
				format.Timestamp(profile.CreatedAt), format.Ago(profile.CreatedAt, now))
		}
		if !profile.UpdatedAt.IsZero() {
			fmt.Printf("Updated: %s (%s)\n",
				format.Timestamp(profile.UpdatedAt), format.Ago(profile.UpdatedAt, now))
		}
		printList("Followers", followers)
		printList("Followings", following)
		return nil
	},
}

var followersCmd = &cobra.Command{
	Use:   "followers [username]",
	Short: "List the user's followers and exit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		gh, ctx, cancel, err := oneShotClient()
		if err != nil {
			return err
		}
		defer cancel()
		followers, err := gh.Followers(ctx, args[0])
		if err != nil {
			return err
		}
		printList(fmt.Sprintf("Followers of %s (%d)", args[0], len(followers)), followers)
		return nil
	},
}

var followingsCmd = &cobra.Command{
	Use:   "followings [username]",
	Short: "List who the user follows and exit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		gh, ctx, cancel, err := oneShotClient()
		if err != nil {
			return err
		}
		defer cancel()
		following, err := gh.Following(ctx, args[0])
		if err != nil {
			return err
		}
		printList(fmt.Sprintf("Followings of %s (%d)", args[0], len(following)), following)
		return nil
	},
}

var reposCmd = &cobra.Command{
	Use:   "repos [username]",
	Short: "List the user's repositories and exit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		gh, ctx, cancel, err := oneShotClient()
		if err != nil {
			return err
		}
		defer cancel()
		repos, err := gh.Repos(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Repositories of %s (%d):\n", args[0], len(repos))
		for _, r := range repos {
			line := fmt.Sprintf("- %s", r.Name)
			if r.Language != "" {
				line += fmt.Sprintf(" [%s]", r.Language)
			}
			line += fmt.Sprintf(" stars: %d, forks: %d, updated: %s",
				r.Stars, r.Forks, format.ShortDate(r.UpdatedAt))
			fmt.Println(line)
		}
		return nil
	},
}

var starredCmd = &cobra.Command{
	Use:   "starred [username]",
	Short: "List the repositories the user starred and exit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		gh, ctx, cancel, err := oneShotClient()
		if err != nil {
			return err
		}
		defer cancel()
		starred, err := gh.Starred(ctx, args[0])
		if err != nil {
			return err
		}
		printList(fmt.Sprintf("Starred by %s (%d)", args[0], len(starred)), starred)
		return nil
	},
}

var eventsCmd = &cobra.Command{
	Use:   "events [username]",
	Short: "List the user's recent public events and exit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		gh, ctx, cancel, err := oneShotClient()
		if err != nil {
			return err
		}
		defer cancel()
		limit, _ := cmd.Flags().GetInt("number")
		events, err := gh.Events(ctx, args[0], limit)
		if err != nil {
			return err
		}
		fmt.Printf("Recent events of %s (%d):\n", args[0], len(events))
		for _, ev := range events {
			fmt.Println()
			fmt.Println(format.EventText(ev))
		}
		return nil
	},
}

func printList(header string, items []string) {
	fmt.Printf("%s:\n", header)
	for _, it := range items {
		fmt.Printf("- %s\n", it)
	}
}

func init() {
	eventsCmd.Flags().IntP("number", "n", 10, "how many events to list")
}
