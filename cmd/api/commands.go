package api

import (
	"fmt"
	"strings"

	"github.com/ValentinKolb/rwKV/api/client"
	"github.com/spf13/cobra"
)

var (
	registerCmd = &cobra.Command{
		Use:   "register [username] [email] [password]",
		Short: "Registers a user in a new or the given session",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := apiClient.Register(cmd.Context(), args[0], args[1], args[2])
			if err != nil {
				return err
			}
			printUser(user)
			return nil
		},
	}
	loginCmd = &cobra.Command{
		Use:   "login [email] [password]",
		Short: "Logs in and prints a new token",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := apiClient.Login(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			printUser(user)
			return nil
		},
	}
	userCmd = &cobra.Command{
		Use:   "user",
		Short: "Prints the user of the given token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := apiClient.CurrentUser(cmd.Context())
			if err != nil {
				return err
			}
			printUser(user)
			return nil
		},
	}
	profileCmd = &cobra.Command{
		Use:   "profile [username]",
		Short: "Prints the profile of a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := apiClient.Profile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("username=%s, following=%t, bio=%q, image=%s\n", p.Username, p.Following, p.Bio, p.Image)
			return nil
		},
	}
	articlesCmd = &cobra.Command{
		Use:   "articles",
		Short: "Lists articles, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := client.ArticleFilter{}
			filter.Tag, _ = cmd.Flags().GetString("tag")
			filter.Author, _ = cmd.Flags().GetString("author")
			filter.Favorited, _ = cmd.Flags().GetString("favorited")
			filter.Limit, _ = cmd.Flags().GetInt("limit")
			filter.Offset, _ = cmd.Flags().GetInt("offset")

			list, err := apiClient.ListArticles(cmd.Context(), filter)
			if err != nil {
				return err
			}
			for _, a := range list.Articles {
				fmt.Printf("%s  %-30s by %-15s favorites=%d tags=[%s]\n",
					a.CreatedAt, a.Slug, a.Author.Username, a.FavoritesCount, strings.Join(a.TagList, ","))
			}
			fmt.Printf("%d of %d articles\n", len(list.Articles), list.ArticlesCount)
			return nil
		},
	}
	tagsCmd = &cobra.Command{
		Use:   "tags",
		Short: "Lists all tags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tags, err := apiClient.Tags(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Println(strings.Join(tags, "\n"))
			return nil
		},
	}
)

func init() {
	articlesCmd.Flags().String("tag", "", "Only articles with this tag")
	articlesCmd.Flags().String("author", "", "Only articles of this author")
	articlesCmd.Flags().String("favorited", "", "Only articles favorited by this user")
	articlesCmd.Flags().Int("limit", 20, "Page size")
	articlesCmd.Flags().Int("offset", 0, "Page offset")
}

// printUser prints a user together with the session that holds it
func printUser(user *client.User) {
	fmt.Printf("username=%s, email=%s\n", user.Username, user.Email)
	fmt.Printf("session=%s\n", apiClient.Session())
	fmt.Printf("token=%s\n", user.Token)
}
