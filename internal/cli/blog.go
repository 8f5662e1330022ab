package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/vnykmshr/lineagekit/internal/blog"
)

// NewBlogCmd creates the command listing blog posts or printing one.
func NewBlogCmd(envFn func() (*Env, error), outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "blog [ID]",
		Short: "List blog posts, or print one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := envFn()
			if err != nil {
				return err
			}
			out := outputFn()
			src := blog.Source{
				Pages:       env.Config.Blog.Pages,
				ContentBase: env.Config.Blog.ContentBase,
			}

			if len(args) == 1 {
				post, err := blog.LoadPost(cmd.Context(), env.Fetcher, src, args[0])
				if err != nil {
					return err
				}
				if out.JSONMode() {
					return out.JSON(post)
				}
				out.Text(post.Title)
				out.Text("Written on " + post.FormattedDate() + " by " + post.Author)
				out.Text("")
				out.Text(post.Content)
				return nil
			}

			pages, err := blog.Load(cmd.Context(), env.Fetcher, src)
			if err != nil {
				return err
			}
			headers := []string{"ID", "DATE", "AUTHOR", "TITLE"}
			rows := make([][]string, len(pages))
			for i, p := range pages {
				rows[i] = []string{strconv.Itoa(p.ID), p.FormattedDate(), p.Author, p.Title}
			}
			return out.Print(headers, rows, pages)
		},
	}
}
