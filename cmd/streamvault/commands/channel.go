package commands

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/kovanka/streamvault/internal/model"
)

var channelCmd = &cobra.Command{
	Use:   "channel",
	Short: "Manage the channel and category registry",
}

var channelAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a channel or a category",
	RunE:  runChannelAdd,
}

var channelListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered channels",
	RunE:  runChannelList,
}

func init() {
	channelAddCmd.Flags().String("channel", "", "name of the channel to register")
	channelAddCmd.Flags().String("url", "", "stream URL of the channel")
	channelAddCmd.Flags().String("category", "", "category ID to attach the channel to")
	channelAddCmd.Flags().String("new-category", "", "name of a new category to register instead of a channel")

	channelCmd.AddCommand(channelAddCmd, channelListCmd)
}

func runChannelAdd(cmd *cobra.Command, args []string) error {
	st, _, cleanup, err := newStore(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()

	if name, _ := cmd.Flags().GetString("new-category"); name != "" {
		cat := &model.Category{ID: uuid.NewString(), Name: name, CreatedAt: time.Now().UTC()}
		if err := st.CreateCategory(ctx, cat); err != nil {
			return err
		}
		fmt.Println("category registered:", cat.ID)
		return nil
	}

	name, _ := cmd.Flags().GetString("channel")
	rawURL, _ := cmd.Flags().GetString("url")
	categoryID, _ := cmd.Flags().GetString("category")

	if len(name) < 2 {
		fmt.Fprintln(os.Stderr, "channel name must be at least 2 characters")
		return fmt.Errorf("invalid channel name %q", name)
	}
	parsed, err := url.ParseRequestURI(rawURL)
	if err != nil || parsed.Scheme == "" {
		fmt.Fprintln(os.Stderr, "channel url must be a valid absolute URL")
		return fmt.Errorf("invalid channel url %q", rawURL)
	}

	ch := model.NewChannel(uuid.NewString(), name, rawURL, categoryID)
	if err := st.CreateChannel(ctx, ch); err != nil {
		return err
	}
	fmt.Println("channel registered:", ch.ID)
	return nil
}

func runChannelList(cmd *cobra.Command, args []string) error {
	st, _, cleanup, err := newStore(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	channels, err := st.ListChannels(cmd.Context())
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Name", "URL", "Category"})
	for _, c := range channels {
		table.Append([]string{c.ID, c.Name, c.URL, c.CategoryID})
	}
	table.Render()
	return nil
}
