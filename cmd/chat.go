package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Beastly713/quorum/pkg/disclosure"
	"github.com/Beastly713/quorum/pkg/storage"
)

var (
	chatAs   string
	chatName string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Group chat where messages unlock once everyone has read them",
	Long: `Every message is split into one share per participant and needs all of
them to reconstruct. Each read exposes the reader's share, so a message
stays garbled until every participant has opened it once.`,
}

var chatJoinCmd = &cobra.Command{
	Use:   "join",
	Short: "Register as a participant",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, store, err := openChat(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		name := chatName
		if name == "" {
			name = chatAs
		}
		if err := svc.Join(cmd.Context(), storage.Participant{Email: chatAs, Name: name}); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Joined as %s <%s>\n", name, chatAs)
		return nil
	},
}

var chatSendCmd = &cobra.Command{
	Use:   "send [text...]",
	Short: "Send a message to all participants",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, store, err := openChat(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		text := strings.Join(args, " ")
		msg, err := svc.Send(cmd.Context(), chatAs, text)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		printView(out, disclosure.Echo(msg, text))
		fmt.Fprintf(out, "Sent %s to %d participants\n", msg.ID, len(msg.Shares))
		return nil
	},
}

var chatReadCmd = &cobra.Command{
	Use:   "read",
	Short: "Read the message feed, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, store, err := openChat(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		views, err := svc.Feed(cmd.Context(), chatAs)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(views) == 0 {
			fmt.Fprintln(out, "No messages yet.")
			return nil
		}
		for _, v := range views {
			printView(out, v)
		}
		return nil
	},
}

func printView(w io.Writer, v *disclosure.View) {
	status := ""
	if v.Masked {
		status = fmt.Sprintf(" [locked %d/%d]", v.Available, v.Total)
	}
	fmt.Fprintf(w, "%s %s: %s%s\n", v.CreatedAt.Local().Format("2006-01-02 15:04"), v.Sender, v.Text, status)
}

func requireIdentity(cmd *cobra.Command, args []string) error {
	if strings.TrimSpace(chatAs) == "" {
		return errors.New("--as is required")
	}
	return nil
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.AddCommand(chatJoinCmd, chatSendCmd, chatReadCmd)

	chatCmd.PersistentFlags().StringVar(&chatAs, "as", "", "Your participant email")
	chatJoinCmd.Flags().StringVar(&chatName, "name", "", "Display name (default: the email)")

	for _, c := range []*cobra.Command{chatJoinCmd, chatSendCmd, chatReadCmd} {
		c.PreRunE = requireIdentity
	}
}
