package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coldvault/core/pkg/ids"
	"github.com/coldvault/core/pkg/transport/httpapi"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users known to the index",
}

var userByteLimit uint64

var userAddCmd = &cobra.Command{
	Use:   "add <user-id>",
	Short: "Register a user with the index and set its byte allowance",
	Args:  cobra.ExactArgs(1),
	RunE:  runUserAdd,
}

func init() {
	userAddCmd.Flags().Uint64Var(&userByteLimit, "byte-limit", 0, "byte allowance for this user")
	userCmd.AddCommand(userAddCmd)
}

func runUserAdd(cmd *cobra.Command, args []string) error {
	user, err := ids.ParseUserId(args[0])
	if err != nil {
		return fmt.Errorf("invalid user id: %w", err)
	}

	req := httpapi.AddUserRequest{User: user, ByteLimit: userByteLimit}
	if err := apiCall(context.Background(), "POST", indexURL, "/api/v1/users", req, nil); err != nil {
		return fmt.Errorf("add user: %w", err)
	}

	fmt.Printf("user %s registered with a %d byte allowance\n", user, userByteLimit)
	return nil
}
