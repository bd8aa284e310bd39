package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MaxITService/OneClickPrompts-sub000/internal/broadcastbus"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "List, switch, create, or delete queue-mode profiles",
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every stored profile name",
	RunE:  runProfileList,
}

var profileSwitchCmd = &cobra.Command{
	Use:   "switch <name>",
	Short: "Set the active profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileSwitch,
}

var profileCreateDefaultCmd = &cobra.Command{
	Use:   "create-default",
	Short: "Recreate the canonical Default profile",
	RunE:  runProfileCreateDefault,
}

var profileDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a profile (fails for Default)",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileDelete,
}

func init() {
	profileCmd.AddCommand(profileListCmd, profileSwitchCmd, profileCreateDefaultCmd, profileDeleteCmd)
	rootCmd.AddCommand(profileCmd)
}

func runProfileList(cmd *cobra.Command, args []string) error {
	store, _, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = closeStore() }()

	names, err := store.ListProfiles()
	if err != nil {
		return fmt.Errorf("list profiles: %w", err)
	}
	for _, name := range names {
		fmt.Fprintln(cmd.OutOrStdout(), name)
	}
	return nil
}

func runProfileSwitch(cmd *cobra.Command, args []string) error {
	store, _, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = closeStore() }()

	p, err := store.SwitchProfile(args[0], "", broadcastbus.OriginPanel)
	if err != nil {
		return fmt.Errorf("switch profile: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "active profile: %s\n", p.Name)
	return nil
}

func runProfileCreateDefault(cmd *cobra.Command, args []string) error {
	store, _, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = closeStore() }()

	p, err := store.CreateDefaultProfile()
	if err != nil {
		return fmt.Errorf("create default profile: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created: %s\n", p.Name)
	return nil
}

func runProfileDelete(cmd *cobra.Command, args []string) error {
	store, _, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = closeStore() }()

	if err := store.DeleteProfile(args[0]); err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deleted: %s\n", args[0])
	return nil
}
