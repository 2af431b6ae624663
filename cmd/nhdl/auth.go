package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"nhdl/pkg/auth"
	"nhdl/pkg/config"
	"nhdl/pkg/ui"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage stored site sessions",
	Long: `Manage browser sessions (cookie and user agent) sent to the site.

Sessions are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables NHDL_COOKIE and NHDL_USER_AGENT (read only)

Never share your cookies or config files!`,
}

var loginCmd = &cobra.Command{
	Use:   "login [name]",
	Short: "Store a browser session",
	Long: `Store the Cookie and User-Agent headers of a browser that passed the
site's browser check. The account is named "default" unless a name is given.`,
	Example: `  # Interactive login
  nhdl auth login

  # Store a second session under its own name
  nhdl auth login work`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout [name]",
	Short: "Remove a stored session",
	Long: `Remove a stored session. Without a name you are asked which one to remove.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLogout,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored sessions",
	Long:  `List stored sessions with their cookies masked.`,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(listCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	name := "default"
	if len(args) > 0 {
		name = strings.TrimSpace(args[0])
	}

	reader := bufio.NewReader(os.Stdin)

	auth.ShowCookieExtractionGuide(os.Stdout, config.DefaultConfig().SiteRoot())

	if existing, _ := manager.Retrieve(name); existing != nil {
		fmt.Printf("Account '%s' already exists. Replace it? (y/N): ", name)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return nil
		}
	}

	var account *auth.Account
	for {
		fmt.Print("Cookie header value (hidden): ")
		cookie, err := readSecret(reader)
		if err != nil {
			return fmt.Errorf("failed to read cookie: %w", err)
		}
		if cookie == "help" {
			auth.ShowCookieExtractionGuide(os.Stdout, config.DefaultConfig().SiteRoot())
			continue
		}

		fmt.Print("User-Agent (press Enter to use the default): ")
		userAgent, _ := reader.ReadString('\n')

		account = &auth.Account{
			Name:         name,
			Cookie:       cookie,
			UserAgent:    strings.TrimSpace(userAgent),
			LastModified: time.Now(),
		}
		if err := auth.Validate(account); err != nil {
			ui.PrintError("That does not look like a Cookie header", err)
			auth.ShowQuickExtractGuide(os.Stdout)
			fmt.Print("Try again? (Y/n): ")
			retry, _ := reader.ReadString('\n')
			if strings.ToLower(strings.TrimSpace(retry)) == "n" {
				return err
			}
			continue
		}
		break
	}

	fmt.Println("\nSummary:")
	fmt.Printf("   Account: %s\n", account.Name)
	fmt.Printf("   Cookie: %s (hidden)\n", auth.MaskString(account.Cookie))
	if account.UserAgent != "" {
		fmt.Printf("   User Agent: %s\n", account.UserAgent)
	}

	if err := manager.Store(account); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}

	ui.PrintSuccess(fmt.Sprintf("Session saved: %s", account.Name))
	fmt.Println("\nUse it with:")
	fmt.Println("   $ nhdl single <id>")
	fmt.Printf("   $ nhdl query <text> --account %s\n", account.Name)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	var name string
	if len(args) > 0 {
		name = args[0]
	} else {
		accounts, err := manager.List()
		if err != nil || len(accounts) == 0 {
			ui.PrintWarning("No stored sessions found")
			return nil
		}

		fmt.Println("Select session to remove:")
		for i, account := range accounts {
			fmt.Printf("  %d. %s\n", i+1, account.Name)
		}
		fmt.Printf("  0. Cancel\n\n")

		reader := bufio.NewReader(os.Stdin)
		fmt.Print("Choice: ")
		input, _ := reader.ReadString('\n')

		var choice int
		fmt.Sscanf(strings.TrimSpace(input), "%d", &choice)
		if choice < 1 || choice > len(accounts) {
			return nil
		}
		name = accounts[choice-1].Name
	}

	if err := manager.Delete(name); err != nil {
		return err
	}
	ui.PrintSuccess("Session removed: " + name)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	accounts, err := manager.List()
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		ui.PrintWarning("No stored sessions. Run 'nhdl auth login' to add one")
		return nil
	}

	ui.PrintHighlight("Stored sessions")
	for _, account := range accounts {
		safe := auth.SanitizeAccount(account)
		ui.PrintInfo(safe.Name, fmt.Sprintf("%s (updated %s)", safe.Cookie, safe.LastModified.Format(time.DateTime)))
	}
	return nil
}

// readSecret reads a line from stdin without echoing it when stdin is a terminal
func readSecret(reader *bufio.Reader) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		secret, err := term.ReadPassword(fd)
		fmt.Println()
		if err == nil {
			return strings.TrimSpace(string(secret)), nil
		}
	}

	input, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
