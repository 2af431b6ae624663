package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"nhdl/pkg/auth"
	"nhdl/pkg/config"
	"nhdl/pkg/logger"
	"nhdl/pkg/scraper"
	"nhdl/pkg/ui"
)

// commandFlags collects the global flags that were set explicitly so that
// they override the config file and the environment.
func commandFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	changed := cmd.Flags().Changed

	if changed("path") {
		flags["path"] = outputPath
	}
	if changed("overwrite") {
		flags["overwrite"] = overwrite
	}
	if changed("no-check-missing-pages") {
		flags["no-check-missing-pages"] = noCheckMissing
	}
	if changed("log-level") {
		flags["log-level"] = logLevel
	}
	if changed("verbose") {
		flags["verbose"] = verbose
	}
	if changed("account") {
		flags["account"] = accountName
	}
	if changed("proxy") {
		flags["proxy"] = proxyURL
	}
	if changed("galleries") {
		flags["galleries"] = galleryParallel
	}

	return flags
}

// setup loads the configuration, starts logging and attaches the site session.
func setup(cmd *cobra.Command) (*config.Config, logger.Logger, error) {
	cfg, err := config.Load(configFile, commandFlags(cmd))
	if err != nil {
		return nil, nil, err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.GetLogger()
	log.WithField("version", version).Debug("nhdl starting")

	if err := attachAccount(cfg, log); err != nil {
		return nil, nil, err
	}

	return cfg, log, nil
}

// attachAccount copies the cookie and user agent of the selected account
// into cfg. A cookie given in the config file or NHDL_COOKIE is kept unless
// an account was named. Without any stored account requests go out anonymous.
func attachAccount(cfg *config.Config, log logger.Logger) error {
	if cfg.Site.Cookie != "" && cfg.Site.Account == "" {
		log.Debug("Using cookie from configuration")
		return nil
	}

	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	account, err := manager.Resolve(cfg.Site.Account)
	switch {
	case err == nil:
	case cfg.Site.Account == "" && errors.Is(err, auth.ErrCredentialsNotFound):
		log.Debug("No stored session, requests are sent without cookies")
		return nil
	default:
		return fmt.Errorf("account %q: %w (see 'nhdl auth list')", cfg.Site.Account, err)
	}

	cfg.Site.Cookie = account.Cookie
	if account.UserAgent != "" {
		cfg.Site.UserAgent = account.UserAgent
	}
	log.WithField("account", account.Name).Info("Using stored session")
	ui.PrintInfo("Using account", account.Name)

	return nil
}

// newScraper builds a scraper reporting to a fresh status tracker.
func newScraper(cfg *config.Config, log logger.Logger) (*scraper.Scraper, *ui.StatusTracker, error) {
	s, err := scraper.New(cfg, log)
	if err != nil {
		return nil, nil, err
	}

	tracker := ui.NewStatusTracker()
	s.SetObserver(tracker)
	return s, tracker, nil
}

// signalContext is cancelled on the first interrupt. In-flight pages are
// abandoned and their partial files removed.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
