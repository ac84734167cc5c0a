package main

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"clipforge/internal/apiclient"
	"clipforge/internal/config"
	"clipforge/internal/daemon"
	"clipforge/internal/daemonrun"
	"clipforge/internal/logging"
	"clipforge/internal/queue"
	"clipforge/internal/queueaccess"
	"clipforge/internal/workflow"
)

type commandContext struct {
	addrFlag   *string
	configFlag *string
	jsonFlag   *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(addrFlag, configFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		addrFlag:   addrFlag,
		configFlag: configFlag,
		jsonFlag:   jsonFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

// apiAddr resolves the daemon API address from the flag or config bind address.
func (c *commandContext) apiAddr() string {
	if c.addrFlag != nil && strings.TrimSpace(*c.addrFlag) != "" {
		return strings.TrimSpace(*c.addrFlag)
	}
	cfg, err := c.ensureConfig()
	if err != nil || cfg == nil {
		return ""
	}
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return ""
	}
	// A wildcard bind is dialed over loopback.
	if host, port, ok := strings.Cut(bind, ":"); ok && (host == "" || host == "0.0.0.0" || host == "::") {
		return "127.0.0.1:" + port
	}
	return bind
}

func (c *commandContext) dialClient() (*apiclient.Client, error) {
	addr := c.apiAddr()
	if addr == "" {
		return nil, fmt.Errorf("daemon api address not configured; set paths.api_bind or pass --addr")
	}
	cfg, _ := c.ensureConfig()
	token := ""
	if cfg != nil {
		token = cfg.Paths.APIToken
	}
	return apiclient.New(addr, token), nil
}

// withQueueAccess runs fn against the daemon API when reachable, otherwise
// against the store directly.
func (c *commandContext) withQueueAccess(ctx context.Context, fn func(queueaccess.Access) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	session, err := queueaccess.OpenWithFallback(
		ctx,
		func() (*apiclient.Client, error) { return c.dialClient() },
		func() (*queue.Store, error) { return queue.Open(cfg) },
	)
	if err != nil {
		return err
	}
	defer session.Close()
	return fn(session.Access)
}

// withStore runs fn against a freshly opened queue store.
func (c *commandContext) withStore(fn func(*queue.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := queue.Open(cfg)
	if err != nil {
		return fmt.Errorf("open queue store: %w", err)
	}
	defer store.Close()
	return fn(store)
}

// withDaemon builds a full daemon (without starting it) so commands can reuse
// the enqueue validation paths when the daemon process is offline.
func (c *commandContext) withDaemon(fn func(*daemon.Daemon) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := queue.Open(cfg)
	if err != nil {
		return fmt.Errorf("open queue store: %w", err)
	}
	defer store.Close()

	logger := logging.NewNop()
	stages, err := daemonrun.BuildStages(cfg, store, logger)
	if err != nil {
		return err
	}
	manager := workflow.NewManager(cfg, store, logger, stages)
	d, err := daemon.New(cfg, store, logger, manager)
	if err != nil {
		return err
	}
	return fn(d)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
