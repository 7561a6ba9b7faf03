package main

import (
	"flag"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"

	"github.com/brettbedarf/nodefs/config"
	"github.com/brettbedarf/nodefs/filesystem"
	"github.com/brettbedarf/nodefs/internal/util"
	"github.com/brettbedarf/nodefs/payload"
	"github.com/brettbedarf/nodefs/requests"
	"github.com/brettbedarf/nodefs/server"
)

// defsFlag collects repeated -n values
type defsFlag []string

func (d *defsFlag) String() string { return strings.Join(*d, ",") }

func (d *defsFlag) Set(v string) error {
	*d = append(*d, v)
	return nil
}

func main() {
	// Parse command line arguments
	var (
		configPath string
		verbose    int
		nodesDefs  defsFlag
		umount     bool
	)
	flag.StringVar(&configPath, "config", "", "Path to config file (.yaml, .yml or .json)")
	flag.StringVar(&configPath, "c", "", "--config (shorthand)")
	flag.Var(&nodesDefs, "nodes", "Path to nodes def file. Repeat to overlay several files in order.")
	flag.Var(&nodesDefs, "n", "--nodes (shorthand)")
	flag.BoolVar(&umount, "umount", false,
		"Unmount the fs first if needed before mounting again. Useful for debuggers that don't exit properly.")
	flag.BoolVar(&umount, "u", false, "--umount (shorthand)")
	flag.IntVar(&verbose, "verbose", 0, "Log verbosity level between 1 (error) and 5 (trace). Default is 3 (info).")
	flag.IntVar(&verbose, "v", 0, "--verbose (shorthand)")
	flag.Parse()

	// Config file first so -v can override its verbosity
	override := &config.ConfigOverride{}
	if configPath != "" {
		loaded, err := config.LoadConfigOverrideFile(configPath)
		if err != nil {
			util.InitializeLogger(config.DefaultLogLvl)
			logger := util.GetLogger("main")
			logger.Fatal().Err(err).Str("config", configPath).Msg("Failed to load config file")
		}
		override = loaded
	}
	if verbose != 0 {
		override.LogLvl = &verbose
	}
	cfg := config.NewConfig(override)

	util.InitializeLogger(cfg.LogLvl)
	logger := util.GetLogger("main")

	mnt := flag.Arg(0)
	logger.Info().Str("config", configPath).Strs("nodes", nodesDefs).Str("mnt", mnt).Msg("nodefs initializing")

	fsys, err := filesystem.NewFS(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create filesystem")
	}

	// Register all built-in payload providers
	pool := payload.NewPool()
	reg := payload.NewRegistry()
	payload.RegisterBuiltins(reg, pool)

	if len(nodesDefs) == 0 {
		logger.Warn().Msg("No nodes def file provided")
	}
	for _, path := range nodesDefs {
		loadDefs(fsys, cfg, reg, path)
	}
	logger.Info().Int("nodes", len(fsys.List())).Int("open_sources", pool.Len()).Msg("Tree built")

	// Without a mount point just print what was built
	if mnt == "" {
		if err := fsys.WriteListing(os.Stdout); err != nil {
			logger.Error().Err(err).Msg("Failed to write listing")
		}
		if err := fsys.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to release payloads")
		}
		return
	}

	// Try unmount if requested
	if umount { // send cli command
		cmd := exec.Command("fusermount", "-u", mnt)
		// we ignore error here if not already mounted
		cmd.Run() // nolint:errcheck
	}

	srv := server.New(cfg, fsys)
	if err := srv.Serve(mnt); err != nil {
		logger.Fatal().Err(err).Msg("Failed to mount filesystem")
	}

	// Setup signal handling for graceful shutdown
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	logger.Info().Str("mountpoint", mnt).Msg("Filesystem mounted successfully")

	// Wait for termination signal or an external unmount
	done := make(chan struct{})
	go func() {
		srv.Wait()
		close(done)
	}()
	select {
	case sig := <-signalChan:
		logger.Info().Str("signal", sig.String()).Msg("Received signal, unmounting filesystem")
		if err := srv.Unmount(); err != nil {
			logger.Error().Err(err).Msg("Failed to unmount filesystem")
		} else {
			logger.Info().Msg("Filesystem unmounted successfully")
		}
	case <-done:
		logger.Info().Msg("Filesystem unmounted externally")
	}

	if err := fsys.Close(); err != nil {
		logger.Error().Err(err).Msg("Failed to release payloads")
	}
}

// loadDefs builds one definitions file into a staging tree and grafts its
// top-level nodes into fsys, so later files overlay earlier ones following
// the configured merge policy
func loadDefs(fsys *filesystem.FileSystem, cfg *config.Config, reg *payload.Registry, path string) {
	logger := util.GetLogger("main")

	defs, err := requests.LoadDefinitions(path)
	if err != nil {
		logger.Error().Err(err).Str("nodes", path).Msg("Failed to read nodes def file")
		return
	}
	logger.Debug().Str("nodes", path).Int("definitions", len(defs)).Msg("Nodes def file loaded successfully")

	stage, err := filesystem.NewFS(cfg)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create staging tree")
		return
	}
	defer stage.Close() // nolint:errcheck

	if err := stage.Build(defs, reg); err != nil {
		logger.Warn().Err(err).Str("nodes", path).Msg("Some definitions were skipped")
	}
	for _, top := range stage.Root().Children() {
		if _, err := fsys.Graft("", top); err != nil {
			logger.Error().Err(err).Str("path", top.Path()).Msg("Failed to add nodes")
		}
	}
}
