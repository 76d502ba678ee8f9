// Copyright 2025 The WordServe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main implements the substitus segmentation server, batch segmenter and CLI [DBG] application.

Substitus trains a pair of frequency tries from a word frequency list and
scores every boundary inside a word by how freely its two sides substitute
with other observed affixes. A boundary probability close to 1 marks a likely
morpheme boundary.

# Usage

Start the IPC server on a frequency list:

	substitus -freq words.txt

Train once and keep a compressed snapshot for fast restarts:

	substitus -freq words.txt -save words.snap
	substitus -freq words.snap

Segment every word of a text file, in parallel:

	substitus -freq words.snap -segment corpus.txt -workers 8 > segmented.tsv

Run in CLI mode for interactive testing:

	substitus -freq words.snap -c -d

The frequency source may be a single list, a snapshot or a directory holding
several of them. Lists have one "word count" or "count word" pair per line.

# Configuration

Runtime configuration is read from substitus.toml in the user config
directory, or from the path given with -config:

	[engine]
	min_compound_frequency = 1
	k_most_frequent = 64
	square_size = 8
	boundary_policy = "exclude"

	[segment]
	threshold = 0.5
	separator = "+"
	workers = 4

The config file is created with defaults if it doesn't exist. Flags override
the engine values for one run.

# IPC Protocol

The server speaks length-prefixed MessagePack frames over stdin/stdout:

	{"id": "req_001", "w": "walked"}
	{"id": "req_001", "a": ["w","a","l","k","e","d"], "p": [0, 0, 0.01, 0.82, 0.1],
	 "b": [false, false, false, true, false], "s": "walk+ed", "m": ["walk","ed"], "t": 412}

Tunables can be changed without restart:

	{"id": "tune_1", "action": "tune", "min_compound_frequency": 2, "k_most_frequent": 32}

# Command Line Flags

	-freq string
	    Frequency list, snapshot or directory to train from
	-snapshot string
	    Snapshot loaded before -freq
	-save string
	    Write a snapshot of the trained tries and continue
	-config string
	    Path to substitus.toml
	-segment string
	    Segment every word of a file ("-" for stdin) and exit
	-features string
	    Write boundary feature vectors of a -segment run as TSV
	-rebuild-config
	    Overwrite the default substitus.toml with defaults and exit
	-morphs int
	    Print the most frequent morphs after a -segment run
	-k, -min, -square int
	    Override engine tunables
	-workers int
	    Concurrent words in -segment mode
	-d  Enable debug mode with detailed logging
	-c  Run CLI mode instead of server mode
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/bastiangx/substitus/internal/cli"
	"github.com/bastiangx/substitus/internal/logger"
	"github.com/bastiangx/substitus/internal/utils"
	"github.com/bastiangx/substitus/pkg/config"
	"github.com/bastiangx/substitus/pkg/dictionary"
	"github.com/bastiangx/substitus/pkg/freqtrie"
	"github.com/bastiangx/substitus/pkg/inventory"
	"github.com/bastiangx/substitus/pkg/segmentation"
	"github.com/bastiangx/substitus/pkg/server"
	"github.com/bastiangx/substitus/pkg/substitus"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

const (
	Version = "0.3.0-beta"
	AppName = "substitus"
	gh      = "https://github.com/bastiangx/substitus"
)

// sigHandler cancels the returned context on the first signal and exits on the second.
func sigHandler() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		cancel()
		<-c
		os.Exit(1)
	}()
	return ctx
}

// main only manages the flow between the packages.
func main() {
	ctx := sigHandler()

	showVersion := flag.Bool("version", false, "Show current version")
	freqPath := flag.String("freq", "", "Frequency list, snapshot (.snap) or directory to train from")
	snapPath := flag.String("snapshot", "", "Snapshot to load before -freq; both are accumulated")
	savePath := flag.String("save", "", "Write a snapshot of the trained tries to this path")
	configPath := flag.String("config", "", "Path to a custom substitus.toml")
	debugMode := flag.Bool("d", false, "Toggle debug mode")
	logFormat := flag.String("log-format", "text", "Log format: text, json or logfmt")
	cliMode := flag.Bool("c", false, "Run CLI -- useful for testing and debugging")
	noFilter := flag.Bool("no-filter", false, "Disable input filtering in CLI mode")
	segmentFile := flag.String("segment", "", "Segment every word of this file (- for stdin) and exit")
	featuresFile := flag.String("features", "", "Write boundary feature vectors of a -segment run to this TSV file")
	topMorphs := flag.Int("morphs", 0, "Print this many of the most frequent morphs after -segment")
	kMost := flag.Int("k", 0, "Override k_most_frequent")
	minFreq := flag.Int64("min", 0, "Override min_compound_frequency")
	square := flag.Int("square", 0, "Override square_size")
	workers := flag.Int("workers", 0, "Override segment workers")
	rebuildConfig := flag.Bool("rebuild-config", false, "Overwrite the default substitus.toml with defaults and exit")

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	logger.SetupGlobal(*debugMode, *logFormat)

	if *rebuildConfig {
		path, err := config.RebuildConfigFile()
		if err != nil {
			log.Fatalf("Failed to rebuild config: %v", err)
		}
		fmt.Fprintf(os.Stderr, "Config rebuilt at %s\n", path)
		os.Exit(0)
	}
	if err := checkModes(*featuresFile, *segmentFile); err != nil {
		log.Fatal(err)
	}

	cfg, activeConfig, err := config.LoadConfigWithPriority(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	applyOverrides(cfg, *kMost, *minFreq, *square, *workers)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid settings: %v", err)
	}
	log.Debugf("Using config: %s", config.GetActiveConfigPath(activeConfig))

	pathResolver, err := utils.NewPathResolver()
	if err != nil {
		log.Fatalf("Failed to initialize path resolver: %v", err)
	}
	if *debugMode {
		log.Debug("Runtime", "info", pathResolver.GetRuntimeInfo(), "config dir", pathResolver.GetConfigDir())
	}

	var sources []string
	for _, p := range []string{*snapPath, *freqPath} {
		if p != "" {
			sources = append(sources, p)
		}
	}
	if len(sources) == 0 && cfg.Train.Snapshot != "" {
		sources = append(sources, cfg.Train.Snapshot)
	}

	pair := freqtrie.NewPair()
	loader := dictionary.NewLoader(pair, cfg.ReadOptions())
	if len(sources) == 0 {
		log.Warn("No frequency source given, every boundary will score 0")
	}
	for i, src := range sources {
		resolved, err := pathResolver.ResolveDataPath(src)
		if err != nil {
			log.Fatalf("Failed to resolve frequency source %s: %v", src, err)
		}
		if err := loader.Load(resolved); err != nil {
			log.Fatalf("Failed to train from %s: %v", resolved, err)
		}
		sources[i] = resolved
	}
	if len(sources) > 0 {
		st := loader.Stats()
		log.Debug("Training done",
			"entries", st.Entries, "skipped", st.Skipped, "malformed", st.Malformed,
			"snapshots", st.Snapshots, "took", utils.FormatDuration(st.Duration))
	}

	if *savePath != "" {
		if st := utils.CheckDirStatus(filepath.Dir(*savePath)); !st.Writable {
			log.Fatalf("Snapshot dir for %s is not writable: %v", *savePath, st.Error)
		}
		if err := dictionary.SaveSnapshotFile(*savePath, pair); err != nil {
			log.Fatalf("Failed to save snapshot: %v", err)
		}
		log.Infof("Snapshot written to %s", *savePath)
	}

	opts, err := cfg.EngineOptions()
	if err != nil {
		log.Fatalf("Invalid engine options: %v", err)
	}
	engine, err := substitus.New(pair, opts)
	if err != nil {
		log.Fatalf("Failed to init engine: %v", err)
	}

	segOpts := []segmentation.Option{segmentation.WithCacheSize(cfg.Segment.CacheSize)}
	var sink *cli.TSVFeatureSink
	if *featuresFile != "" {
		f, err := os.Create(*featuresFile)
		if err != nil {
			log.Fatalf("Failed to create features file: %v", err)
		}
		defer f.Close()
		sink, err = cli.NewTSVFeatureSink(f, engine.FeatureNames())
		if err != nil {
			log.Fatalf("Failed to write features header: %v", err)
		}
		// cached words would skip the sink
		segOpts = []segmentation.Option{segmentation.WithCacheSize(0), segmentation.WithFeatureSink(sink)}
	}
	segmenter, err := segmentation.NewSegmenter(engine, segOpts...)
	if err != nil {
		log.Fatalf("Failed to init segmenter: %v", err)
	}

	var inv *inventory.Inventory
	if cfg.Server.CollectMorphs || *topMorphs > 0 {
		inv = inventory.New()
	}

	switch {
	case *segmentFile != "":
		runBatch(ctx, segmenter, inv, cfg, *segmentFile, *topMorphs)
		if sink != nil {
			if err := sink.Flush(); err != nil {
				log.Fatalf("Failed to write features: %v", err)
			}
		}
	case *cliMode:
		log.SetReportTimestamp(false)
		log.Debug("Input info:", "threshold", cfg.Segment.Threshold, "noFilter", *noFilter)
		h := cli.NewInputHandler(segmenter, inv, cfg, os.Stdin, os.Stdout, *noFilter)
		if err := h.Start(); err != nil {
			log.Fatalf("CLI error: %v", err)
		}
	default:
		log.Debug("spawning IPC")
		srv := server.NewServer(segmenter, inv, cfg, activeConfig)
		showStartupInfo(strings.Join(sources, ", "), pair)
		if err := srv.Start(); err != nil {
			log.Fatalf("Server stopped: %v", err)
		}
	}
}

// checkModes rejects flag combinations whose output would be lost.
// The feature sink is only flushed by a -segment run.
func checkModes(featuresFile, segmentFile string) error {
	if featuresFile != "" && segmentFile == "" {
		return errors.New("-features needs -segment")
	}
	return nil
}

func applyOverrides(cfg *config.Config, k int, minFreq int64, square, workers int) {
	if k > 0 {
		cfg.Engine.KMostFrequent = k
	}
	if minFreq > 0 {
		cfg.Engine.MinCompoundFrequency = minFreq
	}
	if square > 0 {
		cfg.Engine.SquareSize = square
	}
	if workers > 0 {
		cfg.Segment.Workers = workers
	}
}

func runBatch(ctx context.Context, seg *segmentation.Segmenter, inv *inventory.Inventory, cfg *config.Config, path string, top int) {
	in := os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			log.Fatalf("Failed to open %s: %v", path, err)
		}
		defer f.Close()
		in = f
	}

	stats, err := cli.RunBatch(ctx, seg, inv, cfg, in, os.Stdout)
	if err != nil {
		log.Errorf("Batch stopped: %v", err)
	}
	log.Info("Batch done",
		"lines", utils.FormatWithCommas(int64(stats.Lines)),
		"words", utils.FormatWithCommas(int64(stats.Words)),
		"failed", stats.Failed)

	if top > 0 && inv != nil {
		for i, m := range inv.Top(top) {
			fmt.Fprintf(os.Stderr, "%3d. %-20s %10s %8d\n", i+1, m.Form, utils.FormatWithCommas(int64(m.Count)), m.Words)
		}
	}
}

func printVersion() {
	l := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    false,
		ReportTimestamp: false,
		Prefix:          "",
	})

	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"}).
		Background(lipgloss.AdaptiveColor{Light: "#f2e9e1", Dark: "#26233a"})
	styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	l.SetStyles(styles)

	l.Print("")
	l.Print("[ Substitus ] Finds morpheme boundaries by substitution")
	l.Print("", "version", Version)
	l.Print("")
	l.Print("use -h or --help to see available options")
	l.Print("Github Repo", "gh", gh)
}

// showStartupInfo displays some basic info about the init process.
func showStartupInfo(source string, pair *freqtrie.Pair) {
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)

	fmt.Fprintln(os.Stderr, "===========")
	fmt.Fprintln(os.Stderr, " Substitus ")
	fmt.Fprintln(os.Stderr, "===========")
	log.Infof("Version: %s", Version)
	log.Infof("Process ID: [ %d ]", os.Getpid())
	log.Infof("frequency source: ( %s )", source)
	log.Infof("sequences: %s, tokens: %s",
		utils.FormatWithCommas(int64(pair.UniqueSequencesCount())),
		utils.FormatWithCommas(pair.TotalSequencesCount()))
	log.Info("status: ready")
	fmt.Fprintln(os.Stderr, "===========")
	fmt.Fprintln(os.Stderr, "Press Ctrl+C to exit")

	log.SetLevel(currentLevel)
}
