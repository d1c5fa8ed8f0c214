package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"ralph/internal/checkpoint"
	"ralph/internal/compact"
	"ralph/internal/config"
	"ralph/internal/keywords"
	"ralph/internal/lock"
	"ralph/internal/logging"
	"ralph/internal/model"
	"ralph/internal/progress"
	"ralph/internal/rotation"
	"ralph/internal/tasks"
)

const version = "0.3.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "init":
		runInit(os.Args[2:])
	case "status":
		runStatus(os.Args[2:])
	case "resume":
		runResume(os.Args[2:])
	case "prune":
		runPrune(os.Args[2:])
	case "compact":
		runCompact(os.Args[2:])
	case "rotation":
		runRotation(os.Args[2:])
	case "version":
		fmt.Printf("ralph %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`ralph - autonomous coding agent driver

Usage:
  ralph init [project-name]          initialize .ralph/ in the current directory
  ralph status <task-id>             show the latest checkpoint for a task
  ralph resume <task-id>             print a resume summary for a task
  ralph prune --days <n>             delete checkpoints older than n days
  ralph prune --task <id>            delete all checkpoints for a task
  ralph compact                      compact the progress log
  ralph rotation                     show rotation state
  ralph version                      print version`)
}

func ralphDir() string {
	wd, err := os.Getwd()
	if err != nil {
		fatal("resolve working directory: %v", err)
	}
	return filepath.Join(wd, config.DirName)
}

func loadConfig(dir string) model.Config {
	cfg, err := config.Load(dir)
	if err != nil {
		// Configuration errors halt the run; everything else degrades.
		fatal("%v", err)
	}
	return cfg
}

func newLogger(cfg model.Config) *logging.Logger {
	return logging.New(os.Stderr, logging.ParseLevel(cfg.Logging.Level))
}

func newCheckpointStore(dir string, cfg model.Config) *checkpoint.Store {
	repoDir := filepath.Dir(dir)
	return checkpoint.NewStore(dir, repoDir, tasks.NewStore(dir), newLogger(cfg))
}

func runInit(args []string) {
	name := ""
	if len(args) > 0 {
		name = args[0]
	}
	wd, err := os.Getwd()
	if err != nil {
		fatal("resolve working directory: %v", err)
	}
	if err := config.Init(wd, name); err != nil {
		fatal("init: %v", err)
	}
	fmt.Printf("initialized %s\n", filepath.Join(wd, config.DirName))
}

func runStatus(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: ralph status <task-id>")
		os.Exit(1)
	}
	dir := ralphDir()
	store := newCheckpointStore(dir, loadConfig(dir))

	cp, err := store.Latest(args[0])
	if errors.Is(err, checkpoint.ErrNoCheckpoint) {
		fmt.Printf("no checkpoints for task %s\n", args[0])
		return
	}
	if err != nil {
		fatal("status: %v", err)
	}
	fmt.Printf("task %s: %s (checkpoint %q at %s)\n",
		cp.TaskID, store.StatusOf(cp), cp.CheckpointName, cp.CreatedAt.Format("2006-01-02 15:04:05"))
}

func runResume(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: ralph resume <task-id>")
		os.Exit(1)
	}
	dir := ralphDir()
	store := newCheckpointStore(dir, loadConfig(dir))

	cp, err := store.Latest(args[0])
	if errors.Is(err, checkpoint.ErrNoCheckpoint) {
		fmt.Printf("no checkpoints for task %s\n", args[0])
		return
	}
	if err != nil {
		fatal("resume: %v", err)
	}
	fmt.Println(store.ResumeSummary(cp))
}

func runPrune(args []string) {
	dir := ralphDir()
	cfg := loadConfig(dir)
	store := newCheckpointStore(dir, cfg)

	switch {
	case len(args) >= 2 && args[0] == "--days":
		days, err := strconv.Atoi(args[1])
		if err != nil || days < 0 {
			fatal("prune: invalid --days value %q", args[1])
		}
		n, err := store.PruneOlderThan(days)
		if err != nil {
			fatal("prune: %v", err)
		}
		fmt.Printf("removed %d checkpoints\n", n)
	case len(args) >= 2 && args[0] == "--task":
		n, err := store.PruneTask(args[1])
		if err != nil {
			fatal("prune: %v", err)
		}
		fmt.Printf("removed %d checkpoints for task %s\n", n, args[1])
	case len(args) == 0:
		n, err := store.PruneOlderThan(cfg.Checkpoints.RetentionDays)
		if err != nil {
			fatal("prune: %v", err)
		}
		fmt.Printf("removed %d checkpoints older than %d days\n", n, cfg.Checkpoints.RetentionDays)
	default:
		fmt.Fprintln(os.Stderr, "usage: ralph prune [--days <n> | --task <id>]")
		os.Exit(1)
	}
}

func runCompact(args []string) {
	dir := ralphDir()
	cfg := loadConfig(dir)
	logger := newLogger(cfg)

	fl := lock.NewFileLock(filepath.Join(dir, "ralph.lock"))
	if err := fl.TryLock(); err != nil {
		fatal("compact: %v", err)
	}
	defer fl.Unlock()

	// Score against the first non-completed task so in-flight work stays.
	var kws []string
	if all, err := tasks.NewStore(dir).All(); err == nil {
		for _, t := range all {
			if t.Status != "completed" {
				kws = keywords.Extract(t.Title, t.Description)
				break
			}
		}
	}

	compactor := compact.New(dir, cfg.Compaction, logger)
	stats, err := compactor.CompactFile(filepath.Join(dir, progress.FileName), kws)
	if err != nil {
		fatal("compact: %v", err)
	}
	if stats.Skipped {
		fmt.Printf("nothing to compact (%d lines, threshold %d)\n", stats.LinesBefore, cfg.Compaction.ThresholdLines)
		return
	}
	fmt.Printf("compacted: %d -> %d lines, backup at %s\n", stats.LinesBefore, stats.LinesAfter, stats.BackupPath)
}

func runRotation(args []string) {
	dir := ralphDir()
	cfg := loadConfig(dir)
	sched := rotation.NewScheduler(dir, cfg.Rotation, lock.NewMutexMap(), newLogger(cfg))

	state := sched.State()
	fmt.Printf("agent index: %d\n", state.CurrentAgentIndex)
	fmt.Printf("rotations: %d, rate limits: %d\n", state.RotationsCount, state.RateLimitsCount)
	for agent, rec := range state.RateLimits {
		fmt.Printf("  %s cooled down until %s\n", agent, rec.CooldownUntil.Format("2006-01-02 15:04:05"))
	}
	for story, rec := range state.Stories {
		fmt.Printf("  story %s: %d attempts\n", story, rec.TotalAttempts)
	}
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}
