package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"AEOAuditor/internal/app"
	"AEOAuditor/internal/config"
	"AEOAuditor/internal/domain"
	"AEOAuditor/internal/infrastructure/parser"
	"AEOAuditor/internal/logging"
)

const usage = `usage: aeoauditor <command> [flags]

commands:
  audit [-deploy -post-id N] <url>         audit one page and persist the record;
                                           -deploy pushes its schema to WordPress post N
  compare <url> <competitor>               gap analysis against a competitor page
  simulate -brand B -domain D <query>      check brand citation in a simulated answer
  mentions [-platform P] <brand>           live brand mentions in an AI answer engine
  watch                                    re-audit scheduler targets on the cron schedule
  serve                                    run the HTTP API
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	cfg := config.Load()
	logger := logging.NewWithWriter(stderr, cfg.Logging.Level, cfg.Logging.Format)

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		return 1
	}
	defer func() {
		if err := application.Close(); err != nil {
			logger.Warn("close storage", "error", err)
		}
	}()

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "audit":
		fs := flag.NewFlagSet("audit", flag.ContinueOnError)
		fs.SetOutput(stderr)
		deploy := fs.Bool("deploy", false, "publish the recommended schema to WordPress")
		postID := fs.Int("post-id", 0, "WordPress post id receiving the schema")
		if err := fs.Parse(rest); err != nil || fs.NArg() != 1 || (*deploy && *postID <= 0) {
			fmt.Fprint(stderr, usage)
			return 2
		}
		target, err := parser.NormalizeURL(fs.Arg(0))
		if err != nil {
			logger.Error("invalid url", "error", err)
			return 2
		}
		record, err := application.Audit(ctx, target)
		if record != nil {
			printJSON(stdout, record)
		}
		if err != nil {
			logger.Error("audit failed", "kind", domain.KindOf(err), "error", err)
			return 1
		}
		if *deploy {
			if err := application.Deploy(ctx, record, *postID); err != nil {
				logger.Error("deploy failed", "post_id", *postID, "error", err)
				return 1
			}
		}

	case "compare":
		fs := flag.NewFlagSet("compare", flag.ContinueOnError)
		fs.SetOutput(stderr)
		if err := fs.Parse(rest); err != nil || fs.NArg() != 2 {
			fmt.Fprint(stderr, usage)
			return 2
		}
		mine, err1 := parser.NormalizeURL(fs.Arg(0))
		competitor, err2 := parser.NormalizeURL(fs.Arg(1))
		if err := errors.Join(err1, err2); err != nil {
			logger.Error("invalid url", "error", err)
			return 2
		}
		report, err := application.Compare(ctx, mine, competitor)
		if err != nil {
			logger.Error("compare failed", "error", err)
			return 1
		}
		printJSON(stdout, report)

	case "simulate":
		fs := flag.NewFlagSet("simulate", flag.ContinueOnError)
		fs.SetOutput(stderr)
		brand := fs.String("brand", "", "brand name to look for in the answer")
		site := fs.String("domain", "", "brand web domain expected among the sources")
		if err := fs.Parse(rest); err != nil || fs.NArg() != 1 || (*brand == "" && *site == "") {
			fmt.Fprint(stderr, usage)
			return 2
		}
		result, err := application.Simulate(ctx, *brand, *site, fs.Arg(0))
		if err != nil {
			logger.Error("simulation failed", "error", err)
			return 1
		}
		printJSON(stdout, result)

	case "mentions":
		fs := flag.NewFlagSet("mentions", flag.ContinueOnError)
		fs.SetOutput(stderr)
		platform := fs.String("platform", "", "AI platform to search (defaults to config)")
		if err := fs.Parse(rest); err != nil || fs.NArg() != 1 {
			fmt.Fprint(stderr, usage)
			return 2
		}
		report, err := application.Mentions(ctx, fs.Arg(0), *platform)
		if err != nil {
			logger.Error("mention check failed", "error", err)
			return 1
		}
		printJSON(stdout, report)

	case "watch":
		if err := application.Watch(ctx); err != nil {
			logger.Error("watch stopped", "error", err)
			return 1
		}

	case "serve":
		if err := application.Serve(ctx); err != nil {
			logger.Error("server stopped", "error", err)
			return 1
		}

	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", cmd, usage)
		return 2
	}
	return 0
}

func printJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
