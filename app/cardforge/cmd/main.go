package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/cardforge/app/cardforge/internal/metrics"
	"github.com/lk2023060901/cardforge/pkg/app"
	"github.com/lk2023060901/cardforge/pkg/logger"
	"github.com/lk2023060901/cardforge/pkg/prometheus"
	"github.com/spf13/pflag"
)

// errChecksFailed 检查未通过，结果已输出，只需以非零状态退出
var errChecksFailed = errors.New("checks failed")

type subcommand struct {
	usage string
	run   func(ctx context.Context, args []string, out io.Writer) error
}

var commands = map[string]subcommand{
	"serve":     {"serve [--config file]", runServe},
	"simulate":  {"simulate <catalog> <pack> [--pulls=1000]", runSimulate},
	"checklist": {"checklist <catalog>", runChecklist},
	"validate":  {"validate --catalog <file> | --app <catalog> [--watch]", runValidate},
	"token":     {"token --admin-id <id> [--username name]", runToken},
	"version":   {"version", runVersion},
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printUsage(stderr)
		return 2
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n", args[0])
		printUsage(stderr)
		return 2
	}
	if err := cmd.run(ctx, args[1:], stdout); err != nil {
		if !errors.Is(err, errChecksFailed) {
			fmt.Fprintln(stderr, err)
		}
		return 1
	}
	return 0
}

func printUsage(w io.Writer) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintln(w, "usage: cardforge <command> [arguments]")
	for _, name := range names {
		fmt.Fprintf(w, "  %s\n", commands[name].usage)
	}
}

func newFlagSet(name string, out io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(out)
	return fs
}

// runServe 启动 HTTP 服务，阻塞到收到退出信号
func runServe(ctx context.Context, args []string, out io.Writer) error {
	fs := newFlagSet("serve", out)
	path := fs.String("config", "", "config file (defaults to $CARDFORGE_CONFIG)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	// 1. 加载配置
	cfg, err := loadConfig(*path)
	if err != nil {
		return err
	}

	// 2. 指标
	prom, err := prometheus.New(&cfg.Metrics)
	if err != nil {
		return err
	}
	m, err := metrics.New(prom)
	if err != nil {
		return err
	}

	// 3. 主日志，按级别计数
	l, err := logger.New(&cfg.Log, logger.WithHooks(logger.LevelCounterHook(m.ObserveLog)))
	if err != nil {
		return err
	}

	// 4. 通过 Wire 初始化应用
	application, cleanup, err := InitApp(ctx, cfg, l, m, prom)
	if err != nil {
		l.Error("failed to initialize application", "error", err)
		return err
	}
	defer cleanup()

	// 5. 运行服务
	if err := application.Run(ctx); err != nil {
		l.Error("application exited with error", "error", err)
		return err
	}
	return nil
}

func runVersion(_ context.Context, _ []string, out io.Writer) error {
	fmt.Fprintln(out, app.GetInfo().String())
	return nil
}
