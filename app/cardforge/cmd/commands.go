package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/cardforge/app/cardforge/internal/catalog"
	"github.com/lk2023060901/cardforge/app/cardforge/internal/diagnostics"
	"github.com/lk2023060901/cardforge/pkg/config"
	"github.com/lk2023060901/cardforge/pkg/security"
)

// loadCatalogInto 读取目录文件并注册到 cat 与 currencies
func loadCatalogInto(path string, cat *catalog.Catalog, currencies *catalog.CurrencyRegistry) error {
	def, err := catalog.LoadDefinition(path)
	if err != nil {
		return err
	}
	return def.Register(cat, currencies)
}

// bootstrap 注册默认货币后加载目录，供离线命令使用
func bootstrap(cfg *Config, path string) (*catalog.Catalog, *catalog.CurrencyRegistry, error) {
	currencies := provideCurrencies(cfg)
	cat := catalog.New()
	if err := loadCatalogInto(path, cat, currencies); err != nil {
		return nil, nil, err
	}
	return cat, currencies, nil
}

func runSimulate(_ context.Context, args []string, out io.Writer) error {
	fs := newFlagSet("simulate", out)
	pulls := fs.Int("pulls", diagnostics.DefaultPulls, "number of drops to simulate")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return errors.New("usage: cardforge simulate <catalog> <pack> [--pulls=1000]")
	}

	cfg, err := loadConfig("")
	if err != nil {
		return err
	}
	cat, _, err := bootstrap(cfg, fs.Arg(0))
	if err != nil {
		return err
	}
	rng, err := provideRandom(cfg)
	if err != nil {
		return err
	}

	res, err := diagnostics.NewEconomySimulator(cat, cfg.Drop, rng).Simulate(fs.Arg(1), *pulls)
	if err != nil {
		return err
	}
	writeSimulation(out, res)
	return nil
}

func writeSimulation(out io.Writer, res *diagnostics.SimulationResult) {
	fmt.Fprintf(out, "Simulated %d drops.\n", res.Pulls)
	fmt.Fprintln(out, "Rewards:")
	for _, code := range sortedCodes(res.Rewards) {
		fmt.Fprintf(out, "  %s: %d\n", code, res.Rewards[code])
	}
	fmt.Fprintf(out, "Experience: %d\n", res.Experience)
	fmt.Fprintf(out, "Unique cards: %d, Duplicates: %d\n", res.Uniques, res.Duplicates)
}

func runChecklist(_ context.Context, args []string, out io.Writer) error {
	fs := newFlagSet("checklist", out)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: cardforge checklist <catalog>")
	}

	cfg, err := loadConfig("")
	if err != nil {
		return err
	}
	cat, currencies, err := bootstrap(cfg, fs.Arg(0))
	if err != nil {
		return err
	}

	issues := diagnostics.RunChecklist(cat, currencies)
	if len(issues) == 0 {
		fmt.Fprintln(out, "No issues found ✅")
		return nil
	}
	for _, issue := range issues {
		fmt.Fprintf(out, "[%s] %s\n", strings.ToUpper(issue.Severity), issue.Message)
	}
	return errChecksFailed
}

func runValidate(ctx context.Context, args []string, out io.Writer) error {
	fs := newFlagSet("validate", out)
	catalogPath := fs.String("catalog", "", "catalog file to validate")
	appPath := fs.String("app", "", "catalog to validate together with the bot configuration")
	watch := fs.Bool("watch", false, "re-validate whenever the file changes")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if (*catalogPath == "") == (*appPath == "") {
		return errors.New("exactly one of --catalog or --app is required")
	}

	var check func(path string) (*validationReport, error)
	path := *catalogPath
	if path != "" {
		check = validateCatalog
	} else {
		path = *appPath
		cfg, err := loadConfig("")
		if err != nil {
			return err
		}
		check = func(p string) (*validationReport, error) { return validateApp(cfg, p) }
	}

	if *watch {
		return watchValidation(ctx, path, check, out)
	}
	report, err := check(path)
	if err != nil {
		return err
	}
	report.write(out)
	if !report.ok() {
		return errChecksFailed
	}
	return nil
}

// validationReport 一次校验的输出
type validationReport struct {
	header  string
	success string
	issues  []string
}

func (r *validationReport) ok() bool { return len(r.issues) == 0 }

func (r *validationReport) write(out io.Writer) {
	if r.ok() {
		fmt.Fprintln(out, r.success)
		return
	}
	fmt.Fprintln(out, r.header)
	for _, issue := range r.issues {
		fmt.Fprintf(out, "- %s\n", issue)
	}
}

func validateCatalog(path string) (*validationReport, error) {
	issues, err := catalog.ValidateFile(path)
	if err != nil {
		return nil, err
	}
	return &validationReport{header: "Catalog errors:", success: "Catalog is valid ✅", issues: issues}, nil
}

func validateApp(cfg *Config, path string) (*validationReport, error) {
	cat, currencies, err := bootstrap(cfg, path)
	if err != nil {
		return nil, err
	}
	rules := catalog.DropRules{
		BaseCooldownSeconds: cfg.Drop.BaseCooldownSeconds,
		MaxCardsPerDrop:     cfg.Drop.MaxCardsPerDrop,
		RarityWeights:       cfg.Drop.RarityWeights,
	}
	issues := catalog.ValidateApp(cat, currencies, rules, filepath.Dir(path))
	return &validationReport{
		header:  "Configuration errors found:",
		success: "Bot configuration is valid ✅",
		issues:  issues,
	}, nil
}

// watchValidation 首次校验后监听文件变化，直到收到退出信号
func watchValidation(ctx context.Context, path string, check func(string) (*validationReport, error), out io.Writer) error {
	w, err := config.NewWatcher[validationReport](path, check, func(err error) {
		fmt.Fprintf(out, "validation failed: %v\n", err)
	})
	if err != nil {
		return err
	}
	defer w.Close()

	w.Current().write(out)
	w.OnChange(func(r *validationReport) {
		fmt.Fprintf(out, "%s changed\n", path)
		r.write(out)
	})

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-sigCtx.Done()
	return nil
}

func runToken(_ context.Context, args []string, out io.Writer) error {
	fs := newFlagSet("token", out)
	adminID := fs.Int64("admin-id", 0, "administrator user id")
	username := fs.String("username", "", "name stored in the token")
	path := fs.String("config", "", "config file (defaults to $CARDFORGE_CONFIG)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*path)
	if err != nil {
		return err
	}
	if !cfg.Admin.IsAdmin(*adminID) {
		return errors.Newf("user %d is not listed in CARDFORGE_ADMIN_IDS", *adminID)
	}
	if cfg.JWT.SecretKey == "" {
		return errors.New("jwt.secret_key is not configured")
	}
	m, err := security.NewJWTManager(&cfg.JWT)
	if err != nil {
		return err
	}
	token, err := m.GenerateToken(*adminID, *username)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, token)
	return nil
}

func sortedCodes(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
