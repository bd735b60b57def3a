package e2e

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/nbenliogludev/paypal-sandbox-triage/internal/acceptance"
	"github.com/nbenliogludev/paypal-sandbox-triage/internal/browser"
	"github.com/nbenliogludev/paypal-sandbox-triage/internal/checkout"
	"github.com/nbenliogludev/paypal-sandbox-triage/internal/config"
	"github.com/nbenliogludev/paypal-sandbox-triage/internal/debuglog"
	"github.com/nbenliogludev/paypal-sandbox-triage/internal/report"
	"github.com/nbenliogludev/paypal-sandbox-triage/internal/shoplog"
	"github.com/nbenliogludev/paypal-sandbox-triage/internal/triage"
)

var runReport *report.Report

func TestMain(m *testing.M) {
	var summarizer report.Summarizer
	if s, err := report.NewOpenAISummarizer(); err == nil {
		summarizer = s
	}
	runReport = report.New("paypal sandbox acceptance", summarizer)

	code := m.Run()

	if len(runReport.Verdicts()) > 0 {
		_ = runReport.Print(context.Background(), os.Stdout)
	}
	os.Exit(code)
}

type sandboxRun struct {
	cfg     *config.Config
	mgr     *browser.Manager
	flow    *checkout.Flow
	harness *acceptance.Harness
}

// startSandboxRun opens a real browser against the shop in triage.yaml and
// the PayPal sandbox. It skips without credentials.
func startSandboxRun(t *testing.T) *sandboxRun {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping e2e test in short mode")
	}

	cfg, err := config.Load(os.Getenv("PAYPAL_TRIAGE_CONFIG"))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if _, err := cfg.MustCredentials(
		config.BuyerLogin, config.BuyerPassword, config.BuyerFirstName,
		config.ShopLogin, config.ShopPassword,
	); err != nil {
		t.Skipf("sandbox credentials missing: %v", err)
	}

	rules, err := triage.LoadRules(cfg.RulesFile)
	if err != nil {
		t.Fatalf("load rules: %v", err)
	}

	bcfg := browser.DefaultConfig()
	bcfg.Headless = cfg.Browser.Headless
	bcfg.UserDataDir = cfg.Browser.UserDataDir
	bcfg.Timeout = cfg.Browser.Timeout
	mgr, err := browser.NewManager(bcfg)
	if err != nil {
		t.Fatalf("failed to init browser: %v", err)
	}
	t.Cleanup(mgr.Close)

	classifier, err := triage.New(mgr, rules)
	if err != nil {
		t.Fatalf("triage rules: %v", err)
	}

	testLog, err := debuglog.OpenTestLog(cfg.LogDir, config.DefaultTestLogName)
	if err != nil {
		t.Fatalf("open test log: %v", err)
	}
	t.Cleanup(func() { _ = testLog.Close() })

	logger, err := debuglog.New(testing.Verbose())
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}

	shop := shoplog.NewStore(filepath.Join(cfg.LogDir, cfg.PaymentLog))
	if err := shop.Clean(); err != nil {
		t.Fatalf("clean payment log: %v", err)
	}

	return &sandboxRun{
		cfg:  cfg,
		mgr:  mgr,
		flow: checkout.NewFlow(mgr, cfg),
		harness: &acceptance.Harness{
			Classifier: classifier,
			Log:        testLog,
			Report:     runReport,
			Shop:       shop,
			Logger:     logger.With(zap.String("test", t.Name())),
		},
	}
}

// step runs one checkout step and hands a failure to the harness. A timed
// out step archives the page first so the retry starts from a clean log.
func (r *sandboxRun) step(t *testing.T, name string, fn func(ctx context.Context) error) {
	t.Helper()
	err := fn(t.Context())
	if err == nil {
		return
	}
	err = fmt.Errorf("%s:  %w", name, err)
	t.Logf("step %q failed on %s", name, r.mgr.URL())

	if acceptance.TimedOut(err.Error()) {
		if snap, snapErr := r.mgr.Snapshot(t.Context()); snapErr == nil {
			if _, rotErr := r.harness.BeforeRetry(err.Error(), snap); rotErr != nil {
				t.Logf("archive page before retry: %v", rotErr)
			}
		}
	}
	r.harness.Check(t, err)
}

func TestSandbox_ExpressCheckout(t *testing.T) {
	r := startSandboxRun(t)

	r.step(t, "open shop", func(ctx context.Context) error {
		if err := r.mgr.Goto(ctx, strings.TrimRight(r.cfg.ShopURL, "/")+"/index.php?cl=search&searchparam=1001"); err != nil {
			return err
		}
		if err := r.mgr.WaitForLoad(ctx, browser.LoadStateNetworkidle); err != nil {
			return err
		}
		return r.flow.WaitForShop(ctx)
	})
	r.step(t, "add to basket", r.flow.AddToBasket)
	r.step(t, "login in basket", func(ctx context.Context) error {
		return r.flow.LoginToShopFrontend(ctx, "", "", checkout.DefaultCart)
	})
	r.step(t, "basket step two", r.flow.ClickNextStepInShopBasket)
	r.step(t, "change country", func(ctx context.Context) error {
		return r.flow.ChangeCountryInBasketStepTwo(ctx, "Germany")
	})
	r.step(t, "shipping methods", func(ctx context.Context) error {
		return r.flow.AssertShippingMethodsDisplayed(ctx)
	})
	r.step(t, "back to cart", r.flow.ClickFirstStepInShopBasket)
	r.step(t, "express checkout", func(ctx context.Context) error {
		return r.flow.SelectExpressCheckout(ctx, "")
	})
	r.step(t, "pay with PayPal", func(ctx context.Context) error {
		return r.flow.PayWithPayPal(ctx, false)
	})
	r.step(t, "back in shop", func(ctx context.Context) error {
		return r.flow.WaitForText(ctx, "Thank you", 10)
	})

	entries, err := r.harness.Shop.Entries()
	if err != nil {
		t.Fatalf("read payment log: %v", err)
	}
	if err := shoplog.VerifyLastExchange(entries,
		map[string]string{"METHOD": "DoExpressCheckoutPayment"},
		map[string]string{"ACK": "Success"},
	); err != nil {
		t.Fatalf("payment log: %v", err)
	}
}
