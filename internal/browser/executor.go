// Package browser implements the BrowserExecutor: it drives a single
// Chrome instance via chromedp/CDP and turns an Action into an
// ActionResult. It owns the only browser-automation transport in
// zentest — everything above it (AgenticDriver, ScriptReplayer) talks
// to the page exclusively through Execute.
package browser

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/JustGoscha/zentest/internal/config"
	"github.com/JustGoscha/zentest/internal/logging"
)

// Permission/availability errors surfaced identically by `doctor` and
// by run's own preflight check.
var (
	ErrScreenRecordingPermission = errors.New("chrome requires screen recording permission")
	ErrAccessibilityPermission   = errors.New("chrome requires accessibility permission")
	ErrChromeNotFound            = errors.New("chrome browser not found")
)

// Executor owns one Chrome instance for the duration of a suite run.
type Executor struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	ctx         context.Context
	cancel      context.CancelFunc

	baseURL  string
	viewport config.Viewport
}

// New launches Chrome per cfg and returns an Executor ready to Navigate.
func New(ctx context.Context, cfg *config.Config) (*Executor, error) {
	chromePath, err := findChrome()
	if err != nil {
		return nil, err
	}
	logging.Info("using chrome at %s", chromePath)

	headless := cfg.ResolveHeadless(false)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.ExecPath(chromePath),
		chromedp.Flag("headless", headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("use-mock-keychain", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(cfg.Viewport.Width, cfg.Viewport.Height),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)

	browserCtx, cancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, v ...interface{}) {
			logging.Debug("[chrome] "+format, v...)
		}),
	)

	if err := chromedp.Run(browserCtx); err != nil {
		allocCancel()
		cancel()
		return nil, DetectPermissionError(fmt.Errorf("failed to start chrome: %w", err))
	}

	return &Executor{
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		ctx:         browserCtx,
		cancel:      cancel,
		baseURL:     cfg.EffectiveBaseURL(),
		viewport:    cfg.Viewport,
	}, nil
}

// Close releases the Chrome process and its allocator.
func (e *Executor) Close() {
	if e.cancel != nil {
		e.cancel()
	}
	if e.allocCancel != nil {
		e.allocCancel()
	}
}

// Navigate resolves urlPath against the base URL (or uses it as-is if
// already absolute) and loads it, waiting for the body to render.
func (e *Executor) Navigate(ctx context.Context, urlPath string) error {
	target, err := e.resolveURL(urlPath)
	if err != nil {
		return fmt.Errorf("resolve url: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	err = chromedp.Run(runCtx,
		chromedp.Navigate(target),
		chromedp.WaitVisible("body", chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("navigate to %s: %w", target, err)
	}
	return nil
}

func (e *Executor) resolveURL(urlPath string) (string, error) {
	if urlPath == "" {
		return e.baseURL, nil
	}
	if u, err := url.Parse(urlPath); err == nil && u.Scheme != "" {
		return urlPath, nil
	}
	base, err := url.Parse(e.baseURL)
	if err != nil {
		return "", err
	}
	relative, err := url.Parse(urlPath)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(relative).String(), nil
}

// WaitForNetworkIdle is best-effort: it polls document.readyState plus
// a short settle window and never itself errors on timeout (spec §4.1).
func (e *Executor) WaitForNetworkIdle(ctx context.Context, timeout time.Duration) {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	script := `document.readyState === 'complete' || document.readyState === 'interactive'`
	for {
		var ready bool
		if err := chromedp.Run(runCtx, chromedp.Evaluate(script, &ready)); err != nil {
			return
		}
		if ready {
			time.Sleep(300 * time.Millisecond)
			return
		}
		select {
		case <-runCtx.Done():
			return
		case <-time.After(100 * time.Millisecond):
		}
	}
}

// Screenshot captures the current viewport as PNG.
func (e *Executor) Screenshot(ctx context.Context) ([]byte, error) {
	runCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	var buf []byte
	if err := chromedp.Run(runCtx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, fmt.Errorf("screenshot: %w", err)
	}
	return buf, nil
}

func findChrome() (string, error) {
	var paths []string
	switch runtime.GOOS {
	case "darwin":
		paths = []string{
			"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
			"/Applications/Chromium.app/Contents/MacOS/Chromium",
			"/Applications/Brave Browser.app/Contents/MacOS/Brave Browser",
		}
	case "linux":
		paths = []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser"}
	case "windows":
		paths = []string{
			`C:\Program Files\Google\Chrome\Application\chrome.exe`,
			`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
		}
	}

	for _, path := range paths {
		if runtime.GOOS == "darwin" {
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
			continue
		}
		if p, err := exec.LookPath(path); err == nil {
			return p, nil
		}
	}
	if p, err := exec.LookPath("chrome"); err == nil {
		return p, nil
	}
	return "", ErrChromeNotFound
}

// CheckPermissions is used by `doctor`: on macOS it starts a throwaway
// headless Chrome and navigates to a data: URL, surfacing Screen
// Recording/Accessibility permission errors before a real run hits them.
func CheckPermissions() error {
	if runtime.GOOS != "darwin" {
		return nil
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("use-mock-keychain", true),
	)
	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)
	defer cancel()

	ctx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	ctx, cancel = context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	err := chromedp.Run(ctx,
		chromedp.Navigate("data:text/html,<html><body><h1>permission check</h1></body></html>"),
		chromedp.WaitVisible("h1", chromedp.ByQuery),
	)
	if err != nil {
		return DetectPermissionError(err)
	}
	return nil
}

// DetectPermissionError classifies a raw chromedp/CDP error as one of
// the macOS permission sentinels, or returns it unchanged.
func DetectPermissionError(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "screen recording"), strings.Contains(msg, "screencapture"), strings.Contains(msg, "cannot capture"):
		return ErrScreenRecordingPermission
	case strings.Contains(msg, "accessibility"), strings.Contains(msg, "ui element"):
		return ErrAccessibilityPermission
	case strings.Contains(msg, "executable not found"), strings.Contains(msg, "chrome not found"):
		return ErrChromeNotFound
	default:
		return err
	}
}

// PermissionInstructions returns platform-specific remediation text for
// an error returned by CheckPermissions/DetectPermissionError.
func PermissionInstructions(err error) string {
	switch {
	case errors.Is(err, ErrScreenRecordingPermission):
		return "Chrome needs Screen Recording permission.\n" +
			"System Settings -> Privacy & Security -> Screen Recording -> enable Google Chrome, then re-run."
	case errors.Is(err, ErrAccessibilityPermission):
		return "Chrome needs Accessibility permission.\n" +
			"System Settings -> Privacy & Security -> Accessibility -> enable Google Chrome, then re-run."
	case errors.Is(err, ErrChromeNotFound):
		return "Google Chrome was not found. Install it from https://www.google.com/chrome/"
	default:
		return fmt.Sprintf("browser error: %v", err)
	}
}
