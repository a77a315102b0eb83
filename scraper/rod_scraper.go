package scraper

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// innerHTMLScript returns the content the phone extractor runs on
const innerHTMLScript = `() => document.querySelector("html").innerHTML`

// RodOptions configures the headless browser
type RodOptions struct {
	Headless bool
	// Stealth hides the usual headless fingerprints
	Stealth bool
	// Block lists resource types that are never loaded (image, media, font, stylesheet)
	Block []string
	// Bin is the browser executable, looked up in the usual places when empty
	Bin         string
	UserDataDir string
	// NavigationTimeout bounds a single Open call
	NavigationTimeout time.Duration
}

// RodBrowser is a launched headless browser
type RodBrowser struct {
	browser *rod.Browser
	opts    RodOptions
}

// NewRodBrowser launches a browser
func NewRodBrowser(opts RodOptions) (*RodBrowser, error) {
	if opts.NavigationTimeout <= 0 {
		opts.NavigationTimeout = 60 * time.Second
	}

	l := launcher.New().
		Headless(opts.Headless).
		Set("disable-blink-features", "AutomationControlled").
		NoSandbox(true).
		Leakless(false). // Disable leakless to avoid antivirus issues
		// Additional flags for Linux compatibility
		Set("disable-dev-shm-usage").
		Set("disable-gpu").
		Set("no-first-run").
		Set("no-default-browser-check").
		Set("disable-extensions").
		Set("disable-background-networking").
		Set("disable-breakpad").
		Set("disable-default-apps").
		Set("disable-popup-blocking").
		Set("disable-sync").
		Set("disable-translate").
		Set("mute-audio").
		Set("no-zygote").
		Set("disable-features", "TranslateUI,BlinkGenPropertyTrees")

	if opts.UserDataDir != "" {
		if err := os.MkdirAll(opts.UserDataDir, 0755); err != nil {
			log.Warnf("Failed to create browser data directory %s: %v", opts.UserDataDir, err)
		} else {
			l = l.UserDataDir(opts.UserDataDir)
		}
	}

	if bin := findBrowser(opts.Bin); bin != "" {
		l = l.Bin(bin)
	}

	browserURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w\n\nNote: On Linux, you may need to install Chromium dependencies:\n  apt-get update && apt-get install -y chromium chromium-sandbox || yum install -y chromium", err)
	}

	browser := rod.New().ControlURL(browserURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	return &RodBrowser{browser: browser, opts: opts}, nil
}

// findBrowser returns bin, or the first system Chrome/Chromium found.
// An empty result lets rod download its own Chromium.
func findBrowser(bin string) string {
	if bin != "" {
		return bin
	}

	paths := []string{
		"/usr/bin/google-chrome",
		"/usr/bin/google-chrome-stable",
		"/usr/bin/chromium",
		"/usr/bin/chromium-browser",
		"/snap/bin/chromium",
		`C:\Program Files\Google\Chrome\Application\chrome.exe`,
		`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
	}
	if username := os.Getenv("USERNAME"); username != "" {
		paths = append(paths, `C:\Users\`+username+`\AppData\Local\Google\Chrome\Application\chrome.exe`)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// Close closes the browser
func (rb *RodBrowser) Close() error {
	if rb.browser != nil {
		return rb.browser.Close()
	}
	return nil
}

// NewTab opens the tab used for the whole run
func (rb *RodBrowser) NewTab() (*RodTab, error) {
	var page *rod.Page
	var err error

	if rb.opts.Stealth {
		page, err = stealth.Page(rb.browser)
	} else {
		page, err = rb.browser.Page(proto.TargetCreateTarget{URL: ""})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create tab: %w", err)
	}

	tab := &RodTab{page: page, timeout: rb.opts.NavigationTimeout}

	if len(rb.opts.Block) > 0 {
		tab.router = blockResources(page, rb.opts.Block)
	}

	return tab, nil
}

// RodTab implements Tab on a rod page
type RodTab struct {
	page    *rod.Page
	router  *rod.HijackRouter
	timeout time.Duration
}

// Open implements Tab. The status is the one of the main frame document.
func (t *RodTab) Open(ctx context.Context, url string) (int, error) {
	navCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	page := t.page.Context(navCtx)

	status := 0
	waitResponse := page.EachEvent(func(e *proto.NetworkResponseReceived) bool {
		if e.Type != proto.NetworkResourceTypeDocument || e.Response == nil {
			return false
		}
		if e.FrameID != "" && e.FrameID != t.page.FrameID {
			return false
		}
		status = e.Response.Status
		return true
	})

	if err := page.Navigate(url); err != nil {
		return 0, fmt.Errorf("failed to navigate: %w", err)
	}
	waitResponse()

	if err := page.WaitLoad(); err != nil {
		log.Warnf("%s did not finish loading: %v", url, err)
	}

	if status == 0 && navCtx.Err() != nil {
		return 0, fmt.Errorf("navigation timed out after %s", t.timeout)
	}

	return status, nil
}

// Wait implements Tab
func (t *RodTab) Wait(ctx context.Context, d time.Duration) error {
	return sleep(ctx, d)
}

// Evaluate implements Tab. The extraction itself runs in Go on the
// serialized document, so it never touches page state.
func (t *RodTab) Evaluate(ctx context.Context, fn func(content string) []string) ([]string, error) {
	res, err := t.page.Context(ctx).Eval(innerHTMLScript)
	if err != nil {
		return nil, fmt.Errorf("failed to read page content: %w", err)
	}
	return fn(res.Value.Str()), nil
}

// Close closes the tab
func (t *RodTab) Close() error {
	if t.router != nil {
		if err := t.router.Stop(); err != nil {
			log.Warnf("Failed to stop request router: %v", err)
		}
	}
	return t.page.Close()
}

// blockResources fails every request whose resource type is listed
func blockResources(page *rod.Page, types []string) *rod.HijackRouter {
	blocked := make(map[string]bool, len(types))
	for _, t := range types {
		blocked[normalizeResourceType(t)] = true
	}

	router := page.HijackRequests()
	router.MustAdd("*", func(ctx *rod.Hijack) {
		if blocked[strings.ToLower(string(ctx.Request.Type()))] {
			ctx.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		ctx.ContinueRequest(&proto.FetchContinueRequest{})
	})

	go router.Run()

	return router
}

// normalizeResourceType maps config names (images, fonts) to CDP resource types
func normalizeResourceType(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "images":
		return "image"
	case "fonts":
		return "font"
	case "stylesheets":
		return "stylesheet"
	}
	return name
}
