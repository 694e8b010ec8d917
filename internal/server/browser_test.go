package server

import (
	"context"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/chromedp/chromedp"
)

// newBrowser starts headless Chrome. Browser tests only run when
// MCPW_BROWSER_TESTS=1 since they need a local Chrome install.
func newBrowser(t *testing.T) (context.Context, context.CancelFunc) {
	t.Helper()
	if os.Getenv("MCPW_BROWSER_TESTS") != "1" {
		t.Skip("set MCPW_BROWSER_TESTS=1 to run browser tests")
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	ctx, ctxCancel := chromedp.NewContext(allocCtx)
	ctx, timeoutCancel := context.WithTimeout(ctx, 30*time.Second)

	return ctx, func() {
		timeoutCancel()
		ctxCancel()
		allocCancel()
	}
}

func TestBrowser_EchoRoundTrip(t *testing.T) {
	ctx, cancel := newBrowser(t)
	defer cancel()

	tools := newToolServer(t)
	portal := httptest.NewServer(New(newTestApp(t)).Handler())
	defer portal.Close()

	var result string
	err := chromedp.Run(ctx,
		chromedp.Navigate(portal.URL+"/"),
		chromedp.WaitVisible(`[data-testid="server-url"]`, chromedp.ByQuery),
		chromedp.SetValue(`[data-testid="server-url"]`, tools.URL, chromedp.ByQuery),
		chromedp.Click(`[data-testid="connect"]`, chromedp.ByQuery),
		chromedp.WaitVisible(`[data-testid="tool-echo"]`, chromedp.ByQuery),
		chromedp.Click(`[data-testid="tool-echo"]`, chromedp.ByQuery),
		chromedp.WaitVisible(`[data-testid="field-msg"]`, chromedp.ByQuery),
		chromedp.SetValue(`[data-testid="field-msg"]`, "Hello World", chromedp.ByQuery),
		chromedp.Click(`[data-testid="run"]`, chromedp.ByQuery),
		chromedp.WaitVisible(`[data-testid="output-result"]`, chromedp.ByQuery),
		chromedp.Text(`[data-testid="output-result"]`, &result, chromedp.ByQuery),
	)
	if err != nil {
		t.Fatalf("browser flow failed: %v", err)
	}
	if !strings.Contains(result, "Echo: Hello World") {
		t.Errorf("expected echo result, got %q", result)
	}
}

func TestBrowser_ConnectFailureShowsError(t *testing.T) {
	ctx, cancel := newBrowser(t)
	defer cancel()

	portal := httptest.NewServer(New(newTestApp(t)).Handler())
	defer portal.Close()

	var msg string
	err := chromedp.Run(ctx,
		chromedp.Navigate(portal.URL+"/"),
		chromedp.WaitVisible(`[data-testid="server-url"]`, chromedp.ByQuery),
		chromedp.SetValue(`[data-testid="server-url"]`, "http://127.0.0.1:1", chromedp.ByQuery),
		chromedp.Click(`[data-testid="connect"]`, chromedp.ByQuery),
		chromedp.WaitVisible(`[data-testid="connect-error"]`, chromedp.ByQuery),
		chromedp.Text(`[data-testid="connect-error"]`, &msg, chromedp.ByQuery),
	)
	if err != nil {
		t.Fatalf("browser flow failed: %v", err)
	}
	if !strings.Contains(msg, "Failed to connect to MCP server") {
		t.Errorf("expected connection error, got %q", msg)
	}
}
