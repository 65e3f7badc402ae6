// Seed generator — sends randomized tracker events to a running ingest
// endpoint in traffic waves of varying intensity, to simulate unpredictable
// user activity.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/DanielKusyDev/posthog-session-insights/pkg/models"
)

// wave is one phase of the traffic pattern: a random rate drawn from
// [minRPS, maxRPS], held for a random duration from [minDur, maxDur].
type wave struct {
	minRPS, maxRPS float64
	minDur, maxDur time.Duration
}

var waves = []wave{
	{15, 25, 8 * time.Second, 15 * time.Second},  // fast burst
	{3, 7, 10 * time.Second, 20 * time.Second},   // slow period
	{1, 2, 5 * time.Second, 10 * time.Second},    // very slow
	{20, 35, 8 * time.Second, 12 * time.Second},  // high traffic
	{5, 10, 8 * time.Second, 15 * time.Second},   // medium
	{1, 3, 5 * time.Second, 8 * time.Second},     // slow again
	{25, 40, 10 * time.Second, 15 * time.Second}, // peak traffic
}

var users = []string{"user_alice", "user_bob", "user_carol", "user_dave", "user_eve"}

var pages = []struct {
	path  string
	title string
}{
	{"/", "Home"},
	{"/pricing", "Pricing"},
	{"/checkout", "Checkout"},
	{"/checkout/payment", "Payment"},
	{"/products/widget-pro", "Widget Pro"},
	{"/docs/getting-started", "Getting Started"},
	{"/settings/billing", "Billing Settings"},
}

var elementChains = []string{
	`button.btn.btn-primary:text="Add to cart"attr__data-ph-capture-attribute-product-id="SKU-1001"attr__data-ph-capture-attribute-product-name="Widget Pro";div.card;main;body`,
	`a.nav-link:text="Pricing";nav.navbar;header;body`,
	`button.btn:text="Pay now"attr__data-ph-capture-attribute-form-id="payment";form.checkout-form;div;main;body`,
	`input.form-control:attr__alt="Email address";form.signup-form;div;body`,
}

var customEvents = []string{"product_clicked", "plan_upgrade_started", "plan_upgrade_completed", "form_submitted"}

type stats struct {
	sent    atomic.Int64
	success atomic.Int64
	failed  atomic.Int64
}

type generator struct {
	rng *rand.Rand
	mu  sync.Mutex

	// one live session id per user, rotated occasionally
	sessions map[string]string
}

func newGenerator(seed int64) *generator {
	return &generator{
		rng:      rand.New(rand.NewSource(seed)),
		sessions: make(map[string]string),
	}
}

func (g *generator) randomEvent() models.PostHogEvent {
	g.mu.Lock()
	defer g.mu.Unlock()

	user := users[g.rng.Intn(len(users))]
	session, ok := g.sessions[user]
	if !ok || g.rng.Float64() < 0.05 {
		session = fmt.Sprintf("sess_%s_%d", user, g.rng.Int31())
		g.sessions[user] = session
	}

	page := pages[g.rng.Intn(len(pages))]
	props := models.Properties{
		"$session_id":  session,
		"$pathname":    page.path,
		"$current_url": "https://shop.example.com" + page.path,
		"title":        page.title,
		"$browser":     "Chrome",
		"$device_type": "Desktop",
	}

	event := models.PostHogEvent{
		DistinctID: user,
		Properties: props,
		Timestamp:  time.Now().UTC(),
	}

	switch roll := g.rng.Float64(); {
	case roll < 0.40:
		event.Event = "$pageview"
	case roll < 0.50:
		event.Event = "$pageleave"
	case roll < 0.55:
		event.Event = "$rageclick"
		chain := elementChains[g.rng.Intn(len(elementChains))]
		event.ElementsChain = &chain
	case roll < 0.85:
		event.Event = "$autocapture"
		chain := elementChains[g.rng.Intn(len(elementChains))]
		event.ElementsChain = &chain
		if g.rng.Float64() < 0.2 {
			props["$event_type"] = "submit"
		} else {
			props["$event_type"] = "click"
		}
	default:
		event.Event = customEvents[g.rng.Intn(len(customEvents))]
		props["plan_name"] = "Pro"
		props["product_name"] = "Widget Pro"
		props["form_name"] = "checkout"
	}
	return event
}

func sendEvent(client *http.Client, url string, event models.PostHogEvent, st *stats) {
	defer st.sent.Add(1)

	body, err := json.Marshal(map[string]any{"event": event})
	if err != nil {
		st.failed.Add(1)
		return
	}

	resp, err := client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		st.failed.Add(1)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusAccepted {
		st.success.Add(1)
	} else {
		st.failed.Add(1)
		slog.Warn("Event rejected", "status", resp.StatusCode)
	}
}

func main() {
	url := flag.String("url", "http://127.0.0.1:8080/ingest", "ingest endpoint URL")
	duration := flag.Duration("duration", 2*time.Minute, "how long to generate traffic")
	concurrency := flag.Int("concurrency", 50, "maximum in-flight requests")
	constantRPS := flag.Float64("rps", 0, "constant request rate; 0 uses traffic waves")
	seed := flag.Int64("seed", time.Now().UnixNano(), "random seed")
	flag.Parse()

	slog.Info("Starting traffic generator",
		"url", *url,
		"duration", *duration,
		"concurrency", *concurrency,
		"waves", *constantRPS == 0)

	gen := newGenerator(*seed)
	rng := rand.New(rand.NewSource(*seed + 1))
	client := &http.Client{Timeout: 10 * time.Second}
	st := &stats{}

	queue := make(chan models.PostHogEvent)
	var wg sync.WaitGroup
	for i := 0; i < *concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for event := range queue {
				sendEvent(client, *url, event, st)
			}
		}()
	}

	deadline := time.Now().Add(*duration)
	waveIndex := 0
	rps := *constantRPS
	waveEnd := deadline
	if rps == 0 {
		w := waves[waveIndex]
		rps = w.minRPS + rng.Float64()*(w.maxRPS-w.minRPS)
		waveEnd = time.Now().Add(w.minDur + time.Duration(rng.Float64()*float64(w.maxDur-w.minDur)))
		slog.Info("Starting wave", "wave", waveIndex+1, "rps", fmt.Sprintf("%.1f", rps))
	}

	start := time.Now()
	for time.Now().Before(deadline) {
		if *constantRPS == 0 && time.Now().After(waveEnd) {
			waveIndex = (waveIndex + 1) % len(waves)
			w := waves[waveIndex]
			rps = w.minRPS + rng.Float64()*(w.maxRPS-w.minRPS)
			waveEnd = time.Now().Add(w.minDur + time.Duration(rng.Float64()*float64(w.maxDur-w.minDur)))
			slog.Info("Switching wave", "wave", waveIndex+1, "rps", fmt.Sprintf("%.1f", rps))
		}

		queue <- gen.randomEvent()
		time.Sleep(time.Duration(float64(time.Second) / rps))
	}

	close(queue)
	wg.Wait()

	elapsed := time.Since(start)
	sent := st.sent.Load()
	slog.Info("Traffic generation complete",
		"sent", sent,
		"success", st.success.Load(),
		"failed", st.failed.Load(),
		"elapsed", elapsed.Round(time.Second),
		"avg_rps", fmt.Sprintf("%.1f", float64(sent)/elapsed.Seconds()))

	if st.failed.Load() > 0 {
		os.Exit(1)
	}
}
