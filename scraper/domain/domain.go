package domain

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"property-scraper/config"
	"property-scraper/geocode"
	"property-scraper/models"
	"property-scraper/utils"
)

const baseURL = "https://www.domain.com.au"

// Selectors for the listing search results page.
const (
	listingSelector        = ".css-1pmltjx"
	priceSelector          = `p[data-testid="listing-card-price"]`
	typeSelector           = ".css-11n8uyu"
	addressLine1Selector   = `span[data-testid="address-line1"]`
	addressLine2Selector   = `span[data-testid="address-line2"]`
	featureSelector        = ".css-lvv8is"
	paginatorSelector      = `a[data-testid="paginator-navigation-button"]`
	paginatorLabelSelector = ".css-16q9xmc"
)

// errStateMismatch marks a listing outside the configured state. It is a
// filter outcome, not a fault: the record is skipped without retry.
var errStateMismatch = errors.New("listing outside target state")

// cardReader resolves the listing container at a positional index and reads
// its raw text fields. It must re-resolve the container fresh on every call;
// a nil card means the index no longer resolves (the page replaced its
// element set under us).
type cardReader func(index int) (*rawCard, error)

// Scraper drives one browser session over the listing site, one postcode at
// a time. Page loads, element reads and clicks are strictly sequential; only
// geocoding of already-extracted records runs through the worker pool.
type Scraper struct {
	cfg      *config.Config
	logger   *utils.Logger
	geocoder geocode.Resolver
	pool     *utils.WorkerPool
	retry    *utils.RetryConfig

	// Browser steps are fields so the page walk can run against stand-ins.
	navigate func(ctx context.Context, url string) error
	listings func(ctx context.Context) (int, error)
	advance  func(ctx context.Context) bool
}

// New creates a ready-to-use listing Scraper.
func New(cfg *config.Config, logger *utils.Logger, geocoder geocode.Resolver) *Scraper {
	s := &Scraper{
		cfg:      cfg,
		logger:   logger,
		geocoder: geocoder,
		pool:     utils.NewWorkerPool(cfg.MaxConcurrency, cfg.RateLimitMs),
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
	}
	s.navigate = s.navigatePage
	s.listings = s.waitForListings
	s.advance = s.clickNext
	return s
}

// Collect scrapes every postcode in order for the given mode and returns the
// geocoded records in postcode-list order. A postcode that fails or yields
// nothing is logged and skipped; it never aborts the run.
func (s *Scraper) Collect(parent context.Context, mode models.Mode, postcodes []int) ([]*models.ListingRecord, error) {
	s.logger.Info("[scraper] Starting %s collection — %d postcodes, page limit %d",
		mode, len(postcodes), s.cfg.PageLimit)

	chromeBin := findChromeBinary(s.cfg.ChromeBin)
	s.logger.Info("[scraper] Using browser binary: %s", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 "+
			"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelBrowser()

	// Start the browser up front so a missing binary fails the run, not the
	// first postcode.
	if err := chromedp.Run(browserCtx); err != nil {
		return nil, fmt.Errorf("scraper: start browser: %w", err)
	}

	var all []*models.ListingRecord
	for _, postcode := range postcodes {
		extracted := s.collectPostcode(browserCtx, mode, postcode)
		located := s.geocodeRecords(parent, postcode, extracted)
		all = append(all, located...)

		s.logger.Info("[scraper] Postcode %04d done — %d extracted, %d geocoded, %d total so far",
			postcode, len(extracted), len(located), len(all))
	}

	s.logger.Info("[scraper] %s collection complete — %d records", mode, len(all))
	return all, nil
}

// collectPostcode walks the result pages for one postcode. Every failure
// mode here (navigation, load timeout, missing next control, page budget)
// ends the postcode and returns whatever was accumulated.
func (s *Scraper) collectPostcode(ctx context.Context, mode models.Mode, postcode int) []*models.ListingRecord {
	url := s.listingURL(mode, postcode)
	s.logger.Info("[scraper] Fetching postcode %04d — %s", postcode, url)

	err := s.retry.Do(fmt.Sprintf("navigate-postcode-%04d", postcode), func() error {
		return s.navigate(ctx, url)
	})
	if err != nil {
		s.logger.Error("[scraper] Postcode %04d navigation failed: %v", postcode, err)
		return nil
	}

	read := func(index int) (*rawCard, error) {
		var card *rawCard
		if err := chromedp.Run(ctx, chromedp.Evaluate(cardJS(index), &card)); err != nil {
			return nil, fmt.Errorf("read listing %d: %w", index, err)
		}
		return card, nil
	}

	var records []*models.ListingRecord
	for page := 1; page <= s.cfg.PageLimit; page++ {
		count, err := s.listings(ctx)
		if err != nil {
			s.logger.Warn("[scraper] Postcode %04d page %d never loaded: %v", postcode, page, err)
			break
		}
		if count == 0 {
			s.logger.Warn("[scraper] Postcode %04d page %d has no listings — stopping", postcode, page)
			break
		}

		records = append(records, s.extractPage(read, postcode, count)...)
		s.logger.Debug("[scraper] Postcode %04d page %d — %d containers, %d records so far",
			postcode, page, count, len(records))

		if page == s.cfg.PageLimit {
			s.logger.Info("[scraper] Postcode %04d reached page limit %d", postcode, s.cfg.PageLimit)
			break
		}
		if !s.advance(ctx) {
			break
		}
	}

	return records
}

func (s *Scraper) navigatePage(ctx context.Context, url string) error {
	return chromedp.Run(ctx, chromedp.Navigate(url))
}

// listingsReadyJS is truthy as soon as result containers exist, or once the
// document finished loading without any. An empty result page therefore
// reports its zero count right away instead of sitting out the full timeout.
var listingsReadyJS = fmt.Sprintf(
	`document.querySelectorAll(%q).length > 0 || document.readyState === 'complete'`,
	listingSelector)

var countListingsJS = fmt.Sprintf(`document.querySelectorAll(%q).length`, listingSelector)

// waitForListings polls until the page is ready, bounded by the configured
// page-load timeout, and returns the container count. Zero is a normal
// outcome: the page loaded and holds no listings.
func (s *Scraper) waitForListings(ctx context.Context) (int, error) {
	waitCtx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.PageLoadTimeoutS)*time.Second)
	defer cancel()

	var ready bool
	var count int
	err := chromedp.Run(waitCtx,
		chromedp.Poll(listingsReadyJS, &ready, chromedp.WithPollingInterval(250*time.Millisecond)),
		chromedp.Evaluate(countListingsJS, &count),
	)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// extractPage iterates the page's containers by positional index. Failures
// are per record: a bad listing is dropped and the rest still process.
func (s *Scraper) extractPage(read cardReader, postcode, count int) []*models.ListingRecord {
	records := make([]*models.ListingRecord, 0, count)

	for i := 0; i < count; i++ {
		rec, err := s.extractWithRetry(read, postcode, i)
		switch {
		case err == nil:
			records = append(records, rec)
		case errors.Is(err, errStateMismatch):
			s.logger.Debug("[scraper] Listing %d in %04d is interstate — skipped", i, postcode)
		default:
			s.logger.Warn("[scraper] Listing %d in %04d dropped: %v", i, postcode, err)
		}
	}
	return records
}

// extractWithRetry reads and extracts the listing at index. A stale
// container is re-read fresh up to the configured attempt budget; any other
// fault gives up on the record immediately.
func (s *Scraper) extractWithRetry(read cardReader, postcode, index int) (*models.ListingRecord, error) {
	var lastErr error

	for attempt := 1; attempt <= s.cfg.RecordMaxAttempts; attempt++ {
		card, err := read(index)
		if err != nil {
			return nil, err
		}
		if card == nil {
			lastErr = errStaleRecord
			s.logger.Debug("[scraper] Stale container at index %d, attempt %d/%d",
				index, attempt, s.cfg.RecordMaxAttempts)
			continue
		}

		_, state, err := splitAreaInfo(card.Area)
		if err != nil {
			return nil, err
		}
		if !strings.EqualFold(state, s.cfg.State) {
			return nil, errStateMismatch
		}

		return extractRecord(card, postcode)
	}

	return nil, fmt.Errorf("listing %d: %w", index, lastErr)
}

// clickNext finds the paginator control whose label contains "next", scrolls
// it into view and activates it. Returns false when there is no further page.
// The subsequent page's readiness is handled by the caller's listings wait.
func (s *Scraper) clickNext(ctx context.Context) bool {
	var clicked bool
	if err := chromedp.Run(ctx, chromedp.Evaluate(nextButtonJS, &clicked)); err != nil {
		s.logger.Warn("[scraper] Paginator lookup failed: %v", err)
		return false
	}
	if !clicked {
		s.logger.Debug("[scraper] No next control — last page")
		return false
	}
	return true
}

// geocodeRecords resolves coordinates for the extracted records through the
// rate-limited pool and drops any record the resolver cannot place.
func (s *Scraper) geocodeRecords(ctx context.Context, postcode int, records []*models.ListingRecord) []*models.ListingRecord {
	for _, rec := range records {
		r := rec
		s.pool.Submit(func() {
			coords, err := s.geocoder.Resolve(ctx, geocode.Query{
				StreetAddress: r.StreetAddress,
				AreaName:      r.AreaName,
				State:         r.State,
				Postcode:      r.Postcode,
			})
			if err != nil {
				s.logger.Warn("[scraper] Could not geocode %q in %04d: %v",
					r.StreetAddress, postcode, err)
				return
			}
			r.Latitude = coords.Latitude
			r.Longitude = coords.Longitude
			r.HasCoordinates = true
		})
	}
	s.pool.Wait()

	located := make([]*models.ListingRecord, 0, len(records))
	for _, r := range records {
		if r.HasCoordinates {
			located = append(located, r)
		}
	}
	return located
}

// listingURL builds the search URL for one postcode and mode.
func (s *Scraper) listingURL(mode models.Mode, postcode int) string {
	if mode == models.ModeSold {
		return fmt.Sprintf("%s/sold-listings/?excludepricewithheld=1&postcode=%d", baseURL, postcode)
	}
	exclude := 0
	if s.cfg.ExcludeTaken {
		exclude = 1
	}
	return fmt.Sprintf("%s/rent/?postcode=%d&excludedeposittaken=%d", baseURL, postcode, exclude)
}

// cardJS resolves the container at index and pulls its raw text fields.
// Returning null signals a stale index.
func cardJS(index int) string {
	return fmt.Sprintf(`
		(function() {
			var cards = document.querySelectorAll(%q);
			if (%d >= cards.length) return null;
			var card = cards[%d];

			function txt(sel) {
				var el = card.querySelector(sel);
				return el ? el.textContent.trim() : '';
			}

			var feats = [];
			var els = card.querySelectorAll(%q);
			for (var j = 0; j < els.length && j < 3; j++) {
				feats.push(els[j].textContent.trim());
			}

			return {
				price: txt(%q),
				type: txt(%q),
				address: txt(%q),
				area: txt(%q),
				features: feats
			};
		})()`,
		listingSelector, index, index, featureSelector,
		priceSelector, typeSelector, addressLine1Selector, addressLine2Selector)
}

// nextButtonJS locates a visible paginator control labelled "next"
// (case-insensitive), scrolls to it and clicks it. Evaluates to true when a
// click happened.
var nextButtonJS = fmt.Sprintf(`
	(function() {
		var buttons = document.querySelectorAll(%q);
		for (var i = 0; i < buttons.length; i++) {
			var label = buttons[i].querySelector(%q);
			var text = (label ? label.textContent : buttons[i].textContent) || '';
			if (text.toLowerCase().indexOf('next') === -1) continue;

			var rect = buttons[i].getBoundingClientRect();
			if (rect.width === 0 && rect.height === 0) return false;

			buttons[i].scrollIntoView({block: 'end'});
			buttons[i].click();
			return true;
		}
		return false;
	})()`, paginatorSelector, paginatorLabelSelector)

// findChromeBinary locates a Chrome/Chromium binary, preferring the
// configured path.
func findChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
