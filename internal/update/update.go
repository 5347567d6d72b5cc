package update

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/printhive/printhive-core/internal/infrastructure/config"
	"github.com/printhive/printhive-core/internal/infrastructure/logging"
)

// defaultTimeout bounds the manifest fetch so a slow host cannot
// stall startup.
const defaultTimeout = 10 * time.Second

// ErrBadManifest indicates the manifest response could not be parsed.
var ErrBadManifest = errors.New("update: malformed release manifest")

// Manifest is the release manifest served at the configured URL.
type Manifest struct {
	Version string `json:"version"`
	URL     string `json:"url,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

// Checker fetches the release manifest and compares it against the
// running version.
type Checker struct {
	cfg     config.Update
	version string
	client  *http.Client
	logger  *logging.Logger
}

// NewChecker creates a checker for the given running version.
func NewChecker(cfg config.Update, version string, logger *logging.Logger) *Checker {
	return &Checker{
		cfg:     cfg,
		version: version,
		client:  &http.Client{Timeout: defaultTimeout},
		logger:  logger,
	}
}

// Check fetches the manifest and logs whether a newer release exists.
// A disabled config or any fetch failure is not an error for the
// caller; the outcome is only logged.
func (c *Checker) Check(ctx context.Context) {
	if !c.cfg.Enabled || c.cfg.ManifestURL == "" {
		return
	}

	manifest, err := c.fetch(ctx)
	if err != nil {
		c.logger.Warn("update check failed", "error", err)
		return
	}

	switch CompareVersions(c.version, manifest.Version) {
	case -1:
		c.logger.Info("newer release available",
			"current", c.version,
			"latest", manifest.Version,
			"url", manifest.URL,
		)
	default:
		c.logger.Debug("running latest release", "version", c.version)
	}
}

// fetch retrieves and decodes the release manifest.
func (c *Checker) fetch(ctx context.Context) (*Manifest, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.ManifestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building manifest request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching manifest: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // Best effort close on read path

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrBadManifest, resp.StatusCode)
	}

	var manifest Manifest
	if err := json.NewDecoder(resp.Body).Decode(&manifest); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadManifest, err)
	}
	if manifest.Version == "" {
		return nil, fmt.Errorf("%w: missing version field", ErrBadManifest)
	}
	return &manifest, nil
}

// CompareVersions compares dotted numeric versions, ignoring a leading
// "v". It returns -1 when a is older than b, 0 when equal, and 1 when
// newer. Non-numeric segments compare lexically, so pre-release tags
// degrade gracefully rather than panicking.
func CompareVersions(a, b string) int {
	as := strings.Split(strings.TrimPrefix(a, "v"), ".")
	bs := strings.Split(strings.TrimPrefix(b, "v"), ".")

	for i := 0; i < len(as) || i < len(bs); i++ {
		var sa, sb string
		if i < len(as) {
			sa = as[i]
		}
		if i < len(bs) {
			sb = bs[i]
		}
		if sa == sb {
			continue
		}

		na, errA := strconv.Atoi(sa)
		nb, errB := strconv.Atoi(sb)
		if errA == nil && errB == nil {
			if na < nb {
				return -1
			}
			return 1
		}
		if sa < sb {
			return -1
		}
		return 1
	}
	return 0
}
