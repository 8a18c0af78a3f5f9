package exclusion

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/lo"

	"CredentialScanner/internal/domain"
	"CredentialScanner/internal/ports"
)

// OIGSourceName labels verification records produced by the local matcher.
const OIGSourceName = "OIG LEIE Database"

// Checker matches providers against the bulk-imported OIG exclusion dataset.
type Checker struct {
	store  ports.ExclusionStore
	logger *slog.Logger
	now    func() time.Time
}

var _ ports.OIGChecker = (*Checker)(nil)

// NewChecker wires the exclusion dataset store.
func NewChecker(store ports.ExclusionStore, logger *slog.Logger) *Checker {
	return &Checker{store: store, logger: logger, now: time.Now}
}

// CheckOIGExclusion matches by exact case-insensitive name, falling back to
// an NPI-only search. A name match is medium confidence; a name match whose
// NPI also matches upgrades to high. An NPI-only match stays medium because
// a name mismatch alongside an NPI match is inherently suspicious.
//
// Internal lookup errors fail safe to not-matched with low confidence: an
// outage must never auto-block every provider, and the low confidence flag
// records that the check did not actually run.
func (c *Checker) CheckOIGExclusion(ctx context.Context, firstName, lastName, npi string) domain.ExclusionMatch {
	byName, err := c.store.FindExclusionsByName(ctx, firstName, lastName)
	if err != nil {
		c.warn("exclusion name lookup failed", "lastName", lastName, "error", err)
		return failSafe()
	}

	now := c.now()
	active := lo.Filter(byName, func(r domain.ExclusionRecord, _ int) bool {
		return r.ActivelyExcluded(now)
	})

	if len(active) > 0 {
		if npi != "" {
			for i := range active {
				if active[i].NPI == npi {
					return domain.ExclusionMatch{
						Matched:    true,
						Confidence: domain.ConfidenceHigh,
						MatchedOn:  []string{"name", "npi"},
						Source:     OIGSourceName,
						Record:     &active[i],
						Details:    active[i].ExclusionType,
					}
				}
			}
		}
		return domain.ExclusionMatch{
			Matched:    true,
			Confidence: domain.ConfidenceMedium,
			MatchedOn:  []string{"name"},
			Source:     OIGSourceName,
			Record:     &active[0],
			Details:    active[0].ExclusionType,
		}
	}

	if npi != "" {
		byNPI, err := c.store.FindExclusionsByNPI(ctx, npi)
		if err != nil {
			c.warn("exclusion npi lookup failed", "npi", npi, "error", err)
			return failSafe()
		}
		for i := range byNPI {
			if byNPI[i].ActivelyExcluded(now) {
				return domain.ExclusionMatch{
					Matched:    true,
					Confidence: domain.ConfidenceMedium,
					MatchedOn:  []string{"npi"},
					Source:     OIGSourceName,
					Record:     &byNPI[i],
					Details:    byNPI[i].ExclusionType,
				}
			}
		}
	}

	return domain.ExclusionMatch{
		Matched:    false,
		Confidence: domain.ConfidenceHigh,
		MatchedOn:  []string{},
		Source:     OIGSourceName,
	}
}

func failSafe() domain.ExclusionMatch {
	return domain.ExclusionMatch{
		Matched:    false,
		Confidence: domain.ConfidenceLow,
		MatchedOn:  []string{},
		Source:     OIGSourceName,
		Details:    "exclusion lookup unavailable",
	}
}

func (c *Checker) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
