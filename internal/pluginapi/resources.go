// internal/pluginapi/resources.go
//
// Moving resources between sites.
//
// Context
// -------
// MoveResources relocates site-relative files from one site to another.
// It does nothing when source and target are the same site or when either
// site is unknown.  Empty references and absolute or protocol URLs are
// skipped.  The rest move one at a time with no rollback: a failure is
// recorded, reported, and the loop carries on.
//
// Notes
// -----
//   - A reference whose source file is already gone counts as skipped.
//   - Oxford commas, two spaces after periods.
package pluginapi

import (
	"context"
	"errors"
	"strings"

	"github.com/yanizio/adept/internal/files"
	"github.com/yanizio/adept/internal/metrics"
)

// MoveFailure pairs a reference with the error that stopped it.
type MoveFailure struct {
	URL string
	Err error
}

// MoveReport summarizes one MoveResources call.
type MoveReport struct {
	Moved   []string
	Skipped []string
	Failed  []MoveFailure
}

// OK reports whether nothing failed.
func (r MoveReport) OK() bool { return len(r.Failed) == 0 }

// MoveResources relocates urls from srcSiteID to dstSiteID.
func (c *Context) MoveResources(ctx context.Context, srcSiteID, dstSiteID int, urls []string) MoveReport {
	var rep MoveReport
	if srcSiteID == dstSiteID {
		return rep
	}
	src := c.SiteInfo(ctx, srcSiteID)
	dst := c.SiteInfo(ctx, dstSiteID)
	if src == nil || dst == nil {
		return rep
	}

	for _, u := range urls {
		if strings.TrimSpace(u) == "" || files.IsProtocolURL(u) {
			rep.Skipped = append(rep.Skipped, u)
			metrics.ResourcesMovedTotal.WithLabelValues("skipped").Inc()
			continue
		}
		err := c.deps.Mover.Move(ctx, src, dst, u)
		switch {
		case err == nil:
			rep.Moved = append(rep.Moved, u)
			metrics.ResourcesMovedTotal.WithLabelValues("moved").Inc()
		case errors.Is(err, files.ErrSourceMissing), errors.Is(err, files.ErrProtocolURL):
			rep.Skipped = append(rep.Skipped, u)
			metrics.ResourcesMovedTotal.WithLabelValues("skipped").Inc()
		default:
			c.RecordError(err)
			rep.Failed = append(rep.Failed, MoveFailure{URL: u, Err: err})
			metrics.ResourcesMovedTotal.WithLabelValues("failed").Inc()
		}
	}
	return rep
}
