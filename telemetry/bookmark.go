package telemetry

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/accrete/config"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkQuarterFull       BookmarkType = "quarter_full"
	BookmarkHalfFull          BookmarkType = "half_full"
	BookmarkThreeQuartersFull BookmarkType = "three_quarters_full"
	BookmarkGrowthStall       BookmarkType = "growth_stall"
	BookmarkGrowthBurst       BookmarkType = "growth_burst"
)

// fillMilestones are the static fill fractions that trigger a bookmark once.
var fillMilestones = []struct {
	fill float64
	kind BookmarkType
}{
	{0.25, BookmarkQuarterFull},
	{0.50, BookmarkHalfFull},
	{0.75, BookmarkThreeQuartersFull},
}

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type" json:"type"`
	Tick        int32        `csv:"tick" json:"tick"`
	Description string       `csv:"description" json:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"description", b.Description,
	)
}

// BookmarkDetector detects interesting moments in the growth.
type BookmarkDetector struct {
	cfg config.BookmarksConfig

	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	nextMilestone int // index into fillMilestones
	stallWindows  int // consecutive windows without fusions
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int, cfg config.BookmarksConfig) *BookmarkDetector {
	if historySize < 3 {
		historySize = 3 // minimum for burst detection
	}
	if cfg.GrowthStall.Windows < 1 {
		cfg.GrowthStall.Windows = 1
	}
	return &BookmarkDetector{
		cfg:         cfg,
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	// Fill milestones: a single window may cross several
	for bd.nextMilestone < len(fillMilestones) && stats.StaticFill >= fillMilestones[bd.nextMilestone].fill {
		m := fillMilestones[bd.nextMilestone]
		bookmarks = append(bookmarks, Bookmark{
			Type:        m.kind,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Static particles reached %.0f%% of capacity (%d)", m.fill*100, stats.Static),
		})
		bd.nextMilestone++
	}

	if b := bd.checkGrowthStall(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	if bd.historyFull || bd.historyIdx > 0 {
		if b := bd.checkGrowthBurst(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}

	bd.addToHistory(stats)

	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []WindowStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

func (bd *BookmarkDetector) checkGrowthStall(stats WindowStats) *Bookmark {
	cfg := bd.cfg.GrowthStall
	if stats.Fusions > 0 || stats.Moving < cfg.MinMoving || stats.Static < cfg.MinStatics {
		bd.stallWindows = 0
		return nil
	}

	bd.stallWindows++
	if bd.stallWindows != cfg.Windows { // trigger once per stall
		return nil
	}
	return &Bookmark{
		Type:        BookmarkGrowthStall,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("No fusions for %d windows with %d moving particles", bd.stallWindows, stats.Moving),
	}
}

func (bd *BookmarkDetector) checkGrowthBurst(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total int
	for _, h := range history {
		total += h.Fusions
	}
	avg := float64(total) / float64(len(history))
	if avg == 0 {
		return nil
	}

	cfg := bd.cfg.GrowthBurst
	if float64(stats.Fusions) > avg*cfg.Multiplier && stats.Fusions >= cfg.MinFusions {
		return &Bookmark{
			Type:        BookmarkGrowthBurst,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("%d fusions is %.1fx average (%.1f)", stats.Fusions, float64(stats.Fusions)/avg, avg),
		}
	}
	return nil
}
