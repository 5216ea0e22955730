package ui

import (
	"fmt"
	"strings"

	"github.com/bamsammich/ddupe/internal/stats"
)

// CompletionSummary builds the final statistics line from a snapshot.
// Format: done ✓  files 48,917  hashed 1.2 GiB  avg 641.0 MiB/s  groups 12  time 3m 17s  warnings 0
func CompletionSummary(snap stats.Snapshot) string {
	avg := 0.0
	if snap.Elapsed.Seconds() > 0 {
		avg = float64(snap.BytesHashed) / snap.Elapsed.Seconds()
	}

	problems := snap.Warnings + snap.DeleteFailed
	icon := styleKeep.Render("✓")
	if problems > 0 {
		icon = styleWarn.Render("!")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "done %s  files %s  hashed %s  avg %s  groups %s",
		icon,
		FormatCount(snap.FilesIndexed),
		FormatBytes(snap.BytesHashed),
		FormatRate(avg),
		FormatCount(snap.GroupsFound),
	)
	if snap.FilesDeleted > 0 || snap.DeleteFailed > 0 {
		fmt.Fprintf(&b, "  deleted %s  freed %s",
			FormatCount(snap.FilesDeleted), FormatBytes(snap.BytesFreed))
	}
	fmt.Fprintf(&b, "  time %s  warnings %d", FormatDuration(snap.Elapsed), problems)
	return b.String()
}
