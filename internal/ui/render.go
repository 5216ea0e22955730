package ui

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/bamsammich/ddupe/internal/engine"
)

const (
	tagKeep     = "[KEEP]"
	tagDupe     = "[DUPE]"
	tagDeleted  = "[DELETED]"
	tagFailed   = "[FAILED]"
	tagRetained = "[RETAINED]"
)

func groupHeader(pos, total, files int, size, reclaimable int64, fp engine.Fingerprint) string {
	return fmt.Sprintf("%s  %s  %s each  %s reclaimable  %s",
		styleHeader.Render(fmt.Sprintf("Group %d of %d", pos, total)),
		Plural(int64(files), "file"),
		FormatBytes(size),
		styleBigNumber.Render(FormatBytes(reclaimable)),
		styleMuted.Render(fp.Short()),
	)
}

func tagStyle(tag string) string {
	switch tag {
	case tagKeep:
		return styleKeep.Render(tag)
	case tagFailed:
		return styleWarn.Render(tag)
	case tagRetained:
		return styleMuted.Render(tag)
	default:
		return styleDupe.Render(tag)
	}
}

// GroupListing renders one group for the interactive prompt: a header and
// a numbered line per member, with the current keeper tagged [KEEP].
func GroupListing(g engine.DuplicateGroup, pos, total int) string {
	var b strings.Builder
	b.WriteString(groupHeader(pos, total, len(g.Files), g.Size, g.Reclaimable(), g.Fingerprint))
	b.WriteByte('\n')
	width := len(fmt.Sprint(len(g.Files)))
	for i, f := range g.Files {
		tag := tagDupe
		if i == g.Keeper {
			tag = tagKeep
		}
		fmt.Fprintf(&b, "  %*d) %s %s\n", width, i+1, tagStyle(tag), StyledPath(f.Path))
		for _, link := range f.Links {
			fmt.Fprintf(&b, "  %*s  %s %s\n", width, "", styleMuted.Render("linked"), StyledPath(link))
		}
	}
	return b.String()
}

// PreviewListing renders every planned decision of a batch confirmation
// followed by the totals.
func PreviewListing(p engine.Preview) string {
	var b strings.Builder
	for i, d := range p.Decisions {
		b.WriteString(GroupListing(d.Group, i+1, p.Groups))
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "%s in %s would be deleted, freeing %s.\n",
		Plural(int64(p.Files), "file"),
		Plural(int64(p.Groups), "group"),
		styleBigNumber.Render(FormatBytes(p.Bytes)))
	return b.String()
}

// ReportListing renders every group of a finished run with the action
// taken on each member.
func ReportListing(rep *engine.RunReport) string {
	var b strings.Builder
	for i, g := range rep.Groups {
		b.WriteString(groupHeader(i+1, len(rep.Groups), len(g.Files), g.Size, g.Reclaimable, g.Fingerprint))
		if g.Status != engine.StatusWouldDelete && g.Status != engine.StatusDeleted {
			b.WriteString("  " + styleMuted.Render(string(g.Status)))
		}
		b.WriteByte('\n')
		for _, f := range g.Files {
			writeFileLine(&b, "  ", f)
			for _, link := range f.Links {
				writeFileLine(&b, "    ", link)
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func writeFileLine(b *strings.Builder, indent string, f engine.FileReport) {
	line := fmt.Sprintf("%s%s %s", indent, tagStyle(actionTag(f.Action)), StyledPath(f.Path))
	if f.Error != "" {
		line += "  " + styleWarn.Render(f.Error)
	}
	b.WriteString(line + "\n")
}

func actionTag(a engine.FileAction) string {
	switch a {
	case engine.ActionKeep:
		return tagKeep
	case engine.ActionDeleted:
		return tagDeleted
	case engine.ActionFailed:
		return tagFailed
	case engine.ActionRetained:
		return tagRetained
	default:
		return tagDupe
	}
}

// Summary is the closing sentence of a run.
func Summary(rep *engine.RunReport) string {
	switch {
	case len(rep.Groups) == 0:
		return "No duplicates found."
	case rep.Declined:
		return "Aborted. No files were deleted."
	case rep.Mode == engine.ModeDryRun:
		return fmt.Sprintf("Dry run: %s in %s, deleting them would free %s.",
			Plural(int64(rep.DuplicateFiles()), "duplicate file"),
			Plural(int64(len(rep.Groups)), "group"),
			styleBigNumber.Render(FormatBytes(rep.BytesReclaimable)))
	}

	deleted := fmt.Sprintf("Deleted %s, freed %s.",
		Plural(rep.FilesDeleted, "file"),
		styleBigNumber.Render(FormatBytes(rep.BytesFreed)))
	if rep.Aborted {
		reason := ""
		if rep.AbortReason != "" {
			reason = " (" + rep.AbortReason + ")"
		}
		return fmt.Sprintf("Aborted%s. %s", reason, deleted)
	}
	return deleted
}

var reasonLabels = map[engine.FailureReason]string{
	engine.ReasonPermissionDenied: "Permission denied",
	engine.ReasonNotFound:         "Already gone",
	engine.ReasonIsDirectory:      "Now a directory",
	engine.ReasonChanged:          "Changed since scan",
	engine.ReasonKeeperMissing:    "Kept copy missing, group left alone",
	engine.ReasonOther:            "Other errors",
}

var reasonTips = map[engine.FailureReason]string{
	engine.ReasonPermissionDenied: "Check write permission on the parent directory",
	engine.ReasonChanged:          "Re-run to pick up the new contents",
	engine.ReasonKeeperMissing:    "Re-run to choose a new copy to keep",
}

// FailureSummary renders deletion failures grouped by reason, then
// warnings, as a tree. Empty when the run had neither.
func FailureSummary(rep *engine.RunReport) string {
	if len(rep.Failures) == 0 && len(rep.Warnings) == 0 {
		return ""
	}

	var b strings.Builder
	if len(rep.Failures) > 0 {
		grouped := map[engine.FailureReason][]engine.DeletionFailure{}
		for _, f := range rep.Failures {
			grouped[f.Reason] = append(grouped[f.Reason], f)
		}
		reasons := make([]engine.FailureReason, 0, len(grouped))
		for r := range grouped {
			reasons = append(reasons, r)
		}
		slices.SortFunc(reasons, func(x, y engine.FailureReason) int {
			return cmp.Or(cmp.Compare(len(grouped[y]), len(grouped[x])), cmp.Compare(x, y))
		})

		fmt.Fprintf(&b, "%s\n", styleWarn.Render(fmt.Sprintf("%s not deleted:", Plural(int64(len(rep.Failures)), "file"))))
		for i, r := range reasons {
			branch, stem := "├─", "│ "
			if i == len(reasons)-1 {
				branch, stem = "└─", "  "
			}
			fmt.Fprintf(&b, "  %s %s: %d\n", branch, reasonLabels[r], len(grouped[r]))
			for _, f := range grouped[r] {
				fmt.Fprintf(&b, "  %s   %s\n", stem, f.Path)
			}
			if tip, ok := reasonTips[r]; ok {
				fmt.Fprintf(&b, "  %s   %s\n", stem, styleMuted.Render("Tip: "+tip))
			}
		}
	}

	if len(rep.Warnings) > 0 {
		fmt.Fprintf(&b, "%s\n", styleWarn.Render(fmt.Sprintf("%s:", Plural(int64(len(rep.Warnings)), "warning"))))
		for i, w := range rep.Warnings {
			branch := "├─"
			if i == len(rep.Warnings)-1 {
				branch = "└─"
			}
			fmt.Fprintf(&b, "  %s %s  %s  %s\n", branch, styleMuted.Render(string(w.Stage)), w.Path, w.Message)
		}
	}
	return b.String()
}
