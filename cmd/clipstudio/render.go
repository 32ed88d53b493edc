package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"

	"clipstudio/internal/api"
	"clipstudio/internal/textutil"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 16
	statusIndent     = "  "
	cellWidth        = 60
)

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := statusKindLabel(kind)
	if message != "" {
		statusText = fmt.Sprintf("[%s] %s", statusText, message)
	} else {
		statusText = fmt.Sprintf("[%s]", statusText)
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if colorize {
		if color := statusKindColor(kind); color != "" {
			return color + base + ansiReset
		}
	}
	return base
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{line, rule}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func phaseKind(phase string) statusKind {
	switch phase {
	case "ready", "finalized":
		return statusOK
	case "failed":
		return statusError
	case "offline":
		return statusWarn
	default:
		return statusInfo
	}
}

// renderSession prints the session summary followed by its clip table.
func renderSession(out io.Writer, s api.Session, colorize bool) {
	for _, line := range renderSectionHeader("Session", colorize) {
		fmt.Fprintln(out, line)
	}
	phase := textutil.Label(s.Phase)
	if s.Busy {
		phase += " (working)"
	}
	fmt.Fprintln(out, renderStatusLine("Phase", phaseKind(s.Phase), phase, colorize))
	if s.ID != "" {
		fmt.Fprintln(out, renderStatusLine("Session", statusInfo, s.ID, colorize))
	}
	if s.Prompt != "" {
		fmt.Fprintln(out, renderStatusLine("Prompt", statusInfo, textutil.Truncate(s.Prompt, cellWidth), colorize))
	}
	if s.Job != nil {
		detail := s.Job.ID
		if s.Job.Status != "" {
			detail = fmt.Sprintf("%s (%s)", s.Job.ID, s.Job.Status)
		}
		fmt.Fprintln(out, renderStatusLine("Job", statusInfo, detail, colorize))
		if s.Job.LastLog != "" {
			fmt.Fprintln(out, renderStatusLine("Job Log", statusInfo, textutil.Truncate(s.Job.LastLog, cellWidth), colorize))
		}
	}
	if s.Preview != nil && s.Preview.URL != "" {
		fmt.Fprintln(out, renderStatusLine("Preview", statusOK, s.Preview.URL, colorize))
	}
	if s.MergePending {
		fmt.Fprintln(out, renderStatusLine("Merge", statusWarn, "pending (run `clipstudio retry-merge`)", colorize))
	}
	if s.Error != "" {
		kind := statusError
		if s.Phase != "failed" {
			kind = statusWarn
		}
		label := "Error"
		if s.ErrorKind != "" {
			label = textutil.Label(s.ErrorKind)
		}
		fmt.Fprintln(out, renderStatusLine(label, kind, s.Error, colorize))
	}
	if s.RecordID != "" {
		fmt.Fprintln(out, renderStatusLine("Library", statusOK, s.RecordID, colorize))
	}
	if len(s.Actions) > 0 {
		fmt.Fprintln(out, renderStatusLine("Actions", statusInfo, strings.Join(s.Actions, ", "), colorize))
	}

	fmt.Fprintln(out)
	if len(s.Clips) == 0 {
		fmt.Fprintln(out, "No clips yet")
		return
	}
	rows := make([][]string, 0, len(s.Clips))
	for _, clip := range s.Clips {
		rows = append(rows, []string{strconv.Itoa(clip.Index + 1), textutil.Truncate(clip.Prompt, cellWidth), clip.URL})
	}
	fmt.Fprint(out, renderTable([]string{"#", "Prompt", "URL"}, rows, []columnAlignment{alignRight, alignLeft, alignLeft}, cellWidth))
}

func renderVideos(out io.Writer, videos []api.Video) {
	if len(videos) == 0 {
		fmt.Fprintln(out, "Library is empty")
		return
	}
	rows := make([][]string, 0, len(videos))
	for _, v := range videos {
		rows = append(rows, []string{v.ID, textutil.Truncate(v.Title, 40), strconv.Itoa(v.ClipCount), v.CreatedAt})
	}
	fmt.Fprint(out, renderTable([]string{"ID", "Title", "Clips", "Created"}, rows, []columnAlignment{alignLeft, alignLeft, alignRight, alignLeft}, cellWidth))
}

func renderVideo(out io.Writer, v api.Video) {
	fields := []struct {
		label string
		value string
	}{
		{"ID", v.ID},
		{"Session", v.SessionID},
		{"Title", v.Title},
		{"Topic", v.Topic},
		{"Tone", v.Tone},
		{"Status", textutil.Label(v.Status)},
		{"Clips", strconv.Itoa(v.ClipCount)},
		{"Video URL", v.VideoURL},
		{"Public ID", v.PublicID},
		{"Archive", v.ArchiveURL},
		{"Created", v.CreatedAt},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		fmt.Fprintf(out, "%-*s %s\n", statusLabelWidth, f.label+":", f.value)
	}
	if desc := strings.TrimSpace(v.Description); desc != "" {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Description:")
		for _, line := range strings.Split(desc, "\n") {
			fmt.Fprintln(out, statusIndent+line)
		}
	}
}
