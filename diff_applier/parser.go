package diff_applier

import (
	"strconv"
	"strings"

	"github.com/meysamhadeli/loopai/diff_applier/models"
)

type parseState int

const (
	stateScanning parseState = iota
	stateFileHeader
	stateInHunk
)

const devNullPath = "/dev/null"

// Parse scans a unified diff line by line with an explicit state machine.
// Unrecognized lines are skipped, never aborting the whole parse. File
// entries that end up with zero hunks are dropped.
func (applier *DiffApplier) Parse(diffText string) []models.FileDiff {
	var (
		diffs     []models.FileDiff
		file      *models.FileDiff
		hunk      *models.Hunk
		state     parseState
		capturing bool
	)

	flushHunk := func() {
		if file != nil && hunk != nil && len(hunk.Lines) > 0 {
			file.Hunks = append(file.Hunks, *hunk)
		}
		hunk = nil
		capturing = false
	}
	flushFile := func() {
		flushHunk()
		if file != nil && len(file.Hunks) > 0 {
			diffs = append(diffs, *file)
		}
		file = nil
	}

	for _, line := range strings.Split(diffText, "\n") {
		switch {
		case strings.HasPrefix(line, "--- "):
			flushFile()
			file = &models.FileDiff{}
			if path := parseDiffPath(line[4:]); path == devNullPath {
				file.IsNew = true
			} else {
				file.OldPath = path
			}
			state = stateFileHeader

		case strings.HasPrefix(line, "+++ "):
			if state != stateFileHeader || file == nil {
				continue
			}
			if path := parseDiffPath(line[4:]); path == devNullPath {
				file.IsDeleted = true
			} else {
				file.NewPath = path
			}
			state = stateScanning

		case strings.HasPrefix(line, "@@"):
			if file == nil || state == stateFileHeader {
				continue
			}
			parsed, ok := parseHunkHeader(line)
			if !ok {
				continue
			}
			flushHunk()
			hunk = &parsed
			state = stateInHunk
			capturing = true

		default:
			if state != stateInHunk || hunk == nil || !capturing {
				continue
			}
			switch {
			case strings.HasPrefix(line, "+"):
				hunk.Lines = append(hunk.Lines, models.DiffLine{Kind: models.LineAdd, Text: line[1:]})
			case strings.HasPrefix(line, "-"):
				hunk.Lines = append(hunk.Lines, models.DiffLine{Kind: models.LineRemove, Text: line[1:]})
			case strings.HasPrefix(line, " "):
				hunk.Lines = append(hunk.Lines, models.DiffLine{Kind: models.LineContext, Text: line[1:]})
			default:
				// Blank or prose stops content capture without leaving the hunk.
				capturing = false
			}
		}
	}
	flushFile()

	return diffs
}

// parseDiffPath strips the optional timestamp column and the conventional
// a/ or b/ prefix from a file-marker line.
func parseDiffPath(raw string) string {
	path := strings.TrimSpace(raw)
	if tab := strings.IndexByte(path, '\t'); tab >= 0 {
		path = strings.TrimSpace(path[:tab])
	}
	switch {
	case strings.HasPrefix(path, "a/"):
		path = path[2:]
	case strings.HasPrefix(path, "b/"):
		path = path[2:]
	}
	return path
}

// parseHunkHeader reads "@@ -oldStart[,oldLines] +newStart[,newLines] @@".
// A missing count defaults to 1.
func parseHunkHeader(line string) (models.Hunk, bool) {
	rest := strings.TrimPrefix(line, "@@")
	end := strings.Index(rest, "@@")
	if end < 0 {
		return models.Hunk{}, false
	}

	fields := strings.Fields(rest[:end])
	if len(fields) != 2 || !strings.HasPrefix(fields[0], "-") || !strings.HasPrefix(fields[1], "+") {
		return models.Hunk{}, false
	}

	oldStart, oldLines, ok := parseLineRange(fields[0][1:])
	if !ok {
		return models.Hunk{}, false
	}
	newStart, newLines, ok := parseLineRange(fields[1][1:])
	if !ok {
		return models.Hunk{}, false
	}

	return models.Hunk{OldStart: oldStart, OldLines: oldLines, NewStart: newStart, NewLines: newLines}, true
}

func parseLineRange(spec string) (start int, count int, ok bool) {
	count = 1
	startPart := spec
	if comma := strings.IndexByte(spec, ','); comma >= 0 {
		startPart = spec[:comma]
		parsed, err := strconv.Atoi(spec[comma+1:])
		if err != nil {
			return 0, 0, false
		}
		count = parsed
	}

	parsed, err := strconv.Atoi(startPart)
	if err != nil {
		return 0, 0, false
	}

	return parsed, count, true
}
