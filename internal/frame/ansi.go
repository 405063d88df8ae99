package frame

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	seqEnterAlt   = "\x1b[?1049h"
	seqLeaveAlt   = "\x1b[?1049l"
	seqHideCursor = "\x1b[?25l"
	seqShowCursor = "\x1b[?25h"
	seqClear      = "\x1b[2J\x1b[H"
	seqReset      = "\x1b[0m"
)

func seqSetTitle(title string) string {
	return "\x1b]0;" + title + "\x07"
}

// seqGoto positions the cursor at 1-indexed (col, row).
func seqGoto(x, y int) string {
	return fmt.Sprintf("\x1b[%d;%dH", y+1, x+1)
}

// seqStyle renders the SGR sequence for style, or "" if it is the default
// style with no attributes (nothing to emit).
func seqStyle(s Style) string {
	fg, bg, attrs := s.Decompose()
	if fg == ColorDefault && bg == ColorDefault && attrs == 0 {
		return ""
	}
	var parts []string
	if attrs&AttrBold != 0 {
		parts = append(parts, "1")
	}
	if attrs&AttrDim != 0 {
		parts = append(parts, "2")
	}
	if attrs&AttrUnderline != 0 {
		parts = append(parts, "4")
	}
	if attrs&AttrBlink != 0 {
		parts = append(parts, "5")
	}
	if attrs&AttrReverse != 0 {
		parts = append(parts, "7")
	}
	if fg != ColorDefault {
		parts = append(parts, "38", "5", strconv.Itoa(int(fg)))
	}
	if bg != ColorDefault {
		parts = append(parts, "48", "5", strconv.Itoa(int(bg)))
	}
	if len(parts) == 0 {
		return ""
	}
	return "\x1b[0;" + strings.Join(parts, ";") + "m"
}
