// internal/infra/report/image.go
package report

import (
	"bytes"
	"database/sql"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"strings"
	"time"

	"github.com/fogleman/gg"

	"interaction_log_bot/internal/app"
)

// Renderer produces the visual and spreadsheet report artifacts. It
// implements app.Renderer.
type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

// Table styling constants, rendered at 2x scale for Telegram clarity
const (
	cellPaddingX = 20
	cellPaddingY = 16
	minRowHeight = 72
	headerHeight = 84
	fontSize     = 26
	titleFontSz  = 40
	titlePadding = 110
	footerPad    = 80
	minColWidth  = 110
	maxWideWidth = 440.0
)

// Light theme colors
var (
	bgColor         = color.RGBA{R: 245, G: 247, B: 250, A: 255}
	titleColor      = color.RGBA{R: 30, G: 41, B: 59, A: 255}
	headerBgColor   = color.RGBA{R: 37, G: 99, B: 235, A: 255}
	headerTextColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	rowEvenColor    = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	rowOddColor     = color.RGBA{R: 241, G: 245, B: 249, A: 255}
	textColor       = color.RGBA{R: 30, G: 41, B: 59, A: 255}
	borderColor     = color.RGBA{R: 203, G: 213, B: 225, A: 255}
	footerColor     = color.RGBA{R: 100, G: 116, B: 139, A: 255}
)

// column definition for the snapshot table.
type column struct {
	header   string
	field    func(c *app.CustomerCase) string
	maxWidth float64 // 0 means auto
}

var columns = []column{
	{"Phone", func(c *app.CustomerCase) string { return c.Phone }, 0},
	{"Name", func(c *app.CustomerCase) string { return orDash(c.CurrentName) }, 0},
	{"Page", func(c *app.CustomerCase) string { return orDash(c.CurrentPage) }, 0},
	{"Follower", func(c *app.CustomerCase) string { return orDash(c.CurrentFollower) }, 0},
	{"Status / Reason", statusOrReason, maxWideWidth},
	{"First contact", func(c *app.CustomerCase) string { return c.FirstContactDate.Format("2006-01-02") }, 0},
	{"Events", func(c *app.CustomerCase) string { return fmt.Sprintf("%d", c.TotalEvents) }, 0},
}

func orDash(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return "-"
}

func statusOrReason(c *app.CustomerCase) string {
	if c.CurrentStatus.Valid {
		return c.CurrentStatus.String
	}
	if c.CurrentReason.Valid {
		return c.CurrentReason.String
	}
	return "-"
}

// findFont locates a usable TTF font on the host.
func findFont(bold bool) string {
	var candidates []string
	if bold {
		candidates = []string{
			"/usr/share/fonts/truetype/dejavu/DejaVuSans-Bold.ttf",
			"/usr/share/fonts/TTF/DejaVuSans-Bold.ttf",
		}
	} else {
		candidates = []string{
			"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
			"/usr/share/fonts/TTF/DejaVuSans.ttf",
		}
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return candidates[0]
}

// wrapText splits text into multiple lines to fit within maxWidth.
func wrapText(dc *gg.Context, text string, maxWidth float64) []string {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))
	if maxWidth <= 0 {
		return []string{text}
	}

	w, _ := dc.MeasureString(text)
	if w <= maxWidth {
		return []string{text}
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	currentLine := words[0]
	for _, word := range words[1:] {
		testLine := currentLine + " " + word
		tw, _ := dc.MeasureString(testLine)
		if tw > maxWidth {
			lines = append(lines, currentLine)
			currentLine = word
		} else {
			currentLine = testLine
		}
	}
	lines = append(lines, currentLine)
	return lines
}

// computeRowHeights calculates the height of each row based on wrapped text.
func computeRowHeights(dc *gg.Context, cases []*app.CustomerCase, colWidths []float64) []float64 {
	_, lineH := dc.MeasureString("Ay")
	lineSpacing := lineH + 4

	heights := make([]float64, len(cases))
	for rowIdx, c := range cases {
		maxLines := 1
		for i, col := range columns {
			wrapped := wrapText(dc, col.field(c), colWidths[i]-cellPaddingX*2)
			if len(wrapped) > maxLines {
				maxLines = len(wrapped)
			}
		}
		h := float64(maxLines)*lineSpacing + cellPaddingY*2
		if h < float64(minRowHeight) {
			h = float64(minRowHeight)
		}
		heights[rowIdx] = h
	}
	return heights
}

// DailySnapshot renders the day's cases as a table image and returns PNG
// bytes. An empty day still renders, with a "no interactions" note.
func (r *Renderer) DailySnapshot(date time.Time, cases []*app.CustomerCase) ([]byte, error) {
	boldFont := findFont(true)
	regularFont := findFont(false)

	title := fmt.Sprintf("Daily interaction snapshot — %s", date.Format("02 Jan 2006"))

	if len(cases) == 0 {
		return renderEmptySnapshot(title, boldFont, regularFont)
	}

	// ---- Step 1: Measure column widths ----
	tmpDC := gg.NewContext(1, 1)
	if err := tmpDC.LoadFontFace(boldFont, fontSize); err != nil {
		return nil, fmt.Errorf("failed to load bold font: %w", err)
	}

	colWidths := make([]float64, len(columns))
	for i, col := range columns {
		w, _ := tmpDC.MeasureString(col.header)
		colWidths[i] = w + cellPaddingX*2 + 4
		if colWidths[i] < float64(minColWidth) {
			colWidths[i] = float64(minColWidth)
		}
	}

	if err := tmpDC.LoadFontFace(regularFont, fontSize); err != nil {
		return nil, fmt.Errorf("failed to load regular font: %w", err)
	}
	for _, c := range cases {
		for i, col := range columns {
			w, _ := tmpDC.MeasureString(col.field(c))
			if needed := w + cellPaddingX*2 + 4; needed > colWidths[i] {
				colWidths[i] = needed
			}
		}
	}
	for i, col := range columns {
		if col.maxWidth > 0 && colWidths[i] > col.maxWidth {
			colWidths[i] = col.maxWidth
		}
	}

	rowHeights := computeRowHeights(tmpDC, cases, colWidths)

	// ---- Step 2: Calculate canvas size ----
	var totalWidth float64
	for _, w := range colWidths {
		totalWidth += w
	}
	var totalRowHeight float64
	for _, h := range rowHeights {
		totalRowHeight += h
	}

	canvasWidth := totalWidth + 80 // 40px margin each side
	canvasHeight := float64(titlePadding) + float64(headerHeight) + totalRowHeight + float64(footerPad)

	// ---- Step 3: Draw ----
	dc := gg.NewContext(int(canvasWidth), int(canvasHeight))
	dc.SetColor(bgColor)
	dc.Clear()

	dc.LoadFontFace(boldFont, titleFontSz)
	dc.SetColor(titleColor)
	dc.DrawStringAnchored(title, canvasWidth/2, float64(titlePadding)/2+2, 0.5, 0.5)

	tableX := 40.0
	tableY := float64(titlePadding)

	dc.SetColor(headerBgColor)
	dc.DrawRoundedRectangle(tableX, tableY, totalWidth, float64(headerHeight), 16)
	dc.Fill()

	dc.LoadFontFace(boldFont, fontSize)
	dc.SetColor(headerTextColor)
	x := tableX
	for i, col := range columns {
		dc.DrawStringAnchored(col.header, x+colWidths[i]/2, tableY+float64(headerHeight)/2, 0.5, 0.5)
		x += colWidths[i]
	}

	dc.LoadFontFace(regularFont, fontSize)
	_, lineH := dc.MeasureString("Ay")
	lineSpacing := lineH + 4
	curY := tableY + float64(headerHeight)

	for rowIdx, c := range cases {
		rh := rowHeights[rowIdx]

		if rowIdx%2 == 0 {
			dc.SetColor(rowEvenColor)
		} else {
			dc.SetColor(rowOddColor)
		}
		dc.DrawRectangle(tableX, curY, totalWidth, rh)
		dc.Fill()

		dc.SetColor(borderColor)
		dc.SetLineWidth(0.5)
		dc.DrawLine(tableX, curY+rh, tableX+totalWidth, curY+rh)
		dc.Stroke()

		dc.SetColor(textColor)
		x := tableX
		for i, col := range columns {
			wrapped := wrapText(dc, col.field(c), colWidths[i]-cellPaddingX*2)
			totalTextH := float64(len(wrapped)) * lineSpacing
			startY := curY + (rh-totalTextH)/2 + lineH
			for lineIdx, line := range wrapped {
				dc.DrawString(line, x+cellPaddingX, startY+float64(lineIdx)*lineSpacing)
			}
			x += colWidths[i]
		}
		curY += rh
	}

	// Outer table border and column separators
	dc.SetColor(borderColor)
	dc.SetLineWidth(1)
	totalTableH := float64(headerHeight) + totalRowHeight
	dc.DrawRoundedRectangle(tableX, tableY, totalWidth, totalTableH, 16)
	dc.Stroke()

	dc.SetLineWidth(0.5)
	x = tableX
	for i := 0; i < len(columns)-1; i++ {
		x += colWidths[i]
		dc.DrawLine(x, tableY+float64(headerHeight), x, tableY+totalTableH)
		dc.Stroke()
	}

	dc.LoadFontFace(regularFont, 24)
	dc.SetColor(footerColor)
	footer := fmt.Sprintf("Total: %d customer(s)", len(cases))
	dc.DrawStringAnchored(footer, canvasWidth/2, canvasHeight-30, 0.5, 0.5)

	return encodeImage(dc.Image())
}

func renderEmptySnapshot(title, boldFont, regularFont string) ([]byte, error) {
	dc := gg.NewContext(1000, 300)
	dc.SetColor(bgColor)
	dc.Clear()

	if err := dc.LoadFontFace(boldFont, titleFontSz); err != nil {
		return nil, fmt.Errorf("failed to load bold font: %w", err)
	}
	dc.SetColor(titleColor)
	dc.DrawStringAnchored(title, 500, 110, 0.5, 0.5)

	if err := dc.LoadFontFace(regularFont, fontSize); err != nil {
		return nil, fmt.Errorf("failed to load regular font: %w", err)
	}
	dc.SetColor(footerColor)
	dc.DrawStringAnchored("No interactions recorded.", 500, 190, 0.5, 0.5)

	return encodeImage(dc.Image())
}

func encodeImage(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}
