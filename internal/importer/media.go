package importer

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
)

// The xlsx container is a zip of XML parts. Pictures are not cell values:
// they live in a drawing layer anchored to row/column coordinates, reachable
// only through the workbook -> sheet -> drawing relationship chain. Excel and
// LibreOffice write a modern DrawingML part; older producers write a legacy
// VML part. Both are handled here; every part is optional and an absent link
// anywhere in the chain degrades to "no embedded images" instead of an error.

// drawingAnchorKind tags which drawing mechanism the first sheet references.
type drawingAnchorKind int

const (
	drawingAbsent drawingAnchorKind = iota
	drawingModern
	drawingLegacy
)

// MediaSet maps 1-based spreadsheet row numbers to the images anchored on
// that row, compacted in image-slot order and capped at the slot count.
// Fallback is the archive's first media file, used only when no anchored
// image resolved anywhere in the document.
type MediaSet struct {
	byRow    map[int][]EmbeddedImage
	Fallback *EmbeddedImage
}

// ForRow returns the images anchored at the given 1-based row, if any.
func (m *MediaSet) ForRow(row int) []EmbeddedImage {
	if m == nil || m.byRow == nil {
		return nil
	}
	return m.byRow[row]
}

// Len returns the number of rows that resolved at least one anchored image.
func (m *MediaSet) Len() int {
	if m == nil {
		return 0
	}
	return len(m.byRow)
}

type archive struct {
	parts map[string]*zip.File
}

func openArchive(data []byte) (*archive, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	parts := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		parts[f.Name] = f
	}
	return &archive{parts: parts}, nil
}

func (a *archive) read(name string) ([]byte, bool) {
	f, ok := a.parts[name]
	if !ok {
		return nil, false
	}
	rc, err := f.Open()
	if err != nil {
		return nil, false
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, false
	}
	return data, true
}

// relationship index of an OPC part (the *.rels files).
type relationship struct {
	ID     string `xml:"Id,attr"`
	Type   string `xml:"Type,attr"`
	Target string `xml:"Target,attr"`
}

type relationshipIndex struct {
	Relationships []relationship `xml:"Relationship"`
}

// relsFor parses the relationship index belonging to the given part and
// returns rId -> resolved part path. Targets are relative to the part's
// directory unless they start with "/".
func (a *archive) relsFor(partPath string) map[string]string {
	dir := path.Dir(partPath)
	relsPath := path.Join(dir, "_rels", path.Base(partPath)+".rels")

	data, ok := a.read(relsPath)
	if !ok {
		return nil
	}

	var index relationshipIndex
	if err := xml.Unmarshal(data, &index); err != nil {
		return nil
	}

	resolved := make(map[string]string, len(index.Relationships))
	for _, rel := range index.Relationships {
		resolved[rel.ID] = resolveTarget(dir, rel.Target)
	}
	return resolved
}

func resolveTarget(baseDir, target string) string {
	if strings.HasPrefix(target, "/") {
		return path.Clean(strings.TrimPrefix(target, "/"))
	}
	return path.Clean(path.Join(baseDir, target))
}

// workbook part: only the sheet order and relationship ids matter here.
type workbookPart struct {
	Sheets struct {
		Sheets []struct {
			Name string `xml:"name,attr"`
			RID  string `xml:"id,attr"`
		} `xml:"sheet"`
	} `xml:"sheets"`
}

// sheet part: a worksheet references its drawing layers by relationship id.
type worksheetPart struct {
	Drawing *struct {
		RID string `xml:"id,attr"`
	} `xml:"drawing"`
	LegacyDrawing *struct {
		RID string `xml:"id,attr"`
	} `xml:"legacyDrawing"`
}

// DrawingML anchors. absoluteAnchor has no cell coordinates and is skipped.
type drawingAnchor struct {
	From struct {
		Col int `xml:"col"`
		Row int `xml:"row"`
	} `xml:"from"`
	Pic struct {
		BlipFill struct {
			Blip struct {
				Embed string `xml:"embed,attr"`
			} `xml:"blip"`
		} `xml:"blipFill"`
	} `xml:"pic"`
}

type drawingPart struct {
	TwoCellAnchors []drawingAnchor `xml:"twoCellAnchor"`
	OneCellAnchors []drawingAnchor `xml:"oneCellAnchor"`
}

// Legacy VML shapes carry their cell anchor in ClientData and their media
// reference on the imagedata element.
type vmlShape struct {
	ImageData struct {
		RelID string `xml:"relid,attr"`
	} `xml:"imagedata"`
	ClientData struct {
		Row    *int `xml:"Row"`
		Column *int `xml:"Column"`
	} `xml:"ClientData"`
}

type vmlPart struct {
	Shapes []vmlShape `xml:"shape"`
}

// resolvedAnchor is a drawing record normalized across both mechanisms.
type resolvedAnchor struct {
	row   int // zero-based
	col   int // zero-based
	media string
}

// ExtractImages walks the container's drawing layer and returns the images
// anchored in the requested zero-based columns, keyed by 1-based spreadsheet
// row. It never fails the batch: an unreadable container or a missing part at
// any step yields an empty MediaSet.
func ExtractImages(data []byte, imageCols []int) *MediaSet {
	set := &MediaSet{byRow: make(map[int][]EmbeddedImage)}

	a, err := openArchive(data)
	if err != nil {
		return set
	}

	anchors, kind := a.collectAnchors()

	wanted := make(map[int]bool, len(imageCols))
	for _, c := range imageCols {
		wanted[c] = true
	}

	// First anchor wins per row+column.
	type slotKey struct{ row, col int }
	slots := make(map[slotKey]EmbeddedImage)
	for _, anchor := range anchors {
		if !wanted[anchor.col] {
			continue
		}
		key := slotKey{row: anchor.row + 1, col: anchor.col}
		if _, taken := slots[key]; taken {
			continue
		}
		payload, ok := a.read(anchor.media)
		if !ok {
			continue
		}
		ext := strings.ToLower(path.Ext(anchor.media))
		slots[key] = EmbeddedImage{
			Data:     payload,
			MIMEType: mimeFromExtension(ext),
			FileName: fmt.Sprintf("embedded-row%d-col%d%s", key.row, anchor.col+1, ext),
		}
	}

	// Compact per row in slot order, capped at the slot count.
	for key := range slots {
		if _, done := set.byRow[key.row]; done {
			continue
		}
		images := make([]EmbeddedImage, 0, len(imageCols))
		for _, col := range imageCols {
			if img, ok := slots[slotKey{row: key.row, col: col}]; ok {
				images = append(images, img)
			}
			if len(images) == len(imageCols) {
				break
			}
		}
		set.byRow[key.row] = images
	}

	// Heuristic carried over from the original importer: when no anchor
	// resolved through either drawing mechanism, offer the archive's first
	// media file as a shared default candidate. A document whose anchors all
	// sit outside the image columns gets no fallback either way.
	if set.Len() == 0 && kind == drawingAbsent {
		set.Fallback = a.firstMediaFile()
	}

	return set
}

// collectAnchors resolves the workbook's first sheet and parses whichever
// drawing mechanism it references.
func (a *archive) collectAnchors() ([]resolvedAnchor, drawingAnchorKind) {
	wbData, ok := a.read("xl/workbook.xml")
	if !ok {
		return nil, drawingAbsent
	}
	var wb workbookPart
	if err := xml.Unmarshal(wbData, &wb); err != nil || len(wb.Sheets.Sheets) == 0 {
		return nil, drawingAbsent
	}

	wbRels := a.relsFor("xl/workbook.xml")
	sheetPath, ok := wbRels[wb.Sheets.Sheets[0].RID]
	if !ok {
		return nil, drawingAbsent
	}

	sheetData, ok := a.read(sheetPath)
	if !ok {
		return nil, drawingAbsent
	}
	var ws worksheetPart
	if err := xml.Unmarshal(sheetData, &ws); err != nil {
		return nil, drawingAbsent
	}

	sheetRels := a.relsFor(sheetPath)

	if ws.Drawing != nil {
		if drawingPath, ok := sheetRels[ws.Drawing.RID]; ok {
			if anchors := a.modernAnchors(drawingPath); len(anchors) > 0 {
				return anchors, drawingModern
			}
		}
	}

	if ws.LegacyDrawing != nil {
		if vmlPath, ok := sheetRels[ws.LegacyDrawing.RID]; ok {
			if anchors := a.legacyAnchors(vmlPath); len(anchors) > 0 {
				return anchors, drawingLegacy
			}
		}
	}

	return nil, drawingAbsent
}

func (a *archive) modernAnchors(drawingPath string) []resolvedAnchor {
	data, ok := a.read(drawingPath)
	if !ok {
		return nil
	}
	var part drawingPart
	if err := xml.Unmarshal(data, &part); err != nil {
		return nil
	}

	rels := a.relsFor(drawingPath)

	raw := make([]drawingAnchor, 0, len(part.TwoCellAnchors)+len(part.OneCellAnchors))
	raw = append(raw, part.TwoCellAnchors...)
	raw = append(raw, part.OneCellAnchors...)

	anchors := make([]resolvedAnchor, 0, len(raw))
	for _, anchor := range raw {
		embed := anchor.Pic.BlipFill.Blip.Embed
		if embed == "" {
			continue
		}
		media, ok := rels[embed]
		if !ok {
			continue
		}
		anchors = append(anchors, resolvedAnchor{
			row:   anchor.From.Row,
			col:   anchor.From.Col,
			media: media,
		})
	}
	return anchors
}

func (a *archive) legacyAnchors(vmlPath string) []resolvedAnchor {
	data, ok := a.read(vmlPath)
	if !ok {
		return nil
	}

	// VML in the wild is frequently not well-formed XML; parse leniently.
	var part vmlPart
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false
	dec.Entity = xml.HTMLEntity
	if err := dec.Decode(&part); err != nil {
		return nil
	}

	rels := a.relsFor(vmlPath)

	anchors := make([]resolvedAnchor, 0, len(part.Shapes))
	for _, shape := range part.Shapes {
		if shape.ImageData.RelID == "" || shape.ClientData.Row == nil || shape.ClientData.Column == nil {
			continue
		}
		media, ok := rels[shape.ImageData.RelID]
		if !ok {
			continue
		}
		anchors = append(anchors, resolvedAnchor{
			row:   *shape.ClientData.Row,
			col:   *shape.ClientData.Column,
			media: media,
		})
	}
	return anchors
}

// firstMediaFile returns the first file under xl/media/, by name, if any.
func (a *archive) firstMediaFile() *EmbeddedImage {
	names := make([]string, 0, len(a.parts))
	for name := range a.parts {
		if strings.HasPrefix(name, "xl/media/") {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil
	}
	sort.Strings(names)

	payload, ok := a.read(names[0])
	if !ok {
		return nil
	}
	ext := strings.ToLower(path.Ext(names[0]))
	return &EmbeddedImage{
		Data:     payload,
		MIMEType: mimeFromExtension(ext),
		FileName: "embedded-default" + ext,
	}
}

func mimeFromExtension(ext string) string {
	switch ext {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".bmp":
		return "image/bmp"
	case ".webp":
		return "image/webp"
	case ".tif", ".tiff":
		return "image/tiff"
	case ".emf", ".wmf":
		return "image/x-emf"
	default:
		return "application/octet-stream"
	}
}
