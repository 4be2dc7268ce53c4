package importer

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	_ "image/png" // excelize decodes picture dimensions when anchoring
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"catalog-service/internal/models"
)

// 1x1 transparent PNG.
var testPNG, _ = base64.StdEncoding.DecodeString(
	"iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNk+M9QDwADhgGAWjR9awAAAABJRU5ErkJggg==")

// buildWorkbookWithPicture returns xlsx bytes with the import header, one
// data row, and a picture anchored at the given cell.
func buildWorkbookWithPicture(t *testing.T, pictureCell string) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	for i, name := range models.ImportColumns() {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		require.NoError(t, err)
		require.NoError(t, f.SetCellValue(sheet, cell, name))
	}
	for i, value := range []interface{}{"Air Max", "Runner", 129.99, 25, "Shoes", "Nike", "USD"} {
		cell, err := excelize.CoordinatesToCellName(i+1, 2)
		require.NoError(t, err)
		require.NoError(t, f.SetCellValue(sheet, cell, value))
	}

	if pictureCell != "" {
		require.NoError(t, f.AddPictureFromBytes(sheet, pictureCell, &excelize.Picture{
			Extension: ".png",
			File:      testPNG,
		}))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestExtractImagesFromDrawingLayer(t *testing.T) {
	// H2 is the image1 slot of the first data row.
	data := buildWorkbookWithPicture(t, "H2")

	set := ExtractImages(data, models.ImportImageColumns())

	images := set.ForRow(2)
	assert.Len(t, images, 1)
	assert.Equal(t, "image/png", images[0].MIMEType)
	assert.Equal(t, testPNG, images[0].Data)
	assert.Nil(t, set.Fallback)
}

func TestExtractImagesIgnoresNonImageColumns(t *testing.T) {
	// A picture on the title column is outside every image slot.
	data := buildWorkbookWithPicture(t, "A2")

	set := ExtractImages(data, models.ImportImageColumns())

	assert.Equal(t, 0, set.Len())
}

func TestExtractImagesWithoutPictures(t *testing.T) {
	data := buildWorkbookWithPicture(t, "")

	set := ExtractImages(data, models.ImportImageColumns())

	assert.Equal(t, 0, set.Len())
	assert.Nil(t, set.Fallback)
}

func TestExtractImagesUnreadableContainer(t *testing.T) {
	set := ExtractImages([]byte("not a zip archive"), models.ImportImageColumns())

	assert.Equal(t, 0, set.Len())
	assert.Nil(t, set.Fallback)
}

func writeZip(t *testing.T, parts map[string][]byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range parts {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestExtractImagesLegacyVML(t *testing.T) {
	data := writeZip(t, map[string][]byte{
		"xl/workbook.xml": []byte(`<?xml version="1.0"?>
<workbook xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
  <sheets><sheet name="Sheet1" sheetId="1" r:id="rId1"/></sheets>
</workbook>`),
		"xl/_rels/workbook.xml.rels": []byte(`<?xml version="1.0"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/worksheet" Target="worksheets/sheet1.xml"/>
</Relationships>`),
		"xl/worksheets/sheet1.xml": []byte(`<?xml version="1.0"?>
<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
  <sheetData/>
  <legacyDrawing r:id="rId2"/>
</worksheet>`),
		"xl/worksheets/_rels/sheet1.xml.rels": []byte(`<?xml version="1.0"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/vmlDrawing" Target="../drawings/vmlDrawing1.vml"/>
</Relationships>`),
		"xl/drawings/vmlDrawing1.vml": []byte(`<xml xmlns:v="urn:schemas-microsoft-com:vml" xmlns:o="urn:schemas-microsoft-com:office:office" xmlns:x="urn:schemas-microsoft-com:office:excel">
  <v:shape id="_x0000_s1025" type="#_x0000_t75">
    <v:imagedata o:relid="rId1" o:title="embedded"/>
    <x:ClientData ObjectType="Pict">
      <x:Row>1</x:Row>
      <x:Column>7</x:Column>
    </x:ClientData>
  </v:shape>
</xml>`),
		"xl/drawings/_rels/vmlDrawing1.vml.rels": []byte(`<?xml version="1.0"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="../media/image1.png"/>
</Relationships>`),
		"xl/media/image1.png": testPNG,
	})

	set := ExtractImages(data, models.ImportImageColumns())

	images := set.ForRow(2)
	assert.Len(t, images, 1)
	assert.Equal(t, "image/png", images[0].MIMEType)
	assert.Equal(t, testPNG, images[0].Data)
}

func TestExtractImagesNoFallbackWhenLegacyAnchorsResolve(t *testing.T) {
	// A legacy shape anchored outside every image slot suppresses the
	// shared default, same as a modern drawing would.
	data := writeZip(t, map[string][]byte{
		"xl/workbook.xml": []byte(`<?xml version="1.0"?>
<workbook xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
  <sheets><sheet name="Sheet1" sheetId="1" r:id="rId1"/></sheets>
</workbook>`),
		"xl/_rels/workbook.xml.rels": []byte(`<?xml version="1.0"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/worksheet" Target="worksheets/sheet1.xml"/>
</Relationships>`),
		"xl/worksheets/sheet1.xml": []byte(`<?xml version="1.0"?>
<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
  <sheetData/>
  <legacyDrawing r:id="rId2"/>
</worksheet>`),
		"xl/worksheets/_rels/sheet1.xml.rels": []byte(`<?xml version="1.0"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/vmlDrawing" Target="../drawings/vmlDrawing1.vml"/>
</Relationships>`),
		"xl/drawings/vmlDrawing1.vml": []byte(`<xml xmlns:v="urn:schemas-microsoft-com:vml" xmlns:o="urn:schemas-microsoft-com:office:office" xmlns:x="urn:schemas-microsoft-com:office:excel">
  <v:shape id="_x0000_s1025" type="#_x0000_t75">
    <v:imagedata o:relid="rId1" o:title="embedded"/>
    <x:ClientData ObjectType="Pict">
      <x:Row>1</x:Row>
      <x:Column>0</x:Column>
    </x:ClientData>
  </v:shape>
</xml>`),
		"xl/drawings/_rels/vmlDrawing1.vml.rels": []byte(`<?xml version="1.0"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="../media/image1.png"/>
</Relationships>`),
		"xl/media/image1.png": testPNG,
	})

	set := ExtractImages(data, models.ImportImageColumns())

	assert.Equal(t, 0, set.Len())
	assert.Nil(t, set.Fallback)
}

func TestExtractImagesFallsBackToFirstMediaFile(t *testing.T) {
	// A container carrying media with no resolvable anchors still offers
	// the first media file as a shared default.
	data := writeZip(t, map[string][]byte{
		"xl/media/image2.jpeg": []byte("jpeg-bytes"),
		"xl/media/image1.png":  testPNG,
	})

	set := ExtractImages(data, models.ImportImageColumns())

	assert.Equal(t, 0, set.Len())
	assert.NotNil(t, set.Fallback)
	assert.Equal(t, "image/png", set.Fallback.MIMEType)
	assert.Equal(t, testPNG, set.Fallback.Data)
}
