package exportsvc

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// A minimal WordprocessingML package: content types, the package relationship and the main document.
const (
	docxContentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
		`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
		`<Default Extension="xml" ContentType="application/xml"/>` +
		`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
		`</Types>`

	docxRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
		`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
		`</Relationships>`

	docxDocumentStart = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`

	// A4, 0.5" margins
	docxDocumentEnd = `<w:sectPr><w:pgSz w:w="11906" w:h="16838"/>` +
		`<w:pgMar w:top="720" w:right="720" w:bottom="720" w:left="720" w:header="708" w:footer="708" w:gutter="0"/>` +
		`</w:sectPr></w:body></w:document>`

	alignLeft   = "left"
	alignCenter = "center"

	vMergeRestart  = "restart"
	vMergeContinue = "continue"
)

type (
	runStyle struct {
		bold bool
		size int // half-points, 0 for the default size
	}

	cell struct {
		text   string // "\n" separates lines
		width  int    // twips
		span   int
		vMerge string
		fill   string
		align  string
		style  runStyle
		inner  *table // nested table, rendered before the text
	}

	table struct {
		widths  []int
		borders bool
		center  bool
		rows    [][]cell
	}

	// docBuilder accumulates the body of word/document.xml.
	docBuilder struct {
		buf bytes.Buffer
	}
)

func esc(s string) string {
	var b bytes.Buffer
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

func (b *docBuilder) write(parts ...string) {
	for _, p := range parts {
		b.buf.WriteString(p)
	}
}

// paragraph writes one paragraph; "\n" in text becomes a line break.
func (b *docBuilder) paragraph(text, align string, style runStyle, bottomBorder bool) {
	b.write("<w:p><w:pPr>")
	if bottomBorder {
		b.write(`<w:pBdr><w:bottom w:val="single" w:sz="12" w:space="1" w:color="000000"/></w:pBdr>`)
	}
	if align != "" {
		b.write(`<w:jc w:val="`, align, `"/>`)
	}
	b.write("</w:pPr>")
	for i, line := range strings.Split(text, "\n") {
		b.write("<w:r>")
		if style.bold || style.size > 0 {
			b.write("<w:rPr>")
			if style.bold {
				b.write("<w:b/>")
			}
			if style.size > 0 {
				b.write(`<w:sz w:val="`, strconv.Itoa(style.size), `"/>`)
			}
			b.write("</w:rPr>")
		}
		if i > 0 {
			b.write("<w:br/>")
		}
		b.write(`<w:t xml:space="preserve">`, esc(line), "</w:t></w:r>")
	}
	b.write("</w:p>")
}

func (b *docBuilder) emptyParagraph() {
	b.write("<w:p/>")
}

func (b *docBuilder) table(t table) {
	b.write("<w:tbl><w:tblPr>", `<w:tblW w:w="0" w:type="auto"/>`)
	if t.center {
		b.write(`<w:jc w:val="center"/>`)
	}
	if t.borders {
		b.write("<w:tblBorders>")
		for _, side := range []string{"top", "left", "bottom", "right", "insideH", "insideV"} {
			b.write("<w:", side, ` w:val="single" w:sz="4" w:space="0" w:color="000000"/>`)
		}
		b.write("</w:tblBorders>")
	}
	b.write(`<w:tblLayout w:type="fixed"/></w:tblPr><w:tblGrid>`)
	for _, w := range t.widths {
		b.write(`<w:gridCol w:w="`, strconv.Itoa(w), `"/>`)
	}
	b.write("</w:tblGrid>")

	for _, row := range t.rows {
		b.write("<w:tr>")
		col := 0
		for _, c := range row {
			span := c.span
			if span < 1 {
				span = 1
			}
			width := c.width
			if width == 0 {
				for i := col; i < col+span && i < len(t.widths); i++ {
					width += t.widths[i]
				}
			}
			col += span

			b.write("<w:tc><w:tcPr>", `<w:tcW w:w="`, strconv.Itoa(width), `" w:type="dxa"/>`)
			if span > 1 {
				b.write(`<w:gridSpan w:val="`, strconv.Itoa(span), `"/>`)
			}
			switch c.vMerge {
			case vMergeRestart:
				b.write(`<w:vMerge w:val="restart"/>`)
			case vMergeContinue:
				b.write("<w:vMerge/>")
			}
			if c.fill != "" {
				b.write(`<w:shd w:val="clear" w:color="auto" w:fill="`, c.fill, `"/>`)
			}
			b.write(`<w:vAlign w:val="center"/></w:tcPr>`)

			if c.inner != nil {
				b.table(*c.inner)
			}
			// a cell always ends with a paragraph
			b.paragraph(c.text, c.align, c.style, false)
			b.write("</w:tc>")
		}
		b.write("</w:tr>")
	}
	b.write("</w:tbl>")
}

// writeDocx packages the document body into a .docx archive.
func writeDocx(out io.Writer, body []byte) error {
	zw := zip.NewWriter(out)
	parts := []struct {
		name    string
		content []byte
	}{
		{"[Content_Types].xml", []byte(docxContentTypes)},
		{"_rels/.rels", []byte(docxRels)},
		{"word/document.xml", append(append([]byte(docxDocumentStart), body...), docxDocumentEnd...)},
	}
	for _, p := range parts {
		w, err := zw.Create(p.name)
		if err != nil {
			return errors.Wrap(err, "creating "+p.name)
		}
		if _, err = w.Write(p.content); err != nil {
			return errors.Wrap(err, "writing "+p.name)
		}
	}
	return errors.Wrap(zw.Close(), "closing docx archive")
}
