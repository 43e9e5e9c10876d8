// Package docx assembles per-page transcripts into a Word document.
//
// The writer emits a minimal OOXML package (zip containing
// word/document.xml plus the package plumbing): each line of a page's text
// becomes one paragraph, and a hard page break separates consecutive pages
// so the output mirrors the original PDF's pagination.
package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
<Override PartName="/docProps/core.xml" ContentType="application/vnd.openxmlformats-package.core-properties+xml"/>
</Types>`

	packageRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties" Target="docProps/core.xml"/>
</Relationships>`
)

// Build writes a .docx at outputPath from per-page text strings, one
// original PDF page per output page. title is used for document metadata.
//
// An empty page list is rejected: a conversion that produced no pages must
// fail rather than yield an empty document.
func Build(pageTexts []string, outputPath, title string) error {
	data, err := Bytes(pageTexts, title)
	if err != nil {
		return err
	}
	return os.WriteFile(outputPath, data, 0o644)
}

// Bytes renders the document in memory.
func Bytes(pageTexts []string, title string) ([]byte, error) {
	if len(pageTexts) == 0 {
		return nil, fmt.Errorf("no page texts to assemble")
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	parts := []struct {
		name string
		body string
	}{
		{"[Content_Types].xml", contentTypesXML},
		{"_rels/.rels", packageRelsXML},
		{"docProps/core.xml", corePropertiesXML(title)},
		{"word/document.xml", documentXML(pageTexts)},
	}
	for _, p := range parts {
		w, err := zw.Create(p.name)
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", p.name, err)
		}
		if _, err := w.Write([]byte(p.body)); err != nil {
			return nil, fmt.Errorf("write %s: %w", p.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize docx: %w", err)
	}
	return buf.Bytes(), nil
}

func corePropertiesXML(title string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	b.WriteString(`<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">`)
	b.WriteString(`<dc:title>OCR: ` + escape(title) + `</dc:title>`)
	b.WriteString(`<dc:creator>Handwritten OCR App</dc:creator>`)
	b.WriteString(`<dcterms:created xsi:type="dcterms:W3CDTF">` + time.Now().UTC().Format(time.RFC3339) + `</dcterms:created>`)
	b.WriteString(`</cp:coreProperties>`)
	return b.String()
}

func documentXML(pageTexts []string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	b.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)

	for pageIndex, text := range pageTexts {
		for _, line := range strings.Split(text, "\n") {
			line = strings.TrimSuffix(line, "\r")
			b.WriteString(`<w:p><w:r><w:t xml:space="preserve">`)
			b.WriteString(escape(line))
			b.WriteString(`</w:t></w:r></w:p>`)
		}
		// Hard page break between pages, none after the last one.
		if pageIndex < len(pageTexts)-1 {
			b.WriteString(`<w:p><w:r><w:br w:type="page"/></w:r></w:p>`)
		}
	}

	b.WriteString(`<w:sectPr/></w:body></w:document>`)
	return b.String()
}

func escape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
