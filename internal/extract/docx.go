package extract

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// extractDOCXParagraphs is the primary DOCX strategy: walk the main document
// part paragraph by paragraph, skip paragraphs that are empty after trimming,
// join the rest with a blank line.
func extractDOCXParagraphs(_ context.Context, path string) (string, int, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", 0, fmt.Errorf("open docx: %w", err)
	}
	defer zr.Close()

	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return "", 0, errors.New("word/document.xml missing")
	}

	rc, err := doc.Open()
	if err != nil {
		return "", 0, fmt.Errorf("open document part: %w", err)
	}
	defer rc.Close()

	paras, err := parseParagraphs(rc)
	if err != nil {
		return "", 0, err
	}
	return strings.Join(paras, "\n\n"), len(paras), nil
}

// parseParagraphs streams the WordprocessingML body. Text lives in w:t
// elements inside w:p paragraphs; w:tab and w:br become literal whitespace.
func parseParagraphs(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)
	var (
		paras  []string
		cur    strings.Builder
		inPara bool
		inText bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse document xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				inPara = true
				cur.Reset()
			case "t":
				inText = true
			case "tab":
				if inPara {
					cur.WriteByte('\t')
				}
			case "br", "cr":
				if inPara {
					cur.WriteByte('\n')
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if inPara {
					if para := strings.TrimSpace(cur.String()); para != "" {
						paras = append(paras, para)
					}
					inPara = false
				}
			}
		case xml.CharData:
			if inPara && inText {
				cur.Write([]byte(t))
			}
		}
	}
	return paras, nil
}

var reXMLTag = regexp.MustCompile(`<[^>]*>`)

var xmlEntities = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&apos;", "'",
)

// extractDOCXTagStrip is the fallback strategy: strip markup from every body,
// header and footer part wholesale. Loses structure, survives odd documents.
func extractDOCXTagStrip(_ context.Context, path string) (string, int, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", 0, fmt.Errorf("open docx: %w", err)
	}
	defer zr.Close()

	var parts []string
	for _, f := range zr.File {
		if !isDOCXTextPart(f.Name) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			continue
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			continue
		}
		text := xmlEntities.Replace(reXMLTag.ReplaceAllString(string(data), " "))
		if strings.TrimSpace(text) == "" {
			continue
		}
		parts = append(parts, text)
	}
	if len(parts) == 0 {
		return "", 0, errors.New("no readable document parts")
	}
	return strings.Join(parts, "\n\n"), len(parts), nil
}

func isDOCXTextPart(name string) bool {
	return name == "word/document.xml" ||
		strings.HasPrefix(name, "word/header") ||
		strings.HasPrefix(name, "word/footer")
}
