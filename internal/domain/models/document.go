package models

import (
	"path/filepath"
	"strings"
	"time"
)

type DocumentType string

const (
	DocumentPDF   DocumentType = "pdf"
	DocumentDoc   DocumentType = "doc"
	DocumentDocx  DocumentType = "docx"
	DocumentXls   DocumentType = "xls"
	DocumentXlsx  DocumentType = "xlsx"
	DocumentOther DocumentType = "other"
)

type Document struct {
	ID         string       `json:"id" db:"id"`
	Name       string       `json:"name" db:"name"`
	Type       DocumentType `json:"type" db:"type"`
	FileURL    string       `json:"file_url" db:"file_url"`
	PublicID   string       `json:"public_id" db:"public_id"`
	Size       int64        `json:"size" db:"size"`
	Tags       []string     `json:"tags" db:"tags"`
	UploadedBy string       `json:"uploaded_by" db:"uploaded_by"`
	UploadedAt time.Time    `json:"uploaded_at" db:"uploaded_at"`
	ProjectID  *string      `json:"project_id,omitempty" db:"project_id"`
}

var documentNameReplacer = strings.NewReplacer(
	"/", "-", `\`, "-", "?", "-", "%", "-", "*", "-",
	":", "-", "|", "-", `"`, "-", "<", "-", ">", "-",
)

// SanitizeDocumentName replaces characters that are unsafe in CDN public ids.
func SanitizeDocumentName(name string) string {
	return documentNameReplacer.Replace(strings.TrimSpace(name))
}

// DocumentTypeFromName derives the document type from the file extension.
func DocumentTypeFromName(name string) DocumentType {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	switch DocumentType(ext) {
	case DocumentPDF, DocumentDoc, DocumentDocx, DocumentXls, DocumentXlsx:
		return DocumentType(ext)
	}
	return DocumentOther
}
