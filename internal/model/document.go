// Package model holds the view models shared by the host handlers and
// templates.
package model

import (
	"strings"

	"github.com/debemdeboas/semantic-composer/internal/util"
)

type DocumentID string

// Document summarizes one stored document for listings.
type Document struct {
	ID      DocumentID
	Key     string
	Title   string
	Length  int
	Hash    string
	Current bool

	// Optional data from the front matter.
	Info *util.ExtendedTitleData
}

func NewDocument(id DocumentID, key, markdown string, current bool) Document {
	doc := Document{
		ID:      id,
		Key:     key,
		Title:   util.DocumentTitle([]byte(markdown), string(id)),
		Length:  len(markdown),
		Hash:    util.ContentHashString(markdown),
		Current: current,
	}
	if info, err := util.GetFrontMatter([]byte(markdown)); err == nil {
		doc.Info = info
	}
	return doc
}

// DisplayTitle prefixes the title with the series marker when the front
// matter names one.
func (d Document) DisplayTitle() string {
	if d.Info == nil || d.Info.Title == "" {
		return d.Title
	}

	var s strings.Builder
	if d.Info.SeriesInfo.Name != "" && d.Info.SeriesInfo.Value != "" {
		s.WriteString("[")
		s.WriteString(d.Info.SeriesInfo.Name)
		s.WriteString("-")
		s.WriteString(d.Info.SeriesInfo.Value)
		s.WriteString("] ")
	}
	s.WriteString(d.Info.Title)
	return s.String()
}
