package aries

import (
	"time"

	"github.com/sells-group/aries-import/internal/model"
)

// DocumentList is a project-scoped, content-deduplicated list of documents
// of one kind. It accumulates across wells for the life of a batch.
type DocumentList[D model.Document] struct {
	docs []D
	keys []string
}

// Docs returns the canonical documents registered so far.
func (l *DocumentList[D]) Docs() []D { return l.docs }

// Len returns the number of distinct documents.
func (l *DocumentList[D]) Len() int { return len(l.docs) }

// CompareAndSave registers doc for the given well. When an existing
// document's content (everything except the well set and identity fields)
// matches, the well is added to the existing document's set and the
// canonical instance is returned; otherwise doc is appended and returned.
// Calling it twice with the same content never creates a duplicate entry.
func (l *DocumentList[D]) CompareAndSave(doc D, key model.WellKey) (D, error) {
	ck, err := model.ContentKey(doc)
	if err != nil {
		var zero D
		return zero, err
	}
	for i, existing := range l.docs {
		if l.keys[i] == ck {
			meta := existing.Meta()
			meta.Wells.Add(key)
			meta.UpdatedAt = time.Now().UTC()
			return existing, nil
		}
	}
	doc.Meta().Wells.Add(key)
	l.docs = append(l.docs, doc)
	l.keys = append(l.keys, ck)
	return doc, nil
}

// Consolidate re-keys every document and merges entries whose content
// became equal after a post-save rewrite (escalation id canonicalization
// changes row content without going through CompareAndSave). Well sets of
// merged entries union onto the surviving document.
func (l *DocumentList[D]) Consolidate() error {
	docs := l.docs
	l.docs = nil
	l.keys = nil
	for _, d := range docs {
		ck, err := model.ContentKey(d)
		if err != nil {
			return err
		}
		merged := false
		for i := range l.docs {
			if l.keys[i] == ck {
				meta := l.docs[i].Meta()
				for k := range d.Meta().Wells {
					meta.Wells.Add(k)
				}
				merged = true
				break
			}
		}
		if !merged {
			l.docs = append(l.docs, d)
			l.keys = append(l.keys, ck)
		}
	}
	return nil
}

// Detach removes a well from whichever document currently holds it. Used
// by the overlay pass when a well moves to an overlaid copy.
func (l *DocumentList[D]) Detach(key model.WellKey) {
	for _, d := range l.docs {
		d.Meta().Wells.Remove(key)
	}
}

// FindByWell returns the document currently assigned to a well, if any.
func (l *DocumentList[D]) FindByWell(key model.WellKey) (D, bool) {
	for _, d := range l.docs {
		if d.Meta().Wells.Has(key) {
			return d, true
		}
	}
	var zero D
	return zero, false
}
