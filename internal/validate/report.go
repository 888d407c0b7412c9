package validate

import "github.com/tordrt/prismagen/internal/schema"

// Subject groups the diagnostics produced for one model or relationship
type Subject struct {
	Entity      Entity      `json:"entity"`
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Diagnostics Diagnostics `json:"diagnostics"`
}

// Report is the result of validating every entity of a document
type Report struct {
	Subjects []Subject `json:"subjects"`
}

// ValidateDocument runs ValidateModel for every model and
// ValidateRelationship for every relationship, in document order.
// Subjects without diagnostics are included so callers can list them.
func ValidateDocument(doc schema.Document) Report {
	var r Report
	for _, m := range doc.Models {
		r.Subjects = append(r.Subjects, Subject{
			Entity:      EntityModel,
			ID:          m.ID,
			Name:        m.Name,
			Diagnostics: ValidateModel(m, doc.Models),
		})
	}
	for _, rel := range doc.Relationships {
		r.Subjects = append(r.Subjects, Subject{
			Entity:      EntityRelationship,
			ID:          rel.ID,
			Name:        doc.ModelName(rel.FromModel) + " -> " + doc.ModelName(rel.ToModel),
			Diagnostics: ValidateRelationship(rel, doc.Models),
		})
	}
	return r
}

// HasErrors reports whether any subject has an error diagnostic
func (r Report) HasErrors() bool {
	for _, s := range r.Subjects {
		if s.Diagnostics.HasErrors() {
			return true
		}
	}
	return false
}

// Count returns the number of errors and warnings in the report
func (r Report) Count() (errs, warnings int) {
	for _, s := range r.Subjects {
		errs += len(s.Diagnostics.Errors())
		warnings += len(s.Diagnostics.Warnings())
	}
	return errs, warnings
}
