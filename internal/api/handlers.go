package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tordrt/prismagen/internal/formatter"
	"github.com/tordrt/prismagen/internal/schema"
	"github.com/tordrt/prismagen/internal/state"
	"github.com/tordrt/prismagen/internal/validate"
)

// CommitResult is the data of a successful add or update command
type CommitResult struct {
	ID          string               `json:"id"`
	Diagnostics validate.Diagnostics `json:"diagnostics"`
	Document    schema.Document      `json:"document"`
}

// DeleteResult is the data of a successful delete command
type DeleteResult struct {
	Removed  []schema.Relationship `json:"removedRelationships,omitempty"`
	Document schema.Document       `json:"document"`
}

type moveRequest struct {
	Index *int `json:"index" binding:"required,min=0"`
}

// getDocument handles GET /api/document
func (s *Server) getDocument(c *gin.Context) {
	success(c, http.StatusOK, s.state.Snapshot(), "")
}

// addModel handles POST /api/models
func (s *Server) addModel(c *gin.Context) {
	var m schema.Model
	if err := c.ShouldBindJSON(&m); err != nil {
		fail(c, http.StatusBadRequest, err, "Invalid model", nil)
		return
	}

	doc, ds, err := s.state.AddModel(m)
	if err != nil {
		s.commitError(c, validate.EntityModel, err)
		return
	}
	s.metrics.commit(string(validate.EntityModel), OutcomeCommitted)
	success(c, http.StatusCreated, CommitResult{ID: doc.Models[len(doc.Models)-1].ID, Diagnostics: ds, Document: doc}, "Model created")
}

// updateModel handles PUT /api/models/:id
func (s *Server) updateModel(c *gin.Context) {
	var m schema.Model
	if err := c.ShouldBindJSON(&m); err != nil {
		fail(c, http.StatusBadRequest, err, "Invalid model", nil)
		return
	}

	id := c.Param("id")
	doc, ds, err := s.state.UpdateModel(id, m)
	if err != nil {
		s.commitError(c, validate.EntityModel, err)
		return
	}
	s.metrics.commit(string(validate.EntityModel), OutcomeCommitted)
	success(c, http.StatusOK, CommitResult{ID: id, Diagnostics: ds, Document: doc}, "Model updated")
}

// deleteModel handles DELETE /api/models/:id
func (s *Server) deleteModel(c *gin.Context) {
	doc, removed, err := s.state.DeleteModel(c.Param("id"))
	if err != nil {
		s.commitError(c, validate.EntityModel, err)
		return
	}
	s.metrics.commit(string(validate.EntityModel), OutcomeCommitted)
	success(c, http.StatusOK, DeleteResult{Removed: removed, Document: doc}, "Model deleted")
}

// moveModel handles POST /api/models/:id/move
func (s *Server) moveModel(c *gin.Context) {
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err, "Invalid move request", nil)
		return
	}

	doc, err := s.state.MoveModel(c.Param("id"), *req.Index)
	if err != nil {
		s.commitError(c, validate.EntityModel, err)
		return
	}
	s.metrics.commit(string(validate.EntityModel), OutcomeCommitted)
	success(c, http.StatusOK, doc, "Model moved")
}

// addRelationship handles POST /api/relationships
func (s *Server) addRelationship(c *gin.Context) {
	var r schema.Relationship
	if err := c.ShouldBindJSON(&r); err != nil {
		fail(c, http.StatusBadRequest, err, "Invalid relationship", nil)
		return
	}

	doc, ds, err := s.state.AddRelationship(r)
	if err != nil {
		s.commitError(c, validate.EntityRelationship, err)
		return
	}
	s.metrics.commit(string(validate.EntityRelationship), OutcomeCommitted)
	id := doc.Relationships[len(doc.Relationships)-1].ID
	success(c, http.StatusCreated, CommitResult{ID: id, Diagnostics: ds, Document: doc}, "Relationship created")
}

// updateRelationship handles PUT /api/relationships/:id
func (s *Server) updateRelationship(c *gin.Context) {
	var r schema.Relationship
	if err := c.ShouldBindJSON(&r); err != nil {
		fail(c, http.StatusBadRequest, err, "Invalid relationship", nil)
		return
	}

	id := c.Param("id")
	doc, ds, err := s.state.UpdateRelationship(id, r)
	if err != nil {
		s.commitError(c, validate.EntityRelationship, err)
		return
	}
	s.metrics.commit(string(validate.EntityRelationship), OutcomeCommitted)
	success(c, http.StatusOK, CommitResult{ID: id, Diagnostics: ds, Document: doc}, "Relationship updated")
}

// deleteRelationship handles DELETE /api/relationships/:id
func (s *Server) deleteRelationship(c *gin.Context) {
	doc, err := s.state.DeleteRelationship(c.Param("id"))
	if err != nil {
		s.commitError(c, validate.EntityRelationship, err)
		return
	}
	s.metrics.commit(string(validate.EntityRelationship), OutcomeCommitted)
	success(c, http.StatusOK, DeleteResult{Document: doc}, "Relationship deleted")
}

// validateDocument handles GET /api/validate
func (s *Server) validateDocument(c *gin.Context) {
	success(c, http.StatusOK, validate.ValidateDocument(s.state.Snapshot()), "")
}

// validateModel handles POST /api/validate/model. The candidate is checked
// against the committed models, replacing the one with the same id.
func (s *Server) validateModel(c *gin.Context) {
	var m schema.Model
	if err := c.ShouldBindJSON(&m); err != nil {
		fail(c, http.StatusBadRequest, err, "Invalid model", nil)
		return
	}

	doc := s.state.Snapshot()
	next, replaced := doc.UpdateModel(m.ID, m)
	if !replaced {
		next = doc.AddModel(m)
	}
	success(c, http.StatusOK, diagnosticsData(validate.ValidateModel(m, next.Models)), "")
}

// validateField handles POST /api/validate/field
func (s *Server) validateField(c *gin.Context) {
	var f schema.Field
	if err := c.ShouldBindJSON(&f); err != nil {
		fail(c, http.StatusBadRequest, err, "Invalid field", nil)
		return
	}
	success(c, http.StatusOK, diagnosticsData(validate.ValidateField(f)), "")
}

// validateRelationship handles POST /api/validate/relationship
func (s *Server) validateRelationship(c *gin.Context) {
	var r schema.Relationship
	if err := c.ShouldBindJSON(&r); err != nil {
		fail(c, http.StatusBadRequest, err, "Invalid relationship", nil)
		return
	}
	doc := s.state.Snapshot()
	success(c, http.StatusOK, diagnosticsData(validate.ValidateRelationship(r, doc.Models)), "")
}

// schemaPrisma handles GET /api/schema.prisma
func (s *Server) schemaPrisma(c *gin.Context) {
	s.preview(c, formatter.FormatPrisma, "text/plain; charset=utf-8", func(doc schema.Document) ([]byte, error) {
		return []byte(formatter.GenerateWithOptions(doc.Models, doc.Relationships, s.prisma)), nil
	})
}

// docsMarkdown handles GET /api/docs.md
func (s *Server) docsMarkdown(c *gin.Context) {
	s.preview(c, formatter.FormatMarkdown, "text/markdown; charset=utf-8", func(doc schema.Document) ([]byte, error) {
		var buf bytes.Buffer
		if err := formatter.NewMarkdownFormatter(&buf).Format(&doc); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	})
}

// preview renders the current snapshot through the render cache
func (s *Server) preview(c *gin.Context, format, contentType string, render func(schema.Document) ([]byte, error)) {
	doc := s.state.Snapshot()
	out, hit, err := s.cache.render(format, doc, func() ([]byte, error) {
		start := time.Now()
		out, err := render(doc)
		if err == nil {
			s.metrics.observeGeneration(format, time.Since(start).Seconds())
		}
		return out, err
	})
	if err != nil {
		fail(c, http.StatusInternalServerError, err, "Failed to render "+format, nil)
		return
	}

	s.metrics.renderCache(hit)
	if hit {
		c.Header("X-Render-Cache", "hit")
	} else {
		c.Header("X-Render-Cache", "miss")
	}
	c.Data(http.StatusOK, contentType, out)
}

func diagnosticsData(ds validate.Diagnostics) gin.H {
	if ds == nil {
		ds = validate.Diagnostics{}
	}
	return gin.H{
		"valid":       !ds.HasErrors(),
		"diagnostics": ds,
	}
}

// commitError maps a container error to a response
func (s *Server) commitError(c *gin.Context, entity validate.Entity, err error) {
	var rejected *state.RejectedError
	switch {
	case errors.As(err, &rejected):
		s.metrics.commit(string(entity), OutcomeRejected)
		fail(c, http.StatusUnprocessableEntity, err, "Commit rejected by validation",
			gin.H{"diagnostics": rejected.Diagnostics})
	case errors.Is(err, state.ErrNotFound):
		fail(c, http.StatusNotFound, err, fmt.Sprintf("%s not found", entity), nil)
	case errors.Is(err, state.ErrInvalidIndex):
		fail(c, http.StatusBadRequest, err, "Invalid move request", nil)
	case errors.Is(err, state.ErrDuplicateID):
		fail(c, http.StatusConflict, err, fmt.Sprintf("%s id already exists", entity), nil)
	default:
		s.metrics.commit(string(entity), OutcomeFailed)
		s.logger.Error("commit failed", "entity", entity, "error", err)
		fail(c, http.StatusInternalServerError, err, "Failed to commit", nil)
	}
}
