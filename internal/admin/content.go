package admin

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Zachkp/folio/internal/content"
)

const newID = "new"

// maxBodyBytes bounds JSON and YAML payloads.
const maxBodyBytes = 1 << 20

// row is one line of a collection listing.
type row struct {
	ID        string
	Label     string
	UpdatedAt time.Time
}

// describe picks a human label for any content document.
func describe(v any) row {
	switch d := v.(type) {
	case *content.SectionSettings:
		return row{d.ID, d.Title, d.UpdatedAt}
	case *content.Profile:
		return row{d.ID, d.Name, d.UpdatedAt}
	case *content.Project:
		return row{d.ID, d.Title, d.UpdatedAt}
	case *content.Post:
		label := d.Title
		if !d.Published {
			label += " (draft)"
		}
		return row{d.ID, label, d.UpdatedAt}
	case *content.Testimonial:
		return row{d.ID, d.Author, d.UpdatedAt}
	case *content.Experience:
		return row{d.ID, d.Role + " at " + d.Company, d.UpdatedAt}
	case *content.Education:
		return row{d.ID, d.Degree + ", " + d.Institution, d.UpdatedAt}
	case *content.Skill:
		return row{d.ID, d.Name, d.UpdatedAt}
	case *content.Message:
		return row{d.ID, d.Name + " <" + d.Email + ">", d.UpdatedAt}
	}
	return row{}
}

// creatable reports whether the dashboard offers a "new" button. Sections
// and the profile have fixed ids; messages come from the contact form.
func creatable(collection string) bool {
	switch collection {
	case content.CollectionSections, content.CollectionProfile, content.CollectionMessages:
		return false
	}
	return true
}

// allowedID reports whether id may be written in collection. Sections and
// the profile only exist under their fixed ids.
func allowedID(collection, id string) bool {
	switch collection {
	case content.CollectionSections:
		return content.IsSection(id)
	case content.CollectionProfile:
		return id == content.ProfileID
	}
	return true
}

func (h *Handler) editor(c *gin.Context) (content.Editor, bool) {
	e, ok := h.repo.Editor(c.Param("collection"))
	if !ok {
		c.HTML(http.StatusNotFound, "admin-error.html", gin.H{"Title": "Not found", "error": "Unknown collection"})
	}
	return e, ok
}

func (h *Handler) contentList(c *gin.Context) {
	e, ok := h.editor(c)
	if !ok {
		return
	}
	items, err := e.ListAny(c.Request.Context())
	if err != nil {
		h.renderError(c, "Failed to load "+e.Name(), err)
		return
	}
	rows := make([]row, len(items))
	for i, item := range items {
		rows[i] = describe(item)
	}
	c.HTML(http.StatusOK, "admin-content.html", gin.H{
		"Title":       "Content: " + e.Name(),
		"collection":  e.Name(),
		"collections": h.repo.Collections(),
		"creatable":   creatable(e.Name()),
		"items":       rows,
	})
}

func (h *Handler) contentEdit(c *gin.Context) {
	e, ok := h.editor(c)
	if !ok {
		return
	}
	id := c.Param("id")
	var doc any
	if id == newID {
		doc = e.New()
	} else {
		var err error
		if doc, err = e.GetAny(c.Request.Context(), id); err != nil {
			if content.IsNotFound(err) {
				c.HTML(http.StatusNotFound, "admin-error.html", gin.H{"Title": "Not found", "error": "Document not found"})
				return
			}
			h.renderError(c, "Failed to load document", err)
			return
		}
	}
	raw, err := yaml.Marshal(doc)
	if err != nil {
		h.renderError(c, "Failed to encode document", err)
		return
	}
	h.renderEdit(c, http.StatusOK, e.Name(), id, string(raw), "", c.Query("saved") != "")
}

func (h *Handler) renderEdit(c *gin.Context, status int, collection, id, raw, errMsg string, saved bool) {
	c.HTML(status, "admin-edit.html", gin.H{
		"Title":      "Edit " + collection,
		"collection": collection,
		"id":         id,
		"isNew":      id == newID,
		"yaml":       raw,
		"error":      errMsg,
		"saved":      saved,
	})
}

func (h *Handler) contentSave(c *gin.Context) {
	e, ok := h.editor(c)
	if !ok {
		return
	}
	id := c.Param("id")
	raw := c.PostForm("yaml")
	saveID := id
	if id == newID {
		saveID = ""
	}
	if (id == newID && !creatable(e.Name())) || (id != newID && !allowedID(e.Name(), id)) {
		c.HTML(http.StatusNotFound, "admin-error.html", gin.H{"Title": "Not found", "error": "Document not found"})
		return
	}

	doc, err := e.SaveYAML(c.Request.Context(), saveID, []byte(raw))
	if err != nil {
		if errors.Is(err, content.ErrInvalid) {
			h.renderEdit(c, http.StatusUnprocessableEntity, e.Name(), id, raw, err.Error(), false)
			return
		}
		h.renderError(c, "Failed to save document", err)
		return
	}
	saved := describe(doc)
	h.logger.Info("content saved", zap.String("collection", e.Name()), zap.String("id", saved.ID), h.clientID(c))
	c.Redirect(http.StatusSeeOther, "/admin/content/"+e.Name()+"/"+url.PathEscape(saved.ID)+"?saved=1")
}

func (h *Handler) contentDelete(c *gin.Context) {
	e, ok := h.editor(c)
	if !ok {
		return
	}
	id := c.Param("id")
	if err := e.Delete(c.Request.Context(), id); err != nil && !content.IsNotFound(err) {
		h.renderError(c, "Failed to delete document", err)
		return
	}
	h.logger.Info("content deleted", zap.String("collection", e.Name()), zap.String("id", id), h.clientID(c))
	c.Redirect(http.StatusSeeOther, "/admin/content/"+e.Name())
}

// JSON API

func (h *Handler) apiError(c *gin.Context, err error) {
	switch {
	case content.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, content.ErrUnknownSection):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, content.ErrInvalid):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		h.logger.Error("admin api error", zap.String("path", c.Request.URL.Path), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (h *Handler) apiEditor(c *gin.Context) (content.Editor, bool) {
	e, ok := h.repo.Editor(c.Param("collection"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown collection"})
	}
	return e, ok
}

func readBody(c *gin.Context) ([]byte, error) {
	raw, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func (h *Handler) apiStats(c *gin.Context) {
	stats, err := h.stats(c.Request.Context())
	if err != nil {
		h.apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) apiGetSection(c *gin.Context) {
	s, err := h.repo.Section(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *Handler) apiPutSection(c *gin.Context) {
	name := c.Param("name")
	if !content.IsSection(name) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown section"})
		return
	}
	h.put(c, h.repo.Sections, name)
}

func (h *Handler) apiGetProfile(c *gin.Context) {
	p, err := h.repo.Profile(c.Request.Context())
	if err != nil {
		h.apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) apiPutProfile(c *gin.Context) {
	h.put(c, h.repo.Profiles, content.ProfileID)
}

func (h *Handler) apiList(c *gin.Context) {
	e, ok := h.apiEditor(c)
	if !ok {
		return
	}
	items, err := e.ListAny(c.Request.Context())
	if err != nil {
		h.apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) apiCreate(c *gin.Context) {
	e, ok := h.apiEditor(c)
	if !ok {
		return
	}
	if !creatable(e.Name()) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": e.Name() + " cannot be created"})
		return
	}
	raw, err := readBody(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}
	doc, err := e.SaveJSON(c.Request.Context(), "", raw)
	if err != nil {
		h.apiError(c, err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}

func (h *Handler) apiGet(c *gin.Context) {
	e, ok := h.apiEditor(c)
	if !ok {
		return
	}
	doc, err := e.GetAny(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (h *Handler) apiPut(c *gin.Context) {
	e, ok := h.apiEditor(c)
	if !ok {
		return
	}
	if !allowedID(e.Name(), c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	h.put(c, e, c.Param("id"))
}

func (h *Handler) put(c *gin.Context, e content.Editor, id string) {
	raw, err := readBody(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}
	doc, err := e.SaveJSON(c.Request.Context(), id, raw)
	if err != nil {
		h.apiError(c, err)
		return
	}
	h.logger.Info("content saved via api", zap.String("collection", e.Name()), zap.String("id", id), h.clientID(c))
	c.JSON(http.StatusOK, doc)
}

func (h *Handler) apiDelete(c *gin.Context) {
	e, ok := h.apiEditor(c)
	if !ok {
		return
	}
	id := c.Param("id")
	if err := e.Delete(c.Request.Context(), id); err != nil {
		h.apiError(c, err)
		return
	}
	h.logger.Info("content deleted via api", zap.String("collection", e.Name()), zap.String("id", id), h.clientID(c))
	c.JSON(http.StatusOK, gin.H{"message": "Document deleted successfully"})
}
