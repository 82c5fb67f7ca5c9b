package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/studio/internal/meta"
	"github.com/zulandar/studio/internal/page"
	"github.com/zulandar/studio/internal/watcher"
	"gorm.io/gorm"
)

// methodPrefix is where whitelisted methods are mounted, addressed by their
// dotted path.
const methodPrefix = "/api/method/"

type handlers struct {
	db       *gorm.DB
	registry meta.Getter
}

// registerRoutes sets up all API routes on the Gin router.
func registerRoutes(router *gin.Engine, h *handlers) {
	router.GET("/healthz", h.health)

	// Remote-call surface.
	for _, m := range []string{http.MethodGet, http.MethodPost} {
		router.Handle(m, methodPrefix+"studio.api.get_doctype_fields", h.getDocTypeFields)
	}

	// Studio pages and their watchers.
	studio := router.Group("/api/studio")
	studio.GET("/pages", h.listPages)
	studio.POST("/pages", h.createPage)
	studio.GET("/pages/:page", h.getPage)
	studio.PUT("/pages/:page", h.updatePage)
	studio.DELETE("/pages/:page", h.deletePage)
	studio.POST("/pages/:page/publish", h.publishPage)
	studio.GET("/pages/:page/watchers", h.listWatchers)
	studio.POST("/pages/:page/watchers", h.addWatcher)
	studio.PUT("/pages/:page/watchers", h.replaceWatchers)
	studio.GET("/watchers/:name", h.getWatcher)
	studio.DELETE("/watchers/:name", h.removeWatcher)
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// methodArg reads a named argument of a remote call from the query string,
// a form body, or a JSON object body, in that order.
func methodArg(c *gin.Context, key string) (string, error) {
	if v, ok := c.GetQuery(key); ok {
		return v, nil
	}
	if v, ok := c.GetPostForm(key); ok {
		return v, nil
	}
	if c.Request.Method == http.MethodGet || c.ContentType() != gin.MIMEJSON {
		return "", nil
	}
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		return "", invalid(fmt.Sprintf("invalid JSON body: %v", err))
	}
	raw, ok := body[key]
	if !ok {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", invalid(fmt.Sprintf("%s must be a string", key))
	}
	return s, nil
}

func (h *handlers) getDocTypeFields(c *gin.Context) {
	doctype, err := methodArg(c, "doctype")
	if err != nil {
		writeError(c, err)
		return
	}
	if doctype == "" {
		writeError(c, invalid("doctype is required"))
		return
	}

	fields, err := meta.GetDocTypeFields(c.Request.Context(), h.registry, doctype)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": fields})
}

func (h *handlers) listPages(c *gin.Context) {
	pages, err := page.List(c.Request.Context(), h.db)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": pages})
}

func (h *handlers) getPage(c *gin.Context) {
	p, err := page.Get(c.Request.Context(), h.db, c.Param("page"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": p})
}

func (h *handlers) createPage(c *gin.Context) {
	var body struct {
		Name      string `json:"name"`
		PageTitle string `json:"page_title"`
		Route     string `json:"route"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, invalid(fmt.Sprintf("invalid page: %v", err)))
		return
	}
	p, err := page.Create(c.Request.Context(), h.db, page.CreateOpts{
		Name:  body.Name,
		Title: body.PageTitle,
		Route: body.Route,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": p})
}

func (h *handlers) updatePage(c *gin.Context) {
	var opts page.UpdateOpts
	if err := c.ShouldBindJSON(&opts); err != nil {
		writeError(c, invalid(fmt.Sprintf("invalid page: %v", err)))
		return
	}
	p, err := page.Update(c.Request.Context(), h.db, c.Param("page"), opts)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": p})
}

func (h *handlers) deletePage(c *gin.Context) {
	if err := page.Delete(c.Request.Context(), h.db, c.Param("page")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

func (h *handlers) publishPage(c *gin.Context) {
	p, err := page.Publish(c.Request.Context(), h.db, c.Param("page"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": p})
}

func (h *handlers) listWatchers(c *gin.Context) {
	rows, err := watcher.List(c.Request.Context(), h.db, c.Param("page"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": rows})
}

func (h *handlers) addWatcher(c *gin.Context) {
	var opts watcher.Opts
	if err := c.ShouldBindJSON(&opts); err != nil {
		writeError(c, invalid(fmt.Sprintf("invalid watcher: %v", err)))
		return
	}
	w, err := watcher.Add(c.Request.Context(), h.db, c.Param("page"), opts)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": w})
}

func (h *handlers) replaceWatchers(c *gin.Context) {
	var body struct {
		Watchers []watcher.Opts `json:"watchers"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, invalid(fmt.Sprintf("invalid watchers: %v", err)))
		return
	}
	rows, err := watcher.Replace(c.Request.Context(), h.db, c.Param("page"), body.Watchers)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": rows})
}

func (h *handlers) getWatcher(c *gin.Context) {
	w, err := watcher.Get(c.Request.Context(), h.db, c.Param("name"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": w})
}

func (h *handlers) removeWatcher(c *gin.Context) {
	if err := watcher.Remove(c.Request.Context(), h.db, c.Param("name")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}
