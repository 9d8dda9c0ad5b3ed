// Package admin serves the JSON back office: one registration per model
// declares its changelist columns, search fields, filters, ordering, fieldsets
// and inlines, and the site generates list, change, add and delete screens
// from it.
package admin

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"productcatalog/internal/accounts"
	"productcatalog/internal/apperr"
	"productcatalog/internal/catalog"
	"productcatalog/internal/db"
	"productcatalog/internal/logger"
	"productcatalog/internal/respond"
)

// MediaURL is the public prefix under which uploaded files are served.
const MediaURL = "/media/"

type FilterKind string

const (
	FilterDate     FilterKind = "date"
	FilterRelation FilterKind = "relation"
	FilterExact    FilterKind = "exact"
)

type Filter struct {
	Field string     `json:"field"`
	Kind  FilterKind `json:"kind"`
}

type Fieldset struct {
	Name   string   `json:"name,omitempty"`
	Fields []string `json:"fields"`
}

type Inline struct {
	Name     string   `json:"name"`
	Model    string   `json:"model"`
	Fields   []string `json:"fields"`
	ReadOnly []string `json:"readonly_fields,omitempty"`
	Extra    int      `json:"extra"`
}

// ModelAdmin is the declarative registration of one model.
type ModelAdmin struct {
	Name         string     `json:"name"`
	VerboseName  string     `json:"verbose_name"`
	Table        string     `json:"-"`
	ListDisplay  []string   `json:"list_display"`
	ListFilter   []Filter   `json:"list_filter,omitempty"`
	SearchFields []string   `json:"search_fields,omitempty"`
	Ordering     []string   `json:"ordering,omitempty"`
	ReadOnly     []string   `json:"readonly_fields,omitempty"`
	Fieldsets    []Fieldset `json:"fieldsets,omitempty"`
	Inlines      []Inline   `json:"inlines,omitempty"`
	ListPerPage  int        `json:"list_per_page"`

	// Relations maps a many-to-one field to the table it points at. The
	// foreign key column is "<field>_id".
	Relations map[string]string `json:"-"`
}

type modelView interface {
	admin() *ModelAdmin
	list(c *gin.Context)
	detail(c *gin.Context)
	create(c *gin.Context)
	update(c *gin.Context)
	remove(c *gin.Context)
}

type Deps struct {
	DB       *db.Client
	Accounts *accounts.Service
	Catalog  *catalog.Service
	Uploads  *Uploader
	Logger   *logger.Logger
	Now      func() time.Time
}

// Site owns the registrations and the session-guarded routes.
type Site struct {
	deps  Deps
	logg  *logger.Logger
	views []modelView
}

func NewSite(deps Deps) *Site {
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	s := &Site{deps: deps, logg: deps.Logger}
	s.views = []modelView{
		&productView{site: s, meta: ProductAdmin()},
		&imageView{site: s, meta: ProductImageAdmin()},
		&variationView{site: s, meta: ProductVariationAdmin()},
		&sellerView{site: s, meta: SellerAdmin()},
		&userView{site: s, meta: UserAdmin()},
	}
	return s
}

// Register mounts the admin under r. sessionMW must install the session
// store the login handlers write to.
func (s *Site) Register(r gin.IRouter, sessionMW gin.HandlerFunc) {
	g := r.Group("/admin", sessionMW)
	g.POST("/login", s.login)
	g.POST("/logout", s.logout)

	staff := g.Group("", s.requireAdmin())
	staff.GET("/", s.index)
	for _, v := range s.views {
		name := "/" + v.admin().Name
		staff.GET(name, v.list)
		staff.POST(name, v.create)
		staff.GET(name+"/:id", v.detail)
		staff.PUT(name+"/:id", v.update)
		staff.DELETE(name+"/:id", v.remove)
	}
}

func (s *Site) index(c *gin.Context) {
	models := make([]*ModelAdmin, 0, len(s.views))
	for _, v := range s.views {
		models = append(models, v.admin())
	}
	body := gin.H{"models": models}
	if u := currentUser(c); u != nil {
		body["user"] = u.Username
	}
	respond.JSON(c, http.StatusOK, body)
}

func (s *Site) fail(c *gin.Context, err error) {
	respond.Error(c, s.logg, err)
}

func pathID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.New(apperr.CodeNotFound, "object not found")
	}
	return uint(id), nil
}

func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return apperr.Wrap(apperr.CodeValidation, err, "malformed request body")
	}
	return nil
}

// saved answers an add (201) or change (200) with the refreshed change view.
func saved(c *gin.Context, created bool, view any) {
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	respond.JSON(c, status, view)
}

// ref renders a many-to-one value as its id and display string.
type ref struct {
	ID   uint   `json:"id"`
	Repr string `json:"repr"`
}

// changeView is the detail payload shared by every registration.
type changeView struct {
	Model     string       `json:"model"`
	Object    any          `json:"object"`
	Fieldsets []Fieldset   `json:"fieldsets,omitempty"`
	ReadOnly  []string     `json:"readonly_fields,omitempty"`
	Inlines   []inlineView `json:"inlines,omitempty"`
}

type inlineView struct {
	Inline
	Rows []gin.H `json:"rows"`
}

func (m *ModelAdmin) changeView(object any) changeView {
	return changeView{Model: m.Name, Object: object, Fieldsets: m.Fieldsets, ReadOnly: m.ReadOnly}
}
