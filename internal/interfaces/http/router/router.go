package router

import "github.com/gin-gonic/gin"

// RouteRegistrar attaches routes to a versioned API group.
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router collects registrars and mounts them under /api/<version>.
type Router struct {
	engine     *gin.Engine
	apiVersion string
	registrars []RouteRegistrar
}

type Option func(*Router)

// WithAPIVersion overrides the default "v1" path segment.
func WithAPIVersion(version string) Option {
	return func(r *Router) {
		r.apiVersion = version
	}
}

func NewRouter(engine *gin.Engine, opts ...Option) *Router {
	r := &Router{engine: engine, apiVersion: "v1"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register queues a registrar for Setup. Returns the router for chaining.
func (r *Router) Register(reg RouteRegistrar) *Router {
	r.registrars = append(r.registrars, reg)
	return r
}

// Setup mounts every registered group under the versioned API prefix.
func (r *Router) Setup() {
	api := r.engine.Group("/api/" + r.apiVersion)
	for _, reg := range r.registrars {
		reg.RegisterRoutes(api)
	}
}

// DomainGroup groups the routes of one API domain (search, listings,
// dataset, system) under a shared path prefix.
type DomainGroup struct {
	name   string
	prefix string
	routes []route
}

type route struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
}

func NewDomainGroup(name, prefix string) *DomainGroup {
	return &DomainGroup{name: name, prefix: prefix}
}

func (dg *DomainGroup) handle(method, path string, handlers []gin.HandlerFunc) *DomainGroup {
	dg.routes = append(dg.routes, route{method: method, path: path, handlers: handlers})
	return dg
}

func (dg *DomainGroup) GET(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.handle("GET", path, handlers)
}

func (dg *DomainGroup) POST(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.handle("POST", path, handlers)
}

// RegisterRoutes implements RouteRegistrar.
func (dg *DomainGroup) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group(dg.prefix)
	for _, rt := range dg.routes {
		group.Handle(rt.method, rt.path, rt.handlers...)
	}
}

// Name identifies the group in logs.
func (dg *DomainGroup) Name() string {
	return dg.name
}
