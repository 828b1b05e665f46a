package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

const listSegment = "list"

// SetupBookRoutes injects book related the api endpoints.
func (api *APIHandler) SetupBookRoutes(router *httprouter.Router, m *MiddlewareMap) *httprouter.Router {
	router.GET("/", m.public(api.Index))
	router.GET("/status", m.public(api.Status))
	router.POST("/book", m.public(api.CreateBook))
	router.GET("/book/:id", m.public(api.GetBook))
	router.PUT("/book/:id", m.public(api.UpdateBook))
	router.DELETE("/book/:id", m.public(api.DeleteOneBook))
	return router
}

// GetBook serves `/book/list` and `/book/:id`. httprouter refuses a static
// segment next to a named parameter so both share the same route.
func (api *APIHandler) GetBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if ps.ByName("id") == listSegment {
		api.ListBooks(w, r, ps)
		return
	}
	api.GetOneBook(w, r, ps)
}
