package main

import (
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// failure logs the error with the request id then sends the error response.
func (api *APIHandler) failure(w http.ResponseWriter, r *http.Request, status int, message string, data interface{}, err error) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	api.GetLoggerFromContext(r.Context()).Error(message, zap.Int("response.status", status), zap.Error(err))
	errResp := NewAPIError(requestID, status, message, data)
	if werr := WriteErrorResponse(r.Context(), w, errResp); werr != nil {
		api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(werr))
	}
}

// storageFailure maps a storage error to its response. A missing book
// is reported with 404 and the not found message.
func (api *APIHandler) storageFailure(w http.ResponseWriter, r *http.Request, message string, err error) {
	var nf *NotFoundError
	if errors.As(err, &nf) {
		api.failure(w, r, http.StatusNotFound, nf.Error(), EmptyData, err)
		return
	}
	api.failure(w, r, http.StatusInternalServerError, message, EmptyData, err)
}

func (api *APIHandler) success(w http.ResponseWriter, r *http.Request, data interface{}) {
	if err := WriteResponse(r.Context(), w, http.StatusOK, data); err != nil {
		api.logger.Error("failed to send response",
			zap.String("request.id", GetValueFromContext(r.Context(), RequestIDContextKey)),
			zap.Error(err),
		)
	}
}

// ListBooks godoc
// @Summary      List books
// @Description  Lists the books matching every provided filter. Author and title accept `?` and `*` wildcards.
// @Tags         book
// @Produce      json
// @Param        author               query  string  false  "author or author pattern"
// @Param        title                query  string  false  "title or title pattern"
// @Param        published_date_from  query  string  false  "published strictly after"
// @Param        published_date_to    query  string  false  "published strictly before"
// @Success      200  {array}   Book
// @Failure      400  {object}  APIError
// @Router       /book/list [get]
func (api *APIHandler) ListBooks(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	criteria, err := ParseCriteria(r.URL.Query())
	if err != nil {
		api.failure(w, r, http.StatusBadRequest, err.Error(), EmptyData, err)
		return
	}

	books, err := api.bookService.List(r.Context(), criteria)
	if err != nil {
		api.storageFailure(w, r, "failed to list books", err)
		return
	}
	api.logger.Info("success to list books",
		zap.String("request.id", GetValueFromContext(r.Context(), RequestIDContextKey)),
		zap.Int("books.count", len(books)),
	)
	api.success(w, r, books)
}

// CreateBook godoc
// @Summary      Create a book
// @Tags         book
// @Accept       json
// @Produce      json
// @Param        book  body      BookUpdate  true  "book fields"
// @Success      200   {object}  Book
// @Failure      400   {object}  APIError
// @Router       /book [post]
func (api *APIHandler) CreateBook(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var u BookUpdate
	if err := DecodeBookUpdateRequestBody(r, &u); err != nil {
		api.failure(w, r, http.StatusBadRequest, "failed to create the book", err.Error(), err)
		return
	}

	book, err := api.bookService.Create(r.Context(), u)
	if err != nil {
		api.storageFailure(w, r, "failed to create the book", err)
		return
	}
	api.logger.Info("success to create book",
		zap.String("request.id", GetValueFromContext(r.Context(), RequestIDContextKey)),
		zap.Int64("book.id", book.ID),
	)
	api.success(w, r, book)
}

// GetOneBook godoc
// @Summary      Find a book
// @Tags         book
// @Produce      json
// @Param        id   path      int  true  "book id"
// @Success      200  {object}  Book
// @Failure      404  {object}  APIError
// @Router       /book/{id} [get]
func (api *APIHandler) GetOneBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := ParseBookID(ps.ByName("id"))
	if err != nil {
		api.failure(w, r, http.StatusBadRequest, "book id provided is not valid", EmptyData, err)
		return
	}

	book, err := api.bookService.Find(r.Context(), id)
	if err != nil {
		api.storageFailure(w, r, "failed to get the book", err)
		return
	}
	api.logger.Info("success to get book",
		zap.String("request.id", GetValueFromContext(r.Context(), RequestIDContextKey)),
		zap.Int64("book.id", id),
	)
	api.success(w, r, book)
}

// UpdateBook godoc
// @Summary      Update a book
// @Description  Overwrites only the provided fields.
// @Tags         book
// @Accept       json
// @Produce      json
// @Param        id    path      int         true  "book id"
// @Param        book  body      BookUpdate  true  "fields to change"
// @Success      200   {object}  Book
// @Failure      400   {object}  APIError
// @Failure      404   {object}  APIError
// @Router       /book/{id} [put]
func (api *APIHandler) UpdateBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := ParseBookID(ps.ByName("id"))
	if err != nil {
		api.failure(w, r, http.StatusBadRequest, "book id provided is not valid", EmptyData, err)
		return
	}

	var u BookUpdate
	if err = DecodeBookUpdateRequestBody(r, &u); err != nil {
		api.failure(w, r, http.StatusBadRequest, "failed to update the book", err.Error(), err)
		return
	}

	book, err := api.bookService.Update(r.Context(), id, u)
	if err != nil {
		api.storageFailure(w, r, "failed to update the book", err)
		return
	}
	api.logger.Info("success to update book",
		zap.String("request.id", GetValueFromContext(r.Context(), RequestIDContextKey)),
		zap.Int64("book.id", id),
	)
	api.success(w, r, book)
}

// DeleteOneBook godoc
// @Summary      Delete a book
// @Tags         book
// @Produce      json
// @Param        id   path      int  true  "book id"
// @Success      200  {object}  Book
// @Failure      404  {object}  APIError
// @Router       /book/{id} [delete]
func (api *APIHandler) DeleteOneBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := ParseBookID(ps.ByName("id"))
	if err != nil {
		api.failure(w, r, http.StatusBadRequest, "book id provided is not valid", EmptyData, err)
		return
	}

	book, err := api.bookService.Remove(r.Context(), id)
	if err != nil {
		api.storageFailure(w, r, "failed to delete the book", err)
		return
	}
	api.logger.Info("success to delete book",
		zap.String("request.id", GetValueFromContext(r.Context(), RequestIDContextKey)),
		zap.Int64("book.id", id),
	)
	api.success(w, r, book)
}

// NotFound returns a handler for unknown routes.
func (api *APIHandler) NotFound() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := api.idsHandler.Generate(RequestIDPrefix)
		api.logger.Info("route not found",
			zap.String("request.id", requestID),
			zap.String("request.method", r.Method),
			zap.String("request.path", r.URL.Path),
		)
		errResp := NewAPIError(requestID, http.StatusNotFound, "the requested resource does not exist", EmptyData)
		if err := WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
	})
}
