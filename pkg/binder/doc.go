// Package binder fills request structs from HTTP requests.
//
// Binders have the signature func(r *http.Request, v any) error and are chained by
// handler.Wrap. JSON decodes the body strictly (unknown fields are rejected) with a
// 1MB limit and trims surrounding whitespace from every decoded string. Path copies
// router parameters into fields tagged `path:"name"`, using the extractor of the
// router in use:
//
//	type getRun struct {
//		ID uuid.UUID `path:"id"`
//	}
//
//	r.Get("/v1/runs/{id}", handler.Wrap(h, handler.WithBinders[getRun](binder.Path(chi.URLParam))))
//
// Path fields may be strings, numbers, booleans, pointers to those, or any type
// implementing encoding.TextUnmarshaler such as uuid.UUID.
package binder
