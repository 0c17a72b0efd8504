// Package handler turns typed request handlers into http.HandlerFunc values.
//
// A HandlerFunc receives a Context and a request struct filled by binders, and
// returns a Response that renders itself:
//
//	type getRun struct {
//		ID uuid.UUID `path:"id"`
//	}
//
//	h := func(ctx handler.Context, req getRun) handler.Response {
//		run, err := runs.Status(ctx, req.ID)
//		if err != nil {
//			return handler.JSONError(err)
//		}
//		return handler.JSON(run)
//	}
//
//	r.Get("/v1/runs/{id}", handler.Wrap(h,
//		handler.WithBinders[getRun](binder.Path(chi.URLParam)),
//		handler.WithErrorHandler[getRun](handler.NewErrorHandler(log)),
//	))
//
// JSON bodies use the envelope {"data": ..., "meta": ..., "error": {...}}. Errors
// carrying an HTTPError or ValidationError pick their status code from it.
package handler
