// Copyright (c) 2025 anirudhqwerty.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Install request logging on a chi router:

	r.Use(middleware.WithLogging(m))

Logs method, path, status, client IP and duration_ms of every request. When
a *metrics.Metrics is given, each request is also counted under its chi route
pattern (for example /customers/{id}), so path parameters do not explode
label cardinality.

# JSON Helpers

Write JSON responses:

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")

# Pagination

Parse limit/offset query parameters:

	page, err := middleware.ParsePagination(r)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

limit defaults to 100 and is clamped to 1000. offset defaults to 0.
Non-numeric values, limit < 1 and offset < 0 return a *ParamError.

# Client IP Extraction

Get the original client IP (handles X-Forwarded-For, X-Real-IP):

	ip := middleware.GetClientIP(r)
*/
package middleware
