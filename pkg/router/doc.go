// Package router implements the ordered, first-match-wins route table.
//
// The table is built once at startup and never changes:
//
//	table, err := router.New(router.Routes(indexHandler, adminHandler, apiHandler), router.Options{
//		AppendSlash: cfg.Security.AppendSlash,
//		Debug:       cfg.Security.Debug,
//	})
//
// Exact entries match only their own path, so "/" never captures
// "/admin/x" or "/api/x". Prefix entries delegate a subtree without
// stripping the prefix. Unmatched paths get a 404 page that, in debug mode,
// lists the patterns that were tried.
package router
