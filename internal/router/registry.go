// Package router prints the startup route table for the reverse proxy.
// Route wiring itself lives in internal/reverseproxy (http.ServeMux with
// Go 1.22+ patterns); this package only renders what got wired.
package router

import (
	"fmt"
	"sort"

	"github.com/pterm/pterm"

	"github.com/auroraswarm/swarm/internal/logger"
)

// RouteInfo describes one registered endpoint for display purposes only.
type RouteInfo struct {
	Method      string
	Path        string
	Description string
	Order       int
}

// RouteRegistry accumulates RouteInfo entries in registration order and
// renders them as a table once the proxy server is ready to serve.
type RouteRegistry struct {
	routes []RouteInfo
	logger logger.StyledLogger
}

func NewRouteRegistry(log logger.StyledLogger) *RouteRegistry {
	return &RouteRegistry{logger: log}
}

func (r *RouteRegistry) Register(method, path, description string) {
	r.routes = append(r.routes, RouteInfo{
		Method:      method,
		Path:        path,
		Description: description,
		Order:       len(r.routes),
	})
}

// LogTable prints a pterm table of every registered route, in
// registration order, and logs how many were registered.
func (r *RouteRegistry) LogTable() {
	if len(r.routes) == 0 {
		return
	}

	entries := make([]RouteInfo, len(r.routes))
	copy(entries, r.routes)
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Order < entries[j].Order
	})

	tableData := [][]string{{"METHOD", "ROUTE", "DESCRIPTION"}}
	for _, entry := range entries {
		tableData = append(tableData, []string{entry.Method, entry.Path, entry.Description})
	}

	r.logger.InfoWithCount("Registered proxy routes", len(entries))
	tableString, _ := pterm.DefaultTable.WithHasHeader().WithData(tableData).Srender()
	fmt.Print(tableString)
}

func (r *RouteRegistry) Routes() []RouteInfo {
	return r.routes
}
