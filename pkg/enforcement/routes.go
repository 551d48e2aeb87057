package enforcement

import (
	"net/http"
	"strings"

	"github.com/centerhub/billing/pkg/subscription"
)

// Route maps a path segment to the resource a POST on it creates.
type Route struct {
	Segment  string
	Resource subscription.Resource
}

// RouteTable is an ordered static mapping from request target to metered resource.
// The first route whose segment appears in the path wins, so nested targets such
// as /groups/{id}/students resolve to students.
type RouteTable []Route

// DefaultRoutes covers the three metered resources.
var DefaultRoutes = RouteTable{
	{Segment: "students", Resource: subscription.ResourceStudents},
	{Segment: "teachers", Resource: subscription.ResourceTeachers},
	{Segment: "groups", Resource: subscription.ResourceGroups},
}

// Match returns the resource a request creates. Only POST creates resources.
func (t RouteTable) Match(method, path string) (subscription.Resource, bool) {
	if method != http.MethodPost {
		return "", false
	}
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for _, route := range t {
		for _, seg := range segments {
			if seg == route.Segment {
				return route.Resource, true
			}
		}
	}
	return "", false
}
