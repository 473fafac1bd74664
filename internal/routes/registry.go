package routes

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/voicebridge/voicebridge/internal/action"
)

var placeholderRe = regexp.MustCompile(`\{([a-zA-Z0-9_]+)\}`)

// Registry resolves routes to addresses and addresses back to routes.
// It is immutable after New and safe for unsynchronized concurrent reads.
type Registry struct {
	routes []Route

	byName        map[string]int
	byMessageType map[string]int
	byEventName   map[string]int
	byAction      map[action.Type]int

	paths []compiledPath
}

type compiledPath struct {
	route   int
	pattern *regexp.Regexp
	params  []string
}

// New builds a registry from a route table. Construction fails if any
// route lacks an address for any protocol, repeats a name, or declares a
// path template whose placeholders are not all listed in Params.
func New(table []Route) (*Registry, error) {
	r := &Registry{
		routes:        make([]Route, len(table)),
		byName:        make(map[string]int, len(table)),
		byMessageType: make(map[string]int, len(table)),
		byEventName:   make(map[string]int, len(table)),
		byAction:      make(map[action.Type]int, len(table)),
	}
	copy(r.routes, table)

	for i, rt := range r.routes {
		if rt.Name == "" {
			return nil, fmt.Errorf("route %d has no name", i)
		}
		if _, dup := r.byName[rt.Name]; dup {
			return nil, fmt.Errorf("duplicate route name %q", rt.Name)
		}
		if rt.Path == "" || rt.MessageType == "" || rt.EventName == "" {
			return nil, fmt.Errorf("route %q is missing a per-protocol address", rt.Name)
		}
		r.byName[rt.Name] = i

		// First catalog entry wins on shared tags. Collisions are legal
		// and resolved deterministically by definition order.
		if _, exists := r.byMessageType[rt.MessageType]; !exists {
			r.byMessageType[rt.MessageType] = i
		}
		if _, exists := r.byEventName[rt.EventName]; !exists {
			r.byEventName[rt.EventName] = i
		}
		if rt.Action != "" {
			if _, exists := r.byAction[rt.Action]; !exists {
				r.byAction[rt.Action] = i
			}
		}

		cp, err := compilePath(i, rt)
		if err != nil {
			return nil, err
		}
		r.paths = append(r.paths, cp)
	}
	return r, nil
}

// NewFromCatalog builds the registry over the fixed catalog.
func NewFromCatalog() (*Registry, error) {
	return New(Catalog())
}

func compilePath(idx int, rt Route) (compiledPath, error) {
	template := rt.Path
	if !strings.HasPrefix(template, "/") {
		return compiledPath{}, fmt.Errorf("route %q: path template %q must start with /", rt.Name, template)
	}

	declared := make(map[string]bool, len(rt.Params))
	for _, p := range rt.Params {
		declared[p] = true
	}

	var (
		sb     strings.Builder
		params []string
		last   int
	)
	sb.WriteString("^")
	for _, loc := range placeholderRe.FindAllStringSubmatchIndex(template, -1) {
		sb.WriteString(regexp.QuoteMeta(template[last:loc[0]]))
		name := template[loc[2]:loc[3]]
		if !declared[name] {
			return compiledPath{}, fmt.Errorf("route %q: placeholder {%s} not declared in Params", rt.Name, name)
		}
		// One placeholder captures exactly one non-/ segment.
		sb.WriteString("([^/]+)")
		params = append(params, name)
		last = loc[1]
	}
	sb.WriteString(regexp.QuoteMeta(template[last:]))
	sb.WriteString("$")

	pattern, err := regexp.Compile(sb.String())
	if err != nil {
		return compiledPath{}, fmt.Errorf("route %q: compile path template %q: %w", rt.Name, template, err)
	}
	return compiledPath{route: idx, pattern: pattern, params: params}, nil
}

// Route returns the route with the given name.
func (r *Registry) Route(name string) (Route, error) {
	i, ok := r.byName[name]
	if !ok {
		return Route{}, &NotFoundError{Route: name}
	}
	return r.routes[i], nil
}

// AddressFor renders the route's address for the given protocol. For the
// path protocol every template placeholder must be present in params; a
// missing value is an explicit validation error, never a literal "{name}"
// leaking onto the wire.
func (r *Registry) AddressFor(name string, p Protocol, params map[string]string) (string, error) {
	i, ok := r.byName[name]
	if !ok {
		return "", &NotFoundError{Route: name}
	}
	rt := r.routes[i]

	switch p {
	case ProtocolMessage:
		return rt.MessageType, nil
	case ProtocolEvent:
		return rt.EventName, nil
	case ProtocolPath:
		var missing []string
		addr := placeholderRe.ReplaceAllStringFunc(rt.Path, func(ph string) string {
			key := ph[1 : len(ph)-1]
			v, ok := params[key]
			if !ok || v == "" {
				missing = append(missing, key)
				return ph
			}
			return v
		})
		if len(missing) > 0 {
			return "", &ValidationError{Route: name, Missing: missing}
		}
		return addr, nil
	default:
		return "", fmt.Errorf("unknown protocol %q", p)
	}
}

// RouteFor resolves an address back to a route. Path addresses match
// against anchored compiled templates in catalog order; tag addresses
// are exact-string lookups. Shared addresses resolve to the first
// catalog entry. A miss is a NotFoundError, never a guess.
func (r *Registry) RouteFor(p Protocol, address string) (Route, map[string]string, error) {
	switch p {
	case ProtocolMessage:
		if i, ok := r.byMessageType[address]; ok {
			return r.routes[i], nil, nil
		}
	case ProtocolEvent:
		if i, ok := r.byEventName[address]; ok {
			return r.routes[i], nil, nil
		}
	case ProtocolPath:
		for _, cp := range r.paths {
			m := cp.pattern.FindStringSubmatch(address)
			if m == nil {
				continue
			}
			var params map[string]string
			if len(cp.params) > 0 {
				params = make(map[string]string, len(cp.params))
				for j, name := range cp.params {
					params[name] = m[j+1]
				}
			}
			return r.routes[cp.route], params, nil
		}
	default:
		return Route{}, nil, fmt.Errorf("unknown protocol %q", p)
	}
	return Route{}, nil, &NotFoundError{Protocol: p, Address: address}
}

// ValidateParameters reports whether every required parameter of the
// route has a key in provided. Presence is key presence: an explicitly
// provided empty value passes here, and AddressFor still refuses to
// render it into an empty path segment. Extra parameters are fine;
// adapters pass them through as message extras.
func (r *Registry) ValidateParameters(name string, provided map[string]string) error {
	i, ok := r.byName[name]
	if !ok {
		return &NotFoundError{Route: name}
	}
	var missing []string
	for _, p := range r.routes[i].Params {
		if _, ok := provided[p]; !ok {
			missing = append(missing, p)
		}
	}
	if len(missing) > 0 {
		return &ValidationError{Route: name, Missing: missing}
	}
	return nil
}

// ActionRoute returns the first catalog route declaring the given
// canonical action.
func (r *Registry) ActionRoute(t action.Type) (Route, error) {
	i, ok := r.byAction[t]
	if !ok {
		return Route{}, &NotFoundError{Route: string(t)}
	}
	return r.routes[i], nil
}

// CategoryOf returns the route's category.
func (r *Registry) CategoryOf(name string) (Category, error) {
	i, ok := r.byName[name]
	if !ok {
		return "", &NotFoundError{Route: name}
	}
	return r.routes[i].Category, nil
}

// RoutesByCategory returns the routes in one category, in catalog order.
func (r *Registry) RoutesByCategory(c Category) []Route {
	var out []Route
	for _, rt := range r.routes {
		if rt.Category == c {
			out = append(out, rt)
		}
	}
	return out
}

// BidirectionalRoutes returns the routes the server pushes outbound.
func (r *Registry) BidirectionalRoutes() []Route {
	var out []Route
	for _, rt := range r.routes {
		if rt.Bidirectional {
			out = append(out, rt)
		}
	}
	return out
}

// Routes returns a copy of the full catalog in definition order.
func (r *Registry) Routes() []Route {
	out := make([]Route, len(r.routes))
	copy(out, r.routes)
	return out
}
